package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hine/hine/internal/domain/exam"
)

const examKeyPrefix = "hine:exam:"

// ExamCache stores reconstructed exams as JSON under hine:exam:<id>.
type ExamCache struct {
	kv  KVStore
	ttl time.Duration
}

// NewExamCache returns an exam.Cache backed by kv. A non-positive ttl keeps
// entries until they are deleted.
func NewExamCache(kv KVStore, ttl time.Duration) *ExamCache {
	if ttl < 0 {
		ttl = 0
	}
	return &ExamCache{kv: kv, ttl: ttl}
}

func examKey(id uuid.UUID) string { return examKeyPrefix + id.String() }

func (c *ExamCache) Get(ctx context.Context, id uuid.UUID) (*exam.HineExam, error) {
	raw, err := c.kv.Get(ctx, examKey(id))
	if err != nil {
		if errors.Is(err, ErrMiss) {
			return nil, exam.ErrCacheMiss
		}
		return nil, fmt.Errorf("get cached exam: %w", err)
	}
	var ex exam.HineExam
	if err := json.Unmarshal([]byte(raw), &ex); err != nil {
		// A stale or corrupt entry is treated as absent; the next load overwrites it.
		return nil, exam.ErrCacheMiss
	}
	return &ex, nil
}

func (c *ExamCache) Set(ctx context.Context, ex *exam.HineExam) error {
	raw, err := json.Marshal(ex)
	if err != nil {
		return fmt.Errorf("encode exam: %w", err)
	}
	if err := c.kv.Set(ctx, examKey(ex.ExamID), string(raw), c.ttl); err != nil {
		return fmt.Errorf("set cached exam: %w", err)
	}
	return nil
}

func (c *ExamCache) Delete(ctx context.Context, id uuid.UUID) error {
	if err := c.kv.Del(ctx, examKey(id)); err != nil {
		return fmt.Errorf("delete cached exam: %w", err)
	}
	return nil
}
