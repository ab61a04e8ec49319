package exam

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ExamRepository persists exam header rows.
type ExamRepository interface {
	// Create inserts the header row, filling ID and CreatedAt. It fails with a
	// referential error when the child or doctor is missing or eliminated.
	Create(ctx context.Context, e *Exam) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

// SectionRepository persists section rows.
type SectionRepository interface {
	Create(ctx context.Context, s *Section) error
}

// ItemRepository persists item rows.
type ItemRepository interface {
	Create(ctx context.Context, it *Item) error
}

// ViewRepository reads hine_exam_view ordered by section id then item id.
type ViewRepository interface {
	RowsByExam(ctx context.Context, examID uuid.UUID) ([]ViewRow, error)
	RowsByChild(ctx context.Context, childID string) ([]ViewRow, error)
}

// TxRunner runs fn in one transaction; repositories called with the context
// passed to fn join it.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// SnapshotWriter mirrors the exam's demographic snapshot onto the child.
type SnapshotWriter interface {
	UpdateSnapshot(ctx context.Context, childID string, s Snapshot) error
}

// ErrCacheMiss is returned by Cache.Get when nothing is cached for an id.
var ErrCacheMiss = errors.New("exam cache miss")

// Cache stores reconstructed exams by id. Exams are immutable, so entries are
// only evicted on soft delete.
type Cache interface {
	Get(ctx context.Context, id uuid.UUID) (*HineExam, error)
	Set(ctx context.Context, ex *HineExam) error
	Delete(ctx context.Context, id uuid.UUID) error
}
