package doctor

import (
	"context"
	"strings"

	"github.com/hine/hine/internal/platform/apperr"
)

var validate = apperr.NewValidator()

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) CreateDoctor(ctx context.Context, d *Doctor) error {
	d.ID = strings.TrimSpace(d.ID)
	d.Name = strings.TrimSpace(d.Name)
	d.LastName = strings.TrimSpace(d.LastName)
	if err := apperr.FromValidator(validate.Struct(d)); err != nil {
		return err
	}
	d.Eliminated = false
	return s.repo.Create(ctx, d)
}

// GetDoctor returns a live doctor; eliminated doctors are not found.
func (s *Service) GetDoctor(ctx context.Context, id string) (*Doctor, error) {
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.Eliminated {
		return nil, apperr.NotFound("doctor %s not found", id)
	}
	return d, nil
}

func (s *Service) ListDoctors(ctx context.Context, limit, offset int) ([]*Doctor, int, error) {
	return s.repo.List(ctx, limit, offset)
}

// DeleteDoctor soft-deletes a doctor. Existing exams keep referencing them;
// new exams can no longer name them.
func (s *Service) DeleteDoctor(ctx context.Context, id string) error {
	return s.repo.SoftDelete(ctx, id)
}
