package child

import (
	"context"
	"strings"

	"github.com/hine/hine/internal/platform/apperr"
)

var validate = apperr.NewValidator()

type Service struct {
	tx       TxRunner
	children ChildRepository
	advisors AdvisorRepository
}

func NewService(tx TxRunner, children ChildRepository, advisors AdvisorRepository) *Service {
	return &Service{tx: tx, children: children, advisors: advisors}
}

func trimChild(c *Child) {
	c.ID = strings.TrimSpace(c.ID)
	c.Name = strings.TrimSpace(c.Name)
	c.LastName = strings.TrimSpace(c.LastName)
	c.BirthDate = strings.TrimSpace(c.BirthDate)
}

// -- Child --

func (s *Service) CreateChild(ctx context.Context, c *Child) error {
	trimChild(c)
	if err := apperr.FromValidator(validate.Struct(c)); err != nil {
		return err
	}
	c.Eliminated = false
	return s.children.Create(ctx, c)
}

// GetChild returns a live child; eliminated children are not found.
func (s *Service) GetChild(ctx context.Context, id string) (*Child, error) {
	c, err := s.children.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Eliminated {
		return nil, apperr.NotFound("child %s not found", id)
	}
	return c, nil
}

func (s *Service) UpdateChild(ctx context.Context, c *Child) error {
	trimChild(c)
	if err := apperr.FromValidator(validate.Struct(c)); err != nil {
		return err
	}
	return s.children.Update(ctx, c)
}

func (s *Service) DeleteChild(ctx context.Context, id string) error {
	return s.children.SoftDelete(ctx, id)
}

func (s *Service) ListChildren(ctx context.Context, limit, offset int) ([]*Child, int, error) {
	return s.children.List(ctx, limit, offset)
}

// UpdateSnapshot records the non-empty measurements in m on the child; the
// others keep their stored values. It joins the caller's transaction when one
// is open.
func (s *Service) UpdateSnapshot(ctx context.Context, id string, m Measurements) error {
	m = m.trimmed()
	if m.IsZero() {
		return nil
	}
	return s.children.UpdateSnapshot(ctx, id, m)
}

// -- Advisor --

// CreateAdvisor registers a new advisor already linked to an existing child.
func (s *Service) CreateAdvisor(ctx context.Context, a *Advisor, childID, relationship string) error {
	a.ID = strings.TrimSpace(a.ID)
	if err := apperr.FromValidator(validate.Struct(a)); err != nil {
		return err
	}
	link := &AdvisorLink{AdvisorID: a.ID, ChildID: strings.TrimSpace(childID), Relationship: strings.TrimSpace(relationship)}
	if err := apperr.FromValidator(validate.Struct(link)); err != nil {
		return err
	}

	return s.tx.WithTx(ctx, func(ctx context.Context) error {
		if _, err := s.GetChild(ctx, link.ChildID); err != nil {
			if apperr.Is(err, apperr.KindNotFound) {
				return apperr.Referential("child_id", "child %s does not exist", link.ChildID)
			}
			return err
		}
		if _, err := s.advisors.GetByID(ctx, a.ID); err == nil {
			return apperr.Validation("id", "advisor %s already exists", a.ID)
		} else if !apperr.Is(err, apperr.KindNotFound) {
			return err
		}
		if err := s.advisors.Create(ctx, a); err != nil {
			return err
		}
		return s.advisors.Link(ctx, link)
	})
}

// LinkAdvisor links an existing advisor to another child.
func (s *Service) LinkAdvisor(ctx context.Context, l *AdvisorLink) error {
	l.AdvisorID = strings.TrimSpace(l.AdvisorID)
	l.ChildID = strings.TrimSpace(l.ChildID)
	l.Relationship = strings.TrimSpace(l.Relationship)
	if err := apperr.FromValidator(validate.Struct(l)); err != nil {
		return err
	}

	if _, err := s.advisors.GetByID(ctx, l.AdvisorID); err != nil {
		return err
	}
	if _, err := s.GetChild(ctx, l.ChildID); err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return apperr.Referential("child_id", "child %s does not exist", l.ChildID)
		}
		return err
	}
	linked, err := s.advisors.IsLinked(ctx, l.AdvisorID, l.ChildID)
	if err != nil {
		return err
	}
	if linked {
		return apperr.Validation("child_id", "advisor %s is already linked to child %s", l.AdvisorID, l.ChildID)
	}
	return s.advisors.Link(ctx, l)
}

// ListAdvisors returns the advisors of a live child.
func (s *Service) ListAdvisors(ctx context.Context, childID string) ([]*LinkedAdvisor, error) {
	if _, err := s.GetChild(ctx, childID); err != nil {
		return nil, err
	}
	return s.advisors.ListByChild(ctx, childID)
}
