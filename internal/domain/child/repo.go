package child

import "context"

type ChildRepository interface {
	// Create fails with a validation error when the id is already taken.
	Create(ctx context.Context, c *Child) error
	// GetByID returns eliminated children too; callers decide what to do
	// with them.
	GetByID(ctx context.Context, id string) (*Child, error)
	Update(ctx context.Context, c *Child) error
	SoftDelete(ctx context.Context, id string) error
	List(ctx context.Context, limit, offset int) ([]*Child, int, error)
	UpdateSnapshot(ctx context.Context, id string, m Measurements) error
}

type AdvisorRepository interface {
	Create(ctx context.Context, a *Advisor) error
	GetByID(ctx context.Context, id string) (*Advisor, error)
	Link(ctx context.Context, l *AdvisorLink) error
	IsLinked(ctx context.Context, advisorID, childID string) (bool, error)
	ListByChild(ctx context.Context, childID string) ([]*LinkedAdvisor, error)
}

// TxRunner runs fn in one transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}
