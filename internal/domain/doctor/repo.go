package doctor

import "context"

type Repository interface {
	Create(ctx context.Context, d *Doctor) error
	GetByID(ctx context.Context, id string) (*Doctor, error)
	SoftDelete(ctx context.Context, id string) error
	List(ctx context.Context, limit, offset int) ([]*Doctor, int, error)
}
