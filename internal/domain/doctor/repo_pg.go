package doctor

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hine/hine/internal/platform/apperr"
	"github.com/hine/hine/internal/platform/db"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const doctorCols = `id, name, last_name, COALESCE(to_char(birth_date, 'YYYY-MM-DD'), ''), eliminated, created_at`

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	err := row.Scan(&d.ID, &d.Name, &d.LastName, &d.BirthDate, &d.Eliminated, &d.CreatedAt)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, apperr.NotFound("doctor not found")
		}
		return nil, apperr.Persistence(err, "read doctor failed")
	}
	return &d, nil
}

func (r *repoPG) Create(ctx context.Context, d *Doctor) error {
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO doctors (id, name, last_name, birth_date)
		VALUES ($1,$2,$3,NULLIF($4, '')::date)
		RETURNING created_at`,
		d.ID, d.Name, d.LastName, d.BirthDate,
	).Scan(&d.CreatedAt)
	if _, dup := db.UniqueViolation(err); dup {
		return apperr.Validation("id", "doctor %s already exists", d.ID)
	}
	if err != nil {
		return apperr.Persistence(err, "insert doctor failed")
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id string) (*Doctor, error) {
	return scanDoctor(db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT `+doctorCols+` FROM doctors WHERE id = $1`, id))
}

func (r *repoPG) SoftDelete(ctx context.Context, id string) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx,
		`UPDATE doctors SET eliminated = TRUE WHERE id = $1 AND NOT eliminated`, id)
	if err != nil {
		return apperr.Persistence(err, "delete doctor failed")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("doctor %s not found", id)
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Doctor, int, error) {
	conn := db.Conn(ctx, r.pool)
	var total int
	if err := conn.QueryRow(ctx, `SELECT COUNT(*) FROM doctors WHERE NOT eliminated`).Scan(&total); err != nil {
		return nil, 0, apperr.Persistence(err, "count doctors failed")
	}
	rows, err := conn.Query(ctx, `SELECT `+doctorCols+` FROM doctors WHERE NOT eliminated
		ORDER BY last_name, name, id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, apperr.Persistence(err, "list doctors failed")
	}
	defer rows.Close()
	var items []*Doctor
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, d)
	}
	return items, total, nil
}
