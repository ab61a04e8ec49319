package child

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hine/hine/internal/platform/apperr"
	"github.com/hine/hine/internal/platform/db"
)

// =========== Child Repository ===========

type childRepoPG struct{ pool *pgxpool.Pool }

func NewChildRepoPG(pool *pgxpool.Pool) ChildRepository {
	return &childRepoPG{pool: pool}
}

func (r *childRepoPG) conn(ctx context.Context) db.Queryable { return db.Conn(ctx, r.pool) }

const childCols = `id, name, last_name, to_char(birth_date, 'YYYY-MM-DD'),
	gestational_age, chronological_age, corrected_age, head_circumference,
	eliminated, created_at, updated_at`

func (r *childRepoPG) scanChild(row pgx.Row) (*Child, error) {
	var c Child
	err := row.Scan(&c.ID, &c.Name, &c.LastName, &c.BirthDate,
		&c.GestationalAge, &c.ChronologicalAge, &c.CorrectedAge, &c.HeadCircumference,
		&c.Eliminated, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, apperr.NotFound("child not found")
		}
		return nil, apperr.Persistence(err, "read child failed")
	}
	return &c, nil
}

func (r *childRepoPG) Create(ctx context.Context, c *Child) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO children (id, name, last_name, birth_date,
			gestational_age, chronological_age, corrected_age, head_circumference)
		VALUES ($1,$2,$3,$4::date,$5,$6,$7,$8)
		RETURNING created_at, updated_at`,
		c.ID, c.Name, c.LastName, c.BirthDate,
		c.GestationalAge, c.ChronologicalAge, c.CorrectedAge, c.HeadCircumference,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if _, dup := db.UniqueViolation(err); dup {
		return apperr.Validation("id", "child %s already exists", c.ID)
	}
	if err != nil {
		return apperr.Persistence(err, "insert child failed")
	}
	return nil
}

func (r *childRepoPG) GetByID(ctx context.Context, id string) (*Child, error) {
	return r.scanChild(r.conn(ctx).QueryRow(ctx, `SELECT `+childCols+` FROM children WHERE id = $1`, id))
}

func (r *childRepoPG) Update(ctx context.Context, c *Child) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE children SET name=$2, last_name=$3, birth_date=$4::date,
			gestational_age=$5, chronological_age=$6, corrected_age=$7, head_circumference=$8,
			updated_at=NOW()
		WHERE id = $1 AND NOT eliminated
		RETURNING created_at, updated_at`,
		c.ID, c.Name, c.LastName, c.BirthDate,
		c.GestationalAge, c.ChronologicalAge, c.CorrectedAge, c.HeadCircumference,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if db.IsNoRows(err) {
		return apperr.NotFound("child %s not found", c.ID)
	}
	if err != nil {
		return apperr.Persistence(err, "update child failed")
	}
	return nil
}

func (r *childRepoPG) SoftDelete(ctx context.Context, id string) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE children SET eliminated = TRUE, updated_at = NOW() WHERE id = $1 AND NOT eliminated`, id)
	if err != nil {
		return apperr.Persistence(err, "delete child failed")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("child %s not found", id)
	}
	return nil
}

func (r *childRepoPG) List(ctx context.Context, limit, offset int) ([]*Child, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM children WHERE NOT eliminated`).Scan(&total); err != nil {
		return nil, 0, apperr.Persistence(err, "count children failed")
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+childCols+` FROM children WHERE NOT eliminated
		ORDER BY last_name, name, id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, apperr.Persistence(err, "list children failed")
	}
	defer rows.Close()
	var items []*Child
	for rows.Next() {
		c, err := r.scanChild(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, c)
	}
	return items, total, nil
}

// UpdateSnapshot sets the non-empty fields of m. Merging in the statement
// keeps concurrent exams for one child from erasing each other's fields.
func (r *childRepoPG) UpdateSnapshot(ctx context.Context, id string, m Measurements) error {
	m = m.trimmed()
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE children SET
			gestational_age    = COALESCE(NULLIF($2, ''), gestational_age),
			chronological_age  = COALESCE(NULLIF($3, ''), chronological_age),
			corrected_age      = COALESCE(NULLIF($4, ''), corrected_age),
			head_circumference = COALESCE(NULLIF($5, ''), head_circumference),
			updated_at = NOW()
		WHERE id = $1 AND NOT eliminated`,
		id, m.GestationalAge, m.ChronologicalAge, m.CorrectedAge, m.HeadCircumference)
	if err != nil {
		return apperr.Persistence(err, "update child snapshot failed")
	}
	if tag.RowsAffected() == 0 {
		return apperr.Referential("patient_id", "child %s does not exist", id)
	}
	return nil
}

// =========== Advisor Repository ===========

type advisorRepoPG struct{ pool *pgxpool.Pool }

func NewAdvisorRepoPG(pool *pgxpool.Pool) AdvisorRepository {
	return &advisorRepoPG{pool: pool}
}

func (r *advisorRepoPG) conn(ctx context.Context) db.Queryable { return db.Conn(ctx, r.pool) }

func (r *advisorRepoPG) Create(ctx context.Context, a *Advisor) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO advisors (id, name, last_name, phone_number, email)
		VALUES ($1,$2,$3,$4,$5)`,
		a.ID, a.Name, a.LastName, a.PhoneNumber, a.Email)
	if _, dup := db.UniqueViolation(err); dup {
		return apperr.Validation("id", "advisor %s already exists", a.ID)
	}
	if err != nil {
		return apperr.Persistence(err, "insert advisor failed")
	}
	return nil
}

func (r *advisorRepoPG) GetByID(ctx context.Context, id string) (*Advisor, error) {
	var a Advisor
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id, name, last_name, phone_number, email FROM advisors WHERE id = $1`, id,
	).Scan(&a.ID, &a.Name, &a.LastName, &a.PhoneNumber, &a.Email)
	if db.IsNoRows(err) {
		return nil, apperr.NotFound("advisor %s not found", id)
	}
	if err != nil {
		return nil, apperr.Persistence(err, "read advisor failed")
	}
	return &a, nil
}

func (r *advisorRepoPG) Link(ctx context.Context, l *AdvisorLink) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO advisor_children (advisor_id, child_id, relationship)
		VALUES ($1,$2,$3)`,
		l.AdvisorID, l.ChildID, l.Relationship)
	if constraint, ok := db.ForeignKeyViolation(err); ok {
		field := "child_id"
		if constraint == "advisor_children_advisor_id_fkey" {
			field = "advisor_id"
		}
		return apperr.Referential(field, "link references a missing %s", field)
	}
	if _, dup := db.UniqueViolation(err); dup {
		return apperr.Validation("child_id", "advisor %s is already linked to child %s", l.AdvisorID, l.ChildID)
	}
	if err != nil {
		return apperr.Persistence(err, "link advisor failed")
	}
	return nil
}

func (r *advisorRepoPG) IsLinked(ctx context.Context, advisorID, childID string) (bool, error) {
	var ok bool
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM advisor_children WHERE advisor_id = $1 AND child_id = $2)`,
		advisorID, childID).Scan(&ok)
	if err != nil {
		return false, apperr.Persistence(err, "check advisor link failed")
	}
	return ok, nil
}

func (r *advisorRepoPG) ListByChild(ctx context.Context, childID string) ([]*LinkedAdvisor, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT a.id, a.name, a.last_name, a.phone_number, a.email, ac.relationship
		FROM advisor_children ac
		JOIN advisors a ON a.id = ac.advisor_id
		WHERE ac.child_id = $1
		ORDER BY a.last_name, a.name`, childID)
	if err != nil {
		return nil, apperr.Persistence(err, "list advisors failed")
	}
	defer rows.Close()
	items := []*LinkedAdvisor{}
	for rows.Next() {
		var la LinkedAdvisor
		if err := rows.Scan(&la.ID, &la.Name, &la.LastName, &la.PhoneNumber, &la.Email, &la.Relationship); err != nil {
			return nil, apperr.Persistence(err, "scan advisor failed")
		}
		items = append(items, &la)
	}
	return items, rows.Err()
}
