package exam

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hine/hine/internal/platform/apperr"
	"github.com/hine/hine/internal/platform/db"
)

// Foreign key constraint names declared in migrations/001_hine_core.sql.
var fkFields = map[string]string{
	"exams_child_id_fkey":   "patient_id",
	"exams_doctor_id_fkey":  "doctor_id",
	"sections_id_exam_fkey": "exam_id",
	"items_section_id_fkey": "section_id",
}

// CHECK constraints on items, named by Postgres' <table>_<column>_check rule.
var checkFields = map[string]string{
	"items_score_check":                 "selectedValue",
	"items_right_asimetric_count_check": "rightAsymmetry",
	"items_left_asimetric_count_check":  "leftAsymmetry",
}

// mapWriteError converts constraint violations raised by an insert into
// classified errors.
func mapWriteError(err error, op string) error {
	if err == nil {
		return nil
	}
	if constraint, ok := db.ForeignKeyViolation(err); ok {
		field := fkFields[constraint]
		if field == "" {
			field = constraint
		}
		return apperr.Referential(field, "%s references a missing %s", op, field)
	}
	if constraint, ok := db.UniqueViolation(err); ok {
		return apperr.Validation(constraint, "%s duplicates an existing row", op)
	}
	if constraint, ok := db.CheckViolation(err); ok {
		field := checkFields[constraint]
		if field == "" {
			field = constraint
		}
		return apperr.Validation(field, "%s has %s out of range", op, field)
	}
	return apperr.Persistence(err, "%s failed", op)
}

// =========== Exam Repository ===========

type examRepoPG struct{ pool *pgxpool.Pool }

func NewExamRepoPG(pool *pgxpool.Pool) ExamRepository {
	return &examRepoPG{pool: pool}
}

func (r *examRepoPG) conn(ctx context.Context) db.Queryable { return db.Conn(ctx, r.pool) }

// Create checks that the child and doctor exist and are not eliminated before
// inserting. A concurrent hard delete is still caught by the foreign keys.
func (r *examRepoPG) Create(ctx context.Context, e *Exam) error {
	var childOK, doctorOK bool
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT
			EXISTS (SELECT 1 FROM children WHERE id = $1 AND NOT eliminated),
			EXISTS (SELECT 1 FROM doctors WHERE id = $2 AND NOT eliminated)`,
		e.ChildID, e.DoctorID).Scan(&childOK, &doctorOK)
	if err != nil {
		return apperr.Persistence(err, "check exam references failed")
	}
	if !childOK {
		return apperr.Referential("patient_id", "patient %s does not exist", e.ChildID)
	}
	if !doctorOK {
		return apperr.Referential("doctor_id", "doctor %s does not exist", e.DoctorID)
	}

	e.ID = uuid.New()
	err = r.conn(ctx).QueryRow(ctx, `
		INSERT INTO exams (id, name, description, child_id, doctor_id,
			gestational_age, chronological_age, corrected_age, head_circumference)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING created_at`,
		e.ID, e.Name, e.Description, e.ChildID, e.DoctorID,
		e.GestationalAge, e.ChronologicalAge, e.CorrectedAge, e.HeadCircumference,
	).Scan(&e.CreatedAt)
	return mapWriteError(err, "insert exam")
}

func (r *examRepoPG) SoftDelete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE exams SET eliminated = TRUE WHERE id = $1 AND NOT eliminated`, id)
	if err != nil {
		return apperr.Persistence(err, "delete exam failed")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("exam %s not found", id)
	}
	return nil
}

// =========== Section Repository ===========

type sectionRepoPG struct{ pool *pgxpool.Pool }

func NewSectionRepoPG(pool *pgxpool.Pool) SectionRepository {
	return &sectionRepoPG{pool: pool}
}

func (r *sectionRepoPG) Create(ctx context.Context, s *Section) error {
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO sections (id_exam, section_name, section_comments)
		VALUES ($1,$2,$3)
		RETURNING id`,
		s.ExamID, s.Name, s.Comments,
	).Scan(&s.ID)
	return mapWriteError(err, "insert section")
}

// =========== Item Repository ===========

type itemRepoPG struct{ pool *pgxpool.Pool }

func NewItemRepoPG(pool *pgxpool.Pool) ItemRepository {
	return &itemRepoPG{pool: pool}
}

func (r *itemRepoPG) Create(ctx context.Context, it *Item) error {
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO items (section_id, title, score, description,
			right_asimetric_count, left_asimetric_count)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING id`,
		it.SectionID, it.Title, it.Score, it.Description,
		it.RightAsymmetryCount, it.LeftAsymmetryCount,
	).Scan(&it.ID)
	return mapWriteError(err, "insert item")
}

// =========== View Repository ===========

type viewRepoPG struct{ pool *pgxpool.Pool }

func NewViewRepoPG(pool *pgxpool.Pool) ViewRepository {
	return &viewRepoPG{pool: pool}
}

const viewCols = `exam_id, child_id, doctor_id, doctor_name, created_at, description,
	gestational_age, chronological_age, corrected_age, head_circumference,
	section_id, section_name, section_comments,
	item_id, item_title, item_score, item_description,
	right_asimetric_count, left_asimetric_count`

func scanViewRow(row pgx.Row) (ViewRow, error) {
	var (
		v                    ViewRow
		title, desc, comment *string
	)
	err := row.Scan(&v.ExamID, &v.ChildID, &v.DoctorID, &v.DoctorName, &v.CreatedAt, &v.Description,
		&v.Snapshot.GestationalAge, &v.Snapshot.ChronologicalAge, &v.Snapshot.CorrectedAge, &v.Snapshot.HeadCircumference,
		&v.SectionID, &v.SectionName, &comment,
		&v.ItemID, &title, &v.ItemScore, &desc,
		&v.RightAsymmetry, &v.LeftAsymmetry)
	if comment != nil {
		v.SectionComments = *comment
	}
	if title != nil {
		v.ItemTitle = *title
	}
	if desc != nil {
		v.ItemDescription = *desc
	}
	return v, err
}

func (r *viewRepoPG) query(ctx context.Context, where string, arg interface{}) ([]ViewRow, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx,
		`SELECT `+viewCols+` FROM hine_exam_view WHERE `+where+
			` ORDER BY created_at DESC, exam_id, section_id, item_id NULLS FIRST`, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ViewRow
	for rows.Next() {
		v, err := scanViewRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *viewRepoPG) RowsByExam(ctx context.Context, examID uuid.UUID) ([]ViewRow, error) {
	return r.query(ctx, "exam_id = $1", examID)
}

func (r *viewRepoPG) RowsByChild(ctx context.Context, childID string) ([]ViewRow, error) {
	return r.query(ctx, "child_id = $1", childID)
}
