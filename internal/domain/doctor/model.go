package doctor

import "time"

// Doctor maps to the doctors table: the clinician who performs exams.
type Doctor struct {
	ID         string    `db:"id" json:"id" validate:"required,max=64"`
	Name       string    `db:"name" json:"name" validate:"required,max=120"`
	LastName   string    `db:"last_name" json:"last_name" validate:"required,max=120"`
	BirthDate  string    `db:"birth_date" json:"birth_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Eliminated bool      `db:"eliminated" json:"eliminated"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// FullName is the display name used on exams and reports.
func (d *Doctor) FullName() string {
	if d.LastName == "" {
		return d.Name
	}
	return d.Name + " " + d.LastName
}
