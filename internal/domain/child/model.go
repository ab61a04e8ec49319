package child

import (
	"strings"
	"time"
)

// Measurements is the latest demographic snapshot of a child. Exam creation
// updates it with the values captured at exam time; an empty field keeps the
// stored value.
type Measurements struct {
	GestationalAge    string `db:"gestational_age" json:"gestational_age,omitempty"`
	ChronologicalAge  string `db:"chronological_age" json:"chronological_age,omitempty"`
	CorrectedAge      string `db:"corrected_age" json:"corrected_age,omitempty"`
	HeadCircumference string `db:"head_circumference" json:"head_circumference,omitempty"`
}

func (m Measurements) trimmed() Measurements {
	return Measurements{
		GestationalAge:    strings.TrimSpace(m.GestationalAge),
		ChronologicalAge:  strings.TrimSpace(m.ChronologicalAge),
		CorrectedAge:      strings.TrimSpace(m.CorrectedAge),
		HeadCircumference: strings.TrimSpace(m.HeadCircumference),
	}
}

// IsZero reports whether no measurement is set.
func (m Measurements) IsZero() bool { return m == Measurements{} }

// Child maps to the children table. IDs are assigned by the caller (usually
// the national identity document number).
type Child struct {
	ID        string `db:"id" json:"id" validate:"required,max=64"`
	Name      string `db:"name" json:"name" validate:"required,max=120"`
	LastName  string `db:"last_name" json:"last_name" validate:"required,max=120"`
	BirthDate string `db:"birth_date" json:"birth_date" validate:"required,datetime=2006-01-02"`
	Measurements
	Eliminated bool      `db:"eliminated" json:"eliminated"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// Advisor maps to the advisors table: a parent or caregiver of one or more
// children.
type Advisor struct {
	ID          string `db:"id" json:"id" validate:"required,max=64"`
	Name        string `db:"name" json:"name" validate:"required,max=120"`
	LastName    string `db:"last_name" json:"last_name" validate:"required,max=120"`
	PhoneNumber string `db:"phone_number" json:"phone_number,omitempty" validate:"omitempty,max=32"`
	Email       string `db:"email" json:"email,omitempty" validate:"omitempty,email"`
}

// AdvisorLink maps to advisor_children.
type AdvisorLink struct {
	AdvisorID    string `db:"advisor_id" json:"advisor_id" validate:"required"`
	ChildID      string `db:"child_id" json:"child_id" validate:"required"`
	Relationship string `db:"relationship" json:"relationship" validate:"required,max=64"`
}

// LinkedAdvisor is an advisor as seen from one of their children.
type LinkedAdvisor struct {
	Advisor
	Relationship string `json:"relationship"`
}
