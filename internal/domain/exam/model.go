package exam

import (
	"time"

	"github.com/google/uuid"
)

// Snapshot holds the demographic measurements captured at exam time. Values
// are kept in the clinical notation the examiner typed (e.g. "36+2" weeks).
type Snapshot struct {
	GestationalAge    string `json:"gestationalAge,omitempty"`
	ChronologicalAge  string `json:"chronologicalAge,omitempty"`
	CorrectedAge      string `json:"correctedAge,omitempty"`
	HeadCircumference string `json:"headCircumference,omitempty"`
}

// IsZero reports whether no measurement was captured.
func (s Snapshot) IsZero() bool {
	return s == Snapshot{}
}

// Exam maps to the exams table (header row of one HINE exam).
type Exam struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	Eliminated  bool      `db:"eliminated" json:"eliminated"`
	Description string    `db:"description" json:"description"`
	ChildID     string    `db:"child_id" json:"child_id"`
	DoctorID    string    `db:"doctor_id" json:"doctor_id"`
	Snapshot
}

// Section maps to the sections table.
type Section struct {
	ID       int64     `db:"id" json:"id"`
	ExamID   uuid.UUID `db:"id_exam" json:"id_exam"`
	Name     string    `db:"section_name" json:"section_name"`
	Comments string    `db:"section_comments" json:"section_comments"`
}

// Item maps to the items table. Asymmetry counts are nil for behavior items.
type Item struct {
	ID                  int64  `db:"id" json:"id"`
	SectionID           int64  `db:"section_id" json:"section_id"`
	Title               string `db:"title" json:"title"`
	Score               *int   `db:"score" json:"score,omitempty"`
	Description         string `db:"description" json:"description"`
	RightAsymmetryCount *int   `db:"right_asimetric_count" json:"right_asimetric_count,omitempty"`
	LeftAsymmetryCount  *int   `db:"left_asimetric_count" json:"left_asimetric_count,omitempty"`
}

// ViewRow is one row of hine_exam_view: an item with its section and exam
// header denormalized onto it. Sections without items appear once with nil
// item columns.
type ViewRow struct {
	ExamID          uuid.UUID
	ChildID         string
	DoctorID        string
	DoctorName      string
	CreatedAt       time.Time
	Description     string
	Snapshot        Snapshot
	SectionID       int64
	SectionName     string
	SectionComments string
	ItemID          *int64
	ItemTitle       string
	ItemScore       *int
	ItemDescription string
	RightAsymmetry  *int
	LeftAsymmetry   *int
}

// -- Nested exam representation (request and response bodies) --

// QuestionResponse is one answered analysis or motor-milestone question.
type QuestionResponse struct {
	QuestionID     string `json:"questionId" validate:"required"`
	SelectedValue  *int   `json:"selectedValue"`
	Comment        string `json:"comment,omitempty"`
	LeftAsymmetry  bool   `json:"leftAsymmetry"`
	RightAsymmetry bool   `json:"rightAsymmetry"`
}

// BehaviorResponse is one answered behavior question; behavior carries no
// asymmetry.
type BehaviorResponse struct {
	QuestionID    string `json:"questionId" validate:"required"`
	SelectedValue *int   `json:"selectedValue"`
	Comment       string `json:"comment,omitempty"`
}

type ModuleResponse struct {
	ModuleID      string             `json:"moduleId"`
	ObtainedScore int                `json:"obtainedScore"`
	Responses     []QuestionResponse `json:"responses"`
}

type AnalysisData struct {
	Modules               []ModuleResponse `json:"modules"`
	TotalScore            int              `json:"totalScore"`
	MaxPossibleScore      int              `json:"maxPossibleScore"`
	TotalRightAsymmetries int              `json:"totalRightAsymmetries"`
	TotalLeftAsymmetries  int              `json:"totalLeftAsymmetries"`
	GeneralComments       []string         `json:"generalComments"`
}

type MotorMilestoneData struct {
	Responses       []QuestionResponse `json:"responses"`
	GeneralComments []string           `json:"generalComments"`
}

type BehaviorData struct {
	Responses       []BehaviorResponse `json:"responses"`
	GeneralComments []string           `json:"generalComments"`
}

// HineExam is the reconstructed exam returned to clients and renderers.
type HineExam struct {
	ExamID          uuid.UUID          `json:"examId"`
	PatientID       string             `json:"patientId"`
	DoctorID        string             `json:"doctorId"`
	DoctorName      string             `json:"doctorName"`
	ExamDate        time.Time          `json:"examDate"`
	Description     string             `json:"description"`
	Snapshot                           // flattened into the top level
	Analysis        AnalysisData       `json:"analysis"`
	MotorMilestones MotorMilestoneData `json:"motorMilestones"`
	Behavior        BehaviorData       `json:"behavior"`
}

// -- Submission (write side) --

// ModuleSubmission carries the answers for one analysis module.
type ModuleSubmission struct {
	ModuleID  string             `json:"moduleId" validate:"required"`
	Responses []QuestionResponse `json:"responses" validate:"dive"`
}

type AnalysisSubmission struct {
	Modules         []ModuleSubmission `json:"modules" validate:"dive"`
	GeneralComments []string           `json:"generalComments"`
}

type MotorMilestoneSubmission struct {
	Responses       []QuestionResponse `json:"responses" validate:"dive"`
	GeneralComments []string           `json:"generalComments"`
}

type BehaviorSubmission struct {
	Responses       []BehaviorResponse `json:"responses" validate:"dive"`
	GeneralComments []string           `json:"generalComments"`
}

// Submission is the full nested exam as posted by a client.
type Submission struct {
	PatientID       string                   `json:"patientId" validate:"required"`
	DoctorID        string                   `json:"doctorId" validate:"required"`
	Description     string                   `json:"description"`
	Snapshot                                 // flattened into the top level
	Analysis        AnalysisSubmission       `json:"analysis"`
	MotorMilestones MotorMilestoneSubmission `json:"motorMilestones"`
	Behavior        BehaviorSubmission       `json:"behavior"`
}
