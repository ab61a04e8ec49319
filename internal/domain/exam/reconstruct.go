package exam

import (
	"sort"

	"github.com/google/uuid"

	"github.com/hine/hine/internal/platform/apperr"
)

// MaxScorePerItem is the best score of a single analysis item; the exam's
// maximum possible score grows by this much for every analysis item present.
const MaxScorePerItem = 3

// bucket collects the rows of one section name in first-seen order.
type bucket struct {
	name string
	rows []ViewRow
}

// groupBySection partitions rows by section name, preserving the order in
// which each name first appears. Rows of two sections sharing a name (which
// the unique constraint prevents) are merged into one bucket.
func groupBySection(rows []ViewRow) []*bucket {
	index := make(map[string]*bucket)
	var out []*bucket
	for _, r := range rows {
		b, ok := index[r.SectionName]
		if !ok {
			b = &bucket{name: r.SectionName}
			index[r.SectionName] = b
			out = append(out, b)
		}
		b.rows = append(b.rows, r)
	}
	return out
}

// comments decodes the bucket's stored comment column. Every row of a section
// carries the same encoded value, so the first row is authoritative.
func (b *bucket) comments() []string {
	if len(b.rows) == 0 {
		return []string{}
	}
	return DecodeComments(b.rows[0].SectionComments)
}

func scoreOf(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func copyInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func questionFromRow(r ViewRow) QuestionResponse {
	return QuestionResponse{
		QuestionID:     r.ItemTitle,
		SelectedValue:  copyInt(r.ItemScore),
		Comment:        r.ItemDescription,
		LeftAsymmetry:  scoreOf(r.LeftAsymmetry) > 0,
		RightAsymmetry: scoreOf(r.RightAsymmetry) > 0,
	}
}

// Reconstruct rebuilds one nested exam from the view rows of a single exam,
// ordered by section id then item id. Empty input is a not-found error.
func Reconstruct(rows []ViewRow) (*HineExam, error) {
	if len(rows) == 0 {
		return nil, apperr.NotFound("exam not found")
	}

	first := rows[0]
	ex := &HineExam{
		ExamID:      first.ExamID,
		PatientID:   first.ChildID,
		DoctorID:    first.DoctorID,
		DoctorName:  first.DoctorName,
		ExamDate:    first.CreatedAt,
		Description: first.Description,
		Snapshot:    first.Snapshot,
		Analysis: AnalysisData{
			Modules:         []ModuleResponse{},
			GeneralComments: []string{},
		},
		MotorMilestones: MotorMilestoneData{
			Responses:       []QuestionResponse{},
			GeneralComments: []string{},
		},
		Behavior: BehaviorData{
			Responses:       []BehaviorResponse{},
			GeneralComments: []string{},
		},
	}

	analysisCommentsSet := false
	for _, b := range groupBySection(rows) {
		role, ok := ParseSectionRole(b.name)
		if !ok {
			continue
		}

		switch role.Kind {
		case SectionAnalysis:
			mod := ModuleResponse{ModuleID: role.ModuleID, Responses: []QuestionResponse{}}
			for _, r := range b.rows {
				if r.ItemID == nil {
					continue
				}
				mod.Responses = append(mod.Responses, questionFromRow(r))
				mod.ObtainedScore += scoreOf(r.ItemScore)
				ex.Analysis.MaxPossibleScore += MaxScorePerItem
				ex.Analysis.TotalLeftAsymmetries += scoreOf(r.LeftAsymmetry)
				ex.Analysis.TotalRightAsymmetries += scoreOf(r.RightAsymmetry)
			}
			ex.Analysis.TotalScore += mod.ObtainedScore
			ex.Analysis.Modules = append(ex.Analysis.Modules, mod)
			// Analysis general comments are written onto every module
			// section; the first module carries the list.
			if !analysisCommentsSet {
				ex.Analysis.GeneralComments = b.comments()
				analysisCommentsSet = true
			}

		case SectionMotorMilestones:
			for _, r := range b.rows {
				if r.ItemID == nil {
					continue
				}
				ex.MotorMilestones.Responses = append(ex.MotorMilestones.Responses, questionFromRow(r))
			}
			ex.MotorMilestones.GeneralComments = b.comments()

		case SectionBehavior:
			for _, r := range b.rows {
				if r.ItemID == nil {
					continue
				}
				ex.Behavior.Responses = append(ex.Behavior.Responses, BehaviorResponse{
					QuestionID:    r.ItemTitle,
					SelectedValue: copyInt(r.ItemScore),
					Comment:       r.ItemDescription,
				})
			}
			ex.Behavior.GeneralComments = b.comments()
		}
	}

	return ex, nil
}

// ReconstructHistory groups rows by exam, reconstructs each exam, and returns
// them most recent first. Empty input is a not-found error.
func ReconstructHistory(rows []ViewRow) ([]*HineExam, error) {
	if len(rows) == 0 {
		return nil, apperr.NotFound("no exams found")
	}

	groups := make(map[uuid.UUID][]ViewRow)
	var order []uuid.UUID
	for _, r := range rows {
		if _, ok := groups[r.ExamID]; !ok {
			order = append(order, r.ExamID)
		}
		groups[r.ExamID] = append(groups[r.ExamID], r)
	}

	exams := make([]*HineExam, 0, len(order))
	for _, id := range order {
		ex, err := Reconstruct(groups[id])
		if err != nil {
			return nil, err
		}
		exams = append(exams, ex)
	}

	sort.SliceStable(exams, func(i, j int) bool {
		return exams[i].ExamDate.After(exams[j].ExamDate)
	})
	return exams, nil
}
