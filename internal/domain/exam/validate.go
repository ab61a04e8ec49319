package exam

import (
	"fmt"
	"strings"

	"github.com/hine/hine/internal/platform/apperr"
)

var validate = apperr.NewValidator()

func trimSubmission(sub *Submission) {
	sub.PatientID = strings.TrimSpace(sub.PatientID)
	sub.DoctorID = strings.TrimSpace(sub.DoctorID)
	for i := range sub.Analysis.Modules {
		m := &sub.Analysis.Modules[i]
		m.ModuleID = strings.TrimSpace(m.ModuleID)
		for j := range m.Responses {
			m.Responses[j].QuestionID = strings.TrimSpace(m.Responses[j].QuestionID)
		}
	}
	for j := range sub.MotorMilestones.Responses {
		sub.MotorMilestones.Responses[j].QuestionID = strings.TrimSpace(sub.MotorMilestones.Responses[j].QuestionID)
	}
	for j := range sub.Behavior.Responses {
		sub.Behavior.Responses[j].QuestionID = strings.TrimSpace(sub.Behavior.Responses[j].QuestionID)
	}
	sub.Analysis.GeneralComments = normalizeComments(sub.Analysis.GeneralComments)
	sub.MotorMilestones.GeneralComments = normalizeComments(sub.MotorMilestones.GeneralComments)
	sub.Behavior.GeneralComments = normalizeComments(sub.Behavior.GeneralComments)
}

// ValidateSubmission normalizes sub in place and checks it. Errors are
// apperr validation errors naming the offending field.
func ValidateSubmission(sub *Submission) error {
	if sub == nil {
		return apperr.Validation("", "exam submission is required")
	}
	trimSubmission(sub)

	if err := validate.Struct(sub); err != nil {
		return apperr.FromValidator(err)
	}

	seen := make(map[string]bool, len(sub.Analysis.Modules))
	for i, m := range sub.Analysis.Modules {
		if seen[m.ModuleID] {
			return apperr.Validation(fmt.Sprintf("analysis.modules[%d].moduleId", i), "duplicate module %q", m.ModuleID)
		}
		seen[m.ModuleID] = true
		for j, r := range m.Responses {
			if err := checkScore(fmt.Sprintf("analysis.modules[%d].responses[%d]", i, j), r.SelectedValue); err != nil {
				return err
			}
		}
	}
	for j, r := range sub.MotorMilestones.Responses {
		if err := checkScore(fmt.Sprintf("motorMilestones.responses[%d]", j), r.SelectedValue); err != nil {
			return err
		}
	}
	for j, r := range sub.Behavior.Responses {
		if err := checkScore(fmt.Sprintf("behavior.responses[%d]", j), r.SelectedValue); err != nil {
			return err
		}
	}

	if len(sub.Analysis.Modules) == 0 && len(sub.Analysis.GeneralComments) > 0 {
		return apperr.Validation("analysis.generalComments", "analysis comments require at least one module")
	}

	lists := []struct {
		field    string
		comments []string
	}{
		{"analysis.generalComments", sub.Analysis.GeneralComments},
		{"motorMilestones.generalComments", sub.MotorMilestones.GeneralComments},
		{"behavior.generalComments", sub.Behavior.GeneralComments},
	}
	for _, l := range lists {
		for _, c := range l.comments {
			if strings.Contains(c, CommentSeparator) {
				return apperr.Validation(l.field, "comment may not contain %q", CommentSeparator)
			}
		}
	}
	return nil
}

// checkScore enforces the 0..3 range every stored item score shares.
func checkScore(path string, v *int) error {
	if v != nil && (*v < 0 || *v > MaxScorePerItem) {
		return apperr.Validation(path+".selectedValue", "selected value %d outside 0..%d", *v, MaxScorePerItem)
	}
	return nil
}
