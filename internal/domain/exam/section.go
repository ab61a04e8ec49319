package exam

import "strings"

// SectionKind is the logical role of a stored section.
type SectionKind int

const (
	SectionAnalysis SectionKind = iota + 1
	SectionMotorMilestones
	SectionBehavior
)

const (
	analysisPrefix      = "analysis:"
	motorMilestonesName = "motor_milestones"
	behaviorName        = "behavior"
)

// SectionRole identifies what a section holds: one analysis module (with its
// module id), the motor milestones, or the behavior answers.
type SectionRole struct {
	Kind     SectionKind
	ModuleID string
}

func AnalysisSection(moduleID string) SectionRole {
	return SectionRole{Kind: SectionAnalysis, ModuleID: moduleID}
}

var (
	MotorMilestonesSection = SectionRole{Kind: SectionMotorMilestones}
	BehaviorSection        = SectionRole{Kind: SectionBehavior}
)

// Name returns the value stored in sections.section_name.
func (r SectionRole) Name() string {
	switch r.Kind {
	case SectionAnalysis:
		return analysisPrefix + r.ModuleID
	case SectionMotorMilestones:
		return motorMilestonesName
	case SectionBehavior:
		return behaviorName
	}
	return ""
}

// ParseSectionRole maps a stored section name back to its role. Names that
// match no role, including "analysis:" with an empty module id, return false.
func ParseSectionRole(name string) (SectionRole, bool) {
	switch {
	case name == motorMilestonesName:
		return MotorMilestonesSection, true
	case name == behaviorName:
		return BehaviorSection, true
	case strings.HasPrefix(name, analysisPrefix):
		id := strings.TrimPrefix(name, analysisPrefix)
		if id == "" {
			return SectionRole{}, false
		}
		return AnalysisSection(id), true
	}
	return SectionRole{}, false
}
