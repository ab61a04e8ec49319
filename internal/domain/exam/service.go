package exam

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hine/hine/internal/platform/apperr"
)

// ExamName is stored in exams.name for every exam this service writes.
const ExamName = "Hine Exam"

// Service aggregates nested exam submissions into exam, section and item rows
// and reconstructs them from the denormalized view.
type Service struct {
	tx        TxRunner
	exams     ExamRepository
	sections  SectionRepository
	items     ItemRepository
	view      ViewRepository
	snapshots SnapshotWriter
	cache     Cache
	logger    zerolog.Logger
}

// Option configures optional collaborators of the Service.
type Option func(*Service)

// WithCache enables read-through caching of GetExam results.
func WithCache(c Cache) Option {
	return func(s *Service) { s.cache = c }
}

// WithLogger sets the logger used for non-fatal failures such as cache errors.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService creates the exam aggregation service. snapshots may be nil, in
// which case the child's demographic snapshot is left untouched.
func NewService(tx TxRunner, exams ExamRepository, sections SectionRepository, items ItemRepository,
	view ViewRepository, snapshots SnapshotWriter, opts ...Option) *Service {
	s := &Service{
		tx:        tx,
		exams:     exams,
		sections:  sections,
		items:     items,
		view:      view,
		snapshots: snapshots,
		logger:    zerolog.Nop(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// CreateExam validates sub, writes it in one transaction and returns the exam
// as re-read from storage.
func (s *Service) CreateExam(ctx context.Context, sub *Submission) (*HineExam, error) {
	if err := ValidateSubmission(sub); err != nil {
		return nil, err
	}

	var examID uuid.UUID
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		id, err := s.writeSubmission(ctx, sub)
		examID = id
		return err
	})
	if err != nil {
		return nil, classify(err, "create exam")
	}

	return s.load(ctx, examID)
}

// writeSubmission performs every write of one exam creation. It must run
// inside a transaction: on error the caller rolls everything back.
func (s *Service) writeSubmission(ctx context.Context, sub *Submission) (uuid.UUID, error) {
	header := &Exam{
		Name:        ExamName,
		Description: sub.Description,
		ChildID:     sub.PatientID,
		DoctorID:    sub.DoctorID,
		Snapshot:    sub.Snapshot,
	}
	if err := s.exams.Create(ctx, header); err != nil {
		return uuid.Nil, err
	}

	analysisComments := EncodeComments(sub.Analysis.GeneralComments)
	for _, m := range sub.Analysis.Modules {
		sec, err := s.writeSection(ctx, header.ID, AnalysisSection(m.ModuleID), analysisComments)
		if err != nil {
			return uuid.Nil, err
		}
		for _, r := range m.Responses {
			if err := s.writeQuestion(ctx, sec.ID, r); err != nil {
				return uuid.Nil, err
			}
		}
	}

	// Motor milestones and behavior sections are written even when empty so
	// their general comments survive and reconstruction always sees them.
	motor, err := s.writeSection(ctx, header.ID, MotorMilestonesSection, EncodeComments(sub.MotorMilestones.GeneralComments))
	if err != nil {
		return uuid.Nil, err
	}
	for _, r := range sub.MotorMilestones.Responses {
		if err := s.writeQuestion(ctx, motor.ID, r); err != nil {
			return uuid.Nil, err
		}
	}

	behavior, err := s.writeSection(ctx, header.ID, BehaviorSection, EncodeComments(sub.Behavior.GeneralComments))
	if err != nil {
		return uuid.Nil, err
	}
	for _, r := range sub.Behavior.Responses {
		it := &Item{
			SectionID:   behavior.ID,
			Title:       r.QuestionID,
			Score:       r.SelectedValue,
			Description: r.Comment,
		}
		if err := s.items.Create(ctx, it); err != nil {
			return uuid.Nil, fmt.Errorf("write behavior item %q: %w", r.QuestionID, err)
		}
	}

	if s.snapshots != nil && !sub.Snapshot.IsZero() {
		if err := s.snapshots.UpdateSnapshot(ctx, sub.PatientID, sub.Snapshot); err != nil {
			return uuid.Nil, fmt.Errorf("update child snapshot: %w", err)
		}
	}

	return header.ID, nil
}

func (s *Service) writeSection(ctx context.Context, examID uuid.UUID, role SectionRole, comments string) (*Section, error) {
	sec := &Section{ExamID: examID, Name: role.Name(), Comments: comments}
	if err := s.sections.Create(ctx, sec); err != nil {
		return nil, fmt.Errorf("write section %q: %w", sec.Name, err)
	}
	return sec, nil
}

func (s *Service) writeQuestion(ctx context.Context, sectionID int64, r QuestionResponse) error {
	it := &Item{
		SectionID:           sectionID,
		Title:               r.QuestionID,
		Score:               r.SelectedValue,
		Description:         r.Comment,
		RightAsymmetryCount: asymmetryCount(r.RightAsymmetry),
		LeftAsymmetryCount:  asymmetryCount(r.LeftAsymmetry),
	}
	if err := s.items.Create(ctx, it); err != nil {
		return fmt.Errorf("write item %q: %w", r.QuestionID, err)
	}
	return nil
}

func asymmetryCount(flag bool) *int {
	n := 0
	if flag {
		n = 1
	}
	return &n
}

// GetExam returns the reconstructed exam, serving from the cache when one is
// configured.
func (s *Service) GetExam(ctx context.Context, id uuid.UUID) (*HineExam, error) {
	if s.cache != nil {
		ex, err := s.cache.Get(ctx, id)
		if err == nil {
			return ex, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			s.logger.Warn().Err(err).Str("exam_id", id.String()).Msg("exam cache read failed")
		}
	}
	return s.load(ctx, id)
}

// load reads the exam from the view, bypassing the cache, and refreshes the
// cache entry.
func (s *Service) load(ctx context.Context, id uuid.UUID) (*HineExam, error) {
	rows, err := s.view.RowsByExam(ctx, id)
	if err != nil {
		return nil, classify(err, "read exam")
	}
	if len(rows) == 0 {
		return nil, apperr.NotFound("exam %s not found", id)
	}
	ex, err := Reconstruct(rows)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, ex); err != nil {
			s.logger.Warn().Err(err).Str("exam_id", id.String()).Msg("exam cache write failed")
		}
	}
	return ex, nil
}

// GetExamsByChild returns every live exam of a child, most recent first.
func (s *Service) GetExamsByChild(ctx context.Context, childID string) ([]*HineExam, error) {
	if childID == "" {
		return nil, apperr.Validation("child_id", "child_id is required")
	}
	rows, err := s.view.RowsByChild(ctx, childID)
	if err != nil {
		return nil, classify(err, "read exam history")
	}
	if len(rows) == 0 {
		return nil, apperr.NotFound("no exams found for child %s", childID)
	}
	return ReconstructHistory(rows)
}

// DeleteExam soft-deletes an exam and evicts it from the cache.
func (s *Service) DeleteExam(ctx context.Context, id uuid.UUID) error {
	if err := s.exams.SoftDelete(ctx, id); err != nil {
		return classify(err, "delete exam")
	}
	if s.cache != nil {
		if err := s.cache.Delete(ctx, id); err != nil {
			s.logger.Warn().Err(err).Str("exam_id", id.String()).Msg("exam cache eviction failed")
		}
	}
	return nil
}

// classify keeps already classified errors and wraps anything else as a
// persistence failure.
func classify(err error, op string) error {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}
	return apperr.Persistence(err, "%s failed", op)
}
