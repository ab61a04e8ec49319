package exam

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/hine/hine/internal/platform/apperr"
)

// =========== In-memory store ===========

// memState is the full relational state; WithTx snapshots it and restores
// the copy when the transaction function fails.
type memState struct {
	children  map[string]bool // id -> eliminated
	doctors   map[string]string
	snapshots map[string]Snapshot
	exams     map[uuid.UUID]*Exam
	sections  []*Section
	items     []*Item
	nextID    int64
}

func (s *memState) clone() *memState {
	c := &memState{
		children:  make(map[string]bool, len(s.children)),
		doctors:   make(map[string]string, len(s.doctors)),
		snapshots: make(map[string]Snapshot, len(s.snapshots)),
		exams:     make(map[uuid.UUID]*Exam, len(s.exams)),
		nextID:    s.nextID,
	}
	for k, v := range s.children {
		c.children[k] = v
	}
	for k, v := range s.doctors {
		c.doctors[k] = v
	}
	for k, v := range s.snapshots {
		c.snapshots[k] = v
	}
	for k, v := range s.exams {
		e := *v
		c.exams[k] = &e
	}
	for _, sec := range s.sections {
		cp := *sec
		c.sections = append(c.sections, &cp)
	}
	for _, it := range s.items {
		cp := *it
		c.items = append(c.items, &cp)
	}
	return c
}

type memStore struct {
	st  *memState
	now time.Time

	// fault injection
	failItemAt   int // 1-based index of the item write that fails; 0 disables
	itemWrites   int
	failSnapshot bool
	failView     error
}

func newMemStore() *memStore {
	return &memStore{
		st: &memState{
			children:  map[string]bool{},
			doctors:   map[string]string{},
			snapshots: map[string]Snapshot{},
			exams:     map[uuid.UUID]*Exam{},
		},
		now: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
	}
}

func (m *memStore) addChild(id string)            { m.st.children[id] = false }
func (m *memStore) addDoctor(id, fullName string) { m.st.doctors[id] = fullName }

func (m *memStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	saved := m.st.clone()
	if err := fn(ctx); err != nil {
		m.st = saved
		return err
	}
	return nil
}

func (m *memStore) rowCounts() (exams, sections, items int) {
	return len(m.st.exams), len(m.st.sections), len(m.st.items)
}

// -- ExamRepository --

type memExamRepo struct{ m *memStore }

func (r memExamRepo) Create(_ context.Context, e *Exam) error {
	if eliminated, ok := r.m.st.children[e.ChildID]; !ok || eliminated {
		return apperr.Referential("patient_id", "patient %s does not exist", e.ChildID)
	}
	if _, ok := r.m.st.doctors[e.DoctorID]; !ok {
		return apperr.Referential("doctor_id", "doctor %s does not exist", e.DoctorID)
	}
	e.ID = uuid.New()
	e.CreatedAt = r.m.now
	r.m.now = r.m.now.Add(time.Minute)
	cp := *e
	r.m.st.exams[e.ID] = &cp
	return nil
}

func (r memExamRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	e, ok := r.m.st.exams[id]
	if !ok || e.Eliminated {
		return apperr.NotFound("exam %s not found", id)
	}
	e.Eliminated = true
	return nil
}

// -- SectionRepository --

type memSectionRepo struct{ m *memStore }

func (r memSectionRepo) Create(_ context.Context, s *Section) error {
	if _, ok := r.m.st.exams[s.ExamID]; !ok {
		return apperr.Referential("exam_id", "missing exam")
	}
	for _, existing := range r.m.st.sections {
		if existing.ExamID == s.ExamID && existing.Name == s.Name {
			return apperr.Validation("sections_exam_name_key", "duplicate section")
		}
	}
	r.m.st.nextID++
	s.ID = r.m.st.nextID
	cp := *s
	r.m.st.sections = append(r.m.st.sections, &cp)
	return nil
}

// -- ItemRepository --

type memItemRepo struct{ m *memStore }

func (r memItemRepo) Create(_ context.Context, it *Item) error {
	r.m.itemWrites++
	if r.m.failItemAt > 0 && r.m.itemWrites == r.m.failItemAt {
		return errors.New("connection reset by peer")
	}
	r.m.st.nextID++
	it.ID = r.m.st.nextID
	cp := *it
	r.m.st.items = append(r.m.st.items, &cp)
	return nil
}

// -- SnapshotWriter --

type memSnapshots struct{ m *memStore }

func (w memSnapshots) UpdateSnapshot(_ context.Context, childID string, s Snapshot) error {
	if w.m.failSnapshot {
		return errors.New("snapshot write failed")
	}
	w.m.st.snapshots[childID] = s
	return nil
}

// -- ViewRepository --

type memViewRepo struct{ m *memStore }

func (r memViewRepo) rows(match func(*Exam) bool) ([]ViewRow, error) {
	if r.m.failView != nil {
		return nil, r.m.failView
	}
	var exams []*Exam
	for _, e := range r.m.st.exams {
		if !e.Eliminated && match(e) {
			exams = append(exams, e)
		}
	}
	sort.Slice(exams, func(i, j int) bool { return exams[i].CreatedAt.After(exams[j].CreatedAt) })

	var out []ViewRow
	for _, e := range exams {
		for _, sec := range r.m.st.sections {
			if sec.ExamID != e.ID {
				continue
			}
			base := ViewRow{
				ExamID:          e.ID,
				ChildID:         e.ChildID,
				DoctorID:        e.DoctorID,
				DoctorName:      r.m.st.doctors[e.DoctorID],
				CreatedAt:       e.CreatedAt,
				Description:     e.Description,
				Snapshot:        e.Snapshot,
				SectionID:       sec.ID,
				SectionName:     sec.Name,
				SectionComments: sec.Comments,
			}
			found := false
			for _, it := range r.m.st.items {
				if it.SectionID != sec.ID {
					continue
				}
				found = true
				row := base
				id := it.ID
				row.ItemID = &id
				row.ItemTitle = it.Title
				row.ItemScore = copyInt(it.Score)
				row.ItemDescription = it.Description
				row.RightAsymmetry = copyInt(it.RightAsymmetryCount)
				row.LeftAsymmetry = copyInt(it.LeftAsymmetryCount)
				out = append(out, row)
			}
			if !found {
				out = append(out, base)
			}
		}
	}
	return out, nil
}

func (r memViewRepo) RowsByExam(_ context.Context, id uuid.UUID) ([]ViewRow, error) {
	return r.rows(func(e *Exam) bool { return e.ID == id })
}

func (r memViewRepo) RowsByChild(_ context.Context, childID string) ([]ViewRow, error) {
	return r.rows(func(e *Exam) bool { return e.ChildID == childID })
}

// -- Cache --

type memCache struct {
	entries map[uuid.UUID]*HineExam
	gets    int
	hits    int
	failGet error
}

func newMemCache() *memCache { return &memCache{entries: map[uuid.UUID]*HineExam{}} }

func (c *memCache) Get(_ context.Context, id uuid.UUID) (*HineExam, error) {
	c.gets++
	if c.failGet != nil {
		return nil, c.failGet
	}
	ex, ok := c.entries[id]
	if !ok {
		return nil, ErrCacheMiss
	}
	c.hits++
	return ex, nil
}

func (c *memCache) Set(_ context.Context, ex *HineExam) error {
	c.entries[ex.ExamID] = ex
	return nil
}

func (c *memCache) Delete(_ context.Context, id uuid.UUID) error {
	delete(c.entries, id)
	return nil
}

// =========== Fixtures ===========

func newTestStoreService(opts ...Option) (*Service, *memStore) {
	m := newMemStore()
	m.addChild("c1")
	m.addDoctor("d1", "Ana Pérez")
	svc := NewService(m, memExamRepo{m}, memSectionRepo{m}, memItemRepo{m}, memViewRepo{m}, memSnapshots{m}, opts...)
	return svc, m
}

func newTestService() *Service {
	svc, _ := newTestStoreService()
	return svc
}

func intp(v int) *int { return &v }

// minimalSubmission has one analysis module with one scored question.
func minimalSubmission() *Submission {
	return &Submission{
		PatientID: "c1",
		DoctorID:  "d1",
		Analysis: AnalysisSubmission{
			Modules: []ModuleSubmission{{
				ModuleID: "posture",
				Responses: []QuestionResponse{
					{QuestionID: "head", SelectedValue: intp(2), LeftAsymmetry: true},
				},
			}},
		},
	}
}

// fullSubmission exercises every section kind.
func fullSubmission() *Submission {
	return &Submission{
		PatientID:   "c1",
		DoctorID:    "d1",
		Description: "control at 6 months",
		Snapshot: Snapshot{
			GestationalAge:    "36+2",
			ChronologicalAge:  "6m",
			CorrectedAge:      "5m",
			HeadCircumference: "42cm",
		},
		Analysis: AnalysisSubmission{
			Modules: []ModuleSubmission{
				{ModuleID: "posture", Responses: []QuestionResponse{
					{QuestionID: "head", SelectedValue: intp(3)},
					{QuestionID: "trunk", SelectedValue: intp(1), RightAsymmetry: true},
				}},
				{ModuleID: "tone", Responses: []QuestionResponse{
					{QuestionID: "scarfSign", SelectedValue: intp(2), LeftAsymmetry: true, RightAsymmetry: true},
				}},
			},
			GeneralComments: []string{"alert", "good tone"},
		},
		MotorMilestones: MotorMilestoneSubmission{
			Responses:       []QuestionResponse{{QuestionID: "Sitting", SelectedValue: intp(2)}},
			GeneralComments: []string{"sits with support"},
		},
		Behavior: BehaviorSubmission{
			Responses: []BehaviorResponse{{QuestionID: "EmotionalState", SelectedValue: intp(1), Comment: "calm"}},
		},
	}
}
