package exam

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/google/uuid"

	"github.com/hine/hine/internal/platform/apperr"
)

func TestCreateExam_Minimal(t *testing.T) {
	svc := newTestService()
	ex, err := svc.CreateExam(context.Background(), minimalSubmission())
	if err != nil {
		t.Fatalf("CreateExam: %v", err)
	}
	if ex.ExamID == uuid.Nil {
		t.Fatal("expected exam id to be assigned")
	}
	if ex.PatientID != "c1" || ex.DoctorID != "d1" {
		t.Errorf("unexpected header: %+v", ex)
	}
	if ex.DoctorName != "Ana Pérez" {
		t.Errorf("expected doctor name, got %q", ex.DoctorName)
	}
	a := ex.Analysis
	if len(a.Modules) != 1 || a.Modules[0].ModuleID != "posture" {
		t.Fatalf("unexpected modules: %+v", a.Modules)
	}
	if a.TotalScore != 2 || a.MaxPossibleScore != 3 {
		t.Errorf("expected 2/3, got %d/%d", a.TotalScore, a.MaxPossibleScore)
	}
	if a.TotalLeftAsymmetries != 1 || a.TotalRightAsymmetries != 0 {
		t.Errorf("unexpected asymmetry totals L=%d R=%d", a.TotalLeftAsymmetries, a.TotalRightAsymmetries)
	}
	if ex.MotorMilestones.Responses == nil || len(ex.MotorMilestones.Responses) != 0 {
		t.Errorf("expected empty non-nil motor responses, got %#v", ex.MotorMilestones.Responses)
	}
	if ex.Behavior.Responses == nil || len(ex.Behavior.Responses) != 0 {
		t.Errorf("expected empty non-nil behavior responses, got %#v", ex.Behavior.Responses)
	}
}

func TestCreateExam_RoundTrip(t *testing.T) {
	svc := newTestService()
	sub := fullSubmission()
	created, err := svc.CreateExam(context.Background(), sub)
	if err != nil {
		t.Fatalf("CreateExam: %v", err)
	}
	got, err := svc.GetExam(context.Background(), created.ExamID)
	if err != nil {
		t.Fatalf("GetExam: %v", err)
	}
	if !reflect.DeepEqual(created, got) {
		t.Errorf("read back differs from created exam:\n got %+v\nwant %+v", got, created)
	}

	if got.Snapshot != sub.Snapshot {
		t.Errorf("snapshot = %+v, want %+v", got.Snapshot, sub.Snapshot)
	}
	if got.Description != "control at 6 months" {
		t.Errorf("description = %q", got.Description)
	}

	a := got.Analysis
	if len(a.Modules) != 2 || a.Modules[0].ModuleID != "posture" || a.Modules[1].ModuleID != "tone" {
		t.Fatalf("module order not preserved: %+v", a.Modules)
	}
	if a.Modules[0].ObtainedScore != 4 || a.Modules[1].ObtainedScore != 2 {
		t.Errorf("obtained scores = %d, %d", a.Modules[0].ObtainedScore, a.Modules[1].ObtainedScore)
	}
	if a.TotalScore != 6 || a.MaxPossibleScore != 9 {
		t.Errorf("expected 6/9, got %d/%d", a.TotalScore, a.MaxPossibleScore)
	}
	if a.TotalLeftAsymmetries != 1 || a.TotalRightAsymmetries != 2 {
		t.Errorf("asymmetry totals L=%d R=%d", a.TotalLeftAsymmetries, a.TotalRightAsymmetries)
	}
	if !reflect.DeepEqual(a.GeneralComments, []string{"alert", "good tone"}) {
		t.Errorf("analysis comments = %v", a.GeneralComments)
	}

	if len(got.MotorMilestones.Responses) != 1 || got.MotorMilestones.Responses[0].QuestionID != "Sitting" {
		t.Errorf("motor responses = %+v", got.MotorMilestones.Responses)
	}
	if !reflect.DeepEqual(got.MotorMilestones.GeneralComments, []string{"sits with support"}) {
		t.Errorf("motor comments = %v", got.MotorMilestones.GeneralComments)
	}
	if len(got.Behavior.Responses) != 1 || got.Behavior.Responses[0].Comment != "calm" {
		t.Errorf("behavior responses = %+v", got.Behavior.Responses)
	}
	if len(got.Behavior.GeneralComments) != 0 {
		t.Errorf("expected no behavior comments, got %v", got.Behavior.GeneralComments)
	}
}

func TestCreateExam_MirrorsSnapshotOntoChild(t *testing.T) {
	svc, m := newTestStoreService()
	sub := fullSubmission()
	if _, err := svc.CreateExam(context.Background(), sub); err != nil {
		t.Fatalf("CreateExam: %v", err)
	}
	if got := m.st.snapshots["c1"]; got != sub.Snapshot {
		t.Errorf("child snapshot = %+v, want %+v", got, sub.Snapshot)
	}
}

func TestCreateExam_ZeroSnapshotLeavesChildUntouched(t *testing.T) {
	svc, m := newTestStoreService()
	if _, err := svc.CreateExam(context.Background(), minimalSubmission()); err != nil {
		t.Fatalf("CreateExam: %v", err)
	}
	if _, ok := m.st.snapshots["c1"]; ok {
		t.Error("empty snapshot must not overwrite the child")
	}
}

func TestCreateExam_AbsentScoreIsNull(t *testing.T) {
	svc := newTestService()
	sub := minimalSubmission()
	sub.Analysis.Modules[0].Responses = append(sub.Analysis.Modules[0].Responses,
		QuestionResponse{QuestionID: "arms"})
	ex, err := svc.CreateExam(context.Background(), sub)
	if err != nil {
		t.Fatalf("CreateExam: %v", err)
	}
	resp := ex.Analysis.Modules[0].Responses
	if resp[1].SelectedValue != nil {
		t.Errorf("expected nil selected value, got %d", *resp[1].SelectedValue)
	}
	if ex.Analysis.TotalScore != 2 || ex.Analysis.MaxPossibleScore != 6 {
		t.Errorf("expected 2/6, got %d/%d", ex.Analysis.TotalScore, ex.Analysis.MaxPossibleScore)
	}
}

func TestCreateExam_MissingPatientWritesNothing(t *testing.T) {
	svc, m := newTestStoreService()
	sub := minimalSubmission()
	sub.PatientID = "nobody"
	_, err := svc.CreateExam(context.Background(), sub)
	if !apperr.Is(err, apperr.KindReferential) {
		t.Fatalf("expected referential error, got %v", err)
	}
	var ae *apperr.Error
	if errors.As(err, &ae) && ae.Field != "patient_id" {
		t.Errorf("field = %q, want patient_id", ae.Field)
	}
	if e, s, i := m.rowCounts(); e+s+i != 0 {
		t.Errorf("expected no rows, got exams=%d sections=%d items=%d", e, s, i)
	}
}

func TestCreateExam_MissingDoctor(t *testing.T) {
	svc := newTestService()
	sub := minimalSubmission()
	sub.DoctorID = "d404"
	_, err := svc.CreateExam(context.Background(), sub)
	if !apperr.Is(err, apperr.KindReferential) {
		t.Fatalf("expected referential error, got %v", err)
	}
}

func TestCreateExam_EliminatedPatient(t *testing.T) {
	svc, m := newTestStoreService()
	m.st.children["c1"] = true
	_, err := svc.CreateExam(context.Background(), minimalSubmission())
	if !apperr.Is(err, apperr.KindReferential) {
		t.Fatalf("expected referential error, got %v", err)
	}
}

func TestCreateExam_ItemFailureRollsBack(t *testing.T) {
	for n := 1; n <= 5; n++ {
		svc, m := newTestStoreService()
		m.failItemAt = n
		_, err := svc.CreateExam(context.Background(), fullSubmission())
		if !apperr.Is(err, apperr.KindPersistence) {
			t.Fatalf("item %d: expected persistence error, got %v", n, err)
		}
		if e, s, i := m.rowCounts(); e+s+i != 0 {
			t.Errorf("item %d: partial write left exams=%d sections=%d items=%d", n, e, s, i)
		}
		if _, ok := m.st.snapshots["c1"]; ok {
			t.Errorf("item %d: snapshot must roll back", n)
		}
	}
}

func TestCreateExam_SnapshotFailureRollsBack(t *testing.T) {
	svc, m := newTestStoreService()
	m.failSnapshot = true
	_, err := svc.CreateExam(context.Background(), fullSubmission())
	if !apperr.Is(err, apperr.KindPersistence) {
		t.Fatalf("expected persistence error, got %v", err)
	}
	if e, s, i := m.rowCounts(); e+s+i != 0 {
		t.Errorf("partial write left exams=%d sections=%d items=%d", e, s, i)
	}
}

func TestCreateExam_ValidationBeforeWrites(t *testing.T) {
	svc, m := newTestStoreService()
	sub := minimalSubmission()
	sub.PatientID = "  "
	_, err := svc.CreateExam(context.Background(), sub)
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if e, _, _ := m.rowCounts(); e != 0 {
		t.Error("validation failure must not write")
	}
}

func TestGetExam_NotFound(t *testing.T) {
	svc := newTestService()
	_, err := svc.GetExam(context.Background(), uuid.New())
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestGetExam_StoreFailure(t *testing.T) {
	svc, m := newTestStoreService()
	m.failView = errors.New("pool closed")
	_, err := svc.GetExam(context.Background(), uuid.New())
	if !apperr.Is(err, apperr.KindPersistence) {
		t.Fatalf("expected persistence error, got %v", err)
	}
}

func TestGetExamsByChild_MostRecentFirst(t *testing.T) {
	svc := newTestService()
	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		ex, err := svc.CreateExam(context.Background(), minimalSubmission())
		if err != nil {
			t.Fatalf("CreateExam: %v", err)
		}
		ids = append(ids, ex.ExamID)
	}
	exams, err := svc.GetExamsByChild(context.Background(), "c1")
	if err != nil {
		t.Fatalf("GetExamsByChild: %v", err)
	}
	if len(exams) != 3 {
		t.Fatalf("expected 3 exams, got %d", len(exams))
	}
	for i, ex := range exams {
		if want := ids[len(ids)-1-i]; ex.ExamID != want {
			t.Errorf("position %d: got %s, want %s", i, ex.ExamID, want)
		}
	}
}

func TestGetExamsByChild_NoExams(t *testing.T) {
	svc := newTestService()
	_, err := svc.GetExamsByChild(context.Background(), "c1")
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	_, err = svc.GetExamsByChild(context.Background(), "")
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for empty id, got %v", err)
	}
}

func TestDeleteExam_HidesFromReads(t *testing.T) {
	svc := newTestService()
	ex, err := svc.CreateExam(context.Background(), minimalSubmission())
	if err != nil {
		t.Fatalf("CreateExam: %v", err)
	}
	if err := svc.DeleteExam(context.Background(), ex.ExamID); err != nil {
		t.Fatalf("DeleteExam: %v", err)
	}
	if _, err := svc.GetExam(context.Background(), ex.ExamID); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("expected deleted exam to be not found, got %v", err)
	}
	if err := svc.DeleteExam(context.Background(), ex.ExamID); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("second delete should be not found, got %v", err)
	}
}

func TestGetExam_Cache(t *testing.T) {
	cache := newMemCache()
	svc, _ := newTestStoreService(WithCache(cache))
	ex, err := svc.CreateExam(context.Background(), minimalSubmission())
	if err != nil {
		t.Fatalf("CreateExam: %v", err)
	}
	if _, ok := cache.entries[ex.ExamID]; !ok {
		t.Fatal("created exam should be cached")
	}
	if _, err := svc.GetExam(context.Background(), ex.ExamID); err != nil {
		t.Fatalf("GetExam: %v", err)
	}
	if cache.hits != 1 {
		t.Errorf("expected a cache hit, got %d", cache.hits)
	}

	if err := svc.DeleteExam(context.Background(), ex.ExamID); err != nil {
		t.Fatalf("DeleteExam: %v", err)
	}
	if _, ok := cache.entries[ex.ExamID]; ok {
		t.Error("deleted exam should be evicted")
	}
}

func TestGetExam_CacheFailureFallsBackToStore(t *testing.T) {
	cache := newMemCache()
	svc, _ := newTestStoreService(WithCache(cache))
	ex, err := svc.CreateExam(context.Background(), minimalSubmission())
	if err != nil {
		t.Fatalf("CreateExam: %v", err)
	}
	cache.failGet = errors.New("redis: connection refused")
	got, err := svc.GetExam(context.Background(), ex.ExamID)
	if err != nil {
		t.Fatalf("cache failure must not fail the read: %v", err)
	}
	if got.ExamID != ex.ExamID {
		t.Errorf("unexpected exam %s", got.ExamID)
	}
}
