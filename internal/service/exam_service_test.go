package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/lidtrainer/examcore/internal/composition"
	"github.com/lidtrainer/examcore/internal/model"
	"github.com/lidtrainer/examcore/internal/repository"
	"github.com/rs/zerolog"
)

func newExamService(exams *fakeExams, questions *fakeQuestions) *ExamService {
	return NewExamService(exams, composition.NewValidator(newResolver(questions)), nil, 0, zerolog.Nop())
}

func draftExam(sections ...model.Section) *model.Exam {
	return &model.Exam{
		ID:       uuid.New(),
		Title:    "Probetest",
		Provider: "Leben in Deutschland",
		Level:    "A1",
		Status:   model.ExamStatusDraft,
		Sections: sections,
	}
}

func TestPublishReadyExam(t *testing.T) {
	exam := draftExam(model.Section{Quota: 5})
	exams := newFakeExams(exam)
	svc := newExamService(exams, newFakeQuestions(mcqs(5, "LID", "A1")...))

	report, err := svc.Publish(context.Background(), exam.ID)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if !report.Ready || report.Status != model.ExamStatusPublished {
		t.Fatalf("unexpected report: %+v", report)
	}
	if exams.items[exam.ID].Status != model.ExamStatusPublished {
		t.Fatal("exam status not updated")
	}
}

func TestPublishRejectsUnsatisfiableExam(t *testing.T) {
	exam := draftExam(model.Section{Quota: 5, Tags: []string{"Bayern"}})
	exams := newFakeExams(exam)
	svc := newExamService(exams, newFakeQuestions(mcqs(5, "lid", "A1", "Berlin")...))

	report, err := svc.Publish(context.Background(), exam.ID)
	if !errors.Is(err, ErrExamNotReady) {
		t.Fatalf("err = %v, want ErrExamNotReady", err)
	}
	if report == nil || report.Ready {
		t.Fatalf("expected a not-ready report, got %+v", report)
	}
	sec := report.Sections[0]
	if sec.Available != 0 || sec.AvailableWithoutTags == nil || *sec.AvailableWithoutTags != 5 {
		t.Fatalf("unexpected diagnostics: %+v", sec)
	}
	if exams.items[exam.ID].Status != model.ExamStatusDraft {
		t.Fatal("exam must stay draft")
	}
}

func TestPublishGuards(t *testing.T) {
	empty := draftExam()
	published := draftExam(model.Section{Quota: 1})
	published.Status = model.ExamStatusPublished
	svc := newExamService(newFakeExams(empty, published), newFakeQuestions())

	tests := []struct {
		name string
		id   uuid.UUID
		want error
	}{
		{"no sections", empty.ID, ErrNoSections},
		{"already published", published.ID, ErrExamNotDraft},
		{"unknown exam", uuid.New(), repository.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Publish(context.Background(), tt.id); !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestReadinessOfExamWithoutSections(t *testing.T) {
	exam := draftExam()
	svc := newExamService(newFakeExams(exam), newFakeQuestions())

	report, err := svc.Readiness(context.Background(), exam.ID)
	if err != nil {
		t.Fatalf("Readiness: %v", err)
	}
	if report.Ready {
		t.Fatal("an exam without sections is never ready")
	}
}

func TestReplaceSectionsOnlyWhileDraft(t *testing.T) {
	exam := draftExam(model.Section{Quota: 1})
	exams := newFakeExams(exam)
	svc := newExamService(exams, newFakeQuestions())

	updated, err := svc.ReplaceSections(context.Background(), exam.ID, []model.SectionRequest{
		{Quota: 3, Tags: []string{"Politik"}},
		{Quota: 2},
	})
	if err != nil {
		t.Fatalf("ReplaceSections: %v", err)
	}
	if len(updated.Sections) != 2 || updated.Sections[1].Position != 1 {
		t.Fatalf("unexpected sections: %+v", updated.Sections)
	}

	exams.items[exam.ID].Status = model.ExamStatusPublished
	if _, err := svc.ReplaceSections(context.Background(), exam.ID, nil); !errors.Is(err, ErrExamNotDraft) {
		t.Fatalf("err = %v, want ErrExamNotDraft", err)
	}
}

func TestCheckAllCountsBrokenExams(t *testing.T) {
	ok := draftExam(model.Section{Quota: 2})
	broken := draftExam(model.Section{Quota: 20})
	broken.Status = model.ExamStatusPublished
	exams := newFakeExams(ok, broken)
	svc := newExamService(exams, newFakeQuestions(mcqs(3, "lid", "A1")...))
	maint := NewMaintenanceService(nil, svc, zerolog.Nop())

	summary, err := maint.CheckAll(context.Background())
	if err != nil {
		t.Fatalf("CheckAll: %v", err)
	}
	if summary.Total != 2 || summary.Ready != 1 || summary.NotReady != 1 || summary.AllReady() {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}
