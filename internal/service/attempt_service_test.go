package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/lidtrainer/examcore/internal/composition"
	"github.com/lidtrainer/examcore/internal/model"
	"github.com/rs/zerolog"
)

func publishedExam(sections ...model.Section) *model.Exam {
	return &model.Exam{
		ID:       uuid.New(),
		Title:    "Leben in Deutschland",
		Provider: "LiD",
		Level:    "A1",
		Status:   model.ExamStatusPublished,
		Sections: sections,
	}
}

func TestStartAttemptCapturesSnapshot(t *testing.T) {
	listed := mcq("dtz", "B1")
	store := newFakeQuestions(append(mcqs(12, "leben_in_deutschland", "A1", "Politik"), listed)...)
	exam := publishedExam(
		model.Section{Quota: 10, Tags: []string{"Politik"}},
		model.Section{Items: []model.SectionItem{{QuestionID: listed.ID, Points: 3}}},
	)
	attempts := newFakeAttempts()
	svc := NewAttemptService(newFakeExams(exam), attempts, newResolver(store), nil, 0, zerolog.Nop())

	a, err := svc.Start(context.Background(), exam.ID, "student-1")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if len(a.Items) != 11 {
		t.Fatalf("items = %d, want 11", len(a.Items))
	}
	for i, it := range a.Items {
		if it.Position != i {
			t.Fatalf("item %d has position %d", i, it.Position)
		}
		if it.QuestionID == nil {
			t.Fatalf("item %d has no source question", i)
		}
	}
	last := a.Items[10]
	if last.SectionIndex != 1 || *last.QuestionID != listed.ID || last.Points != 3 {
		t.Fatalf("unexpected item for listed question: %+v", last)
	}
	if len(last.Options) != 2 || !last.Options[0].Correct {
		t.Fatalf("options not captured: %+v", last.Options)
	}
}

func TestStartAttemptSnapshotIsIndependentOfSource(t *testing.T) {
	q := mcq("lid", "A1")
	store := newFakeQuestions(q)
	exam := publishedExam(model.Section{Items: []model.SectionItem{{QuestionID: q.ID, Points: 1}}})
	svc := NewAttemptService(newFakeExams(exam), newFakeAttempts(), newResolver(store), nil, 0, zerolog.Nop())

	a, err := svc.Start(context.Background(), exam.ID, "student-1")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	q.Options[0].Text = "changed"
	store.remove(q.ID)

	got, err := svc.GetByID(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Items[0].Options[0].Text != "Das Volk" {
		t.Fatalf("snapshot changed with its source: %+v", got.Items[0].Options)
	}
}

func TestStartAttemptFailsClosed(t *testing.T) {
	store := newFakeQuestions(mcqs(3, "lid", "A1", "Berlin")...)
	missing := uuid.New()
	exam := publishedExam(
		model.Section{Quota: 3, Tags: []string{"Berlin"}},
		model.Section{Quota: 5, Tags: []string{"Berlin"}},
		model.Section{Items: []model.SectionItem{{QuestionID: missing}}},
	)
	attempts := newFakeAttempts()
	svc := NewAttemptService(newFakeExams(exam), attempts, newResolver(store), nil, 0, zerolog.Nop())

	_, err := svc.Start(context.Background(), exam.ID, "student-1")
	if !errors.Is(err, ErrExamNotReady) {
		t.Fatalf("err = %v, want ErrExamNotReady", err)
	}
	var nr *NotReadyError
	if !errors.As(err, &nr) {
		t.Fatalf("err %T does not carry section reports", err)
	}
	if len(nr.Sections) != 3 {
		t.Fatalf("reports = %d, want 3", len(nr.Sections))
	}
	if !nr.Sections[0].OK() || nr.Sections[1].Code != composition.CodeSectionUnderfilled {
		t.Fatalf("unexpected section reports: %+v %+v", nr.Sections[0], nr.Sections[1])
	}
	if f := nr.Sections[2].Failures; len(f) != 1 || f[0].QuestionID != missing || f[0].Reason != composition.CodeQuestionNotFound {
		t.Fatalf("unexpected item failures: %+v", f)
	}
	if attempts.created != 0 {
		t.Fatal("no attempt may be persisted when a section fails")
	}
}

func TestStartAttemptRequiresPublishedExam(t *testing.T) {
	exam := publishedExam(model.Section{Quota: 1})
	exam.Status = model.ExamStatusDraft
	svc := NewAttemptService(newFakeExams(exam), newFakeAttempts(), newResolver(newFakeQuestions()), nil, 0, zerolog.Nop())

	if _, err := svc.Start(context.Background(), exam.ID, "s"); !errors.Is(err, ErrExamNotPublished) {
		t.Fatalf("err = %v, want ErrExamNotPublished", err)
	}
}

func TestGetPaperHidesAnswers(t *testing.T) {
	match := model.Question{
		ID:       uuid.New(),
		Status:   model.QuestionStatusPublished,
		Provider: "lid",
		QType:    model.QuestionTypeMatch,
		Prompt:   "Ordnen Sie zu",
		MatchPairs: []model.MatchPair{
			{Left: "Berlin", Right: "Spree"},
			{Left: "Köln", Right: "Rhein"},
			{Left: "Hamburg", Right: "Elbe"},
		},
	}
	choice := mcq("lid", "A1")
	store := newFakeQuestions(match, choice)
	exam := publishedExam(model.Section{Items: []model.SectionItem{
		{QuestionID: match.ID, Points: 3},
		{QuestionID: choice.ID, Points: 1},
	}})
	svc := NewAttemptService(newFakeExams(exam), newFakeAttempts(), newResolver(store), nil, 0, zerolog.Nop())

	a, err := svc.Start(context.Background(), exam.ID, "student-1")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	paper, err := svc.GetPaper(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("GetPaper: %v", err)
	}

	if paper.Title != exam.Title || len(paper.Items) != 2 {
		t.Fatalf("unexpected paper: %+v", paper)
	}
	m := paper.Items[0]
	if m.Left[0] != "Berlin" || m.Right[0] != "Elbe" || m.Right[2] != "Spree" {
		t.Fatalf("unexpected match columns: left=%v right=%v", m.Left, m.Right)
	}
	if opts := paper.Items[1].Options; len(opts) != 2 || opts[0].Text != "Das Volk" {
		t.Fatalf("unexpected options: %+v", opts)
	}
}

func TestAuditReproducesSelection(t *testing.T) {
	store := newFakeQuestions(mcqs(30, "lid", "A1")...)
	exam := publishedExam(model.Section{Quota: 10}, model.Section{Quota: 5})
	svc := NewAttemptService(newFakeExams(exam), newFakeAttempts(), newResolver(store), nil, 0, zerolog.Nop())

	a, err := svc.Start(context.Background(), exam.ID, "student-1")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	report, err := svc.Audit(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("Audit: %v", err)
	}
	if !report.Reproducible || report.Seed != a.Seed {
		t.Fatalf("expected reproducible audit, got %+v", report)
	}

	store.remove(*a.Items[0].QuestionID)
	report, err = svc.Audit(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("Audit after delete: %v", err)
	}
	if report.Reproducible {
		t.Fatal("audit must detect a changed candidate pool")
	}
}
