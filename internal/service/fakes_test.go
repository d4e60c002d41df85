package service

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/lidtrainer/examcore/internal/composition"
	"github.com/lidtrainer/examcore/internal/model"
	"github.com/lidtrainer/examcore/internal/repository"
)

type fakeQuestions struct {
	mu    sync.Mutex
	items map[uuid.UUID]model.Question
}

func newFakeQuestions(qs ...model.Question) *fakeQuestions {
	f := &fakeQuestions{items: make(map[uuid.UUID]model.Question)}
	for _, q := range qs {
		f.items[q.ID] = q
	}
	return f
}

func (f *fakeQuestions) FindPublishedByFilter(_ context.Context, flt composition.Filter) ([]model.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Question
	for _, q := range f.items {
		if flt.Matches(&q) {
			out = append(out, q)
		}
	}
	return out, nil
}

func (f *fakeQuestions) CountPublishedByFilter(ctx context.Context, flt composition.Filter) (int, error) {
	qs, err := f.FindPublishedByFilter(ctx, flt)
	return len(qs), err
}

func (f *fakeQuestions) FindByID(_ context.Context, id uuid.UUID) (*model.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	q, ok := f.items[id]
	if !ok {
		return nil, composition.ErrQuestionNotFound
	}
	return &q, nil
}

func (f *fakeQuestions) remove(id uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.items, id)
}

type fakeExams struct {
	items map[uuid.UUID]*model.Exam
}

func newFakeExams(exams ...*model.Exam) *fakeExams {
	f := &fakeExams{items: make(map[uuid.UUID]*model.Exam)}
	for _, e := range exams {
		if e.ID == uuid.Nil {
			e.ID = uuid.New()
		}
		f.items[e.ID] = e
	}
	return f
}

func (f *fakeExams) GetByID(_ context.Context, id uuid.UUID) (*model.Exam, error) {
	e, ok := f.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *e
	cp.Sections = append([]model.Section(nil), e.Sections...)
	return &cp, nil
}

func (f *fakeExams) ListPaginated(_ context.Context, status model.ExamStatus, limit, offset int) ([]model.Exam, int, error) {
	var out []model.Exam
	for _, e := range f.items {
		if status == "" || e.Status == status {
			out = append(out, *e)
		}
	}
	total := len(out)
	if offset > len(out) {
		offset = len(out)
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, total, nil
}

func (f *fakeExams) ListAllWithSections(_ context.Context) ([]model.Exam, error) {
	var out []model.Exam
	for _, e := range f.items {
		out = append(out, *e)
	}
	return out, nil
}

func (f *fakeExams) Create(_ context.Context, e *model.Exam) error {
	e.ID = uuid.New()
	f.items[e.ID] = e
	return nil
}

func (f *fakeExams) Update(_ context.Context, e *model.Exam) error {
	cur, ok := f.items[e.ID]
	if !ok {
		return repository.ErrNotFound
	}
	cur.Title, cur.Provider, cur.Level = e.Title, e.Provider, e.Level
	return nil
}

func (f *fakeExams) ReplaceSections(_ context.Context, id uuid.UUID, sections []model.Section) error {
	cur, ok := f.items[id]
	if !ok {
		return repository.ErrNotFound
	}
	cur.Sections = sections
	return nil
}

func (f *fakeExams) UpdateStatus(_ context.Context, id uuid.UUID, status model.ExamStatus) error {
	cur, ok := f.items[id]
	if !ok {
		return repository.ErrNotFound
	}
	cur.Status = status
	return nil
}

func (f *fakeExams) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.items, id)
	return nil
}

type fakeAttempts struct {
	items   map[uuid.UUID]*model.Attempt
	created int
}

func newFakeAttempts() *fakeAttempts {
	return &fakeAttempts{items: make(map[uuid.UUID]*model.Attempt)}
}

func (f *fakeAttempts) Create(_ context.Context, a *model.Attempt) error {
	a.ID = uuid.New()
	f.items[a.ID] = a
	f.created++
	return nil
}

func (f *fakeAttempts) GetByID(_ context.Context, id uuid.UUID) (*model.Attempt, error) {
	a, ok := f.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return a, nil
}

func mcq(provider, level string, tags ...string) model.Question {
	return model.Question{
		ID:       uuid.New(),
		Status:   model.QuestionStatusPublished,
		Provider: provider,
		Level:    level,
		Tags:     tags,
		QType:    model.QuestionTypeMultipleChoice,
		Prompt:   "Wer wählt den Bundestag?",
		Options: []model.Option{
			{Key: "a", Text: "Das Volk", Correct: true},
			{Key: "b", Text: "Der Bundesrat"},
		},
	}
}

func mcqs(n int, provider, level string, tags ...string) []model.Question {
	out := make([]model.Question, n)
	for i := range out {
		out[i] = mcq(provider, level, tags...)
	}
	return out
}

func newResolver(store composition.QuestionStore) *composition.Resolver {
	return composition.NewResolver(store, composition.NewAliasResolver(composition.DefaultAliasGroups...), 0)
}
