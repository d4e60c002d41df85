package composition

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/lidtrainer/examcore/internal/model"
)

// memStore is an in-memory QuestionStore for tests.
type memStore struct {
	mu         sync.Mutex
	questions  map[uuid.UUID]model.Question
	err        error
	findCalls  int
	countCalls int
}

func newMemStore(qs ...model.Question) *memStore {
	s := &memStore{questions: make(map[uuid.UUID]model.Question)}
	for _, q := range qs {
		s.questions[q.ID] = q
	}
	return s
}

func (s *memStore) FindPublishedByFilter(ctx context.Context, f Filter) ([]model.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.findCalls++
	if s.err != nil {
		return nil, s.err
	}
	var out []model.Question
	for _, q := range s.questions {
		if f.Matches(&q) {
			out = append(out, q)
		}
	}
	return out, nil
}

func (s *memStore) CountPublishedByFilter(ctx context.Context, f Filter) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.countCalls++
	if s.err != nil {
		return 0, s.err
	}
	n := 0
	for _, q := range s.questions {
		if f.Matches(&q) {
			n++
		}
	}
	return n, nil
}

func (s *memStore) FindByID(ctx context.Context, id uuid.UUID) (*model.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	q, ok := s.questions[id]
	if !ok {
		return nil, ErrQuestionNotFound
	}
	return &q, nil
}

func (s *memStore) delete(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.questions, id)
}

func question(status model.QuestionStatus, provider, level string, tags ...string) model.Question {
	return model.Question{
		ID:       uuid.New(),
		Status:   status,
		Provider: provider,
		Level:    level,
		Tags:     tags,
		QType:    model.QuestionTypeMultipleChoice,
		Prompt:   "Wie viele Bundesländer hat Deutschland?",
		Options: []model.Option{
			{Key: "a", Text: "14"},
			{Key: "b", Text: "16", Correct: true},
		},
	}
}

func questions(n int, status model.QuestionStatus, provider, level string, tags ...string) []model.Question {
	out := make([]model.Question, n)
	for i := range out {
		out[i] = question(status, provider, level, tags...)
	}
	return out
}
