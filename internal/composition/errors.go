package composition

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lidtrainer/examcore/internal/model"
)

var (
	// ErrQuestionNotFound is returned by a QuestionStore when an id does not exist.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrRepositoryUnavailable wraps every storage or transport failure.
	ErrRepositoryUnavailable = errors.New("question repository unavailable")
)

// Report codes, shared with the HTTP error codes.
const (
	CodeProviderUnknown      = "PROVIDER_UNKNOWN"
	CodeQuestionNotFound     = "QUESTION_NOT_FOUND"
	CodeQuestionNotPublished = "QUESTION_NOT_PUBLISHED"
	CodeSectionEmpty         = "SECTION_EMPTY"
	CodeSectionUnderfilled   = "SECTION_UNDERFILLED"
)

// QuestionStore is the read side of the question repository the resolver needs.
type QuestionStore interface {
	// FindPublishedByFilter returns every question matching f.
	FindPublishedByFilter(ctx context.Context, f Filter) ([]model.Question, error)
	// CountPublishedByFilter returns the number of questions matching f.
	CountPublishedByFilter(ctx context.Context, f Filter) (int, error)
	// FindByID returns ErrQuestionNotFound when the id does not exist.
	FindByID(ctx context.Context, id uuid.UUID) (*model.Question, error)
}

func unavailable(op string, err error) error {
	if errors.Is(err, ErrRepositoryUnavailable) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, ErrRepositoryUnavailable, err)
}
