package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lidtrainer/examcore/internal/composition"
	"github.com/lidtrainer/examcore/internal/config"
	"github.com/lidtrainer/examcore/internal/model"
	"github.com/lidtrainer/examcore/internal/repository"
	"github.com/lidtrainer/examcore/internal/response"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// QuestionService handles question business logic.
type QuestionService struct {
	questionRepo *repository.QuestionRepository
	aliases      *composition.AliasResolver
	rdb          *redis.Client
	log          zerolog.Logger
}

// NewQuestionService creates a new QuestionService.
func NewQuestionService(
	questionRepo *repository.QuestionRepository,
	aliases *composition.AliasResolver,
	rdb *redis.Client,
	log zerolog.Logger,
) *QuestionService {
	return &QuestionService{
		questionRepo: questionRepo,
		aliases:      aliases,
		rdb:          rdb,
		log:          log.With().Str("component", "question_service").Logger(),
	}
}

// ImportResult summarises a bulk import.
type ImportResult struct {
	Imported int         `json:"imported"`
	IDs      []uuid.UUID `json:"ids"`
}

// GetByID retrieves a question.
func (s *QuestionService) GetByID(ctx context.Context, id uuid.UUID) (*model.Question, error) {
	return s.questionRepo.FindByID(ctx, id)
}

// List retrieves questions with pagination. A provider filter matches every alias.
func (s *QuestionService) List(ctx context.Context, status, provider, level, tag, search string, page, perPage int) ([]model.Question, *response.Pagination, error) {
	limit, offset, page, perPage := paginate(page, perPage)

	f := model.QuestionListFilter{
		Status: model.QuestionStatus(status),
		Level:  level,
		Tag:    strings.TrimSpace(tag),
		Search: strings.TrimSpace(search),
	}
	if strings.TrimSpace(provider) != "" {
		f.Providers = s.aliases.Resolve(provider)
	}

	questions, total, err := s.questionRepo.List(ctx, f, limit, offset)
	if err != nil {
		return nil, nil, err
	}
	if questions == nil {
		questions = []model.Question{}
	}

	return questions, newPagination(page, perPage, total), nil
}

// Create adds a question to the bank.
func (s *QuestionService) Create(ctx context.Context, req *model.QuestionRequest) (*model.Question, error) {
	q := s.fromRequest(req)
	if err := s.questionRepo.Create(ctx, q); err != nil {
		return nil, err
	}

	s.requestRevalidation(ctx)
	return q, nil
}

// Import inserts a whole catalog in one transaction.
func (s *QuestionService) Import(ctx context.Context, reqs []model.QuestionRequest) (*ImportResult, error) {
	questions := make([]model.Question, len(reqs))
	for i := range reqs {
		questions[i] = *s.fromRequest(&reqs[i])
	}

	if err := s.questionRepo.CreateMany(ctx, questions); err != nil {
		return nil, fmt.Errorf("import questions: %w", err)
	}

	ids := make([]uuid.UUID, len(questions))
	for i := range questions {
		ids[i] = questions[i].ID
	}

	s.log.Info().Int("count", len(questions)).Msg("Questions imported")
	s.requestRevalidation(ctx)
	return &ImportResult{Imported: len(questions), IDs: ids}, nil
}

// Update overwrites a question's content.
func (s *QuestionService) Update(ctx context.Context, id uuid.UUID, req *model.QuestionRequest) (*model.Question, error) {
	existing, err := s.questionRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	q := s.fromRequest(req)
	q.ID = id
	if req.Status == "" {
		q.Status = existing.Status
	}
	if err := s.questionRepo.Update(ctx, q); err != nil {
		return nil, err
	}

	s.requestRevalidation(ctx)
	return q, nil
}

// SetStatus moves a question through its lifecycle.
func (s *QuestionService) SetStatus(ctx context.Context, id uuid.UUID, status model.QuestionStatus) error {
	if err := s.questionRepo.UpdateStatus(ctx, id, status); err != nil {
		return err
	}

	s.log.Info().Str("question_id", id.String()).Str("status", string(status)).Msg("Question status changed")
	s.requestRevalidation(ctx)
	return nil
}

// Delete hard-deletes a question.
func (s *QuestionService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.questionRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.log.Info().Str("question_id", id.String()).Msg("Question deleted")
	s.requestRevalidation(ctx)
	return nil
}

// fromRequest normalizes a payload: provider canonicalized, tags de-duplicated,
// status defaulting to draft.
func (s *QuestionService) fromRequest(req *model.QuestionRequest) *model.Question {
	status := model.QuestionStatus(req.Status)
	if status == "" {
		status = model.QuestionStatusDraft
	}

	q := &model.Question{
		Status:      status,
		Provider:    s.aliases.Canonical(req.Provider),
		Level:       strings.TrimSpace(req.Level),
		State:       strings.TrimSpace(req.State),
		Tags:        composition.NormalizeTags(req.Tags),
		QType:       model.QuestionType(req.QType),
		Prompt:      strings.TrimSpace(req.Prompt),
		Explanation: strings.TrimSpace(req.Explanation),
		ImageURL:    strings.TrimSpace(req.ImageURL),
	}
	switch q.QType {
	case model.QuestionTypeMultipleChoice:
		q.Options = req.Options
	case model.QuestionTypeMatch:
		q.MatchPairs = req.MatchPairs
	}
	if q.Tags == nil {
		q.Tags = []string{}
	}
	return q
}

// requestRevalidation asks the readiness worker to re-check every exam.
func (s *QuestionService) requestRevalidation(ctx context.Context) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.RPush(ctx, config.WorkerKey.RevalidateExamsQueue, config.RevalidateAllExams).Err(); err != nil {
		s.log.Warn().Err(err).Msg("Failed to enqueue exam revalidation")
	}
}
