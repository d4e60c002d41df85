package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lidtrainer/examcore/internal/composition"
	"github.com/lidtrainer/examcore/internal/config"
	"github.com/lidtrainer/examcore/internal/model"
	"github.com/lidtrainer/examcore/internal/response"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Domain Errors
var (
	ErrNoSections       = errors.New("exam has no sections")
	ErrExamNotDraft     = errors.New("exam status is not draft")
	ErrExamNotPublished = errors.New("exam status is not published")
	ErrExamNotReady     = errors.New("exam cannot be assembled from the current question bank")
)

// NotReadyError carries the section reports explaining why an exam cannot be
// published or started.
type NotReadyError struct {
	Sections []*composition.SectionReport
}

func (e *NotReadyError) Error() string {
	failing := 0
	for _, s := range e.Sections {
		if !s.OK() {
			failing++
		}
	}
	return fmt.Sprintf("%s: %d of %d sections failing", ErrExamNotReady, failing, len(e.Sections))
}

func (e *NotReadyError) Unwrap() error {
	return ErrExamNotReady
}

// ExamStore is the exam persistence the services depend on.
type ExamStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error)
	ListPaginated(ctx context.Context, status model.ExamStatus, limit, offset int) ([]model.Exam, int, error)
	ListAllWithSections(ctx context.Context) ([]model.Exam, error)
	Create(ctx context.Context, e *model.Exam) error
	Update(ctx context.Context, e *model.Exam) error
	ReplaceSections(ctx context.Context, examID uuid.UUID, sections []model.Section) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.ExamStatus) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// ExamService handles exam business logic and readiness caching in Redis.
type ExamService struct {
	examRepo  ExamStore
	validator *composition.Validator
	rdb       *redis.Client
	cacheTTL  time.Duration
	log       zerolog.Logger
}

// NewExamService creates a new ExamService. rdb may be nil, which disables caching.
func NewExamService(
	examRepo ExamStore,
	validator *composition.Validator,
	rdb *redis.Client,
	cacheTTL time.Duration,
	log zerolog.Logger,
) *ExamService {
	return &ExamService{
		examRepo:  examRepo,
		validator: validator,
		rdb:       rdb,
		cacheTTL:  cacheTTL,
		log:       log.With().Str("component", "exam_service").Logger(),
	}
}

// GetByID retrieves an exam with its sections.
func (s *ExamService) GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	return s.examRepo.GetByID(ctx, id)
}

// List retrieves exams with pagination, optionally filtered by status.
func (s *ExamService) List(ctx context.Context, status model.ExamStatus, page, perPage int) ([]model.Exam, *response.Pagination, error) {
	limit, offset, page, perPage := paginate(page, perPage)

	exams, total, err := s.examRepo.ListPaginated(ctx, status, limit, offset)
	if err != nil {
		return nil, nil, err
	}
	if exams == nil {
		exams = []model.Exam{}
	}

	return exams, newPagination(page, perPage, total), nil
}

// Create inserts a new exam as draft.
func (s *ExamService) Create(ctx context.Context, req *model.CreateExamRequest) (*model.Exam, error) {
	exam := &model.Exam{
		Title:    req.Title,
		Provider: req.Provider,
		Level:    req.Level,
		Status:   model.ExamStatusDraft,
		Sections: model.ToSections(req.Sections),
	}
	if err := s.examRepo.Create(ctx, exam); err != nil {
		return nil, err
	}

	s.log.Info().Str("exam_id", exam.ID.String()).Int("sections", len(exam.Sections)).Msg("Exam created")
	return exam, nil
}

// Update changes the header of a draft exam. Empty fields keep their value.
func (s *ExamService) Update(ctx context.Context, id uuid.UUID, req *model.UpdateExamRequest) (*model.Exam, error) {
	exam, err := s.draft(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != "" {
		exam.Title = req.Title
	}
	if req.Provider != "" {
		exam.Provider = req.Provider
	}
	if req.Level != "" {
		exam.Level = req.Level
	}
	if err := s.examRepo.Update(ctx, exam); err != nil {
		return nil, err
	}

	s.invalidate(ctx, id)
	return exam, nil
}

// ReplaceSections swaps all sections of a draft exam.
func (s *ExamService) ReplaceSections(ctx context.Context, id uuid.UUID, reqs []model.SectionRequest) (*model.Exam, error) {
	exam, err := s.draft(ctx, id)
	if err != nil {
		return nil, err
	}

	sections := model.ToSections(reqs)
	if err := s.examRepo.ReplaceSections(ctx, id, sections); err != nil {
		return nil, err
	}
	exam.Sections = sections

	s.invalidate(ctx, id)
	s.log.Info().Str("exam_id", id.String()).Int("sections", len(sections)).Msg("Sections replaced")
	return exam, nil
}

// Delete removes a draft exam.
func (s *ExamService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.draft(ctx, id); err != nil {
		return err
	}
	if err := s.examRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.invalidate(ctx, id)
	return nil
}

func (s *ExamService) draft(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	exam, err := s.examRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if exam.Status != model.ExamStatusDraft {
		return nil, ErrExamNotDraft
	}
	return exam, nil
}

// Publish validates a draft exam and marks it published. Only an exam whose
// every section can currently be satisfied is published.
func (s *ExamService) Publish(ctx context.Context, id uuid.UUID) (*composition.ExamReport, error) {
	exam, err := s.draft(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(exam.Sections) == 0 {
		return nil, ErrNoSections
	}

	report, err := s.Check(ctx, exam)
	if err != nil {
		return nil, err
	}
	if !report.Ready {
		return report, &NotReadyError{Sections: report.Sections}
	}

	if err := s.examRepo.UpdateStatus(ctx, id, model.ExamStatusPublished); err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}
	report.Status = model.ExamStatusPublished
	s.store(ctx, report)

	s.log.Info().Str("exam_id", id.String()).Msg("Exam published")
	return report, nil
}

// Readiness returns the readiness report of an exam, served from Redis when fresh.
func (s *ExamService) Readiness(ctx context.Context, id uuid.UUID) (*composition.ExamReport, error) {
	if report, ok := s.cached(ctx, id); ok {
		return report, nil
	}

	exam, err := s.examRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.Check(ctx, exam)
}

// CheckByID re-validates one exam, bypassing the cache.
func (s *ExamService) CheckByID(ctx context.Context, id uuid.UUID) (*composition.ExamReport, error) {
	exam, err := s.examRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.Check(ctx, exam)
}

// CheckAll re-validates every exam, bypassing the cache.
func (s *ExamService) CheckAll(ctx context.Context) ([]*composition.ExamReport, error) {
	exams, err := s.examRepo.ListAllWithSections(ctx)
	if err != nil {
		return nil, fmt.Errorf("list exams: %w", err)
	}

	reports := make([]*composition.ExamReport, 0, len(exams))
	for i := range exams {
		report, err := s.Check(ctx, &exams[i])
		if err != nil {
			return nil, fmt.Errorf("check exam %s: %w", exams[i].ID, err)
		}
		reports = append(reports, report)
	}
	return reports, nil
}

// Check validates exam and refreshes its cached report. An exam without
// sections is never ready.
func (s *ExamService) Check(ctx context.Context, exam *model.Exam) (*composition.ExamReport, error) {
	report, err := s.validator.Validate(ctx, exam)
	if err != nil {
		return nil, err
	}
	if len(exam.Sections) == 0 {
		report.Ready = false
	}

	s.store(ctx, report)
	return report, nil
}

// ─── Redis cache ────────────────────────────────────────────────────────────

func (s *ExamService) cached(ctx context.Context, id uuid.UUID) (*composition.ExamReport, bool) {
	if s.rdb == nil {
		return nil, false
	}

	raw, err := s.rdb.Get(ctx, config.CacheKey.ExamReadinessKey(id.String())).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.log.Warn().Err(err).Str("exam_id", id.String()).Msg("Readiness cache read failed")
		}
		return nil, false
	}

	var report composition.ExamReport
	if err := json.Unmarshal(raw, &report); err != nil {
		s.log.Warn().Err(err).Str("exam_id", id.String()).Msg("Discarding corrupt readiness cache entry")
		return nil, false
	}
	return &report, true
}

func (s *ExamService) store(ctx context.Context, report *composition.ExamReport) {
	if s.rdb == nil {
		return
	}

	raw, err := json.Marshal(report)
	if err != nil {
		s.log.Error().Err(err).Msg("Marshal readiness report")
		return
	}
	key := config.CacheKey.ExamReadinessKey(report.ExamID.String())
	if err := s.rdb.Set(ctx, key, raw, s.cacheTTL).Err(); err != nil {
		s.log.Warn().Err(err).Str("exam_id", report.ExamID.String()).Msg("Readiness cache write failed")
	}
}

func (s *ExamService) invalidate(ctx context.Context, id uuid.UUID) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, config.CacheKey.ExamReadinessKey(id.String())).Err(); err != nil {
		s.log.Warn().Err(err).Str("exam_id", id.String()).Msg("Readiness cache invalidation failed")
	}
}
