package service

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"github.com/lidtrainer/examcore/internal/composition"
	"github.com/lidtrainer/examcore/internal/config"
	"github.com/lidtrainer/examcore/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// AttemptStore is the attempt persistence the services depend on.
type AttemptStore interface {
	Create(ctx context.Context, a *model.Attempt) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Attempt, error)
}

// ExamReader loads exams with their sections.
type ExamReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error)
}

// AttemptService creates attempts and serves their immutable snapshots.
type AttemptService struct {
	exams    ExamReader
	attempts AttemptStore
	resolver *composition.Resolver
	rdb      *redis.Client
	paperTTL time.Duration
	log      zerolog.Logger
}

// NewAttemptService creates a new AttemptService. rdb may be nil, which disables caching.
func NewAttemptService(
	exams ExamReader,
	attempts AttemptStore,
	resolver *composition.Resolver,
	rdb *redis.Client,
	paperTTL time.Duration,
	log zerolog.Logger,
) *AttemptService {
	return &AttemptService{
		exams:    exams,
		attempts: attempts,
		resolver: resolver,
		rdb:      rdb,
		paperTTL: paperTTL,
		log:      log.With().Str("component", "attempt_service").Logger(),
	}
}

// Start resolves every section of a published exam and persists the attempt
// with a snapshot of each selected question. If any section cannot be
// satisfied nothing is written and a *NotReadyError is returned.
func (s *AttemptService) Start(ctx context.Context, examID uuid.UUID, studentID string) (*model.Attempt, error) {
	exam, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		return nil, err
	}
	if exam.Status != model.ExamStatusPublished {
		return nil, ErrExamNotPublished
	}
	if len(exam.Sections) == 0 {
		return nil, ErrNoSections
	}

	seed, err := newSeed()
	if err != nil {
		return nil, fmt.Errorf("generate seed: %w", err)
	}

	resolution, err := s.resolver.ResolveExam(ctx, exam, seed)
	if err != nil {
		return nil, err
	}
	if !resolution.Ready() {
		s.log.Warn().
			Str("exam_id", examID.String()).
			Str("student_id", studentID).
			Msg("Attempt refused: exam not ready")
		return nil, &NotReadyError{Sections: resolution.Sections}
	}

	items, err := snapshotItems(resolution)
	if err != nil {
		return nil, err
	}

	attempt := &model.Attempt{
		ExamID:    examID,
		StudentID: studentID,
		Seed:      seed,
		Status:    model.AttemptStatusInProgress,
		Items:     items,
	}
	if err := s.attempts.Create(ctx, attempt); err != nil {
		return nil, fmt.Errorf("persist attempt: %w", err)
	}

	s.cachePaper(ctx, buildPaper(attempt, exam.Title))

	s.log.Info().
		Str("attempt_id", attempt.ID.String()).
		Str("exam_id", examID.String()).
		Str("student_id", studentID).
		Int("items", len(items)).
		Msg("Attempt started")
	return attempt, nil
}

// snapshotItems copies the selected questions into attempt items in section order.
func snapshotItems(res *composition.ExamResolution) ([]model.AttemptItem, error) {
	var items []model.AttemptItem
	for _, sec := range res.Sections {
		for _, sel := range sec.Selected {
			var item model.AttemptItem
			if err := copier.CopyWithOption(&item, &sel.Question, copier.Option{DeepCopy: true}); err != nil {
				return nil, fmt.Errorf("snapshot question %s: %w", sel.Question.ID, err)
			}
			id := sel.Question.ID
			item.QuestionID = &id
			item.Position = len(items)
			item.SectionIndex = sec.SectionIndex
			item.Points = sel.Points
			items = append(items, item)
		}
	}
	return items, nil
}

// GetByID returns the attempt with its full snapshot, answers included.
func (s *AttemptService) GetByID(ctx context.Context, id uuid.UUID) (*model.Attempt, error) {
	return s.attempts.GetByID(ctx, id)
}

// GetPaper returns the student-facing view of an attempt.
func (s *AttemptService) GetPaper(ctx context.Context, id uuid.UUID) (*model.AttemptPaper, error) {
	if paper, ok := s.cachedPaper(ctx, id); ok {
		return paper, nil
	}

	attempt, err := s.attempts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	title := ""
	if exam, err := s.exams.GetByID(ctx, attempt.ExamID); err == nil {
		title = exam.Title
	} else {
		s.log.Warn().Err(err).Str("attempt_id", id.String()).Msg("Exam lookup for paper failed")
	}

	paper := buildPaper(attempt, title)
	s.cachePaper(ctx, paper)
	return paper, nil
}

// buildPaper strips correctness data from an attempt. Matching questions list
// their right-hand column alphabetically so the pairing is not revealed.
func buildPaper(a *model.Attempt, title string) *model.AttemptPaper {
	paper := &model.AttemptPaper{
		AttemptID: a.ID,
		ExamID:    a.ExamID,
		Title:     title,
		Items:     make([]model.PaperItem, 0, len(a.Items)),
	}
	for _, it := range a.Items {
		p := model.PaperItem{
			Position: it.Position,
			QType:    it.QType,
			Prompt:   it.Prompt,
			ImageURL: it.ImageURL,
			Points:   it.Points,
		}
		for _, o := range it.Options {
			p.Options = append(p.Options, model.PaperOption{Key: o.Key, Text: o.Text})
		}
		for _, mp := range it.MatchPairs {
			p.Left = append(p.Left, mp.Left)
			p.Right = append(p.Right, mp.Right)
		}
		sort.Strings(p.Right)
		paper.Items = append(paper.Items, p)
	}
	return paper
}

// SectionAudit compares the stored and the re-resolved selection of one section.
type SectionAudit struct {
	SectionIndex int                       `json:"section_index"`
	Status       composition.SectionStatus `json:"status"`
	Stored       []*uuid.UUID              `json:"stored"`
	Resolved     []uuid.UUID               `json:"resolved"`
	Match        bool                      `json:"match"`
}

// AuditReport tells whether an attempt's selection is reproducible from its seed.
type AuditReport struct {
	AttemptID    uuid.UUID      `json:"attempt_id"`
	ExamID       uuid.UUID      `json:"exam_id"`
	Seed         int64          `json:"seed"`
	Reproducible bool           `json:"reproducible"`
	Sections     []SectionAudit `json:"sections"`
}

// Audit re-resolves the exam with the attempt's stored seed against the
// current question bank and compares the selection with the snapshot.
func (s *AttemptService) Audit(ctx context.Context, id uuid.UUID) (*AuditReport, error) {
	attempt, err := s.attempts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	exam, err := s.exams.GetByID(ctx, attempt.ExamID)
	if err != nil {
		return nil, fmt.Errorf("get exam: %w", err)
	}

	resolution, err := s.resolver.ResolveExam(ctx, exam, attempt.Seed)
	if err != nil {
		return nil, err
	}

	stored := make(map[int][]*uuid.UUID)
	for _, it := range attempt.Items {
		stored[it.SectionIndex] = append(stored[it.SectionIndex], it.QuestionID)
	}

	report := &AuditReport{
		AttemptID:    attempt.ID,
		ExamID:       exam.ID,
		Seed:         attempt.Seed,
		Reproducible: true,
		Sections:     make([]SectionAudit, 0, len(resolution.Sections)),
	}
	for _, sec := range resolution.Sections {
		sa := SectionAudit{
			SectionIndex: sec.SectionIndex,
			Status:       sec.Status,
			Stored:       stored[sec.SectionIndex],
			Resolved:     make([]uuid.UUID, 0, len(sec.Selected)),
		}
		for _, sel := range sec.Selected {
			sa.Resolved = append(sa.Resolved, sel.Question.ID)
		}
		sa.Match = sec.OK() && sameSelection(sa.Stored, sa.Resolved)
		if !sa.Match {
			report.Reproducible = false
		}
		report.Sections = append(report.Sections, sa)
	}
	if len(stored) > len(resolution.Sections) {
		report.Reproducible = false
	}
	return report, nil
}

func sameSelection(stored []*uuid.UUID, resolved []uuid.UUID) bool {
	if len(stored) != len(resolved) {
		return false
	}
	for i := range stored {
		if stored[i] == nil || *stored[i] != resolved[i] {
			return false
		}
	}
	return true
}

// ─── Redis cache ────────────────────────────────────────────────────────────

func (s *AttemptService) cachedPaper(ctx context.Context, id uuid.UUID) (*model.AttemptPaper, bool) {
	if s.rdb == nil {
		return nil, false
	}

	raw, err := s.rdb.Get(ctx, config.CacheKey.AttemptPaperKey(id.String())).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.log.Warn().Err(err).Str("attempt_id", id.String()).Msg("Paper cache read failed")
		}
		return nil, false
	}

	var paper model.AttemptPaper
	if err := json.Unmarshal(raw, &paper); err != nil {
		return nil, false
	}
	return &paper, true
}

func (s *AttemptService) cachePaper(ctx context.Context, paper *model.AttemptPaper) {
	if s.rdb == nil {
		return
	}

	raw, err := json.Marshal(paper)
	if err != nil {
		s.log.Error().Err(err).Msg("Marshal attempt paper")
		return
	}
	if err := s.rdb.Set(ctx, config.CacheKey.AttemptPaperKey(paper.AttemptID.String()), raw, s.paperTTL).Err(); err != nil {
		s.log.Warn().Err(err).Str("attempt_id", paper.AttemptID.String()).Msg("Paper cache write failed")
	}
}

// newSeed draws a non-negative seed from the OS entropy source.
func newSeed() (int64, error) {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0, err
	}
	return int64(binary.BigEndian.Uint64(b[:]) >> 1), nil
}
