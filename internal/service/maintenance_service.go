package service

import (
	"context"
	"fmt"

	"github.com/lidtrainer/examcore/internal/composition"
	"github.com/lidtrainer/examcore/internal/model"
	"github.com/rs/zerolog"
)

// SnapshotRepairer detaches attempt items from questions that no longer exist.
type SnapshotRepairer interface {
	CountOrphanedItems(ctx context.Context) (int, error)
	RepairDeletedQuestionRefs(ctx context.Context) (int64, error)
}

// MaintenanceService bundles the operational checks and repairs.
type MaintenanceService struct {
	snapshots SnapshotRepairer
	exams     *ExamService
	log       zerolog.Logger
}

// NewMaintenanceService creates a new MaintenanceService.
func NewMaintenanceService(snapshots SnapshotRepairer, exams *ExamService, log zerolog.Logger) *MaintenanceService {
	return &MaintenanceService{
		snapshots: snapshots,
		exams:     exams,
		log:       log.With().Str("component", "maintenance_service").Logger(),
	}
}

// RepairResult reports what a snapshot repair changed.
type RepairResult struct {
	Orphaned int   `json:"orphaned"`
	Repaired int64 `json:"repaired"`
}

// RepairSnapshots clears references to deleted questions from attempt items.
// The captured question content is kept.
func (s *MaintenanceService) RepairSnapshots(ctx context.Context) (*RepairResult, error) {
	orphaned, err := s.snapshots.CountOrphanedItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("count orphaned items: %w", err)
	}
	if orphaned == 0 {
		return &RepairResult{}, nil
	}

	repaired, err := s.snapshots.RepairDeletedQuestionRefs(ctx)
	if err != nil {
		return nil, fmt.Errorf("repair snapshots: %w", err)
	}

	s.log.Info().Int("orphaned", orphaned).Int64("repaired", repaired).Msg("Snapshot references repaired")
	return &RepairResult{Orphaned: orphaned, Repaired: repaired}, nil
}

// ReadinessSummary is the consolidated readiness check over all exams.
type ReadinessSummary struct {
	Total    int                       `json:"total"`
	Ready    int                       `json:"ready"`
	NotReady int                       `json:"not_ready"`
	Exams    []*composition.ExamReport `json:"exams"`
}

// AllReady reports whether every exam passed.
func (r *ReadinessSummary) AllReady() bool {
	return r.NotReady == 0
}

// CheckAll validates every exam and logs published exams that broke.
func (s *MaintenanceService) CheckAll(ctx context.Context) (*ReadinessSummary, error) {
	reports, err := s.exams.CheckAll(ctx)
	if err != nil {
		return nil, err
	}

	summary := &ReadinessSummary{Total: len(reports), Exams: reports}
	for _, r := range reports {
		if r.Ready {
			summary.Ready++
			continue
		}
		summary.NotReady++
		logBrokenExam(s.log, r)
	}
	return summary, nil
}

// logBrokenExam warns about a published exam that can no longer be started.
func logBrokenExam(log zerolog.Logger, r *composition.ExamReport) {
	if r.Status != model.ExamStatusPublished {
		return
	}
	failing := 0
	for _, sec := range r.Sections {
		if !sec.OK() {
			failing++
		}
	}
	log.Warn().
		Str("exam_id", r.ExamID.String()).
		Str("title", r.Title).
		Int("failing_sections", failing).
		Msg("Published exam is no longer ready")
}
