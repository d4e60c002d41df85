package worker

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lidtrainer/examcore/internal/composition"
	"github.com/lidtrainer/examcore/internal/config"
	"github.com/lidtrainer/examcore/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	ReadinessBatchSize    = 50
	ReadinessBatchTimeout = 2 * time.Second
	ReadinessPollTimeout  = 1 * time.Second
)

// ReadinessChecker re-validates exams and refreshes their cached reports.
type ReadinessChecker interface {
	CheckByID(ctx context.Context, id uuid.UUID) (*composition.ExamReport, error)
	CheckAll(ctx context.Context) ([]*composition.ExamReport, error)
}

// ReadinessWorker consumes revalidation requests and keeps readiness reports fresh.
type ReadinessWorker struct {
	checker ReadinessChecker
	rdb     *redis.Client
	log     zerolog.Logger
}

func NewReadinessWorker(checker ReadinessChecker, rdb *redis.Client, log zerolog.Logger) *ReadinessWorker {
	return &ReadinessWorker{
		checker: checker,
		rdb:     rdb,
		log:     log.With().Str("component", "readiness_worker").Logger(),
	}
}

func (w *ReadinessWorker) Start(ctx context.Context) {
	w.log.Info().Msg("ReadinessWorker started")

	batch := make([]string, 0, ReadinessBatchSize)
	lastFlush := time.Now()

	for {
		if len(batch) > 0 &&
			(len(batch) >= ReadinessBatchSize || time.Since(lastFlush) >= ReadinessBatchTimeout) {

			w.flush(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested. Flushing remaining batch...")
			w.flush(context.Background(), batch)
			return

		default:
			item, err := w.rdb.BLPop(ctx, ReadinessPollTimeout, config.WorkerKey.RevalidateExamsQueue).Result()
			if err != nil {
				if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}

			if len(item) < 2 {
				continue
			}
			batch = append(batch, item[1])
		}
	}
}

// flush collapses a batch into the smallest set of checks: one full pass if
// any request asked for all exams, otherwise one check per distinct id.
func (w *ReadinessWorker) flush(ctx context.Context, batch []string) {
	if len(batch) == 0 {
		return
	}

	ids, all := collapse(batch)
	if all {
		reports, err := w.checker.CheckAll(ctx)
		if err != nil {
			w.log.Error().Err(err).Msg("Full readiness check failed, requeueing")
			w.requeue(ctx, config.RevalidateAllExams)
			return
		}
		for _, r := range reports {
			w.report(r)
		}
		w.log.Info().Int("exams", len(reports)).Int("requests", len(batch)).Msg("Readiness refreshed")
		return
	}

	for _, id := range ids {
		r, err := w.checker.CheckByID(ctx, id)
		if err != nil {
			w.log.Error().Err(err).Str("exam_id", id.String()).Msg("Readiness check failed, requeueing")
			w.requeue(ctx, id.String())
			continue
		}
		w.report(r)
	}
}

// collapse de-duplicates exam ids; invalid entries are dropped.
func collapse(batch []string) ([]uuid.UUID, bool) {
	seen := make(map[uuid.UUID]bool, len(batch))
	var ids []uuid.UUID
	for _, raw := range batch {
		if raw == config.RevalidateAllExams {
			return nil, true
		}
		id, err := uuid.Parse(raw)
		if err != nil || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids, false
}

func (w *ReadinessWorker) report(r *composition.ExamReport) {
	if r.Ready || r.Status != model.ExamStatusPublished {
		return
	}
	w.log.Warn().
		Str("exam_id", r.ExamID.String()).
		Str("title", r.Title).
		Msg("Published exam is no longer ready")
}

func (w *ReadinessWorker) requeue(ctx context.Context, payload string) {
	if ctx.Err() != nil {
		ctx = context.Background()
	}
	if err := w.rdb.RPush(ctx, config.WorkerKey.RevalidateExamsQueue, payload).Err(); err != nil {
		w.log.Error().Err(err).Msg("Requeue failed")
	}
}
