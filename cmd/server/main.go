package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/lidtrainer/examcore/internal/composition"
	"github.com/lidtrainer/examcore/internal/config"
	"github.com/lidtrainer/examcore/internal/database"
	"github.com/lidtrainer/examcore/internal/handler"
	"github.com/lidtrainer/examcore/internal/logger"
	"github.com/lidtrainer/examcore/internal/repository"
	"github.com/lidtrainer/examcore/internal/router"
	"github.com/lidtrainer/examcore/internal/service"
	"github.com/lidtrainer/examcore/internal/validator"
	"github.com/lidtrainer/examcore/internal/worker"
	"github.com/rs/zerolog"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting examcore")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	questionRepo := repository.NewQuestionRepository(pool)
	examRepo := repository.NewExamRepository(pool)
	attemptRepo := repository.NewAttemptRepository(pool)

	// ─── Question Selection Core ───────────────────────────────────────
	aliases := composition.NewAliasResolver(slices.Concat(composition.DefaultAliasGroups, cfg.ProviderAliases)...)
	resolver := composition.NewResolver(questionRepo, aliases, cfg.RepositoryTimeout)
	sectionValidator := composition.NewValidator(resolver)

	// ─── Initialize Services ──────────────────────────────────────────
	questionService := service.NewQuestionService(questionRepo, aliases, rdb, log)
	examService := service.NewExamService(examRepo, sectionValidator, rdb, cfg.ReadinessCacheTTL, log)
	attemptService := service.NewAttemptService(examRepo, attemptRepo, resolver, rdb, cfg.PaperCacheTTL, log)
	maintenanceService := service.NewMaintenanceService(attemptRepo, examService, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		System:      handler.NewSystemHandler(pool, rdb, log),
		Question:    handler.NewQuestionHandler(questionService, log),
		Exam:        handler.NewExamHandler(examService, log),
		Attempt:     handler.NewAttemptHandler(attemptService, log),
		Maintenance: handler.NewMaintenanceHandler(maintenanceService, aliases, log),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	readinessWorker := worker.NewReadinessWorker(examService, rdb, log)
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		readinessWorker.Start(workerCtx)
	}()

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(handlers, cfg, log)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop the readiness worker and let it flush its batch.
	workerCancel()
	select {
	case <-workerDone:
	case <-time.After(10 * time.Second):
		log.Warn().Msg("Readiness worker did not drain in time")
	}

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
