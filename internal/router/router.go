package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/lidtrainer/examcore/internal/config"
	"github.com/lidtrainer/examcore/internal/handler"
	"github.com/lidtrainer/examcore/internal/middleware"
	"github.com/lidtrainer/examcore/internal/response"
	"github.com/rs/zerolog"
)

// providersMaxAge is how long clients may cache the alias groups.
const providersMaxAge = 5 * time.Minute

// Handlers groups all handler instances for route setup.
type Handlers struct {
	System      *handler.SystemHandler
	Question    *handler.QuestionHandler
	Exam        *handler.ExamHandler
	Attempt     *handler.AttemptHandler
	Maintenance *handler.MaintenanceHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(handlers *Handlers, cfg *config.Config, log zerolog.Logger) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", response.HeaderRequestID}
	corsConfig.ExposeHeaders = []string{response.HeaderRequestID, "Retry-After"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(response.RequestIDMiddleware())
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.Brotli())

	router.GET("/health", handlers.System.Health)

	api := router.Group("/api/v1")

	api.GET("/providers", middleware.PublicCache(providersMaxAge), handlers.Maintenance.ListProviders)

	// ─── Questions ─────────────────────────────────────────────────────
	questions := api.Group("/questions")
	{
		questions.GET("", handlers.Question.ListQuestions)
		questions.POST("", handlers.Question.CreateQuestion)
		questions.POST("/import", handlers.Question.ImportQuestions)
		questions.GET("/:id", handlers.Question.GetQuestion)
		questions.PUT("/:id", handlers.Question.UpdateQuestion)
		questions.DELETE("/:id", handlers.Question.DeleteQuestion)
		questions.POST("/:id/status", handlers.Question.SetQuestionStatus)
	}

	// ─── Exams ─────────────────────────────────────────────────────────
	attemptLimiter := middleware.NewRateLimiter(cfg.AttemptRatePerMinute, time.Minute)

	exams := api.Group("/exams")
	{
		exams.GET("", handlers.Exam.ListExams)
		exams.POST("", handlers.Exam.CreateExam)
		exams.GET("/:id", handlers.Exam.GetExam)
		exams.PUT("/:id", handlers.Exam.UpdateExam)
		exams.DELETE("/:id", handlers.Exam.DeleteExam)
		exams.PUT("/:id/sections", handlers.Exam.ReplaceSections)
		exams.POST("/:id/publish", handlers.Exam.PublishExam)
		exams.GET("/:id/readiness", handlers.Exam.GetReadiness)
		exams.POST("/:id/attempts", attemptLimiter.Middleware(), handlers.Attempt.StartAttempt)
	}

	// ─── Attempts ──────────────────────────────────────────────────────
	attempts := api.Group("/attempts", middleware.NoStore())
	{
		attempts.GET("/:id", handlers.Attempt.GetAttempt)
		attempts.GET("/:id/paper", handlers.Attempt.GetPaper)
		attempts.GET("/:id/audit", handlers.Attempt.AuditAttempt)
	}

	// ─── Maintenance ───────────────────────────────────────────────────
	maintenance := api.Group("/maintenance")
	{
		maintenance.POST("/repair-snapshots", handlers.Maintenance.RepairSnapshots)
		maintenance.GET("/readiness", handlers.Maintenance.CheckReadiness)
	}

	return router
}
