package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lidtrainer/examcore/internal/model"
	"github.com/lidtrainer/examcore/internal/response"
	"github.com/lidtrainer/examcore/internal/service"
	"github.com/lidtrainer/examcore/internal/validator"
	"github.com/rs/zerolog"
)

// AttemptHandler handles attempt endpoints.
type AttemptHandler struct {
	attemptService *service.AttemptService
	log            zerolog.Logger
}

// NewAttemptHandler creates a new AttemptHandler.
func NewAttemptHandler(attemptService *service.AttemptService, log zerolog.Logger) *AttemptHandler {
	return &AttemptHandler{
		attemptService: attemptService,
		log:            log.With().Str("component", "attempt_handler").Logger(),
	}
}

// StartAttempt godoc
// POST /api/v1/exams/:id/attempts
// Assembles a question paper for the student and stores its snapshot.
// Responds EXAM_NOT_READY with the per-section report if any section fails.
func (h *AttemptHandler) StartAttempt(c *gin.Context) {
	examID, ok := parseID(c)
	if !ok {
		return
	}

	var req model.StartAttemptRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	attempt, err := h.attemptService.Start(c.Request.Context(), examID, req.StudentID)
	if err != nil {
		failFromError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"attempt_id": attempt.ID,
		"exam_id":    attempt.ExamID,
		"items":      len(attempt.Items),
		"created_at": attempt.CreatedAt,
	})
}

// GetAttempt godoc
// GET /api/v1/attempts/:id
// Returns the full snapshot including answers.
func (h *AttemptHandler) GetAttempt(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	attempt, err := h.attemptService.GetByID(c.Request.Context(), id)
	if err != nil {
		failFromError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"attempt": attempt})
}

// GetPaper godoc
// GET /api/v1/attempts/:id/paper
// Returns the student-facing paper without correctness data.
func (h *AttemptHandler) GetPaper(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	paper, err := h.attemptService.GetPaper(c.Request.Context(), id)
	if err != nil {
		failFromError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"paper": paper})
}

// AuditAttempt godoc
// GET /api/v1/attempts/:id/audit
// Re-resolves the exam with the stored seed and compares the selection.
func (h *AttemptHandler) AuditAttempt(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	report, err := h.attemptService.Audit(c.Request.Context(), id)
	if err != nil {
		failFromError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"audit": report})
}
