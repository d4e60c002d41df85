package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lidtrainer/examcore/internal/composition"
	"github.com/lidtrainer/examcore/internal/model"
	"github.com/lidtrainer/examcore/internal/response"
	"github.com/lidtrainer/examcore/internal/service"
	"github.com/lidtrainer/examcore/internal/validator"
	"github.com/rs/zerolog"
)

// ExamHandler handles exam management endpoints.
type ExamHandler struct {
	examService *service.ExamService
	log         zerolog.Logger
}

// NewExamHandler creates a new ExamHandler.
func NewExamHandler(examService *service.ExamService, log zerolog.Logger) *ExamHandler {
	return &ExamHandler{
		examService: examService,
		log:         log.With().Str("component", "exam_handler").Logger(),
	}
}

// ListExams godoc
// GET /api/v1/exams
// Lists exams with pagination, optionally filtered by ?status=.
func (h *ExamHandler) ListExams(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "10"))
	status := model.ExamStatus(c.Query("status"))

	exams, pagination, err := h.examService.List(c.Request.Context(), status, page, perPage)
	if err != nil {
		failFromError(c, h.log, err)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"exams": exams}, pagination)
}

// CreateExam godoc
// POST /api/v1/exams
// Creates a new draft exam, optionally with its sections.
func (h *ExamHandler) CreateExam(c *gin.Context) {
	var req model.CreateExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	exam, err := h.examService.Create(c.Request.Context(), &req)
	if err != nil {
		failFromError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"exam": exam})
}

// GetExam godoc
// GET /api/v1/exams/:id
func (h *ExamHandler) GetExam(c *gin.Context) {
	examID, ok := parseID(c)
	if !ok {
		return
	}

	exam, err := h.examService.GetByID(c.Request.Context(), examID)
	if err != nil {
		failFromError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"exam": exam})
}

// UpdateExam godoc
// PUT /api/v1/exams/:id
// Updates the header of a draft exam.
func (h *ExamHandler) UpdateExam(c *gin.Context) {
	examID, ok := parseID(c)
	if !ok {
		return
	}

	var req model.UpdateExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	exam, err := h.examService.Update(c.Request.Context(), examID, &req)
	if err != nil {
		failFromError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"exam": exam})
}

// ReplaceSections godoc
// PUT /api/v1/exams/:id/sections
// Replaces all sections of a draft exam.
func (h *ExamHandler) ReplaceSections(c *gin.Context) {
	examID, ok := parseID(c)
	if !ok {
		return
	}

	var req model.ReplaceSectionsRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	exam, err := h.examService.ReplaceSections(c.Request.Context(), examID, req.Sections)
	if err != nil {
		failFromError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"exam": exam})
}

// DeleteExam godoc
// DELETE /api/v1/exams/:id
func (h *ExamHandler) DeleteExam(c *gin.Context) {
	examID, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.examService.Delete(c.Request.Context(), examID); err != nil {
		failFromError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "Exam deleted"})
}

// PublishExam godoc
// POST /api/v1/exams/:id/publish
// Publishes a draft exam if every section can currently be satisfied.
// Otherwise responds EXAM_NOT_READY with the per-section report.
func (h *ExamHandler) PublishExam(c *gin.Context) {
	examID, ok := parseID(c)
	if !ok {
		return
	}

	report, err := h.examService.Publish(c.Request.Context(), examID)
	if err != nil {
		failFromError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"readiness": report})
}

// GetReadiness godoc
// GET /api/v1/exams/:id/readiness
// Returns the readiness report; ?fresh=true bypasses the cache.
func (h *ExamHandler) GetReadiness(c *gin.Context) {
	examID, ok := parseID(c)
	if !ok {
		return
	}

	var (
		report *composition.ExamReport
		err    error
	)
	ctx := c.Request.Context()
	if c.Query("fresh") == "true" {
		report, err = h.examService.CheckByID(ctx, examID)
	} else {
		report, err = h.examService.Readiness(ctx, examID)
	}
	if err != nil {
		failFromError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"readiness": report})
}

// parseID reads the :id path parameter, responding INVALID_ID on failure.
func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return uuid.Nil, false
	}
	return id, true
}
