package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lidtrainer/examcore/internal/composition"
	"github.com/lidtrainer/examcore/internal/repository"
	"github.com/lidtrainer/examcore/internal/response"
	"github.com/lidtrainer/examcore/internal/service"
	"github.com/rs/zerolog"
)

// failFromError maps a service error onto the API error envelope.
func failFromError(c *gin.Context, log zerolog.Logger, err error) {
	var notReady *service.NotReadyError
	switch {
	case errors.As(err, &notReady):
		response.FailWithData(c, http.StatusUnprocessableEntity, response.ErrExamNotReady,
			gin.H{"sections": notReady.Sections})
	case errors.Is(err, repository.ErrNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, composition.ErrQuestionNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrQuestionNotFound)
	case errors.Is(err, repository.ErrInUse):
		response.Fail(c, http.StatusConflict, response.ErrDependencyExists)
	case errors.Is(err, service.ErrExamNotDraft):
		response.Fail(c, http.StatusConflict, response.ErrExamNotDraft)
	case errors.Is(err, service.ErrExamNotPublished):
		response.Fail(c, http.StatusConflict, response.ErrExamNotPublished)
	case errors.Is(err, service.ErrNoSections):
		response.Fail(c, http.StatusUnprocessableEntity, response.ErrNoSections)
	case errors.Is(err, composition.ErrRepositoryUnavailable):
		log.Error().Err(err).Str("path", c.FullPath()).Msg("Question repository unavailable")
		response.Fail(c, http.StatusServiceUnavailable, response.ErrRepositoryUnavailable)
	default:
		log.Error().Err(err).Str("path", c.FullPath()).Msg("Request failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
