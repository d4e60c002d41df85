package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/lidtrainer/examcore/internal/composition"
	"github.com/lidtrainer/examcore/internal/repository"
	"github.com/lidtrainer/examcore/internal/response"
	"github.com/lidtrainer/examcore/internal/service"
	"github.com/rs/zerolog"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code string `json:"code"`
	} `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return env
}

func TestFailFromError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   response.ErrCode
	}{
		{"not ready", &service.NotReadyError{}, http.StatusUnprocessableEntity, response.ErrExamNotReady},
		{"not found", fmt.Errorf("get exam: %w", repository.ErrNotFound), http.StatusNotFound, response.ErrNotFound},
		{"question not found", composition.ErrQuestionNotFound, http.StatusNotFound, response.ErrQuestionNotFound},
		{"in use", repository.ErrInUse, http.StatusConflict, response.ErrDependencyExists},
		{"not draft", service.ErrExamNotDraft, http.StatusConflict, response.ErrExamNotDraft},
		{"not published", service.ErrExamNotPublished, http.StatusConflict, response.ErrExamNotPublished},
		{"no sections", service.ErrNoSections, http.StatusUnprocessableEntity, response.ErrNoSections},
		{"repository", fmt.Errorf("count: %w", composition.ErrRepositoryUnavailable), http.StatusServiceUnavailable, response.ErrRepositoryUnavailable},
		{"other", errors.New("boom"), http.StatusInternalServerError, response.ErrInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			failFromError(c, zerolog.Nop(), tt.err)

			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d", w.Code, tt.status)
			}
			env := decode(t, w)
			if env.Error == nil || env.Error.Code != string(tt.code) {
				t.Fatalf("error = %+v, want %s", env.Error, tt.code)
			}
		})
	}
}

func TestNotReadyCarriesSections(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", nil)

	failFromError(c, zerolog.Nop(), &service.NotReadyError{Sections: []*composition.SectionReport{{
		SectionIndex: 0,
		Status:       composition.SectionInsufficient,
		Code:         composition.CodeSectionUnderfilled,
		Required:     5,
		Available:    2,
	}}})

	var data struct {
		Sections []struct {
			Code      string `json:"code"`
			Required  int    `json:"required"`
			Available int    `json:"available"`
		} `json:"sections"`
	}
	if err := json.Unmarshal(decode(t, w).Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if len(data.Sections) != 1 || data.Sections[0].Code != composition.CodeSectionUnderfilled ||
		data.Sections[0].Required != 5 || data.Sections[0].Available != 2 {
		t.Fatalf("sections = %+v", data.Sections)
	}
}

func TestInvalidIDRejected(t *testing.T) {
	h := NewExamHandler(nil, zerolog.Nop())
	r := gin.New()
	r.GET("/exams/:id", h.GetExam)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/exams/not-a-uuid", nil))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	if env := decode(t, w); env.Error == nil || env.Error.Code != string(response.ErrInvalidID) {
		t.Fatalf("error = %+v", env.Error)
	}
}

func TestListProviders(t *testing.T) {
	aliases := composition.NewAliasResolver([]string{"BAMF", "Bundesamt"})
	h := NewMaintenanceHandler(nil, aliases, zerolog.Nop())
	r := gin.New()
	r.GET("/providers", h.ListProviders)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/providers", nil))

	var data struct {
		Providers []struct {
			Canonical string   `json:"canonical"`
			Aliases   []string `json:"aliases"`
		} `json:"providers"`
	}
	if err := json.Unmarshal(decode(t, w).Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if len(data.Providers) != 1 || data.Providers[0].Canonical != "BAMF" || len(data.Providers[0].Aliases) != 2 {
		t.Fatalf("providers = %+v", data.Providers)
	}
}
