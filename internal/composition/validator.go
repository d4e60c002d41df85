package composition

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lidtrainer/examcore/internal/model"
)

// ExamReport is the read-only readiness report of an exam.
type ExamReport struct {
	ExamID    uuid.UUID        `json:"exam_id"`
	Title     string           `json:"title"`
	Status    model.ExamStatus `json:"exam_status"`
	Ready     bool             `json:"ready"`
	Sections  []*SectionReport `json:"sections"`
	CheckedAt time.Time        `json:"checked_at"`
}

// Validator computes whether every section of an exam can currently be
// satisfied. It never samples and never writes.
type Validator struct {
	resolver *Resolver
}

// NewValidator creates a Validator on top of a Resolver.
func NewValidator(resolver *Resolver) *Validator {
	return &Validator{resolver: resolver}
}

// Validate inspects all sections of exam.
func (v *Validator) Validate(ctx context.Context, exam *model.Exam) (*ExamReport, error) {
	reports, err := v.resolver.forEachSection(ctx, exam, func(gctx context.Context, i int, sec model.Section) (*SectionReport, error) {
		return v.resolver.Inspect(gctx, i, sec, exam.Defaults())
	})
	if err != nil {
		return nil, err
	}

	ready := true
	for _, r := range reports {
		if !r.OK() {
			ready = false
			break
		}
	}

	return &ExamReport{
		ExamID:    exam.ID,
		Title:     exam.Title,
		Status:    exam.Status,
		Ready:     ready,
		Sections:  reports,
		CheckedAt: time.Now().UTC(),
	}, nil
}
