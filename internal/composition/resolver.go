package composition

import (
	"bytes"
	"context"
	"errors"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/lidtrainer/examcore/internal/model"
	"golang.org/x/sync/errgroup"
)

// SectionStatus is the outcome of resolving or inspecting one section.
type SectionStatus string

const (
	SectionOK           SectionStatus = "ok"
	SectionInsufficient SectionStatus = "insufficient"
	SectionEmpty        SectionStatus = "empty"
)

// ItemFailure reports one listed question that cannot be used.
type ItemFailure struct {
	QuestionID uuid.UUID `json:"question_id"`
	Reason     string    `json:"reason"`
}

// Selection is a question chosen for a section together with its points.
type Selection struct {
	Question model.Question
	Points   int
}

// SectionReport is the full result of resolving or inspecting a section.
// Selected is only populated by Resolve and only when Status is SectionOK.
type SectionReport struct {
	SectionIndex         int               `json:"section_index"`
	Kind                 model.SectionKind `json:"kind"`
	Status               SectionStatus     `json:"status"`
	Code                 string            `json:"code,omitempty"`
	Required             int               `json:"required"`
	Available            int               `json:"available"`
	AvailableWithoutTags *int              `json:"available_without_tags,omitempty"`
	FilterUsed           *Filter           `json:"filter_used,omitempty"`
	ProviderUnknown      bool              `json:"provider_unknown,omitempty"`
	Failures             []ItemFailure     `json:"failures,omitempty"`
	Selected             []Selection       `json:"-"`
}

// OK reports whether the section can be used as is.
func (r *SectionReport) OK() bool {
	return r.Status == SectionOK
}

// ExamResolution is the result of resolving every section of an exam.
type ExamResolution struct {
	Seed     int64            `json:"seed"`
	Sections []*SectionReport `json:"sections"`
}

// Ready reports whether every section resolved.
func (r *ExamResolution) Ready() bool {
	for _, s := range r.Sections {
		if !s.OK() {
			return false
		}
	}
	return true
}

// Resolver turns section requirements into concrete question selections.
// It reports data problems in SectionReport and only returns errors for
// repository failures.
type Resolver struct {
	store   QuestionStore
	aliases *AliasResolver
	timeout time.Duration
}

// NewResolver creates a Resolver. A positive timeout bounds each exam-wide
// resolution; exceeding it surfaces as ErrRepositoryUnavailable.
func NewResolver(store QuestionStore, aliases *AliasResolver, timeout time.Duration) *Resolver {
	return &Resolver{store: store, aliases: aliases, timeout: timeout}
}

// Aliases returns the provider alias resolver in use.
func (r *Resolver) Aliases() *AliasResolver {
	return r.aliases
}

// SectionRand returns the deterministic random source for section index of
// an attempt with the given seed.
func SectionRand(seed int64, index int) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(seed), uint64(index)))
}

// Resolve resolves one section, sampling quota sections with rng.
func (r *Resolver) Resolve(ctx context.Context, index int, sec model.Section, def model.ExamDefaults, rng *rand.Rand) (*SectionReport, error) {
	return r.resolve(ctx, index, sec, def, rng, false)
}

// Inspect resolves one section in dry mode: counts only, nothing is sampled.
func (r *Resolver) Inspect(ctx context.Context, index int, sec model.Section, def model.ExamDefaults) (*SectionReport, error) {
	return r.resolve(ctx, index, sec, def, nil, true)
}

// ResolveExam resolves all sections of exam concurrently with the given seed.
// The selection depends only on the seed and the repository contents.
func (r *Resolver) ResolveExam(ctx context.Context, exam *model.Exam, seed int64) (*ExamResolution, error) {
	reports, err := r.forEachSection(ctx, exam, func(gctx context.Context, i int, sec model.Section) (*SectionReport, error) {
		return r.Resolve(gctx, i, sec, exam.Defaults(), SectionRand(seed, i))
	})
	if err != nil {
		return nil, err
	}
	return &ExamResolution{Seed: seed, Sections: reports}, nil
}

func (r *Resolver) forEachSection(
	ctx context.Context,
	exam *model.Exam,
	fn func(ctx context.Context, i int, sec model.Section) (*SectionReport, error),
) ([]*SectionReport, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	reports := make([]*SectionReport, len(exam.Sections))
	g, gctx := errgroup.WithContext(ctx)
	for i := range exam.Sections {
		sec := exam.Sections[i]
		g.Go(func() error {
			rep, err := fn(gctx, i, sec)
			if err != nil {
				return err
			}
			reports[i] = rep
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

func (r *Resolver) resolve(ctx context.Context, index int, sec model.Section, def model.ExamDefaults, rng *rand.Rand, dry bool) (*SectionReport, error) {
	rep := &SectionReport{SectionIndex: index, Kind: sec.Kind()}

	if sec.IsEmpty() {
		rep.Status = SectionEmpty
		rep.Code = CodeSectionEmpty
		return rep, nil
	}

	if rep.Kind == model.SectionKindItems {
		if err := r.resolveItems(ctx, sec, rep, dry); err != nil {
			return nil, err
		}
		return rep, nil
	}

	if err := r.resolveQuota(ctx, sec, def, rep, rng, dry); err != nil {
		return nil, err
	}
	return rep, nil
}

func (r *Resolver) resolveItems(ctx context.Context, sec model.Section, rep *SectionReport, dry bool) error {
	rep.Required = len(sec.Items)
	selected := make([]Selection, 0, len(sec.Items))

	for _, item := range sec.Items {
		q, err := r.store.FindByID(ctx, item.QuestionID)
		switch {
		case errors.Is(err, ErrQuestionNotFound):
			rep.Failures = append(rep.Failures, ItemFailure{QuestionID: item.QuestionID, Reason: CodeQuestionNotFound})
			continue
		case err != nil:
			return unavailable("find question", err)
		}
		if !q.IsPublished() {
			rep.Failures = append(rep.Failures, ItemFailure{QuestionID: item.QuestionID, Reason: CodeQuestionNotPublished})
			continue
		}
		selected = append(selected, Selection{Question: *q, Points: item.Points})
	}

	rep.Available = len(selected)
	if len(rep.Failures) > 0 {
		rep.Status = SectionInsufficient
		return nil
	}
	rep.Status = SectionOK
	if !dry {
		rep.Selected = selected
	}
	return nil
}

func (r *Resolver) resolveQuota(ctx context.Context, sec model.Section, def model.ExamDefaults, rep *SectionReport, rng *rand.Rand, dry bool) error {
	f := BuildFilter(sec, def, r.aliases)
	rep.FilterUsed = &f
	rep.Required = sec.Quota
	if provider := firstNonEmpty(sec.Provider, def.Provider); provider != "" {
		_, known := r.aliases.Lookup(provider)
		rep.ProviderUnknown = !known
	}

	var candidates []model.Question
	if dry {
		n, err := r.store.CountPublishedByFilter(ctx, f)
		if err != nil {
			return unavailable("count candidates", err)
		}
		rep.Available = n
	} else {
		var err error
		candidates, err = r.store.FindPublishedByFilter(ctx, f)
		if err != nil {
			return unavailable("find candidates", err)
		}
		rep.Available = len(candidates)
	}

	if rep.Available < rep.Required {
		rep.Status = SectionInsufficient
		rep.Code = CodeSectionUnderfilled
		relaxed := rep.Available
		if f.HasTags() {
			n, err := r.store.CountPublishedByFilter(ctx, f.WithoutTags())
			if err != nil {
				return unavailable("count without tags", err)
			}
			relaxed = n
		}
		rep.AvailableWithoutTags = &relaxed
		return nil
	}

	rep.Status = SectionOK
	if dry {
		return nil
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	for _, q := range sample(candidates, rep.Required, rng) {
		rep.Selected = append(rep.Selected, Selection{Question: q, Points: 1})
	}
	return nil
}

// sample draws k distinct questions uniformly at random. Candidates are
// ordered by id first so a given rng state always yields the same draw.
func sample(candidates []model.Question, k int, rng *rand.Rand) []model.Question {
	pool := append([]model.Question(nil), candidates...)
	sort.Slice(pool, func(i, j int) bool {
		return bytes.Compare(pool[i].ID[:], pool[j].ID[:]) < 0
	})
	for i := 0; i < k; i++ {
		j := i + rng.IntN(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:k]
}
