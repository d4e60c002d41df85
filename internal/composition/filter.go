package composition

import (
	"fmt"
	"strings"

	"github.com/lidtrainer/examcore/internal/model"
)

// Filter describes which questions may fill a section. Build it with
// BuildFilter and treat it as a value: methods never modify the receiver.
// Empty fields impose no constraint, except Status which is always set.
type Filter struct {
	Status    model.QuestionStatus `json:"status"`
	Level     string               `json:"level,omitempty"`
	Providers []string             `json:"providers,omitempty"`
	Tags      []string             `json:"tags,omitempty"`
	State     string               `json:"state,omitempty"`
}

// BuildFilter translates a section requirement plus the exam defaults into a
// Filter. Section values override exam values. It never fails.
func BuildFilter(sec model.Section, def model.ExamDefaults, aliases *AliasResolver) Filter {
	f := Filter{Status: model.QuestionStatusPublished}

	f.Level = firstNonEmpty(sec.Level, def.Level)
	f.State = strings.TrimSpace(sec.State)

	if provider := firstNonEmpty(sec.Provider, def.Provider); provider != "" {
		f.Providers = aliases.Resolve(provider)
	}

	f.Tags = normalizeTags(sec.Tags)
	return f
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if t := strings.TrimSpace(v); t != "" {
			return t
		}
	}
	return ""
}

// normalizeTags trims, drops blanks and de-duplicates while keeping order.
func normalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// NormalizeTags is the tag clean-up applied to filters, exported for importers.
func NormalizeTags(tags []string) []string {
	return normalizeTags(tags)
}

// HasTags reports whether the filter carries a tag constraint.
func (f Filter) HasTags() bool {
	return len(f.Tags) > 0
}

// WithoutTags returns a copy of f with the tag constraint removed.
func (f Filter) WithoutTags() Filter {
	return Filter{
		Status:    f.Status,
		Level:     f.Level,
		Providers: append([]string(nil), f.Providers...),
		State:     f.State,
	}
}

// Matches evaluates the filter against a single question in memory.
func (f Filter) Matches(q *model.Question) bool {
	if q.Status != f.Status {
		return false
	}
	if f.Level != "" && q.Level != f.Level {
		return false
	}
	if f.State != "" && q.State != f.State {
		return false
	}
	if len(f.Providers) > 0 && !containsString(f.Providers, q.Provider) {
		return false
	}
	if len(f.Tags) > 0 {
		for _, t := range q.Tags {
			if containsString(f.Tags, t) {
				return true
			}
		}
		return false
	}
	return true
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// String renders the filter for logs and CLI output.
func (f Filter) String() string {
	parts := []string{"status=" + string(f.Status)}
	if f.Level != "" {
		parts = append(parts, "level="+f.Level)
	}
	if f.State != "" {
		parts = append(parts, "state="+f.State)
	}
	if len(f.Providers) > 0 {
		parts = append(parts, fmt.Sprintf("provider∈{%s}", strings.Join(f.Providers, ",")))
	}
	if len(f.Tags) > 0 {
		parts = append(parts, fmt.Sprintf("tags∩{%s}", strings.Join(f.Tags, ",")))
	}
	return strings.Join(parts, " ")
}
