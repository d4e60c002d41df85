package model

import (
	"time"

	"github.com/google/uuid"
)

// ExamStatus enumerates the possible states of an exam.
type ExamStatus string

const (
	ExamStatusDraft     ExamStatus = "draft"
	ExamStatusPublished ExamStatus = "published"
)

// Exam represents an exam composed of ordered sections.
type Exam struct {
	ID        uuid.UUID  `json:"id"`
	Title     string     `json:"title"`
	Provider  string     `json:"provider"`
	Level     string     `json:"level"`
	Status    ExamStatus `json:"status"`
	Sections  []Section  `json:"sections"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// SectionItem is an explicit question reference inside an item-based section.
type SectionItem struct {
	QuestionID uuid.UUID `json:"question_id"`
	Points     int       `json:"points"`
}

// Section is either item-based (Items) or quota-based (Quota + Tags).
// Level, Provider and State override the exam defaults when set.
type Section struct {
	ID       int64         `json:"id"`
	Position int           `json:"position"`
	Title    string        `json:"title,omitempty"`
	Items    []SectionItem `json:"items,omitempty"`
	Quota    int           `json:"quota,omitempty"`
	Tags     []string      `json:"tags,omitempty"`
	Level    string        `json:"level,omitempty"`
	Provider string        `json:"provider,omitempty"`
	State    string        `json:"state,omitempty"`
}

// SectionKind tells how a section is populated.
type SectionKind string

const (
	SectionKindItems SectionKind = "items"
	SectionKindQuota SectionKind = "quota"
)

// Kind returns the section kind. An explicit item list wins over a quota.
func (s *Section) Kind() SectionKind {
	if len(s.Items) > 0 {
		return SectionKindItems
	}
	return SectionKindQuota
}

// IsEmpty reports whether the section declares neither items nor a positive quota.
func (s *Section) IsEmpty() bool {
	return len(s.Items) == 0 && s.Quota <= 0
}

// ExamDefaults are the exam-level values a section inherits.
type ExamDefaults struct {
	Level    string
	Provider string
}

// Defaults returns the exam-level defaults for its sections.
func (e *Exam) Defaults() ExamDefaults {
	return ExamDefaults{Level: e.Level, Provider: e.Provider}
}

// SectionItemRequest is a single question reference in a section payload.
type SectionItemRequest struct {
	QuestionID uuid.UUID `json:"question_id" binding:"required"`
	Points     int       `json:"points" binding:"min=0,max=100"`
}

// SectionRequest is the payload describing one section.
type SectionRequest struct {
	Title    string               `json:"title" binding:"omitempty,max=255"`
	Items    []SectionItemRequest `json:"items" binding:"omitempty,dive"`
	Quota    int                  `json:"quota" binding:"min=0,max=500,excluded_with=Items"`
	Tags     []string             `json:"tags" binding:"omitempty,excluded_with=Items,dive,min=1,max=100"`
	Level    string               `json:"level" binding:"omitempty,cefr"`
	Provider string               `json:"provider" binding:"omitempty,max=100"`
	State    string               `json:"state" binding:"omitempty,max=10"`
}

// CreateExamRequest is the payload for creating a new exam.
type CreateExamRequest struct {
	Title    string           `json:"title" binding:"required,min=3,max=255"`
	Provider string           `json:"provider" binding:"omitempty,max=100"`
	Level    string           `json:"level" binding:"omitempty,cefr"`
	Sections []SectionRequest `json:"sections" binding:"omitempty,dive"`
}

// UpdateExamRequest is the payload for updating a draft exam.
type UpdateExamRequest struct {
	Title    string `json:"title" binding:"omitempty,min=3,max=255"`
	Provider string `json:"provider" binding:"omitempty,max=100"`
	Level    string `json:"level" binding:"omitempty,cefr"`
}

// ReplaceSectionsRequest is the payload for replacing all sections of a draft exam.
type ReplaceSectionsRequest struct {
	Sections []SectionRequest `json:"sections" binding:"dive"`
}

// ToSections converts section payloads into positioned sections.
func ToSections(reqs []SectionRequest) []Section {
	sections := make([]Section, len(reqs))
	for i, r := range reqs {
		items := make([]SectionItem, len(r.Items))
		for j, it := range r.Items {
			items[j] = SectionItem{QuestionID: it.QuestionID, Points: it.Points}
		}
		sections[i] = Section{
			Position: i,
			Title:    r.Title,
			Items:    items,
			Quota:    r.Quota,
			Tags:     r.Tags,
			Level:    r.Level,
			Provider: r.Provider,
			State:    r.State,
		}
	}
	return sections
}
