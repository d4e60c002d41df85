package model

import (
	"time"

	"github.com/google/uuid"
)

// AttemptStatus enumerates attempt states.
type AttemptStatus string

const (
	AttemptStatusInProgress AttemptStatus = "in_progress"
	AttemptStatusSubmitted  AttemptStatus = "submitted"
)

// Attempt is a student's run through an exam with an immutable item snapshot.
type Attempt struct {
	ID        uuid.UUID     `json:"id"`
	ExamID    uuid.UUID     `json:"exam_id"`
	StudentID string        `json:"student_id"`
	Seed      int64         `json:"seed"`
	Status    AttemptStatus `json:"status"`
	Items     []AttemptItem `json:"items"`
	CreatedAt time.Time     `json:"created_at"`
}

// AttemptItem is the captured copy of a question at attempt creation time.
// QuestionID is nil once the source question has been deleted.
type AttemptItem struct {
	Position        int          `json:"position"`
	SectionIndex    int          `json:"section_index"`
	QuestionID      *uuid.UUID   `json:"question_id"`
	Points          int          `json:"points"`
	QType           QuestionType `json:"q_type"`
	Prompt          string       `json:"prompt"`
	Options         []Option     `json:"options,omitempty"`
	MatchPairs      []MatchPair  `json:"match_pairs,omitempty"`
	ImageURL        string       `json:"image_url,omitempty"`
	SourceDeletedAt *time.Time   `json:"source_deleted_at,omitempty"`
}

// AttemptPaper is the student-facing view of an attempt (no correctness flags).
type AttemptPaper struct {
	AttemptID uuid.UUID   `json:"attempt_id"`
	ExamID    uuid.UUID   `json:"exam_id"`
	Title     string      `json:"title"`
	Items     []PaperItem `json:"items"`
}

// PaperItem is an attempt item without answers.
type PaperItem struct {
	Position int           `json:"position"`
	QType    QuestionType  `json:"q_type"`
	Prompt   string        `json:"prompt"`
	Options  []PaperOption `json:"options,omitempty"`
	Left     []string      `json:"left,omitempty"`
	Right    []string      `json:"right,omitempty"`
	ImageURL string        `json:"image_url,omitempty"`
	Points   int           `json:"points"`
}

// PaperOption is an option without its correctness flag.
type PaperOption struct {
	Key  string `json:"key"`
	Text string `json:"text"`
}

// StartAttemptRequest is the payload for starting an attempt.
type StartAttemptRequest struct {
	StudentID string `json:"student_id" binding:"required,min=1,max=100"`
}
