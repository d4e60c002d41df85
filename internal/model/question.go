package model

import (
	"time"

	"github.com/google/uuid"
)

// QuestionStatus enumerates the lifecycle states of a question.
type QuestionStatus string

const (
	QuestionStatusDraft     QuestionStatus = "draft"
	QuestionStatusPublished QuestionStatus = "published"
	QuestionStatusArchived  QuestionStatus = "archived"
)

// QuestionType discriminates the type-specific payload of a question.
type QuestionType string

const (
	QuestionTypeMultipleChoice QuestionType = "mcq"
	QuestionTypeMatch          QuestionType = "match"
)

// Option is a single answer choice of a multiple-choice question.
type Option struct {
	Key     string `json:"key"`
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
}

// MatchPair is one left/right pair of a matching question.
type MatchPair struct {
	Left  string `json:"left"`
	Right string `json:"right"`
}

// Question represents a question in the bank.
type Question struct {
	ID          uuid.UUID      `json:"id"`
	Status      QuestionStatus `json:"status"`
	Provider    string         `json:"provider"`
	Level       string         `json:"level"`
	State       string         `json:"state,omitempty"`
	Tags        []string       `json:"tags"`
	QType       QuestionType   `json:"q_type"`
	Prompt      string         `json:"prompt"`
	Options     []Option       `json:"options,omitempty"`
	MatchPairs  []MatchPair    `json:"match_pairs,omitempty"`
	Explanation string         `json:"explanation,omitempty"`
	ImageURL    string         `json:"image_url,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// IsPublished reports whether the question may be used in an exam.
func (q *Question) IsPublished() bool {
	return q.Status == QuestionStatusPublished
}

// QuestionRequest is the payload for creating or updating a question.
type QuestionRequest struct {
	Status      string      `json:"status" binding:"omitempty,oneof=draft published archived"`
	Provider    string      `json:"provider" binding:"required,max=100"`
	Level       string      `json:"level" binding:"omitempty,cefr"`
	State       string      `json:"state" binding:"omitempty,max=10"`
	Tags        []string    `json:"tags" binding:"omitempty,dive,min=1,max=100"`
	QType       string      `json:"q_type" binding:"required,oneof=mcq match"`
	Prompt      string      `json:"prompt" binding:"required,min=1,max=4000"`
	Options     []Option    `json:"options" binding:"required_if=QType mcq,omitempty,min=2,dive"`
	MatchPairs  []MatchPair `json:"match_pairs" binding:"required_if=QType match,omitempty,min=2,dive"`
	Explanation string      `json:"explanation" binding:"omitempty,max=4000"`
	ImageURL    string      `json:"image_url" binding:"omitempty,url"`
}

// ImportQuestionsRequest is the payload for a bulk question import.
type ImportQuestionsRequest struct {
	Questions []QuestionRequest `json:"questions" binding:"required,min=1,dive"`
}

// SetQuestionStatusRequest is the payload for changing a question's status.
type SetQuestionStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=draft published archived"`
}

// QuestionListFilter narrows a paginated question listing.
type QuestionListFilter struct {
	Status    QuestionStatus
	Providers []string
	Level     string
	Tag       string
	Search    string
}
