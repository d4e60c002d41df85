package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound         ErrCode = "NOT_FOUND"
	ErrDependencyExists ErrCode = "DEPENDENCY_EXISTS"

	// ─── Question selection ────────────────────────────────────────────
	ErrQuestionNotFound     ErrCode = "QUESTION_NOT_FOUND"
	ErrQuestionNotPublished ErrCode = "QUESTION_NOT_PUBLISHED"
	ErrSectionEmpty         ErrCode = "SECTION_EMPTY"
	ErrSectionUnderfilled   ErrCode = "SECTION_UNDERFILLED"
	ErrProviderUnknown      ErrCode = "PROVIDER_UNKNOWN"

	// ─── Exam-specific ─────────────────────────────────────────────────
	ErrExamNotReady     ErrCode = "EXAM_NOT_READY"
	ErrExamNotPublished ErrCode = "EXAM_NOT_PUBLISHED"
	ErrExamNotDraft     ErrCode = "EXAM_NOT_DRAFT"
	ErrNoSections       ErrCode = "NO_SECTIONS"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrRepositoryUnavailable ErrCode = "REPOSITORY_UNAVAILABLE"
	ErrInternal              ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid ID format."
	case ErrInvalidPayload:
		return "Invalid request payload."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Resource not found."
	case ErrDependencyExists:
		return "The resource cannot be deleted because other data still references it."

	// ─── Question selection ────────────────────────────────────────────
	case ErrQuestionNotFound:
		return "A referenced question does not exist."
	case ErrQuestionNotPublished:
		return "A referenced question is not published."
	case ErrSectionEmpty:
		return "A section declares neither questions nor a quota."
	case ErrSectionUnderfilled:
		return "Not enough published questions match a section."
	case ErrProviderUnknown:
		return "The provider is not part of any known alias group."

	// ─── Exam-specific ─────────────────────────────────────────────────
	case ErrExamNotReady:
		return "The exam cannot be assembled from the current question bank."
	case ErrExamNotPublished:
		return "This exam is not published."
	case ErrExamNotDraft:
		return "This exam is not in DRAFT status."
	case ErrNoSections:
		return "This exam has no sections."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrRepositoryUnavailable:
		return "The question repository is temporarily unavailable."
	case ErrInternal:
		return "Internal server error."
	default:
		return "An unexpected error occurred."
	}
}
