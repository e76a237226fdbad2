package session

import (
	"errors"

	"ats-checker/internal/analyses"
	"ats-checker/internal/documents"
	"ats-checker/internal/extract"
	"ats-checker/internal/llm"
)

var (
	ErrBusy             = errors.New("an operation is already in progress")
	ErrNotReady         = errors.New("no extracted document to analyze")
	ErrNothingToAnalyze = errors.New("document has no text to analyze")
	ErrNotFound         = errors.New("session not found")
)

// Stage names the step an error came from.
type Stage string

const (
	StageValidation Stage = "validation"
	StageExtraction Stage = "extraction"
	StageAnalysis   Stage = "analysis"
)

// ErrorInfo is the caller-facing description of a failure.
type ErrorInfo struct {
	Stage   Stage  `json:"stage"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func describe(stage Stage, err error) *ErrorInfo {
	return &ErrorInfo{Stage: stage, Code: ErrorCode(err), Message: UserMessage(err)}
}

// ErrorCode maps any error a session can produce to a stable code.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrBusy):
		return "busy"
	case errors.Is(err, ErrNotReady):
		return "not_ready"
	case errors.Is(err, ErrNothingToAnalyze):
		return "nothing_to_analyze"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, documents.ErrUnsupportedType), errors.Is(err, extract.ErrUnsupportedType):
		return "unsupported_type"
	case errors.Is(err, documents.ErrTooLarge):
		return "too_large"
	case errors.Is(err, analyses.ErrJobTitleRequired), errors.Is(err, analyses.ErrCVTextRequired):
		return "validation_error"
	case errors.Is(err, llm.ErrInvalidCredential):
		return "invalid_credential"
	case errors.Is(err, llm.ErrMissingCredential):
		return "configuration_error"
	case errors.Is(err, llm.ErrQuotaExceeded):
		return "quota_exceeded"
	case errors.Is(err, llm.ErrServiceFailure):
		return "analysis_failed"
	default:
		var extractErr *extract.Error
		if errors.As(err, &extractErr) {
			return extract.Code(err)
		}
		return "internal_error"
	}
}

// UserMessage returns the message shown for any session error.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrBusy):
		return "Please wait for the current operation to finish."
	case errors.Is(err, ErrNotReady):
		return "Please upload a CV first."
	case errors.Is(err, ErrNothingToAnalyze):
		return "This appears to be a scanned document with no extractable text. Please upload a text-based PDF or a Word document."
	case errors.Is(err, ErrNotFound):
		return "Session not found."
	case errors.Is(err, analyses.ErrJobTitleRequired):
		return "Please enter a job title."
	case errors.Is(err, analyses.ErrCVTextRequired):
		return "Please upload a CV first."
	case errors.Is(err, documents.ErrUnsupportedType), errors.Is(err, documents.ErrTooLarge):
		return documents.UserMessage(err)
	case errors.Is(err, llm.ErrMissingCredential),
		errors.Is(err, llm.ErrQuotaExceeded),
		errors.Is(err, llm.ErrServiceFailure):
		return llm.UserMessage(err)
	default:
		var extractErr *extract.Error
		if errors.As(err, &extractErr) {
			return extract.UserMessage(err)
		}
		return "Something went wrong. Please try again."
	}
}
