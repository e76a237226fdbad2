package extract

import (
	"errors"
	"fmt"
)

var (
	ErrTimeout           = errors.New("pdf processing timeout")
	ErrCorrupted         = errors.New("corrupted or invalid document")
	ErrPasswordProtected = errors.New("password-protected document")
	ErrOpenFailed        = errors.New("document open failed")
	ErrEmptyDocument     = errors.New("empty document")
	ErrConversionFailed  = errors.New("word conversion failed")
	ErrUnsupportedType   = errors.New("no extractor for document type")
)

// Error is an extraction failure. Kind is one of the sentinel errors above.
type Error struct {
	Kind   error
	Detail string
	Err    error
}

func newError(kind error, detail string, cause error) *Error {
	return &Error{Kind: kind, Detail: detail, Err: cause}
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *Error) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// Code is the stable machine-readable name of the failure kind.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrPasswordProtected):
		return "password_protected"
	case errors.Is(err, ErrCorrupted):
		return "corrupted"
	case errors.Is(err, ErrEmptyDocument):
		return "empty_document"
	case errors.Is(err, ErrConversionFailed):
		return "conversion_failed"
	case errors.Is(err, ErrOpenFailed):
		return "open_failed"
	case errors.Is(err, ErrUnsupportedType):
		return "unsupported_type"
	default:
		return "extraction_failed"
	}
}

// UserMessage returns the message shown for an extraction failure. Every
// kind has its own wording.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrTimeout):
		return "PDF processing took too long. The file might be too large or complex. Please try a smaller file or convert to Word format."
	case errors.Is(err, ErrPasswordProtected):
		return "This PDF is password-protected. Please remove the password and try again."
	case errors.Is(err, ErrCorrupted):
		return "This file appears to be corrupted or not a valid PDF. Please try a different file."
	case errors.Is(err, ErrEmptyDocument):
		return "No text content was found in this document. Please try a different file."
	case errors.Is(err, ErrConversionFailed):
		return "Error processing Word document. Please try a different file or convert to PDF."
	case errors.Is(err, ErrOpenFailed):
		var extractErr *Error
		detail := "unknown error"
		if errors.As(err, &extractErr) && extractErr.Detail != "" {
			detail = extractErr.Detail
		}
		return fmt.Sprintf("PDF processing failed: %s. Please try a different file or convert to Word format.", detail)
	case errors.Is(err, ErrUnsupportedType):
		return "Please upload a PDF or Word document (.pdf, .docx, .doc)"
	default:
		return "Document processing failed. Please try again with a different file."
	}
}
