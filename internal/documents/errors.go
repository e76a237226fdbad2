package documents

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedType = errors.New("unsupported document type")
	ErrTooLarge        = errors.New("document too large")
)

// TooLargeError reports the ceiling a document exceeded.
type TooLargeError struct {
	Limit int64
	Size  int64
}

func (e *TooLargeError) Error() string {
	if e.Size <= 0 {
		return fmt.Sprintf("document too large: exceeds limit of %d bytes", e.Limit)
	}
	return fmt.Sprintf("document too large: %d bytes exceeds limit of %d bytes", e.Size, e.Limit)
}

func (e *TooLargeError) Is(target error) bool {
	return target == ErrTooLarge
}

// LimitMiB returns the ceiling in whole mebibytes.
func (e *TooLargeError) LimitMiB() int64 {
	return e.Limit >> 20
}

// UserMessage renders validation failures the way they are shown to people.
func UserMessage(err error) string {
	var tooLarge *TooLargeError
	switch {
	case errors.As(err, &tooLarge):
		return fmt.Sprintf("File too large. Please use files smaller than %dMB.", tooLarge.LimitMiB())
	case errors.Is(err, ErrUnsupportedType):
		return "Please upload a PDF or Word document (.pdf, .docx, .doc)"
	default:
		return ""
	}
}
