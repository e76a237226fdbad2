package extract

import (
	"fmt"
	"strings"
)

// Kind classifies a completed extraction.
type Kind string

const (
	KindSuccess        Kind = "success"
	KindPartialSuccess Kind = "partial_success"
	KindScannedNoText  Kind = "scanned_no_text"
)

// ScannedPlaceholder stands in for the text of an image-only PDF.
const ScannedPlaceholder = "PDF uploaded (scanned/image-based document - no text content available for analysis)"

// Outcome is a completed extraction. Failures are returned as errors instead.
// Page counts are zero for formats without pages.
type Outcome struct {
	Kind            Kind
	Text            string
	SuccessfulPages int
	FailedPages     int
	TotalPages      int
}

// Degraded reports whether the outcome should be flagged as a likely scan.
func (o Outcome) Degraded() bool {
	return o.Kind == KindPartialSuccess || o.Kind == KindScannedNoText
}

// Analyzable reports whether the outcome carries real document text.
func (o Outcome) Analyzable() bool {
	return o.Kind != KindScannedNoText && strings.TrimSpace(o.Text) != ""
}

// Notice is the caller-facing note for degraded outcomes.
func (o Outcome) Notice() string {
	switch o.Kind {
	case KindScannedNoText:
		return "This appears to be a scanned document. For best ATS results, consider using a text-based PDF or converting to Word format."
	case KindPartialSuccess:
		return fmt.Sprintf("PDF uploaded (partial text extracted from %d/%d pages - limited analysis available)", o.SuccessfulPages, o.TotalPages)
	default:
		return ""
	}
}

// Preview returns at most limit runes of the text, with an ellipsis when cut.
func (o Outcome) Preview(limit int) string {
	runes := []rune(o.Text)
	if len(runes) <= limit {
		return o.Text
	}
	return string(runes[:limit]) + "..."
}
