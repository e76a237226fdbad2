package extract

import (
	"context"
	"time"

	"ats-checker/internal/documents"
	"ats-checker/internal/shared/metrics"
	"ats-checker/internal/shared/telemetry"
)

// Extractor turns document bytes into an Outcome.
type Extractor interface {
	Extract(ctx context.Context, data []byte, mimeType string) (Outcome, error)
}

// Router dispatches documents to the extractor for their type.
type Router struct {
	PDF  Extractor
	Word Extractor
}

func NewRouter(opts PDFOptions) *Router {
	return &Router{PDF: NewPDFExtractor(opts), Word: NewWordExtractor()}
}

// For returns the extractor for a normalized MIME type.
func (r *Router) For(mimeType string) (Extractor, error) {
	switch {
	case mimeType == documents.MimePDF:
		return r.PDF, nil
	case documents.IsWordType(mimeType):
		return r.Word, nil
	default:
		return nil, newError(ErrUnsupportedType, mimeType, nil)
	}
}

// Extract runs the matching extractor and records the result.
func (r *Router) Extract(ctx context.Context, doc documents.Document) (Outcome, error) {
	ex, err := r.For(doc.MimeType)
	if err != nil {
		return Outcome{}, err
	}

	start := time.Now()
	out, err := ex.Extract(ctx, doc.Data, doc.MimeType)
	metrics.ObserveExtractionDuration(time.Since(start))
	if err != nil {
		if ctx.Err() == nil {
			metrics.IncExtractionFailure(Code(err))
		}
		telemetry.Warn("extract.failed", map[string]any{
			"file_name": doc.FileName,
			"mime_type": doc.MimeType,
			"code":      Code(err),
			"err":       err,
		})
		return Outcome{}, err
	}

	metrics.IncExtractionOutcome(string(out.Kind))
	telemetry.Info("extract.done", map[string]any{
		"file_name":  doc.FileName,
		"mime_type":  doc.MimeType,
		"kind":       string(out.Kind),
		"text_chars": len(out.Text),
		"preview":    out.Preview(100),
	})
	return out, nil
}
