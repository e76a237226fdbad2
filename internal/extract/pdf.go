package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ats-checker/internal/shared/telemetry"
)

// PDFOptions tunes PDF extraction.
type PDFOptions struct {
	Timeout             time.Duration
	PartialFailureShare float64
	Workers             int
}

const (
	defaultPDFTimeout   = 45 * time.Second
	defaultPartialShare = 0.5
	defaultPDFWorkers   = 4
)

// PDFExtractor extracts text page by page under an overall deadline.
type PDFExtractor struct {
	opts     PDFOptions
	primary  pdfOpener
	fallback pdfOpener
}

func NewPDFExtractor(opts PDFOptions) *PDFExtractor {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultPDFTimeout
	}
	if opts.PartialFailureShare <= 0 || opts.PartialFailureShare >= 1 {
		opts.PartialFailureShare = defaultPartialShare
	}
	if opts.Workers <= 0 {
		opts.Workers = defaultPDFWorkers
	}
	return &PDFExtractor{
		opts:     opts,
		primary:  workerOpener{workers: opts.Workers},
		fallback: syncOpener{},
	}
}

type pdfRun struct {
	outcome Outcome
	err     error
}

// Extract races the extraction against the configured timeout. A result
// that arrives after the deadline is dropped.
func (e *PDFExtractor) Extract(ctx context.Context, data []byte, _ string) (Outcome, error) {
	runCtx, cancel := context.WithTimeout(ctx, e.opts.Timeout)
	defer cancel()

	done := make(chan pdfRun, 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				done <- pdfRun{err: newError(ErrCorrupted, "", fmt.Errorf("%w: %v", errMalformed, rec))}
			}
		}()
		out, err := e.run(runCtx, data)
		done <- pdfRun{outcome: out, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil && errors.Is(res.err, context.DeadlineExceeded) && ctx.Err() == nil {
			return Outcome{}, e.timeoutError()
		}
		return res.outcome, res.err
	case <-runCtx.Done():
		if err := ctx.Err(); err != nil {
			return Outcome{}, err
		}
		return Outcome{}, e.timeoutError()
	}
}

func (e *PDFExtractor) timeoutError() error {
	return newError(ErrTimeout, fmt.Sprintf("no result after %s", e.opts.Timeout), context.DeadlineExceeded)
}

func (e *PDFExtractor) run(ctx context.Context, data []byte) (Outcome, error) {
	opened := openDocument(ctx, data, e.primary, e.fallback)
	if opened.err != nil {
		if ctx.Err() != nil {
			return Outcome{}, ctx.Err()
		}
		return Outcome{}, classifyOpenError(opened.err)
	}
	if opened.workerErr != nil {
		telemetry.Warn("extract.pdf.worker_fallback", map[string]any{"err": opened.workerErr})
	}

	total := opened.doc.NumPages()
	if total == 0 {
		return Outcome{}, newError(ErrEmptyDocument, "pdf has no pages", nil)
	}

	pages := make([]pageResult, 0, total)
	for n := 1; n <= total; n++ {
		if err := ctx.Err(); err != nil {
			return Outcome{}, err
		}
		fragments, err := opened.doc.PageFragments(ctx, n)
		if err != nil {
			telemetry.Debug("extract.pdf.page_failed", map[string]any{"page": n, "err": err})
		}
		pages = append(pages, pageResult{number: n, fragments: fragments, err: err})
	}

	out := classifyPages(pages, e.opts.PartialFailureShare)
	telemetry.Info("extract.pdf.done", map[string]any{
		"kind":       string(out.Kind),
		"open_mode":  string(opened.mode),
		"pages":      out.TotalPages,
		"failed":     out.FailedPages,
		"text_chars": len(out.Text),
	})
	return out, nil
}

type pageResult struct {
	number    int
	fragments []string
	err       error
}

// text joins the page's non-blank fragments with single spaces. ok is false
// for pages that failed or produced no text.
func (p pageResult) text() (string, bool) {
	if p.err != nil {
		return "", false
	}
	parts := make([]string, 0, len(p.fragments))
	for _, f := range p.fragments {
		if strings.TrimSpace(f) != "" {
			parts = append(parts, f)
		}
	}
	if len(parts) == 0 {
		return "", false
	}
	return strings.Join(parts, " "), true
}

// classifyPages accumulates page text in page order. Pages without text
// count as failed.
func classifyPages(pages []pageResult, partialShare float64) Outcome {
	out := Outcome{TotalPages: len(pages)}
	var b strings.Builder
	for _, p := range pages {
		text, ok := p.text()
		if !ok {
			out.FailedPages++
			continue
		}
		b.WriteString(text)
		b.WriteString("\n")
		out.SuccessfulPages++
	}
	out.Text = b.String()

	switch {
	case strings.TrimSpace(out.Text) == "":
		out.Kind = KindScannedNoText
		out.Text = ScannedPlaceholder
	case float64(out.FailedPages) > partialShare*float64(out.TotalPages):
		out.Kind = KindPartialSuccess
	default:
		out.Kind = KindSuccess
	}
	return out
}
