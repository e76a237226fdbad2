package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"golang.org/x/sync/errgroup"
)

var (
	errMalformed   = errors.New("malformed pdf")
	errPageMissing = errors.New("page object missing")
)

// pdfDocument is an opened PDF whose pages are numbered from 1.
type pdfDocument interface {
	NumPages() int
	PageFragments(ctx context.Context, n int) ([]string, error)
}

type pdfOpener interface {
	Open(ctx context.Context, data []byte) (pdfDocument, error)
}

type openMode string

const (
	openModeWorker openMode = "worker"
	openModeSync   openMode = "sync"
)

type openResult struct {
	doc       pdfDocument
	mode      openMode
	workerErr error
	err       error
}

// openDocument tries the primary strategy first and falls back to the
// secondary one when it fails. err is set only when both fail.
func openDocument(ctx context.Context, data []byte, primary, fallback pdfOpener) openResult {
	doc, err := primary.Open(ctx, data)
	if err == nil {
		return openResult{doc: doc, mode: openModeWorker}
	}
	res := openResult{workerErr: err}
	if ctxErr := ctx.Err(); ctxErr != nil {
		res.err = ctxErr
		return res
	}
	doc, err = fallback.Open(ctx, data)
	if err != nil {
		res.err = err
		return res
	}
	res.doc, res.mode = doc, openModeSync
	return res
}

func classifyOpenError(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "password"), strings.Contains(msg, "encrypt"):
		return newError(ErrPasswordProtected, "", err)
	case errors.Is(err, errMalformed),
		strings.Contains(msg, "invalid pdf"),
		strings.Contains(msg, "not a pdf"),
		strings.Contains(msg, "malformed"),
		strings.Contains(msg, "xref"),
		strings.Contains(msg, "trailer"):
		return newError(ErrCorrupted, "", err)
	default:
		return newError(ErrOpenFailed, err.Error(), err)
	}
}

// syncOpener reads pages lazily through a single reader.
type syncOpener struct{}

func (syncOpener) Open(ctx context.Context, data []byte) (pdfDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r, err := newPDFReader(data)
	if err != nil {
		return nil, err
	}
	total, err := numPages(r)
	if err != nil {
		return nil, err
	}
	return &syncDocument{reader: r, total: total}, nil
}

type syncDocument struct {
	reader *pdf.Reader
	total  int
}

func (d *syncDocument) NumPages() int { return d.total }

func (d *syncDocument) PageFragments(ctx context.Context, n int) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return readPageFragments(d.reader, n)
}

// workerOpener reads all pages up front with a pool of goroutines, each
// holding its own reader. Any worker that cannot build a reader fails the
// whole open.
type workerOpener struct {
	workers int
}

func (o workerOpener) Open(ctx context.Context, data []byte) (pdfDocument, error) {
	first, err := newPDFReader(data)
	if err != nil {
		return nil, err
	}
	total, err := numPages(first)
	if err != nil {
		return nil, err
	}
	pages := make([]pageResult, total)
	workers := o.workers
	if workers > total {
		workers = total
	}

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		w := w
		g.Go(func() error {
			r := first
			if w > 0 {
				var err error
				if r, err = newPDFReader(data); err != nil {
					return fmt.Errorf("worker %d: %w", w, err)
				}
			}
			for n := w + 1; n <= total; n += workers {
				if err := gctx.Err(); err != nil {
					return err
				}
				fragments, err := readPageFragments(r, n)
				pages[n-1] = pageResult{number: n, fragments: fragments, err: err}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &prefetchedDocument{pages: pages}, nil
}

type prefetchedDocument struct {
	pages []pageResult
}

func (d *prefetchedDocument) NumPages() int { return len(d.pages) }

func (d *prefetchedDocument) PageFragments(_ context.Context, n int) ([]string, error) {
	if n < 1 || n > len(d.pages) {
		return nil, errPageMissing
	}
	p := d.pages[n-1]
	return p.fragments, p.err
}

// The pdf library panics on some malformed inputs, so every call into it
// goes through a recover.

func newPDFReader(data []byte) (r *pdf.Reader, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r, err = nil, fmt.Errorf("%w: %v", errMalformed, rec)
		}
	}()
	return pdf.NewReader(bytes.NewReader(data), int64(len(data)))
}

func numPages(r *pdf.Reader) (n int, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			n, err = 0, fmt.Errorf("%w: %v", errMalformed, rec)
		}
	}()
	return r.NumPage(), nil
}

func readPageFragments(r *pdf.Reader, n int) (fragments []string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			fragments, err = nil, fmt.Errorf("page %d: %w: %v", n, errMalformed, rec)
		}
	}()
	page := r.Page(n)
	if page.V.IsNull() {
		return nil, errPageMissing
	}
	text, err := page.GetPlainText(nil)
	if err != nil {
		return nil, err
	}
	return strings.Split(text, "\n"), nil
}
