package extract

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

type fakeDoc struct {
	pages [][]string
	errs  map[int]error
}

func (d fakeDoc) NumPages() int { return len(d.pages) }

func (d fakeDoc) PageFragments(_ context.Context, n int) ([]string, error) {
	if err := d.errs[n]; err != nil {
		return nil, err
	}
	return d.pages[n-1], nil
}

type fakeOpener struct {
	doc         pdfDocument
	err         error
	block       chan struct{}
	ignoreCtx   bool
	openedCount *int
}

func (o fakeOpener) Open(ctx context.Context, _ []byte) (pdfDocument, error) {
	if o.openedCount != nil {
		*o.openedCount++
	}
	if o.block != nil {
		if o.ignoreCtx {
			<-o.block
		} else {
			select {
			case <-o.block:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	if o.err != nil {
		return nil, o.err
	}
	return o.doc, nil
}

func newTestPDFExtractor(primary, fallback pdfOpener, timeout time.Duration) *PDFExtractor {
	e := NewPDFExtractor(PDFOptions{Timeout: timeout})
	e.primary = primary
	e.fallback = fallback
	return e
}

func extractWith(t *testing.T, doc pdfDocument) (Outcome, error) {
	t.Helper()
	e := newTestPDFExtractor(fakeOpener{doc: doc}, fakeOpener{err: errors.New("unused")}, time.Second)
	return e.Extract(context.Background(), []byte("%PDF-1.4"), "application/pdf")
}

func TestPDFAllPagesFailedIsScanned(t *testing.T) {
	failed := errors.New("no text layer")
	out, err := extractWith(t, fakeDoc{
		pages: make([][]string, 3),
		errs:  map[int]error{1: failed, 2: failed, 3: failed},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Kind != KindScannedNoText {
		t.Fatalf("expected scanned, got %s", out.Kind)
	}
	if out.Text != ScannedPlaceholder {
		t.Fatalf("expected placeholder text, got %q", out.Text)
	}
	if out.Analyzable() {
		t.Fatalf("scanned outcome must not be analyzable")
	}
}

func TestPDFMajorityFailedIsPartial(t *testing.T) {
	failed := errors.New("bad content stream")
	out, err := extractWith(t, fakeDoc{
		pages: [][]string{nil, nil, nil, {"four"}, {"five", "", "x"}},
		errs:  map[int]error{1: failed, 2: failed, 3: failed},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Kind != KindPartialSuccess {
		t.Fatalf("expected partial success, got %s", out.Kind)
	}
	if out.SuccessfulPages != 2 || out.FailedPages != 3 || out.TotalPages != 5 {
		t.Fatalf("unexpected counts: %+v", out)
	}
	if out.Text != "four\nfive x\n" {
		t.Fatalf("unexpected text: %q", out.Text)
	}
	if !strings.Contains(out.Notice(), "2/5 pages") {
		t.Fatalf("unexpected notice: %q", out.Notice())
	}
}

func TestPDFAllPagesSucceed(t *testing.T) {
	out, err := extractWith(t, fakeDoc{
		pages: [][]string{{"Jane", "Doe"}, {"Go", "SQL"}, {"Remote"}, {"", "Berlin"}, {"Open", "to", "relocate"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Kind != KindSuccess {
		t.Fatalf("expected success, got %s", out.Kind)
	}
	if out.SuccessfulPages != 5 || out.FailedPages != 0 || out.TotalPages != 5 {
		t.Fatalf("unexpected counts: %+v", out)
	}
	if out.Text != "Jane Doe\nGo SQL\nRemote\nBerlin\nOpen to relocate\n" {
		t.Fatalf("unexpected text: %q", out.Text)
	}
	if out.Degraded() || out.Notice() != "" {
		t.Fatalf("success must not be degraded")
	}
}

func TestPDFEqualSplitIsSuccess(t *testing.T) {
	out, err := extractWith(t, fakeDoc{
		pages: [][]string{{"text"}, {"   ", ""}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Kind != KindSuccess || out.FailedPages != 1 {
		t.Fatalf("expected success with one blank page, got %+v", out)
	}
}

func TestPDFZeroPagesIsEmptyDocument(t *testing.T) {
	_, err := extractWith(t, fakeDoc{})
	if !errors.Is(err, ErrEmptyDocument) {
		t.Fatalf("expected empty document, got %v", err)
	}
}

func TestPDFTimeout(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	e := newTestPDFExtractor(fakeOpener{block: block}, fakeOpener{block: block}, 20*time.Millisecond)

	start := time.Now()
	_, err := e.Extract(context.Background(), []byte("%PDF-1.4"), "application/pdf")
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected timeout, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Fatalf("timeout took too long")
	}
	if !strings.Contains(UserMessage(err), "took too long") {
		t.Fatalf("unexpected message: %q", UserMessage(err))
	}
}

func TestPDFLateResultIsDropped(t *testing.T) {
	release := make(chan struct{})
	doc := fakeDoc{pages: [][]string{{"late"}}}
	e := newTestPDFExtractor(fakeOpener{doc: doc, block: release, ignoreCtx: true}, fakeOpener{doc: doc}, 10*time.Millisecond)

	out, err := e.Extract(context.Background(), nil, "application/pdf")
	close(release)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected timeout, got %v", err)
	}
	if out.Text != "" {
		t.Fatalf("expected no text after timeout, got %q", out.Text)
	}
}

func TestPDFCallerCancellationIsNotTimeout(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	e := newTestPDFExtractor(fakeOpener{block: block}, fakeOpener{block: block}, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.Extract(ctx, nil, "application/pdf")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if errors.Is(err, ErrTimeout) {
		t.Fatalf("cancellation must not be reported as timeout")
	}
}

func TestPDFFallsBackToSyncOpener(t *testing.T) {
	fallbackCalls := 0
	e := newTestPDFExtractor(
		fakeOpener{err: errors.New("worker setup failed")},
		fakeOpener{doc: fakeDoc{pages: [][]string{{"ok"}}}, openedCount: &fallbackCalls},
		time.Second,
	)
	out, err := e.Extract(context.Background(), nil, "application/pdf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fallbackCalls != 1 || out.Text != "ok\n" {
		t.Fatalf("expected fallback result, calls=%d out=%+v", fallbackCalls, out)
	}
}

func TestPDFOpenFailuresAreClassified(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "password", err: errors.New("encrypted PDF: invalid password"), want: ErrPasswordProtected},
		{name: "malformed", err: errors.New("malformed PDF: reading at offset 0"), want: ErrCorrupted},
		{name: "panic", err: errMalformed, want: ErrCorrupted},
		{name: "other", err: errors.New("unexpected stream filter"), want: ErrOpenFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestPDFExtractor(fakeOpener{err: tt.err}, fakeOpener{err: tt.err}, time.Second)
			_, err := e.Extract(context.Background(), nil, "application/pdf")
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestPDFRealReaderRejectsGarbage(t *testing.T) {
	e := NewPDFExtractor(PDFOptions{Timeout: 5 * time.Second})
	_, err := e.Extract(context.Background(), []byte("this is plainly not a pdf document"), "application/pdf")
	if !errors.Is(err, ErrCorrupted) {
		t.Fatalf("expected corrupted, got %v", err)
	}
}

func TestOpenFailedMessageCarriesDetail(t *testing.T) {
	err := classifyOpenError(errors.New("unexpected stream filter"))
	msg := UserMessage(err)
	if !strings.HasPrefix(msg, "PDF processing failed: unexpected stream filter.") {
		t.Fatalf("unexpected message: %q", msg)
	}
}

func TestUserMessagesAreDistinct(t *testing.T) {
	kinds := []error{ErrTimeout, ErrCorrupted, ErrPasswordProtected, ErrOpenFailed, ErrEmptyDocument, ErrConversionFailed}
	seen := map[string]error{}
	for _, kind := range kinds {
		msg := UserMessage(newError(kind, "detail", nil))
		if prev, ok := seen[msg]; ok {
			t.Fatalf("%v and %v share message %q", prev, kind, msg)
		}
		seen[msg] = kind
	}
}

const resumeText = "Jane Doe\nSenior Go Engineer\nSkills: Go SQL Kubernetes\nExperience: 8 years\nRemote\n"

func readTestPDF(t *testing.T) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", "resume_5pages.pdf"))
	if err != nil {
		t.Fatalf("read testdata: %v", err)
	}
	return data
}

func TestPDFRealDocumentAcrossWorkerCounts(t *testing.T) {
	data := readTestPDF(t)
	for _, workers := range []int{1, 2, 4} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			e := NewPDFExtractor(PDFOptions{Timeout: 5 * time.Second, Workers: workers})
			out, err := e.Extract(context.Background(), data, "application/pdf")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if out.Kind != KindSuccess || out.SuccessfulPages != 5 || out.TotalPages != 5 {
				t.Fatalf("unexpected outcome: %+v", out)
			}
			if out.Text != resumeText {
				t.Fatalf("unexpected text: %q", out.Text)
			}
		})
	}
}

func TestPDFRealDocumentThroughSyncOpener(t *testing.T) {
	e := newTestPDFExtractor(fakeOpener{err: errors.New("worker setup failed")}, syncOpener{}, 5*time.Second)
	out, err := e.Extract(context.Background(), readTestPDF(t), "application/pdf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Kind != KindSuccess || out.Text != resumeText {
		t.Fatalf("unexpected outcome: %+v", out)
	}
}

func TestWorkerOpenerMatchesSyncOpener(t *testing.T) {
	data := readTestPDF(t)
	ctx := context.Background()

	syncDoc, err := syncOpener{}.Open(ctx, data)
	if err != nil {
		t.Fatalf("sync open: %v", err)
	}
	workerDoc, err := workerOpener{workers: 3}.Open(ctx, data)
	if err != nil {
		t.Fatalf("worker open: %v", err)
	}
	if syncDoc.NumPages() != 5 || workerDoc.NumPages() != 5 {
		t.Fatalf("expected 5 pages, got sync=%d worker=%d", syncDoc.NumPages(), workerDoc.NumPages())
	}
	for n := 1; n <= 5; n++ {
		want, err := syncDoc.PageFragments(ctx, n)
		if err != nil {
			t.Fatalf("sync page %d: %v", n, err)
		}
		got, err := workerDoc.PageFragments(ctx, n)
		if err != nil {
			t.Fatalf("worker page %d: %v", n, err)
		}
		if strings.Join(got, "|") != strings.Join(want, "|") {
			t.Fatalf("page %d differs: worker=%q sync=%q", n, got, want)
		}
	}
	if _, err := workerDoc.PageFragments(ctx, 6); !errors.Is(err, errPageMissing) {
		t.Fatalf("expected missing page, got %v", err)
	}
}
