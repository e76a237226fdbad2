package session

import (
	"context"
	"sync"

	"ats-checker/internal/analyses"
	"ats-checker/internal/documents"
	"ats-checker/internal/extract"
)

type fakeExtractor struct {
	mu        sync.Mutex
	calls     int
	inFlight  int
	peak      int
	cancelled int
	outcome   extract.Outcome
	err       error
	release   chan struct{}
	// stubborn extractors keep running after cancellation until released.
	stubborn bool
}

func (f *fakeExtractor) Extract(ctx context.Context, _ documents.Document) (extract.Outcome, error) {
	f.mu.Lock()
	f.calls++
	f.inFlight++
	if f.inFlight > f.peak {
		f.peak = f.inFlight
	}
	release := f.release
	outcome, err := f.outcome, f.err
	stubborn := f.stubborn
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}()
	if release != nil && stubborn {
		<-release
	} else if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			f.mu.Lock()
			f.cancelled++
			f.mu.Unlock()
			return extract.Outcome{}, ctx.Err()
		}
	}
	return outcome, err
}

func (f *fakeExtractor) stats() (peak, cancelled int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.peak, f.cancelled
}

func (f *fakeExtractor) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeAnalyzer struct {
	mu         sync.Mutex
	calls      int
	configured bool
	result     analyses.Result
	err        error
	release    chan struct{}
	requests   []analyses.Request
}

func (f *fakeAnalyzer) Configured() bool { return f.configured }

func (f *fakeAnalyzer) Analyze(ctx context.Context, req analyses.Request) (analyses.Result, error) {
	f.mu.Lock()
	f.calls++
	f.requests = append(f.requests, req)
	release := f.release
	f.mu.Unlock()
	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return analyses.Result{}, ctx.Err()
		}
	}
	return f.result, f.err
}

func (f *fakeAnalyzer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeRecorder struct {
	mu    sync.Mutex
	snaps []Snapshot
}

func (f *fakeRecorder) RecordSettled(_ context.Context, snap Snapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snaps = append(f.snaps, snap)
}

func (f *fakeRecorder) recorded() []Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Snapshot(nil), f.snaps...)
}

func pdfDoc() documents.Document {
	return documents.NewDocument("cv.pdf", documents.MimePDF, []byte("%PDF-1.4 test"))
}

func intPtr(v int) *int { return &v }

func textOutcome(text string) extract.Outcome {
	return extract.Outcome{Kind: extract.KindSuccess, Text: text, SuccessfulPages: 1, TotalPages: 1}
}
