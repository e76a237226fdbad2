package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"ats-checker/internal/analyses"
	"ats-checker/internal/documents"
	"ats-checker/internal/extract"
	"ats-checker/internal/llm"
	"ats-checker/internal/shared/telemetry"
)

// Extractor turns a validated document into an extraction outcome.
type Extractor interface {
	Extract(ctx context.Context, doc documents.Document) (extract.Outcome, error)
}

// Analyzer scores extracted text against a job title.
type Analyzer interface {
	Configured() bool
	Analyze(ctx context.Context, req analyses.Request) (analyses.Result, error)
}

// Recorder receives the snapshot of every session that settles in Scored
// or Errored.
type Recorder interface {
	RecordSettled(ctx context.Context, snap Snapshot)
}

// AnalyzeParams are the user inputs for an analysis.
type AnalyzeParams struct {
	JobTitle          string
	JobDescriptionRef string
}

// Session runs one document through validation, extraction and analysis.
// At most one operation is in flight at a time; a second request is
// rejected with ErrBusy rather than queued. Reset cancels the running
// operation and discards its result, but a new one is only accepted once the
// cancelled goroutine has returned.
type Session struct {
	id        string
	extractor Extractor
	analyzer  Analyzer
	recorder  Recorder
	now       func() time.Time

	mu         sync.Mutex
	state      State
	generation uint64
	running    bool
	cancel     context.CancelFunc
	document   *DocumentInfo
	outcome    *extract.Outcome
	result     *analyses.Result
	jobTitle   string
	failure    *ErrorInfo
	updatedAt  time.Time
}

func New(id string, extractor Extractor, analyzer Analyzer, recorder Recorder) *Session {
	s := &Session{
		id:        id,
		extractor: extractor,
		analyzer:  analyzer,
		recorder:  recorder,
		now:       time.Now,
		state:     StateIdle,
	}
	s.updatedAt = s.now()
	return s
}

func (s *Session) ID() string { return s.id }

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// LastActivity is the time of the latest state change.
func (s *Session) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updatedAt
}

// StartExtraction validates doc and extracts its text in the background.
// Validation failures are returned directly and leave the session Errored.
// The returned channel yields the settled snapshot and is then closed; it
// is closed without a value if the result was discarded.
func (s *Session) StartExtraction(ctx context.Context, doc documents.Document) (<-chan Snapshot, error) {
	s.mu.Lock()
	if s.state.Busy() || s.running {
		s.mu.Unlock()
		return nil, ErrBusy
	}
	s.clearLocked()
	s.document = &DocumentInfo{FileName: doc.FileName, MimeType: doc.MimeType, SizeBytes: doc.SizeBytes}
	s.setStateLocked(StateValidating)

	if err := documents.Validate(doc.Descriptor()); err != nil {
		s.failure = describe(StageValidation, err)
		s.setStateLocked(StateErrored)
		snap := s.snapshotLocked()
		s.mu.Unlock()
		telemetry.Warn("session.validation_failed", map[string]any{
			"session_id": s.id,
			"file_name":  doc.FileName,
			"mime_type":  doc.MimeType,
			"size_bytes": doc.SizeBytes,
			"err":        err,
		})
		s.record(ctx, snap)
		return nil, err
	}
	s.setStateLocked(StateExtracting)
	gen := s.generation
	opCtx := s.beginLocked(ctx)
	s.mu.Unlock()

	done := make(chan Snapshot, 1)
	go func() {
		defer close(done)
		out, err := s.extractor.Extract(opCtx, doc)
		snap, applied := s.finishExtraction(gen, out, err)
		if !applied {
			telemetry.Info("session.extraction_discarded", map[string]any{"session_id": s.id})
			return
		}
		if snap.State == StateErrored {
			s.record(ctx, snap)
		}
		done <- snap
	}()
	return done, nil
}

func (s *Session) finishExtraction(gen uint64, out extract.Outcome, err error) (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.endLocked()
	if gen != s.generation || s.state != StateExtracting {
		return Snapshot{}, false
	}
	if err != nil {
		s.failure = describe(StageExtraction, err)
		s.setStateLocked(StateErrored)
		return s.snapshotLocked(), true
	}
	s.outcome = &out
	s.setStateLocked(StateReady)
	return s.snapshotLocked(), true
}

// Analyze scores the extracted text in the background. Precondition
// failures are returned directly and leave the state unchanged.
func (s *Session) Analyze(ctx context.Context, params AnalyzeParams) (<-chan Snapshot, error) {
	s.mu.Lock()
	switch {
	case s.state.Busy() || s.running:
		s.mu.Unlock()
		return nil, ErrBusy
	case s.state != StateReady && s.state != StateScored:
		s.mu.Unlock()
		return nil, ErrNotReady
	case strings.TrimSpace(params.JobTitle) == "":
		s.mu.Unlock()
		return nil, analyses.ErrJobTitleRequired
	case s.outcome == nil || !s.outcome.Analyzable():
		s.mu.Unlock()
		return nil, ErrNothingToAnalyze
	case !s.analyzer.Configured():
		s.mu.Unlock()
		return nil, llm.ErrMissingCredential
	}

	req := analyses.Request{
		JobTitle:          strings.TrimSpace(params.JobTitle),
		JobDescriptionRef: strings.TrimSpace(params.JobDescriptionRef),
		CVText:            s.outcome.Text,
	}
	s.result = nil
	s.failure = nil
	s.jobTitle = req.JobTitle
	s.setStateLocked(StateAnalyzing)
	gen := s.generation
	opCtx := s.beginLocked(ctx)
	s.mu.Unlock()

	done := make(chan Snapshot, 1)
	go func() {
		defer close(done)
		res, err := s.analyzer.Analyze(opCtx, req)
		snap, applied := s.finishAnalysis(gen, res, err)
		if !applied {
			telemetry.Info("session.analysis_discarded", map[string]any{"session_id": s.id})
			return
		}
		s.record(ctx, snap)
		done <- snap
	}()
	return done, nil
}

func (s *Session) finishAnalysis(gen uint64, res analyses.Result, err error) (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.endLocked()
	if gen != s.generation || s.state != StateAnalyzing {
		return Snapshot{}, false
	}
	if err != nil {
		s.failure = describe(StageAnalysis, err)
		s.setStateLocked(StateErrored)
		return s.snapshotLocked(), true
	}
	s.result = &res
	s.setStateLocked(StateScored)
	return s.snapshotLocked(), true
}

// Reset returns the session to Idle. Any operation still running is
// cancelled and its result discarded.
func (s *Session) Reset() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked()
	s.setStateLocked(StateIdle)
	return s.snapshotLocked()
}

// beginLocked marks an operation in flight and returns its context.
func (s *Session) beginLocked(ctx context.Context) context.Context {
	opCtx, cancel := context.WithCancel(ctx)
	s.running = true
	s.cancel = cancel
	return opCtx
}

func (s *Session) endLocked() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.running = false
}

func (s *Session) clearLocked() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.generation++
	s.document = nil
	s.outcome = nil
	s.result = nil
	s.jobTitle = ""
	s.failure = nil
}

func (s *Session) setStateLocked(state State) {
	s.state = state
	s.updatedAt = s.now()
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		SessionID: s.id,
		State:     s.state,
		UpdatedAt: s.updatedAt,
	}
	if s.document != nil {
		doc := *s.document
		snap.Document = &doc
	}
	if s.outcome != nil {
		out := *s.outcome
		snap.Outcome = &out
		snap.Extraction = extractionInfo(out)
	}
	if s.result != nil {
		snap.Result = resultInfo(*s.result, s.jobTitle)
	}
	if s.failure != nil {
		failure := *s.failure
		snap.Error = &failure
	}
	return snap
}

func (s *Session) record(ctx context.Context, snap Snapshot) {
	if s.recorder == nil {
		return
	}
	s.recorder.RecordSettled(ctx, snap)
}
