package session

import (
	"time"

	"ats-checker/internal/analyses"
	"ats-checker/internal/extract"
)

// State is the position of a session in its lifecycle.
type State string

const (
	StateIdle       State = "idle"
	StateValidating State = "validating"
	StateExtracting State = "extracting"
	StateReady      State = "ready"
	StateAnalyzing  State = "analyzing"
	StateScored     State = "scored"
	StateErrored    State = "errored"
)

// Busy reports whether an operation is in flight.
func (s State) Busy() bool {
	return s == StateValidating || s == StateExtracting || s == StateAnalyzing
}

const previewChars = 100

type DocumentInfo struct {
	FileName  string `json:"fileName"`
	MimeType  string `json:"mimeType"`
	SizeBytes int64  `json:"sizeBytes"`
}

type ExtractionInfo struct {
	Kind            extract.Kind `json:"kind"`
	SuccessfulPages int          `json:"successfulPages"`
	FailedPages     int          `json:"failedPages"`
	TotalPages      int          `json:"totalPages"`
	TextChars       int          `json:"textChars"`
	Preview         string       `json:"preview"`
	Notice          string       `json:"notice,omitempty"`
	Analyzable      bool         `json:"analyzable"`
}

type ResultInfo struct {
	analyses.Result
	ScoreBand analyses.Band `json:"band"`
	BandLabel string        `json:"bandLabel"`
	JobTitle  string        `json:"jobTitle"`
}

// Snapshot is an immutable copy of a session's observable state.
type Snapshot struct {
	SessionID  string          `json:"sessionId"`
	State      State           `json:"state"`
	Document   *DocumentInfo   `json:"document,omitempty"`
	Extraction *ExtractionInfo `json:"extraction,omitempty"`
	Result     *ResultInfo     `json:"result,omitempty"`
	Error      *ErrorInfo      `json:"error,omitempty"`
	UpdatedAt  time.Time       `json:"updatedAt"`

	// Outcome carries the full extracted text for in-process callers.
	Outcome *extract.Outcome `json:"-"`
}

func extractionInfo(o extract.Outcome) *ExtractionInfo {
	return &ExtractionInfo{
		Kind:            o.Kind,
		SuccessfulPages: o.SuccessfulPages,
		FailedPages:     o.FailedPages,
		TotalPages:      o.TotalPages,
		TextChars:       len([]rune(o.Text)),
		Preview:         o.Preview(previewChars),
		Notice:          o.Notice(),
		Analyzable:      o.Analyzable(),
	}
}

func resultInfo(r analyses.Result, jobTitle string) *ResultInfo {
	r.Problems = append([]string{}, r.Problems...)
	r.Recommendations = append([]string{}, r.Recommendations...)
	if r.SchemaIssues != nil {
		r.SchemaIssues = append([]string{}, r.SchemaIssues...)
	}
	if r.Score != nil {
		score := *r.Score
		r.Score = &score
	}
	band := r.Band()
	return &ResultInfo{Result: r, ScoreBand: band, BandLabel: band.Label(), JobTitle: jobTitle}
}
