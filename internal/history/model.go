package history

import (
	"time"

	"github.com/google/uuid"

	"ats-checker/internal/session"
)

// Entry is the metadata kept about a settled session. It never holds
// document bytes or extracted text.
type Entry struct {
	ID             string    `json:"id"`
	SessionID      string    `json:"sessionId"`
	Outcome        string    `json:"outcome"`
	FileName       string    `json:"fileName"`
	MimeType       string    `json:"mimeType"`
	SizeBytes      int64     `json:"sizeBytes"`
	ExtractionKind string    `json:"extractionKind,omitempty"`
	TotalPages     int       `json:"totalPages"`
	FailedPages    int       `json:"failedPages"`
	JobTitle       string    `json:"jobTitle,omitempty"`
	Score          *int      `json:"score"`
	Band           string    `json:"band,omitempty"`
	ParseTier      string    `json:"parseTier,omitempty"`
	ErrorStage     string    `json:"errorStage,omitempty"`
	ErrorCode      string    `json:"errorCode,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

const (
	OutcomeScored  = "scored"
	OutcomeErrored = "errored"
)

// EntryFromSnapshot builds an entry from a settled session snapshot.
func EntryFromSnapshot(snap session.Snapshot, now time.Time) Entry {
	e := Entry{
		ID:        uuid.NewString(),
		SessionID: snap.SessionID,
		Outcome:   OutcomeScored,
		CreatedAt: now.UTC(),
	}
	if snap.State == session.StateErrored {
		e.Outcome = OutcomeErrored
	}
	if snap.Document != nil {
		e.FileName = snap.Document.FileName
		e.MimeType = snap.Document.MimeType
		e.SizeBytes = snap.Document.SizeBytes
	}
	if snap.Extraction != nil {
		e.ExtractionKind = string(snap.Extraction.Kind)
		e.TotalPages = snap.Extraction.TotalPages
		e.FailedPages = snap.Extraction.FailedPages
	}
	if snap.Result != nil {
		e.JobTitle = snap.Result.JobTitle
		e.Band = string(snap.Result.ScoreBand)
		e.ParseTier = string(snap.Result.Tier)
		if snap.Result.Score != nil {
			score := *snap.Result.Score
			e.Score = &score
		}
	}
	if snap.Error != nil {
		e.ErrorStage = string(snap.Error.Stage)
		e.ErrorCode = snap.Error.Code
	}
	return e
}
