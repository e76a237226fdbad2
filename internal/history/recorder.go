package history

import (
	"context"
	"time"

	"ats-checker/internal/session"
	"ats-checker/internal/shared/telemetry"
)

const recordTimeout = 5 * time.Second

// Recorder writes settled sessions to a Repo. Write failures are logged
// and never affect the session.
type Recorder struct {
	repo Repo
	now  func() time.Time
}

func NewRecorder(repo Repo) *Recorder {
	return &Recorder{repo: repo, now: time.Now}
}

func (r *Recorder) RecordSettled(ctx context.Context, snap session.Snapshot) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()

	entry := EntryFromSnapshot(snap, r.now())
	if err := r.repo.Create(ctx, entry); err != nil {
		telemetry.Error("history.record_failed", map[string]any{
			"session_id": snap.SessionID,
			"err":        err,
		})
	}
}

var _ session.Recorder = (*Recorder)(nil)
