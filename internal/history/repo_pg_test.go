package history

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPGRepoCreateStoresNullScore(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	entry := Entry{
		ID:         "entry-1",
		SessionID:  "session-1",
		Outcome:    OutcomeErrored,
		FileName:   "cv.pdf",
		MimeType:   "application/pdf",
		SizeBytes:  1024,
		ErrorStage: "extraction",
		ErrorCode:  "corrupted",
		CreatedAt:  time.Now().UTC(),
	}

	mock.ExpectExec("INSERT INTO session_history").
		WithArgs(
			entry.ID,
			entry.SessionID,
			entry.Outcome,
			entry.FileName,
			entry.MimeType,
			entry.SizeBytes,
			"",
			0,
			0,
			"",
			nil, // score
			"",
			"",
			entry.ErrorStage,
			entry.ErrorCode,
			sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Create(context.Background(), entry); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoCreateStoresScore(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	score := 72
	entry := Entry{ID: "entry-2", SessionID: "s", Outcome: OutcomeScored, Score: &score, CreatedAt: time.Now().UTC()}

	mock.ExpectExec("INSERT INTO session_history").
		WithArgs(
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			int64(72),
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := (&PGRepo{DB: db}).Create(context.Background(), entry); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoListRecentClampsLimitAndScansScore(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	now := time.Now().UTC()
	columns := []string{
		"id", "session_id", "outcome", "file_name", "mime_type", "size_bytes", "extraction_kind",
		"total_pages", "failed_pages", "job_title", "score", "band", "parse_tier", "error_stage", "error_code", "created_at",
	}
	rows := sqlmock.NewRows(columns).
		AddRow("e2", "s2", OutcomeScored, "cv.pdf", "application/pdf", int64(2048), "success", 2, 0, "Engineer", int64(81), "strong", "structured_json", "", "", now).
		AddRow("e1", "s1", OutcomeErrored, "cv.doc", "application/msword", int64(512), "", 0, 0, "", nil, "", "", "extraction", "empty_document", now.Add(-time.Minute))

	mock.ExpectQuery("SELECT (.+) FROM session_history").
		WithArgs(MaxListLimit).
		WillReturnRows(rows)

	entries, err := (&PGRepo{DB: db}).ListRecent(context.Background(), 1000)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Score == nil || *entries[0].Score != 81 {
		t.Fatalf("unexpected score: %v", entries[0].Score)
	}
	if entries[1].Score != nil {
		t.Fatalf("expected nil score for errored entry")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}
