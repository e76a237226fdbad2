package history

import (
	"context"
	"database/sql"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

func (r *PGRepo) Create(ctx context.Context, e Entry) error {
	const query = `
INSERT INTO session_history (
	id, session_id, outcome, file_name, mime_type, size_bytes, extraction_kind,
	total_pages, failed_pages, job_title, score, band, parse_tier, error_stage, error_code, created_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`
	var score sql.NullInt64
	if e.Score != nil {
		score = sql.NullInt64{Int64: int64(*e.Score), Valid: true}
	}
	_, err := r.DB.ExecContext(ctx, query,
		e.ID, e.SessionID, e.Outcome, e.FileName, e.MimeType, e.SizeBytes, e.ExtractionKind,
		e.TotalPages, e.FailedPages, e.JobTitle, score, e.Band, e.ParseTier, e.ErrorStage, e.ErrorCode, e.CreatedAt,
	)
	return err
}

func (r *PGRepo) ListRecent(ctx context.Context, limit int) ([]Entry, error) {
	const query = `
SELECT id, session_id, outcome, file_name, mime_type, size_bytes, extraction_kind,
	total_pages, failed_pages, job_title, score, band, parse_tier, error_stage, error_code, created_at
FROM session_history
ORDER BY created_at DESC
LIMIT $1`
	rows, err := r.DB.QueryContext(ctx, query, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e     Entry
			score sql.NullInt64
		)
		if err := rows.Scan(
			&e.ID, &e.SessionID, &e.Outcome, &e.FileName, &e.MimeType, &e.SizeBytes, &e.ExtractionKind,
			&e.TotalPages, &e.FailedPages, &e.JobTitle, &score, &e.Band, &e.ParseTier, &e.ErrorStage, &e.ErrorCode, &e.CreatedAt,
		); err != nil {
			return nil, err
		}
		if score.Valid {
			v := int(score.Int64)
			e.Score = &v
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
