package history

import "context"

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// Repo persists history entries.
type Repo interface {
	Create(ctx context.Context, entry Entry) error
	ListRecent(ctx context.Context, limit int) ([]Entry, error)
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultListLimit
	case limit > MaxListLimit:
		return MaxListLimit
	default:
		return limit
	}
}
