package health

import (
	"context"
	"database/sql"
	"time"
)

const pingTimeout = 2 * time.Second

// Report is the health payload.
type Report struct {
	OK            bool   `json:"ok"`
	LLMProvider   string `json:"llmProvider,omitempty"`
	LLMConfigured bool   `json:"llmConfigured"`
	Sessions      int    `json:"sessions"`
	HistoryStore  string `json:"historyStore"`
	Database      string `json:"database,omitempty"`
}

// Service encapsulates health-related checks.
type Service struct {
	Provider      string
	LLMConfigured func() bool
	Sessions      func() int
	DB            *sql.DB
}

// Status reports readiness. A configured database that fails to answer a
// ping marks the service unhealthy; a missing LLM credential does not.
func (s *Service) Status(ctx context.Context) Report {
	r := Report{OK: true, LLMProvider: s.Provider, HistoryStore: "memory"}
	if s.LLMConfigured != nil {
		r.LLMConfigured = s.LLMConfigured()
	}
	if s.Sessions != nil {
		r.Sessions = s.Sessions()
	}
	if s.DB != nil {
		r.HistoryStore = "postgres"
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()
		if err := s.DB.PingContext(pingCtx); err != nil {
			r.OK = false
			r.Database = "unreachable"
		} else {
			r.Database = "ok"
		}
	}
	return r
}
