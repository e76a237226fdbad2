package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"ats-checker/internal/analyses"
	"ats-checker/internal/extract"
	"ats-checker/internal/history"
	"ats-checker/internal/llm"
	"ats-checker/internal/llm/gemini"
	"ats-checker/internal/llm/openai"
	"ats-checker/internal/services/health"
	"ats-checker/internal/session"
	"ats-checker/internal/shared/config"
	"ats-checker/internal/shared/server"
	"ats-checker/internal/shared/storage/db"
	"ats-checker/internal/shared/telemetry"
)

// App holds shared dependencies.
type App struct {
	Config    config.Config
	Router    *gin.Engine
	DB        *sql.DB
	LLM       llm.Client
	Extractor *extract.Router
	Analyzer  *analyses.Analyzer
	Sessions  *session.Manager
	History   history.Repo
}

// Build wires every dependency and the HTTP router. Background work such as
// the session sweeper is started by Run.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	client, err := BuildLLM(ctx, cfg)
	if err != nil {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
		return nil, err
	}

	var repo history.Repo = history.NewMemoryRepo()
	if sqlDB != nil {
		repo = &history.PGRepo{DB: sqlDB}
	}

	app := &App{
		Config:    cfg,
		DB:        sqlDB,
		LLM:       client,
		Extractor: BuildExtractor(cfg),
		Analyzer:  analyses.NewAnalyzer(client, cfg.AnalysisTimeout),
		History:   repo,
	}
	app.Sessions = session.NewManager(app.Extractor, app.Analyzer, history.NewRecorder(repo), cfg.SessionTTL)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:         cfg,
		SessionHandler: session.NewHandler(app.Sessions),
		HistoryHandler: history.NewHandler(repo),
		Health: &health.Service{
			Provider:      cfg.LLMProvider,
			LLMConfigured: client.Configured,
			Sessions:      app.Sessions.Len,
			DB:            sqlDB,
		},
	})

	telemetry.Info("bootstrap.ready", map[string]any{
		"env":            cfg.Env,
		"llm_provider":   cfg.LLMProvider,
		"llm_configured": client.Configured(),
		"history_store":  historyStoreName(sqlDB),
		"pdf_timeout":    cfg.PDFTimeout.String(),
		"pdf_workers":    cfg.PDFWorkers,
	})
	return app, nil
}

// Run starts background maintenance and blocks until ctx is done.
func (a *App) Run(ctx context.Context) {
	a.Sessions.Run(ctx)
}

// Close releases the database pool if one was opened.
func (a *App) Close() error {
	if a.DB == nil {
		return nil
	}
	return a.DB.Close()
}

// BuildExtractor returns the format router configured from cfg.
func BuildExtractor(cfg config.Config) *extract.Router {
	return extract.NewRouter(extract.PDFOptions{
		Timeout:             cfg.PDFTimeout,
		PartialFailureShare: cfg.PDFPartialFailureShare,
		Workers:             cfg.PDFWorkers,
	})
}

// BuildLLM returns the client for the configured provider. A missing API key
// yields an unconfigured client rather than an error.
func BuildLLM(ctx context.Context, cfg config.Config) (llm.Client, error) {
	switch cfg.LLMProvider {
	case "openai":
		return openai.NewClient(cfg.OpenAIAPIKey, cfg.LLMModel, cfg.AnalysisTimeout), nil
	default:
		c, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.LLMModel)
		if err != nil {
			return nil, fmt.Errorf("gemini client: %w", err)
		}
		return c, nil
	}
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		telemetry.Info("bootstrap.history_memory", map[string]any{"reason": "DATABASE_URL empty"})
		return nil, nil
	}

	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
	if err != nil {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.history_memory", map[string]any{"reason": "connect failed", "err": err})
			return nil, nil
		}
		return nil, err
	}
	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		_ = sqlDB.Close()
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.history_memory", map[string]any{"reason": "migrations failed", "err": err})
			return nil, nil
		}
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return sqlDB, nil
}

func historyStoreName(sqlDB *sql.DB) string {
	if sqlDB == nil {
		return "memory"
	}
	return "postgres"
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
