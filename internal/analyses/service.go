package analyses

import (
	"context"
	"time"

	"ats-checker/internal/llm"
	"ats-checker/internal/shared/metrics"
	"ats-checker/internal/shared/telemetry"
)

const defaultTimeout = 120 * time.Second

// Analyzer builds the prompt, calls the scoring service once and parses
// the reply.
type Analyzer struct {
	client  llm.Client
	timeout time.Duration
}

func NewAnalyzer(client llm.Client, timeout time.Duration) *Analyzer {
	if client == nil {
		client = llm.Unconfigured{}
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Analyzer{client: client, timeout: timeout}
}

// Configured reports whether the scoring service has a credential.
func (a *Analyzer) Configured() bool {
	return a.client.Configured()
}

// Analyze runs one analysis. Failures of the service call are returned as
// llm errors; reply shape problems never are.
func (a *Analyzer) Analyze(ctx context.Context, req Request) (Result, error) {
	prompt, err := BuildPrompt(req)
	if err != nil {
		return Result{}, err
	}
	if !a.client.Configured() {
		return Result{}, llm.ErrMissingCredential
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	metrics.IncAnalysisStarted()
	start := time.Now()
	raw, err := a.client.Complete(ctx, prompt)
	metrics.ObserveAnalysisDuration(time.Since(start))
	if err != nil {
		err = llm.Classify("llm", err)
		metrics.IncAnalysisFailed()
		telemetry.Error("analysis.failed", map[string]any{
			"job_title": req.JobTitle,
			"err":       err,
		})
		return Result{}, err
	}

	res := Parse(raw)
	metrics.IncAnalysisTier(string(res.Tier))
	if len(res.SchemaIssues) > 0 {
		telemetry.Warn("analysis.schema_mismatch", map[string]any{
			"issues":      res.SchemaIssues,
			"raw_preview": telemetry.Truncate(raw, 200),
		})
	}
	fields := map[string]any{
		"job_title":      req.JobTitle,
		"tier":           string(res.Tier),
		"prompt_version": PromptVersion,
		"duration_ms":    time.Since(start).Milliseconds(),
	}
	if res.Score != nil {
		fields["score"] = *res.Score
	}
	telemetry.Info("analysis.completed", fields)
	return res, nil
}
