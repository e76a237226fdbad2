package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ats-checker/internal/llm"
	"ats-checker/internal/shared/telemetry"
)

const (
	defaultModel   = "gpt-4o-mini"
	defaultTimeout = 120 * time.Second
	providerName   = "openai"
)

var apiURL = "https://api.openai.com/v1/chat/completions"

// Client implements llm.Client using OpenAI Chat Completions.
type Client struct {
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewClient constructs an OpenAI client. An empty key yields an
// unconfigured client.
func NewClient(apiKey, model string, timeout time.Duration) *Client {
	if strings.TrimSpace(model) == "" {
		model = defaultModel
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		apiKey:     strings.TrimSpace(apiKey),
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float32      `json:"temperature,omitempty"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage,omitempty"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error,omitempty"`
}

func (c *Client) Configured() bool {
	return c != nil && c.apiKey != ""
}

// Complete returns the raw model reply for the prompt.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	if !c.Configured() {
		return "", llm.ErrMissingCredential
	}
	reqBody := chatRequest{
		Model:    c.model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	}
	if !isGPT5(c.model) {
		temp := float32(0)
		reqBody.Temperature = &temp
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return "", &llm.ServiceError{Provider: providerName, Detail: "request timed out", Err: err}
		}
		return "", &llm.ServiceError{Provider: providerName, Detail: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &llm.ServiceError{Provider: providerName, Status: resp.StatusCode, Detail: err.Error(), Err: err}
	}

	var parsed chatResponse
	parseErr := json.Unmarshal(body, &parsed)
	if resp.StatusCode >= 400 || parsed.Error != nil {
		return "", statusError(resp.StatusCode, parsed, body)
	}
	if parseErr != nil {
		return "", &llm.ServiceError{Provider: providerName, Status: resp.StatusCode, Detail: "response parse: " + parseErr.Error(), Err: parseErr}
	}
	if len(parsed.Choices) == 0 {
		return "", &llm.ServiceError{Provider: providerName, Status: resp.StatusCode, Detail: "response missing choices"}
	}

	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		return "", &llm.ServiceError{Provider: providerName, Status: resp.StatusCode, Detail: "response empty content"}
	}
	if parsed.Usage != nil {
		telemetry.Info("llm.openai.usage", map[string]any{
			"model":             c.model,
			"prompt_tokens":     parsed.Usage.PromptTokens,
			"completion_tokens": parsed.Usage.CompletionTokens,
			"total_tokens":      parsed.Usage.TotalTokens,
		})
	}
	return content, nil
}

func statusError(status int, parsed chatResponse, body []byte) error {
	detail := strings.TrimSpace(string(body))
	errType, errCode := "", ""
	if parsed.Error != nil {
		detail = parsed.Error.Message
		errType, errCode = parsed.Error.Type, parsed.Error.Code
	}
	switch {
	case status == http.StatusUnauthorized || errCode == "invalid_api_key":
		return fmt.Errorf("%w: %s", llm.ErrInvalidCredential, detail)
	case status == http.StatusTooManyRequests || errType == "insufficient_quota" || errCode == "insufficient_quota":
		return fmt.Errorf("%w: %s", llm.ErrQuotaExceeded, detail)
	default:
		return &llm.ServiceError{Provider: providerName, Status: status, Detail: detail}
	}
}

func isGPT5(model string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(model)), "gpt-5")
}

var _ llm.Client = (*Client)(nil)
