package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"ats-checker/internal/llm"
)

const (
	defaultModel = "gemini-1.5-flash"
	providerName = "gemini"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Client implements llm.Client on the Gemini API.
type Client struct {
	models contentGenerator
	model  string
}

// NewClient builds a Gemini client. An empty key yields an unconfigured
// client without contacting the API.
func NewClient(ctx context.Context, apiKey, model string) (*Client, error) {
	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return &Client{model: model}, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Client{models: client.Models, model: model}, nil
}

func (c *Client) Configured() bool {
	return c != nil && c.models != nil
}

func (c *Client) Model() string {
	if c == nil {
		return ""
	}
	return c.model
}

// Complete sends the prompt and returns the concatenated text parts of the
// reply.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	if !c.Configured() {
		return "", llm.ErrMissingCredential
	}
	resp, err := c.models.GenerateContent(ctx, c.model, genai.Text(prompt), nil)
	if err != nil {
		return "", classify(err)
	}
	if resp == nil {
		return "", &llm.ServiceError{Provider: providerName, Detail: "empty response"}
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil || part.Text == "" {
				continue
			}
			builder.WriteString(part.Text)
		}
	}
	output := strings.TrimSpace(builder.String())
	if output == "" {
		return "", &llm.ServiceError{Provider: providerName, Detail: "empty response"}
	}
	return output, nil
}

func classify(err error) error {
	apiErr, ok := asAPIError(err)
	if !ok {
		return llm.Classify(providerName, err)
	}
	switch {
	case apiErr.Code == http.StatusTooManyRequests || apiErr.Status == "RESOURCE_EXHAUSTED":
		return fmt.Errorf("%w: %s", llm.ErrQuotaExceeded, apiErr.Message)
	case apiErr.Code == http.StatusUnauthorized,
		apiErr.Code == http.StatusForbidden,
		apiErr.Status == "UNAUTHENTICATED",
		apiErr.Status == "PERMISSION_DENIED",
		strings.Contains(strings.ToLower(apiErr.Message), "api key"):
		return fmt.Errorf("%w: %s", llm.ErrInvalidCredential, apiErr.Message)
	default:
		return &llm.ServiceError{Provider: providerName, Status: apiErr.Code, Detail: apiErr.Message, Err: err}
	}
}

func asAPIError(err error) (genai.APIError, bool) {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return *apiErrPtr, true
	}
	return genai.APIError{}, false
}

var _ llm.Client = (*Client)(nil)
