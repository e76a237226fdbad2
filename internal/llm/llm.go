package llm

import "context"

// Client sends a prompt to a text-generation service and returns the raw
// reply. A client built without a credential reports Configured() == false
// and fails every call with ErrMissingCredential.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
	Configured() bool
}

// Unconfigured is the client used when no provider credential is set.
type Unconfigured struct{}

func (Unconfigured) Complete(context.Context, string) (string, error) {
	return "", ErrMissingCredential
}

func (Unconfigured) Configured() bool { return false }
