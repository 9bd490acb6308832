// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
package driven

import "context"

// LLMService is the judge: given a prompt it returns free-form text.
// No schema is enforced at this layer; callers parse the output.
type LLMService interface {
	// Generate produces a completion for prompt under opts.System.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// ModelName returns the name of the LLM model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// GenerateOptions configures text generation behaviour.
// Zero values leave the backend default in place.
type GenerateOptions struct {
	// System is the system prompt.
	System string

	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64

	// TopP is the nucleus sampling threshold.
	TopP float64

	// ContextSize is the context window to request (Ollama num_ctx).
	ContextSize int

	// RepeatPenalty discourages repetition (Ollama only).
	RepeatPenalty float64
}
