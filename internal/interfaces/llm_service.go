package interfaces

import "context"

// GenerateRequest is a single-turn content generation request. Provider
// selection happens from the model name prefix.
type GenerateRequest struct {
	Model        string
	SystemPrompt string
	Prompt       string
	Temperature  float64
	MaxTokens    int
}

// LLMService defines language model operations: content generation and
// embedding vectors. Implementations route to cloud providers and carry
// their own retry and rate limiting.
type LLMService interface {
	// Generate produces a completion for the request
	Generate(ctx context.Context, req GenerateRequest) (string, error)

	// Embed generates an embedding vector for the given text
	Embed(ctx context.Context, text string) ([]float32, error)

	// HealthCheck verifies at least one provider is configured and reachable
	HealthCheck(ctx context.Context) error

	// Close releases provider resources
	Close() error
}
