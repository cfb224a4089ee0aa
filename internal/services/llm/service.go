package llm

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/charta/internal/common"
	"github.com/ternarybob/charta/internal/interfaces"
	"google.golang.org/genai"
)

// Service implements the LLMService interface over the provider factory,
// adding embedding generation via the Gemini embeddings API.
type Service struct {
	factory        *ProviderFactory
	embeddingModel string
	dimension      int
	logger         arbor.ILogger
}

var _ interfaces.LLMService = (*Service)(nil)

// NewService creates a new LLM service
func NewService(config *common.Config, kvStorage interfaces.KeyValueStorage, logger arbor.ILogger) *Service {
	return &Service{
		factory:        NewProviderFactory(&config.Gemini, &config.Claude, kvStorage, logger),
		embeddingModel: config.Gemini.EmbeddingModel,
		dimension:      config.Retrieval.Dimension,
		logger:         logger,
	}
}

// Providers returns the underlying provider factory for callers that
// need direct client access, such as the vision OCR backend
func (s *Service) Providers() *ProviderFactory {
	return s.factory
}

// Generate produces a completion for the request
func (s *Service) Generate(ctx context.Context, req interfaces.GenerateRequest) (string, error) {
	resp, err := s.factory.GenerateContent(ctx, &ContentRequest{
		Model:             req.Model,
		SystemInstruction: req.SystemPrompt,
		Prompt:            req.Prompt,
		Temperature:       float32(req.Temperature),
		MaxTokens:         req.MaxTokens,
	})
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

// Embed generates an embedding vector for the given text
func (s *Service) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("text cannot be empty for embedding generation")
	}

	client, err := s.factory.GetGeminiClient(ctx)
	if err != nil {
		return nil, err
	}

	outputDim := int32(s.dimension)
	embeddingConfig := &genai.EmbedContentConfig{
		OutputDimensionality: &outputDim,
	}

	result, err := client.Models.EmbedContent(ctx, s.embeddingModel,
		[]*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}, embeddingConfig)
	if err != nil {
		return nil, fmt.Errorf("embedding generation failed: %w", err)
	}

	if result == nil || len(result.Embeddings) == 0 || len(result.Embeddings[0].Values) == 0 {
		return nil, fmt.Errorf("embedding API returned empty vector")
	}

	embedding := result.Embeddings[0].Values
	if s.dimension > 0 && len(embedding) != s.dimension {
		return nil, fmt.Errorf("embedding dimension mismatch: expected %d, got %d", s.dimension, len(embedding))
	}

	return embedding, nil
}

// HealthCheck verifies at least one provider is configured
func (s *Service) HealthCheck(ctx context.Context) error {
	if _, err := s.factory.GetGeminiClient(ctx); err == nil {
		return nil
	}
	if _, err := s.factory.GetClaudeClient(ctx); err == nil {
		return nil
	}
	return fmt.Errorf("no LLM provider configured: set gemini_api_key or anthropic_api_key")
}

// Close releases provider resources
func (s *Service) Close() error {
	return s.factory.Close()
}
