package extraction

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/charta/internal/common"
	"github.com/ternarybob/charta/internal/interfaces"
	"github.com/ternarybob/charta/internal/models"
)

// Service implements the two-pass extraction over the OCR markdown.
// Pass one turns raw report text into the base result table (rp.csv);
// pass two re-reads that table and appends the Observation column
// (final.csv). Each pass output is validated before anything is
// persisted, so a malformed pass never clobbers a good artifact.
type Service struct {
	llmService  interfaces.LLMService
	artifacts   interfaces.ArtifactStore
	model       string
	temperature float64
	maxTokens   int
	logger      arbor.ILogger
}

var _ interfaces.ExtractionService = (*Service)(nil)

// NewService creates a new extraction service
func NewService(config *common.ExtractionConfig, llmService interfaces.LLMService, artifacts interfaces.ArtifactStore, logger arbor.ILogger) *Service {
	return &Service{
		llmService:  llmService,
		artifacts:   artifacts,
		model:       config.Model,
		temperature: config.Temperature,
		maxTokens:   config.MaxTokens,
		logger:      logger,
	}
}

// Extract runs both passes and returns the final table
func (s *Service) Extract(ctx context.Context) (*models.ReportTable, error) {
	markdown, err := s.artifacts.ReadMarkdown()
	if err != nil {
		return nil, fmt.Errorf("no OCR markdown to extract from: %w", err)
	}

	rawTable, rawCSV, err := s.runPass(ctx, extractSystemPrompt, fmt.Sprintf(extractUserPrompt, string(markdown)), models.BaseColumns)
	if err != nil {
		return nil, fmt.Errorf("first extraction pass failed: %w", err)
	}

	if err := s.artifacts.WriteRawCSV(rawCSV); err != nil {
		return nil, err
	}

	s.logger.Info().
		Int("rows", len(rawTable.Rows)).
		Msg("First extraction pass complete")

	finalTable, finalCSV, err := s.runPass(ctx, observeSystemPrompt, fmt.Sprintf(observeUserPrompt, string(rawCSV)), models.FinalColumns)
	if err != nil {
		return nil, fmt.Errorf("observation pass failed: %w", err)
	}

	if len(finalTable.Rows) != len(rawTable.Rows) {
		return nil, fmt.Errorf("observation pass changed row count: %d -> %d", len(rawTable.Rows), len(finalTable.Rows))
	}

	if err := s.artifacts.WriteFinalCSV(finalCSV); err != nil {
		return nil, err
	}

	s.logger.Info().
		Int("rows", len(finalTable.Rows)).
		Msg("Observation pass complete, final table persisted")

	return finalTable, nil
}

// runPass performs one LLM call and validates its CSV output
func (s *Service) runPass(ctx context.Context, systemPrompt, prompt string, expectedColumns []string) (*models.ReportTable, []byte, error) {
	output, err := s.llmService.Generate(ctx, interfaces.GenerateRequest{
		Model:        s.model,
		SystemPrompt: systemPrompt,
		Prompt:       prompt,
		Temperature:  s.temperature,
		MaxTokens:    s.maxTokens,
	})
	if err != nil {
		return nil, nil, err
	}

	cleaned := StripCodeFences(output)
	table, err := ParseTable([]byte(cleaned), expectedColumns)
	if err != nil {
		return nil, nil, fmt.Errorf("model output is not a valid table: %w", err)
	}

	// Re-encode so the persisted artifact is canonical CSV regardless
	// of model quoting quirks
	encoded, err := EncodeTable(table)
	if err != nil {
		return nil, nil, err
	}

	return table, encoded, nil
}
