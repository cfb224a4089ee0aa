package interfaces

import (
	"context"

	"github.com/ternarybob/charta/internal/models"
)

// ExtractionService runs the two-pass LLM extraction: markdown to a raw
// result CSV, then raw CSV to the final CSV with the Observation column.
type ExtractionService interface {
	// Extract reads the OCR markdown artifact, runs both passes, persists
	// rp.csv and final.csv, and returns the final table. A failed or
	// unparseable pass leaves any previously persisted final CSV intact.
	Extract(ctx context.Context) (*models.ReportTable, error)
}
