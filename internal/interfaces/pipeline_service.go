package interfaces

import (
	"context"

	"github.com/ternarybob/charta/internal/models"
)

// PipelineService drives a document through intake, OCR, extraction and
// index priming. Runs serialize internally; the call blocks until the
// run reaches a terminal state.
type PipelineService interface {
	// Process runs the full pipeline for an uploaded PDF. The returned
	// run records the terminal state; a stage failure is reported both
	// on the run and as a *models.StageError.
	Process(ctx context.Context, filename string, pdf []byte) (*models.PipelineRun, error)

	// State returns the current pipeline state
	State() models.PipelineState

	// Runs returns recorded pipeline runs, newest first
	Runs(ctx context.Context) ([]models.PipelineRun, error)
}
