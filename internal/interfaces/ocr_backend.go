package interfaces

import (
	"context"

	"github.com/ternarybob/charta/internal/models"
)

// OCRBackend converts a source PDF into the artifact pair: a markdown
// rendition and a text-searchable PDF. Implementations: Azure Document
// Intelligence, local Tesseract, and Gemini vision.
type OCRBackend interface {
	// Name returns the backend identifier used in config and run records
	Name() string

	// Run performs OCR on the PDF at the given path and returns both
	// artifacts. Run never writes to the canonical artifact paths; the
	// caller owns persistence.
	Run(ctx context.Context, pdfPath string) (*models.ArtifactPair, error)
}
