package ocr

import (
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/charta/internal/common"
	"github.com/ternarybob/charta/internal/interfaces"
	"github.com/ternarybob/charta/internal/services/llm"
	"github.com/ternarybob/charta/internal/services/pdf"
)

// Backend identifiers accepted in config
const (
	BackendDocIntel  = "docintel"
	BackendTesseract = "tesseract"
	BackendVision    = "vision"
)

// NewBackend builds the configured OCR backend. An unusable
// configuration (unknown name, docintel without endpoint/key) is a
// construction error so it surfaces at startup, not mid-pipeline.
func NewBackend(
	config *common.Config,
	extractor *pdf.Extractor,
	pdfService *pdf.Service,
	providers *llm.ProviderFactory,
	logger arbor.ILogger,
) (interfaces.OCRBackend, error) {
	switch config.OCR.Backend {
	case BackendDocIntel:
		return NewDocIntelBackend(&config.OCR.DocIntel, logger)
	case BackendTesseract:
		return NewTesseractBackend(&config.OCR.Tesseract, extractor, pdfService, logger), nil
	case BackendVision:
		return NewVisionBackend(&config.OCR.Vision, providers, pdfService, logger), nil
	default:
		return nil, fmt.Errorf("unknown OCR backend: %q (expected %s, %s or %s)",
			config.OCR.Backend, BackendDocIntel, BackendTesseract, BackendVision)
	}
}
