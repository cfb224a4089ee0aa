package ocr

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/otiai10/gosseract/v2"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/charta/internal/common"
	"github.com/ternarybob/charta/internal/interfaces"
	"github.com/ternarybob/charta/internal/models"
	"github.com/ternarybob/charta/internal/services/pdf"
	"golang.org/x/sync/errgroup"
)

// TesseractBackend OCRs a scanned PDF locally: page images are pulled
// out of the PDF and recognized concurrently by a bounded worker pool.
// A page that fails recognition degrades to an error marker instead of
// aborting the batch, so one bad scan never loses the document.
type TesseractBackend struct {
	languages  []string
	workers    int
	extractor  *pdf.Extractor
	pdfService *pdf.Service
	logger     arbor.ILogger
}

var _ interfaces.OCRBackend = (*TesseractBackend)(nil)

// NewTesseractBackend creates the local Tesseract backend
func NewTesseractBackend(config *common.TesseractConfig, extractor *pdf.Extractor, pdfService *pdf.Service, logger arbor.ILogger) *TesseractBackend {
	languages := config.Languages
	if len(languages) == 0 {
		languages = []string{"eng"}
	}
	workers := config.Workers
	if workers <= 0 {
		workers = 4
	}

	return &TesseractBackend{
		languages:  languages,
		workers:    workers,
		extractor:  extractor,
		pdfService: pdfService,
		logger:     logger,
	}
}

// Name returns the backend identifier
func (b *TesseractBackend) Name() string { return BackendTesseract }

// Run performs per-page OCR and assembles both artifacts
func (b *TesseractBackend) Run(ctx context.Context, pdfPath string) (*models.ArtifactPair, error) {
	imageDir, err := os.MkdirTemp("", "charta-ocr-")
	if err != nil {
		return nil, fmt.Errorf("failed to create OCR work dir: %w", err)
	}
	defer os.RemoveAll(imageDir)

	images, err := b.extractor.ExtractPageImages(pdfPath, imageDir)
	if err != nil {
		return nil, fmt.Errorf("failed to extract page images: %w", err)
	}

	b.logger.Info().
		Int("pages", len(images)).
		Int("workers", b.workers).
		Msg("Running Tesseract OCR")

	// Results are collected by slot so concurrent completion order
	// never reorders pages
	pageTexts := make([]string, len(images))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)

	for i, img := range images {
		i, img := i, img
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			text, err := b.recognizePage(img.Path)
			if err != nil {
				// Degrade, don't abort: a failed page keeps its slot
				b.logger.Warn().
					Err(err).
					Int("page", img.PageNumber).
					Msg("Page OCR failed, inserting error marker")
				pageTexts[i] = fmt.Sprintf("[OCR failed for this page: %v]", err)
				return nil
			}

			pageTexts[i] = text
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	markdown := assemblePageMarkdown(pageTexts)

	searchablePDF, err := b.pdfService.BuildTextPDF(pageTexts)
	if err != nil {
		return nil, fmt.Errorf("failed to build searchable PDF: %w", err)
	}

	return &models.ArtifactPair{
		Markdown:      []byte(markdown),
		SearchablePDF: searchablePDF,
	}, nil
}

// recognizePage OCRs a single page image. Each call uses its own
// gosseract client; the underlying Tesseract API is not safe for
// concurrent use on one handle.
func (b *TesseractBackend) recognizePage(imagePath string) (string, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(b.languages...); err != nil {
		return "", fmt.Errorf("failed to set OCR language: %w", err)
	}
	if err := client.SetImage(imagePath); err != nil {
		return "", fmt.Errorf("failed to load page image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("recognition failed: %w", err)
	}

	return strings.TrimSpace(text), nil
}

// assemblePageMarkdown joins per-page text into the markdown artifact
// with a section per page
func assemblePageMarkdown(pageTexts []string) string {
	var builder strings.Builder
	for i, text := range pageTexts {
		if i > 0 {
			builder.WriteString("\n\n")
		}
		builder.WriteString(fmt.Sprintf("## Page %d\n\n", i+1))
		builder.WriteString(text)
	}
	return builder.String()
}
