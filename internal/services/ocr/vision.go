package ocr

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/charta/internal/common"
	"github.com/ternarybob/charta/internal/interfaces"
	"github.com/ternarybob/charta/internal/models"
	"github.com/ternarybob/charta/internal/services/llm"
	"github.com/ternarybob/charta/internal/services/pdf"
	"google.golang.org/genai"
)

const visionPrompt = `Transcribe this scanned document to markdown, preserving its layout
as closely as possible. Render tables as markdown tables. Start each
page with a "## Page N" heading where N is the 1-based page number.
Output only the markdown, no commentary.`

// VisionBackend OCRs a document by sending the whole PDF to a Gemini
// multimodal model with a transcription prompt. The searchable PDF
// artifact is synthesized from the transcribed page sections.
type VisionBackend struct {
	model      string
	providers  *llm.ProviderFactory
	pdfService *pdf.Service
	logger     arbor.ILogger
}

var _ interfaces.OCRBackend = (*VisionBackend)(nil)

// NewVisionBackend creates the Gemini vision backend
func NewVisionBackend(config *common.VisionConfig, providers *llm.ProviderFactory, pdfService *pdf.Service, logger arbor.ILogger) *VisionBackend {
	model := config.Model
	if model == "" {
		model = "gemini-2.5-flash"
	}

	return &VisionBackend{
		model:      model,
		providers:  providers,
		pdfService: pdfService,
		logger:     logger,
	}
}

// Name returns the backend identifier
func (b *VisionBackend) Name() string { return BackendVision }

// Run transcribes the PDF and assembles both artifacts
func (b *VisionBackend) Run(ctx context.Context, pdfPath string) (*models.ArtifactPair, error) {
	pdfBytes, err := os.ReadFile(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read source PDF: %w", err)
	}

	client, err := b.providers.GetGeminiClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("vision backend unavailable: %w", err)
	}

	b.logger.Info().
		Str("model", b.model).
		Int("pdf_bytes", len(pdfBytes)).
		Msg("Transcribing document with vision model")

	parts := []*genai.Part{
		genai.NewPartFromBytes(pdfBytes, "application/pdf"),
		genai.NewPartFromText(visionPrompt),
	}
	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	resp, err := client.Models.GenerateContent(ctx, b.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("vision transcription failed: %w", err)
	}

	markdown := strings.TrimSpace(resp.Text())
	if markdown == "" {
		return nil, fmt.Errorf("vision transcription returned no text")
	}

	pageTexts := splitPageSections(markdown)

	searchablePDF, err := b.pdfService.BuildTextPDF(pageTexts)
	if err != nil {
		return nil, fmt.Errorf("failed to build searchable PDF: %w", err)
	}

	return &models.ArtifactPair{
		Markdown:      []byte(markdown),
		SearchablePDF: searchablePDF,
	}, nil
}

// pageHeadingRegex matches the per-page section headings the
// transcription prompt asks for
var pageHeadingRegex = regexp.MustCompile(`(?m)^## Page \d+\s*$`)

// splitPageSections breaks the transcribed markdown back into per-page
// text. A transcription without page headings becomes a single page.
func splitPageSections(markdown string) []string {
	locations := pageHeadingRegex.FindAllStringIndex(markdown, -1)
	if len(locations) == 0 {
		return []string{markdown}
	}

	var pages []string
	for i, loc := range locations {
		end := len(markdown)
		if i+1 < len(locations) {
			end = locations[i+1][0]
		}
		section := markdown[loc[1]:end]
		pages = append(pages, strings.TrimSpace(section))
	}
	return pages
}
