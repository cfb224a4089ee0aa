package ocr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/charta/internal/common"
	"github.com/ternarybob/charta/internal/services/pdf"
)

func TestAssemblePageMarkdown(t *testing.T) {
	markdown := assemblePageMarkdown([]string{"first page", "second page"})

	assert.Contains(t, markdown, "## Page 1\n\nfirst page")
	assert.Contains(t, markdown, "## Page 2\n\nsecond page")
}

func TestAssemblePageMarkdownKeepsErrorMarkers(t *testing.T) {
	markdown := assemblePageMarkdown([]string{"ok", "[OCR failed for this page: boom]"})

	// Degraded pages stay in the artifact with their marker text
	assert.Contains(t, markdown, "## Page 2")
	assert.Contains(t, markdown, "[OCR failed for this page: boom]")
}

func TestSplitPageSections(t *testing.T) {
	markdown := "## Page 1\n\nalpha\n\n## Page 2\n\nbeta"

	pages := splitPageSections(markdown)
	require.Len(t, pages, 2)
	assert.Equal(t, "alpha", pages[0])
	assert.Equal(t, "beta", pages[1])
}

func TestSplitPageSectionsWithoutHeadings(t *testing.T) {
	pages := splitPageSections("no headings at all")
	require.Len(t, pages, 1)
	assert.Equal(t, "no headings at all", pages[0])
}

func TestNewBackendRejectsUnknownName(t *testing.T) {
	config := common.NewDefaultConfig()
	config.OCR.Backend = "carrier-pigeon"

	logger := arbor.NewLogger()
	_, err := NewBackend(config, pdf.NewExtractor(logger), pdf.NewService(logger), nil, logger)
	assert.Error(t, err)
}

func TestNewBackendTesseract(t *testing.T) {
	config := common.NewDefaultConfig()
	config.OCR.Backend = BackendTesseract

	logger := arbor.NewLogger()
	backend, err := NewBackend(config, pdf.NewExtractor(logger), pdf.NewService(logger), nil, logger)
	require.NoError(t, err)
	assert.Equal(t, BackendTesseract, backend.Name())
}
