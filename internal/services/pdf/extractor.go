// -----------------------------------------------------------------------
// PDF Extractor Service - Extract text and page images from PDF documents
// Uses pdfcpu for Go-native PDF processing
// -----------------------------------------------------------------------

package pdf

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/ternarybob/arbor"
)

// PageContent holds the extracted text of one page
type PageContent struct {
	PageNumber int // 1-based
	Text       string
}

// PageImage points at one extracted page image on disk
type PageImage struct {
	PageNumber int // 1-based
	Path       string
}

// Extractor pulls text content and raster images out of PDFs
type Extractor struct {
	logger  arbor.ILogger
	tempDir string
}

// NewExtractor creates a new PDF extractor service
func NewExtractor(logger arbor.ILogger) *Extractor {
	tempDir := filepath.Join(os.TempDir(), "charta-pdf")
	os.MkdirAll(tempDir, 0755)

	return &Extractor{
		logger:  logger,
		tempDir: tempDir,
	}
}

// PageCount returns the number of pages in the PDF at path
func (e *Extractor) PageCount(path string) (int, error) {
	pdfCtx, err := api.ReadContextFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read PDF context: %w", err)
	}
	return pdfCtx.PageCount, nil
}

// Validate checks that the file at path is a structurally sound PDF
func (e *Extractor) Validate(path string) error {
	if err := api.ValidateFile(path, model.NewDefaultConfiguration()); err != nil {
		return fmt.Errorf("PDF validation failed: %w", err)
	}
	return nil
}

// contentPageRegex matches pdfcpu's extracted content file names
var contentPageRegex = regexp.MustCompile(`Content_page_(\d+)`)

// ExtractPages extracts text content by page from the PDF at path.
// Pages with no extractable text appear with empty Text so page
// numbering stays aligned with the document.
func (e *Extractor) ExtractPages(path string) ([]PageContent, error) {
	pageCount, err := e.PageCount(path)
	if err != nil {
		return nil, err
	}

	outDir, err := os.MkdirTemp(e.tempDir, "pages_")
	if err != nil {
		return nil, fmt.Errorf("failed to create extraction dir: %w", err)
	}
	defer os.RemoveAll(outDir)

	conf := model.NewDefaultConfiguration()
	if err := api.ExtractContentFile(path, outDir, nil, conf); err != nil {
		return nil, fmt.Errorf("failed to extract PDF content: %w", err)
	}

	pageTexts := make(map[int]string)
	files, _ := os.ReadDir(outDir)
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		m := contentPageRegex.FindStringSubmatch(file.Name())
		if m == nil {
			continue
		}
		pageNum, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		content, err := os.ReadFile(filepath.Join(outDir, file.Name()))
		if err == nil {
			pageTexts[pageNum] = string(content)
		}
	}

	pages := make([]PageContent, 0, pageCount)
	for pageNum := 1; pageNum <= pageCount; pageNum++ {
		pages = append(pages, PageContent{
			PageNumber: pageNum,
			Text:       pageTexts[pageNum],
		})
	}

	return pages, nil
}

// pageImageRegex matches the page number segment of pdfcpu's extracted
// image file names (<base>_<page>_<resource>.<ext>)
var pageImageRegex = regexp.MustCompile(`_(\d+)_[^_]+\.\w+$`)

// ExtractPageImages renders the embedded page images of a scanned PDF
// into destDir and returns them ordered by page. Scanned documents
// typically carry exactly one full-page image per page.
func (e *Extractor) ExtractPageImages(path string, destDir string) ([]PageImage, error) {
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create image dir: %w", err)
	}

	conf := model.NewDefaultConfiguration()
	if err := api.ExtractImagesFile(path, destDir, nil, conf); err != nil {
		return nil, fmt.Errorf("failed to extract page images: %w", err)
	}

	var images []PageImage
	files, err := os.ReadDir(destDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read image dir: %w", err)
	}
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		m := pageImageRegex.FindStringSubmatch(file.Name())
		if m == nil {
			continue
		}
		pageNum, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		images = append(images, PageImage{
			PageNumber: pageNum,
			Path:       filepath.Join(destDir, file.Name()),
		})
	}

	sort.Slice(images, func(i, j int) bool {
		return images[i].PageNumber < images[j].PageNumber
	})

	if len(images) == 0 {
		return nil, fmt.Errorf("no page images found in PDF")
	}

	return images, nil
}
