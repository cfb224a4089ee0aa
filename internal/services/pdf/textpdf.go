package pdf

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"
)

// BuildTextPDF synthesizes a selectable-text PDF from per-page OCR text,
// one document page per input page. OCR backends that only produce raw
// text (tesseract, vision) use this to satisfy the searchable-PDF
// artifact; the page numbering matches the source document so keyword
// search results map back correctly.
func (s *Service) BuildTextPDF(pages []string) ([]byte, error) {
	if len(pages) == 0 {
		return nil, fmt.Errorf("no pages to render")
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	// Page breaks stay disabled so artifact page N always maps to
	// source page N
	pdf.SetAutoPageBreak(false, 0)

	for i, pageText := range pages {
		pdf.AddPage()
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(0, 6, fmt.Sprintf("Page %d", i+1), "", 1, "L", false, 0, "")
		pdf.Ln(2)
		pdf.SetFont("Arial", "", 9)
		pdf.MultiCell(0, 5, pageText, "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render text PDF: %w", err)
	}

	s.logger.Debug().
		Int("pages", len(pages)).
		Int("pdf_size", buf.Len()).
		Msg("Synthesized searchable text PDF")

	return buf.Bytes(), nil
}
