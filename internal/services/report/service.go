package report

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/ternarybob/charta/internal/interfaces"
	"github.com/ternarybob/charta/internal/models"
	"github.com/ternarybob/charta/internal/services/extraction"
)

// Service serves the Report view: the extracted table, chart
// aggregations over it, and rendered artifacts.
type Service struct {
	artifacts  interfaces.ArtifactStore
	pdfService interfaces.PDFService
	markdown   goldmark.Markdown
	logger     arbor.ILogger
}

var _ interfaces.ReportService = (*Service)(nil)

// NewService creates a new report service
func NewService(artifacts interfaces.ArtifactStore, pdfService interfaces.PDFService, logger arbor.ILogger) *Service {
	return &Service{
		artifacts:  artifacts,
		pdfService: pdfService,
		markdown:   goldmark.New(goldmark.WithExtensions(extension.GFM)),
		logger:     logger,
	}
}

// Table loads the final CSV artifact for display. The stored header is
// accepted as-is: a table missing visualization columns still displays,
// only chart aggregations are gated on them. A structurally unreadable
// file is the only hard error.
func (s *Service) Table() (*models.ReportTable, error) {
	data, err := s.artifacts.ReadFinalCSV()
	if err != nil {
		return nil, fmt.Errorf("no extracted report available: %w", err)
	}
	table, err := extraction.ParseTableLenient(data)
	if err != nil {
		return nil, fmt.Errorf("stored report is not readable: %w", err)
	}
	if missing := table.MissingVisualizationColumns(); len(missing) > 0 {
		s.logger.Warn().Strs("columns", missing).Msg("Report table is missing visualization columns")
	}
	return table, nil
}

// Charts computes the aggregations behind the Report view's charts
func (s *Service) Charts() (*interfaces.ChartData, error) {
	table, err := s.Table()
	if err != nil {
		return nil, err
	}

	if missing := table.MissingVisualizationColumns(); len(missing) > 0 {
		return nil, fmt.Errorf("report table is missing columns required for charts: %s", strings.Join(missing, ", "))
	}

	charts := &interfaces.ChartData{
		TestTypeCounts:    make(map[string]int),
		ObservationCounts: make(map[string]int),
		NumericResults:    make(map[string]float64),
	}

	for _, row := range table.Rows {
		charts.TestTypeCounts[row.TestType]++

		if strings.TrimSpace(row.Observation) != "" {
			charts.ObservationCounts[row.TestType]++
		}

		if v, err := parseNumericResult(row.Result); err == nil {
			charts.NumericResults[row.Test] = v
		}
	}
	return charts, nil
}

// parseNumericResult parses a result value, tolerating common
// qualifiers like "<5.5" or trailing annotations
func parseNumericResult(result string) (float64, error) {
	cleaned := strings.TrimSpace(result)
	cleaned = strings.TrimLeft(cleaned, "<>~")
	if i := strings.IndexAny(cleaned, " ("); i > 0 {
		cleaned = cleaned[:i]
	}
	return strconv.ParseFloat(cleaned, 64)
}

// RenderPDF renders the extracted table and OCR text into one PDF
func (s *Service) RenderPDF() ([]byte, error) {
	table, err := s.Table()
	if err != nil {
		return nil, err
	}

	var md strings.Builder
	md.WriteString("# Report\n\n")
	md.WriteString(tableMarkdown(table))

	if ocr, err := s.artifacts.ReadMarkdown(); err == nil {
		md.WriteString("\n\n# Source Text\n\n")
		md.Write(ocr)
	}

	return s.pdfService.ConvertMarkdownToPDF(md.String(), "Report")
}

// tableMarkdown renders the table as a GFM pipe table
func tableMarkdown(table *models.ReportTable) string {
	var sb strings.Builder

	sb.WriteString("| " + strings.Join(table.Columns, " | ") + " |\n")
	sb.WriteString("|" + strings.Repeat(" --- |", len(table.Columns)) + "\n")
	for _, row := range table.Rows {
		cells := make([]string, len(table.Columns))
		for i, col := range table.Columns {
			cells[i] = strings.ReplaceAll(row.Value(col), "|", "\\|")
		}
		sb.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
	return sb.String()
}

// OCRPreviewHTML renders the OCR markdown artifact to HTML
func (s *Service) OCRPreviewHTML() (string, error) {
	markdown, err := s.artifacts.ReadMarkdown()
	if err != nil {
		return "", fmt.Errorf("no OCR text available: %w", err)
	}

	var buf bytes.Buffer
	if err := s.markdown.Convert(markdown, &buf); err != nil {
		return "", fmt.Errorf("failed to render OCR preview: %w", err)
	}
	return buf.String(), nil
}
