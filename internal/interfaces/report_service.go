package interfaces

import "github.com/ternarybob/charta/internal/models"

// ChartData holds server-side aggregations over the final report table
// for the Report view.
type ChartData struct {
	// TestTypeCounts is the distribution of rows per test type
	TestTypeCounts map[string]int `json:"test_type_counts"`

	// ObservationCounts is the number of non-empty observations per test type
	ObservationCounts map[string]int `json:"observation_counts"`

	// NumericResults holds the parseable numeric results keyed by test name
	NumericResults map[string]float64 `json:"numeric_results"`
}

// ReportService exposes the extracted table, chart aggregations, and
// rendered artifacts for the Report view.
type ReportService interface {
	// Table loads and parses the final CSV artifact
	Table() (*models.ReportTable, error)

	// Charts computes aggregations; fails when the table is missing the
	// visualization columns
	Charts() (*ChartData, error)

	// RenderPDF renders the report (table plus OCR text) to a PDF
	RenderPDF() ([]byte, error)

	// OCRPreviewHTML renders the OCR markdown artifact to HTML
	OCRPreviewHTML() (string, error)
}
