package extraction

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/ternarybob/charta/internal/models"
)

// StripCodeFences removes a wrapping markdown code fence from LLM
// output. Models occasionally fence CSV despite instructions; the
// content inside parses identically to bare CSV.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	lines := strings.Split(s, "\n")
	if len(lines) < 2 {
		return s
	}

	// Drop the opening fence (with optional language tag) and a
	// closing fence if present
	lines = lines[1:]
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}

	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// ParseTable parses CSV content into a ReportTable and checks the
// header against the expected column set. Ragged rows are padded or an
// error depending on severity: short rows pad with blanks, extra cells
// are a structural error.
func ParseTable(data []byte, expectedColumns []string) (*models.ReportTable, error) {
	records, err := readRecords(data)
	if err != nil {
		return nil, err
	}

	if err := checkHeader(records[0], expectedColumns); err != nil {
		return nil, err
	}

	return tableFromRecords(records, false)
}

// ParseTableLenient parses stored CSV content for display without
// enforcing the canonical header: whatever columns the file carries are
// accepted, short rows pad with blanks and extra cells are dropped.
// Only a structurally unreadable file is an error. Callers that need
// chart aggregations check MissingVisualizationColumns on the result.
func ParseTableLenient(data []byte) (*models.ReportTable, error) {
	records, err := readRecords(data)
	if err != nil {
		return nil, err
	}
	return tableFromRecords(records, true)
}

func readRecords(data []byte) ([][]string, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("CSV is empty")
	}
	return records, nil
}

func tableFromRecords(records [][]string, lenient bool) (*models.ReportTable, error) {
	header := records[0]
	table := &models.ReportTable{Columns: append([]string(nil), header...)}
	for i, record := range records[1:] {
		if len(record) > len(header) {
			if !lenient {
				return nil, fmt.Errorf("row %d has %d fields, header has %d", i+2, len(record), len(header))
			}
			record = record[:len(header)]
		}
		for len(record) < len(header) {
			record = append(record, "")
		}
		table.Rows = append(table.Rows, rowFromRecord(header, record))
	}
	return table, nil
}

// checkHeader requires the exact expected column set in order
func checkHeader(header, expected []string) error {
	if len(header) != len(expected) {
		return fmt.Errorf("expected %d columns %v, got %d: %v", len(expected), expected, len(header), header)
	}
	for i, col := range expected {
		if strings.TrimSpace(header[i]) != col {
			return fmt.Errorf("column %d: expected %q, got %q", i+1, col, header[i])
		}
	}
	return nil
}

// rowFromRecord maps a CSV record onto a ReportRow by column name
func rowFromRecord(header, record []string) models.ReportRow {
	var row models.ReportRow
	for i, col := range header {
		value := record[i]
		switch strings.TrimSpace(col) {
		case models.ColumnTestType:
			row.TestType = value
		case models.ColumnTest:
			row.Test = value
		case models.ColumnResult:
			row.Result = value
		case models.ColumnUnit:
			row.Unit = value
		case models.ColumnInterval:
			row.Interval = value
		case models.ColumnObservation:
			row.Observation = value
		}
	}
	return row
}

// EncodeTable renders a ReportTable back to CSV bytes
func EncodeTable(table *models.ReportTable) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(table.Columns); err != nil {
		return nil, err
	}

	hasObservation := table.HasColumn(models.ColumnObservation)
	for _, row := range table.Rows {
		record := []string{row.TestType, row.Test, row.Result, row.Unit, row.Interval}
		if hasObservation {
			record = append(record, row.Observation)
		}
		if err := writer.Write(record); err != nil {
			return nil, err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
