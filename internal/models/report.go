package models

// Canonical report table column names. Order matters: it is the order
// the extraction passes emit and the UI displays.
const (
	ColumnTestType    = "Test type"
	ColumnTest        = "Test"
	ColumnResult      = "Result"
	ColumnUnit        = "Unit"
	ColumnInterval    = "Interval"
	ColumnObservation = "Observation"
)

// BaseColumns is the header produced by the first extraction pass
var BaseColumns = []string{ColumnTestType, ColumnTest, ColumnResult, ColumnUnit, ColumnInterval}

// FinalColumns is the header produced by the second (observation) pass
var FinalColumns = []string{ColumnTestType, ColumnTest, ColumnResult, ColumnUnit, ColumnInterval, ColumnObservation}

// visualizationColumns must be present for chart aggregations to run
var visualizationColumns = []string{ColumnTest, ColumnTestType, ColumnObservation}

// ReportRow is one extracted result line. Blank fields are permitted;
// Observation is empty until the second pass fills it in.
type ReportRow struct {
	TestType    string `json:"test_type"`
	Test        string `json:"test"`
	Result      string `json:"result"`
	Unit        string `json:"unit"`
	Interval    string `json:"interval"`
	Observation string `json:"observation"`
}

// Value returns the cell for the named canonical column. Unknown
// column names yield an empty cell.
func (r ReportRow) Value(column string) string {
	switch column {
	case ColumnTestType:
		return r.TestType
	case ColumnTest:
		return r.Test
	case ColumnResult:
		return r.Result
	case ColumnUnit:
		return r.Unit
	case ColumnInterval:
		return r.Interval
	case ColumnObservation:
		return r.Observation
	}
	return ""
}

// ReportTable is an ordered result table plus its header row. Row order
// follows source-document order; duplicate test names pass through
// untouched.
type ReportTable struct {
	Columns []string    `json:"columns"`
	Rows    []ReportRow `json:"rows"`
}

// HasColumn reports whether the table header carries the named column
func (t *ReportTable) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// MissingVisualizationColumns returns the chart-required columns absent
// from the header. A non-empty result means the table is still
// displayable but chart aggregations are disabled.
func (t *ReportTable) MissingVisualizationColumns() []string {
	var missing []string
	for _, c := range visualizationColumns {
		if !t.HasColumn(c) {
			missing = append(missing, c)
		}
	}
	return missing
}
