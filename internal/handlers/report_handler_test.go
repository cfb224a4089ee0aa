package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/charta/internal/interfaces"
	"github.com/ternarybob/charta/internal/models"
)

type stubReportService struct {
	table    *models.ReportTable
	tableErr error
}

func (s *stubReportService) Table() (*models.ReportTable, error) {
	return s.table, s.tableErr
}

func (s *stubReportService) Charts() (*interfaces.ChartData, error) {
	return nil, errors.New("not used")
}

func (s *stubReportService) RenderPDF() ([]byte, error) { return nil, errors.New("not used") }

func (s *stubReportService) OCRPreviewHTML() (string, error) { return "", errors.New("not used") }

func TestTableHandler(t *testing.T) {
	svc := &stubReportService{table: &models.ReportTable{
		Columns: models.FinalColumns,
		Rows: []models.ReportRow{{
			TestType:    "Biochemistry",
			Test:        "Glucose",
			Result:      "5.4",
			Unit:        "mmol/L",
			Interval:    "3.0-7.8",
			Observation: "within interval",
		}},
	}}
	h := NewReportHandler(svc, nil, arbor.NewLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/report", nil)
	rec := httptest.NewRecorder()
	h.TableHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `"Test type"`)
	assert.Contains(t, body, `["Biochemistry","Glucose","5.4","mmol/L","3.0-7.8","within interval"]`)
	assert.Contains(t, body, `"missing_visualization_columns":null`)
}

func TestTableHandlerMissingObservationStillDisplays(t *testing.T) {
	svc := &stubReportService{table: &models.ReportTable{
		Columns: models.BaseColumns,
		Rows: []models.ReportRow{{
			TestType: "Biochemistry",
			Test:     "Glucose",
			Result:   "5.4",
		}},
	}}
	h := NewReportHandler(svc, nil, arbor.NewLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/report", nil)
	rec := httptest.NewRecorder()
	h.TableHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `"Glucose"`)
	assert.Contains(t, body, `"missing_visualization_columns":["Observation"]`)
}

func TestTableHandlerUnreadable(t *testing.T) {
	svc := &stubReportService{tableErr: errors.New("stored report is not readable")}
	h := NewReportHandler(svc, nil, arbor.NewLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/report", nil)
	rec := httptest.NewRecorder()
	h.TableHandler(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
