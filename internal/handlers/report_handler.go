package handlers

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/charta/internal/interfaces"
)

// ReportHandler serves the extracted table, chart aggregations and
// rendered report artifacts.
type ReportHandler struct {
	reportService interfaces.ReportService
	artifacts     interfaces.ArtifactStore
	logger        arbor.ILogger
}

func NewReportHandler(reportService interfaces.ReportService, artifacts interfaces.ArtifactStore, logger arbor.ILogger) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
		artifacts:     artifacts,
		logger:        logger,
	}
}

// TableHandler handles GET /api/report. A table missing visualization
// columns still returns 200 with the missing columns listed; only a
// structurally absent or unreadable table is a 404.
func (h *ReportHandler) TableHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	table, err := h.reportService.Table()
	if err != nil {
		WriteError(w, http.StatusNotFound, err.Error())
		return
	}

	rows := make([][]string, len(table.Rows))
	for i, row := range table.Rows {
		cells := make([]string, len(table.Columns))
		for j, col := range table.Columns {
			cells[j] = row.Value(col)
		}
		rows[i] = cells
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"columns":                       table.Columns,
		"rows":                          rows,
		"missing_visualization_columns": table.MissingVisualizationColumns(),
	})
}

// ChartsHandler handles GET /api/report/charts
func (h *ReportHandler) ChartsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	charts, err := h.reportService.Charts()
	if err != nil {
		WriteError(w, http.StatusNotFound, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, charts)
}

// PDFHandler handles GET /api/report/pdf, streaming the rendered report
func (h *ReportHandler) PDFHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	data, err := h.reportService.RenderPDF()
	if err != nil {
		WriteError(w, http.StatusNotFound, err.Error())
		return
	}

	filename := fmt.Sprintf("report-%s.pdf", time.Now().Format("20060102-150405"))
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Write(data)
}

// OCRPreviewHandler handles GET /api/report/ocr, the markdown artifact
// rendered to HTML
func (h *ReportHandler) OCRPreviewHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	html, err := h.reportService.OCRPreviewHTML()
	if err != nil {
		WriteError(w, http.StatusNotFound, err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(html))
}

// SearchablePDFHandler handles GET /api/artifacts/searchable.pdf,
// serving the current searchable PDF including any highlights
func (h *ReportHandler) SearchablePDFHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	path := h.artifacts.SearchablePDFPath()
	if _, err := os.Stat(path); err != nil {
		WriteError(w, http.StatusNotFound, "no searchable PDF available")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	// highlights change the file in place, never let the browser cache it
	w.Header().Set("Cache-Control", "no-store")
	http.ServeFile(w, r, path)
}
