package server

import (
	"net/http"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// UI
	mux.HandleFunc("/", s.app.PageHandler.ServePage("index.html", "home"))
	mux.HandleFunc("/static/", s.app.PageHandler.StaticFileHandler)

	// WebSocket route
	mux.HandleFunc("/ws", s.app.WSHandler.HandleWebSocket)

	// API routes - Documents and pipeline
	mux.HandleFunc("/api/documents/upload", s.app.DocumentHandler.UploadHandler) // POST
	mux.HandleFunc("/api/runs", s.app.DocumentHandler.RunsHandler)               // GET

	// API routes - Report view
	mux.HandleFunc("/api/report", s.app.ReportHandler.TableHandler)           // GET
	mux.HandleFunc("/api/report/charts", s.app.ReportHandler.ChartsHandler)   // GET
	mux.HandleFunc("/api/report/pdf", s.app.ReportHandler.PDFHandler)         // GET
	mux.HandleFunc("/api/report/ocr", s.app.ReportHandler.OCRPreviewHandler)  // GET

	// API routes - Triage view (keyword search over the searchable PDF)
	mux.HandleFunc("/api/search", s.app.SearchHandler.FindHandler)        // POST
	mux.HandleFunc("/api/search/next", s.app.SearchHandler.NextHandler)   // POST
	mux.HandleFunc("/api/search/prev", s.app.SearchHandler.PrevHandler)   // POST
	mux.HandleFunc("/api/search/clear", s.app.SearchHandler.ClearHandler) // POST
	mux.HandleFunc("/api/search/state", s.app.SearchHandler.StateHandler) // GET

	// API routes - Artifacts
	mux.HandleFunc("/api/artifacts/searchable.pdf", s.app.ReportHandler.SearchablePDFHandler) // GET

	// API routes - Q&A
	mux.HandleFunc("/api/qa", s.app.QAHandler.AskHandler) // POST

	// API routes - System
	mux.HandleFunc("/api/status", s.app.StatusHandler.GetStatusHandler) // GET
	mux.HandleFunc("/api/health", s.app.StatusHandler.HealthHandler)    // GET
	mux.HandleFunc("/api/version", s.app.StatusHandler.VersionHandler)  // GET
	mux.HandleFunc("/api/config", s.app.ConfigHandler.GetConfigHandler) // GET

	return mux
}
