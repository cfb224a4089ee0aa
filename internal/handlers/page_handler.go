package handlers

import (
	"html/template"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/ternarybob/arbor"
)

// PageHandler serves the web UI templates and static assets
type PageHandler struct {
	logger    arbor.ILogger
	templates *template.Template
	pagesDir  string
}

func NewPageHandler(logger arbor.ILogger) *PageHandler {
	pagesDir := findPagesDir()
	templates := template.Must(template.ParseGlob(filepath.Join(pagesDir, "*.html")))

	return &PageHandler{
		logger:    logger,
		templates: templates,
		pagesDir:  pagesDir,
	}
}

// findPagesDir locates the pages directory relative to the binary
func findPagesDir() string {
	dirs := []string{
		"./pages",  // running from project root
		"../pages", // running from bin/
		".",        // deployed alongside the binary
	}

	for _, dir := range dirs {
		if _, err := os.Stat(filepath.Join(dir, "index.html")); err == nil {
			abs, _ := filepath.Abs(dir)
			return abs
		}
	}
	return "."
}

// ServePage creates a handler for one page template
func (h *PageHandler) ServePage(templateName string, pageName string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" && templateName == "index.html" {
			http.NotFound(w, r)
			return
		}

		data := map[string]interface{}{
			"Page": pageName,
		}
		if err := h.templates.ExecuteTemplate(w, templateName, data); err != nil {
			h.logger.Error().
				Err(err).
				Str("template", templateName).
				Msg("Failed to render page")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		}
	}
}

// StaticFileHandler serves static files (CSS, JS, images)
func (h *PageHandler) StaticFileHandler(w http.ResponseWriter, r *http.Request) {
	staticDir := filepath.Join(h.pagesDir, "static")

	path := strings.TrimPrefix(r.URL.Path, "/static/")
	fullPath := filepath.Join(staticDir, filepath.Clean("/"+path))

	if !strings.HasPrefix(fullPath, staticDir) {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, fullPath)
}
