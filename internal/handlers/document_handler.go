package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/charta/internal/interfaces"
	"github.com/ternarybob/charta/internal/models"
)

// maxUploadBytes caps the accepted PDF size at 50 MB
const maxUploadBytes = 50 << 20

// DocumentHandler accepts PDF uploads and drives them through the
// processing pipeline.
type DocumentHandler struct {
	pipeline interfaces.PipelineService
	logger   arbor.ILogger
}

func NewDocumentHandler(pipeline interfaces.PipelineService, logger arbor.ILogger) *DocumentHandler {
	return &DocumentHandler{
		pipeline: pipeline,
		logger:   logger,
	}
}

// UploadHandler handles POST /api/documents/upload. The multipart
// "file" field carries the PDF; the call blocks until the pipeline
// reaches a terminal state.
func (h *DocumentHandler) UploadHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid multipart upload: "+err.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "missing \"file\" field")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "failed to read upload: "+err.Error())
		return
	}

	h.logger.Info().
		Str("filename", header.Filename).
		Int("size", len(data)).
		Msg("Document upload received")

	run, err := h.pipeline.Process(r.Context(), header.Filename, data)
	if err != nil {
		status := http.StatusInternalServerError
		var stageErr *models.StageError
		if errors.As(err, &stageErr) && stageErr.Stage == models.StageIntake {
			status = http.StatusBadRequest
		}
		WriteStageError(w, status, err)
		return
	}

	WriteJSON(w, http.StatusOK, run)
}

// RunsHandler handles GET /api/runs, newest first
func (h *DocumentHandler) RunsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	runs, err := h.pipeline.Runs(r.Context())
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"count": len(runs),
		"runs":  runs,
	})
}
