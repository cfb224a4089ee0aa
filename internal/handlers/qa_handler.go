package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/charta/internal/interfaces"
	"github.com/ternarybob/charta/internal/models"
)

// QAHandler answers questions about the processed document via the
// retrieval service.
type QAHandler struct {
	retrieval interfaces.RetrievalService
	logger    arbor.ILogger
}

func NewQAHandler(retrieval interfaces.RetrievalService, logger arbor.ILogger) *QAHandler {
	return &QAHandler{
		retrieval: retrieval,
		logger:    logger,
	}
}

type qaRequest struct {
	Question string `json:"question"`
}

// AskHandler handles POST /api/qa
func (h *QAHandler) AskHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req qaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		WriteError(w, http.StatusBadRequest, "question is empty")
		return
	}

	start := time.Now()
	answer, err := h.retrieval.Answer(r.Context(), req.Question)
	if err != nil {
		WriteStageError(w, http.StatusInternalServerError, models.NewQaError(err))
		return
	}

	h.logger.Info().
		Str("duration", time.Since(start).Round(time.Millisecond).String()).
		Msg("Question answered")

	WriteJSON(w, http.StatusOK, map[string]string{
		"question": req.Question,
		"answer":   answer,
	})
}
