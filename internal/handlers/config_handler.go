package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/charta/internal/common"
)

// ConfigHandler exposes the resolved configuration, with secrets masked
type ConfigHandler struct {
	config *common.Config
	logger arbor.ILogger
}

func NewConfigHandler(config *common.Config, logger arbor.ILogger) *ConfigHandler {
	return &ConfigHandler{
		config: config,
		logger: logger,
	}
}

// GetConfigHandler handles GET /api/config
func (h *ConfigHandler) GetConfigHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	c := h.config
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"server": map[string]interface{}{
			"host": c.Server.Host,
			"port": c.Server.Port,
		},
		"logging": map[string]interface{}{
			"level": c.Logging.Level,
		},
		"ocr": map[string]interface{}{
			"backend":           c.OCR.Backend,
			"docintel_endpoint": c.OCR.DocIntel.Endpoint,
			"docintel_api_key":  mask(c.OCR.DocIntel.APIKey),
			"tesseract_langs":   c.OCR.Tesseract.Languages,
			"vision_model":      c.OCR.Vision.Model,
		},
		"extraction": map[string]interface{}{
			"model":       c.Extraction.Model,
			"temperature": c.Extraction.Temperature,
		},
		"retrieval": map[string]interface{}{
			"chunk_size":    c.Retrieval.ChunkSize,
			"chunk_overlap": c.Retrieval.ChunkOverlap,
			"top_k":         c.Retrieval.TopK,
			"answer_model":  c.Retrieval.AnswerModel,
		},
		"gemini_api_key":    mask(c.Gemini.APIKey),
		"anthropic_api_key": mask(c.Claude.APIKey),
		"processing": map[string]interface{}{
			"enabled":  c.Processing.Enabled,
			"schedule": c.Processing.Schedule,
		},
	})
}

// mask hides a secret, keeping only enough to confirm one is set
func mask(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 8 {
		return "****"
	}
	return secret[:4] + "****"
}
