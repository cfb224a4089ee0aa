package handlers

import (
	"net/http"
	"os"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/charta/internal/common"
	"github.com/ternarybob/charta/internal/interfaces"
)

// StatusHandler reports application health and pipeline state
type StatusHandler struct {
	config    *common.Config
	pipeline  interfaces.PipelineService
	artifacts interfaces.ArtifactStore
	retrieval interfaces.RetrievalService
	search    interfaces.SearchService
	startedAt time.Time
	logger    arbor.ILogger
}

func NewStatusHandler(
	config *common.Config,
	pipeline interfaces.PipelineService,
	artifacts interfaces.ArtifactStore,
	retrieval interfaces.RetrievalService,
	search interfaces.SearchService,
	logger arbor.ILogger,
) *StatusHandler {
	return &StatusHandler{
		config:    config,
		pipeline:  pipeline,
		artifacts: artifacts,
		retrieval: retrieval,
		search:    search,
		startedAt: time.Now(),
		logger:    logger,
	}
}

// GetStatusHandler handles GET /api/status
func (h *StatusHandler) GetStatusHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	_, finalErr := os.Stat(h.artifacts.FinalCSVPath())

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"version":        common.GetVersion(),
		"uptime":         time.Since(h.startedAt).Round(time.Second).String(),
		"pipeline_state": h.pipeline.State(),
		"ocr_backend":    h.config.OCR.Backend,
		"artifacts": map[string]bool{
			"ocr_pair":  h.artifacts.PairExists(),
			"final_csv": finalErr == nil,
		},
		"index_ready":   h.retrieval.IndexReady(r.Context()),
		"search_active": h.search.State() != nil,
		"goroutines":    common.GetGoroutineCount(),
	})
}

// HealthHandler handles GET /api/health
func (h *StatusHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// VersionHandler handles GET /api/version
func (h *StatusHandler) VersionHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"version": common.GetVersion(),
		"build":   common.GetBuild(),
		"commit":  common.GetGitCommit(),
	})
}
