package app

import (
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/charta/internal/common"
	"github.com/ternarybob/charta/internal/handlers"
	"github.com/ternarybob/charta/internal/interfaces"
	"github.com/ternarybob/charta/internal/services/artifacts"
	"github.com/ternarybob/charta/internal/services/events"
	"github.com/ternarybob/charta/internal/services/extraction"
	"github.com/ternarybob/charta/internal/services/llm"
	"github.com/ternarybob/charta/internal/services/ocr"
	"github.com/ternarybob/charta/internal/services/pdf"
	"github.com/ternarybob/charta/internal/services/pipeline"
	"github.com/ternarybob/charta/internal/services/rag"
	"github.com/ternarybob/charta/internal/services/report"
	"github.com/ternarybob/charta/internal/services/scheduler"
	"github.com/ternarybob/charta/internal/services/search"
	"github.com/ternarybob/charta/internal/storage"
)

// App holds all initialized services and handlers
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	// Infrastructure
	StorageManager interfaces.StorageManager
	EventService   interfaces.EventService

	// Services
	LLMService        *llm.Service
	ArtifactStore     interfaces.ArtifactStore
	Extractor         *pdf.Extractor
	PDFService        *pdf.Service
	OCRBackend        interfaces.OCRBackend
	ExtractionService interfaces.ExtractionService
	RetrievalService  interfaces.RetrievalService
	SearchService     interfaces.SearchService
	PipelineService   interfaces.PipelineService
	ReportService     interfaces.ReportService
	SchedulerService  interfaces.SchedulerService

	// Handlers
	PageHandler     *handlers.PageHandler
	WSHandler       *handlers.WebSocketHandler
	DocumentHandler *handlers.DocumentHandler
	ReportHandler   *handlers.ReportHandler
	SearchHandler   *handlers.SearchHandler
	QAHandler       *handlers.QAHandler
	StatusHandler   *handlers.StatusHandler
	ConfigHandler   *handlers.ConfigHandler
}

// New initializes the application: storage first, then services in
// dependency order, then handlers.
func New(config *common.Config, logger arbor.ILogger) (*App, error) {
	a := &App{
		Config: config,
		Logger: logger,
	}

	storageManager, err := storage.NewStorageManager(logger, config)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	a.StorageManager = storageManager

	a.EventService = events.NewService(logger)

	a.LLMService = llm.NewService(config, storageManager.KeyValue(), logger)

	artifactStore, err := artifacts.NewStore(&config.Artifacts, logger)
	if err != nil {
		storageManager.Close()
		return nil, fmt.Errorf("failed to initialize artifact store: %w", err)
	}
	a.ArtifactStore = artifactStore

	a.Extractor = pdf.NewExtractor(logger)
	a.PDFService = pdf.NewService(logger)

	backend, err := ocr.NewBackend(config, a.Extractor, a.PDFService, a.LLMService.Providers(), logger)
	if err != nil {
		storageManager.Close()
		return nil, fmt.Errorf("failed to initialize OCR backend: %w", err)
	}
	a.OCRBackend = backend

	a.ExtractionService = extraction.NewService(&config.Extraction, a.LLMService, artifactStore, logger)
	a.RetrievalService = rag.NewService(&config.Retrieval, a.LLMService, artifactStore, storageManager.Chunks(), logger)
	a.SearchService = search.NewService(artifactStore, a.Extractor, logger)
	a.PipelineService = pipeline.NewService(backend, artifactStore, a.ExtractionService, a.RetrievalService, storageManager.Runs(), a.EventService, logger)
	a.ReportService = report.NewService(artifactStore, a.PDFService, logger)

	a.SchedulerService = scheduler.NewService(a.RetrievalService, a.EventService, logger)
	if config.Processing.Enabled {
		if err := a.SchedulerService.Start(config.Processing.Schedule); err != nil {
			logger.Warn().Err(err).Msg("Failed to start index refresh scheduler")
		}
	}

	a.PageHandler = handlers.NewPageHandler(logger)
	a.WSHandler = handlers.NewWebSocketHandler(a.EventService, logger)
	a.DocumentHandler = handlers.NewDocumentHandler(a.PipelineService, logger)
	a.ReportHandler = handlers.NewReportHandler(a.ReportService, artifactStore, logger)
	a.SearchHandler = handlers.NewSearchHandler(a.SearchService, logger)
	a.QAHandler = handlers.NewQAHandler(a.RetrievalService, logger)
	a.StatusHandler = handlers.NewStatusHandler(config, a.PipelineService, artifactStore, a.RetrievalService, a.SearchService, logger)
	a.ConfigHandler = handlers.NewConfigHandler(config, logger)

	logger.Info().
		Str("ocr_backend", config.OCR.Backend).
		Str("artifacts_dir", config.Artifacts.Dir).
		Msg("Application initialized")
	return a, nil
}

// Close releases resources in reverse initialization order
func (a *App) Close() {
	if a.SchedulerService != nil && a.SchedulerService.IsRunning() {
		if err := a.SchedulerService.Stop(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to stop scheduler")
		}
	}

	if a.EventService != nil {
		if err := a.EventService.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close event service")
		}
	}

	if a.LLMService != nil {
		if err := a.LLMService.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close LLM service")
		}
	}

	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close storage")
		}
	}

	a.Logger.Info().Msg("Application closed")
}
