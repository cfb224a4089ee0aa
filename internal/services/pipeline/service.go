package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/charta/internal/common"
	"github.com/ternarybob/charta/internal/interfaces"
	"github.com/ternarybob/charta/internal/models"
	"github.com/ternarybob/charta/internal/services/events"
)

var pdfMagic = []byte("%PDF")

// Service drives a document through the four pipeline stages: intake,
// OCR, extraction and index priming. One run executes at a time; a
// second upload waits for the first to reach a terminal state.
type Service struct {
	backend      interfaces.OCRBackend
	artifacts    interfaces.ArtifactStore
	extraction   interfaces.ExtractionService
	retrieval    interfaces.RetrievalService
	runStorage   interfaces.RunStorage
	eventService interfaces.EventService
	logger       arbor.ILogger

	mu    sync.Mutex
	state models.PipelineState
}

var _ interfaces.PipelineService = (*Service)(nil)

// NewService creates a new pipeline service
func NewService(
	backend interfaces.OCRBackend,
	artifacts interfaces.ArtifactStore,
	extraction interfaces.ExtractionService,
	retrieval interfaces.RetrievalService,
	runStorage interfaces.RunStorage,
	eventService interfaces.EventService,
	logger arbor.ILogger,
) *Service {
	return &Service{
		backend:      backend,
		artifacts:    artifacts,
		extraction:   extraction,
		retrieval:    retrieval,
		runStorage:   runStorage,
		eventService: eventService,
		logger:       logger,
		state:        models.StateIdle,
	}
}

// State returns the current pipeline state
func (s *Service) State() models.PipelineState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Runs returns recorded pipeline runs, newest first
func (s *Service) Runs(ctx context.Context) ([]models.PipelineRun, error) {
	return s.runStorage.List(ctx, 0)
}

// Process runs the full pipeline for an uploaded PDF
func (s *Service) Process(ctx context.Context, filename string, pdf []byte) (*models.PipelineRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	run := &models.PipelineRun{
		ID:         common.NewRunID(),
		DocumentID: common.NewDocumentID(),
		Filename:   filename,
		Backend:    s.backend.Name(),
		State:      models.StateIdle,
		StartedAt:  time.Now(),
	}

	s.logger.Info().
		Str("run_id", run.ID).
		Str("filename", filename).
		Str("backend", run.Backend).
		Msg("Pipeline run started")

	// Stage 1: intake
	intakePath, err := s.intake(filename, pdf)
	if err != nil {
		return run, s.fail(ctx, run, models.StageIntake, err)
	}
	defer os.Remove(intakePath)
	s.advance(ctx, run, models.StageIntake, models.StateIntaken, 10, "document accepted")

	// Stage 2: OCR, skipped when both artifacts already exist
	if s.artifacts.PairExists() {
		run.OcrCached = true
		s.logger.Info().Str("run_id", run.ID).Msg("OCR artifacts present, skipping OCR stage")
	} else {
		pair, err := s.backend.Run(ctx, intakePath)
		if err != nil {
			return run, s.fail(ctx, run, models.StageOCR, err)
		}
		if pair.Empty() {
			return run, s.fail(ctx, run, models.StageOCR, fmt.Errorf("backend returned an incomplete artifact pair"))
		}
		if err := s.artifacts.WritePair(pair); err != nil {
			return run, s.fail(ctx, run, models.StageOCR, err)
		}
	}
	s.advance(ctx, run, models.StageOCR, models.StateOcrDone, 45, "OCR artifacts ready")

	// Stage 3: two-pass extraction
	if _, err := s.extraction.Extract(ctx); err != nil {
		return run, s.fail(ctx, run, models.StageExtraction, err)
	}
	s.advance(ctx, run, models.StageExtraction, models.StateExtractionDone, 75, "result table extracted")

	// Stage 4: retrieval index
	if err := s.retrieval.PrimeIndex(ctx); err != nil {
		return run, s.fail(ctx, run, models.StageIndex, err)
	}
	run.MarkStage(models.StageIndex)
	run.Complete(models.StateIndexReady)
	s.state = models.StateIndexReady
	s.saveRun(ctx, run)

	s.publish(ctx, interfaces.EventPipelineCompleted, events.ProgressPayload{
		RunID:       run.ID,
		Stage:       models.StageIndex,
		State:       models.StateIndexReady,
		Percent:     100,
		Description: "retrieval index ready",
	})

	s.logger.Info().
		Str("run_id", run.ID).
		Str("duration", time.Since(run.StartedAt).Round(time.Millisecond).String()).
		Bool("ocr_cached", run.OcrCached).
		Msg("Pipeline run completed")
	return run, nil
}

// intake validates the upload and writes it to a temp file the OCR
// backend can read
func (s *Service) intake(filename string, pdf []byte) (string, error) {
	if filename == "" {
		return "", fmt.Errorf("filename is empty")
	}
	if len(pdf) == 0 {
		return "", fmt.Errorf("uploaded file is empty")
	}
	if !bytes.HasPrefix(pdf, pdfMagic) {
		return "", fmt.Errorf("uploaded file is not a PDF")
	}

	f, err := os.CreateTemp("", "charta-intake-*.pdf")
	if err != nil {
		return "", fmt.Errorf("failed to create intake file: %w", err)
	}
	if _, err := f.Write(pdf); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to write intake file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to close intake file: %w", err)
	}
	return f.Name(), nil
}

// advance records a completed stage, moves the pipeline state forward
// and publishes progress
func (s *Service) advance(ctx context.Context, run *models.PipelineRun, stage models.Stage, state models.PipelineState, percent int, description string) {
	run.MarkStage(stage)
	run.State = state
	s.state = state
	s.saveRun(ctx, run)

	s.publish(ctx, interfaces.EventPipelineProgress, events.ProgressPayload{
		RunID:       run.ID,
		Stage:       stage,
		State:       state,
		Percent:     percent,
		Description: description,
	})
}

// fail marks the run failed at the given stage and returns the stage
// error. The pipeline state records the failure; the process keeps
// serving requests.
func (s *Service) fail(ctx context.Context, run *models.PipelineRun, stage models.Stage, err error) error {
	run.Fail(stage, err)
	s.state = models.StateFailed
	s.saveRun(ctx, run)

	s.publish(ctx, interfaces.EventPipelineFailed, events.ProgressPayload{
		RunID:       run.ID,
		Stage:       stage,
		State:       models.StateFailed,
		Description: err.Error(),
	})

	s.logger.Warn().
		Str("run_id", run.ID).
		Str("stage", string(stage)).
		Err(err).
		Msg("Pipeline run failed")
	return models.NewStageError(stage, err)
}

func (s *Service) saveRun(ctx context.Context, run *models.PipelineRun) {
	if err := s.runStorage.Save(ctx, run); err != nil {
		s.logger.Warn().Str("run_id", run.ID).Err(err).Msg("Failed to persist run record")
	}
}

func (s *Service) publish(ctx context.Context, eventType interfaces.EventType, payload events.ProgressPayload) {
	if s.eventService == nil {
		return
	}
	if err := s.eventService.Publish(ctx, interfaces.Event{Type: eventType, Payload: payload}); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to publish pipeline event")
	}
}
