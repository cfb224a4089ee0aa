package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/charta/internal/interfaces"
)

const defaultSchedule = "*/15 * * * *"

// Service keeps the retrieval index fresh on a cron schedule. Useful
// when the artifact directory is updated out of band; an index that
// already matches the markdown checksum makes the refresh a no-op.
type Service struct {
	retrieval    interfaces.RetrievalService
	eventService interfaces.EventService
	cron         *cron.Cron
	logger       arbor.ILogger

	mu         sync.Mutex
	running    bool
	refreshing bool
}

var _ interfaces.SchedulerService = (*Service)(nil)

// NewService creates a new scheduler service
func NewService(retrieval interfaces.RetrievalService, eventService interfaces.EventService, logger arbor.ILogger) *Service {
	return &Service{
		retrieval:    retrieval,
		eventService: eventService,
		cron:         cron.New(),
		logger:       logger,
	}
}

// Start begins the scheduler with the given cron expression
func (s *Service) Start(cronExpr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler already running")
	}
	if cronExpr == "" {
		cronExpr = defaultSchedule
	}

	if _, err := s.cron.AddFunc(cronExpr, s.refreshIndex); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", cronExpr, err)
	}

	s.cron.Start()
	s.running = true
	s.logger.Info().Str("schedule", cronExpr).Msg("Index refresh scheduler started")
	return nil
}

// refreshIndex rebuilds the retrieval index when it no longer matches
// the markdown artifact. Overlapping runs are skipped.
func (s *Service) refreshIndex() {
	s.mu.Lock()
	if s.refreshing {
		s.mu.Unlock()
		s.logger.Debug().Msg("Index refresh still running, skipping this tick")
		return
	}
	s.refreshing = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.refreshing = false
		s.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if s.retrieval.IndexReady(ctx) {
		return
	}

	start := time.Now()
	if err := s.retrieval.PrimeIndex(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("Scheduled index refresh failed")
		return
	}

	s.logger.Info().
		Str("duration", time.Since(start).Round(time.Millisecond).String()).
		Msg("Scheduled index refresh completed")

	if s.eventService != nil {
		s.eventService.Publish(ctx, interfaces.Event{Type: interfaces.EventIndexRefreshed})
	}
}

// Stop halts the scheduler, waiting for a running job to finish
func (s *Service) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.mu.Unlock()

	<-s.cron.Stop().Done()
	s.logger.Info().Msg("Index refresh scheduler stopped")
	return nil
}

// IsRunning reports whether the scheduler is active
func (s *Service) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}
