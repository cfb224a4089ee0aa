package search

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/charta/internal/interfaces"
	"github.com/ternarybob/charta/internal/models"
	"github.com/ternarybob/charta/internal/services/pdf"
)

// highlightDesc styles the page stamp applied to matching pages:
// a translucent gold banner across the top of the page.
const highlightDesc = "font:Helvetica, points:18, pos:tc, off:0 -14, fillcolor:#b8860b, op:0.45, rot:0, scale:1 abs"

// Service searches the searchable PDF for a keyword, stamps matching
// pages, and maintains the paging cursor over the distinct matching
// page numbers. One search is active at a time; a new Find replaces
// both the highlights and the result set.
type Service struct {
	artifacts interfaces.ArtifactStore
	extractor *pdf.Extractor
	logger    arbor.ILogger

	mu      sync.Mutex
	state   *models.SearchResultSet
	stamped bool
}

var _ interfaces.SearchService = (*Service)(nil)

// NewService creates a new search service
func NewService(artifacts interfaces.ArtifactStore, extractor *pdf.Extractor, logger arbor.ILogger) *Service {
	return &Service{
		artifacts: artifacts,
		extractor: extractor,
		logger:    logger,
	}
}

// Find searches page text for the keyword (case-sensitive) and stamps
// every matching page in the searchable PDF
func (s *Service) Find(keyword string) (*models.SearchResultSet, error) {
	if strings.TrimSpace(keyword) == "" {
		return nil, models.NewSearchError(fmt.Errorf("keyword is empty"))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.artifacts.SearchablePDFPath()
	if _, err := os.Stat(path); err != nil {
		return nil, models.NewSearchError(fmt.Errorf("no searchable PDF to search: %w", err))
	}

	// drop highlights from any previous search first
	if err := s.clearLocked(); err != nil {
		return nil, err
	}

	pages, err := s.extractor.ExtractPages(path)
	if err != nil {
		return nil, models.NewSearchError(fmt.Errorf("failed to extract page text: %w", err))
	}

	var matching []int
	for _, page := range pages {
		if strings.Contains(page.Text, keyword) {
			matching = append(matching, page.PageNumber)
		}
	}

	s.state = &models.SearchResultSet{Keyword: keyword, Pages: matching, Cursor: 0}

	if len(matching) == 0 {
		s.logger.Info().Str("keyword", keyword).Msg("Search found no matching pages")
		return s.state, nil
	}

	if err := s.stampPages(path, keyword, matching); err != nil {
		s.state = nil
		return nil, err
	}
	s.stamped = true

	s.logger.Info().
		Str("keyword", keyword).
		Int("pages", len(matching)).
		Msg("Search highlighted matching pages")
	return s.state, nil
}

// stampPages writes the highlight watermark onto the matching pages,
// replacing the searchable PDF atomically
func (s *Service) stampPages(path, keyword string, pages []int) error {
	selected := make([]string, len(pages))
	for i, p := range pages {
		selected[i] = strconv.Itoa(p)
	}

	tmp := path + ".tmp"
	text := fmt.Sprintf("MATCH: %s", keyword)
	if err := api.AddTextWatermarksFile(path, tmp, selected, true, text, highlightDesc, model.NewDefaultConfiguration()); err != nil {
		os.Remove(tmp)
		return models.NewSearchError(fmt.Errorf("failed to stamp matching pages: %w", err))
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return models.NewSearchError(fmt.Errorf("failed to replace searchable PDF: %w", err))
	}
	return nil
}

// Next advances the result cursor
func (s *Service) Next() *models.SearchResultSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Next()
	return s.state
}

// Prev moves the result cursor back
func (s *Service) Prev() *models.SearchResultSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Prev()
	return s.state
}

// State returns the active result set, nil when no search is active
func (s *Service) State() *models.SearchResultSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Clear removes all highlights and empties the result set
func (s *Service) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.clearLocked(); err != nil {
		return err
	}
	s.state = nil
	return nil
}

// clearLocked strips highlight watermarks from the searchable PDF.
// Caller holds the mutex. The stamped flag only tracks this process;
// highlights persisted to disk before a restart are detected and
// removed too.
func (s *Service) clearLocked() error {
	path := s.artifacts.SearchablePDFPath()
	if _, err := os.Stat(path); err != nil {
		s.stamped = false
		return nil
	}

	if !s.stamped {
		has, err := api.HasWatermarksFile(path, model.NewDefaultConfiguration())
		if err != nil {
			s.logger.Warn().Err(err).Msg("Could not check searchable PDF for highlights")
			return nil
		}
		if !has {
			return nil
		}
	}

	tmp := path + ".tmp"
	if err := api.RemoveWatermarksFile(path, tmp, nil, model.NewDefaultConfiguration()); err != nil {
		os.Remove(tmp)
		return models.NewSearchError(fmt.Errorf("failed to remove highlights: %w", err))
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return models.NewSearchError(fmt.Errorf("failed to replace searchable PDF: %w", err))
	}

	s.stamped = false
	s.logger.Debug().Msg("Search highlights cleared")
	return nil
}
