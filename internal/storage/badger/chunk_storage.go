package badger

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/charta/internal/interfaces"
	"github.com/ternarybob/charta/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// ChunkStorage implements the ChunkStorage interface for Badger
type ChunkStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewChunkStorage creates a new ChunkStorage instance
func NewChunkStorage(db *BadgerDB, logger arbor.ILogger) interfaces.ChunkStorage {
	return &ChunkStorage{
		db:     db,
		logger: logger,
	}
}

// Replace atomically swaps the chunk set. Stale chunks from previous
// document versions are removed in the same pass.
func (s *ChunkStorage) Replace(ctx context.Context, chunks []models.Chunk) error {
	if err := s.db.Store().DeleteMatching(&models.Chunk{}, badgerhold.Where("ID").Ne("")); err != nil {
		return fmt.Errorf("failed to delete existing chunks: %w", err)
	}

	for i := range chunks {
		if err := s.db.Store().Insert(chunks[i].ID, &chunks[i]); err != nil {
			return fmt.Errorf("failed to insert chunk %s: %w", chunks[i].ID, err)
		}
	}

	s.logger.Debug().Int("count", len(chunks)).Msg("Replaced retrieval chunk set")
	return nil
}

// GetByDocument returns chunks for a document key ordered by position
func (s *ChunkStorage) GetByDocument(ctx context.Context, documentKey string) ([]models.Chunk, error) {
	var chunks []models.Chunk
	err := s.db.Store().Find(&chunks, badgerhold.Where("DocumentKey").Eq(documentKey).Index("DocumentKey").SortBy("Position"))
	if err != nil {
		return nil, fmt.Errorf("failed to get chunks for document: %w", err)
	}
	return chunks, nil
}

// CountByDocument returns the number of chunks stored for a document key
func (s *ChunkStorage) CountByDocument(ctx context.Context, documentKey string) (int, error) {
	count, err := s.db.Store().Count(&models.Chunk{}, badgerhold.Where("DocumentKey").Eq(documentKey).Index("DocumentKey"))
	if err != nil {
		return 0, fmt.Errorf("failed to count chunks for document: %w", err)
	}
	return int(count), nil
}
