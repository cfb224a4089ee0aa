package interfaces

import (
	"context"

	"github.com/ternarybob/charta/internal/models"
)

// RunStorage persists pipeline run records
type RunStorage interface {
	// Save inserts or updates a run record
	Save(ctx context.Context, run *models.PipelineRun) error

	// Get retrieves a run by ID
	Get(ctx context.Context, id string) (*models.PipelineRun, error)

	// List returns runs ordered newest first, up to limit (0 = all)
	List(ctx context.Context, limit int) ([]models.PipelineRun, error)
}

// ChunkStorage persists retrieval chunks and their embeddings
type ChunkStorage interface {
	// Replace atomically swaps the chunk set: deletes every stored chunk
	// and inserts the given ones
	Replace(ctx context.Context, chunks []models.Chunk) error

	// GetByDocument returns chunks for a document key ordered by position
	GetByDocument(ctx context.Context, documentKey string) ([]models.Chunk, error)

	// CountByDocument returns the number of chunks stored for a document key
	CountByDocument(ctx context.Context, documentKey string) (int, error)
}

// StorageManager aggregates the typed storages over one database
type StorageManager interface {
	KeyValue() KeyValueStorage
	Runs() RunStorage
	Chunks() ChunkStorage

	// Close flushes and closes the underlying database
	Close() error
}
