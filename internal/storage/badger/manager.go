package badger

import (
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/charta/internal/common"
	"github.com/ternarybob/charta/internal/interfaces"
)

// Manager implements the StorageManager interface for Badger
type Manager struct {
	db     *BadgerDB
	kv     interfaces.KeyValueStorage
	runs   interfaces.RunStorage
	chunks interfaces.ChunkStorage
	logger arbor.ILogger
}

// NewManager creates a new Badger storage manager
func NewManager(logger arbor.ILogger, config *common.StorageConfig) (interfaces.StorageManager, error) {
	db, err := NewBadgerDB(logger, config)
	if err != nil {
		return nil, err
	}

	manager := &Manager{
		db:     db,
		kv:     NewKVStorage(db, logger),
		runs:   NewRunStorage(db, logger),
		chunks: NewChunkStorage(db, logger),
		logger: logger,
	}

	logger.Info().Msg("Badger storage manager initialized")

	return manager, nil
}

// KeyValue returns the KeyValue storage interface
func (m *Manager) KeyValue() interfaces.KeyValueStorage {
	return m.kv
}

// Runs returns the pipeline run storage interface
func (m *Manager) Runs() interfaces.RunStorage {
	return m.runs
}

// Chunks returns the retrieval chunk storage interface
func (m *Manager) Chunks() interfaces.ChunkStorage {
	return m.chunks
}

// Close closes the database connection
func (m *Manager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}
