package badger

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/charta/internal/common"
	"github.com/timshannon/badgerhold/v4"
)

// BadgerDB manages the Badger database connection
type BadgerDB struct {
	store  *badgerhold.Store
	logger arbor.ILogger
	config *common.StorageConfig
}

// NewBadgerDB creates a new Badger database connection
func NewBadgerDB(logger arbor.ILogger, config *common.StorageConfig) (*BadgerDB, error) {
	// If reset_on_startup is enabled, delete the existing database
	if config.ResetOnStartup {
		if _, err := os.Stat(config.Dir); err == nil {
			logger.Debug().Str("path", config.Dir).Msg("Deleting existing database (reset_on_startup=true)")
			if err := os.RemoveAll(config.Dir); err != nil {
				logger.Warn().Err(err).Str("path", config.Dir).Msg("Failed to delete database directory")
			}
		}
	}

	// Ensure the directory exists
	dir := filepath.Dir(config.Dir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	logger.Debug().Str("path", config.Dir).Msg("Opening Badger database connection")

	options := badgerhold.DefaultOptions
	options.Options = badger.DefaultOptions(config.Dir).
		WithLogger(nil). // arbor owns logging
		WithNumVersionsToKeep(1)

	store, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}

	db := &BadgerDB{
		store:  store,
		logger: logger,
		config: config,
	}

	if config.BackupOnStartup && !config.ResetOnStartup {
		if err := db.backup(); err != nil {
			logger.Warn().Err(err).Msg("Startup backup failed")
		}
	}

	logger.Debug().Str("path", config.Dir).Msg("Badger database initialized")
	return db, nil
}

// backup writes a full badger backup stream next to the database
func (b *BadgerDB) backup() error {
	path := fmt.Sprintf("%s.backup-%s", b.config.Dir, time.Now().Format("20060102-150405"))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create backup file: %w", err)
	}
	defer f.Close()

	if _, err := b.store.Badger().Backup(f, 0); err != nil {
		os.Remove(path)
		return fmt.Errorf("backup failed: %w", err)
	}

	b.logger.Info().Str("path", path).Msg("Database backup written")
	return nil
}

// Store returns the underlying badgerhold store
func (b *BadgerDB) Store() *badgerhold.Store {
	return b.store
}

// Close closes the database connection
func (b *BadgerDB) Close() error {
	if b.store != nil {
		return b.store.Close()
	}
	return nil
}
