package storage

import (
	"fmt"

	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/interfaces"
)

// Manager implements interfaces.StorageManager on a single BadgerDB.
type Manager struct {
	db        *BadgerDB
	holdings  *holdingStore
	alerts    *alertStore
	snapshots *snapshotStore
	logger    *common.Logger
}

// NewManager creates a new StorageManager.
func NewManager(logger *common.Logger, config *common.Config) (*Manager, error) {
	db, err := NewBadgerDB(logger, &config.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to create badger store: %w", err)
	}

	logger.Info().Str("path", config.Storage.Path).Msg("Storage manager initialized")

	return &Manager{
		db:        db,
		holdings:  newHoldingStore(db, logger),
		alerts:    newAlertStore(db, logger),
		snapshots: newSnapshotStore(db, logger),
		logger:    logger,
	}, nil
}

func (m *Manager) HoldingStore() interfaces.HoldingStore {
	return m.holdings
}

func (m *Manager) AlertStore() interfaces.AlertStore {
	return m.alerts
}

func (m *Manager) SnapshotStore() interfaces.SnapshotStore {
	return m.snapshots
}

// Close closes the underlying database.
func (m *Manager) Close() error {
	return m.db.Close()
}

// Ensure Manager implements StorageManager
var _ interfaces.StorageManager = (*Manager)(nil)
