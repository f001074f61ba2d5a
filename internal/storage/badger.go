// Package storage provides BadgerDB-based persistence
package storage

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/timshannon/badgerhold/v4"

	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/interfaces"
	"github.com/bobmcallan/folio/internal/models"
)

// BadgerDB wraps badgerhold for typed storage
type BadgerDB struct {
	store  *badgerhold.Store
	logger *common.Logger
}

// NewBadgerDB creates a new BadgerDB instance
func NewBadgerDB(logger *common.Logger, config *common.StorageConfig) (*BadgerDB, error) {
	opts := badgerhold.DefaultOptions
	opts.Dir = config.Path
	opts.ValueDir = config.Path
	opts.Logger = nil // Disable badger's internal logging

	store, err := badgerhold.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger store: %w", err)
	}

	logger.Debug().Str("path", config.Path).Msg("BadgerDB opened")

	return &BadgerDB{
		store:  store,
		logger: logger,
	}, nil
}

// Close closes the database
func (db *BadgerDB) Close() error {
	if db.store != nil {
		return db.store.Close()
	}
	return nil
}

// holdingStore implements HoldingStore using BadgerDB
type holdingStore struct {
	db     *BadgerDB
	logger *common.Logger
}

func newHoldingStore(db *BadgerDB, logger *common.Logger) *holdingStore {
	return &holdingStore{db: db, logger: logger}
}

func (s *holdingStore) GetHolding(ctx context.Context, id string) (*models.Holding, error) {
	var holding models.Holding
	err := s.db.store.Get(id, &holding)
	if err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("holding '%s' not found", id)
		}
		return nil, fmt.Errorf("failed to get holding: %w", err)
	}
	return &holding, nil
}

func (s *holdingStore) SaveHolding(ctx context.Context, holding *models.Holding) error {
	holding.UpdatedAt = time.Now()
	if holding.CreatedAt.IsZero() {
		holding.CreatedAt = time.Now()
	}

	if err := s.db.store.Upsert(holding.ID, holding); err != nil {
		return fmt.Errorf("failed to save holding: %w", err)
	}
	s.logger.Debug().Str("id", holding.ID).Str("name", holding.Name).Msg("Holding saved")
	return nil
}

func (s *holdingStore) ListHoldings(ctx context.Context) ([]*models.Holding, error) {
	var holdings []models.Holding
	if err := s.db.store.Find(&holdings, nil); err != nil {
		return nil, fmt.Errorf("failed to list holdings: %w", err)
	}

	// Stable order: oldest first, so analysis insights are deterministic.
	sort.Slice(holdings, func(i, j int) bool {
		if holdings[i].CreatedAt.Equal(holdings[j].CreatedAt) {
			return holdings[i].ID < holdings[j].ID
		}
		return holdings[i].CreatedAt.Before(holdings[j].CreatedAt)
	})

	result := make([]*models.Holding, len(holdings))
	for i := range holdings {
		result[i] = &holdings[i]
	}
	return result, nil
}

func (s *holdingStore) DeleteHolding(ctx context.Context, id string) error {
	err := s.db.store.Delete(id, models.Holding{})
	if err != nil {
		if err == badgerhold.ErrNotFound {
			return fmt.Errorf("holding '%s' not found", id)
		}
		return fmt.Errorf("failed to delete holding: %w", err)
	}
	s.logger.Debug().Str("id", id).Msg("Holding deleted")
	return nil
}

// alertStore implements AlertStore using BadgerDB
type alertStore struct {
	db     *BadgerDB
	logger *common.Logger
}

func newAlertStore(db *BadgerDB, logger *common.Logger) *alertStore {
	return &alertStore{db: db, logger: logger}
}

func (s *alertStore) SaveAlert(ctx context.Context, alert *models.Alert) error {
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = time.Now()
	}
	if err := s.db.store.Upsert(alert.ID, alert); err != nil {
		return fmt.Errorf("failed to save alert: %w", err)
	}
	s.logger.Debug().Str("id", alert.ID).Str("kind", string(alert.Kind)).Msg("Alert saved")
	return nil
}

func (s *alertStore) GetAlert(ctx context.Context, id string) (*models.Alert, error) {
	var alert models.Alert
	err := s.db.store.Get(id, &alert)
	if err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("alert '%s' not found", id)
		}
		return nil, fmt.Errorf("failed to get alert: %w", err)
	}
	return &alert, nil
}

func (s *alertStore) ListAlerts(ctx context.Context, unreadOnly bool) ([]*models.Alert, error) {
	var alerts []models.Alert
	var query *badgerhold.Query
	if unreadOnly {
		query = badgerhold.Where("Read").Eq(false)
	}
	if err := s.db.store.Find(&alerts, query); err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}

	// Newest first
	sort.Slice(alerts, func(i, j int) bool {
		return alerts[i].CreatedAt.After(alerts[j].CreatedAt)
	})

	result := make([]*models.Alert, len(alerts))
	for i := range alerts {
		result[i] = &alerts[i]
	}
	return result, nil
}

func (s *alertStore) MarkRead(ctx context.Context, id string) (*models.Alert, error) {
	alert, err := s.GetAlert(ctx, id)
	if err != nil {
		return nil, err
	}

	alert.Read = true
	if err := s.db.store.Upsert(alert.ID, alert); err != nil {
		return nil, fmt.Errorf("failed to mark alert read: %w", err)
	}
	return alert, nil
}

// snapshotStore implements SnapshotStore using BadgerDB
type snapshotStore struct {
	db     *BadgerDB
	logger *common.Logger
}

func newSnapshotStore(db *BadgerDB, logger *common.Logger) *snapshotStore {
	return &snapshotStore{db: db, logger: logger}
}

func (s *snapshotStore) GetSnapshot(ctx context.Context, date string) (*models.PortfolioSnapshot, error) {
	var snapshot models.PortfolioSnapshot
	err := s.db.store.Get(date, &snapshot)
	if err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("snapshot for '%s' not found", date)
		}
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}
	return &snapshot, nil
}

func (s *snapshotStore) SaveSnapshot(ctx context.Context, snapshot *models.PortfolioSnapshot) error {
	if snapshot.CreatedAt.IsZero() {
		snapshot.CreatedAt = time.Now()
	}
	if err := s.db.store.Upsert(snapshot.Date, snapshot); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	s.logger.Debug().Str("date", snapshot.Date).Float64("value", snapshot.Value).Msg("Snapshot saved")
	return nil
}
