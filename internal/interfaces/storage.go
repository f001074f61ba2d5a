package interfaces

import (
	"context"

	"github.com/bobmcallan/folio/internal/models"
)

// StorageManager coordinates all storage backends
type StorageManager interface {
	HoldingStore() HoldingStore
	AlertStore() AlertStore
	SnapshotStore() SnapshotStore

	// Lifecycle
	Close() error
}

// HoldingStore persists holdings.
type HoldingStore interface {
	GetHolding(ctx context.Context, id string) (*models.Holding, error)
	SaveHolding(ctx context.Context, holding *models.Holding) error
	ListHoldings(ctx context.Context) ([]*models.Holding, error)
	DeleteHolding(ctx context.Context, id string) error
}

// AlertStore persists alerts.
type AlertStore interface {
	SaveAlert(ctx context.Context, alert *models.Alert) error
	GetAlert(ctx context.Context, id string) (*models.Alert, error)
	ListAlerts(ctx context.Context, unreadOnly bool) ([]*models.Alert, error)
	MarkRead(ctx context.Context, id string) (*models.Alert, error)
}

// SnapshotStore persists daily portfolio value snapshots.
type SnapshotStore interface {
	GetSnapshot(ctx context.Context, date string) (*models.PortfolioSnapshot, error)
	SaveSnapshot(ctx context.Context, snapshot *models.PortfolioSnapshot) error
}
