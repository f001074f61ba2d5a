package alert

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/interfaces"
	"github.com/bobmcallan/folio/internal/models"
)

// --- Mocks ---

type mockAlertStore struct {
	saved   []*models.Alert
	saveErr error
}

func (m *mockAlertStore) SaveAlert(_ context.Context, alert *models.Alert) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = append(m.saved, alert)
	return nil
}
func (m *mockAlertStore) GetAlert(_ context.Context, id string) (*models.Alert, error) {
	for _, a := range m.saved {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, errors.New("alert not found")
}
func (m *mockAlertStore) ListAlerts(_ context.Context, unreadOnly bool) ([]*models.Alert, error) {
	if !unreadOnly {
		return m.saved, nil
	}
	var unread []*models.Alert
	for _, a := range m.saved {
		if !a.Read {
			unread = append(unread, a)
		}
	}
	return unread, nil
}
func (m *mockAlertStore) MarkRead(ctx context.Context, id string) (*models.Alert, error) {
	a, err := m.GetAlert(ctx, id)
	if err != nil {
		return nil, err
	}
	a.Read = true
	return a, nil
}

type mockStorage struct {
	alerts *mockAlertStore
}

func (m *mockStorage) HoldingStore() interfaces.HoldingStore   { return nil }
func (m *mockStorage) AlertStore() interfaces.AlertStore       { return m.alerts }
func (m *mockStorage) SnapshotStore() interfaces.SnapshotStore { return nil }
func (m *mockStorage) Close() error                            { return nil }

func newTestService() (*Service, *mockAlertStore) {
	store := &mockAlertStore{}
	svc := NewService(&mockStorage{alerts: store}, common.NewSilentLogger())
	svc.now = func() time.Time { return time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC) }
	return svc, store
}

// --- Tests ---

func TestEvaluatePriceChangeThresholds(t *testing.T) {
	cases := []struct {
		name     string
		prev     float64
		next     float64
		want     bool
		severity models.AlertSeverity
	}{
		{"below threshold", 100, 103, false, ""},
		{"just below threshold", 100, 104.99, false, ""},
		{"at threshold", 100, 105, true, models.SeverityWarning},
		{"warning range", 100, 108, true, models.SeverityWarning},
		{"at critical", 100, 110, true, models.SeverityCritical},
		{"critical range", 100, 112, true, models.SeverityCritical},
		{"drop warning", 100, 94, true, models.SeverityWarning},
		{"drop critical", 100, 88, true, models.SeverityCritical},
		{"small drop", 100, 97, false, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, _ := newTestService()
			alert, err := svc.EvaluatePriceChange(context.Background(), "h1", "Reliance", tc.prev, tc.next)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tc.want {
				if alert != nil {
					t.Fatalf("expected no alert, got %+v", alert)
				}
				return
			}
			if alert == nil {
				t.Fatal("expected an alert")
			}
			if alert.Severity != tc.severity {
				t.Errorf("expected severity %s, got %s", tc.severity, alert.Severity)
			}
			if alert.Kind != models.AlertKindPriceChange {
				t.Errorf("expected kind price_change, got %s", alert.Kind)
			}
		})
	}
}

func TestEvaluatePriceChangeZeroPreviousPrice(t *testing.T) {
	svc, store := newTestService()

	// First-ever refresh: nothing to compare against.
	alert, err := svc.EvaluatePriceChange(context.Background(), "h1", "New Fund", 0, 95.43)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if alert != nil {
		t.Errorf("expected no alert for zero previous price, got %+v", alert)
	}
	if len(store.saved) != 0 {
		t.Errorf("nothing should be persisted, got %d alerts", len(store.saved))
	}
}

func TestEvaluatePriceChangeMessageFormat(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	up, err := svc.EvaluatePriceChange(ctx, "h1", "Bitcoin", 100, 112)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if up.Message != "Bitcoin has increased by 12.00% today" {
		t.Errorf("unexpected message: %q", up.Message)
	}
	if up.ChangePct != 12 {
		t.Errorf("expected change_pct 12, got %.2f", up.ChangePct)
	}

	down, err := svc.EvaluatePriceChange(ctx, "h1", "Bitcoin", 100, 92)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if down.Message != "Bitcoin has decreased by 8.00% today" {
		t.Errorf("unexpected message: %q", down.Message)
	}
	if down.ChangePct != -8 {
		t.Errorf("expected change_pct -8, got %.2f", down.ChangePct)
	}
}

func TestEvaluatePriceChangePersists(t *testing.T) {
	svc, store := newTestService()

	alert, err := svc.EvaluatePriceChange(context.Background(), "h1", "Reliance", 100, 110)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.saved) != 1 {
		t.Fatalf("expected 1 persisted alert, got %d", len(store.saved))
	}
	if store.saved[0].ID != alert.ID {
		t.Error("persisted alert does not match returned alert")
	}
	if alert.ID == "" {
		t.Error("alert should have a generated id")
	}
	if alert.Read {
		t.Error("new alert should be unread")
	}
}

func TestEvaluatePriceChangeSaveFailure(t *testing.T) {
	svc, store := newTestService()
	store.saveErr = errors.New("disk full")

	_, err := svc.EvaluatePriceChange(context.Background(), "h1", "Reliance", 100, 110)
	if err == nil {
		t.Fatal("expected persistence error to propagate")
	}
}

func TestEvaluatePortfolioChange(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	asOf := time.Date(2026, 3, 2, 6, 0, 0, 0, time.UTC)

	// Under threshold: silent.
	alert, err := svc.EvaluatePortfolioChange(ctx, 100000, 102000, asOf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if alert != nil {
		t.Errorf("expected no alert for 2%% move, got %+v", alert)
	}

	// Gain over threshold.
	alert, err = svc.EvaluatePortfolioChange(ctx, 100000, 106000, asOf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if alert == nil {
		t.Fatal("expected alert for 6% gain")
	}
	if alert.Message != "Your portfolio increased by 6.00% since yesterday" {
		t.Errorf("unexpected message: %q", alert.Message)
	}
	if alert.Kind != models.AlertKindPortfolio {
		t.Errorf("expected kind portfolio_change, got %s", alert.Kind)
	}
	if !alert.CreatedAt.Equal(asOf) {
		t.Error("portfolio alert should carry the evaluation time")
	}

	// Drop over the critical threshold.
	alert, err = svc.EvaluatePortfolioChange(ctx, 100000, 88000, asOf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if alert.Message != "Your portfolio dropped by 12.00% since yesterday" {
		t.Errorf("unexpected message: %q", alert.Message)
	}
	if alert.Severity != models.SeverityCritical {
		t.Errorf("expected critical severity, got %s", alert.Severity)
	}

	// No baseline.
	alert, err = svc.EvaluatePortfolioChange(ctx, 0, 50000, asOf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if alert != nil {
		t.Error("expected no alert without a baseline value")
	}
}
