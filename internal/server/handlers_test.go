package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/folio/internal/app"
	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/interfaces"
	"github.com/bobmcallan/folio/internal/models"
	"github.com/bobmcallan/folio/internal/pricing"
)

// --- Mocks ---

type mockHoldingStore struct {
	holdings map[string]*models.Holding
}

func (m *mockHoldingStore) GetHolding(_ context.Context, id string) (*models.Holding, error) {
	if h, ok := m.holdings[id]; ok {
		return h, nil
	}
	return nil, errors.New("holding not found")
}
func (m *mockHoldingStore) SaveHolding(_ context.Context, h *models.Holding) error {
	if m.holdings == nil {
		m.holdings = make(map[string]*models.Holding)
	}
	m.holdings[h.ID] = h
	return nil
}
func (m *mockHoldingStore) ListHoldings(_ context.Context) ([]*models.Holding, error) {
	var out []*models.Holding
	for _, h := range m.holdings {
		out = append(out, h)
	}
	return out, nil
}
func (m *mockHoldingStore) DeleteHolding(_ context.Context, id string) error {
	if _, ok := m.holdings[id]; !ok {
		return errors.New("holding not found")
	}
	delete(m.holdings, id)
	return nil
}

type mockStorage struct {
	holdings *mockHoldingStore
}

func (m *mockStorage) HoldingStore() interfaces.HoldingStore   { return m.holdings }
func (m *mockStorage) AlertStore() interfaces.AlertStore       { return nil }
func (m *mockStorage) SnapshotStore() interfaces.SnapshotStore { return nil }
func (m *mockStorage) Close() error                            { return nil }

type mockGateway struct {
	quote *models.PriceQuote
	err   error
}

func (m *mockGateway) Resolve(_ context.Context, _ models.AssetClass, _ string) (*models.PriceQuote, error) {
	return m.quote, m.err
}

type mockRefresh struct {
	result    *models.RefreshResult
	err       error
	called    bool
	snapshots int
}

func (m *mockRefresh) RefreshAll(_ context.Context) (*models.RefreshResult, error) {
	m.called = true
	return m.result, m.err
}
func (m *mockRefresh) SnapshotAndNotify(_ context.Context) error {
	m.snapshots++
	return nil
}

type mockAnalysis struct {
	analysis *models.PortfolioAnalysis
	err      error
}

func (m *mockAnalysis) Analyze(_ context.Context) (*models.PortfolioAnalysis, error) {
	return m.analysis, m.err
}

type mockAlertService struct {
	alerts []*models.Alert
}

func (m *mockAlertService) EvaluatePriceChange(_ context.Context, _, _ string, _, _ float64) (*models.Alert, error) {
	return nil, nil
}
func (m *mockAlertService) EvaluatePortfolioChange(_ context.Context, _, _ float64, _ time.Time) (*models.Alert, error) {
	return nil, nil
}
func (m *mockAlertService) ListAlerts(_ context.Context, unreadOnly bool) ([]*models.Alert, error) {
	if !unreadOnly {
		return m.alerts, nil
	}
	var unread []*models.Alert
	for _, a := range m.alerts {
		if !a.Read {
			unread = append(unread, a)
		}
	}
	return unread, nil
}
func (m *mockAlertService) MarkRead(_ context.Context, id string) (*models.Alert, error) {
	for _, a := range m.alerts {
		if a.ID == id {
			a.Read = true
			return a, nil
		}
	}
	return nil, errors.New("alert not found")
}

type testEnv struct {
	handler  http.Handler
	holdings *mockHoldingStore
	gateway  *mockGateway
	refresh  *mockRefresh
	analysis *mockAnalysis
	alerts   *mockAlertService
	config   *common.Config
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		holdings: &mockHoldingStore{holdings: make(map[string]*models.Holding)},
		gateway:  &mockGateway{},
		refresh:  &mockRefresh{result: &models.RefreshResult{}},
		analysis: &mockAnalysis{analysis: &models.PortfolioAnalysis{}},
		alerts:   &mockAlertService{},
		config:   common.NewDefaultConfig(),
	}
	env.config.Refresh.Secret = "test-secret"

	a := &app.App{
		Config:          env.config,
		Logger:          common.NewSilentLogger(),
		Storage:         &mockStorage{holdings: env.holdings},
		Gateway:         env.gateway,
		RefreshService:  env.refresh,
		AnalysisService: env.analysis,
		AlertService:    env.alerts,
		StartupTime:     time.Now(),
	}

	env.handler = NewServer(a).Handler()
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

// --- Tests ---

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/health", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestTickerEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.gateway.quote = &models.PriceQuote{
		Symbol: "bitcoin", AssetClass: models.AssetClassCrypto, Price: 5234567.89, Currency: "INR",
	}

	rec := env.do(t, http.MethodGet, "/api/ticker?type=crypto&symbol=bitcoin", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var quote models.PriceQuote
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &quote))
	assert.Equal(t, "bitcoin", quote.Symbol)
	assert.Equal(t, 5234567.89, quote.Price)
}

func TestTickerErrorMapping(t *testing.T) {
	cases := []struct {
		kind   pricing.ErrorKind
		status int
	}{
		{pricing.KindMissingParameter, http.StatusBadRequest},
		{pricing.KindUnsupportedAssetClass, http.StatusBadRequest},
		{pricing.KindNotFound, http.StatusNotFound},
		{pricing.KindRateLimited, http.StatusTooManyRequests},
		{pricing.KindUpstreamFailure, http.StatusBadGateway},
		{pricing.KindMalformedData, http.StatusBadGateway},
	}

	for _, tc := range cases {
		t.Run(string(tc.kind), func(t *testing.T) {
			env := newTestEnv(t)
			env.gateway.err = pricing.NewError(tc.kind, "X", "simulated", nil)

			rec := env.do(t, http.MethodGet, "/api/ticker?type=equity&symbol=X", nil, nil)
			assert.Equal(t, tc.status, rec.Code)

			var body ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, string(tc.kind), body.Code)
		})
	}
}

func TestHoldingCreate(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/holdings", map[string]interface{}{
		"name":        "Axis Bluechip Fund",
		"asset_class": "mutual_fund",
		"symbol":      "120503",
		"units":       150.5,
		"cost_basis":  80,
		"acquired_at": "2025-06-15",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var h models.Holding
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &h))
	assert.NotEmpty(t, h.ID)
	assert.Equal(t, models.AssetClassMutualFund, h.AssetClass)
	assert.Equal(t, 150.5*80, h.TotalCost)
	// New holdings are valued at cost until the first refresh.
	assert.Equal(t, 80.0, h.CurrentPrice)
	assert.Equal(t, h.TotalCost, h.CurrentValue)
	assert.Zero(t, h.ProfitLoss)

	require.Len(t, env.holdings.holdings, 1)
}

func TestHoldingCreateValidation(t *testing.T) {
	env := newTestEnv(t)

	cases := []map[string]interface{}{
		{"asset_class": "equity", "units": 1.0, "cost_basis": 10.0},                      // missing name
		{"name": "X", "asset_class": "real_estate", "units": 1.0, "cost_basis": 10.0},    // bad class
		{"name": "X", "asset_class": "equity", "units": 0.0, "cost_basis": 10.0},         // zero units
		{"name": "X", "asset_class": "equity", "units": -5.0, "cost_basis": 10.0},        // negative units
		{"name": "X", "asset_class": "equity", "units": 1.0, "cost_basis": -1.0},         // negative cost
		{"name": "X", "asset_class": "equity", "units": 1.0, "acquired_at": "June 2025"}, // bad date
	}

	for _, body := range cases {
		rec := env.do(t, http.MethodPost, "/api/holdings", body, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body: %v", body)
	}
	assert.Empty(t, env.holdings.holdings)
}

func TestHoldingGetUpdateDelete(t *testing.T) {
	env := newTestEnv(t)
	env.holdings.holdings["h1"] = &models.Holding{
		ID: "h1", Name: "Reliance", AssetClass: models.AssetClassEquity,
		Symbol: "RELIANCE.NS", Units: 10, CostBasis: 2400, TotalCost: 24000,
		CurrentPrice: 2500, CurrentValue: 25000,
	}

	rec := env.do(t, http.MethodGet, "/api/holdings/h1", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// Update doubles the position; valuation follows the last known price.
	rec = env.do(t, http.MethodPut, "/api/holdings/h1", map[string]interface{}{
		"name":        "Reliance",
		"asset_class": "equity",
		"symbol":      "RELIANCE.NS",
		"units":       20.0,
		"cost_basis":  2400.0,
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var h models.Holding
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &h))
	assert.Equal(t, 20.0, h.Units)
	assert.Equal(t, 48000.0, h.TotalCost)
	assert.Equal(t, 50000.0, h.CurrentValue)

	rec = env.do(t, http.MethodDelete, "/api/holdings/h1", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, env.holdings.holdings)

	rec = env.do(t, http.MethodGet, "/api/holdings/h1", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRefreshRequiresAuth(t *testing.T) {
	env := newTestEnv(t)

	// No credentials.
	rec := env.do(t, http.MethodPost, "/api/portfolio/refresh", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, env.refresh.called)

	// Wrong secret.
	rec = env.do(t, http.MethodPost, "/api/portfolio/refresh", nil, map[string]string{
		"X-Refresh-Secret": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Correct secret.
	rec = env.do(t, http.MethodPost, "/api/portfolio/refresh", nil, map[string]string{
		"X-Refresh-Secret": "test-secret",
	})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.refresh.called)
	assert.Equal(t, 1, env.refresh.snapshots)
}

func TestRefreshAcceptsSignedJWT(t *testing.T) {
	env := newTestEnv(t)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "cron",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	rec := env.do(t, http.MethodPost, "/api/portfolio/refresh", nil, map[string]string{
		"Authorization": "Bearer " + signed,
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	// Token signed with another key is rejected.
	badToken := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "cron",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	badSigned, err := badToken.SignedString([]byte("other-secret"))
	require.NoError(t, err)

	rec = env.do(t, http.MethodPost, "/api/portfolio/refresh", nil, map[string]string{
		"Authorization": "Bearer " + badSigned,
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Expired token is rejected.
	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "cron",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
	expiredSigned, err := expired.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	rec = env.do(t, http.MethodPost, "/api/portfolio/refresh", nil, map[string]string{
		"Authorization": "Bearer " + expiredSigned,
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRefreshLockedWithoutSecret(t *testing.T) {
	env := newTestEnv(t)
	env.config.Refresh.Secret = ""

	rec := env.do(t, http.MethodPost, "/api/portfolio/refresh", nil, map[string]string{
		"X-Refresh-Secret": "",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAnalysisEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.analysis.analysis = &models.PortfolioAnalysis{
		TotalValue: 10000, TotalCost: 9000, OverallReturn: 1000,
		HealthScore: 75,
	}

	rec := env.do(t, http.MethodGet, "/api/portfolio/analysis", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var a models.PortfolioAnalysis
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &a))
	assert.Equal(t, 10000.0, a.TotalValue)
	assert.Equal(t, 75, a.HealthScore)
}

func TestAlertEndpoints(t *testing.T) {
	env := newTestEnv(t)
	env.alerts.alerts = []*models.Alert{
		{ID: "a1", Message: "unread one"},
		{ID: "a2", Message: "read one", Read: true},
	}

	rec := env.do(t, http.MethodGet, "/api/alerts", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Alerts []*models.Alert `json:"alerts"`
		Count  int             `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Count)

	rec = env.do(t, http.MethodGet, "/api/alerts?unread=true", nil, nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Count)

	rec = env.do(t, http.MethodPost, "/api/alerts/a1/read", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var marked models.Alert
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &marked))
	assert.True(t, marked.Read)

	rec = env.do(t, http.MethodPost, "/api/alerts/missing/read", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodDelete, "/api/ticker", nil, nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/portfolio/refresh", nil, nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodOptions, "/api/holdings", nil, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCorrelationIDHeader(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/health", nil, map[string]string{
		"X-Request-ID": "req-42",
	})
	assert.Equal(t, "req-42", rec.Header().Get("X-Correlation-ID"))

	rec = env.do(t, http.MethodGet, "/api/health", nil, nil)
	assert.NotEmpty(t, rec.Header().Get("X-Correlation-ID"))
}
