package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/models"
)

// --- System handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"version": common.GetVersion(),
		"uptime":  time.Since(s.app.StartupTime).Round(time.Second).String(),
	})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"version":    common.GetVersion(),
		"build":      common.GetBuild(),
		"git_commit": common.GetGitCommit(),
	})
}

// --- Ticker handler ---

// handleTicker handles GET /api/ticker?type={asset_class}&symbol={symbol}.
// It resolves a single live quote without touching stored holdings.
func (s *Server) handleTicker(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	assetClass := r.URL.Query().Get("type")
	symbol := r.URL.Query().Get("symbol")

	quote, err := s.app.Gateway.Resolve(r.Context(), models.AssetClass(assetClass), symbol)
	if err != nil {
		WritePricingError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, quote)
}

// --- Holding handlers ---

type holdingRequest struct {
	Name       string  `json:"name"`
	AssetClass string  `json:"asset_class"`
	Symbol     string  `json:"symbol"`
	Units      float64 `json:"units"`
	CostBasis  float64 `json:"cost_basis"`
	TotalCost  float64 `json:"total_cost"`
	Currency   string  `json:"currency"`
	AcquiredAt string  `json:"acquired_at"` // RFC3339 or YYYY-MM-DD
}

func (req *holdingRequest) validate() (models.AssetClass, time.Time, error) {
	if strings.TrimSpace(req.Name) == "" {
		return "", time.Time{}, fmt.Errorf("name is required")
	}

	class, ok := models.ParseAssetClass(req.AssetClass)
	if !ok {
		return "", time.Time{}, fmt.Errorf("invalid asset class: %s", req.AssetClass)
	}

	if req.Units <= 0 {
		return "", time.Time{}, fmt.Errorf("units must be positive")
	}
	if req.CostBasis < 0 {
		return "", time.Time{}, fmt.Errorf("cost basis cannot be negative")
	}

	var acquiredAt time.Time
	if req.AcquiredAt != "" {
		var err error
		acquiredAt, err = time.Parse(time.RFC3339, req.AcquiredAt)
		if err != nil {
			acquiredAt, err = time.Parse("2006-01-02", req.AcquiredAt)
		}
		if err != nil {
			return "", time.Time{}, fmt.Errorf("invalid acquired_at: %s", req.AcquiredAt)
		}
	}

	return class, acquiredAt, nil
}

func (s *Server) handleHoldingList(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		holdings, err := s.app.Storage.HoldingStore().ListHoldings(r.Context())
		if err != nil {
			WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Error listing holdings: %v", err))
			return
		}
		WriteJSON(w, http.StatusOK, map[string]interface{}{
			"holdings": holdings,
			"count":    len(holdings),
		})

	case http.MethodPost:
		s.handleHoldingCreate(w, r)

	default:
		RequireMethod(w, r, http.MethodGet, http.MethodPost)
	}
}

func (s *Server) handleHoldingCreate(w http.ResponseWriter, r *http.Request) {
	var req holdingRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	class, acquiredAt, err := req.validate()
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	now := time.Now()
	totalCost := req.TotalCost
	if totalCost <= 0 {
		totalCost = req.Units * req.CostBasis
	}

	holding := &models.Holding{
		ID:         uuid.New().String(),
		Name:       strings.TrimSpace(req.Name),
		AssetClass: class,
		Symbol:     strings.TrimSpace(req.Symbol),
		Units:      req.Units,
		CostBasis:  req.CostBasis,
		TotalCost:  totalCost,
		Currency:   strings.ToUpper(strings.TrimSpace(req.Currency)),
		AcquiredAt: acquiredAt,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	// Until the first refresh the position is valued at cost.
	holding.CurrentPrice = req.CostBasis
	holding.CurrentValue = totalCost
	holding.ProfitLoss = 0
	holding.ProfitLossPct = 0

	if err := s.app.Storage.HoldingStore().SaveHolding(r.Context(), holding); err != nil {
		WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Error saving holding: %v", err))
		return
	}

	WriteJSON(w, http.StatusCreated, holding)
}

// routeHoldings dispatches /api/holdings/{id} to the appropriate handler.
func (s *Server) routeHoldings(w http.ResponseWriter, r *http.Request) {
	id := PathParam(r, "/api/holdings/", "")
	if id == "" {
		WriteError(w, http.StatusBadRequest, "holding id is required in path")
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.handleHoldingGet(w, r, id)
	case http.MethodPut:
		s.handleHoldingUpdate(w, r, id)
	case http.MethodDelete:
		s.handleHoldingDelete(w, r, id)
	default:
		RequireMethod(w, r, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}

func (s *Server) handleHoldingGet(w http.ResponseWriter, r *http.Request, id string) {
	holding, err := s.app.Storage.HoldingStore().GetHolding(r.Context(), id)
	if err != nil {
		WriteError(w, http.StatusNotFound, fmt.Sprintf("Holding not found: %v", err))
		return
	}
	WriteJSON(w, http.StatusOK, holding)
}

func (s *Server) handleHoldingUpdate(w http.ResponseWriter, r *http.Request, id string) {
	existing, err := s.app.Storage.HoldingStore().GetHolding(r.Context(), id)
	if err != nil {
		WriteError(w, http.StatusNotFound, fmt.Sprintf("Holding not found: %v", err))
		return
	}

	var req holdingRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	class, acquiredAt, err := req.validate()
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	existing.Name = strings.TrimSpace(req.Name)
	existing.AssetClass = class
	existing.Symbol = strings.TrimSpace(req.Symbol)
	existing.Units = req.Units
	existing.CostBasis = req.CostBasis
	if req.TotalCost > 0 {
		existing.TotalCost = req.TotalCost
	} else {
		existing.TotalCost = req.Units * req.CostBasis
	}
	if req.Currency != "" {
		existing.Currency = strings.ToUpper(strings.TrimSpace(req.Currency))
	}
	if !acquiredAt.IsZero() {
		existing.AcquiredAt = acquiredAt
	}

	// Revalue against the last known price so units changes show immediately.
	existing.ApplyPrice(existing.CurrentPrice, existing.Currency, existing.LastUpdated, true)

	if err := s.app.Storage.HoldingStore().SaveHolding(r.Context(), existing); err != nil {
		WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Error saving holding: %v", err))
		return
	}

	WriteJSON(w, http.StatusOK, existing)
}

func (s *Server) handleHoldingDelete(w http.ResponseWriter, r *http.Request, id string) {
	if err := s.app.Storage.HoldingStore().DeleteHolding(r.Context(), id); err != nil {
		WriteError(w, http.StatusNotFound, fmt.Sprintf("Holding not found: %v", err))
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"deleted": id,
	})
}

// --- Portfolio handlers ---

// handlePortfolioRefresh handles POST /api/portfolio/refresh. Callers must
// present the refresh secret or a JWT signed with it.
func (s *Server) handlePortfolioRefresh(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	if !checkRefreshAuth(r, s.app.Config.Refresh.Secret) {
		WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	result, err := s.app.RefreshService.RefreshAll(r.Context())
	if err != nil {
		WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Refresh failed: %v", err))
		return
	}

	if err := s.app.RefreshService.SnapshotAndNotify(r.Context()); err != nil {
		s.logger.Warn().Err(err).Msg("Portfolio snapshot failed")
	}

	WriteJSON(w, http.StatusOK, result)
}

func (s *Server) handlePortfolioAnalysis(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	analysis, err := s.app.AnalysisService.Analyze(r.Context())
	if err != nil {
		WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Analysis failed: %v", err))
		return
	}

	WriteJSON(w, http.StatusOK, analysis)
}

// --- Alert handlers ---

func (s *Server) handleAlertList(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	unreadOnly := r.URL.Query().Get("unread") == "true"

	alerts, err := s.app.AlertService.ListAlerts(r.Context(), unreadOnly)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Error listing alerts: %v", err))
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"alerts": alerts,
		"count":  len(alerts),
	})
}

// routeAlerts dispatches /api/alerts/{id}/read.
func (s *Server) routeAlerts(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/alerts/")
	if !strings.HasSuffix(path, "/read") {
		WriteError(w, http.StatusNotFound, "Not found")
		return
	}
	id := strings.TrimSuffix(path, "/read")
	if id == "" {
		WriteError(w, http.StatusBadRequest, "alert id is required in path")
		return
	}

	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	alert, err := s.app.AlertService.MarkRead(r.Context(), id)
	if err != nil {
		WriteError(w, http.StatusNotFound, fmt.Sprintf("Alert not found: %v", err))
		return
	}

	WriteJSON(w, http.StatusOK, alert)
}
