package server

import "net/http"

// registerRoutes sets up all REST API routes on the mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// System
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/version", s.handleVersion)

	// Live quotes
	mux.HandleFunc("/api/ticker", s.handleTicker)

	// Holdings
	mux.HandleFunc("/api/holdings/", s.routeHoldings)
	mux.HandleFunc("/api/holdings", s.handleHoldingList)

	// Portfolio
	mux.HandleFunc("/api/portfolio/refresh", s.handlePortfolioRefresh)
	mux.HandleFunc("/api/portfolio/analysis", s.handlePortfolioAnalysis)

	// Alerts
	mux.HandleFunc("/api/alerts/", s.routeAlerts)
	mux.HandleFunc("/api/alerts", s.handleAlertList)
}
