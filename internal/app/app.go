// Package app wires configuration, storage, clients, and services into a
// single shared core used by cmd/folio-server.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bobmcallan/folio/internal/clients/amfi"
	"github.com/bobmcallan/folio/internal/clients/coingecko"
	"github.com/bobmcallan/folio/internal/clients/goldapi"
	"github.com/bobmcallan/folio/internal/clients/yahoo"
	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/interfaces"
	"github.com/bobmcallan/folio/internal/pricing"
	"github.com/bobmcallan/folio/internal/services/alert"
	"github.com/bobmcallan/folio/internal/services/analysis"
	"github.com/bobmcallan/folio/internal/services/refresh"
	"github.com/bobmcallan/folio/internal/storage"
)

// App holds all initialized services and clients.
type App struct {
	Config          *common.Config
	Logger          *common.Logger
	Storage         interfaces.StorageManager
	Gateway         interfaces.PriceGateway
	RefreshService  interfaces.RefreshService
	AnalysisService interfaces.AnalysisService
	AlertService    interfaces.AlertService
	StartupTime     time.Time

	schedulerCancel context.CancelFunc
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// NewApp initializes configuration, storage, clients, and services.
// configPath may be empty, in which case the default resolution logic is used.
func NewApp(configPath string) (*App, error) {
	binDir := getBinaryDir()

	// Load configuration - check provided path, FOLIO_CONFIG, then binary dir, then fallback
	if configPath == "" {
		configPath = os.Getenv("FOLIO_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(binDir, "folio.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/folio.toml" // fallback for development
		}
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Resolve relative storage path to binary directory
	if config.Storage.Path != "" && !filepath.IsAbs(config.Storage.Path) {
		config.Storage.Path = filepath.Join(binDir, config.Storage.Path)
	}

	logger := common.NewLogger(config.Logging.Level)

	storageManager, err := storage.NewManager(logger, config)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	// Price source clients
	equityClient := yahoo.NewClient(
		yahoo.WithBaseURL(config.Clients.Yahoo.BaseURL),
		yahoo.WithTimeout(config.Clients.Yahoo.GetTimeout()),
		yahoo.WithLogger(logger),
	)

	cryptoClient := coingecko.NewClient(
		coingecko.WithBaseURL(config.Clients.CoinGecko.BaseURL),
		coingecko.WithVsCurrency(config.Clients.CoinGecko.VsCurrency),
		coingecko.WithRateLimit(config.Clients.CoinGecko.RateLimit),
		coingecko.WithTimeout(config.Clients.CoinGecko.GetTimeout()),
		coingecko.WithLogger(logger),
	)

	navClient := amfi.NewClient(
		amfi.WithBaseURL(config.Clients.AMFI.BaseURL),
		amfi.WithTimeout(config.Clients.AMFI.GetTimeout()),
		amfi.WithLogger(logger),
	)

	var goldClient interfaces.PriceSource
	if config.Clients.GoldAPI.APIKey != "" {
		goldClient = goldapi.NewClient(config.Clients.GoldAPI.APIKey,
			goldapi.WithBaseURL(config.Clients.GoldAPI.BaseURL),
			goldapi.WithTimeout(config.Clients.GoldAPI.GetTimeout()),
			goldapi.WithLogger(logger),
		)
	} else {
		logger.Warn().Msg("Gold API key not configured - commodity pricing will be unavailable")
	}

	gateway := pricing.NewGateway(equityClient, cryptoClient, goldClient, navClient, logger,
		pricing.WithCacheTTLs(
			config.Clients.Yahoo.GetCacheTTL(),
			config.Clients.CoinGecko.GetCacheTTL(),
			config.Clients.GoldAPI.GetCacheTTL(),
			config.Clients.AMFI.GetCacheTTL(),
		),
	)

	alertService := alert.NewService(storageManager, logger)
	analysisService := analysis.NewService(storageManager, logger)
	refreshService := refresh.NewService(storageManager, gateway, alertService, logger,
		config.Refresh.GetWorkers())

	if config.Refresh.Secret == "" && config.IsProduction() {
		logger.Warn().Msg("Refresh secret not configured - on-demand refresh will reject all callers")
	}

	return &App{
		Config:          config,
		Logger:          logger,
		Storage:         storageManager,
		Gateway:         gateway,
		RefreshService:  refreshService,
		AnalysisService: analysisService,
		AlertService:    alertService,
		StartupTime:     time.Now(),
	}, nil
}

// Close stops background loops and releases resources.
func (a *App) Close() {
	a.StopScheduler()
	if a.Storage != nil {
		if err := a.Storage.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close storage")
		}
	}
}
