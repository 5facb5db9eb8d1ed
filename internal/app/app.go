package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/intent-feedx/feedx/internal/api"
	"github.com/intent-feedx/feedx/internal/config"
	"github.com/intent-feedx/feedx/internal/ingest"
	"github.com/intent-feedx/feedx/internal/keywords"
	"github.com/intent-feedx/feedx/internal/models"
	"github.com/intent-feedx/feedx/internal/notifications"
	"github.com/intent-feedx/feedx/internal/screenshot"
	"github.com/intent-feedx/feedx/internal/search"
	"github.com/intent-feedx/feedx/internal/serp"
	"github.com/intent-feedx/feedx/internal/sources"
	"github.com/intent-feedx/feedx/internal/storage"
	"github.com/intent-feedx/feedx/internal/store"
	"github.com/sirupsen/logrus"
)

// App holds the wired services shared by the server and the CLI tools
type App struct {
	Config      *config.Config
	Store       *store.SQLStore
	Keywords    *keywords.Service
	Ingest      *ingest.Service
	Screenshots *screenshot.Service
}

// New opens the database and wires every service from cfg
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	db, err := store.Open(ctx, store.Dialect(cfg.DatabaseDriver), cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	registry := sources.NewRegistry(
		sources.NewTwitterAdapter(),
		sources.NewArticleAdapter(cfg.ArticleFetchTimeout),
	)

	// A missing API key only fails the searches, not startup.
	var provider serp.Provider
	client, err := serp.NewClient(cfg.SerpAPIKey)
	var cfgErr *models.ConfigurationError
	switch {
	case err == nil:
		provider = client
	case errors.As(err, &cfgErr):
		logrus.Warnf("%v, searches will fail until it is configured", err)
	default:
		db.Close()
		return nil, err
	}

	orchestrator := search.NewOrchestrator(provider, registry,
		search.WithResultCount(cfg.SerpResultCount),
		search.WithEnrichConcurrency(cfg.EnrichConcurrency),
		search.WithLocation(cfg.Location()),
	)

	keywordService := keywords.NewService(db, registry.Has)
	if cfg.KeywordsSeedFile != "" {
		seed, err := keywords.LoadSeedFile(cfg.KeywordsSeedFile)
		if err != nil {
			db.Close()
			return nil, err
		}
		if _, err := keywordService.Seed(ctx, seed); err != nil {
			db.Close()
			return nil, err
		}
	}

	var notifier notifications.NotificationInterface
	if notifications.Enabled(cfg) {
		notifier = notifications.NewService(cfg)
	}

	a := &App{
		Config:   cfg,
		Store:    db,
		Keywords: keywordService,
		Ingest:   ingest.NewService(db, db, orchestrator, notifier),
	}

	if cfg.BrowserlessToken != "" {
		screenshots, err := newScreenshotService(ctx, cfg)
		if err != nil {
			db.Close()
			return nil, err
		}
		a.Screenshots = screenshots
	}

	return a, nil
}

func newScreenshotService(ctx context.Context, cfg *config.Config) (*screenshot.Service, error) {
	taker, err := screenshot.NewBrowserlessClient(cfg.BrowserlessToken)
	if err != nil {
		return nil, err
	}

	var blobs storage.StorageInterface
	if cfg.StorageAccount != "" {
		blobs, err = storage.NewAzureStorage(ctx, cfg.StorageAccount, cfg.StorageContainer)
	} else {
		logrus.Infof("AZURE_STORAGE_ACCOUNT is not set, saving screenshots under %s", cfg.ScreenshotDir)
		blobs, err = storage.NewLocalStorage(cfg.ScreenshotDir)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize screenshot storage: %w", err)
	}

	return screenshot.NewService(taker, blobs, cfg.ScreenshotTargetURL, cfg.ScreenshotAccount), nil
}

// Dependencies returns the services the HTTP API needs
func (a *App) Dependencies() api.Dependencies {
	deps := api.Dependencies{
		Keywords:   a.Keywords,
		Ingest:     a.Ingest,
		Contents:   a.Store,
		CronSecret: a.Config.CronSecret,
	}
	// Keep the interface nil when screenshots are disabled.
	if a.Screenshots != nil {
		deps.Screenshots = a.Screenshots
	}
	return deps
}

// Close releases the database
func (a *App) Close() error {
	return a.Store.Close()
}
