// Command partsearch answers natural-language questions about a parts catalog.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/partsearch/internal/adapters/driven/catalog"
	"github.com/custodia-labs/partsearch/internal/adapters/driven/config/file"
	"github.com/custodia-labs/partsearch/internal/adapters/driving/cli"
	"github.com/custodia-labs/partsearch/internal/bootstrap"
	"github.com/custodia-labs/partsearch/internal/core/ports/driving"
	"github.com/custodia-labs/partsearch/internal/core/services"
	"github.com/custodia-labs/partsearch/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	// A missing .env file is not an error
	_ = godotenv.Load() //nolint:errcheck // optional

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	configDir, err := file.DefaultDir()
	if err != nil {
		logger.Error("resolving config directory: %v", err)
		return err
	}
	configStore, err := file.NewConfigStore(configDir)
	if err != nil {
		logger.Error("opening config: %v", err)
		return err
	}
	settingsService := services.NewSettingsService(configStore)

	var engine *bootstrap.Engine
	defer func() {
		if engine != nil {
			if err := engine.Close(); err != nil {
				logger.Warn("closing engine: %v", err)
			}
		}
	}()

	cli.SetVersion(version)
	cli.SetSettingsService(settingsService)
	cli.SetSearchLoader(func(ctx context.Context) (driving.SearchService, http.Handler, error) {
		settings, err := settingsService.Get()
		if err != nil {
			return nil, nil, err
		}
		if settings.Catalog.Path == "" {
			return nil, nil, errors.New(
				"no catalog configured: run 'partsearch settings set catalog.path <file>' or set PARTSEARCH_CATALOG")
		}

		engine, err = bootstrap.Build(ctx, *settings, catalog.NewFileLoader(settings.Catalog.Path))
		if err != nil {
			return nil, nil, fmt.Errorf("building engine: %w", err)
		}
		logger.Info("loaded %s with the %s ranker", settings.Catalog.Path, engine.Ranker)
		return engine.Search, engine.Metrics.Handler(), nil
	})

	return cli.Execute(ctx)
}
