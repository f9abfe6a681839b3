// Package cli provides the partsearch command line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/partsearch/internal/core/ports/driving"
	"github.com/custodia-labs/partsearch/internal/logger"
)

// SearchLoader builds the search engine on first use. It returns the
// service and an optional metrics handler.
type SearchLoader func(ctx context.Context) (driving.SearchService, http.Handler, error)

var (
	version = "dev"
	verbose bool

	searchService   driving.SearchService
	settingsService driving.SettingsService
	metricsHandler  http.Handler
	searchLoader    SearchLoader
)

var errSearchNotConfigured = errors.New("search service not configured")

var rootCmd = &cobra.Command{
	Use:   "partsearch",
	Short: "Conversational search over a parts catalog",
	Long: `partsearch answers natural-language questions about a parts catalog.

It recognises part numbers, systems, manufacturers and cost or stock
constraints, picks a retrieval strategy and annotates every result with
cost and availability insights. Follow-up questions such as "anything
cheaper?" refine the last results.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// SetSettingsService sets the settings service used by the settings command.
func SetSettingsService(s driving.SettingsService) {
	settingsService = s
}

// SetSearchLoader sets the loader invoked by commands that need the engine.
func SetSearchLoader(l SearchLoader) {
	searchLoader = l
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// loadSearch returns the search service, building it on first use.
func loadSearch(ctx context.Context) (driving.SearchService, error) {
	if searchService != nil {
		return searchService, nil
	}
	if searchLoader == nil {
		return nil, errSearchNotConfigured
	}
	if ctx == nil {
		ctx = context.Background()
	}

	svc, handler, err := searchLoader(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}
	searchService = svc
	metricsHandler = handler
	return searchService, nil
}
