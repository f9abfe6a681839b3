package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var metricsJSON bool

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Summarise the loaded catalog",
	RunE: func(cmd *cobra.Command, _ []string) error {
		svc, err := loadSearch(cmd.Context())
		if err != nil {
			return err
		}

		m, err := svc.QuickMetrics(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to read metrics: %w", err)
		}
		if metricsJSON {
			return outputJSON(cmd, m)
		}

		cmd.Println("Catalog")
		cmd.Println("=======")
		cmd.Printf("  Parts: %d\n", m.TotalParts)
		cmd.Printf("  Systems: %d\n", m.Systems)
		cmd.Printf("  Manufacturers: %d\n", m.Manufacturers)
		cmd.Printf("  Average cost: %.2f\n", m.AverageCost)
		cmd.Printf("  Low stock parts: %d\n", m.LowStockParts)
		cmd.Printf("  Ranker: %s\n", m.Ranker)
		if m.VectorIndexAvailable {
			cmd.Println("  Vector index: available")
		} else {
			cmd.Println("  Vector index: unavailable")
		}
		if m.CatalogHash != "" {
			cmd.Printf("  Catalog hash: %s\n", m.CatalogHash)
		}
		return nil
	},
}

func init() {
	metricsCmd.Flags().BoolVar(&metricsJSON, "json", false, "output metrics as JSON")
	rootCmd.AddCommand(metricsCmd)
}
