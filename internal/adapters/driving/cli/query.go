package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/partsearch/internal/core/domain"
)

// queryTimeout is the soft deadline honoured between hybrid sub-queries.
const queryTimeout = 10 * time.Second

var (
	queryLimit    int
	queryMinCost  float64
	queryMaxCost  float64
	queryMinStock int
	queryStrategy string
	queryJSON     bool
	queryContext  bool
)

var queryCmd = &cobra.Command{
	Use:   "query [question]",
	Short: "Ask a question about the parts catalog",
	Long: `Understands a natural-language question, retrieves matching parts and
annotates them with cost and availability insights.

Examples:
  partsearch query BRK-001
  partsearch query "brake pads under 3000"
  partsearch query "cheapest filters in stock" --limit 5
  partsearch query "pads" --max-cost 2000 --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().IntVarP(&queryLimit, "limit", "n", 0, "maximum number of results (default from settings)")
	queryCmd.Flags().Float64Var(&queryMinCost, "min-cost", 0, "minimum cost, replaces any parsed from the question")
	queryCmd.Flags().Float64Var(&queryMaxCost, "max-cost", 0, "maximum cost, replaces any parsed from the question")
	queryCmd.Flags().IntVar(&queryMinStock, "min-stock", 0, "minimum stock level")
	queryCmd.Flags().StringVar(&queryStrategy, "strategy", "",
		"force a strategy: exact_match, vector_similarity, filtered_search, cost_optimized, hybrid_search")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output the full response as JSON")
	queryCmd.Flags().BoolVar(&queryContext, "context", false, "output the response generation context as JSON")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	svc, err := loadSearch(cmd.Context())
	if err != nil {
		return err
	}

	req := domain.QueryRequest{
		Query:    strings.Join(args, " "),
		Limit:    resolveLimit(queryLimit),
		Strategy: domain.Strategy(queryStrategy),
		Deadline: time.Now().Add(queryTimeout),
	}
	if f := queryFilters(); !f.IsZero() {
		req.Filters = &f
	}

	resp, err := svc.Query(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	switch {
	case queryContext:
		return outputJSON(cmd, domain.NewGenerationContext(resp))
	case queryJSON:
		return outputJSON(cmd, resp)
	default:
		outputResponse(cmd, resp)
		return nil
	}
}

// resolveLimit falls back to the configured default when no limit is given.
func resolveLimit(limit int) int {
	if limit > 0 {
		return limit
	}
	if settingsService != nil {
		if s, err := settingsService.Get(); err == nil && s.Search.DefaultLimit > 0 {
			return s.Search.DefaultLimit
		}
	}
	return domain.DefaultLimit
}

// queryFilters converts the filter flags; zero values are unset.
func queryFilters() domain.Filters {
	var f domain.Filters
	if queryMinCost > 0 {
		f.MinCost = domain.Float64(queryMinCost)
	}
	if queryMaxCost > 0 {
		f.MaxCost = domain.Float64(queryMaxCost)
	}
	if queryMinStock > 0 {
		f.MinStock = domain.Int(queryMinStock)
	}
	return f
}

func outputJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputResponse(cmd *cobra.Command, resp *domain.Response) {
	u := resp.Understanding
	cmd.Println("Understanding:")
	cmd.Printf("  Intent: %s\n", u.Intent)
	cmd.Printf("  Strategy: %s\n", u.SearchStrategy)
	if entities := describeEntities(u.Entities); entities != "" {
		cmd.Printf("  Entities: %s\n", entities)
	}
	if filters := describeFilters(u.Filters); filters != "" {
		cmd.Printf("  Filters: %s\n", filters)
	}
	cmd.Println()

	if len(resp.Results) == 0 {
		cmd.Println("No matching parts found.")
	} else {
		cmd.Printf("Results (%d, %.1fms):\n", resp.ResultCount, resp.SearchTimeMs)
		cmd.Println()
		outputResults(cmd, resp.Results)
	}

	if len(resp.Suggestions) > 0 {
		cmd.Println("Suggestions:")
		for _, s := range resp.Suggestions {
			cmd.Printf("  - %s\n", s)
		}
	}
}

func outputResults(cmd *cobra.Command, results []domain.EnrichedResult) {
	for i := range results {
		r := &results[i]
		// Format: [N] PART-NUMBER Name (system) score
		cmd.Printf("  [%d] %s %s", i+1, r.PartNumber(), r.PartName())
		if sys := r.System(); sys != "" {
			cmd.Printf(" (%s)", sys)
		}
		cmd.Printf(" %.2f\n", r.MatchScore)
		cmd.Printf("      %s | stock %d (%s)\n",
			formatCost(r.CostNumeric, r.CostInsights.Position), r.StockNumeric, r.AvailabilityInsights.Level)
		if r.MatchExplanation != "" {
			cmd.Printf("      %s\n", r.MatchExplanation)
		}
		cmd.Println()
	}
}

func formatCost(cost float64, position domain.CostPosition) string {
	if cost <= 0 {
		return "cost n/a"
	}
	if position == "" {
		return fmt.Sprintf("cost %.2f", cost)
	}
	return fmt.Sprintf("cost %.2f (%s)", cost, position)
}

func describeEntities(e domain.Entities) string {
	var parts []string
	add := func(label string, values []string) {
		if len(values) > 0 {
			parts = append(parts, label+" "+strings.Join(values, ", "))
		}
	}
	add("part numbers", e.PartNumbers)
	add("systems", e.Systems)
	add("manufacturers", e.Manufacturers)
	add("materials", e.Materials)
	add("features", e.Features)
	return strings.Join(parts, "; ")
}

func describeFilters(f domain.Filters) string {
	var parts []string
	if f.MinCost != nil {
		parts = append(parts, fmt.Sprintf("min cost %.2f", *f.MinCost))
	}
	if f.MaxCost != nil {
		parts = append(parts, fmt.Sprintf("max cost %.2f", *f.MaxCost))
	}
	if f.MinStock != nil {
		parts = append(parts, fmt.Sprintf("min stock %d", *f.MinStock))
	}
	if f.QualityLevel != "" {
		parts = append(parts, "quality "+f.QualityLevel)
	}
	return strings.Join(parts, ", ")
}
