package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

var suggestLimit int

var suggestCmd = &cobra.Command{
	Use:   "suggest [prefix]",
	Short: "Complete a partially typed catalog term",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := loadSearch(cmd.Context())
		if err != nil {
			return err
		}

		suggestions := svc.Suggest(cmd.Context(), strings.TrimSpace(args[0]), suggestLimit)
		if len(suggestions) == 0 {
			cmd.Println("No suggestions.")
			return nil
		}
		for _, s := range suggestions {
			cmd.Println(s)
		}
		return nil
	},
}

func init() {
	suggestCmd.Flags().IntVarP(&suggestLimit, "limit", "n", 5, "maximum number of suggestions")
	rootCmd.AddCommand(suggestCmd)
}
