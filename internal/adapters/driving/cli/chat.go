package cli

import (
	"bufio"
	"fmt"
	"os"
	"runtime/debug"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/partsearch/internal/adapters/driving/tui"
	"github.com/custodia-labs/partsearch/internal/core/domain"
	"github.com/custodia-labs/partsearch/internal/core/ports/driving"
)

var chatPlain bool

// chatCmd represents the chat command.
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start a conversation about the parts catalog",
	Long: `Start an interactive conversation. Follow-up questions refine the
last results:

  anything cheaper?     - cheaper parts in the same systems
  more like the first   - parts similar to the top result
  which are in stock?   - keep only parts in stock
  compare them          - diff the top two results

On a terminal this launches the chat interface. Use --plain, or pipe
questions on stdin, for a line-based conversation. Type "exit" to leave.`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().BoolVar(&chatPlain, "plain", false, "line-based conversation without the terminal UI")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	svc, err := loadSearch(cmd.Context())
	if err != nil {
		return err
	}

	if chatPlain || !isTerminal() {
		return runREPL(cmd, svc)
	}
	return runChatTUI(cmd, svc)
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

func runChatTUI(cmd *cobra.Command, svc driving.SearchService) error {
	// Add panic recovery to get stack traces
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	app, err := tui.NewApp(&tui.Ports{
		Search: svc,
		Limit:  resolveLimit(0),
	})
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}

	if err := app.WithContext(cmd.Context()).Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

// runREPL reads one question per line until EOF or "exit".
func runREPL(cmd *cobra.Command, svc driving.SearchService) error {
	conv := svc.NewConversation()
	limit := resolveLimit(0)
	scanner := bufio.NewScanner(cmd.InOrStdin())

	for {
		cmd.Print("> ")
		if !scanner.Scan() {
			cmd.Println()
			return scanner.Err()
		}
		question := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(question) {
		case "":
			continue
		case "exit", "quit":
			return nil
		}

		if conv.IsFollowUp(question) {
			answer, err := conv.FollowUp(cmd.Context(), question)
			if err != nil {
				cmd.Printf("Error: %v\n", err)
				continue
			}
			outputFollowUp(cmd, answer)
			continue
		}

		resp, err := conv.Ask(cmd.Context(), domain.QueryRequest{
			Query:    question,
			Limit:    limit,
			Deadline: time.Now().Add(queryTimeout),
		})
		if err != nil {
			cmd.Printf("Error: %v\n", err)
			continue
		}
		outputResponse(cmd, resp)
	}
}

func outputFollowUp(cmd *cobra.Command, answer *domain.FollowUpAnswer) {
	cmd.Println(answer.Response)
	cmd.Println()

	for i := range answer.Alternatives {
		alt := &answer.Alternatives[i]
		cmd.Printf("  [%d] %s %s\n", i+1, alt.PartNumber(), alt.Part.String(domain.FieldPartName))
		cmd.Printf("      cost %.2f | stock %d | saves %.2f against %s\n",
			alt.CostNumeric, alt.StockNumeric, alt.Savings, alt.AlternativeFor)
		cmd.Println()
	}
	if len(answer.Results) > 0 {
		outputResults(cmd, answer.Results)
	}
	if d := answer.Diff; d != nil {
		for _, f := range d.Fields {
			if f.Differs {
				cmd.Printf("  %s: %s | %s\n", f.Field, f.Left, f.Right)
			}
		}
		if d.Cheaper != "" {
			cmd.Printf("  %s is cheaper by %.2f\n", d.Cheaper, absFloat(d.CostDifference))
		}
		cmd.Println()
	}
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
