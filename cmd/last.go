package cmd

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/knowledge-store/internal"
	"github.com/spf13/cobra"
)

var (
	lastScope   string
	lastFormat  string
	lastFilters filterFlags

	searchLimit   int
	searchScope   string
	searchFormat  string
	searchFilters filterFlags
)

var screenStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("39"))

var lastCmd = &cobra.Command{
	Use:   "last [n]",
	Short: "Show the most recent steps",
	Long: `Show the most recent steps, newest first.

--scope is current (default), all, or a session id.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n := cfg.DefaultLimit
		if len(args) == 1 {
			parsed, err := strconv.Atoi(args[0])
			if err != nil {
				return &internal.ValidationError{Field: "n", Reason: "must be a number"}
			}
			n = parsed
		}

		scope, err := internal.ParseScope(lastScope)
		if err != nil {
			return err
		}

		steps, err := store.GetLastSteps(n, scope, currentSessionID(), lastFilters.filters())
		if err != nil {
			return err
		}

		if lastFormat != "text" {
			return writeStructured(cmd.OutOrStdout(), lastFormat, steps)
		}
		displaySteps(cmd.OutOrStdout(), fmt.Sprintf("🕘 Last %d step(s)", len(steps)), steps)
		return nil
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search recorded steps",
	Long: `Search recorded steps by tool name, target, screen or error code.

Results are ranked by where the query matched, best first. --scope is all
(default), current, or a session id.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		scope, err := internal.ParseScope(searchScope)
		if err != nil {
			return err
		}

		limit := searchLimit
		if limit == 0 {
			limit = cfg.DefaultLimit
		}

		steps, err := store.SearchSteps(args[0], limit, scope, currentSessionID(), searchFilters.filters())
		if err != nil {
			return err
		}

		if searchFormat != "text" {
			return writeStructured(cmd.OutOrStdout(), searchFormat, steps)
		}
		displaySteps(cmd.OutOrStdout(), fmt.Sprintf("🔎 %d match(es) for %q", len(steps), args[0]), steps)
		return nil
	},
}

func displaySteps(out io.Writer, title string, steps []internal.StepSummary) {
	if len(steps) == 0 {
		_, _ = fmt.Fprintln(out, headerStyle.Render("No steps found"))
		return
	}

	_, _ = fmt.Fprintln(out, headerStyle.Render(title))
	_, _ = fmt.Fprintln(out)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, s := range steps {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			dateStyle.Render(s.Timestamp.Local().Format("Jan 02 15:04:05")),
			idStyle.Render(s.SessionID),
			titleStyle.Render(s.Tool),
			screenStyle.Render(s.Screen),
			s.Snippet,
		)
	}
	_ = w.Flush()
}

func init() {
	rootCmd.AddCommand(lastCmd)
	lastCmd.Flags().StringVar(&lastScope, "scope", "current", "current, all, or a session id")
	lastCmd.Flags().StringVar(&lastFormat, "format", "text", "Output format (text, json, yaml)")
	lastFilters.register(lastCmd, true)

	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "Max results (default: default_limit from config)")
	searchCmd.Flags().StringVar(&searchScope, "scope", "all", "all, current, or a session id")
	searchCmd.Flags().StringVar(&searchFormat, "format", "text", "Output format (text, json, yaml)")
	searchFilters.register(searchCmd, true)
}
