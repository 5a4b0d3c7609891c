package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/knowledge-store/internal"
	"github.com/spf13/cobra"
)

var showFormat string

var (
	// Styles for show command
	sessionHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("212")).
				Padding(0, 1).
				MarginBottom(1)

	sessionMetaStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("243"))

	stepNumberStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)

	failedNoteStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))
)

// showCmd represents the show command
var showCmd = &cobra.Command{
	Use:     "show [session-id]",
	Aliases: []string{"recipe"},
	Short:   "Show a session as a recipe",
	Long: `Summarize a session into a numbered recipe of its steps.

Without an argument the current session is shown.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sid := currentSessionID()
		if len(args) == 1 {
			sid = args[0]
		}
		if sid == "" {
			return fmt.Errorf("no session: pass a session id")
		}

		recipe, err := store.SummarizeSession(sid)
		if err != nil {
			return err
		}

		if showFormat != "text" {
			return writeStructured(cmd.OutOrStdout(), showFormat, recipe)
		}
		meta, _ := store.ReadSessionMetadata(sid)
		displayRecipe(cmd.OutOrStdout(), recipe, meta)
		return nil
	},
}

func displayRecipe(out io.Writer, recipe *internal.SessionRecipe, meta *internal.SessionMetadata) {
	_, _ = fmt.Fprintln(out, sessionHeaderStyle.Render("📖 Session "+recipe.SessionID))

	if meta != nil {
		var lines []string
		if meta.Goal != "" {
			lines = append(lines, "Goal: "+meta.Goal)
		}
		lines = append(lines, "Created: "+meta.CreatedAt.Local().Format(time.RFC1123))
		if len(meta.FlowTags) > 0 {
			lines = append(lines, "Flow: "+strings.Join(meta.FlowTags, ", "))
		}
		if meta.Git != nil && meta.Git.Branch != "" {
			lines = append(lines, "Branch: "+meta.Git.Branch)
		}
		_, _ = fmt.Fprintln(out, sessionMetaStyle.Render(strings.Join(lines, "\n")))
		_, _ = fmt.Fprintln(out)
	}

	if recipe.StepCount == 0 {
		_, _ = fmt.Fprintln(out, sessionMetaStyle.Render("No steps recorded"))
		return
	}

	for _, step := range recipe.Recipe {
		notes := step.Notes
		if strings.Contains(notes, "FAILED:") {
			notes = failedNoteStyle.Render(notes)
		}
		_, _ = fmt.Fprintf(out, "%s %s  %s\n",
			stepNumberStyle.Render(fmt.Sprintf("%3d.", step.StepNumber)),
			titleStyle.Render(step.Tool),
			notes,
		)
	}
	_, _ = fmt.Fprintln(out)
	_, _ = fmt.Fprintln(out, countStyle.Render(fmt.Sprintf("%d step(s)", recipe.StepCount)))
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().StringVar(&showFormat, "format", "text", "Output format (text, json, yaml)")
}
