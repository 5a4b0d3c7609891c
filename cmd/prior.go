package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/knowledge-store/internal"
	"github.com/spf13/cobra"
)

var (
	priorScreen   string
	priorURL      string
	priorVisible  []string
	priorA11y     []string
	priorFlowTags []string
	priorFormat   string
)

var (
	rankStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	confidenceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))
)

var priorCmd = &cobra.Command{
	Use:   "prior",
	Short: "Rank prior knowledge for the current screen",
	Long: `Rank what other recent sessions did in a situation like this one.

Prints similar past steps, suggested next actions with fallback targets, and
targets that keep failing on this screen. Accessible names are given as
ref=name pairs (--a11y e9=Send).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		pc := internal.PriorContext{
			CurrentScreen:  priorScreen,
			CurrentURL:     priorURL,
			VisibleTestIDs: priorVisible,
			FlowTags:       priorFlowTags,
		}
		for _, pair := range priorA11y {
			if ref, name, ok := strings.Cut(pair, "="); ok {
				pc.A11yNodes = append(pc.A11yNodes, internal.A11yNode{Ref: ref, Name: name})
			} else {
				pc.A11yNodes = append(pc.A11yNodes, internal.A11yNode{Name: pair})
			}
		}

		pk, err := store.GeneratePriorKnowledge(pc, currentSessionID())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if pk == nil {
			if priorFormat == "text" {
				_, _ = fmt.Fprintln(out, warningStyle.Render("⚠️  No prior knowledge found for this context"))
				return nil
			}
			return writeStructured(out, priorFormat, nil)
		}
		if priorFormat != "text" {
			return writeStructured(out, priorFormat, pk)
		}
		displayPrior(out, pk)
		return nil
	},
}

func displayPrior(out io.Writer, pk *internal.PriorKnowledge) {
	_, _ = fmt.Fprintln(out, sectionStyle.Render("🧠 Prior knowledge"))
	_, _ = fmt.Fprintf(out, "   %d candidate session(s), %d step(s), last %dh\n\n",
		pk.Query.CandidateSessions, pk.Query.CandidateSteps, pk.Query.WindowHours)

	if len(pk.SuggestedNextActions) > 0 {
		_, _ = fmt.Fprintln(out, infoStyle.Render("Suggested next actions"))
		for _, a := range pk.SuggestedNextActions {
			line := fmt.Sprintf("%s %s %s  %s",
				rankStyle.Render(fmt.Sprintf("%d.", a.Rank)), a.Action, a.PreferredTarget.String(),
				confidenceStyle.Render(fmt.Sprintf("(%.2f, %s)", a.Confidence, a.Rationale)))
			_, _ = fmt.Fprintln(out, "   "+line)
			for _, fb := range a.FallbackTargets {
				_, _ = fmt.Fprintf(out, "      fallback: %s\n", fb.String())
			}
		}
		_, _ = fmt.Fprintln(out)
	}

	if len(pk.Avoid) > 0 {
		_, _ = fmt.Fprintln(out, errorStyle.Render("Avoid"))
		for _, a := range pk.Avoid {
			_, _ = fmt.Fprintf(out, "   %s failed %d time(s) %s\n", a.Target.String(), a.Frequency, a.ErrorCode)
		}
		_, _ = fmt.Fprintln(out)
	}

	if len(pk.SimilarSteps) > 0 {
		_, _ = fmt.Fprintln(out, infoStyle.Render("Similar steps"))
		for _, s := range pk.SimilarSteps {
			status := successStyle.Render("ok")
			if !s.OK {
				status = errorStyle.Render("failed")
			}
			_, _ = fmt.Fprintf(out, "   %s %s %s %s\n",
				confidenceStyle.Render(fmt.Sprintf("[%2d]", s.Score)), s.Tool, s.Snippet, status)
		}
	}

	if len(pk.RelatedSessions) > 0 {
		_, _ = fmt.Fprintln(out)
		_, _ = fmt.Fprintln(out, infoStyle.Render("Related sessions"))
		for _, s := range pk.RelatedSessions {
			_, _ = fmt.Fprintf(out, "   %s %s\n", idStyle.Render(s.SessionID), s.Goal)
		}
	}
}

func init() {
	rootCmd.AddCommand(priorCmd)
	priorCmd.Flags().StringVar(&priorScreen, "screen", "", "Screen the app is on now")
	priorCmd.Flags().StringVar(&priorURL, "url", "", "URL the app is on now")
	priorCmd.Flags().StringSliceVar(&priorVisible, "visible", nil, "data-testids visible now")
	priorCmd.Flags().StringSliceVar(&priorA11y, "a11y", nil, "Accessible names visible now, as ref=name")
	priorCmd.Flags().StringSliceVar(&priorFlowTags, "flow-tag", nil, "Restrict history to this flow tag (default: the current session's)")
	priorCmd.Flags().StringVar(&priorFormat, "format", "text", "Output format (text, json, yaml)")
}
