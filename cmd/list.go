package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/knowledge-store/internal"
	"github.com/spf13/cobra"
)

var (
	listLimit   int
	listMatch   string
	listFormat  string
	listFilters filterFlags
)

var (
	// Styles
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	idStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Italic(true)

	countStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	dateStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	tagStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("135")).
			Italic(true)
)

// listCmd represents the sessions command
var listCmd = &cobra.Command{
	Use:     "sessions",
	Aliases: []string{"list"},
	Short:   "List recorded sessions",
	Long: `List recorded sessions, newest first.

Sessions can be narrowed by flow tag, tag, git branch and age, or by a glob
over session ids (--match "mm-2026-03-*").`,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit := listLimit
		if limit == 0 {
			limit = cfg.DefaultLimit
		}

		fetch := limit
		if listMatch != "" {
			fetch = max(limit, len(store.GetAllSessionIDs()))
		}
		sessions, err := store.ListSessions(fetch, listFilters.filters())
		if err != nil {
			return err
		}

		if listMatch != "" {
			matched, err := store.MatchSessionIDs(listMatch)
			if err != nil {
				return err
			}
			keep := make(map[string]bool, len(matched))
			for _, id := range matched {
				keep[id] = true
			}
			filtered := sessions[:0]
			for _, s := range sessions {
				if keep[s.SessionID] {
					filtered = append(filtered, s)
				}
			}
			sessions = filtered
			if len(sessions) > limit {
				sessions = sessions[:limit]
			}
		}

		if listFormat != "text" {
			return writeStructured(cmd.OutOrStdout(), listFormat, sessions)
		}
		displaySessions(cmd.OutOrStdout(), sessions, store.Now())
		return nil
	},
}

func displaySessions(out io.Writer, sessions []internal.SessionSummary, now time.Time) {
	if len(sessions) == 0 {
		_, _ = fmt.Fprintln(out, headerStyle.Render("📋 No sessions found"))
		return
	}

	header := headerStyle.Render(fmt.Sprintf("📋 Found %d session(s)", len(sessions)))
	_, _ = fmt.Fprintln(out, header)
	_, _ = fmt.Fprintln(out)

	// Use tabwriter for aligned columns with better spacing
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)

	_, _ = fmt.Fprintln(w, titleStyle.Render("ID")+"\t"+titleStyle.Render("Goal")+"\t"+titleStyle.Render("Flow")+"\t"+titleStyle.Render("Branch")+"\t"+titleStyle.Render("Created")+"\t")
	_, _ = fmt.Fprintln(w, strings.Repeat("─", 100))

	for _, s := range sessions {
		goal := s.Goal
		if goal == "" {
			goal = "—"
		}
		// Truncate long goals but keep them readable
		if len([]rune(goal)) > 40 {
			goal = string([]rune(goal)[:37]) + "..."
		}

		flow := "—"
		if len(s.FlowTags) > 0 {
			flow = tagStyle.Render(strings.Join(s.FlowTags, ","))
		}

		branch := "—"
		if s.Git != nil && s.Git.Branch != "" {
			branch = s.Git.Branch
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t\n",
			idStyle.Render(s.SessionID), goal, flow, branch, dateStyle.Render(relativeTime(s.CreatedAt, now)))
	}

	_ = w.Flush()
	_, _ = fmt.Fprintln(out)
	_, _ = fmt.Fprintln(out, idStyle.Render("💡 Tip: Use ")+
		lipgloss.NewStyle().Foreground(lipgloss.Color("62")).Render("knowledge show "+sessions[0].SessionID)+
		idStyle.Render(" to see a session's recipe"))
}

// relativeTime formats t compactly relative to now
func relativeTime(t, now time.Time) string {
	if t.IsZero() {
		return "—"
	}
	t = t.Local()
	diff := now.Sub(t)
	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return strconv.Itoa(int(diff.Minutes())) + "m ago"
	case diff < 24*time.Hour:
		return t.Format("Today 15:04")
	case diff < 7*24*time.Hour:
		return t.Format("Mon 15:04")
	case diff < 365*24*time.Hour:
		return t.Format("Jan 02 15:04")
	default:
		return t.Format("2006-01-02")
	}
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 0, "Max sessions (default: default_limit from config)")
	listCmd.Flags().StringVar(&listMatch, "match", "", "Only session ids matching this glob")
	listCmd.Flags().StringVar(&listFormat, "format", "text", "Output format (text, json, yaml)")
	listFilters.register(listCmd, false)
}
