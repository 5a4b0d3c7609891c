package cmd

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/knowledge-store/internal"
	"github.com/spf13/cobra"
)

// detailLimit caps how many offending paths are listed per check
const detailLimit = 5

var (
	healthcheckDetails bool
	healthcheckFormat  string
)

var (
	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true).
			Underline(true)
)

// healthcheckCmd represents the healthcheck command
var healthcheckCmd = &cobra.Command{
	Use:   "healthcheck",
	Short: "Check that the knowledge root is readable",
	Long: `Check the health of the knowledge root by verifying:
  • The root directory exists
  • Every session has readable metadata
  • Every step file decodes
  • The current session resolves

This command is useful for debugging a store written by several agents or
copied between machines.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		report := store.CheckHealth()
		out := cmd.OutOrStdout()

		if healthcheckFormat != "text" {
			if err := writeStructured(out, healthcheckFormat, report); err != nil {
				return err
			}
		} else {
			displayHealth(out, report)
		}

		if !report.Healthy() {
			return fmt.Errorf("health check failed for %s", report.Root)
		}
		return nil
	},
}

func displayHealth(out io.Writer, report *internal.HealthReport) {
	_, _ = fmt.Fprintln(out, sectionStyle.Render("🔍 Knowledge Store Health Check"))
	_, _ = fmt.Fprintln(out)

	// Step 1: root
	_, _ = fmt.Fprintln(out, infoStyle.Render("Step 1: Checking knowledge root..."))
	if !report.RootExists {
		_, _ = fmt.Fprintln(out, errorStyle.Render("❌ Knowledge root not found"))
		_, _ = fmt.Fprintf(out, "   Expected: %s\n", report.Root)
		_, _ = fmt.Fprintln(out, "   The root is created by the first 'knowledge start' or 'knowledge record'")
		return
	}
	_, _ = fmt.Fprintln(out, successStyle.Render("✅ Knowledge root found"))
	if healthcheckDetails {
		_, _ = fmt.Fprintf(out, "   Directory: %s\n", report.Root)
	}
	_, _ = fmt.Fprintln(out)

	// Step 2: sessions
	_, _ = fmt.Fprintln(out, infoStyle.Render("Step 2: Reading session metadata..."))
	switch {
	case report.Sessions == 0:
		_, _ = fmt.Fprintln(out, warningStyle.Render("⚠️  No sessions found"))
	case len(report.MissingMetadata) == 0:
		_, _ = fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("✅ Found %d session(s)", report.Sessions)))
	default:
		_, _ = fmt.Fprintln(out, errorStyle.Render(fmt.Sprintf("❌ %d of %d session(s) have no readable metadata", len(report.MissingMetadata), report.Sessions)))
		listDetails(out, report.MissingMetadata)
	}
	_, _ = fmt.Fprintln(out)

	// Step 3: steps
	_, _ = fmt.Fprintln(out, infoStyle.Render("Step 3: Decoding step files..."))
	if len(report.MalformedSteps) == 0 {
		_, _ = fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("✅ Decoded %d step(s)", report.Steps)))
	} else {
		_, _ = fmt.Fprintln(out, errorStyle.Render(fmt.Sprintf("❌ %d step file(s) do not decode", len(report.MalformedSteps))))
		listDetails(out, report.MalformedSteps)
	}
	if len(report.StrayFiles) > 0 {
		_, _ = fmt.Fprintln(out, warningStyle.Render(fmt.Sprintf("⚠️  %d stray file(s) in steps directories", len(report.StrayFiles))))
		listDetails(out, report.StrayFiles)
	}
	_, _ = fmt.Fprintln(out)

	// Step 4: current session
	_, _ = fmt.Fprintln(out, infoStyle.Render("Step 4: Resolving current session..."))
	if current := currentSessionID(); current != "" {
		_, _ = fmt.Fprintln(out, successStyle.Render("✅ Current session: "+current))
	} else {
		_, _ = fmt.Fprintln(out, warningStyle.Render("⚠️  No current session"))
	}
	_, _ = fmt.Fprintln(out)

	// Summary
	_, _ = fmt.Fprintln(out, sectionStyle.Render("📊 Summary"))
	_, _ = fmt.Fprintln(out)
	if report.Healthy() {
		_, _ = fmt.Fprintln(out, successStyle.Render("✅ Health check passed!"))
		_, _ = fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("   • Sessions: %d", report.Sessions)))
		_, _ = fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("   • Steps: %d", report.Steps)))
	} else {
		_, _ = fmt.Fprintln(out, errorStyle.Render("❌ Health check failed"))
		_, _ = fmt.Fprintln(out, "   Run with --details to list the unreadable files")
	}
}

func listDetails(out io.Writer, items []string) {
	if !healthcheckDetails {
		return
	}
	for i, item := range items {
		if i == detailLimit {
			_, _ = fmt.Fprintf(out, "   ... and %d more\n", len(items)-detailLimit)
			break
		}
		_, _ = fmt.Fprintf(out, "   [%d] %s\n", i+1, item)
	}
}

func init() {
	rootCmd.AddCommand(healthcheckCmd)
	healthcheckCmd.Flags().BoolVarP(&healthcheckDetails, "details", "d", false, "Show detailed diagnostic information")
	healthcheckCmd.Flags().StringVar(&healthcheckFormat, "format", "text", "Output format (text, json, yaml)")
}
