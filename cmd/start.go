package cmd

import (
	"fmt"

	"github.com/iksnae/knowledge-store/internal"
	"github.com/spf13/cobra"
)

var (
	startGoal          string
	startFlowTags      []string
	startTags          []string
	startStateMode     string
	startFixturePreset string
	startQuiet         bool
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start a new session",
	Long: `Start a new session and print its id.

Later commands treat the newest session as current, or the one named by
--session / $KNOWLEDGE_SESSION:

  export KNOWLEDGE_SESSION=$(knowledge start -q --goal "send funds")`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		meta, path, err := store.StartSession(internal.StartSessionParams{
			Goal:     startGoal,
			FlowTags: startFlowTags,
			Tags:     startTags,
			Launch: internal.LaunchConfig{
				StateMode:     startStateMode,
				FixturePreset: startFixturePreset,
			},
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if startQuiet {
			_, _ = fmt.Fprintln(out, meta.SessionID)
			return nil
		}
		_, _ = fmt.Fprintln(out, successStyle.Render("✅ Started session ")+idStyle.Render(meta.SessionID))
		_, _ = fmt.Fprintf(out, "   Metadata: %s\n", path)
		if meta.Git != nil && meta.Git.Branch != "" {
			_, _ = fmt.Fprintf(out, "   Branch: %s (%s)\n", meta.Git.Branch, meta.Git.Commit)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(startCmd)
	startCmd.Flags().StringVar(&startGoal, "goal", "", "What this session is trying to accomplish")
	startCmd.Flags().StringSliceVar(&startFlowTags, "flow-tag", nil, "Flow tag (repeatable)")
	startCmd.Flags().StringSliceVar(&startTags, "tag", nil, "Free-form tag (repeatable)")
	startCmd.Flags().StringVar(&startStateMode, "state-mode", "default", "Launch state: default, onboarding or custom")
	startCmd.Flags().StringVar(&startFixturePreset, "fixture", "", "Fixture preset used at launch")
	startCmd.Flags().BoolVarP(&startQuiet, "quiet", "q", false, "Print only the session id")
}
