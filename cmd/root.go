package cmd

import (
	"fmt"
	"os"

	"github.com/iksnae/knowledge-store/internal"
	"github.com/spf13/cobra"
)

var (
	verbose    bool
	rootPath   string
	configFile string
	sessionID  string
	version    string = "dev"
	commit     string = "unknown"
	date       string = "unknown"

	// cfg and store are set by PersistentPreRunE before any subcommand runs
	cfg   *internal.Config
	store *internal.Store
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "knowledge",
	Short: "Record and retrieve knowledge from interactive test sessions",
	Long: `A CLI for the step/session knowledge store.

Every tool invocation of an interactive session is recorded as a step under
a session directory. Recorded steps can be listed, searched, summarized into
recipes and ranked against the current screen to suggest what to do next.

Features:
  • Append-only file store, one JSON file per step
  • Redaction of typed text into sensitive fields
  • Keyword search with synonym-aware prior-knowledge ranking
  • Export to JSON, JSONL, YAML, Markdown and SQLite
  • MCP server exposing every operation to an agent

Quick Start:
  knowledge start --goal "send funds" --flow-tag send
  knowledge record mm_click --test-id send-button --screen home
  knowledge last 5
  knowledge prior --screen home --visible send-button
  knowledge serve                        # MCP over stdio`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := internal.LoadConfig(configFile)
		if err != nil {
			return err
		}
		if rootPath != "" {
			loaded.KnowledgeRoot = rootPath
		}
		internal.SetLogLevel(internal.ParseLogLevel(loaded.LogLevel))
		if verbose {
			internal.SetVerbose(true)
		}
		internal.SetLogOutput(cmd.ErrOrStderr())

		cfg = loaded
		store = cfg.OpenStore()
		internal.LogDebug("knowledge root: %s", cfg.KnowledgeRoot)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// currentSessionID is --session, else the most recently created session
func currentSessionID() string {
	if sessionID != "" {
		return sessionID
	}
	ids := store.GetAllSessionIDs()
	if len(ids) == 0 {
		return ""
	}
	return ids[len(ids)-1]
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&rootPath, "root", "", "Knowledge root directory (overrides config and KNOWLEDGE_ROOT)")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default: knowledge.yaml in . or ~/.config/knowledge-store)")
	rootCmd.PersistentFlags().StringVar(&sessionID, "session", os.Getenv("KNOWLEDGE_SESSION"), "Current session id (default: $KNOWLEDGE_SESSION, else the newest session)")

	// Set version template to ensure --version flag works
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}
