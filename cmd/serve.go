package cmd

import (
	"github.com/iksnae/knowledge-store/internal/server"
	"github.com/spf13/cobra"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the knowledge tools over MCP (stdio)",
	Long: `Run an MCP server on stdin/stdout exposing the knowledge tools:
knowledge_start_session, knowledge_record_step, knowledge_last_steps,
knowledge_search, knowledge_summarize, knowledge_sessions and
knowledge_prior.

Logs go to stderr so they never mix with the protocol stream.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		server.Version = version
		return server.Serve(store)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
