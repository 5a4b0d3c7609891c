// Package server wires the knowledge store into an MCP server.
//
// It only registers tools; the handlers live in internal/tools.
package server

import (
	"github.com/iksnae/knowledge-store/internal"
	"github.com/iksnae/knowledge-store/internal/tools"
	"github.com/mark3labs/mcp-go/server"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New creates the MCP server with every knowledge tool registered against
// store. All tools share one current-session pointer.
func New(store *internal.Store) *server.MCPServer {
	s := server.NewMCPServer(
		"knowledge-store",
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	current := &tools.CurrentSession{}

	// --- Recording ---
	startTool := tools.NewStartSessionTool(store, current)
	s.AddTool(startTool.Definition(), startTool.Handle)

	recordTool := tools.NewRecordStepTool(store, current)
	s.AddTool(recordTool.Definition(), recordTool.Handle)

	// --- Query & retrieval ---
	lastTool := tools.NewLastStepsTool(store, current)
	s.AddTool(lastTool.Definition(), lastTool.Handle)

	searchTool := tools.NewSearchTool(store, current)
	s.AddTool(searchTool.Definition(), searchTool.Handle)

	summarizeTool := tools.NewSummarizeTool(store, current)
	s.AddTool(summarizeTool.Definition(), summarizeTool.Handle)

	sessionsTool := tools.NewListSessionsTool(store)
	s.AddTool(sessionsTool.Definition(), sessionsTool.Handle)

	// --- Prior knowledge ---
	priorTool := tools.NewPriorTool(store, current)
	s.AddTool(priorTool.Definition(), priorTool.Handle)

	return s
}

// Serve runs the server over stdio until stdin closes
func Serve(store *internal.Store) error {
	internal.LogInfo("serving knowledge store %s over stdio", store.Root())
	return server.ServeStdio(New(store))
}

func serverInstructions() string {
	return `You have access to a knowledge store of earlier interactive sessions.

## Recording
Call knowledge_start_session once at the beginning of a run, then
knowledge_record_step after every tool call with its outcome and the screen
you ended up on. Typed text into sensitive fields is redacted automatically.

## Before acting
Call knowledge_prior with the current screen, URL and visible test ids. It
returns similar past steps, suggested next actions with fallback targets,
and targets to avoid because they keep failing on this screen.

## Looking back
knowledge_last_steps and knowledge_search query recorded steps;
knowledge_summarize turns a session into a recipe; knowledge_sessions lists
sessions by flow tag, tag, branch or age.`
}
