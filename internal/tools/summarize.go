package tools

import (
	"context"

	"github.com/iksnae/knowledge-store/internal"
	"github.com/mark3labs/mcp-go/mcp"
)

// SummarizeTool handles the knowledge_summarize MCP tool.
type SummarizeTool struct {
	store   *internal.Store
	current *CurrentSession
}

// NewSummarizeTool creates a SummarizeTool.
func NewSummarizeTool(store *internal.Store, current *CurrentSession) *SummarizeTool {
	return &SummarizeTool{store: store, current: current}
}

// Definition returns the MCP tool definition for knowledge_summarize.
func (t *SummarizeTool) Definition() mcp.Tool {
	return mcp.NewTool("knowledge_summarize",
		mcp.WithDescription("Summarize a session as a numbered recipe of its steps."),
		mcp.WithString("sessionId", mcp.Description("Session to summarize (default: the current session)")),
	)
}

// Handle processes the knowledge_summarize tool call.
func (t *SummarizeTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := req.GetString("sessionId", t.current.ID())
	if sessionID == "" {
		return mcp.NewToolResultError("no active session: pass 'sessionId'"), nil
	}

	recipe, err := t.store.SummarizeSession(sessionID)
	if err != nil {
		return errorResult("summarize", err)
	}
	return jsonResult(recipe)
}

// ListSessionsTool handles the knowledge_sessions MCP tool.
type ListSessionsTool struct {
	store *internal.Store
}

// NewListSessionsTool creates a ListSessionsTool.
func NewListSessionsTool(store *internal.Store) *ListSessionsTool {
	return &ListSessionsTool{store: store}
}

// Definition returns the MCP tool definition for knowledge_sessions.
func (t *ListSessionsTool) Definition() mcp.Tool {
	opts := []mcp.ToolOption{
		mcp.WithDescription("List recorded sessions, newest first."),
		mcp.WithNumber("limit", mcp.Description("Max sessions (default: 10)")),
	}
	return mcp.NewTool("knowledge_sessions", append(opts, filterParams()...)...)
}

// Handle processes the knowledge_sessions tool call.
func (t *ListSessionsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessions, err := t.store.ListSessions(intArg(req, "limit", 10), filtersArg(req))
	if err != nil {
		return errorResult("list sessions", err)
	}
	return jsonResult(sessions)
}
