package tools

import (
	"context"

	"github.com/iksnae/knowledge-store/internal"
	"github.com/mark3labs/mcp-go/mcp"
)

// LastStepsTool handles the knowledge_last_steps MCP tool.
type LastStepsTool struct {
	store   *internal.Store
	current *CurrentSession
}

// NewLastStepsTool creates a LastStepsTool.
func NewLastStepsTool(store *internal.Store, current *CurrentSession) *LastStepsTool {
	return &LastStepsTool{store: store, current: current}
}

// Definition returns the MCP tool definition for knowledge_last_steps.
func (t *LastStepsTool) Definition() mcp.Tool {
	opts := []mcp.ToolOption{
		mcp.WithDescription("List the most recent steps, newest first."),
		mcp.WithNumber("n", mcp.Description("Number of steps (default: 20)")),
		mcp.WithString("scope", mcp.Description("current (default), all, or a session id")),
	}
	return mcp.NewTool("knowledge_last_steps", append(opts, filterParams()...)...)
}

// Handle processes the knowledge_last_steps tool call.
func (t *LastStepsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	scope, err := internal.ParseScope(req.GetString("scope", ""))
	if err != nil {
		return errorResult("last steps", err)
	}

	steps, err := t.store.GetLastSteps(intArg(req, "n", 20), scope, t.current.ID(), filtersArg(req))
	if err != nil {
		return errorResult("last steps", err)
	}
	return jsonResult(steps)
}

// SearchTool handles the knowledge_search MCP tool.
type SearchTool struct {
	store   *internal.Store
	current *CurrentSession
}

// NewSearchTool creates a SearchTool.
func NewSearchTool(store *internal.Store, current *CurrentSession) *SearchTool {
	return &SearchTool{store: store, current: current}
}

// Definition returns the MCP tool definition for knowledge_search.
func (t *SearchTool) Definition() mcp.Tool {
	opts := []mcp.ToolOption{
		mcp.WithDescription(
			"Search recorded steps by tool name, target, screen or error code. Matches are ranked by where they hit.",
		),
		mcp.WithString("query", mcp.Required(), mcp.Description("Case-insensitive search text")),
		mcp.WithNumber("limit", mcp.Description("Max results (default: 20)")),
		mcp.WithString("scope", mcp.Description("all (default), current, or a session id")),
	}
	return mcp.NewTool("knowledge_search", append(opts, filterParams()...)...)
}

// Handle processes the knowledge_search tool call.
func (t *SearchTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := req.GetString("query", "")
	if query == "" {
		return mcp.NewToolResultError("'query' is required"), nil
	}

	scope, err := internal.ParseScope(req.GetString("scope", "all"))
	if err != nil {
		return errorResult("search", err)
	}

	steps, err := t.store.SearchSteps(query, intArg(req, "limit", 20), scope, t.current.ID(), filtersArg(req))
	if err != nil {
		return errorResult("search", err)
	}
	return jsonResult(steps)
}
