package tools

import (
	"context"

	"github.com/iksnae/knowledge-store/internal"
	"github.com/mark3labs/mcp-go/mcp"
)

// StartSessionTool handles the knowledge_start_session MCP tool.
type StartSessionTool struct {
	store   *internal.Store
	current *CurrentSession
}

// NewStartSessionTool creates a StartSessionTool.
func NewStartSessionTool(store *internal.Store, current *CurrentSession) *StartSessionTool {
	return &StartSessionTool{store: store, current: current}
}

// Definition returns the MCP tool definition for knowledge_start_session.
func (t *StartSessionTool) Definition() mcp.Tool {
	return mcp.NewTool("knowledge_start_session",
		mcp.WithDescription(
			"Start a new knowledge session. Steps recorded afterwards belong to it until another session is started.",
		),
		mcp.WithString("goal", mcp.Description("What this session is trying to accomplish")),
		mcp.WithArray("flowTags", mcp.WithStringItems(), mcp.Description("Flow tags, e.g. send, swap, onboarding")),
		mcp.WithArray("tags", mcp.WithStringItems(), mcp.Description("Free-form tags")),
		mcp.WithString("stateMode", mcp.Description("How the app was launched: default, onboarding or custom")),
		mcp.WithString("fixturePreset", mcp.Description("Fixture preset used at launch")),
	)
}

// Handle processes the knowledge_start_session tool call.
func (t *StartSessionTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	meta, path, err := t.store.StartSession(internal.StartSessionParams{
		Goal:     req.GetString("goal", ""),
		FlowTags: stringsArg(req, "flowTags"),
		Tags:     stringsArg(req, "tags"),
		Launch: internal.LaunchConfig{
			StateMode:     req.GetString("stateMode", ""),
			FixturePreset: req.GetString("fixturePreset", ""),
		},
	})
	if err != nil {
		return errorResult("start session", err)
	}
	t.current.Set(meta.SessionID)

	return jsonResult(map[string]interface{}{
		"sessionId":    meta.SessionID,
		"metadataPath": path,
		"flowTags":     meta.FlowTags,
	})
}
