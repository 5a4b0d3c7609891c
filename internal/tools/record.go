package tools

import (
	"context"
	"strings"

	"github.com/iksnae/knowledge-store/internal"
	"github.com/mark3labs/mcp-go/mcp"
)

// RecordStepTool handles the knowledge_record_step MCP tool.
type RecordStepTool struct {
	store   *internal.Store
	current *CurrentSession
}

// NewRecordStepTool creates a RecordStepTool.
func NewRecordStepTool(store *internal.Store, current *CurrentSession) *RecordStepTool {
	return &RecordStepTool{store: store, current: current}
}

// Definition returns the MCP tool definition for knowledge_record_step.
func (t *RecordStepTool) Definition() mcp.Tool {
	return mcp.NewTool("knowledge_record_step",
		mcp.WithDescription(
			"Record one tool invocation with its outcome and the observed screen. "+
				"Sensitive input such as typed text and passwords is redacted before it is stored.",
		),
		mcp.WithString("tool", mcp.Required(), mcp.Description("Tool name, e.g. mm_click")),
		mcp.WithString("sessionId", mcp.Description("Session to record into (default: the current session)")),
		mcp.WithObject("input", mcp.Description("Tool input as passed to the tool")),
		mcp.WithString("testId", mcp.Description("data-testid of the target element")),
		mcp.WithString("a11yRef", mcp.Description("Accessibility ref of the target element")),
		mcp.WithString("selector", mcp.Description("CSS selector of the target element")),
		mcp.WithBoolean("ok", mcp.Description("Whether the step succeeded (default: true)")),
		mcp.WithString("errorCode", mcp.Description("Error code when the step failed")),
		mcp.WithString("errorMessage", mcp.Description("Error message when the step failed")),
		mcp.WithString("currentScreen", mcp.Description("Screen observed after the step")),
		mcp.WithString("currentUrl", mcp.Description("URL observed after the step")),
		mcp.WithArray("visibleTestIds", mcp.WithStringItems(), mcp.Description("data-testids visible after the step")),
		mcp.WithArray("a11yNodes",
			mcp.Items(map[string]any{
				"type": "object",
				"properties": map[string]any{
					"ref":  map[string]any{"type": "string"},
					"role": map[string]any{"type": "string"},
					"name": map[string]any{"type": "string"},
				},
			}),
			mcp.Description("Accessibility nodes visible after the step, as {ref, role, name} objects"),
		),
		mcp.WithNumber("durationMs", mcp.Description("How long the step took")),
		mcp.WithString("screenshotPath", mcp.Description("Path of a screenshot captured for this step")),
	)
}

// Handle processes the knowledge_record_step tool call.
func (t *RecordStepTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	toolName := req.GetString("tool", "")
	if toolName == "" {
		return mcp.NewToolResultError("'tool' is required"), nil
	}

	sessionID := req.GetString("sessionId", t.current.ID())
	if sessionID == "" {
		return mcp.NewToolResultError("no active session: call knowledge_start_session first or pass 'sessionId'"), nil
	}

	target, err := internal.TargetFromFields(
		req.GetString("testId", ""),
		req.GetString("a11yRef", ""),
		req.GetString("selector", ""),
	)
	if err != nil {
		return errorResult("record step", err)
	}

	outcome := internal.Succeeded()
	if !boolArg(req, "ok", true) {
		outcome = internal.Failed(req.GetString("errorCode", "UNKNOWN"), req.GetString("errorMessage", ""))
	}

	var visible []internal.TestIDItem
	for _, id := range stringsArg(req, "visibleTestIds") {
		visible = append(visible, internal.TestIDItem{TestID: id, Visible: true})
	}

	params := internal.RecordStepParams{
		SessionID: sessionID,
		ToolName:  toolName,
		Target:    target,
		Outcome:   outcome,
		Observation: internal.DefaultObservation(internal.ScreenState{
			CurrentScreen: req.GetString("currentScreen", ""),
			CurrentURL:    req.GetString("currentUrl", ""),
		}, visible, a11yNodesArg(req, "a11yNodes")),
	}
	if input, ok := req.GetArguments()["input"].(map[string]interface{}); ok {
		params.Input = input
	}
	if ms := intArg(req, "durationMs", -1); ms >= 0 {
		d := int64(ms)
		params.DurationMs = &d
	}
	if p := req.GetString("screenshotPath", ""); p != "" {
		params.Screenshot = &internal.Screenshot{Path: p}
	}

	path, err := t.store.RecordStep(params)
	if err != nil {
		return errorResult("record step", err)
	}
	return jsonResult(map[string]string{"sessionId": sessionID, "path": path})
}

// a11yNodesArg reads an array of {ref, role, name} objects; entries with
// neither role nor name are dropped
func a11yNodesArg(req mcp.CallToolRequest, key string) []internal.A11yNode {
	items, _ := req.GetArguments()[key].([]interface{})
	var nodes []internal.A11yNode
	for _, item := range items {
		obj, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		node := internal.A11yNode{
			Ref:  stringField(obj, "ref"),
			Role: stringField(obj, "role"),
			Name: stringField(obj, "name"),
		}
		if node.Role == "" && node.Name == "" {
			continue
		}
		nodes = append(nodes, node)
	}
	return nodes
}

func stringField(obj map[string]interface{}, key string) string {
	s, _ := obj[key].(string)
	return strings.TrimSpace(s)
}
