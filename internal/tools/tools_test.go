package tools

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/iksnae/knowledge-store/internal"
	"github.com/iksnae/knowledge-store/testutil"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var toolsNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

// makeReq builds a mcp.CallToolRequest with the given arguments.
func makeReq(args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

// resultText extracts the text content from a tool result.
func resultText(r *mcp.CallToolResult) string {
	if r == nil || len(r.Content) == 0 {
		return ""
	}
	for _, c := range r.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func call(t *testing.T, handle func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	res, err := handle(context.Background(), makeReq(args))
	require.NoError(t, err)
	require.NotNil(t, res)
	return res
}

func decode(t *testing.T, res *mcp.CallToolResult, v interface{}) {
	t.Helper()
	require.False(t, res.IsError, resultText(res))
	require.NoError(t, json.Unmarshal([]byte(resultText(res)), v))
}

func newTestTools(t *testing.T) (*internal.Store, *CurrentSession) {
	t.Helper()
	return internal.CreateTestStore(testutil.CreateTempDir(t), toolsNow), &CurrentSession{}
}

func TestDefinitions(t *testing.T) {
	store, current := newTestTools(t)

	tests := []struct {
		def      mcp.Tool
		name     string
		required []string
	}{
		{NewStartSessionTool(store, current).Definition(), "knowledge_start_session", nil},
		{NewRecordStepTool(store, current).Definition(), "knowledge_record_step", []string{"tool"}},
		{NewLastStepsTool(store, current).Definition(), "knowledge_last_steps", nil},
		{NewSearchTool(store, current).Definition(), "knowledge_search", []string{"query"}},
		{NewSummarizeTool(store, current).Definition(), "knowledge_summarize", nil},
		{NewListSessionsTool(store).Definition(), "knowledge_sessions", nil},
		{NewPriorTool(store, current).Definition(), "knowledge_prior", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.name, tt.def.Name)
			assert.NotEmpty(t, tt.def.Description)
			assert.ElementsMatch(t, tt.required, tt.def.InputSchema.Required)
		})
	}

	props := NewSearchTool(store, current).Definition().InputSchema.Properties
	for _, key := range []string{"flowTag", "tag", "gitBranch", "sinceHours", "screen"} {
		assert.Contains(t, props, key)
	}
}

func TestRecordStepRequiresSession(t *testing.T) {
	store, current := newTestTools(t)
	record := NewRecordStepTool(store, current)

	res := call(t, record.Handle, map[string]interface{}{"tool": "mm_click"})
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(res), "no active session")

	res = call(t, record.Handle, map[string]interface{}{})
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(res), "'tool' is required")
}

func TestSessionWorkflow(t *testing.T) {
	store, current := newTestTools(t)

	var started struct {
		SessionID string   `json:"sessionId"`
		FlowTags  []string `json:"flowTags"`
	}
	decode(t, call(t, NewStartSessionTool(store, current).Handle, map[string]interface{}{
		"goal":     "send funds",
		"flowTags": []interface{}{"send"},
	}), &started)
	require.NotEmpty(t, started.SessionID)
	assert.Equal(t, started.SessionID, current.ID())
	assert.Equal(t, []string{"send"}, started.FlowTags)

	record := NewRecordStepTool(store, current)
	decode(t, call(t, record.Handle, map[string]interface{}{
		"tool":          "mm_type",
		"testId":        "password-input",
		"input":         map[string]interface{}{"testId": "password-input", "text": "hunter2"},
		"currentScreen": "unlock",
		"durationMs":    float64(120),
	}), &map[string]string{})
	decode(t, call(t, record.Handle, map[string]interface{}{
		"tool":          "mm_click",
		"testId":        "send-button",
		"ok":            false,
		"errorCode":     "MM_CLICK_FAILED",
		"errorMessage":  "element not clickable",
		"currentScreen": "home",
	}), &map[string]string{})

	res := call(t, record.Handle, map[string]interface{}{"tool": "mm_click", "testId": "a", "selector": "#a"})
	assert.True(t, res.IsError)

	steps, err := store.LoadSessionSteps(started.SessionID)
	require.NoError(t, err)
	require.Len(t, steps, 2)
	typed := steps[0].Step
	assert.Equal(t, internal.RedactedMarker, typed.Tool.Input["text"])
	assert.True(t, typed.Tool.TextRedacted)
	require.NotNil(t, typed.Tool.TextLength)
	assert.Equal(t, 7, *typed.Tool.TextLength)
	require.NotNil(t, typed.Timing.DurationMs)
	assert.Equal(t, int64(120), *typed.Timing.DurationMs)

	var last []internal.StepSummary
	decode(t, call(t, NewLastStepsTool(store, current).Handle, map[string]interface{}{"n": float64(1)}), &last)
	require.Len(t, last, 1)
	assert.Equal(t, "mm_click", last[0].Tool)
	assert.Equal(t, "home", last[0].Screen)

	var found []internal.StepSummary
	decode(t, call(t, NewSearchTool(store, current).Handle, map[string]interface{}{"query": "MM_CLICK"}), &found)
	require.Len(t, found, 1)
	assert.Contains(t, found[0].Snippet, "error: MM_CLICK_FAILED")

	var none []internal.StepSummary
	decode(t, call(t, NewSearchTool(store, current).Handle, map[string]interface{}{"query": "send", "screen": "unlock"}), &none)
	assert.Empty(t, none)

	var recipe internal.SessionRecipe
	decode(t, call(t, NewSummarizeTool(store, current).Handle, nil), &recipe)
	assert.Equal(t, 2, recipe.StepCount)
	assert.Equal(t, "target: [data-testid=\"send-button\"]; on screen: home; FAILED: element not clickable", recipe.Recipe[1].Notes)

	var sessions []internal.SessionSummary
	decode(t, call(t, NewListSessionsTool(store).Handle, map[string]interface{}{"flowTag": "send"}), &sessions)
	require.Len(t, sessions, 1)
	assert.Equal(t, "send funds", sessions[0].Goal)
}

func TestRecordStepA11yNodes(t *testing.T) {
	store, current := newTestTools(t)
	current.Set("mm-a")

	decode(t, call(t, NewRecordStepTool(store, current).Handle, map[string]interface{}{
		"tool":          "mm_click",
		"testId":        "send-button",
		"currentScreen": "home",
		"a11yNodes": []interface{}{
			map[string]interface{}{"ref": "e7", "role": "button", "name": "Confirm transfer"},
			map[string]interface{}{"ref": "e8"},
			"not an object",
		},
	}), &map[string]string{})

	steps, err := store.LoadSessionSteps("mm-a")
	require.NoError(t, err)
	require.Len(t, steps, 1)
	assert.Equal(t, []internal.A11yNode{{Ref: "e7", Role: "button", Name: "Confirm transfer"}}, steps[0].Step.Observation.A11y.Nodes)

	var found []internal.StepSummary
	decode(t, call(t, NewSearchTool(store, current).Handle, map[string]interface{}{"query": "confirm transfer"}), &found)
	require.Len(t, found, 1, "a step matches on its accessibility node name alone")
	assert.Equal(t, "mm_click", found[0].Tool)
	assert.Equal(t, 2, internal.SearchScore(steps[0].Step, "confirm transfer"))
}

func TestQueryToolErrors(t *testing.T) {
	store, current := newTestTools(t)

	res := call(t, NewSearchTool(store, current).Handle, map[string]interface{}{})
	assert.True(t, res.IsError)

	res = call(t, NewLastStepsTool(store, current).Handle, map[string]interface{}{"scope": "../etc"})
	assert.True(t, res.IsError)

	res = call(t, NewLastStepsTool(store, current).Handle, map[string]interface{}{"sinceHours": float64(10000), "scope": "all"})
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(res), "sinceHours")

	res = call(t, NewSummarizeTool(store, current).Handle, nil)
	assert.True(t, res.IsError)

	res = call(t, NewListSessionsTool(store).Handle, map[string]interface{}{"limit": float64(0)})
	assert.True(t, res.IsError)
}

func TestPriorTool(t *testing.T) {
	store, current := newTestTools(t)
	prior := NewPriorTool(store, current)

	res := call(t, prior.Handle, map[string]interface{}{"currentScreen": "home"})
	assert.False(t, res.IsError)
	assert.Equal(t, "No prior knowledge found for this context.", resultText(res))

	_, err := store.WriteSessionMetadata(internal.CreateTestMetadata("mm-old", toolsNow.Add(-time.Hour)))
	require.NoError(t, err)
	_, err = store.RecordStep(internal.CreateTestClick("mm-old", "send-button", internal.Succeeded(),
		internal.CreateTestObservation("home", "send-button")))
	require.NoError(t, err)

	var pk internal.PriorKnowledge
	decode(t, call(t, prior.Handle, map[string]interface{}{
		"currentScreen":  "home",
		"visibleTestIds": "send-button",
		"a11yNames":      []interface{}{"e3=Send"},
	}), &pk)
	require.Len(t, pk.SuggestedNextActions, 1)
	assert.Equal(t, internal.TestIDTarget("send-button"), pk.SuggestedNextActions[0].PreferredTarget)
	assert.Equal(t, []internal.Target{internal.A11yRefTarget("e3")}, pk.SuggestedNextActions[0].FallbackTargets)
}

func TestParseA11yNames(t *testing.T) {
	assert.Equal(t, []internal.A11yNode{
		{Ref: "e1", Name: "Send"},
		{Name: "Receive"},
	}, parseA11yNames([]string{"e1=Send", "Receive"}))
	assert.Nil(t, parseA11yNames(nil))
}

func TestCurrentSession(t *testing.T) {
	var c CurrentSession
	assert.Equal(t, "", c.ID())
	c.Set("mm-1")
	assert.Equal(t, "mm-1", c.ID())
}
