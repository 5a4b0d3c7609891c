package tools

import (
	"context"
	"strings"

	"github.com/iksnae/knowledge-store/internal"
	"github.com/mark3labs/mcp-go/mcp"
)

// PriorTool handles the knowledge_prior MCP tool.
type PriorTool struct {
	store   *internal.Store
	current *CurrentSession
}

// NewPriorTool creates a PriorTool.
func NewPriorTool(store *internal.Store, current *CurrentSession) *PriorTool {
	return &PriorTool{store: store, current: current}
}

// Definition returns the MCP tool definition for knowledge_prior.
func (t *PriorTool) Definition() mcp.Tool {
	return mcp.NewTool("knowledge_prior",
		mcp.WithDescription(
			"Rank what earlier sessions did in a situation like the current one: similar steps, "+
				"suggested next actions with fallback targets, and targets that keep failing on this screen.",
		),
		mcp.WithString("currentScreen", mcp.Description("Screen the app is on now")),
		mcp.WithString("currentUrl", mcp.Description("URL the app is on now")),
		mcp.WithArray("visibleTestIds", mcp.WithStringItems(), mcp.Description("data-testids visible now")),
		mcp.WithArray("a11yNames", mcp.WithStringItems(), mcp.Description("Accessible names visible now, as ref=name pairs")),
		mcp.WithArray("flowTags", mcp.WithStringItems(), mcp.Description("Flow tags to restrict history to (default: the current session's)")),
	)
}

// Handle processes the knowledge_prior tool call. An empty result means
// nothing relevant was found and is not an error.
func (t *PriorTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pc := internal.PriorContext{
		CurrentScreen:  req.GetString("currentScreen", ""),
		CurrentURL:     req.GetString("currentUrl", ""),
		VisibleTestIDs: stringsArg(req, "visibleTestIds"),
		A11yNodes:      parseA11yNames(stringsArg(req, "a11yNames")),
		FlowTags:       stringsArg(req, "flowTags"),
	}

	pk, err := t.store.GeneratePriorKnowledge(pc, t.current.ID())
	if err != nil {
		return errorResult("prior knowledge", err)
	}
	if pk == nil {
		return mcp.NewToolResultText("No prior knowledge found for this context."), nil
	}
	return jsonResult(pk)
}

// parseA11yNames turns "ref=name" pairs into nodes; a bare name has no ref
func parseA11yNames(pairs []string) []internal.A11yNode {
	var nodes []internal.A11yNode
	for _, p := range pairs {
		if ref, name, ok := strings.Cut(p, "="); ok {
			nodes = append(nodes, internal.A11yNode{Ref: ref, Name: name})
			continue
		}
		nodes = append(nodes, internal.A11yNode{Name: p})
	}
	return nodes
}
