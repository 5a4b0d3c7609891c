// Package tools provides MCP tool handlers over the knowledge store.
//
// Each handler holds its dependencies, returns its schema from Definition()
// and serves calls from Handle(). Caller mistakes come back as tool errors,
// never as protocol errors.
package tools

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/iksnae/knowledge-store/internal"
	"github.com/mark3labs/mcp-go/mcp"
)

// CurrentSession tracks the session that new steps are recorded into
type CurrentSession struct {
	mu sync.RWMutex
	id string
}

// ID returns the current session id, or "" before a session is started
func (c *CurrentSession) ID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.id
}

// Set replaces the current session id
func (c *CurrentSession) Set(id string) {
	c.mu.Lock()
	c.id = id
	c.mu.Unlock()
}

// intArg extracts an integer argument from a tool request, returning
// defaultVal if the key is missing or not a number (JSON numbers are float64).
func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int(v)
}

// boolArg extracts a boolean argument from a tool request.
func boolArg(req mcp.CallToolRequest, key string, defaultVal bool) bool {
	v, ok := req.GetArguments()[key].(bool)
	if !ok {
		return defaultVal
	}
	return v
}

// stringsArg accepts either a JSON array of strings or a comma-separated string
func stringsArg(req mcp.CallToolRequest, key string) []string {
	var out []string
	switch v := req.GetArguments()[key].(type) {
	case []interface{}:
		for _, item := range v {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
	case string:
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

// filterParams are the query filter arguments shared by the read tools
func filterParams() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("flowTag", mcp.Description("Only sessions carrying this flow tag")),
		mcp.WithString("tag", mcp.Description("Only sessions carrying this tag")),
		mcp.WithString("gitBranch", mcp.Description("Only sessions recorded on this git branch")),
		mcp.WithNumber("sinceHours", mcp.Description(fmt.Sprintf("Only sessions created in the last N hours (1-%d)", internal.MaxSinceHours))),
		mcp.WithString("screen", mcp.Description("Only steps observed on this screen")),
	}
}

// filtersArg builds filters from the request, or nil when none are set
func filtersArg(req mcp.CallToolRequest) *internal.Filters {
	f := &internal.Filters{
		FlowTag:    req.GetString("flowTag", ""),
		Tag:        req.GetString("tag", ""),
		GitBranch:  req.GetString("gitBranch", ""),
		SinceHours: intArg(req, "sinceHours", 0),
		Screen:     req.GetString("screen", ""),
	}
	if *f == (internal.Filters{}) {
		return nil
	}
	return f
}

// jsonResult renders v as indented JSON text
func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// errorResult reports err to the caller as a tool error
func errorResult(action string, err error) (*mcp.CallToolResult, error) {
	internal.LogDebug("%s failed: %v", action, err)
	return mcp.NewToolResultError(fmt.Sprintf("%s failed: %v", action, err)), nil
}
