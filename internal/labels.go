package internal

import (
	"encoding/json"
	"strings"
)

// Step labels derived at write time
const (
	LabelDiscovery     = "discovery"
	LabelNavigation    = "navigation"
	LabelInteraction   = "interaction"
	LabelConfirmation  = "confirmation"
	LabelErrorRecovery = "error-recovery"
)

// ToolPrefix is the namespace prefix the driver puts on its tool names
const ToolPrefix = "mm_"

var toolFamilies = map[string]string{
	"describe_screen":        LabelDiscovery,
	"list_testids":           LabelDiscovery,
	"accessibility_snapshot": LabelDiscovery,
	"get_state":              LabelDiscovery,
	"navigate":               LabelNavigation,
	"wait_for_notification":  LabelNavigation,
	"click":                  LabelInteraction,
	"type":                   LabelInteraction,
	"wait_for":               LabelInteraction,
}

var confirmationWords = []string{"confirm", "approve", "submit"}

// canonicalToolName strips the driver prefix so "mm_click" and "click" are the same tool
func canonicalToolName(name string) string {
	return strings.TrimPrefix(name, ToolPrefix)
}

// ToolFamily returns the family label of a tool, or "" if it is not in the table
func ToolFamily(toolName string) string {
	return toolFamilies[canonicalToolName(toolName)]
}

// IsDiscoveryTool reports whether the tool only inspects state
func IsDiscoveryTool(toolName string) bool {
	return ToolFamily(toolName) == LabelDiscovery
}

// ComputeLabels derives the semantic labels of a step
func ComputeLabels(toolName string, target *Target, outcome *Outcome) []string {
	labels := make([]string, 0, 3)

	switch family := ToolFamily(toolName); family {
	case LabelDiscovery, LabelNavigation:
		labels = append(labels, family)
	case LabelInteraction:
		labels = append(labels, family)
		if targetMentions(target, confirmationWords) {
			labels = append(labels, LabelConfirmation)
		}
	}

	if outcome != nil && !outcome.OK {
		labels = append(labels, LabelErrorRecovery)
	}

	return labels
}

func targetMentions(target *Target, words []string) bool {
	raw := []byte("{}")
	if target != nil {
		if b, err := json.Marshal(target); err == nil {
			raw = b
		}
	}
	s := strings.ToLower(string(raw))
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
