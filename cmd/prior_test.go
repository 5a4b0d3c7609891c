package cmd

import (
	"encoding/json"
	"testing"

	"github.com/iksnae/knowledge-store/internal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriorCommand(t *testing.T) {
	root := newCLI(t)

	out := mustRun(t, root, "prior", "--screen", "home")
	assert.Contains(t, out, "No prior knowledge found for this context")

	out = mustRun(t, root, "prior", "--screen", "home", "--format", "json")
	assert.Equal(t, "null\n", out)

	history := startSession(t, root, "--goal", "send funds", "--flow-tag", "send")
	for i := 0; i < 2; i++ {
		mustRun(t, root, "record", "mm_click", "--test-id", "send-button", "--screen", "home", "--visible", "send-button")
		mustRun(t, root, "record", "mm_click", "--test-id", "swap-button", "--screen", "home",
			"--error-code", "MM_CLICK_FAILED", "--error-message", "element not clickable")
	}
	startSession(t, root, "--flow-tag", "send")

	var pk internal.PriorKnowledge
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, root, "prior",
		"--screen", "home", "--visible", "send-button", "--a11y", "e9=Send", "--format", "json")), &pk))
	assert.Equal(t, "send", pk.Query.Filters.FlowTag)
	require.Len(t, pk.RelatedSessions, 1)
	assert.Equal(t, history, pk.RelatedSessions[0].SessionID)
	require.NotEmpty(t, pk.SuggestedNextActions)
	assert.Equal(t, "testId=send-button", pk.SuggestedNextActions[0].PreferredTarget.String())
	assert.Equal(t, []internal.Target{internal.A11yRefTarget("e9")}, pk.SuggestedNextActions[0].FallbackTargets)
	require.Len(t, pk.Avoid, 1)
	assert.Equal(t, 2, pk.Avoid[0].Frequency)

	out = mustRun(t, root, "prior", "--screen", "home", "--visible", "send-button", "--a11y", "e9=Send")
	assert.Contains(t, out, "🧠 Prior knowledge")
	assert.Contains(t, out, "Suggested next actions")
	assert.Contains(t, out, "1. click testId=send-button")
	assert.Contains(t, out, "fallback: a11yRef=e9")
	assert.Contains(t, out, "testId=swap-button failed 2 time(s) MM_CLICK_FAILED")
	assert.Contains(t, out, "Related sessions")

	out = mustRun(t, root, "prior", "--screen", "home", "--flow-tag", "swap")
	assert.Contains(t, out, "No prior knowledge found for this context")
}
