package internal

import (
	"sort"
	"strings"
)

// Search weights. Each category contributes at most once per step.
const (
	scoreToolName    = 10
	scoreScreen      = 8
	scoreTargetID    = 6
	scoreVisibleID   = 3
	scoreA11yNode    = 2
	snippetSelectMax = 30
	unknownScreen    = "unknown"
)

// GetLastSteps returns the n most recent steps in scope, newest first
func (s *Store) GetLastSteps(n int, scope Scope, currentSessionID string, filters *Filters) ([]StepSummary, error) {
	if n <= 0 {
		return nil, &ValidationError{Field: "n", Reason: "must be positive"}
	}

	steps, err := s.stepsInScope(scope, currentSessionID, filters)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(steps, func(i, j int) bool {
		return steps[i].Step.Timestamp.After(steps[j].Step.Timestamp)
	})
	if len(steps) > n {
		steps = steps[:n]
	}

	summaries := make([]StepSummary, 0, len(steps))
	for _, ls := range steps {
		summaries = append(summaries, SummarizeStep(ls.Step))
	}
	return summaries, nil
}

// SearchSteps ranks steps in scope by a substring match of query against
// the tool name, screen, target and observation. Steps scoring zero are
// dropped; ties keep load order.
func (s *Store) SearchSteps(query string, limit int, scope Scope, currentSessionID string, filters *Filters) ([]StepSummary, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil, &ValidationError{Field: "query", Reason: "must not be empty"}
	}
	if limit <= 0 {
		return nil, &ValidationError{Field: "limit", Reason: "must be positive"}
	}

	steps, err := s.stepsInScope(scope, currentSessionID, filters)
	if err != nil {
		return nil, err
	}

	type match struct {
		step  *StepRecord
		score int
	}
	var matches []match
	for _, ls := range steps {
		if score := SearchScore(ls.Step, q); score > 0 {
			matches = append(matches, match{step: ls.Step, score: score})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].score > matches[j].score
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}

	summaries := make([]StepSummary, 0, len(matches))
	for _, m := range matches {
		summaries = append(summaries, SummarizeStep(m.step))
	}
	return summaries, nil
}

// stepsInScope resolves scope and returns every step passing the step-level filters
func (s *Store) stepsInScope(scope Scope, currentSessionID string, filters *Filters) ([]LoadedStep, error) {
	ids, err := s.ResolveSessionIDs(scope, currentSessionID, filters)
	if err != nil {
		return nil, err
	}

	loaded := s.loadManySteps(ids)
	steps := make([]LoadedStep, 0, len(loaded))
	for _, ls := range loaded {
		if filters.MatchesStep(ls.Step) {
			steps = append(steps, ls)
		}
	}
	return steps, nil
}

// SearchScore scores one step against an already lowercased query
func SearchScore(step *StepRecord, query string) int {
	score := 0
	if strings.Contains(strings.ToLower(step.Tool.Name), query) {
		score += scoreToolName
	}
	if strings.Contains(strings.ToLower(step.Screen()), query) {
		score += scoreScreen
	}
	if t := step.Tool.Target; t != nil && t.TestID() != "" && strings.Contains(strings.ToLower(t.TestID()), query) {
		score += scoreTargetID
	}
	for _, item := range step.Observation.TestIDs {
		if strings.Contains(strings.ToLower(item.TestID), query) {
			score += scoreVisibleID
			break
		}
	}
	for _, node := range step.Observation.A11y.Nodes {
		if strings.Contains(strings.ToLower(node.Name), query) || strings.Contains(strings.ToLower(node.Role), query) {
			score += scoreA11yNode
			break
		}
	}
	return score
}

// SummarizeStep projects a step to its one-line summary
func SummarizeStep(step *StepRecord) StepSummary {
	screen := step.Screen()
	if screen == "" {
		screen = unknownScreen
	}
	return StepSummary{
		SessionID: step.SessionID,
		Timestamp: step.Timestamp,
		Tool:      step.Tool.Name,
		Screen:    screen,
		Snippet:   stepSnippet(step),
	}
}

// stepSnippet joins target, error code and screen, falling back to the tool name
func stepSnippet(step *StepRecord) string {
	var parts []string

	if t := step.Tool.Target; t != nil {
		switch t.Kind() {
		case TargetTestID:
			parts = append(parts, "testId: "+t.Value())
		case TargetA11yRef:
			parts = append(parts, "ref: "+t.Value())
		case TargetSelector:
			parts = append(parts, "selector: "+truncateRunes(t.Value(), snippetSelectMax))
		}
	}
	if !step.Outcome.OK && step.Outcome.Error != nil {
		parts = append(parts, "error: "+step.Outcome.Error.Code)
	}
	if screen := step.Screen(); screen != "" {
		parts = append(parts, "screen: "+screen)
	}

	if len(parts) == 0 {
		return step.Tool.Name
	}
	return strings.Join(parts, ", ")
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
