package internal

import (
	"fmt"
	"slices"
	"sort"
	"strings"
)

// SummarizeSession turns a session's steps into a numbered recipe in
// chronological order. An unknown session yields an empty recipe.
func (s *Store) SummarizeSession(sessionID string) (*SessionRecipe, error) {
	steps, err := s.LoadSessionSteps(sessionID)
	if err != nil {
		return nil, err
	}

	return BuildRecipe(sessionID, steps), nil
}

// BuildRecipe numbers already-loaded steps in chronological order
func BuildRecipe(sessionID string, steps []LoadedStep) *SessionRecipe {
	ordered := slices.Clone(steps)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Step.Timestamp.Before(ordered[j].Step.Timestamp)
	})

	recipe := make([]RecipeStep, 0, len(ordered))
	for i, ls := range ordered {
		recipe = append(recipe, RecipeStep{
			StepNumber: i + 1,
			Tool:       ls.Step.Tool.Name,
			Notes:      StepNotes(ls.Step),
		})
	}

	return &SessionRecipe{
		SessionID: sessionID,
		StepCount: len(ordered),
		Recipe:    recipe,
	}
}

// StepNotes describes what a step did for a human reader
func StepNotes(step *StepRecord) string {
	var notes []string

	if t := step.Tool.Target; t != nil {
		switch t.Kind() {
		case TargetTestID:
			notes = append(notes, fmt.Sprintf(`target: [data-testid="%s"]`, t.Value()))
		case TargetA11yRef:
			notes = append(notes, "target: "+t.Value())
		}
	}
	if screen := step.Screen(); screen != "" {
		notes = append(notes, "on screen: "+screen)
	}
	if !step.Outcome.OK && step.Outcome.Error != nil {
		notes = append(notes, "FAILED: "+step.Outcome.Error.Message)
	}
	if step.Artifacts != nil && step.Artifacts.Screenshot != nil && step.Artifacts.Screenshot.Path != "" {
		notes = append(notes, "screenshot captured")
	}

	if len(notes) == 0 {
		return "executed"
	}
	return strings.Join(notes, "; ")
}
