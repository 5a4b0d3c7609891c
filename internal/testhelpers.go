package internal

import (
	"time"
)

// CreateTestMetadata creates session metadata created at the given time
func CreateTestMetadata(id string, createdAt time.Time, flowTags ...string) *SessionMetadata {
	if flowTags == nil {
		flowTags = []string{}
	}
	return &SessionMetadata{
		SchemaVersion: SchemaVersion,
		SessionID:     id,
		CreatedAt:     createdAt,
		Goal:          "test goal for " + id,
		FlowTags:      flowTags,
		Tags:          []string{},
		Launch:        LaunchConfig{StateMode: "default"},
	}
}

// CreateTestObservation creates an observation on screen with the given visible testIds
func CreateTestObservation(screen string, testIDs ...string) Observation {
	items := make([]TestIDItem, 0, len(testIDs))
	for _, id := range testIDs {
		items = append(items, TestIDItem{TestID: id, Tag: "button", Visible: true})
	}
	return DefaultObservation(ScreenState{
		IsLoaded:      true,
		IsUnlocked:    true,
		CurrentScreen: screen,
	}, items, nil)
}

// CreateTestClick creates step params for a click on testID
func CreateTestClick(sessionID, testID string, outcome Outcome, obs Observation) RecordStepParams {
	target := TestIDTarget(testID)
	return RecordStepParams{
		SessionID:   sessionID,
		ToolName:    "mm_click",
		Input:       map[string]interface{}{"testId": testID},
		Target:      &target,
		Outcome:     outcome,
		Observation: obs,
	}
}

// CreateTestStore creates a store with a fixed clock and no git or host detection
func CreateTestStore(root string, now time.Time) *Store {
	return NewStore(root,
		WithClock(func() time.Time { return now }),
		WithGitInfo(func() *GitInfo { return nil }),
		WithEnvironment(func() *EnvironmentInfo {
			return &EnvironmentInfo{Platform: "test/test", GoVersion: "go-test"}
		}),
	)
}
