package internal

import (
	"strings"
)

// StartSessionParams describes a new session
type StartSessionParams struct {
	Goal     string
	FlowTags []string
	Tags     []string
	Launch   LaunchConfig
}

// StartSession allocates a fresh session id, captures the repository state
// and writes the session's metadata. It returns the metadata as written.
func (s *Store) StartSession(params StartSessionParams) (*SessionMetadata, string, error) {
	launch := params.Launch
	if launch.StateMode == "" {
		launch.StateMode = "default"
	}

	now := s.now().UTC()
	meta := &SessionMetadata{
		SchemaVersion: SchemaVersion,
		SessionID:     NewSessionID(now),
		CreatedAt:     now,
		Goal:          strings.TrimSpace(params.Goal),
		FlowTags:      cleanTags(params.FlowTags),
		Tags:          cleanTags(params.Tags),
		Launch:        launch,
		Git:           s.gitInfo(),
	}

	path, err := s.WriteSessionMetadata(meta)
	if err != nil {
		return nil, "", err
	}
	LogInfo("started session %s", meta.SessionID)
	return meta, path, nil
}

// cleanTags trims tags and drops empties and duplicates, keeping order
func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
