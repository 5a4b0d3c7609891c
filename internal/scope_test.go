package internal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScope(t *testing.T) {
	tests := []struct {
		input   string
		want    Scope
		wantErr bool
	}{
		{"", CurrentScope(), false},
		{"current", CurrentScope(), false},
		{"all", AllScope(), false},
		{" mm-abc ", SessionScope("mm-abc"), false},
		{"../etc", SessionScope("../etc"), true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseScope(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.NotEqual(t, "invalid", got.String())
		})
	}
}

func TestFiltersMatchesSession(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	meta := &SessionMetadata{
		SessionID: "mm-a",
		CreatedAt: now.Add(-25 * time.Hour),
		FlowTags:  []string{"send"},
		Tags:      []string{"nightly"},
		Git:       &GitInfo{Branch: "main"},
	}

	tests := []struct {
		name    string
		filters *Filters
		want    bool
	}{
		{"nil filters", nil, true},
		{"empty filters", &Filters{}, true},
		{"flow tag", &Filters{FlowTag: "send"}, true},
		{"other flow tag", &Filters{FlowTag: "swap"}, false},
		{"tag", &Filters{Tag: "nightly"}, true},
		{"other tag", &Filters{Tag: "smoke"}, false},
		{"branch", &Filters{GitBranch: "main"}, true},
		{"other branch", &Filters{GitBranch: "dev"}, false},
		{"inside window", &Filters{SinceHours: 26}, true},
		{"outside window", &Filters{SinceHours: 24}, false},
		{"screen ignored at session level", &Filters{Screen: "home"}, true},
		{"all must hold", &Filters{FlowTag: "send", GitBranch: "dev"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filters.MatchesSession(meta, now))
		})
	}

	noGit := &SessionMetadata{SessionID: "mm-b", CreatedAt: now}
	assert.False(t, (&Filters{GitBranch: "main"}).MatchesSession(noGit, now))
}

func TestFiltersMatchesStep(t *testing.T) {
	step := &StepRecord{Observation: CreateTestObservation("home")}
	assert.True(t, (*Filters)(nil).MatchesStep(step))
	assert.True(t, (&Filters{FlowTag: "send"}).MatchesStep(step))
	assert.True(t, (&Filters{Screen: "home"}).MatchesStep(step))
	assert.False(t, (&Filters{Screen: "send"}).MatchesStep(step))
}

func TestSessionIDs(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 123, time.UTC)
	id := NewSessionID(now)
	assert.Regexp(t, `^mm-2026-03-14T12-00-00\.000000123Z-[0-9a-f]{8}$`, id)
	assert.NoError(t, ValidateSessionID(id))
	assert.NotEqual(t, id, NewSessionID(now))

	assert.Less(t, NewSessionID(now), NewSessionID(now.Add(time.Millisecond)))

	for _, bad := range []string{"", ".", "..", "a/b", `a\b`} {
		assert.ErrorIs(t, ValidateSessionID(bad), ErrInvalidInput, bad)
	}
}

func TestFilesafeTimestamp(t *testing.T) {
	ts := time.Date(2026, 1, 2, 3, 4, 5, 6000, time.FixedZone("x", 3600))
	s := FilesafeTimestamp(ts)
	assert.Equal(t, "2026-01-02T02-04-05.000006000Z", s)

	parsed, ok := ParseFilesafeTimestamp(s + "-mm_click.json")
	require.True(t, ok)
	assert.True(t, parsed.Equal(ts))

	_, ok = ParseFilesafeTimestamp("short")
	assert.False(t, ok)
}
