package internal

import (
	"strings"
	"testing"
	"time"

	"github.com/iksnae/knowledge-store/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartSession(t *testing.T) {
	root := testutil.CreateTempDir(t)
	branch := &GitInfo{Branch: "feature/send", Commit: "abc1234"}
	store := NewStore(root, WithClock(func() time.Time { return testNow }), WithGitInfo(func() *GitInfo { return branch }))

	meta, path, err := store.StartSession(StartSessionParams{
		Goal:     "  send funds  ",
		FlowTags: []string{"send", " send ", ""},
		Tags:     []string{"nightly"},
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(meta.SessionID, SessionIDPrefix+"2026-03-14T12-00-00"))
	assert.Equal(t, store.SessionMetadataPath(meta.SessionID), path)
	assert.Equal(t, "send funds", meta.Goal)
	assert.Equal(t, []string{"send"}, meta.FlowTags)
	assert.Equal(t, []string{"nightly"}, meta.Tags)
	assert.Equal(t, "default", meta.Launch.StateMode)
	assert.Equal(t, branch, meta.Git)

	// a fresh store reads it back from disk
	read, ok := CreateTestStore(root, testNow).ReadSessionMetadata(meta.SessionID)
	require.True(t, ok)
	assert.Equal(t, "feature/send", read.Git.Branch)
	assert.True(t, read.CreatedAt.Equal(testNow))

	sessions, err := store.ListSessions(10, &Filters{GitBranch: "feature/send"})
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, meta.SessionID, sessions[0].SessionID)
}
