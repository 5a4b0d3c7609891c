package internal

import (
	"path/filepath"
	"testing"

	"github.com/iksnae/knowledge-store/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckHealth(t *testing.T) {
	root := testutil.CreateTempDir(t)
	store := CreateTestStore(root, testNow)

	writeMeta(t, store, CreateTestMetadata("mm-a", testNow))
	record(t, store, CreateTestClick("mm-a", "send-button", Succeeded(), CreateTestObservation("home")))
	record(t, store, CreateTestClick("mm-b", "send-button", Succeeded(), CreateTestObservation("home")))
	broken := testutil.CreateMalformedStep(t, root, "mm-a")
	stray := testutil.WriteRawFile(t, root, filepath.Join("mm-a", "steps", "notes.txt"), []byte("x"))

	report := store.CheckHealth()
	require.True(t, report.RootExists)
	assert.Equal(t, 2, report.Sessions)
	assert.Equal(t, 2, report.Steps)
	assert.Equal(t, []string{"mm-b"}, report.MissingMetadata)
	assert.Equal(t, []string{broken}, report.MalformedSteps)
	assert.Equal(t, []string{stray}, report.StrayFiles)
	assert.Equal(t, "mm-b", report.LatestSessionID)
	assert.False(t, report.Healthy())
}

func TestCheckHealthMissingRoot(t *testing.T) {
	store := CreateTestStore(filepath.Join(testutil.CreateTempDir(t), "nope"), testNow)
	report := store.CheckHealth()
	assert.False(t, report.RootExists)
	assert.False(t, report.Healthy())
}
