package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/iksnae/knowledge-store/internal"
	"github.com/iksnae/knowledge-store/internal/export"
	"github.com/iksnae/knowledge-store/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedSessions(t *testing.T, root string) (string, string) {
	t.Helper()
	send := startSession(t, root, "--goal", "send funds", "--flow-tag", "send")
	mustRun(t, root, "record", "mm_click", "--test-id", "send-button", "--screen", "home")
	mustRun(t, root, "record", "mm_type", "--test-id", "amount-input", "--screen", "send", "--input", "text=1")
	swap := startSession(t, root, "--goal", "swap tokens", "--flow-tag", "swap")
	mustRun(t, root, "record", "mm_click", "--test-id", "swap-button", "--screen", "home")
	return send, swap
}

func TestExportCommand(t *testing.T) {
	root := newCLI(t)
	out := filepath.Join(testutil.CreateTempDir(t), "exports")

	_, err := run(t, root, "export", "-o", out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no sessions to export")

	send, swap := seedSessions(t, root)

	stdout := mustRun(t, root, "export", "-o", out)
	assert.Contains(t, stdout, "Export complete: 1 session(s)")
	assert.FileExists(t, filepath.Join(out, "session_"+swap+".jsonl"))
	assert.NoFileExists(t, filepath.Join(out, "session_"+send+".jsonl"))

	mustRun(t, root, "export", "--all", "-f", "json", "-o", out)
	var bundles []*export.Bundle
	testutil.JSONUnmarshal(t, testutil.ReadFile(t, filepath.Join(out, "session_"+send+".json")), &bundles)
	require.Len(t, bundles, 1)
	assert.Equal(t, send, bundles[0].SessionID)
	assert.Len(t, bundles[0].Steps, 2)
	assert.Equal(t, 2, bundles[0].Recipe.StepCount)
	require.NotNil(t, bundles[0].Metadata)
	assert.Equal(t, "send funds", bundles[0].Metadata.Goal)

	md := filepath.Join(testutil.CreateTempDir(t), "md")
	mustRun(t, root, "export", "--flow-tag", "send", "-f", "md", "-o", md)
	assert.Equal(t, 1, testutil.CountFiles(t, md))
	content := string(testutil.ReadFile(t, filepath.Join(md, "session_"+send+".md")))
	assert.Contains(t, content, "# Session "+send)

	yml := filepath.Join(testutil.CreateTempDir(t), "yaml")
	mustRun(t, root, "export", "--match", "mm-*", "-f", "yaml", "-o", yml)
	assert.Equal(t, 2, testutil.CountFiles(t, yml))

	explicit := filepath.Join(testutil.CreateTempDir(t), "explicit")
	mustRun(t, root, "export", send, "-o", explicit)
	assert.FileExists(t, filepath.Join(explicit, "session_"+send+".jsonl"))
}

func TestExportCommandErrors(t *testing.T) {
	root := newCLI(t)
	seedSessions(t, root)
	out := testutil.CreateTempDir(t)

	_, err := run(t, root, "export", "--all", "-f", "xml", "-o", out)
	var exportErr *export.ExportError
	require.ErrorAs(t, err, &exportErr)
	assert.Equal(t, "xml", exportErr.Format)

	_, err = run(t, root, "export", "../etc", "-o", out)
	assert.ErrorIs(t, err, internal.ErrInvalidInput)

	_, err = run(t, root, "export", "--match", "[", "-o", out)
	assert.ErrorIs(t, err, internal.ErrInvalidInput)

	blocker := testutil.WriteRawFile(t, out, "file", []byte("x"))
	_, err = run(t, root, "export", "--all", "-o", filepath.Join(blocker, "sub"))
	assert.Error(t, err)
}

func TestExportSQLiteAndInspect(t *testing.T) {
	root := newCLI(t)
	send, _ := seedSessions(t, root)
	out := testutil.CreateTempDir(t)

	mustRun(t, root, "export", "--all", "-f", "sqlite", "-o", out)
	snapshot := filepath.Join(out, snapshotName)
	assert.Equal(t, 1, testutil.CountFiles(t, out))

	db := testutil.OpenSQLite(t, snapshot)
	assert.Equal(t, 2, testutil.CountRows(t, db, "sessions"))
	assert.Equal(t, 3, testutil.CountRows(t, db, "steps"))

	text := mustRun(t, root, "inspect", snapshot, "--sample", "1")
	assert.Contains(t, text, "📊 Found 2 table(s)")
	assert.Contains(t, text, "📦 Table: sessions")
	assert.Contains(t, text, "📦 Table: steps")
	assert.Contains(t, text, "session_id: TEXT")
	assert.Contains(t, text, "[PRIMARY KEY]")
	assert.Contains(t, text, "Sample Data (first 1 rows)")

	var reports []tableReport
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, root, "inspect", snapshot, "--format", "json", "--sample", "5")), &reports))
	require.Len(t, reports, 2)
	assert.Equal(t, "sessions", reports[0].Name)
	assert.Equal(t, 2, reports[0].Rows)
	require.Len(t, reports[0].Sample, 2)
	assert.Equal(t, send, reports[0].Sample[0]["session_id"])
	assert.Equal(t, "steps", reports[1].Name)
	assert.Len(t, reports[1].Sample, 3)

	text = mustRun(t, root, "inspect", snapshot, "--sample", "0")
	assert.NotContains(t, text, "Sample Data")

	_, err := run(t, root, "inspect", filepath.Join(out, "missing.db"))
	assert.Error(t, err)
}

func TestSampleValue(t *testing.T) {
	assert.Equal(t, "<NULL>", sampleValue(nil))
	assert.Equal(t, "42", sampleValue(int64(42)))
	assert.Equal(t, "first...", sampleValue("first\nsecond"))

	long := make([]byte, 300)
	for i := range long {
		long[i] = 'a'
	}
	got := sampleValue(string(long))
	assert.Len(t, got, 203)
}

func TestInspectEmptyDatabase(t *testing.T) {
	root := newCLI(t)
	path := filepath.Join(testutil.CreateTempDir(t), "empty.db")
	db := testutil.OpenSQLite(t, path)
	_, err := db.Exec("CREATE TABLE IF NOT EXISTS placeholder (id INTEGER)")
	require.NoError(t, err)
	_, err = db.Exec("DROP TABLE placeholder")
	require.NoError(t, err)

	out := mustRun(t, root, "inspect", path)
	assert.Contains(t, out, "No tables found")

	_, statErr := os.Stat(path)
	assert.NoError(t, statErr)
}
