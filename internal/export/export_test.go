package export

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/iksnae/knowledge-store/internal"
	"github.com/iksnae/knowledge-store/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

var exportNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func seedBundles(t *testing.T) []*Bundle {
	t.Helper()
	store := internal.CreateTestStore(testutil.CreateTempDir(t), exportNow)

	meta := internal.CreateTestMetadata("mm-a", exportNow.Add(-time.Hour), "send")
	meta.Git = &internal.GitInfo{Branch: "main", Commit: "abc1234"}
	_, err := store.WriteSessionMetadata(meta)
	require.NoError(t, err)

	_, err = store.RecordStep(internal.CreateTestClick("mm-a", "send-button",
		internal.Failed("MM_CLICK_FAILED", "element not clickable"), internal.CreateTestObservation("home")))
	require.NoError(t, err)
	_, err = store.RecordStep(internal.CreateTestClick("mm-a", "send-button",
		internal.Succeeded(), internal.CreateTestObservation("home")))
	require.NoError(t, err)
	_, err = store.RecordStep(internal.RecordStepParams{
		SessionID: "mm-b",
		ToolName:  "mm_describe_screen",
		Outcome:   internal.Succeeded(),
	})
	require.NoError(t, err)

	bundles, err := BuildBundles(store, []string{"mm-a", "mm-b"})
	require.NoError(t, err)
	return bundles
}

func TestBuildBundles(t *testing.T) {
	bundles := seedBundles(t)
	require.Len(t, bundles, 2)

	a := bundles[0]
	assert.Equal(t, "mm-a", a.SessionID)
	require.NotNil(t, a.Metadata)
	assert.Equal(t, "main", a.Metadata.Git.Branch)
	require.Len(t, a.Steps, 2)
	assert.True(t, a.Steps[0].Timestamp.Before(a.Steps[1].Timestamp))
	assert.Equal(t, 2, a.Recipe.StepCount)

	b := bundles[1]
	assert.Nil(t, b.Metadata)
	assert.Len(t, b.Steps, 1)

	_, err := BuildBundles(internal.CreateTestStore(testutil.CreateTempDir(t), exportNow), []string{"../x"})
	assert.ErrorIs(t, err, internal.ErrInvalidInput)
}

func TestJSONExporter_Export(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&JSONExporter{}).Export(seedBundles(t), &buf))

	var decoded []*Bundle
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, internal.TestIDTarget("send-button"), *decoded[0].Steps[0].Tool.Target)
	assert.Equal(t, "MM_CLICK_FAILED", decoded[0].Steps[0].Outcome.Error.Code)

	buf.Reset()
	require.NoError(t, (&JSONExporter{}).Export(nil, &buf))
	assert.Equal(t, "[]\n", buf.String())
}

func TestJSONLExporter_Export(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&JSONLExporter{}).Export(seedBundles(t), &buf))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	for i, want := range []string{"mm-a", "mm-a", "mm-b"} {
		var step internal.StepRecord
		require.NoError(t, json.Unmarshal([]byte(lines[i]), &step))
		assert.Equal(t, want, step.SessionID)
	}
}

func TestYAMLExporter_Export(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&YAMLExporter{}).Export(seedBundles(t), &buf))

	out := buf.String()
	assert.Contains(t, out, "sessionId: mm-a")
	assert.Contains(t, out, "testId: send-button")
	assert.Contains(t, out, "code: MM_CLICK_FAILED")

	var decoded []map[string]interface{}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Len(t, decoded, 2)
}

func TestMarkdownExporter_Export(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&MarkdownExporter{}).Export(seedBundles(t), &buf))

	out := buf.String()
	for _, want := range []string{
		"# Session mm-a",
		"**Goal:** test goal for mm-a",
		"**Flow tags:** send",
		"**Branch:** main",
		"**Steps:** 2",
		"## Recipe",
		"1. `mm_click` target: [data-testid=\"send-button\"]; on screen: home; FAILED: element not clickable",
		"2. `mm_click` target: [data-testid=\"send-button\"]; on screen: home",
		"---",
		"# Session mm-b",
		"1. `mm_describe_screen` executed",
	} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "**Goal:** test goal for mm-b")
}

func TestEscapeMarkdown(t *testing.T) {
	assert.Equal(t, `\*\*bold\*\* \_\_x\_\_`, escapeMarkdown("**bold** __x__"))
	assert.Equal(t, "plain", escapeMarkdown("plain"))
}

func TestSQLiteExporter_WriteFile(t *testing.T) {
	path := filepath.Join(testutil.CreateTempDir(t), "snapshot.db")
	exp := &SQLiteExporter{}
	require.NoError(t, exp.WriteFile(seedBundles(t), path))

	db := testutil.OpenSQLite(t, path)
	assert.Equal(t, 2, testutil.CountRows(t, db, "sessions"))
	assert.Equal(t, 3, testutil.CountRows(t, db, "steps"))

	var code, screen, kind string
	var ok bool
	require.NoError(t, db.QueryRow(
		`SELECT error_code, screen, target_kind, ok FROM steps WHERE session_id = ? AND step_number = 1`, "mm-a",
	).Scan(&code, &screen, &kind, &ok))
	assert.Equal(t, "MM_CLICK_FAILED", code)
	assert.Equal(t, "home", screen)
	assert.Equal(t, "testId", kind)
	assert.False(t, ok)

	var steps int
	var goal *string
	require.NoError(t, db.QueryRow(`SELECT step_count, goal FROM sessions WHERE session_id = 'mm-b'`).Scan(&steps, &goal))
	assert.Equal(t, 1, steps)
	assert.Nil(t, goal)

	// rewriting replaces the previous snapshot
	require.NoError(t, exp.WriteFile(nil, path))
	db2 := testutil.OpenSQLite(t, path)
	assert.Equal(t, 0, testutil.CountRows(t, db2, "steps"))
}

func TestSQLiteExporter_Export(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&SQLiteExporter{}).Export(seedBundles(t), &buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("SQLite format 3\x00")))

	path := testutil.WriteRawFile(t, testutil.CreateTempDir(t), "copy.db", buf.Bytes())
	db, err := internal.OpenDatabase(path)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	tables, err := internal.ListTables(db)
	require.NoError(t, err)
	assert.Equal(t, []string{"sessions", "steps"}, tables)

	info, err := internal.DescribeTable(db, "steps")
	require.NoError(t, err)
	assert.Equal(t, 3, info.Rows)
	assert.Equal(t, "session_id", info.Columns[0].Name)
	assert.True(t, info.Columns[0].PrimaryKey)

	rows, err := internal.SampleRows(db, "sessions", 1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "mm-a", rows[0]["session_id"])
}

func TestExportError(t *testing.T) {
	err := &ExportError{Format: "sqlite", Path: "/x.db", Err: assert.AnError}
	assert.Equal(t, "export sqlite to /x.db: "+assert.AnError.Error(), err.Error())
	assert.ErrorIs(t, err, assert.AnError)

	_, nerr := NewExporter("xml")
	var exportErr *ExportError
	require.ErrorAs(t, nerr, &exportErr)
	assert.Equal(t, "xml", exportErr.Format)
}
