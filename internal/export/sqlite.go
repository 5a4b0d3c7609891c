package export

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/iksnae/knowledge-store/internal"
	_ "modernc.org/sqlite"
)

const snapshotSchema = `
CREATE TABLE sessions (
	session_id TEXT PRIMARY KEY,
	created_at TEXT,
	goal TEXT,
	flow_tags TEXT,
	tags TEXT,
	git_branch TEXT,
	git_commit TEXT,
	step_count INTEGER NOT NULL
);
CREATE TABLE steps (
	session_id TEXT NOT NULL,
	step_number INTEGER NOT NULL,
	timestamp TEXT NOT NULL,
	tool TEXT NOT NULL,
	target_kind TEXT,
	target_value TEXT,
	ok INTEGER NOT NULL,
	error_code TEXT,
	error_message TEXT,
	screen TEXT,
	url TEXT,
	duration_ms INTEGER,
	labels TEXT,
	notes TEXT,
	record TEXT NOT NULL,
	PRIMARY KEY (session_id, step_number)
);
CREATE INDEX steps_screen ON steps (screen);
CREATE INDEX steps_tool ON steps (tool);
`

// SQLiteExporter writes a queryable snapshot database of sessions and steps.
// Export streams the finished database file; WriteFile writes it in place.
type SQLiteExporter struct{}

// Export exports bundles to a SQLite database written to w
func (e *SQLiteExporter) Export(bundles []*Bundle, w io.Writer) error {
	dir, err := os.MkdirTemp("", "knowledge-export-*")
	if err != nil {
		return &ExportError{Format: "sqlite", Err: err}
	}
	defer func() { _ = os.RemoveAll(dir) }()

	path := filepath.Join(dir, "snapshot.db")
	if err := e.WriteFile(bundles, path); err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return &ExportError{Format: "sqlite", Path: path, Err: err}
	}
	defer func() { _ = f.Close() }()

	if _, err := io.Copy(w, f); err != nil {
		return &ExportError{Format: "sqlite", Path: path, Err: err}
	}
	return nil
}

// WriteFile creates a new snapshot database at path. An existing file is
// replaced.
func (e *SQLiteExporter) WriteFile(bundles []*Bundle, path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return &ExportError{Format: "sqlite", Path: path, Err: err}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return &ExportError{Format: "sqlite", Path: path, Err: err}
	}
	defer func() { _ = db.Close() }()

	if err := writeSnapshot(db, bundles); err != nil {
		return &ExportError{Format: "sqlite", Path: path, Err: err}
	}
	return nil
}

func writeSnapshot(db *sql.DB, bundles []*Bundle) error {
	if _, err := db.Exec(snapshotSchema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	sessionStmt, err := tx.Prepare(`INSERT INTO sessions
		(session_id, created_at, goal, flow_tags, tags, git_branch, git_commit, step_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() { _ = sessionStmt.Close() }()

	stepStmt, err := tx.Prepare(`INSERT INTO steps
		(session_id, step_number, timestamp, tool, target_kind, target_value, ok,
		 error_code, error_message, screen, url, duration_ms, labels, notes, record)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() { _ = stepStmt.Close() }()

	for _, b := range bundles {
		var createdAt, goal, flowTags, tags, branch, commit sql.NullString
		if meta := b.Metadata; meta != nil {
			createdAt = nullString(meta.CreatedAt.UTC().Format(time.RFC3339Nano))
			goal = nullString(meta.Goal)
			flowTags = nullString(strings.Join(meta.FlowTags, ","))
			tags = nullString(strings.Join(meta.Tags, ","))
			if meta.Git != nil {
				branch = nullString(meta.Git.Branch)
				commit = nullString(meta.Git.Commit)
			}
		}
		if _, err := sessionStmt.Exec(b.SessionID, createdAt, goal, flowTags, tags, branch, commit, len(b.Steps)); err != nil {
			return fmt.Errorf("failed to insert session %s: %w", b.SessionID, err)
		}

		for i, step := range b.Steps {
			record, err := json.Marshal(step)
			if err != nil {
				return fmt.Errorf("failed to encode step: %w", err)
			}

			var kind, value sql.NullString
			if t := step.Tool.Target; t != nil && !t.IsZero() {
				kind = nullString(t.Kind().String())
				value = nullString(t.Value())
			}
			var code, message sql.NullString
			if step.Outcome.Error != nil {
				code = nullString(step.Outcome.Error.Code)
				message = nullString(step.Outcome.Error.Message)
			}
			var duration sql.NullInt64
			if step.Timing.DurationMs != nil {
				duration = sql.NullInt64{Int64: *step.Timing.DurationMs, Valid: true}
			}

			_, err = stepStmt.Exec(
				b.SessionID, i+1, step.Timestamp.UTC().Format(time.RFC3339Nano), step.Tool.Name,
				kind, value, step.Outcome.OK, code, message,
				nullString(step.Screen()), nullString(step.Observation.State.CurrentURL), duration,
				strings.Join(step.Labels, ","), internal.StepNotes(step), string(record),
			)
			if err != nil {
				return fmt.Errorf("failed to insert step %d of %s: %w", i+1, b.SessionID, err)
			}
		}
	}

	return tx.Commit()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// Extension returns the file extension for this format
func (e *SQLiteExporter) Extension() string {
	return "db"
}
