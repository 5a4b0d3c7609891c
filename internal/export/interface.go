package export

import (
	"fmt"
	"io"

	"github.com/iksnae/knowledge-store/internal"
	"golang.org/x/sync/errgroup"
)

// maxConcurrentBundles bounds parallel session reads while building bundles
const maxConcurrentBundles = 8

// Bundle is one session as it leaves the store: its metadata (nil when the
// session has none), its steps in chronological order, and its recipe.
type Bundle struct {
	SessionID string                    `json:"sessionId" yaml:"sessionId"`
	Metadata  *internal.SessionMetadata `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	Steps     []*internal.StepRecord    `json:"steps" yaml:"steps"`
	Recipe    *internal.SessionRecipe   `json:"recipe" yaml:"recipe"`
}

// Exporter defines the interface for all export formats
type Exporter interface {
	Export(bundles []*Bundle, w io.Writer) error
	Extension() string
}

// NewExporter creates a new exporter based on format
func NewExporter(format string) (Exporter, error) {
	switch format {
	case "jsonl":
		return &JSONLExporter{}, nil
	case "md", "markdown":
		return &MarkdownExporter{}, nil
	case "yaml":
		return &YAMLExporter{}, nil
	case "json":
		return &JSONExporter{}, nil
	case "sqlite", "db":
		return &SQLiteExporter{}, nil
	default:
		return nil, &ExportError{Format: format, Err: fmt.Errorf("unsupported format (supported: jsonl, md, yaml, json, sqlite)")}
	}
}

// ExportError reports a failed export
type ExportError struct {
	Format string
	Path   string
	Err    error
}

func (e *ExportError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("export %s to %s: %v", e.Format, e.Path, e.Err)
	}
	return fmt.Sprintf("export %s: %v", e.Format, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}

// BuildBundles reads the given sessions from the store, preserving order
func BuildBundles(store *internal.Store, sessionIDs []string) ([]*Bundle, error) {
	bundles := make([]*Bundle, len(sessionIDs))

	var g errgroup.Group
	g.SetLimit(maxConcurrentBundles)
	for i, id := range sessionIDs {
		g.Go(func() error {
			b, err := BuildBundle(store, id)
			if err != nil {
				return err
			}
			bundles[i] = b
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return bundles, nil
}

// BuildBundle reads one session from the store
func BuildBundle(store *internal.Store, sessionID string) (*Bundle, error) {
	loaded, err := store.LoadSessionSteps(sessionID)
	if err != nil {
		return nil, err
	}
	meta, _ := store.ReadSessionMetadata(sessionID)

	recipe := internal.BuildRecipe(sessionID, loaded)
	steps := make([]*internal.StepRecord, 0, len(loaded))
	for _, ls := range loaded {
		steps = append(steps, ls.Step)
	}
	return &Bundle{
		SessionID: sessionID,
		Metadata:  meta,
		Steps:     steps,
		Recipe:    recipe,
	}, nil
}
