package export

import (
	"encoding/json"
	"fmt"
	"io"
)

// JSONLExporter exports one step record per line, sessions in order
type JSONLExporter struct{}

// Export exports bundles to JSONL format
func (e *JSONLExporter) Export(bundles []*Bundle, w io.Writer) error {
	enc := json.NewEncoder(w)

	for _, b := range bundles {
		for _, step := range b.Steps {
			if err := enc.Encode(step); err != nil {
				return fmt.Errorf("failed to encode step: %w", err)
			}
		}
	}

	return nil
}

// Extension returns the file extension for this format
func (e *JSONLExporter) Extension() string {
	return "jsonl"
}
