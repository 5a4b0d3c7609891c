package export

import (
	"encoding/json"
	"io"
)

// JSONExporter exports bundles as one pretty-printed JSON array
type JSONExporter struct{}

// Export exports bundles to JSON format
func (e *JSONExporter) Export(bundles []*Bundle, w io.Writer) error {
	if bundles == nil {
		bundles = []*Bundle{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(bundles)
}

// Extension returns the file extension for this format
func (e *JSONExporter) Extension() string {
	return "json"
}
