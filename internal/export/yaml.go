package export

import (
	"io"

	"gopkg.in/yaml.v3"
)

// YAMLExporter exports bundles in YAML format
type YAMLExporter struct{}

// Export exports bundles to YAML format
func (e *YAMLExporter) Export(bundles []*Bundle, w io.Writer) error {
	if bundles == nil {
		bundles = []*Bundle{}
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	defer func() { _ = enc.Close() }()

	return enc.Encode(bundles)
}

// Extension returns the file extension for this format
func (e *YAMLExporter) Extension() string {
	return "yaml"
}
