package export

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewExporter(t *testing.T) {
	tests := []struct {
		format   string
		wantType string
		wantExt  string
	}{
		{"jsonl", "*export.JSONLExporter", "jsonl"},
		{"md", "*export.MarkdownExporter", "md"},
		{"markdown", "*export.MarkdownExporter", "md"},
		{"yaml", "*export.YAMLExporter", "yaml"},
		{"json", "*export.JSONExporter", "json"},
		{"sqlite", "*export.SQLiteExporter", "db"},
		{"db", "*export.SQLiteExporter", "db"},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			exporter, err := NewExporter(tt.format)
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, fmt.Sprintf("%T", exporter))
			assert.Equal(t, tt.wantExt, exporter.Extension())
		})
	}
}

func TestNewExporterUnsupported(t *testing.T) {
	for _, format := range []string{"xml", "", "JSON"} {
		exporter, err := NewExporter(format)
		assert.Nil(t, exporter, format)

		var exportErr *ExportError
		require.ErrorAs(t, err, &exportErr, format)
		assert.Equal(t, format, exportErr.Format)
		assert.Contains(t, err.Error(), "unsupported format")
	}
}
