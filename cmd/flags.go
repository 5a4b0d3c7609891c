package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/iksnae/knowledge-store/internal"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// filterFlags binds the shared query filters to a command
type filterFlags struct {
	flowTag    string
	tag        string
	gitBranch  string
	sinceHours int
	screen     string
}

func (f *filterFlags) register(cmd *cobra.Command, withScreen bool) {
	cmd.Flags().StringVar(&f.flowTag, "flow-tag", "", "Only sessions carrying this flow tag")
	cmd.Flags().StringVar(&f.tag, "tag", "", "Only sessions carrying this tag")
	cmd.Flags().StringVar(&f.gitBranch, "branch", "", "Only sessions recorded on this git branch")
	cmd.Flags().IntVar(&f.sinceHours, "since", 0, fmt.Sprintf("Only sessions created in the last N hours (1-%d)", internal.MaxSinceHours))
	if withScreen {
		cmd.Flags().StringVar(&f.screen, "screen", "", "Only steps observed on this screen")
	}
}

// filters returns nil when no filter flag is set
func (f *filterFlags) filters() *internal.Filters {
	out := internal.Filters{
		FlowTag:    f.flowTag,
		Tag:        f.tag,
		GitBranch:  f.gitBranch,
		SinceHours: f.sinceHours,
		Screen:     f.screen,
	}
	if out == (internal.Filters{}) {
		return nil
	}
	return &out
}

// writeStructured encodes v as json or yaml
func writeStructured(w io.Writer, format string, v interface{}) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer func() { _ = enc.Close() }()
		return enc.Encode(v)
	default:
		return fmt.Errorf("unsupported format: %s (supported: text, json, yaml)", format)
	}
}
