package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/iksnae/knowledge-store/internal"
	"github.com/iksnae/knowledge-store/internal/export"
	"github.com/spf13/cobra"
)

// snapshotName is the single file written by the sqlite format
const snapshotName = "knowledge.db"

var (
	format      string
	outputDir   string
	exportAll   bool
	exportMatch string
	exportFlags filterFlags
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export [session-id...]",
	Short: "Export sessions to file",
	Long: `Export recorded sessions to various formats (jsonl, md, yaml, json, sqlite).

Without arguments the current session is exported. Use --all (optionally
narrowed by filters) or --match with a glob to export several sessions.
Every format writes one file per session except sqlite, which writes a
single knowledge.db snapshot that 'knowledge inspect' can read.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := exportSessionIDs(args)
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			return fmt.Errorf("no sessions to export (use 'knowledge sessions' to see available sessions)")
		}

		exporter, err := export.NewExporter(format)
		if err != nil {
			return err
		}

		if err := os.MkdirAll(outputDir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}

		var bundles []*export.Bundle
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		steps := []internal.ProgressStep{
			{
				Message: fmt.Sprintf("Reading %d session(s)", len(ids)),
				Fn: func() error {
					var readErr error
					bundles, readErr = export.BuildBundles(store, ids)
					return readErr
				},
			},
			{
				Message: fmt.Sprintf("Writing %s to %s", format, outputDir),
				Fn: func() error {
					if snapshot, ok := exporter.(*export.SQLiteExporter); ok {
						return snapshot.WriteFile(bundles, filepath.Join(outputDir, snapshotName))
					}
					return writeSessionFiles(exporter, bundles)
				},
			},
		}
		if err := internal.ShowProgressWithSteps(ctx, steps); err != nil {
			return err
		}

		for _, b := range bundles {
			if len(b.Steps) == 0 {
				internal.PrintWarning(cmd.ErrOrStderr(), fmt.Sprintf("session %s has no steps", b.SessionID))
			}
		}
		internal.PrintSuccess(cmd.OutOrStdout(), fmt.Sprintf("Export complete: %d session(s) exported to %s", len(bundles), outputDir))
		return nil
	},
}

// exportSessionIDs picks sessions from explicit ids, --match, --all or filters,
// falling back to the current session
func exportSessionIDs(args []string) ([]string, error) {
	switch {
	case len(args) > 0:
		for _, id := range args {
			if err := internal.ValidateSessionID(id); err != nil {
				return nil, err
			}
		}
		return args, nil
	case exportMatch != "":
		return store.MatchSessionIDs(exportMatch)
	case exportAll || exportFlags.filters() != nil:
		return store.ResolveSessionIDs(internal.AllScope(), "", exportFlags.filters())
	}
	if id := currentSessionID(); id != "" {
		return []string{id}, nil
	}
	return nil, nil
}

func writeSessionFiles(exporter export.Exporter, bundles []*export.Bundle) error {
	for _, bundle := range bundles {
		path := filepath.Join(outputDir, fmt.Sprintf("session_%s.%s", bundle.SessionID, exporter.Extension()))

		file, err := os.Create(path)
		if err != nil {
			return &export.ExportError{Format: format, Path: path, Err: err}
		}
		if err := exporter.Export([]*export.Bundle{bundle}, file); err != nil {
			_ = file.Close()
			return &export.ExportError{Format: format, Path: path, Err: err}
		}
		if err := file.Close(); err != nil {
			internal.LogWarn("Failed to close file %s: %v", path, err)
		}
		internal.LogDebug("exported %s to %s", bundle.SessionID, path)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&format, "format", "f", "jsonl", "Export format (jsonl, md, yaml, json, sqlite)")
	exportCmd.Flags().StringVarP(&outputDir, "out", "o", "./exports", "Output directory")
	exportCmd.Flags().BoolVar(&exportAll, "all", false, "Export every session")
	exportCmd.Flags().StringVar(&exportMatch, "match", "", "Export sessions whose id matches this glob")
	exportFlags.register(exportCmd, false)
}
