package cmd

import (
	"database/sql"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/iksnae/knowledge-store/internal"
	"github.com/spf13/cobra"
)

var (
	inspectFormat     string
	inspectSampleRows int
)

type tableReport struct {
	internal.TableInfo `yaml:",inline"`
	Sample []map[string]interface{} `json:"sample,omitempty" yaml:"sample,omitempty"`
}

// inspectCmd represents the inspect command
var inspectCmd = &cobra.Command{
	Use:   "inspect [snapshot-path]",
	Short: "Inspect a SQLite snapshot written by export",
	Long: `Inspect the schema and contents of a snapshot written by
'knowledge export --format sqlite'.

This command provides detailed information about:
  • Tables and their columns
  • Row counts
  • Sample rows from each table

Examples:
  knowledge inspect                                  # ./exports/knowledge.db
  knowledge inspect backup/knowledge.db --sample 5
  knowledge inspect --format json`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath := filepath.Join("exports", snapshotName)
		if len(args) > 0 {
			dbPath = args[0]
		}

		db, err := internal.OpenDatabase(dbPath)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer func() { _ = db.Close() }()

		reports, err := inspectTables(db)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if inspectFormat != "text" {
			return writeStructured(out, inspectFormat, reports)
		}
		displayTables(out, dbPath, reports)
		return nil
	},
}

func inspectTables(db *sql.DB) ([]tableReport, error) {
	tables, err := internal.ListTables(db)
	if err != nil {
		return nil, fmt.Errorf("failed to get tables: %w", err)
	}

	reports := make([]tableReport, 0, len(tables))
	for _, name := range tables {
		info, err := internal.DescribeTable(db, name)
		if err != nil {
			return nil, err
		}
		report := tableReport{TableInfo: *info}
		if info.Rows > 0 && inspectSampleRows > 0 {
			if report.Sample, err = internal.SampleRows(db, name, inspectSampleRows); err != nil {
				return nil, err
			}
		}
		reports = append(reports, report)
	}
	return reports, nil
}

func displayTables(out io.Writer, dbPath string, reports []tableReport) {
	if len(reports) == 0 {
		_, _ = fmt.Fprintln(out, "⚠️  No tables found in database")
		return
	}

	_, _ = fmt.Fprintf(out, "📋 Database: %s\n", dbPath)
	_, _ = fmt.Fprintf(out, "📊 Found %d table(s)\n\n", len(reports))

	for _, r := range reports {
		_, _ = fmt.Fprintf(out, "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
		_, _ = fmt.Fprintf(out, "📦 Table: %s\n", r.Name)
		_, _ = fmt.Fprintf(out, "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
		_, _ = fmt.Fprintf(out, "📊 Rows: %d\n\n", r.Rows)

		_, _ = fmt.Fprintf(out, "📐 Schema:\n")
		for _, col := range r.Columns {
			pk := ""
			if col.PrimaryKey {
				pk = " [PRIMARY KEY]"
			}
			notNull := ""
			if col.NotNull {
				notNull = " NOT NULL"
			}
			_, _ = fmt.Fprintf(out, "  • %s: %s%s%s\n", col.Name, col.Type, notNull, pk)
		}
		_, _ = fmt.Fprintln(out)

		if len(r.Sample) == 0 {
			continue
		}
		_, _ = fmt.Fprintf(out, "📄 Sample Data (first %d rows):\n", len(r.Sample))
		for i, row := range r.Sample {
			_, _ = fmt.Fprintf(out, "\n  Row %d:\n", i+1)
			for _, col := range r.Columns {
				_, _ = fmt.Fprintf(out, "    %s: %s\n", col.Name, sampleValue(row[col.Name]))
			}
		}
		_, _ = fmt.Fprintln(out)
	}
}

// sampleValue renders a cell on one line, cut at 200 bytes
func sampleValue(v interface{}) string {
	if v == nil {
		return "<NULL>"
	}
	s := fmt.Sprintf("%v", v)
	if first, _, multi := strings.Cut(s, "\n"); multi {
		s = first + "..."
	}
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().StringVar(&inspectFormat, "format", "text", "Output format (text, json, yaml)")
	inspectCmd.Flags().IntVar(&inspectSampleRows, "sample", 3, "Number of sample rows to show")
}
