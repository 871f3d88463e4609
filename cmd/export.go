package cmd

import (
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mnbizdata/filings-crawler/internal/export"
	"github.com/mnbizdata/filings-crawler/internal/merge"
)

func newExportCmd() *cobra.Command {
	var (
		input  string
		dbPath string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Loads a merged dataset into a queryable SQLite database",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if input == "" {
				input = filepath.Join(cfg.Output.Dir, merge.MergedFileName)
			}
			if dbPath == "" {
				dbPath = filepath.Join(cfg.Output.Dir, "businesses.db")
			}

			n, err := export.New(logger).Run(cmd.Context(), input, dbPath)
			if err != nil {
				return err
			}
			color.New(color.FgGreen).Printf("Exported %d records to %s\n", n, dbPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&input, "input", "", "dataset to export (default: merged dataset in the output dir)")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path (default: businesses.db in the output dir)")
	return cmd
}
