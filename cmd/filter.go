package cmd

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mnbizdata/filings-crawler/internal/merge"
)

func newFilterCmd() *cobra.Command {
	var input string

	cmd := &cobra.Command{
		Use:   "filter <min-year>",
		Short: "Derives a view of the merged dataset filtered by filing year",
		Long: `Reads a merged dataset and writes businesses_since_<year>.csv keeping
only records filed in or after the given year. The source dataset is left
untouched.`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			minYear, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid year %q: %w", args[0], err)
			}
			if input == "" {
				input = filepath.Join(cfg.Output.Dir, merge.MergedFileName)
			}

			res, err := merge.New(logger).FilterByYear(input, minYear)
			if err != nil {
				return err
			}

			bold := color.New(color.Bold)
			bold.Printf("Kept %d of %d records filed since %d\n", res.Kept, res.TotalRead, minYear)
			for _, year := range res.Years() {
				fmt.Printf("  %d: %d\n", year, res.ByYear[year])
			}
			color.New(color.FgGreen).Printf("Wrote %s\n", res.OutputPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&input, "input", "", "dataset to filter (default: merged dataset in the output dir)")
	return cmd
}
