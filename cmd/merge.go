package cmd

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mnbizdata/filings-crawler/internal/merge"
)

func newMergeCmd() *cobra.Command {
	var includeAll bool

	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Consolidates shard outputs into one deduplicated dataset",
		Long: `Reads every shard output in the configured output directory, drops
duplicate file numbers keeping the most recently scraped row, and writes a
single dataset sorted by file number.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			res, err := merge.New(logger).Run(merge.Options{
				Dir:        cfg.Output.Dir,
				IncludeAll: includeAll,
			})
			if err != nil {
				return err
			}

			bold := color.New(color.Bold)
			bold.Printf("Merged %d inputs: %d records (%d duplicates dropped, %d bad rows)\n",
				len(res.Inputs), res.Records, res.Duplicates, res.BadRows)
			color.New(color.FgGreen).Printf("Wrote %s\n", res.OutputPath)
			return nil
		},
	}

	cmd.Flags().BoolVar(&includeAll, "include-all", false,
		"also fold in an existing businesses.csv and write businesses_all.csv")
	return cmd
}
