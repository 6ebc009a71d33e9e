package main

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/chainage-cli/internal/export"
	"github.com/sells-group/chainage-cli/internal/segment"
	"github.com/sells-group/chainage-cli/internal/source"
)

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Combine continuous segments of a road table",
	Long: `Reads a CSV of road_id, start_m, end_m rows and merges rows that touch or
overlap within each group. Attribute columns of a merged row come from the first
row of the run.`,
	Example: `  chainage merge --in surfacing.csv --groupby road_id,c_surface_id --out merged.csv`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		in, _ := cmd.Flags().GetString("in")
		groupBy, _ := cmd.Flags().GetString("groupby")
		out, _ := cmd.Flags().GetString("out")

		if err := cfg.Validate("merge"); err != nil {
			return err
		}

		table, err := source.LoadRecords(in)
		if err != nil {
			return eris.Wrap(err, "merge: load records")
		}

		keys := splitAndTrim(strings.ToLower(groupBy))
		merged, err := segment.Combine(table.Records, keys...)
		if err != nil {
			return eris.Wrap(err, "merge")
		}

		zap.L().Info("segments merged",
			zap.String("in", in),
			zap.Strings("groupby", keys),
			zap.Int("rows_in", len(table.Records)),
			zap.Int("rows_out", len(merged)),
		)

		w, closeOut, err := openOutput(cmd, out)
		if err != nil {
			return err
		}
		if err := export.WriteRecordsCSV(w, table.Columns, merged); err != nil {
			_ = closeOut()
			return err
		}
		return closeOut()
	},
}

func init() {
	mergeCmd.Flags().String("in", "", "input CSV with road_id, start_m and end_m columns (required)")
	mergeCmd.Flags().String("groupby", segment.RoadIDColumn, "comma-separated grouping columns")
	mergeCmd.Flags().String("out", "-", "output CSV path (- for stdout)")
	_ = mergeCmd.MarkFlagRequired("in")
	rootCmd.AddCommand(mergeCmd)
}
