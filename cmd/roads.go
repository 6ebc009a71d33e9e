package main

import (
	"github.com/spf13/cobra"

	"github.com/sells-group/chainage-cli/internal/centreline"
	"github.com/sells-group/chainage-cli/internal/export"
	"github.com/sells-group/chainage-cli/internal/segment"
)

var roadsCmd = &cobra.Command{
	Use:   "roads",
	Short: "List roads and their continuous chainage extents",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("roads"); err != nil {
			return err
		}

		segments, roadnames, err := loadInputs()
		if err != nil {
			return err
		}

		extents := roadExtents(segments, roadnames)
		return export.WriteRecordsCSV(cmd.OutOrStdout(), []string{"road_name", "route"}, extents)
	},
}

// roadExtents merges each road's rows into continuous runs, in road id order.
func roadExtents(segments []centreline.Segment, roadnames []centreline.Roadname) []segment.Record {
	byRoad := centreline.ByRoad(segments)
	names := centreline.IndexRoadnames(roadnames)

	var out []segment.Record
	for _, id := range roadIDs(segments) {
		intervals := make([]segment.Interval, 0, len(byRoad[id]))
		for _, s := range byRoad[id] {
			intervals = append(intervals, segment.Interval{StartM: s.StartM, EndM: s.EndM})
		}
		rn := names[id]
		for _, run := range segment.Merge(intervals) {
			out = append(out, segment.Record{
				RoadID: id,
				StartM: run.StartM,
				EndM:   run.EndM,
				Attrs:  map[string]string{"road_name": rn.RoadName, "route": rn.Route()},
			})
		}
	}
	return out
}

func init() {
	rootCmd.AddCommand(roadsCmd)
}
