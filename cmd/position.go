package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/sells-group/chainage-cli/internal/centreline"
	"github.com/sells-group/chainage-cli/internal/chainage"
	"github.com/sells-group/chainage-cli/internal/export"
)

var positionCmd = &cobra.Command{
	Use:   "position",
	Short: "Project points onto road chainage",
	Long: `Builds a partial centreline from the selected roads and reports, for each
point, the nearest road and the chainage of the point along it.

Roads are given as --road id (whole road) or --road id:start:end to clamp the
road to a chainage window; either bound may be left empty. Without --road every
road in the centreline is searched.`,
	Example: `  chainage position --centreline roads.shp --point 172.61,-43.45
  chainage position --road 3656 --road 3654:0:500 --point 172.61,-43.45 --point 172.62,-43.46`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		pointArgs, _ := cmd.Flags().GetStringArray("point")
		roadArgs, _ := cmd.Flags().GetStringArray("road")
		out, _ := cmd.Flags().GetString("out")

		if cmd.Flags().Changed("max-distance") {
			cfg.Projection.MaxDistanceM, _ = cmd.Flags().GetFloat64("max-distance")
		}
		if cmd.Flags().Changed("tie-tolerance") {
			cfg.Projection.TieToleranceM, _ = cmd.Flags().GetFloat64("tie-tolerance")
		}
		if err := cfg.Validate("position"); err != nil {
			return err
		}
		if len(pointArgs) == 0 {
			return eris.New("position: at least one --point is required")
		}

		points := make([]geom.Coord, 0, len(pointArgs))
		for _, p := range pointArgs {
			pt, err := parsePoint(p)
			if err != nil {
				return err
			}
			points = append(points, pt)
		}

		segments, roadnames, err := loadInputs()
		if err != nil {
			return err
		}

		lengths := make(centreline.Lengths)
		if len(roadArgs) == 0 {
			for _, id := range roadIDs(segments) {
				lengths[id] = nil
			}
		}
		for _, r := range roadArgs {
			id, w, err := parseRoadWindow(r)
			if err != nil {
				return err
			}
			lengths[id] = w
		}

		partial, err := centreline.Build(segments, roadnames, lengths,
			centreline.WithMaxDistance(cfg.Projection.MaxDistanceM),
			centreline.WithTieTolerance(cfg.Projection.TieToleranceM),
			centreline.WithCellSize(cfg.Projection.CellSizeDeg),
		)
		if err != nil {
			return eris.Wrap(err, "position: build partial centreline")
		}

		positions, errs := partial.PositionAll(points)

		var failed int
		for i, e := range errs {
			if e != nil {
				failed++
				zap.L().Warn("point not placed", zap.Int("point", i), zap.Error(e))
			}
		}
		zap.L().Info("points projected",
			zap.Int("roads", len(lengths)),
			zap.Int("segments", partial.Len()),
			zap.Int("points", len(points)),
			zap.Int("failed", failed),
		)

		w, closeOut, err := openOutput(cmd, out)
		if err != nil {
			return err
		}
		label := func(p centreline.Position) string {
			return chainage.FormatLabel(p.RoadID, p.Roadname, p.PositionM)
		}
		if err := export.WritePositionsCSV(w, points, positions, errs, label); err != nil {
			_ = closeOut()
			return err
		}
		return closeOut()
	},
}

func init() {
	positionCmd.Flags().StringArray("point", nil, "query point as lon,lat (repeatable)")
	positionCmd.Flags().StringArray("road", nil, "road id, optionally clamped as id:start:end (repeatable)")
	positionCmd.Flags().Float64("max-distance", 0, "maximum snap distance in metres (default: from config)")
	positionCmd.Flags().Float64("tie-tolerance", 0, "distance within which roads tie, in metres (default: from config)")
	positionCmd.Flags().String("out", "-", "output CSV path (- for stdout)")
	rootCmd.AddCommand(positionCmd)
}
