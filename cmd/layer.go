package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/chainage-cli/internal/chainage"
	"github.com/sells-group/chainage-cli/internal/export"
)

var layerCmd = &cobra.Command{
	Use:   "layer",
	Short: "Build a labelled chainage marker layer",
	Long: `Walks each road and emits a marker at the start and end of every continuous
run and at every multiple of the interval in between. Markers carry start/end,
ramp and round-number flags and a label such as 01S-0333/01.40-D.

The output format follows --format, or the --out file extension when --format
is not set.`,
	Example: `  chainage layer --centreline roads.shp --roadnames roadnames.xlsx --roads 3664,3670 --interval 1000 --out chainage.geojson`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		roadsStr, _ := cmd.Flags().GetString("roads")
		formatStr, _ := cmd.Flags().GetString("format")
		out, _ := cmd.Flags().GetString("out")

		if cmd.Flags().Changed("interval") {
			cfg.Chainage.IntervalM, _ = cmd.Flags().GetFloat64("interval")
		}
		if cmd.Flags().Changed("concurrency") {
			cfg.Chainage.Concurrency, _ = cmd.Flags().GetInt("concurrency")
		}
		if err := cfg.Validate("layer"); err != nil {
			return err
		}

		format, err := layerFormat(formatStr, out)
		if err != nil {
			return err
		}
		if format == export.FormatXLSX && (out == "" || out == "-") {
			return eris.New("layer: xlsx output needs an --out file")
		}

		segments, roadnames, err := loadInputs()
		if err != nil {
			return err
		}

		ids := roadIDs(segments)
		if roadsStr != "" {
			if ids, err = parseRoadIDs(roadsStr); err != nil {
				return err
			}
		}

		markers, err := chainage.BuildLayer(segments, roadnames, ids,
			chainage.WithInterval(cfg.Chainage.IntervalM),
			chainage.WithConcurrency(cfg.Chainage.Concurrency),
		)
		if err != nil {
			return eris.Wrap(err, "layer")
		}

		zap.L().Info("chainage layer built",
			zap.Int("roads", len(ids)),
			zap.Float64("interval_m", cfg.Chainage.IntervalM),
			zap.Int("markers", len(markers)),
			zap.String("format", string(format)),
		)

		if format == export.FormatXLSX {
			return export.WriteMarkersFile(out, format, markers)
		}
		w, closeOut, err := openOutput(cmd, out)
		if err != nil {
			return err
		}
		if err := export.WriteMarkers(w, format, markers); err != nil {
			_ = closeOut()
			return err
		}
		return closeOut()
	},
}

// layerFormat picks the explicit format, else the one implied by the output
// path, else GeoJSON.
func layerFormat(formatStr, out string) (export.Format, error) {
	if formatStr != "" {
		return export.ParseFormat(formatStr)
	}
	if out != "" && out != "-" {
		if f, err := export.FormatFromPath(out); err == nil {
			return f, nil
		}
	}
	return export.FormatGeoJSON, nil
}

func init() {
	layerCmd.Flags().String("roads", "", "comma-separated road ids in output order (default: every road)")
	layerCmd.Flags().Float64("interval", 0, "marker spacing in metres (default: from config)")
	layerCmd.Flags().Int("concurrency", 0, "roads walked in parallel (default: from config)")
	layerCmd.Flags().String("format", "", "output format: geojson, csv or xlsx")
	layerCmd.Flags().String("out", "-", "output path (- for stdout)")
	rootCmd.AddCommand(layerCmd)
}
