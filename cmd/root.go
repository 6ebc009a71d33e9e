package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/chainage-cli/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "chainage",
	Short: "Road centreline linear referencing and chainage layers",
	Long: `Projects geographic points onto road chainage along a centreline, merges
continuous road segments and builds labelled chainage marker layers.

The centreline is read from a shapefile or a CSV with WKT / hex EWKB geometry.
Roadname metadata (route, reference station, direction, ramp number) is read
from CSV or XLSX and used for marker labels.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		// Flags override config.
		if cmd.Flags().Changed("centreline") {
			cfg.Input.Centreline, _ = cmd.Flags().GetString("centreline")
		}
		if cmd.Flags().Changed("roadnames") {
			cfg.Input.Roadnames, _ = cmd.Flags().GetString("roadnames")
		}
		if cmd.Flags().Changed("roadnames-sheet") {
			cfg.Input.RoadnamesSheet, _ = cmd.Flags().GetString("roadnames-sheet")
		}

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().String("centreline", "", "centreline table (.shp or .csv)")
	rootCmd.PersistentFlags().String("roadnames", "", "roadname metadata table (.csv or .xlsx)")
	rootCmd.PersistentFlags().String("roadnames-sheet", "", "worksheet holding roadnames (default: first sheet)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
