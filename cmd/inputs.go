package main

import (
	"io"
	"math"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/sells-group/chainage-cli/internal/centreline"
	"github.com/sells-group/chainage-cli/internal/source"
)

// loadInputs reads the configured centreline and, when configured, the
// roadnames table.
func loadInputs() ([]centreline.Segment, []centreline.Roadname, error) {
	segments, err := source.LoadCentreline(cfg.Input.Centreline)
	if err != nil {
		return nil, nil, eris.Wrap(err, "load centreline")
	}

	var roadnames []centreline.Roadname
	if cfg.Input.Roadnames != "" {
		roadnames, err = source.LoadRoadnames(cfg.Input.Roadnames, cfg.Input.RoadnamesSheet)
		if err != nil {
			return nil, nil, eris.Wrap(err, "load roadnames")
		}
	}

	zap.L().Info("inputs loaded",
		zap.String("centreline", cfg.Input.Centreline),
		zap.Int("segments", len(segments)),
		zap.String("roadnames", cfg.Input.Roadnames),
		zap.Int("roads_named", len(roadnames)),
	)
	return segments, roadnames, nil
}

// roadIDs returns the distinct road ids of the centreline in ascending order.
func roadIDs(segments []centreline.Segment) []int64 {
	ids := make([]int64, 0, len(segments))
	for id := range centreline.ByRoad(segments) {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// splitAndTrim splits a comma-separated string and trims whitespace from each element.
func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

// parseRoadIDs parses a comma-separated list of road ids, keeping order.
func parseRoadIDs(s string) ([]int64, error) {
	parts := splitAndTrim(s)
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, eris.Errorf("invalid road id %q", p)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// parsePoint parses "lon,lat".
func parsePoint(s string) (geom.Coord, error) {
	parts := splitAndTrim(s)
	if len(parts) != 2 {
		return nil, eris.Errorf("invalid point %q: want lon,lat", s)
	}
	lon, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return nil, eris.Errorf("invalid point %q: bad longitude", s)
	}
	lat, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return nil, eris.Errorf("invalid point %q: bad latitude", s)
	}
	return geom.Coord{lon, lat}, nil
}

// parseRoadWindow parses "id", "id:start:end", "id:start:" or "id::end".
// An omitted bound leaves that side of the window open.
func parseRoadWindow(s string) (int64, *centreline.Window, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	id, err := strconv.ParseInt(strings.TrimSpace(parts[0]), 10, 64)
	if err != nil {
		return 0, nil, eris.Errorf("invalid road %q: bad road id", s)
	}
	switch len(parts) {
	case 1:
		return id, nil, nil
	case 3:
	default:
		return 0, nil, eris.Errorf("invalid road %q: want id or id:start:end", s)
	}

	bound := func(v string) (*float64, error) {
		v = strings.TrimSpace(v)
		if v == "" {
			return nil, nil
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || math.IsNaN(f) {
			return nil, eris.Errorf("invalid road %q: bad bound %q", s, v)
		}
		return &f, nil
	}
	start, err := bound(parts[1])
	if err != nil {
		return 0, nil, err
	}
	end, err := bound(parts[2])
	if err != nil {
		return 0, nil, err
	}
	return id, &centreline.Window{Start: start, End: end}, nil
}

// openOutput returns the command's stdout for "" or "-", otherwise a new file.
func openOutput(cmd *cobra.Command, path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "create %s", path)
	}
	return f, f.Close, nil
}
