// Package export writes chainage markers, projected positions and merged
// segment tables to GeoJSON, CSV and XLSX.
package export

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/sells-group/chainage-cli/internal/centreline"
	"github.com/sells-group/chainage-cli/internal/chainage"
)

// Format is an output file format.
type Format string

// Supported formats.
const (
	FormatGeoJSON Format = "geojson"
	FormatCSV     Format = "csv"
	FormatXLSX    Format = "xlsx"
)

// ErrUnknownFormat is returned for format names no writer handles.
var ErrUnknownFormat = eris.New("export: unknown format")

// MarkerColumns are the attribute columns of a marker layer, in output order.
var MarkerColumns = []string{
	"road_id", "position_m",
	"is_start", "is_end", "is_ramp",
	"is_2000s", "is_1000s", "is_500s", "is_200s", "is_100s",
	"label",
}

// ParseFormat resolves a format name, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatGeoJSON, FormatCSV, FormatXLSX:
		return f, nil
	case "json":
		return FormatGeoJSON, nil
	default:
		return "", eris.Wrapf(ErrUnknownFormat, "export: %q", s)
	}
}

// FormatFromPath infers the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	return ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))
}

// WriteMarkersFile writes markers to path in the given format.
func WriteMarkersFile(path string, format Format, markers []chainage.Marker) error {
	if format == FormatXLSX {
		return WriteMarkersXLSX(path, markers)
	}

	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "export: create %s", path)
	}
	if err := WriteMarkers(f, format, markers); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return eris.Wrapf(err, "export: close %s", path)
	}
	return nil
}

// WriteMarkers writes markers to w as GeoJSON or CSV.
func WriteMarkers(w io.Writer, format Format, markers []chainage.Marker) error {
	switch format {
	case FormatGeoJSON:
		return WriteMarkersGeoJSON(w, markers)
	case FormatCSV:
		return WriteMarkersCSV(w, markers)
	default:
		return eris.Wrapf(ErrUnknownFormat, "export: %q cannot be streamed", format)
	}
}

// WriteMarkersGeoJSON writes markers as a GeoJSON FeatureCollection of points.
func WriteMarkersGeoJSON(w io.Writer, markers []chainage.Marker) error {
	fc := geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(markers))}
	for _, m := range markers {
		props := make(map[string]any, len(MarkerColumns))
		for i, v := range markerValues(m) {
			props[MarkerColumns[i]] = v
		}
		fc.Features = append(fc.Features, &geojson.Feature{
			Geometry:   markerPoint(m),
			Properties: props,
		})
	}

	if err := json.NewEncoder(w).Encode(&fc); err != nil {
		return eris.Wrap(err, "export: encode geojson")
	}
	return nil
}

func markerPoint(m chainage.Marker) *geom.Point {
	x, y := 0.0, 0.0
	if len(m.Point) >= 2 {
		x, y = m.Point[0], m.Point[1]
	}
	return geom.NewPointFlat(geom.XY, []float64{x, y}).SetSRID(centreline.SRID)
}

// markerValues returns the typed column values of m in MarkerColumns order.
func markerValues(m chainage.Marker) []any {
	return []any{
		m.RoadID, m.PositionM,
		m.IsStart, m.IsEnd, m.IsRamp,
		m.Is2000s, m.Is1000s, m.Is500s, m.Is200s, m.Is100s,
		m.Label,
	}
}

func formatValue(v any) string {
	switch t := v.(type) {
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return formatFloat(t)
	case bool:
		return strconv.FormatBool(t)
	case string:
		return t
	default:
		return ""
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
