// Package source loads centreline, roadname and segment tables from files.
package source

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/chainage-cli/internal/centreline"
	"github.com/sells-group/chainage-cli/internal/segment"
)

// Column names on the tabular boundary.
const (
	ColRoadID      = "road_id"
	ColStartM      = "start_m"
	ColEndM        = "end_m"
	ColGeometry    = "geometry"
	ColRoadName    = "road_name"
	ColRouteNumber = "route_number"
	ColRouteSuffix = "route_suffix"
	ColRefStation  = "ref_station"
	ColDirection   = "direction"
	ColElementType = "element_type"
	ColRampNumber  = "ramp_no"
)

var (
	// ErrMissingColumn is returned when an input table lacks a required column.
	ErrMissingColumn = eris.New("source: missing column")
	// ErrUnsupportedFormat is returned for file extensions no loader handles.
	ErrUnsupportedFormat = eris.New("source: unsupported format")
)

// RecordTable is a generic interval table. Columns lists the attribute columns
// in file order, excluding road_id, start_m and end_m.
type RecordTable struct {
	Columns []string
	Records []segment.Record
}

// LoadCentreline reads a centreline from a shapefile (.shp), a zipped
// shapefile (.zip) or CSV (.csv).
func LoadCentreline(path string) ([]centreline.Segment, error) {
	switch ext(path) {
	case ".shp":
		return ReadCentrelineShapefile(path)
	case ".zip":
		return ReadCentrelineZIP(path)
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, eris.Wrapf(err, "source: open centreline %s", path)
		}
		defer func() { _ = f.Close() }()
		return ReadCentrelineCSV(f)
	default:
		return nil, eris.Wrapf(ErrUnsupportedFormat, "source: centreline %s", path)
	}
}

// LoadRoadnames reads roadnames from a CSV or an XLSX workbook. sheet selects
// the worksheet by name; empty means the first sheet.
func LoadRoadnames(path, sheet string) ([]centreline.Roadname, error) {
	switch ext(path) {
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, eris.Wrapf(err, "source: open roadnames %s", path)
		}
		defer func() { _ = f.Close() }()
		return ReadRoadnamesCSV(f)
	case ".xlsx":
		return ReadRoadnamesXLSX(path, sheet)
	default:
		return nil, eris.Wrapf(ErrUnsupportedFormat, "source: roadnames %s", path)
	}
}

// LoadRecords reads a generic interval table from a CSV file.
func LoadRecords(path string) (RecordTable, error) {
	if ext(path) != ".csv" {
		return RecordTable{}, eris.Wrapf(ErrUnsupportedFormat, "source: records %s", path)
	}
	f, err := os.Open(path)
	if err != nil {
		return RecordTable{}, eris.Wrapf(err, "source: open records %s", path)
	}
	defer func() { _ = f.Close() }()
	return ReadRecordsCSV(f)
}

func ext(path string) string {
	return strings.ToLower(filepath.Ext(path))
}

// header maps normalised column names to their index.
type header map[string]int

func newHeader(names []string) header {
	h := make(header, len(names))
	for i, name := range names {
		name = normalise(name)
		if _, dup := h[name]; !dup {
			h[name] = i
		}
	}
	return h
}

func normalise(name string) string {
	name = strings.TrimRight(name, "\x00")
	name = strings.TrimPrefix(name, "\ufeff")
	return strings.ToLower(strings.TrimSpace(name))
}

func (h header) require(table string, cols ...string) error {
	var missing []string
	for _, c := range cols {
		if _, ok := h[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return eris.Wrapf(ErrMissingColumn, "source: %s table lacks %s", table, strings.Join(missing, ", "))
	}
	return nil
}

// get returns the trimmed value of col, or "" when the column or cell is absent.
func (h header) get(row []string, col string) string {
	i, ok := h[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(strings.TrimRight(row[i], "\x00"))
}

func parseRoadID(s string) (int64, error) {
	if id, err := strconv.ParseInt(s, 10, 64); err == nil {
		return id, nil
	}
	// Numeric dbf and spreadsheet cells may render as "3664.0".
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != float64(int64(f)) {
		return 0, eris.Errorf("source: invalid road_id %q", s)
	}
	return int64(f), nil
}

func parseMetres(col, s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, eris.Wrapf(err, "source: invalid %s %q", col, s)
	}
	return v, nil
}

// bounds parses the road_id, start_m and end_m cells of a row.
func (h header) bounds(row []string) (int64, float64, float64, error) {
	id, err := parseRoadID(h.get(row, ColRoadID))
	if err != nil {
		return 0, 0, 0, err
	}
	start, err := parseMetres(ColStartM, h.get(row, ColStartM))
	if err != nil {
		return 0, 0, 0, err
	}
	end, err := parseMetres(ColEndM, h.get(row, ColEndM))
	if err != nil {
		return 0, 0, 0, err
	}
	return id, start, end, nil
}

func (h header) roadname(row []string) (centreline.Roadname, error) {
	id, err := parseRoadID(h.get(row, ColRoadID))
	if err != nil {
		return centreline.Roadname{}, err
	}
	return centreline.Roadname{
		RoadID:           id,
		RoadName:         h.get(row, ColRoadName),
		RouteNumber:      h.get(row, ColRouteNumber),
		RouteSuffix:      h.get(row, ColRouteSuffix),
		ReferenceStation: h.get(row, ColRefStation),
		Direction:        h.get(row, ColDirection),
		ElementType:      h.get(row, ColElementType),
		RampNumber:       h.get(row, ColRampNumber),
	}, nil
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
