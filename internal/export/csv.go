package export

import (
	"encoding/csv"
	"io"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkt"

	"github.com/sells-group/chainage-cli/internal/centreline"
	"github.com/sells-group/chainage-cli/internal/chainage"
	"github.com/sells-group/chainage-cli/internal/segment"
)

// PositionColumns are the columns written by WritePositionsCSV.
var PositionColumns = []string{"lon", "lat", "road_id", "position_m", "distance_m", "label", "error"}

// WriteMarkersCSV writes markers as CSV with a WKT point geometry column.
func WriteMarkersCSV(w io.Writer, markers []chainage.Marker) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(append(append([]string{}, MarkerColumns...), "geometry")); err != nil {
		return eris.Wrap(err, "csv: write header")
	}

	for _, m := range markers {
		values := markerValues(m)
		row := make([]string, 0, len(values)+1)
		for _, v := range values {
			row = append(row, formatValue(v))
		}
		point, err := wkt.Marshal(markerPoint(m))
		if err != nil {
			return eris.Wrapf(err, "export: encode marker %d at %g", m.RoadID, m.PositionM)
		}
		row = append(row, point)
		if err := cw.Write(row); err != nil {
			return eris.Wrap(err, "csv: write row")
		}
	}
	return flush(cw)
}

// WritePositionsCSV writes one row per query point. Points that could not be
// placed keep their coordinates and carry the error text instead of a position.
func WritePositionsCSV(w io.Writer, points []geom.Coord, positions []centreline.Position, errs []error, labeller func(centreline.Position) string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(PositionColumns); err != nil {
		return eris.Wrap(err, "csv: write header")
	}

	for i, pt := range points {
		row := make([]string, len(PositionColumns))
		if len(pt) >= 2 {
			row[0], row[1] = formatFloat(pt[0]), formatFloat(pt[1])
		}
		switch {
		case i < len(errs) && errs[i] != nil:
			row[6] = errs[i].Error()
		case i < len(positions):
			p := positions[i]
			row[2] = formatValue(p.RoadID)
			row[3] = formatFloat(p.PositionM)
			row[4] = formatFloat(p.DistanceM)
			if labeller != nil {
				row[5] = labeller(p)
			}
		}
		if err := cw.Write(row); err != nil {
			return eris.Wrap(err, "csv: write row")
		}
	}
	return flush(cw)
}

// WriteRecordsCSV writes merged records with road_id, start_m, end_m and then
// the attribute columns in the given order.
func WriteRecordsCSV(w io.Writer, columns []string, records []segment.Record) error {
	cw := csv.NewWriter(w)
	header := append([]string{segment.RoadIDColumn, "start_m", "end_m"}, columns...)
	if err := cw.Write(header); err != nil {
		return eris.Wrap(err, "csv: write header")
	}

	for _, r := range records {
		row := make([]string, 0, len(header))
		row = append(row, formatValue(r.RoadID), formatFloat(r.StartM), formatFloat(r.EndM))
		for _, c := range columns {
			row = append(row, r.Attrs[c])
		}
		if err := cw.Write(row); err != nil {
			return eris.Wrap(err, "csv: write row")
		}
	}
	return flush(cw)
}

func flush(cw *csv.Writer) error {
	cw.Flush()
	if err := cw.Error(); err != nil {
		return eris.Wrap(err, "csv: flush")
	}
	return nil
}
