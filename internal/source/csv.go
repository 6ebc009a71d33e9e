package source

import (
	"encoding/csv"
	"io"
	"slices"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/chainage-cli/internal/centreline"
	"github.com/sells-group/chainage-cli/internal/segment"
)

// readCSV reads a whole CSV table. The first row is the header; blank rows
// are dropped.
func readCSV(r io.Reader) (header, []string, [][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	names, err := reader.Read()
	if err == io.EOF {
		return nil, nil, nil, eris.Wrap(ErrMissingColumn, "source: empty csv")
	}
	if err != nil {
		return nil, nil, nil, eris.Wrap(err, "csv: read header")
	}

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, nil, eris.Wrap(err, "csv: read row")
		}
		if isBlank(record) {
			continue
		}
		rows = append(rows, record)
	}
	return newHeader(names), names, rows, nil
}

// ReadCentrelineCSV reads centreline rows from CSV with road_id, start_m,
// end_m and a geometry column holding WKT or hex EWKB.
func ReadCentrelineCSV(r io.Reader) ([]centreline.Segment, error) {
	h, _, rows, err := readCSV(r)
	if err != nil {
		return nil, err
	}
	if err := h.require("centreline", ColRoadID, ColStartM, ColEndM, ColGeometry); err != nil {
		return nil, err
	}

	segments := make([]centreline.Segment, 0, len(rows))
	for i, row := range rows {
		id, start, end, err := h.bounds(row)
		if err != nil {
			return nil, eris.Wrapf(err, "source: centreline row %d", i+1)
		}
		ls, err := ParseGeometry(h.get(row, ColGeometry))
		if err != nil {
			return nil, eris.Wrapf(err, "source: centreline row %d", i+1)
		}
		segments = append(segments, centreline.Segment{RoadID: id, StartM: start, EndM: end, Geometry: ls})
	}
	return segments, nil
}

// ReadRoadnamesCSV reads roadname metadata from CSV. Only road_id is required;
// absent descriptive columns are left empty.
func ReadRoadnamesCSV(r io.Reader) ([]centreline.Roadname, error) {
	h, _, rows, err := readCSV(r)
	if err != nil {
		return nil, err
	}
	return roadnamesFromRows(h, rows)
}

func roadnamesFromRows(h header, rows [][]string) ([]centreline.Roadname, error) {
	if err := h.require("roadnames", ColRoadID); err != nil {
		return nil, err
	}
	out := make([]centreline.Roadname, 0, len(rows))
	for i, row := range rows {
		rn, err := h.roadname(row)
		if err != nil {
			return nil, eris.Wrapf(err, "source: roadnames row %d", i+1)
		}
		out = append(out, rn)
	}
	return out, nil
}

// ReadRecordsCSV reads a generic interval table. Every column other than
// road_id, start_m and end_m is kept as a record attribute.
func ReadRecordsCSV(r io.Reader) (RecordTable, error) {
	h, names, rows, err := readCSV(r)
	if err != nil {
		return RecordTable{}, err
	}
	if err := h.require("records", ColRoadID, ColStartM, ColEndM); err != nil {
		return RecordTable{}, err
	}

	var attrs []string
	for _, name := range names {
		col := normalise(name)
		switch col {
		case ColRoadID, ColStartM, ColEndM, "":
			continue
		}
		if !slices.Contains(attrs, col) {
			attrs = append(attrs, col)
		}
	}

	table := RecordTable{Columns: attrs, Records: make([]segment.Record, 0, len(rows))}
	for i, row := range rows {
		id, start, end, err := h.bounds(row)
		if err != nil {
			return RecordTable{}, eris.Wrapf(err, "source: records row %d", i+1)
		}
		rec := segment.Record{RoadID: id, StartM: start, EndM: end, Attrs: make(map[string]string, len(attrs))}
		for _, col := range attrs {
			rec.Attrs[col] = h.get(row, col)
		}
		table.Records = append(table.Records, rec)
	}

	zap.L().Debug("source: read records", zap.Int("rows", len(table.Records)), zap.Strings("columns", attrs))
	return table, nil
}
