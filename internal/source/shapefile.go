package source

import (
	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/chainage-cli/internal/centreline"
)

// ReadCentrelineShapefile reads centreline rows from a PolyLine shapefile with
// road_id, start_m and end_m attributes. Records without a usable line are
// skipped.
func ReadCentrelineShapefile(shpPath string) ([]centreline.Segment, error) {
	reader, err := shp.Open(shpPath)
	if err != nil {
		return nil, eris.Wrapf(err, "source: open shapefile %s", shpPath)
	}
	defer func() { _ = reader.Close() }()

	fields := reader.Fields()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.String()
	}
	h := newHeader(names)
	if err := h.require("centreline", ColRoadID, ColStartM, ColEndM); err != nil {
		return nil, eris.Wrapf(err, "source: shapefile %s", shpPath)
	}

	var segments []centreline.Segment
	var skipped int

	for reader.Next() {
		n, shape := reader.Shape()

		pl, ok := shape.(*shp.PolyLine)
		if !ok {
			skipped++
			continue
		}
		ls := polyLineToLineString(pl)
		if ls == nil {
			skipped++
			continue
		}

		row := make([]string, len(fields))
		for i := range fields {
			row[i] = reader.Attribute(i)
		}
		id, start, end, err := h.bounds(row)
		if err != nil {
			return nil, eris.Wrapf(err, "source: shapefile %s record %d", shpPath, n)
		}

		segments = append(segments, centreline.Segment{
			RoadID:   id,
			StartM:   start,
			EndM:     end,
			Geometry: ls,
		})
	}

	if skipped > 0 {
		zap.L().Debug("source: skipped shapefile records",
			zap.String("path", shpPath),
			zap.Int("skipped", skipped),
		)
	}

	return segments, nil
}
