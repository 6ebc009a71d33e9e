package source

import (
	"encoding/hex"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"
	"github.com/twpayne/go-geom/encoding/wkt"

	"github.com/sells-group/chainage-cli/internal/centreline"
)

// ParseGeometry decodes a centreline geometry cell holding either WKT
// ("LINESTRING (...)") or hex-encoded (E)WKB. Multi-part lines are joined
// into a single line in part order.
func ParseGeometry(s string) (*geom.LineString, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, eris.New("source: empty geometry")
	}

	var (
		g   geom.T
		err error
	)
	if isHex(s) {
		data, decErr := hex.DecodeString(s)
		if decErr != nil {
			return nil, eris.Wrap(decErr, "source: decode hex geometry")
		}
		g, err = ewkb.Unmarshal(data)
		if err != nil {
			return nil, eris.Wrap(err, "source: decode EWKB geometry")
		}
	} else {
		g, err = wkt.Unmarshal(s)
		if err != nil {
			return nil, eris.Wrap(err, "source: decode WKT geometry")
		}
	}

	var ls *geom.LineString
	switch t := g.(type) {
	case *geom.LineString:
		ls = joinParts([][]geom.Coord{t.Coords()})
	case *geom.MultiLineString:
		parts := make([][]geom.Coord, 0, t.NumLineStrings())
		for i := 0; i < t.NumLineStrings(); i++ {
			parts = append(parts, t.LineString(i).Coords())
		}
		ls = joinParts(parts)
	default:
		return nil, eris.Errorf("source: unsupported geometry type %T", g)
	}
	if ls == nil {
		return nil, eris.New("source: geometry has no coordinates")
	}
	return ls, nil
}

func isHex(s string) bool {
	if len(s)%2 != 0 {
		return false
	}
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f', r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}

// polyLineToLineString joins the parts of a shapefile PolyLine. Parts whose
// offsets fall outside the point array or run backwards are skipped.
func polyLineToLineString(pl *shp.PolyLine) *geom.LineString {
	if pl == nil || len(pl.Parts) == 0 || len(pl.Points) == 0 {
		return nil
	}

	n := int32(len(pl.Points))
	numParts := min(int(pl.NumParts), len(pl.Parts))
	parts := make([][]geom.Coord, 0, max(numParts, 0))
	for i := 0; i < numParts; i++ {
		start := pl.Parts[i]
		end := n
		if i+1 < numParts {
			end = pl.Parts[i+1]
		}
		if start < 0 || end > n || start >= end {
			continue
		}

		coords := make([]geom.Coord, 0, end-start)
		for _, p := range pl.Points[start:end] {
			coords = append(coords, geom.Coord{p.X, p.Y})
		}
		parts = append(parts, coords)
	}
	return joinParts(parts)
}

// joinParts concatenates line parts, dropping the first vertex of a part that
// repeats the last vertex of the previous one. The result is XY with the
// centreline SRID.
func joinParts(parts [][]geom.Coord) *geom.LineString {
	var flat []float64
	var last geom.Coord
	for _, part := range parts {
		for k, c := range part {
			if len(c) < 2 {
				continue
			}
			if k == 0 && last != nil && c[0] == last[0] && c[1] == last[1] {
				continue
			}
			flat = append(flat, c[0], c[1])
			last = c
		}
	}
	if len(flat) == 0 {
		return nil
	}
	return geom.NewLineStringFlat(geom.XY, flat).SetSRID(centreline.SRID)
}
