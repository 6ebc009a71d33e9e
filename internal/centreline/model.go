// Package centreline holds the linear-referenced road centreline model and the
// partial centreline used to project geographic points onto road chainage.
package centreline

import (
	"math"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
)

// SRID of every centreline geometry (WGS84 longitude/latitude).
const SRID = 4326

// ErrMalformedSegment is returned for centreline rows that cannot be used.
var ErrMalformedSegment = eris.New("centreline: malformed segment")

// Segment is one centreline row: the geometry of a road between two chainages.
type Segment struct {
	RoadID   int64            `json:"road_id"`
	StartM   float64          `json:"start_m"`
	EndM     float64          `json:"end_m"`
	Geometry *geom.LineString `json:"-"`
}

// LengthM returns the chainage length covered by the row.
func (s Segment) LengthM() float64 {
	return s.EndM - s.StartM
}

// Validate checks the row bounds and geometry.
func (s Segment) Validate() error {
	if math.IsNaN(s.StartM) || math.IsInf(s.StartM, 0) || math.IsNaN(s.EndM) || math.IsInf(s.EndM, 0) {
		return eris.Wrapf(ErrMalformedSegment, "centreline: road %d has non-finite bounds", s.RoadID)
	}
	if s.EndM < s.StartM {
		return eris.Wrapf(ErrMalformedSegment, "centreline: road %d has end_m %g before start_m %g", s.RoadID, s.EndM, s.StartM)
	}
	if s.Geometry == nil || s.Geometry.NumCoords() == 0 {
		return eris.Wrapf(ErrMalformedSegment, "centreline: road %d at %g has no geometry", s.RoadID, s.StartM)
	}
	if s.Geometry.Stride() < 2 {
		return eris.Wrapf(ErrMalformedSegment, "centreline: road %d at %g has layout %v", s.RoadID, s.StartM, s.Geometry.Layout())
	}
	return nil
}

// Roadname is the descriptive metadata of a road, used for chainage labels.
type Roadname struct {
	RoadID           int64  `json:"road_id"`
	RoadName         string `json:"road_name,omitempty"`
	RouteNumber      string `json:"route_number,omitempty"`
	RouteSuffix      string `json:"route_suffix,omitempty"`
	ReferenceStation string `json:"ref_station,omitempty"`
	Direction        string `json:"direction,omitempty"`
	ElementType      string `json:"element_type,omitempty"`
	RampNumber       string `json:"ramp_no,omitempty"`
}

// Route returns the route designation, e.g. "01S".
func (r Roadname) Route() string {
	return r.RouteNumber + r.RouteSuffix
}

// IsRamp reports whether the road is a ramp rather than a mainline carriageway.
func (r Roadname) IsRamp() bool {
	return strings.EqualFold(strings.TrimSpace(r.ElementType), "RP") || strings.TrimSpace(r.RampNumber) != ""
}

// RampSuffix returns the label suffix of a ramp, e.g. "R2".
func (r Roadname) RampSuffix() string {
	n := strings.TrimSpace(r.RampNumber)
	if n == "" {
		return "R"
	}
	if n[0] >= '0' && n[0] <= '9' {
		return "R" + n
	}
	return strings.ToUpper(n)
}

// IndexRoadnames keys roadnames by road id. Later rows win on duplicate ids.
func IndexRoadnames(roadnames []Roadname) map[int64]Roadname {
	out := make(map[int64]Roadname, len(roadnames))
	for _, rn := range roadnames {
		out[rn.RoadID] = rn
	}
	return out
}

// ByRoad groups centreline rows by road id, keeping input order within a road.
func ByRoad(segments []Segment) map[int64][]Segment {
	out := make(map[int64][]Segment)
	for _, s := range segments {
		out[s.RoadID] = append(out[s.RoadID], s)
	}
	return out
}
