package centreline

import (
	"math"
	"sort"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
)

// Defaults for Build options.
const (
	DefaultMaxDistanceM  = 500.0
	DefaultTieToleranceM = 0.05
	DefaultCellSizeDeg   = 0.01

	// MinCellSizeDeg is the smallest index cell size, about 11m.
	MinCellSizeDeg = 1e-4
)

var (
	// ErrNoMatch is returned when no road lies within the maximum distance of a point.
	ErrNoMatch = eris.New("centreline: no match found")
	// ErrInvalidPoint is returned for coordinates outside longitude/latitude range.
	ErrInvalidPoint = eris.New("centreline: invalid point")
)

// Option configures a Partial.
type Option func(*options)

type options struct {
	maxDistanceM  float64
	tieToleranceM float64
	cellSizeDeg   float64
}

// WithMaxDistance sets how far from the nearest road a point may be and still match.
func WithMaxDistance(metres float64) Option {
	return func(o *options) {
		if metres > 0 {
			o.maxDistanceM = metres
		}
	}
}

// WithTieTolerance sets the distance within which candidate rows count as equally near.
func WithTieTolerance(metres float64) Option {
	return func(o *options) {
		if metres >= 0 {
			o.tieToleranceM = metres
		}
	}
}

// WithCellSize sets the spatial index cell size in degrees. Sizes below
// MinCellSizeDeg are raised to it.
func WithCellSize(degrees float64) Option {
	return func(o *options) {
		if degrees > 0 {
			o.cellSizeDeg = max(degrees, MinCellSizeDeg)
		}
	}
}

// Position is a point located on the road network.
type Position struct {
	RoadID    int64      `json:"road_id"`
	PositionM float64    `json:"position_m"`
	DistanceM float64    `json:"distance_m"`
	Point     geom.Coord `json:"point"`
	Roadname  *Roadname  `json:"roadname,omitempty"`
}

// entry is one indexed row with its precomputed projection frame.
type entry struct {
	Segment
	order int
	frame frame
}

// Partial is a filtered, window-clipped centreline with a spatial index. It is
// immutable once built and safe for concurrent reads.
type Partial struct {
	entries   []entry
	roadnames map[int64]Roadname
	index     *gridIndex
	opts      options
}

// Build selects the centreline rows of the roads in lengths, clips each road to
// its window and indexes the result. Roads without centreline rows are skipped
// silently; they simply never match.
func Build(segments []Segment, roadnames []Roadname, lengths Lengths, opts ...Option) (*Partial, error) {
	o := options{
		maxDistanceM:  DefaultMaxDistanceM,
		tieToleranceM: DefaultTieToleranceM,
		cellSizeDeg:   DefaultCellSizeDeg,
	}
	for _, opt := range opts {
		opt(&o)
	}

	if err := lengths.Validate(); err != nil {
		return nil, err
	}

	var entries []entry
	for _, s := range segments {
		window, ok := lengths[s.RoadID]
		if !ok {
			continue
		}
		if err := s.Validate(); err != nil {
			return nil, err
		}
		clipped, keep := window.clip(s)
		if !keep {
			continue
		}
		// Clipped rows are measured in the frame of the full row.
		entries = append(entries, entry{
			Segment: clipped,
			order:   len(entries),
			frame:   frameFor(s.Geometry),
		})
	}

	names := make(map[int64]Roadname)
	for _, rn := range roadnames {
		if _, ok := lengths[rn.RoadID]; ok {
			names[rn.RoadID] = rn
		}
	}

	lines := make([]*geom.LineString, len(entries))
	for i, e := range entries {
		lines[i] = e.Geometry
	}

	return &Partial{
		entries:   entries,
		roadnames: names,
		index:     newGridIndex(lines, o.cellSizeDeg),
		opts:      o,
	}, nil
}

// Len returns the number of clipped rows.
func (p *Partial) Len() int {
	return len(p.entries)
}

// Segments returns a copy of the clipped rows in input order.
func (p *Partial) Segments() []Segment {
	out := make([]Segment, len(p.entries))
	for i, e := range p.entries {
		out[i] = e.Segment
	}
	return out
}

// Roadname returns the metadata joined for a road.
func (p *Partial) Roadname(roadID int64) (Roadname, bool) {
	rn, ok := p.roadnames[roadID]
	return rn, ok
}

type candidate struct {
	idx int
	projection
}

// Position locates the point on the nearest road row. Rows within the tie
// tolerance of the nearest are ranked by lowest road id, then lowest start_m,
// then input order. The chainage is the row's start_m plus the projected
// fraction of the row length.
func (p *Partial) Position(point geom.Coord) (Position, error) {
	if !ValidCoord(point) {
		return Position{}, eris.Wrapf(ErrInvalidPoint, "centreline: %v", point)
	}

	candidates := p.nearest(point)
	if len(candidates) == 0 {
		return Position{}, eris.Wrapf(ErrNoMatch, "centreline: nothing within %gm of (%f, %f)",
			p.opts.maxDistanceM, point[0], point[1])
	}

	sort.Slice(candidates, func(a, b int) bool {
		ea, eb := p.entries[candidates[a].idx], p.entries[candidates[b].idx]
		if ea.RoadID != eb.RoadID {
			return ea.RoadID < eb.RoadID
		}
		if ea.StartM != eb.StartM {
			return ea.StartM < eb.StartM
		}
		return ea.order < eb.order
	})

	best := candidates[0]
	e := p.entries[best.idx]
	pos := Position{
		RoadID:    e.RoadID,
		PositionM: e.StartM + best.fraction*e.LengthM(),
		DistanceM: Haversine(point, best.point),
		Point:     best.point,
	}
	if rn, ok := p.roadnames[e.RoadID]; ok {
		pos.Roadname = &rn
	}
	return pos, nil
}

// PositionAll locates every point, recording a per-point error instead of
// stopping at the first failure.
func (p *Partial) PositionAll(points []geom.Coord) ([]Position, []error) {
	positions := make([]Position, len(points))
	errs := make([]error, len(points))
	for i, pt := range points {
		positions[i], errs[i] = p.Position(pt)
	}
	return positions, errs
}

// nearest returns every row within the tie tolerance of the nearest row, as
// long as that row is within the maximum distance.
func (p *Partial) nearest(point geom.Coord) []candidate {
	center := p.index.cellOf(point)
	last := p.index.maxRing(center)

	// Entries first reached in ring r lie at least (r-1) cells from the point.
	cellM := p.index.size * newFrame(point[1]).kx
	limit := p.opts.maxDistanceM

	seen := make(map[int]bool)
	var found []candidate
	best := math.Inf(1)

	for r := int32(0); r <= last; r++ {
		if r > 0 && cellM > 0 {
			bound := float64(r-1) * cellM
			if bound > limit || bound > best+p.opts.tieToleranceM {
				break
			}
		}

		p.index.ring(center, r, func(idx int) {
			if seen[idx] {
				return
			}
			seen[idx] = true

			e := p.entries[idx]
			proj := project(e.frame, e.Geometry, point)
			if proj.distance > limit {
				return
			}
			found = append(found, candidate{idx: idx, projection: proj})
			best = math.Min(best, proj.distance)
		})
	}

	out := found[:0]
	for _, c := range found {
		if c.distance <= best+p.opts.tieToleranceM {
			out = append(out, c)
		}
	}
	return out
}
