// Package chainage builds labelled chainage marker layers along roads.
package chainage

import (
	"math"
	"slices"
	"sort"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/chainage-cli/internal/centreline"
	"github.com/sells-group/chainage-cli/internal/segment"
)

// DefaultIntervalM is the default spacing of markers along a road.
const DefaultIntervalM = 100.0

// ErrInvalidInterval is returned for a non-positive or non-finite marker spacing.
var ErrInvalidInterval = eris.New("chainage: invalid interval")

// Marker is one labelled chainage point.
type Marker struct {
	RoadID    int64      `json:"road_id"`
	PositionM float64    `json:"position_m"`
	Point     geom.Coord `json:"-"`
	IsStart   bool       `json:"is_start"`
	IsEnd     bool       `json:"is_end"`
	IsRamp    bool       `json:"is_ramp"`
	Is2000s   bool       `json:"is_2000s"`
	Is1000s   bool       `json:"is_1000s"`
	Is500s    bool       `json:"is_500s"`
	Is200s    bool       `json:"is_200s"`
	Is100s    bool       `json:"is_100s"`
	Label     string     `json:"label"`
}

// Option configures BuildLayer.
type Option func(*options)

type options struct {
	intervalM   float64
	concurrency int
}

// WithInterval sets the marker spacing in metres.
func WithInterval(metres float64) Option {
	return func(o *options) { o.intervalM = metres }
}

// WithConcurrency sets how many roads are walked at once.
func WithConcurrency(n int) Option {
	return func(o *options) { o.concurrency = n }
}

// BuildLayer walks each road in roadIDs order and emits a marker at the start
// and end of every continuous run of the road and at every multiple of the
// interval in between. Roads without centreline rows emit nothing.
func BuildLayer(segments []centreline.Segment, roadnames []centreline.Roadname, roadIDs []int64, opts ...Option) ([]Marker, error) {
	o := options{intervalM: DefaultIntervalM, concurrency: 1}
	for _, opt := range opts {
		opt(&o)
	}
	if !(o.intervalM > 0) || math.IsInf(o.intervalM, 0) {
		return nil, eris.Wrapf(ErrInvalidInterval, "chainage: interval %g", o.intervalM)
	}

	byRoad := centreline.ByRoad(segments)
	names := centreline.IndexRoadnames(roadnames)

	results := make([][]Marker, len(roadIDs))

	var g errgroup.Group
	g.SetLimit(max(1, o.concurrency))
	for i, id := range roadIDs {
		g.Go(func() error {
			var rn *centreline.Roadname
			if n, ok := names[id]; ok {
				rn = &n
			}
			markers, err := roadMarkers(id, byRoad[id], rn, o.intervalM)
			if err != nil {
				return eris.Wrapf(err, "chainage: road %d", id)
			}
			results[i] = markers
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var total int
	for _, r := range results {
		total += len(r)
	}
	out := make([]Marker, 0, total)
	for _, r := range results {
		out = append(out, r...)
	}
	return out, nil
}

func roadMarkers(roadID int64, rows []centreline.Segment, rn *centreline.Roadname, intervalM float64) ([]Marker, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	for _, r := range rows {
		if err := r.Validate(); err != nil {
			return nil, err
		}
	}

	sorted := slices.Clone(rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].StartM != sorted[j].StartM {
			return sorted[i].StartM < sorted[j].StartM
		}
		return sorted[i].EndM < sorted[j].EndM
	})

	intervals := make([]segment.Interval, len(sorted))
	for i, r := range sorted {
		intervals[i] = segment.Interval{StartM: r.StartM, EndM: r.EndM}
	}

	isRamp := rn != nil && rn.IsRamp()

	var out []Marker
	for _, run := range segment.Merge(intervals) {
		positions := runPositions(run, intervalM)
		for k, pos := range positions {
			out = append(out, Marker{
				RoadID:    roadID,
				PositionM: pos,
				Point:     locate(sorted, pos),
				IsStart:   k == 0,
				IsEnd:     k == len(positions)-1,
				IsRamp:    isRamp,
				Is2000s:   IsMultiple(pos, RoundThresholds[0]),
				Is1000s:   IsMultiple(pos, RoundThresholds[1]),
				Is500s:    IsMultiple(pos, RoundThresholds[2]),
				Is200s:    IsMultiple(pos, RoundThresholds[3]),
				Is100s:    IsMultiple(pos, RoundThresholds[4]),
				Label:     FormatLabel(roadID, rn, pos),
			})
		}
	}
	return out, nil
}

// runPositions lists the run start, every multiple of intervalM strictly
// inside the run, and the run end.
func runPositions(run segment.Interval, intervalM float64) []float64 {
	positions := []float64{run.StartM}
	for k := math.Floor(run.StartM/intervalM) + 1; ; k++ {
		p := k * intervalM
		if p >= run.EndM-roundEpsilonM {
			break
		}
		if p <= run.StartM+roundEpsilonM {
			continue
		}
		positions = append(positions, p)
	}
	if run.EndM > run.StartM {
		positions = append(positions, run.EndM)
	}
	return positions
}

// locate interpolates the coordinate of a chainage along the first row
// covering it. rows must be sorted by start.
func locate(rows []centreline.Segment, positionM float64) geom.Coord {
	for _, r := range rows {
		if positionM < r.StartM || positionM > r.EndM {
			continue
		}
		fraction := 0.0
		if l := r.LengthM(); l > 0 {
			fraction = (positionM - r.StartM) / l
		}
		return centreline.Interpolate(r.Geometry, fraction)
	}
	last := rows[len(rows)-1]
	return centreline.Interpolate(last.Geometry, 1)
}
