package centreline

import (
	"fmt"
	"math"
	"slices"

	"github.com/rotisserie/eris"
)

// ErrInvalidWindow is returned for a length window whose start is not before its end.
var ErrInvalidWindow = eris.New("centreline: invalid window")

// Window restricts a road to part of its length. A nil bound is unbounded on
// that side; a nil *Window selects the whole road.
type Window struct {
	Start *float64 `json:"start_m,omitempty"`
	End   *float64 `json:"end_m,omitempty"`
}

// Lengths maps road ids to the window of each road that takes part in projection.
type Lengths map[int64]*Window

// Between returns a window bounded on both sides.
func Between(start, end float64) *Window {
	return &Window{Start: &start, End: &end}
}

// From returns a window starting at start and running to the end of the road.
func From(start float64) *Window {
	return &Window{Start: &start}
}

// Until returns a window from the start of the road to end.
func Until(end float64) *Window {
	return &Window{End: &end}
}

// Validate rejects NaN bounds and windows whose start is not before their end.
func (w *Window) Validate() error {
	if w == nil {
		return nil
	}
	if (w.Start != nil && math.IsNaN(*w.Start)) || (w.End != nil && math.IsNaN(*w.End)) {
		return eris.Wrapf(ErrInvalidWindow, "centreline: window %s has NaN bound", w)
	}
	if w.Start != nil && w.End != nil && *w.Start >= *w.End {
		return eris.Wrapf(ErrInvalidWindow, "centreline: window %s start is not before end", w)
	}
	return nil
}

func (w *Window) String() string {
	if w == nil {
		return "[whole road]"
	}
	bound := func(v *float64) string {
		if v == nil {
			return "-"
		}
		return fmt.Sprintf("%g", *v)
	}
	return fmt.Sprintf("[%s, %s]", bound(w.Start), bound(w.End))
}

// Validate checks every window, in road id order.
func (l Lengths) Validate() error {
	ids := make([]int64, 0, len(l))
	for id := range l {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		if err := l[id].Validate(); err != nil {
			return eris.Wrapf(err, "centreline: road %d", id)
		}
	}
	return nil
}

// clip trims a row to the window. Rows outside the window, or touching it at a
// single point, are dropped; zero-length rows inside the window are kept.
func (w *Window) clip(s Segment) (Segment, bool) {
	if w == nil {
		return s, true
	}

	lo, hi := s.StartM, s.EndM
	if w.Start != nil {
		lo = max(lo, *w.Start)
	}
	if w.End != nil {
		hi = min(hi, *w.End)
	}
	if hi < lo || (hi == lo && s.EndM > s.StartM) {
		return Segment{}, false
	}
	if lo == s.StartM && hi == s.EndM {
		return s, true
	}

	length := s.LengthM()
	return Segment{
		RoadID:   s.RoadID,
		StartM:   lo,
		EndM:     hi,
		Geometry: substring(s.Geometry, (lo-s.StartM)/length, (hi-s.StartM)/length),
	}, true
}
