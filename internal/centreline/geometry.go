package centreline

import (
	"math"

	"github.com/twpayne/go-geom"
)

const (
	earthRadiusM    = 6371000.0
	metresPerDegree = earthRadiusM * math.Pi / 180
)

// frame is a local equirectangular approximation that scales longitude and
// latitude degrees to metres around a reference latitude. It is only used for
// distances and fractions along short road rows, never as a reprojection.
type frame struct {
	kx, ky float64
}

func newFrame(lat float64) frame {
	return frame{
		kx: metresPerDegree * math.Cos(lat*math.Pi/180),
		ky: metresPerDegree,
	}
}

// frameFor returns the frame of a line, anchored at its first vertex.
func frameFor(ls *geom.LineString) frame {
	return newFrame(ls.Coord(0)[1])
}

// offset returns c relative to origin in metres.
func (f frame) offset(c, origin geom.Coord) (x, y float64) {
	return (c[0] - origin[0]) * f.kx, (c[1] - origin[1]) * f.ky
}

func (f frame) distance(a, b geom.Coord) float64 {
	x, y := f.offset(a, b)
	return math.Hypot(x, y)
}

// cumulative returns the distance from the first vertex to every vertex of ls.
func (f frame) cumulative(ls *geom.LineString) []float64 {
	n := ls.NumCoords()
	cum := make([]float64, n)
	for i := 1; i < n; i++ {
		cum[i] = cum[i-1] + f.distance(ls.Coord(i-1), ls.Coord(i))
	}
	return cum
}

// projection is the nearest point of a line to a query point.
type projection struct {
	fraction float64    // share of the line length before the nearest point
	point    geom.Coord // nearest point on the line
	distance float64    // metres from the query point to the nearest point
}

// project drops p perpendicularly onto ls. The first vertex run wins when two
// parts of the line are equally near.
func project(f frame, ls *geom.LineString, p geom.Coord) projection {
	n := ls.NumCoords()
	if n == 1 {
		c := ls.Coord(0)
		return projection{point: geom.Coord{c[0], c[1]}, distance: f.distance(p, c)}
	}

	var (
		total     float64
		bestAlong float64
		best      = math.Inf(1)
		bestPoint geom.Coord
	)
	for i := 0; i < n-1; i++ {
		a, b := ls.Coord(i), ls.Coord(i+1)
		bx, by := f.offset(b, a)
		px, py := f.offset(p, a)

		segLen2 := bx*bx + by*by
		t := 0.0
		if segLen2 > 0 {
			t = math.Max(0, math.Min(1, (px*bx+py*by)/segLen2))
		}
		d := math.Hypot(px-t*bx, py-t*by)
		segLen := math.Sqrt(segLen2)

		if d < best {
			best = d
			bestAlong = total + t*segLen
			bestPoint = geom.Coord{a[0] + t*(b[0]-a[0]), a[1] + t*(b[1]-a[1])}
		}
		total += segLen
	}

	fraction := 0.0
	if total > 0 {
		fraction = bestAlong / total
	}
	return projection{fraction: fraction, point: bestPoint, distance: best}
}

// Interpolate returns the point at the given fraction (0..1) of the line length.
func Interpolate(ls *geom.LineString, fraction float64) geom.Coord {
	f := frameFor(ls)
	cum := f.cumulative(ls)
	return interpolateAt(ls, cum, clamp01(fraction)*cum[len(cum)-1])
}

func interpolateAt(ls *geom.LineString, cum []float64, along float64) geom.Coord {
	n := len(cum)
	if along <= 0 || n == 1 {
		c := ls.Coord(0)
		return geom.Coord{c[0], c[1]}
	}
	for i := 1; i < n; i++ {
		if along <= cum[i] {
			a, b := ls.Coord(i-1), ls.Coord(i)
			seg := cum[i] - cum[i-1]
			if seg == 0 {
				return geom.Coord{b[0], b[1]}
			}
			t := (along - cum[i-1]) / seg
			return geom.Coord{a[0] + t*(b[0]-a[0]), a[1] + t*(b[1]-a[1])}
		}
	}
	c := ls.Coord(n - 1)
	return geom.Coord{c[0], c[1]}
}

// substring returns the part of ls between two fractions of its length.
func substring(ls *geom.LineString, from, to float64) *geom.LineString {
	from, to = clamp01(from), clamp01(to)
	if to < from {
		from, to = to, from
	}

	f := frameFor(ls)
	cum := f.cumulative(ls)
	total := cum[len(cum)-1]
	lo, hi := from*total, to*total

	start := interpolateAt(ls, cum, lo)
	flat := []float64{start[0], start[1]}
	for i := range cum {
		if cum[i] > lo && cum[i] < hi {
			c := ls.Coord(i)
			flat = append(flat, c[0], c[1])
		}
	}
	end := interpolateAt(ls, cum, hi)
	flat = append(flat, end[0], end[1])

	return geom.NewLineStringFlat(geom.XY, flat).SetSRID(ls.SRID())
}

// Haversine returns the great-circle distance between two lon/lat coordinates in metres.
func Haversine(a, b geom.Coord) float64 {
	if a[0] == b[0] && a[1] == b[1] {
		return 0
	}
	lat1 := a[1] * math.Pi / 180
	lat2 := b[1] * math.Pi / 180
	dlat := lat2 - lat1
	dlon := (b[0] - a[0]) * math.Pi / 180

	h := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dlon/2)*math.Sin(dlon/2)
	return earthRadiusM * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// ValidCoord reports whether c is a finite longitude/latitude pair.
func ValidCoord(c geom.Coord) bool {
	return len(c) >= 2 &&
		c[0] >= -180 && c[0] <= 180 &&
		c[1] >= -90 && c[1] <= 90
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
