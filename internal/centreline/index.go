package centreline

import (
	"math"

	"github.com/twpayne/go-geom"
)

// cell addresses one square of the grid, in multiples of the cell size in degrees.
type cell struct {
	i, j int32
}

// gridIndex is a flat lon/lat grid. Each entry is registered in every cell its
// bounding box overlaps, so a lookup only needs to visit nearby cells.
type gridIndex struct {
	size  float64
	cells map[cell][]int
	lo    cell
	hi    cell
	empty bool
}

func newGridIndex(lines []*geom.LineString, size float64) *gridIndex {
	g := &gridIndex{
		size:  size,
		cells: make(map[cell][]int),
		lo:    cell{math.MaxInt32, math.MaxInt32},
		hi:    cell{math.MinInt32, math.MinInt32},
		empty: len(lines) == 0,
	}

	for idx, ls := range lines {
		b := geom.NewBounds(geom.XY).Extend(ls)
		lo := g.cellOf(geom.Coord{b.Min(0), b.Min(1)})
		hi := g.cellOf(geom.Coord{b.Max(0), b.Max(1)})

		for i := lo.i; i <= hi.i; i++ {
			for j := lo.j; j <= hi.j; j++ {
				c := cell{i, j}
				g.cells[c] = append(g.cells[c], idx)
			}
		}

		g.lo = cell{min(g.lo.i, lo.i), min(g.lo.j, lo.j)}
		g.hi = cell{max(g.hi.i, hi.i), max(g.hi.j, hi.j)}
	}

	return g
}

func (g *gridIndex) cellOf(c geom.Coord) cell {
	return cell{int32(math.Floor(c[0] / g.size)), int32(math.Floor(c[1] / g.size))}
}

// maxRing is the ring around center beyond which no entry can be registered.
func (g *gridIndex) maxRing(center cell) int32 {
	if g.empty {
		return -1
	}
	return max(
		abs32(center.i-g.lo.i), abs32(center.i-g.hi.i),
		abs32(center.j-g.lo.j), abs32(center.j-g.hi.j),
	)
}

// ring calls visit for every entry registered in the cells at Chebyshev
// distance r from center. An entry spanning several cells may be visited more
// than once.
func (g *gridIndex) ring(center cell, r int32, visit func(int)) {
	visitCell := func(i, j int32) {
		for _, idx := range g.cells[cell{i, j}] {
			visit(idx)
		}
	}

	if r == 0 {
		visitCell(center.i, center.j)
		return
	}
	for i := center.i - r; i <= center.i+r; i++ {
		visitCell(i, center.j-r)
		visitCell(i, center.j+r)
	}
	for j := center.j - r + 1; j <= center.j+r-1; j++ {
		visitCell(center.i-r, j)
		visitCell(center.i+r, j)
	}
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
