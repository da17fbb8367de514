package stipple

import (
	"math"

	"golang.org/x/sync/errgroup"
)

const (
	// bandRows is the height of the row bands the raster is split into.
	// Band boundaries do not depend on the worker count.
	bandRows = 32

	// pointsPerBucket is the average bucket occupancy the grid aims for.
	pointsPerBucket = 2
)

// cellStats accumulates one Voronoi cell's sums for a single pass, in
// integer weight units.
type cellStats struct {
	mass int64
	sumX int64
	sumY int64
}

// weight returns the cell mass in [0,1] weight units.
func (c cellStats) weight() float64 {
	return float64(c.mass) / weightScale
}

// assigner partitions the raster into Voronoi cells of the current points.
//
// Points are bucketed into a uniform grid of square buckets with an integer
// side. The nearest point of a pixel is found by scanning rings of buckets
// around the pixel's bucket. After ring r, every unvisited point is more than
// r*side away along x or y, so the search stops as soon as the best squared
// distance is below (r*side)². The result is identical to a brute-force scan
// with ties resolved to the lowest point index.
type assigner struct {
	field   *DensityField
	workers int

	points []Point
	side   int
	cols   int
	rows   int
	heads  []int32
	order  []int32

	bands    [][]cellStats
	bandCost []float64
}

func newAssigner(f *DensityField, workers int) *assigner {
	if workers < 1 {
		workers = 1
	}
	nb := (f.height + bandRows - 1) / bandRows
	return &assigner{
		field:    f,
		workers:  workers,
		bands:    make([][]cellStats, nb),
		bandCost: make([]float64, nb),
	}
}

// index rebuilds the bucket grid for points.
func (a *assigner) index(points []Point) {
	a.points = points
	area := float64(a.field.Area())
	side := int(math.Ceil(math.Sqrt(area * pointsPerBucket / float64(len(points)))))
	if side < 1 {
		side = 1
	}
	a.side = side
	a.cols = (a.field.width + side - 1) / side
	a.rows = (a.field.height + side - 1) / side

	nbuckets := a.cols * a.rows
	if cap(a.heads) < nbuckets+1 {
		a.heads = make([]int32, nbuckets+1)
	}
	a.heads = a.heads[:nbuckets+1]
	clear(a.heads)
	if cap(a.order) < len(points) {
		a.order = make([]int32, len(points))
	}
	a.order = a.order[:len(points)]

	// Counting sort into CSR layout; within a bucket points keep index order.
	for _, p := range points {
		a.heads[a.bucketOf(p)+1]++
	}
	for b := 1; b <= nbuckets; b++ {
		a.heads[b] += a.heads[b-1]
	}
	fill := make([]int32, nbuckets)
	for i, p := range points {
		b := a.bucketOf(p)
		a.order[a.heads[b]+fill[b]] = int32(i)
		fill[b]++
	}
}

func (a *assigner) bucketOf(p Point) int {
	bx := clampInt(int(math.Floor(p.X))/a.side, 0, a.cols-1)
	by := clampInt(int(math.Floor(p.Y))/a.side, 0, a.rows-1)
	return by*a.cols + bx
}

// nearest returns the index of the point closest to pixel (px, py) and the
// squared distance to it.
func (a *assigner) nearest(px, py int) (int, float64) {
	cx, cy := px/a.side, py/a.side
	maxRing := max(cx, a.cols-1-cx, cy, a.rows-1-cy)

	best, bestD := -1, math.Inf(1)
	for r := 0; r <= maxRing; r++ {
		y0, y1 := cy-r, cy+r
		for gy := max(y0, 0); gy <= min(y1, a.rows-1); gy++ {
			if gy == y0 || gy == y1 {
				for gx := max(cx-r, 0); gx <= min(cx+r, a.cols-1); gx++ {
					best, bestD = a.scanBucket(gy*a.cols+gx, px, py, best, bestD)
				}
				continue
			}
			if gx := cx - r; gx >= 0 {
				best, bestD = a.scanBucket(gy*a.cols+gx, px, py, best, bestD)
			}
			if gx := cx + r; gx < a.cols {
				best, bestD = a.scanBucket(gy*a.cols+gx, px, py, best, bestD)
			}
		}
		if best >= 0 {
			lim := float64(r * a.side)
			if bestD < lim*lim {
				break
			}
		}
	}
	return best, bestD
}

func (a *assigner) scanBucket(b, px, py, best int, bestD float64) (int, float64) {
	fx, fy := float64(px), float64(py)
	for _, pi := range a.order[a.heads[b]:a.heads[b+1]] {
		p := a.points[pi]
		dx, dy := fx-p.X, fy-p.Y
		d := dx*dx + dy*dy
		if d < bestD || (d == bestD && int(pi) < best) {
			best, bestD = int(pi), d
		}
	}
	return best, bestD
}

// pass assigns every positive-weight pixel to its nearest point and returns
// the per-point sums together with the pass cost Σ w·d², where d is the
// distance from each pixel to the point it was assigned to.
func (a *assigner) pass(points []Point) ([]cellStats, float64) {
	a.index(points)
	for b := range a.bands {
		if cap(a.bands[b]) < len(points) {
			a.bands[b] = make([]cellStats, len(points))
		}
		a.bands[b] = a.bands[b][:len(points)]
	}

	if a.workers == 1 {
		for b := range a.bands {
			a.scanBand(b)
		}
	} else {
		var g errgroup.Group
		g.SetLimit(a.workers)
		for b := range a.bands {
			g.Go(func() error {
				a.scanBand(b)
				return nil
			})
		}
		_ = g.Wait()
	}

	total := make([]cellStats, len(points))
	var cost float64
	for b, stats := range a.bands {
		for i, s := range stats {
			total[i].mass += s.mass
			total[i].sumX += s.sumX
			total[i].sumY += s.sumY
		}
		cost += a.bandCost[b]
	}
	return total, cost / weightScale
}

func (a *assigner) scanBand(b int) {
	stats := a.bands[b]
	clear(stats)

	f := a.field
	y0 := b * bandRows
	y1 := min(y0+bandRows, f.height)
	var cost float64
	for y := y0; y < y1; y++ {
		row := y * f.width
		for x := 0; x < f.width; x++ {
			u := f.units[row+x]
			if u == 0 {
				continue
			}
			i, d := a.nearest(x, y)
			w := int64(u)
			s := &stats[i]
			s.mass += w
			s.sumX += w * int64(x)
			s.sumY += w * int64(y)
			cost += float64(u) * d
		}
	}
	a.bandCost[b] = cost
}
