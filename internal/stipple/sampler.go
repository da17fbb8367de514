package stipple

import (
	"fmt"
	"math/rand/v2"
)

const (
	// pcgStream is mixed into the seed to derive the second PCG word.
	pcgStream = 0x9e3779b97f4a7c15

	// rejectionFactor bounds rejection attempts to this many draws per pixel
	// of raster area before SampleInitial falls back to uniform sampling over
	// positive pixels.
	rejectionFactor = 8

	// perPointAttempts adds a per-point allowance so small rasters with many
	// requested points are not forced into the fallback immediately.
	perPointAttempts = 32
)

// Point is a 2D position in pixel coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Sampler is a deterministic pseudo-random source owned by one stippling
// request. Two samplers built from the same seed produce identical sequences
// for identical call sequences.
type Sampler struct {
	rng *rand.Rand
}

// NewSampler returns a Sampler seeded with seed.
func NewSampler(seed uint64) *Sampler {
	return &Sampler{rng: rand.New(rand.NewPCG(seed, seed^pcgStream))}
}

// Float64 returns a value in [0, 1).
func (s *Sampler) Float64() float64 {
	return s.rng.Float64()
}

// Uniform returns a value in the closed interval [lo, hi].
func (s *Sampler) Uniform(lo, hi float64) float64 {
	const steps = 1 << 53
	return lo + (hi-lo)*(float64(s.rng.Uint64N(steps+1))/steps)
}

// IntN returns a value in [0, n). It panics if n <= 0.
func (s *Sampler) IntN(n int) int {
	return s.rng.IntN(n)
}

// Pixel returns a uniformly distributed raster coordinate.
func (s *Sampler) Pixel(width, height int) (x, y int) {
	i := s.rng.IntN(width * height)
	return i % width, i / width
}

// WeightedPixel draws pixels uniformly and accepts one with probability equal
// to its weight. It gives up after maxAttempts draws and reports how many
// draws were used. Sampling is with replacement.
func (s *Sampler) WeightedPixel(f *DensityField, maxAttempts int) (x, y, attempts int, ok bool) {
	for attempts < maxAttempts {
		attempts++
		x, y = s.Pixel(f.width, f.height)
		if f.At(x, y) > s.Float64() {
			return x, y, attempts, true
		}
	}
	return 0, 0, attempts, false
}

// SampleInitial draws n starting positions biased by the density field.
//
// Positions are drawn by rejection sampling. Once rejectionFactor*area +
// perPointAttempts*n draws have been spent, the remaining positions are
// drawn uniformly from the positive-weight pixels. While n does not exceed
// the number of positive pixels every position is distinct; beyond that,
// duplicates are allowed and relaxation separates them where the density
// varies.
func SampleInitial(f *DensityField, n int, s *Sampler) ([]Point, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: negative point count %d", ErrInvalidInput, n)
	}
	points := make([]Point, 0, n)
	if n == 0 {
		return points, nil
	}
	if !f.HasMass() {
		return nil, fmt.Errorf("%w: no pixel has a positive weight", ErrDegenerateDensity)
	}

	distinct := n <= f.positive
	var taken []bool
	if distinct {
		taken = make([]bool, f.Area())
	}

	remaining := rejectionFactor*f.Area() + perPointAttempts*n
	for len(points) < n && remaining > 0 {
		x, y, used, ok := s.WeightedPixel(f, remaining)
		remaining -= used
		if !ok {
			break
		}
		if distinct {
			i := y*f.width + x
			if taken[i] {
				continue
			}
			taken[i] = true
		}
		points = append(points, Point{X: float64(x), Y: float64(y)})
	}
	if len(points) == n {
		return points, nil
	}

	pool := f.positiveIndices()
	if distinct {
		free := pool[:0]
		for _, i := range pool {
			if !taken[i] {
				free = append(free, i)
			}
		}
		pool = free
	}
	for len(points) < n {
		k := s.IntN(len(pool))
		i := pool[k]
		if distinct {
			pool[k] = pool[len(pool)-1]
			pool = pool[:len(pool)-1]
		}
		points = append(points, Point{X: float64(i % f.width), Y: float64(i / f.width)})
	}
	return points, nil
}
