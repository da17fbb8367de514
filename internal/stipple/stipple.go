package stipple

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/charmbracelet/log"
	"gonum.org/v1/gonum/floats"
)

// Params controls one Generate call.
type Params struct {
	// Points is the number of stipple points requested.
	Points int

	// Seed selects the pseudo-random sequence used for initial placement.
	Seed uint64

	// Iterations is the number of Lloyd passes. Zero keeps the initial sample.
	Iterations int

	// Workers bounds the goroutines used by cell assignment. Zero means
	// runtime.GOMAXPROCS(0). The output does not depend on this value.
	Workers int

	// Logger receives debug diagnostics. Nil discards them.
	Logger *log.Logger
}

// Result is the output of Generate. Index i of Points, Radii and Colors
// describes one dot.
type Result struct {
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	Requested int       `json:"requested"`
	Points    []Point   `json:"points"`
	Radii     []float64 `json:"radii"`
	Colors    []RGB     `json:"colors"`

	// Costs holds the weighted within-cell cost observed by each relaxation
	// pass. It is non-increasing.
	Costs []float64 `json:"costs,omitempty"`
}

// Len returns the number of dots.
func (r *Result) Len() int { return len(r.Points) }

// MaxRadius returns the largest radius, or zero for an empty result.
func (r *Result) MaxRadius() float64 {
	if len(r.Radii) == 0 {
		return 0
	}
	return floats.Max(r.Radii)
}

// Shortfall returns an error wrapping ErrInsufficientCoverage when fewer
// points were placed than requested, nil otherwise.
func (r *Result) Shortfall() error {
	if len(r.Points) >= r.Requested {
		return nil
	}
	return fmt.Errorf("%w: placed %d of %d requested points; only %d pixels carry weight",
		ErrInsufficientCoverage, len(r.Points), r.Requested, len(r.Points))
}

// Generate stipples density and returns positions, radii and colors.
//
// density and colors must have identical dimensions. When p.Points exceeds
// the number of positive-weight pixels, one point per such pixel is placed and
// Result.Shortfall reports the difference. A request for zero points returns
// an empty result without inspecting the density.
func Generate(ctx context.Context, density *DensityField, colors *ColorField, p Params) (*Result, error) {
	if density == nil || colors == nil {
		return nil, fmt.Errorf("%w: density and color fields are required", ErrInvalidInput)
	}
	if density.Width() != colors.Width() || density.Height() != colors.Height() {
		return nil, fmt.Errorf("%w: density field is %dx%d but color field is %dx%d", ErrInvalidInput,
			density.Width(), density.Height(), colors.Width(), colors.Height())
	}
	if p.Points < 0 {
		return nil, fmt.Errorf("%w: negative point count %d", ErrInvalidInput, p.Points)
	}
	if p.Iterations < 0 {
		return nil, fmt.Errorf("%w: negative iteration count %d", ErrInvalidInput, p.Iterations)
	}

	res := &Result{
		Width:     density.Width(),
		Height:    density.Height(),
		Requested: p.Points,
		Points:    []Point{},
		Radii:     []float64{},
		Colors:    []RGB{},
	}
	if p.Points == 0 {
		return res, nil
	}
	if !density.HasMass() {
		return nil, fmt.Errorf("%w: no pixel has a positive weight", ErrDegenerateDensity)
	}

	logger := p.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	workers := p.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	n := min(p.Points, density.Positive())
	if n < p.Points {
		logger.Warn("not enough positive pixels", "requested", p.Points, "placed", n)
	}

	start := time.Now()
	initial, err := SampleInitial(density, n, NewSampler(p.Seed))
	if err != nil {
		return nil, err
	}

	relaxer := NewRelaxer(density, initial, workers, logger)
	if err := relaxer.Run(ctx, p.Iterations); err != nil {
		return nil, fmt.Errorf("relaxation interrupted: %w", err)
	}
	stats, err := relaxer.Finish()
	if err != nil {
		return nil, err
	}

	res.Points = relaxer.Points()
	res.Radii, res.Colors = extractAttributes(res.Points, stats, colors)
	res.Costs = relaxer.Costs()

	logger.Debug("stippling complete",
		"points", len(res.Points),
		"iterations", p.Iterations,
		"size", fmt.Sprintf("%dx%d", res.Width, res.Height),
		"elapsed", time.Since(start).Round(time.Millisecond))
	return res, nil
}
