package stipple

import (
	"context"
	"errors"
	"io"

	"github.com/charmbracelet/log"
)

// Phase is the state of a Relaxer.
type Phase int

const (
	// PhaseInitializing holds the initial sample; no pass has run yet.
	PhaseInitializing Phase = iota
	// PhaseRelaxing is entered by the first Lloyd pass.
	PhaseRelaxing
	// PhaseDone is terminal; points are final.
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseInitializing:
		return "initializing"
	case PhaseRelaxing:
		return "relaxing"
	case PhaseDone:
		return "done"
	default:
		return "unknown"
	}
}

var errRelaxerDone = errors.New("relaxer already finished")

// Relaxer runs Lloyd's algorithm over a density field.
//
// Each step assigns the raster to the nearest points and moves every point
// with a non-empty cell to that cell's weighted centroid. Points whose cell
// has zero mass stay where they are.
type Relaxer struct {
	assign *assigner
	points []Point
	phase  Phase
	costs  []float64
	logger *log.Logger
}

// NewRelaxer copies initial and prepares a relaxer over f. workers bounds the
// number of goroutines used per pass; values below 1 mean one. A nil logger
// discards pass diagnostics.
func NewRelaxer(f *DensityField, initial []Point, workers int, logger *log.Logger) *Relaxer {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Relaxer{
		assign: newAssigner(f, workers),
		points: append([]Point(nil), initial...),
		phase:  PhaseInitializing,
		logger: logger,
	}
}

// Phase returns the current state.
func (r *Relaxer) Phase() Phase { return r.phase }

// Points returns a copy of the current positions.
func (r *Relaxer) Points() []Point {
	return append([]Point(nil), r.points...)
}

// Costs returns the weighted within-cell cost Σ w·d² measured at the start of
// each completed step, in step order.
func (r *Relaxer) Costs() []float64 {
	return append([]float64(nil), r.costs...)
}

// Step runs one Lloyd pass.
func (r *Relaxer) Step() error {
	if r.phase == PhaseDone {
		return errRelaxerDone
	}
	r.phase = PhaseRelaxing
	if len(r.points) == 0 {
		r.costs = append(r.costs, 0)
		return nil
	}

	stats, cost := r.assign.pass(r.points)
	r.costs = append(r.costs, cost)

	moved := 0
	for i, s := range stats {
		if s.mass == 0 {
			continue
		}
		m := float64(s.mass)
		next := Point{X: float64(s.sumX) / m, Y: float64(s.sumY) / m}
		if next != r.points[i] {
			moved++
		}
		r.points[i] = next
	}
	r.logger.Debug("relaxation pass", "pass", len(r.costs), "cost", cost, "moved", moved)
	return nil
}

// Run performs exactly iterations steps, checking ctx between passes.
func (r *Relaxer) Run(ctx context.Context, iterations int) error {
	for i := 0; i < iterations; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.Step(); err != nil {
			return err
		}
	}
	return nil
}

// Finish assigns cells for the final positions, moves the relaxer to
// PhaseDone and returns the final cell statistics.
func (r *Relaxer) Finish() ([]cellStats, error) {
	if r.phase == PhaseDone {
		return nil, errRelaxerDone
	}
	r.phase = PhaseDone
	if len(r.points) == 0 {
		return nil, nil
	}
	stats, _ := r.assign.pass(r.points)
	return stats, nil
}
