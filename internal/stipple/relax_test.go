package stipple

import (
	"context"
	"errors"
	"testing"
)

func TestPhase_String(t *testing.T) {
	tests := []struct {
		phase Phase
		want  string
	}{
		{PhaseInitializing, "initializing"},
		{PhaseRelaxing, "relaxing"},
		{PhaseDone, "done"},
		{Phase(42), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.phase.String(); got != tt.want {
			t.Errorf("Phase(%d).String(): got %q, want %q", int(tt.phase), got, tt.want)
		}
	}
}

func TestRelaxer_PhaseTransitions(t *testing.T) {
	f := uniformDensity(t, 8, 8, 1)
	r := NewRelaxer(f, []Point{{X: 1, Y: 1}, {X: 6, Y: 6}}, 1, nil)

	if r.Phase() != PhaseInitializing {
		t.Fatalf("initial phase: got %v, want initializing", r.Phase())
	}
	if err := r.Step(); err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	if r.Phase() != PhaseRelaxing {
		t.Fatalf("after Step: got %v, want relaxing", r.Phase())
	}
	if _, err := r.Finish(); err != nil {
		t.Fatalf("Finish failed: %v", err)
	}
	if r.Phase() != PhaseDone {
		t.Fatalf("after Finish: got %v, want done", r.Phase())
	}
	if err := r.Step(); !errors.Is(err, errRelaxerDone) {
		t.Errorf("Step after Finish: got %v, want errRelaxerDone", err)
	}
	if _, err := r.Finish(); !errors.Is(err, errRelaxerDone) {
		t.Errorf("second Finish: got %v, want errRelaxerDone", err)
	}
}

func TestRelaxer_ZeroIterationsKeepsInitialPoints(t *testing.T) {
	f := gradientDensity(t, 20, 20)
	initial := []Point{{X: 3, Y: 4}, {X: 15, Y: 2}, {X: 9, Y: 18}}
	r := NewRelaxer(f, initial, 1, nil)

	if err := r.Run(context.Background(), 0); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	got := r.Points()
	for i := range initial {
		if got[i] != initial[i] {
			t.Errorf("point %d: got %v, want %v", i, got[i], initial[i])
		}
	}
	if len(r.Costs()) != 0 {
		t.Errorf("costs: got %d entries, want 0", len(r.Costs()))
	}
}

func TestRelaxer_DoesNotAliasInitial(t *testing.T) {
	f := uniformDensity(t, 10, 10, 1)
	initial := []Point{{X: 0, Y: 0}}
	r := NewRelaxer(f, initial, 1, nil)

	if err := r.Step(); err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	if initial[0] != (Point{X: 0, Y: 0}) {
		t.Errorf("caller slice mutated: %v", initial[0])
	}
}

func TestRelaxer_SinglePointMovesToCentroid(t *testing.T) {
	f := uniformDensity(t, 5, 3, 1)
	r := NewRelaxer(f, []Point{{X: 0, Y: 0}}, 1, nil)

	if err := r.Step(); err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	got := r.Points()[0]
	if got.X != 2 || got.Y != 1 {
		t.Errorf("centroid: got %v, want (2,1)", got)
	}
}

func TestRelaxer_EmptyCellStaysPut(t *testing.T) {
	// The second point is a duplicate: its cell is empty because ties go to
	// the lower index, so it must not move or become NaN.
	f := uniformDensity(t, 6, 6, 1)
	r := NewRelaxer(f, []Point{{X: 2, Y: 2}, {X: 2, Y: 2}}, 1, nil)

	if err := r.Step(); err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	got := r.Points()
	if got[1] != (Point{X: 2, Y: 2}) {
		t.Errorf("empty-cell point moved to %v", got[1])
	}
	if got[0] == (Point{X: 2, Y: 2}) {
		t.Errorf("owning point did not move to the centroid")
	}
}

func TestRelaxer_ZeroDensityCellStaysPut(t *testing.T) {
	f := newTestDensity(t, [][]float64{
		{1, 1, 0, 0, 0, 0},
		{1, 1, 0, 0, 0, 0},
	})
	r := NewRelaxer(f, []Point{{X: 0, Y: 0}, {X: 5, Y: 1}}, 1, nil)

	if err := r.Step(); err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	got := r.Points()
	if got[1] != (Point{X: 5, Y: 1}) {
		t.Errorf("point over zero density moved to %v", got[1])
	}
	if got[0] != (Point{X: 0.5, Y: 0.5}) {
		t.Errorf("point 0: got %v, want (0.5,0.5)", got[0])
	}
}

func TestRelaxer_CostNonIncreasing(t *testing.T) {
	tests := []struct {
		name string
		f    func(t *testing.T) *DensityField
		n    int
	}{
		{"gradient", func(t *testing.T) *DensityField { return gradientDensity(t, 40, 30) }, 25},
		{"uniform", func(t *testing.T) *DensityField { return uniformDensity(t, 24, 24, 0.7) }, 9},
		{"single point", func(t *testing.T) *DensityField { return gradientDensity(t, 15, 15) }, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := tt.f(t)
			initial, err := SampleInitial(f, tt.n, NewSampler(17))
			if err != nil {
				t.Fatalf("SampleInitial failed: %v", err)
			}
			r := NewRelaxer(f, initial, 2, nil)
			if err := r.Run(context.Background(), 15); err != nil {
				t.Fatalf("Run failed: %v", err)
			}

			costs := r.Costs()
			if len(costs) != 15 {
				t.Fatalf("got %d costs, want 15", len(costs))
			}
			for i := 1; i < len(costs); i++ {
				if costs[i] > costs[i-1]*(1+1e-9)+1e-9 {
					t.Errorf("cost rose at pass %d: %v -> %v", i, costs[i-1], costs[i])
				}
			}
		})
	}
}

func TestRelaxer_RunHonoursContext(t *testing.T) {
	f := uniformDensity(t, 10, 10, 1)
	r := NewRelaxer(f, []Point{{X: 1, Y: 1}}, 1, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := r.Run(ctx, 5); !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
	if len(r.Costs()) != 0 {
		t.Errorf("ran %d passes on a cancelled context", len(r.Costs()))
	}
}

func TestRadiusForMass_Monotone(t *testing.T) {
	if radiusForMass(0) != 0 {
		t.Errorf("radiusForMass(0): got %v, want 0", radiusForMass(0))
	}
	prev := radiusForMass(0)
	for _, m := range []float64{1e-6, 0.01, 0.5, 1, 2, 10, 1000} {
		r := radiusForMass(m)
		if r <= prev {
			t.Errorf("radiusForMass(%v) = %v, not above %v", m, r, prev)
		}
		prev = r
	}
}
