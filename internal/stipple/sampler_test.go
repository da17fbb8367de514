package stipple

import (
	"errors"
	"testing"
)

func TestSampler_Deterministic(t *testing.T) {
	a := NewSampler(42)
	b := NewSampler(42)

	for i := 0; i < 100; i++ {
		if x, y := a.Float64(), b.Float64(); x != y {
			t.Fatalf("draw %d: got %v and %v from equal seeds", i, x, y)
		}
		ax, ay := a.Pixel(17, 9)
		bx, by := b.Pixel(17, 9)
		if ax != bx || ay != by {
			t.Fatalf("pixel %d: got (%d,%d) and (%d,%d)", i, ax, ay, bx, by)
		}
	}
}

func TestSampler_SeedsDiffer(t *testing.T) {
	a := NewSampler(1)
	b := NewSampler(2)

	same := 0
	for i := 0; i < 32; i++ {
		if a.Float64() == b.Float64() {
			same++
		}
	}
	if same == 32 {
		t.Error("different seeds produced identical sequences")
	}
}

func TestSampler_Ranges(t *testing.T) {
	s := NewSampler(7)

	for i := 0; i < 1000; i++ {
		if v := s.Float64(); v < 0 || v >= 1 {
			t.Fatalf("Float64 out of [0,1): %v", v)
		}
		if v := s.Uniform(-2, 3); v < -2 || v > 3 {
			t.Fatalf("Uniform out of [-2,3]: %v", v)
		}
		if v := s.IntN(5); v < 0 || v >= 5 {
			t.Fatalf("IntN out of [0,5): %d", v)
		}
		x, y := s.Pixel(6, 4)
		if x < 0 || x >= 6 || y < 0 || y >= 4 {
			t.Fatalf("Pixel out of bounds: (%d,%d)", x, y)
		}
	}

	if v := s.Uniform(1.5, 1.5); v != 1.5 {
		t.Errorf("Uniform on degenerate interval: got %v, want 1.5", v)
	}
}

func TestSampler_WeightedPixelRejectsZeroWeight(t *testing.T) {
	f := newTestDensity(t, [][]float64{
		{0, 0, 0},
		{0, 1, 0},
	})
	s := NewSampler(3)

	for i := 0; i < 50; i++ {
		x, y, attempts, ok := s.WeightedPixel(f, 1000)
		if !ok {
			t.Fatalf("draw %d: no acceptance within 1000 attempts", i)
		}
		if attempts < 1 {
			t.Errorf("draw %d: attempts %d, want >= 1", i, attempts)
		}
		if x != 1 || y != 1 {
			t.Fatalf("draw %d: accepted zero-weight pixel (%d,%d)", i, x, y)
		}
	}
}

func TestSampler_WeightedPixelGivesUp(t *testing.T) {
	f := uniformDensity(t, 4, 4, 0)
	s := NewSampler(3)

	_, _, attempts, ok := s.WeightedPixel(f, 25)
	if ok {
		t.Fatal("accepted a pixel from an all-zero field")
	}
	if attempts != 25 {
		t.Errorf("attempts: got %d, want 25", attempts)
	}
}

func TestSampleInitial_CountAndSupport(t *testing.T) {
	f := newTestDensity(t, [][]float64{
		{0, 0.2, 0, 0, 0},
		{0, 0, 0.9, 0, 0},
		{0.5, 0, 0, 0, 1},
		{0, 0, 0, 0.1, 0},
	})

	points, err := SampleInitial(f, 4, NewSampler(11))
	if err != nil {
		t.Fatalf("SampleInitial failed: %v", err)
	}
	if len(points) != 4 {
		t.Fatalf("got %d points, want 4", len(points))
	}

	seen := make(map[Point]bool)
	for _, p := range points {
		if f.At(int(p.X), int(p.Y)) == 0 {
			t.Errorf("point %v lies on a zero-weight pixel", p)
		}
		if seen[p] {
			t.Errorf("duplicate point %v although enough positive pixels exist", p)
		}
		seen[p] = true
	}
}

func TestSampleInitial_FallbackOnFaintField(t *testing.T) {
	f := uniformDensity(t, 4, 4, 1e-12)

	points, err := SampleInitial(f, 16, NewSampler(5))
	if err != nil {
		t.Fatalf("SampleInitial failed: %v", err)
	}
	if len(points) != 16 {
		t.Fatalf("got %d points, want 16", len(points))
	}

	seen := make(map[Point]bool)
	for _, p := range points {
		if seen[p] {
			t.Errorf("fallback produced duplicate %v", p)
		}
		seen[p] = true
	}
}

func TestSampleInitial_AllowsDuplicatesBeyondCoverage(t *testing.T) {
	f := newTestDensity(t, [][]float64{{1, 0}, {0, 1}})

	points, err := SampleInitial(f, 6, NewSampler(9))
	if err != nil {
		t.Fatalf("SampleInitial failed: %v", err)
	}
	if len(points) != 6 {
		t.Fatalf("got %d points, want 6", len(points))
	}
	for _, p := range points {
		if f.At(int(p.X), int(p.Y)) == 0 {
			t.Errorf("point %v lies on a zero-weight pixel", p)
		}
	}
}

func TestSampleInitial_Errors(t *testing.T) {
	zero := uniformDensity(t, 3, 3, 0)

	if _, err := SampleInitial(zero, 1, NewSampler(1)); !errors.Is(err, ErrDegenerateDensity) {
		t.Errorf("zero field: got %v, want ErrDegenerateDensity", err)
	}
	if _, err := SampleInitial(zero, -1, NewSampler(1)); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("negative count: got %v, want ErrInvalidInput", err)
	}

	points, err := SampleInitial(zero, 0, NewSampler(1))
	if err != nil || len(points) != 0 {
		t.Errorf("zero count: got (%v, %v), want empty and nil", points, err)
	}
}

func TestSampleInitial_Deterministic(t *testing.T) {
	f := gradientDensity(t, 30, 20)

	a, err := SampleInitial(f, 50, NewSampler(99))
	if err != nil {
		t.Fatalf("SampleInitial failed: %v", err)
	}
	b, err := SampleInitial(f, 50, NewSampler(99))
	if err != nil {
		t.Fatalf("SampleInitial failed: %v", err)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("point %d differs: %v vs %v", i, a[i], b[i])
		}
	}
}
