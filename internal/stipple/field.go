package stipple

import (
	"fmt"
	"math"
)

// weightScale is the number of integer units a weight of 1.0 maps to.
const weightScale = 1<<16 - 1

// RGB is an 8-bit color sample.
type RGB struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// DensityField is an immutable width×height grid of weights in [0,1].
//
// Alongside the float weights the field keeps a fixed-point copy used by the
// cell assignment engine. Every strictly positive weight maps to at least one
// unit, so positivity survives quantization.
type DensityField struct {
	width    int
	height   int
	weights  []float64
	units    []uint32
	positive int
}

// NewDensityField validates weights (row-major, len == width*height) and
// returns a field that owns a copy of them.
func NewDensityField(width, height int, weights []float64) (*DensityField, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: zero-area density field %dx%d", ErrInvalidInput, width, height)
	}
	if len(weights) != width*height {
		return nil, fmt.Errorf("%w: density field %dx%d needs %d weights, got %d",
			ErrInvalidInput, width, height, width*height, len(weights))
	}

	f := &DensityField{
		width:   width,
		height:  height,
		weights: make([]float64, len(weights)),
		units:   make([]uint32, len(weights)),
	}
	for i, w := range weights {
		if math.IsNaN(w) || w < 0 || w > 1 {
			return nil, fmt.Errorf("%w: weight %v at (%d,%d) outside [0,1]",
				ErrInvalidInput, w, i%width, i/width)
		}
		u := uint32(math.Round(w * weightScale))
		if u == 0 && w > 0 {
			u = 1
		}
		f.weights[i] = w
		f.units[i] = u
		if u > 0 {
			f.positive++
		}
	}
	return f, nil
}

// Width returns the field width in pixels.
func (f *DensityField) Width() int { return f.width }

// Height returns the field height in pixels.
func (f *DensityField) Height() int { return f.height }

// Area returns width*height.
func (f *DensityField) Area() int { return f.width * f.height }

// At returns the weight of pixel (x, y). Coordinates must be in bounds.
func (f *DensityField) At(x, y int) float64 {
	return f.weights[y*f.width+x]
}

// Positive returns the number of pixels with a strictly positive weight.
func (f *DensityField) Positive() int { return f.positive }

// HasMass reports whether at least one weight is strictly positive.
func (f *DensityField) HasMass() bool { return f.positive > 0 }

// positiveIndices lists the row-major indices of positive-weight pixels in
// ascending order.
func (f *DensityField) positiveIndices() []int {
	idx := make([]int, 0, f.positive)
	for i, u := range f.units {
		if u > 0 {
			idx = append(idx, i)
		}
	}
	return idx
}

// ColorField is an immutable width×height grid of RGB samples.
type ColorField struct {
	width  int
	height int
	pixels []RGB
}

// NewColorField validates pixels (row-major, len == width*height) and
// returns a field that owns a copy of them.
func NewColorField(width, height int, pixels []RGB) (*ColorField, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: zero-area color field %dx%d", ErrInvalidInput, width, height)
	}
	if len(pixels) != width*height {
		return nil, fmt.Errorf("%w: color field %dx%d needs %d pixels, got %d",
			ErrInvalidInput, width, height, width*height, len(pixels))
	}
	return &ColorField{
		width:  width,
		height: height,
		pixels: append([]RGB(nil), pixels...),
	}, nil
}

// Width returns the field width in pixels.
func (c *ColorField) Width() int { return c.width }

// Height returns the field height in pixels.
func (c *ColorField) Height() int { return c.height }

// At returns the color of pixel (x, y). Coordinates must be in bounds.
func (c *ColorField) At(x, y int) RGB {
	return c.pixels[y*c.width+x]
}

// Sample returns the color at the pixel nearest to p, clamped to the field.
func (c *ColorField) Sample(p Point) RGB {
	x := clampInt(int(math.Round(p.X)), 0, c.width-1)
	y := clampInt(int(math.Round(p.Y)), 0, c.height-1)
	return c.At(x, y)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
