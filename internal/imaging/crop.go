package imaging

import (
	"fmt"
	"image"
)

// Region represents a rectangular region within an image.
// (X1,Y1) is inclusive, (X2,Y2) is exclusive.
type Region struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// Rect converts the region to an image.Rectangle.
func (r Region) Rect() image.Rectangle {
	return image.Rect(r.X1, r.Y1, r.X2, r.Y2)
}

// Validate checks that the region is non-empty and lies within bounds.
func (r Region) Validate(bounds image.Rectangle) error {
	if r.X1 < bounds.Min.X || r.Y1 < bounds.Min.Y || r.X2 > bounds.Max.X || r.Y2 > bounds.Max.Y {
		return fmt.Errorf("region (%d,%d)-(%d,%d) outside image bounds (%d,%d)-(%d,%d)",
			r.X1, r.Y1, r.X2, r.Y2, bounds.Min.X, bounds.Min.Y, bounds.Max.X, bounds.Max.Y)
	}
	if r.X1 >= r.X2 || r.Y1 >= r.Y2 {
		return fmt.Errorf("invalid region: x1 must be < x2, y1 must be < y2")
	}
	return nil
}

// NamedRegion resolves a region name such as "top-left" or "center" against
// the given bounds. "full" and "" select the whole image.
func NamedRegion(bounds image.Rectangle, name string) (Region, error) {
	w := bounds.Dx()
	h := bounds.Dy()
	midX := w / 2
	midY := h / 2

	var x1, y1, x2, y2 int

	switch name {
	case "", "full":
		x1, y1, x2, y2 = 0, 0, w, h
	case "top-left":
		x1, y1, x2, y2 = 0, 0, midX, midY
	case "top-right":
		x1, y1, x2, y2 = midX, 0, w, midY
	case "bottom-left":
		x1, y1, x2, y2 = 0, midY, midX, h
	case "bottom-right":
		x1, y1, x2, y2 = midX, midY, w, h
	case "top-half":
		x1, y1, x2, y2 = 0, 0, w, midY
	case "bottom-half":
		x1, y1, x2, y2 = 0, midY, w, h
	case "left-half":
		x1, y1, x2, y2 = 0, 0, midX, h
	case "right-half":
		x1, y1, x2, y2 = midX, 0, w, h
	case "center":
		// Center 50% of the image
		qW := w / 4
		qH := h / 4
		x1, y1, x2, y2 = qW, qH, w-qW, h-qH
	default:
		return Region{}, fmt.Errorf("unknown region: %s", name)
	}

	r := Region{
		X1: bounds.Min.X + x1,
		Y1: bounds.Min.Y + y1,
		X2: bounds.Min.X + x2,
		Y2: bounds.Min.Y + y2,
	}
	if err := r.Validate(bounds); err != nil {
		return Region{}, err
	}
	return r, nil
}
