package stipple

import "math"

// radiusForMass maps a cell's weight mass to a dot radius.
//
// The radius is that of a disk whose area equals the mass, so the total ink
// area tracks the total darkness of the image. Zero mass yields zero.
func radiusForMass(m float64) float64 {
	if m <= 0 {
		return 0
	}
	return math.Sqrt(m / math.Pi)
}

// extractAttributes derives radius and color for each point from the final
// cell statistics.
func extractAttributes(points []Point, stats []cellStats, colors *ColorField) ([]float64, []RGB) {
	radii := make([]float64, len(points))
	rgb := make([]RGB, len(points))
	for i, p := range points {
		radii[i] = radiusForMass(stats[i].weight())
		rgb[i] = colors.Sample(p)
	}
	return radii, rgb
}
