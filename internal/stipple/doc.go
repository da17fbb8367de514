// Package stipple implements weighted Voronoi stippling.
//
// Given a density field (per-pixel weights in [0,1], darker = heavier) and a
// color field of the same size, Generate places N points whose spatial
// distribution follows the density, refines them with Lloyd relaxation and
// annotates each point with a radius and a color.
//
// # Pipeline
//
//  1. SampleInitial draws N positions by rejection sampling against the
//     density, using an owned, seeded Sampler.
//  2. A Relaxer repeatedly assigns every pixel to its nearest point and moves
//     each point to the weighted centroid of its cell.
//  3. A final assignment of the relaxed points yields each cell's weight
//     mass, from which the radius is derived; colors are sampled from the
//     color field at the rounded point position.
//
// # Coordinates
//
// Pixel (x, y) is represented by the point (x, y): pixel centers lie on
// integer coordinates, (0,0) is the top-left pixel. Every returned point lies
// inside [0, width) × [0, height) because centroids are convex combinations
// of pixel coordinates.
//
// # Determinism
//
// For fixed inputs, seed and iteration count the output is bit-identical
// across runs and across worker counts. Cell sums are accumulated in integer
// weight units, so splitting the raster across goroutines cannot change the
// centroids.
//
// Weights are held in units of 1/65535. A positive weight below one unit is
// raised to one unit so the pixel stays eligible, which overstates the mass
// and radius of cells made only of such faint pixels.
//
// # Errors
//
// Failures wrap one of ErrInvalidInput or ErrDegenerateDensity and can be
// tested with errors.Is. Requesting more points than there are positive
// pixels is not a failure: the result carries fewer points and
// Result.Shortfall reports ErrInsufficientCoverage.
package stipple
