// Package render draws stipple results as SVG.
//
// Each point becomes one filled circle in its sampled color. Radii from the
// engine are normalized by the largest radius in the result and mapped into
// the caller's [MinRadius, MaxRadius] range, so the darkest cell always gets
// MaxRadius and an empty cell gets MinRadius.
//
// The document keeps the working image's pixel size as its width and
// height. Coordinates are written at 1/100 pixel precision through a scaled
// viewBox, since the svg writer emits integers.
package render
