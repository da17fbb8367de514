package stipple

import "errors"

var (
	// ErrInvalidInput reports malformed requests: mismatched field sizes,
	// zero-area images, weights outside [0,1] or negative counts.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDegenerateDensity reports a density field without a single strictly
	// positive weight. Sampling is undefined on such a field.
	ErrDegenerateDensity = errors.New("degenerate density")

	// ErrInsufficientCoverage is not returned by Generate. It is reported by
	// Result.Shortfall when fewer points than requested could be placed.
	ErrInsufficientCoverage = errors.New("insufficient coverage")
)
