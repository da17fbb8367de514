package render

import (
	"bytes"
	"fmt"
	"io"
	"math"

	svg "github.com/ajstarks/svgo"
	"gonum.org/v1/gonum/floats"

	"github.com/ironsheep/image-stipple-mcp/internal/imaging"
	"github.com/ironsheep/image-stipple-mcp/internal/stipple"
)

// precision is the number of viewBox units per image pixel.
const precision = 100

// Options control how a result is drawn.
type Options struct {
	// MinRadius and MaxRadius bound the drawn dot radius in pixels. If
	// MinRadius exceeds MaxRadius, MaxRadius is raised to MinRadius.
	MinRadius float64
	MaxRadius float64

	// Background is a hex fill for the backdrop. Empty means white; "none"
	// omits the backdrop.
	Background string

	// Title is written as the document title when non-empty.
	Title string
}

// DefaultOptions returns the radius range used by the CLI and server when
// none is given.
func DefaultOptions() Options {
	return Options{
		MinRadius:  2.0,
		MaxRadius:  8.0,
		Background: "#ffffff",
	}
}

// Validate rejects negative radii and unparsable backgrounds.
func (o Options) Validate() error {
	if o.MinRadius < 0 || o.MaxRadius < 0 || math.IsNaN(o.MinRadius) || math.IsNaN(o.MaxRadius) {
		return fmt.Errorf("radii must be non-negative, got min %v max %v", o.MinRadius, o.MaxRadius)
	}
	if o.Background != "" && o.Background != "none" {
		if _, err := imaging.ParseHex(o.Background); err != nil {
			return err
		}
	}
	return nil
}

// bounds returns the effective radius range.
func (o Options) bounds() (lo, hi float64) {
	lo, hi = o.MinRadius, o.MaxRadius
	if lo > hi {
		hi = lo
	}
	return lo, hi
}

// ScaleRadii maps the engine radii of res into the drawing range of opts.
func ScaleRadii(res *stipple.Result, opts Options) []float64 {
	lo, hi := opts.bounds()
	out := make([]float64, len(res.Radii))
	if maxR := res.MaxRadius(); maxR > 0 {
		copy(out, res.Radii)
		floats.Scale((hi-lo)/maxR, out)
	}
	floats.AddConst(lo, out)
	return out
}

// SVG writes res as an SVG document to w.
func SVG(w io.Writer, res *stipple.Result, opts Options) error {
	if res == nil {
		return fmt.Errorf("no result to render")
	}
	if err := opts.Validate(); err != nil {
		return err
	}
	if res.Width <= 0 || res.Height <= 0 {
		return fmt.Errorf("invalid result dimensions %dx%d", res.Width, res.Height)
	}

	canvas := svg.New(w)
	canvas.Startview(res.Width, res.Height, 0, 0, res.Width*precision, res.Height*precision)
	if opts.Title != "" {
		canvas.Title(opts.Title)
	}

	if opts.Background != "none" {
		bg := stipple.RGB{R: 255, G: 255, B: 255}
		if opts.Background != "" {
			bg, _ = imaging.ParseHex(opts.Background)
		}
		canvas.Rect(0, 0, res.Width*precision, res.Height*precision, fill(bg))
	}

	radii := ScaleRadii(res, opts)
	canvas.Gid("stipples")
	for i, p := range res.Points {
		canvas.Circle(scaled(p.X), scaled(p.Y), scaled(radii[i]), fill(res.Colors[i]))
	}
	canvas.Gend()
	canvas.End()
	return nil
}

// SVGString renders res into a string.
func SVGString(res *stipple.Result, opts Options) (string, error) {
	var buf bytes.Buffer
	if err := SVG(&buf, res, opts); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func scaled(v float64) int {
	return int(math.Round(v * precision))
}

func fill(c stipple.RGB) string {
	return fmt.Sprintf("fill:rgb(%d,%d,%d)", c.R, c.G, c.B)
}
