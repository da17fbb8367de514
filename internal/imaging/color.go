package imaging

import (
	"fmt"
	"image/color"
	"math"
	"sort"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/image-stipple-mcp/internal/stipple"
)

// Density modes accepted by FieldOptions.Mode.
const (
	// ModeLuma uses ITU-R BT.601 luma, the same weighting as a plain 8-bit
	// grayscale conversion.
	ModeLuma = "luma"

	// ModeLab uses CIE L* lightness, which tracks perceived brightness more
	// closely in saturated regions.
	ModeLab = "lab"
)

// HexColor formats a dot color as "#rrggbb".
func HexColor(c stipple.RGB) string {
	return toColorful(c).Hex()
}

// ParseHex parses "#rgb" or "#rrggbb" into a dot color.
func ParseHex(s string) (stipple.RGB, error) {
	c, err := colorful.Hex(s)
	if err != nil {
		return stipple.RGB{}, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	r, g, b := c.RGB255()
	return stipple.RGB{R: r, G: g, B: b}, nil
}

func toColorful(c stipple.RGB) colorful.Color {
	return colorful.Color{
		R: float64(c.R) / 255.0,
		G: float64(c.G) / 255.0,
		B: float64(c.B) / 255.0,
	}
}

// lightness returns the CIE L* of c scaled to [0,1], snapped to 8-bit steps
// so that pure white maps to exactly 1.
func lightness(c color.Color) float64 {
	cf, ok := colorful.MakeColor(c)
	if !ok {
		return 1
	}
	l, _, _ := cf.Lab()
	l = math.Round(l*255) / 255
	return math.Max(0, math.Min(1, l))
}

// ColorFrequency is one entry of a dot palette.
type ColorFrequency struct {
	Hex        string      `json:"hex"`
	Percentage float64     `json:"percentage"`
	RGB        stipple.RGB `json:"rgb"`
}

// Palette summarizes dot colors into at most count buckets, most frequent
// first. Components are quantized to multiples of 16 so that near-identical
// colors share a bucket; ties are ordered by hex value.
func Palette(colors []stipple.RGB, count int) []ColorFrequency {
	if len(colors) == 0 || count <= 0 {
		return []ColorFrequency{}
	}

	counts := make(map[stipple.RGB]int)
	for _, c := range colors {
		q := stipple.RGB{R: c.R / 16 * 16, G: c.G / 16 * 16, B: c.B / 16 * 16}
		counts[q]++
	}

	out := make([]ColorFrequency, 0, len(counts))
	for c, n := range counts {
		out = append(out, ColorFrequency{
			Hex:        HexColor(c),
			Percentage: float64(n) / float64(len(colors)) * 100,
			RGB:        c,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Percentage != out[j].Percentage {
			return out[i].Percentage > out[j].Percentage
		}
		return out[i].Hex < out[j].Hex
	})

	if len(out) > count {
		out = out[:count]
	}
	return out
}
