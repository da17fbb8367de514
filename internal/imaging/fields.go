package imaging

import (
	"fmt"
	"image"
	"image/color"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/anthonynsimon/bild/blur"
	"github.com/disintegration/imaging"

	"github.com/ironsheep/image-stipple-mcp/internal/stipple"
)

// FieldOptions control how a source image becomes stippling input.
//
// The zero value uses the whole image at its native size with luma density
// and no tone adjustment.
type FieldOptions struct {
	// MaxSize bounds the longer side of the working image. Larger images are
	// downsized with Lanczos resampling, keeping the aspect ratio. Zero
	// disables resizing.
	MaxSize int

	// Mode selects the luminance model: ModeLuma (default) or ModeLab.
	Mode string

	// Gamma applies a gamma curve to the tone image before density is
	// computed. Values above 1 brighten midtones (fewer dots), values below 1
	// darken them. Zero or 1 leaves the image unchanged.
	Gamma float64

	// Contrast in [-1,1] adjusts contrast of the tone image. Zero leaves it
	// unchanged.
	Contrast float64

	// Blur is a Gaussian blur radius in pixels applied to the tone image.
	Blur float64

	// Invert makes bright areas dense instead of dark ones.
	Invert bool

	// Region restricts stippling to part of the source image, in source
	// pixel coordinates. Nil means the whole image.
	Region *Region
}

// Validate rejects option values that cannot be applied.
func (o FieldOptions) Validate() error {
	if o.MaxSize < 0 {
		return fmt.Errorf("max size must be >= 0, got %d", o.MaxSize)
	}
	switch o.Mode {
	case "", ModeLuma, ModeLab:
	default:
		return fmt.Errorf("unknown density mode %q (want %q or %q)", o.Mode, ModeLuma, ModeLab)
	}
	if o.Gamma < 0 {
		return fmt.Errorf("gamma must be >= 0, got %v", o.Gamma)
	}
	if o.Contrast < -1 || o.Contrast > 1 {
		return fmt.Errorf("contrast must be in [-1,1], got %v", o.Contrast)
	}
	if o.Blur < 0 {
		return fmt.Errorf("blur must be >= 0, got %v", o.Blur)
	}
	return nil
}

// Normalized returns o with defaulted values spelled out, so options that
// derive identical fields compare equal: an empty Mode becomes ModeLuma and
// a zero Gamma becomes 1.
func (o FieldOptions) Normalized() FieldOptions {
	if o.Mode == "" {
		o.Mode = ModeLuma
	}
	if o.Gamma == 0 {
		o.Gamma = 1
	}
	return o
}

// Fields is the stippling input derived from one image.
type Fields struct {
	Density *stipple.DensityField
	Colors  *stipple.ColorField

	// SourceWidth and SourceHeight are the dimensions of the decoded image
	// before cropping and resizing.
	SourceWidth  int
	SourceHeight int
}

// Width returns the working width shared by both fields.
func (f *Fields) Width() int { return f.Density.Width() }

// Height returns the working height shared by both fields.
func (f *Fields) Height() int { return f.Density.Height() }

// Prepare crops and resizes img according to opts and composites it onto
// white, so transparent areas receive no dots. The result is anchored at
// the origin.
func Prepare(img image.Image, opts FieldOptions) (*image.NRGBA, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	if bounds.Empty() {
		return nil, fmt.Errorf("image has no pixels")
	}

	working := img
	if opts.Region != nil {
		if err := opts.Region.Validate(bounds); err != nil {
			return nil, err
		}
		working = imaging.Crop(working, opts.Region.Rect())
	}

	wb := working.Bounds()
	if opts.MaxSize > 0 && (wb.Dx() > opts.MaxSize || wb.Dy() > opts.MaxSize) {
		working = imaging.Fit(working, opts.MaxSize, opts.MaxSize, imaging.Lanczos)
	}

	wb = working.Bounds()
	canvas := imaging.New(wb.Dx(), wb.Dy(), color.White)
	return imaging.Overlay(canvas, working, image.Pt(0, 0), 1.0), nil
}

// FieldsFromImage derives the density and color fields for img.
//
// Colors are taken from the prepared image before any tone adjustment, so
// dots keep the source colors even when gamma, contrast or blur reshape the
// density.
func FieldsFromImage(img image.Image, opts FieldOptions) (*Fields, error) {
	base, err := Prepare(img, opts)
	if err != nil {
		return nil, err
	}

	w, h := base.Bounds().Dx(), base.Bounds().Dy()
	lum := luminance(toneImage(base, opts), opts.Mode)

	weights := make([]float64, w*h)
	for i, l := range lum {
		if opts.Invert {
			weights[i] = l
		} else {
			weights[i] = 1 - l
		}
	}

	density, err := stipple.NewDensityField(w, h, weights)
	if err != nil {
		return nil, fmt.Errorf("failed to build density field: %w", err)
	}

	pixels := make([]stipple.RGB, w*h)
	for y := 0; y < h; y++ {
		row := base.Pix[y*base.Stride:]
		for x := 0; x < w; x++ {
			o := x * 4
			pixels[y*w+x] = stipple.RGB{R: row[o], G: row[o+1], B: row[o+2]}
		}
	}

	colors, err := stipple.NewColorField(w, h, pixels)
	if err != nil {
		return nil, fmt.Errorf("failed to build color field: %w", err)
	}

	src := img.Bounds()
	return &Fields{
		Density:      density,
		Colors:       colors,
		SourceWidth:  src.Dx(),
		SourceHeight: src.Dy(),
	}, nil
}

// LoadFields loads path through the cache and derives its fields.
func LoadFields(cache *ImageCache, path string, opts FieldOptions) (*Fields, error) {
	img, err := cache.Load(path)
	if err != nil {
		return nil, err
	}
	return FieldsFromImage(img, opts)
}

// DecodeFields decodes an encoded image held in memory and derives its
// fields. EXIF orientation is applied.
func DecodeFields(cache *ImageCache, data []byte, opts FieldOptions) (*Fields, error) {
	img, _, err := cache.LoadBytes(data)
	if err != nil {
		return nil, err
	}
	return FieldsFromImage(img, opts)
}

// toneImage applies the optional gamma, contrast and blur adjustments.
func toneImage(base *image.NRGBA, opts FieldOptions) image.Image {
	var tone image.Image = base
	if opts.Gamma > 0 && opts.Gamma != 1 {
		tone = adjust.Gamma(tone, opts.Gamma)
	}
	if opts.Contrast != 0 {
		tone = adjust.Contrast(tone, opts.Contrast)
	}
	if opts.Blur > 0 {
		tone = blur.Gaussian(tone, opts.Blur)
	}
	return tone
}

// luminance returns per-pixel brightness in [0,1], row-major.
func luminance(img image.Image, mode string) []float64 {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := make([]float64, w*h)

	if mode == ModeLab {
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				out[y*w+x] = lightness(img.At(b.Min.X+x, b.Min.Y+y))
			}
		}
		return out
	}

	gray := imaging.Grayscale(img)
	for y := 0; y < h; y++ {
		row := gray.Pix[y*gray.Stride:]
		for x := 0; x < w; x++ {
			out[y*w+x] = float64(row[x*4]) / 255.0
		}
	}
	return out
}
