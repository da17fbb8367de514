package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ironsheep/image-stipple-mcp/internal/config"
	"github.com/ironsheep/image-stipple-mcp/internal/imaging"
	"github.com/ironsheep/image-stipple-mcp/internal/pipeline"
	"github.com/ironsheep/image-stipple-mcp/internal/render"
	"github.com/ironsheep/image-stipple-mcp/internal/stipple"
)

const (
	formatSVG  = "svg"  // SVG drawing
	formatJSON = "json" // raw points, radii and colors
)

// renderOpts holds the command-line flags for the render command. Only flags
// the user sets override the loaded configuration.
type renderOpts struct {
	output string // output file, "-" for stdout; defaults to <image>.<format>
	format string // "svg" or "json"
	region string // named region, see imaging.NamedRegion
	crop   string // "x1,y1,x2,y2"; overrides region
	title  string // SVG <title>

	stipple config.StippleConfig
}

// newRenderCmd creates the render command for stippling one image.
func newRenderCmd() *cobra.Command {
	opts := renderOpts{
		format:  formatSVG,
		stipple: config.Default().Stipple,
	}

	cmd := &cobra.Command{
		Use:   "render [image|-]",
		Short: "Stipple an image to SVG or JSON",
		Long: `Stipple an image to SVG or JSON.

Pass - to read the encoded image from stdin. Output then defaults to stdout.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFormat(opts.format); err != nil {
				return err
			}
			merged := mergeStipple(configFromContext(cmd.Context()).Stipple, opts.stipple, cmd.Flags().Changed)
			return runRender(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), args[0], &opts, merged)
		},
	}

	s := &opts.stipple
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file, or - for stdout (default <image>.svg or <image>.json)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: svg, json")
	cmd.Flags().StringVar(&opts.region, "region", "", "named region: top-left, top-right, bottom-left, bottom-right, top-half, bottom-half, left-half, right-half, center")
	cmd.Flags().StringVar(&opts.crop, "crop", "", "crop rectangle x1,y1,x2,y2 in source pixels (overrides --region)")
	cmd.Flags().StringVar(&opts.title, "title", "", "SVG title")
	cmd.Flags().IntVarP(&s.Points, "points", "n", s.Points, "number of dots")
	cmd.Flags().IntVarP(&s.Iterations, "iterations", "i", s.Iterations, "Lloyd relaxation passes")
	cmd.Flags().Uint64Var(&s.Seed, "seed", s.Seed, "random seed for initial placement")
	cmd.Flags().IntVar(&s.Workers, "workers", s.Workers, "parallel workers (0 = GOMAXPROCS)")
	cmd.Flags().IntVar(&s.MaxSize, "max-size", s.MaxSize, "downsize so the longer side fits (0 = native size)")
	cmd.Flags().StringVar(&s.Mode, "mode", s.Mode, "luminance model: luma, lab")
	cmd.Flags().Float64Var(&s.Gamma, "gamma", s.Gamma, "gamma applied before density (0 or 1 = none)")
	cmd.Flags().Float64Var(&s.Contrast, "contrast", s.Contrast, "contrast change in [-1,1]")
	cmd.Flags().Float64Var(&s.Blur, "blur", s.Blur, "Gaussian blur radius applied to density")
	cmd.Flags().BoolVar(&s.Invert, "invert", s.Invert, "place dots in bright areas")
	cmd.Flags().Float64Var(&s.MinRadius, "min-radius", s.MinRadius, "smallest drawn radius")
	cmd.Flags().Float64Var(&s.MaxRadius, "max-radius", s.MaxRadius, "largest drawn radius")
	cmd.Flags().StringVar(&s.Background, "background", s.Background, "background color #rrggbb, or none")

	return cmd
}

// validateFormat checks that the requested output format is supported.
func validateFormat(f string) error {
	switch f {
	case formatSVG, formatJSON:
		return nil
	default:
		return fmt.Errorf("invalid format: %s (must be 'svg' or 'json')", f)
	}
}

// mergeStipple overlays the flags that were set on the configured defaults.
func mergeStipple(base, set config.StippleConfig, changed func(name string) bool) config.StippleConfig {
	if changed("points") {
		base.Points = set.Points
	}
	if changed("iterations") {
		base.Iterations = set.Iterations
	}
	if changed("seed") {
		base.Seed = set.Seed
	}
	if changed("workers") {
		base.Workers = set.Workers
	}
	if changed("max-size") {
		base.MaxSize = set.MaxSize
	}
	if changed("mode") {
		base.Mode = set.Mode
	}
	if changed("gamma") {
		base.Gamma = set.Gamma
	}
	if changed("contrast") {
		base.Contrast = set.Contrast
	}
	if changed("blur") {
		base.Blur = set.Blur
	}
	if changed("invert") {
		base.Invert = set.Invert
	}
	if changed("min-radius") {
		base.MinRadius = set.MinRadius
	}
	if changed("max-radius") {
		base.MaxRadius = set.MaxRadius
	}
	if changed("background") {
		base.Background = set.Background
	}
	return base
}

// parseCrop parses "x1,y1,x2,y2".
func parseCrop(s string) (*imaging.Region, error) {
	var r imaging.Region
	if _, err := fmt.Sscanf(strings.ReplaceAll(s, " ", ""), "%d,%d,%d,%d", &r.X1, &r.Y1, &r.X2, &r.Y2); err != nil {
		return nil, fmt.Errorf("invalid crop %q (want x1,y1,x2,y2): %w", s, err)
	}
	return &r, nil
}

// outputPath returns the file to write, deriving it from the input name when
// no output was given. Stdin input writes to stdout by default.
func outputPath(input, output, format string) string {
	if output != "" {
		return output
	}
	if input == "-" {
		return "-"
	}
	return strings.TrimSuffix(input, filepath.Ext(input)) + "." + format
}

func runRender(ctx context.Context, stdin io.Reader, stdout io.Writer, input string, opts *renderOpts, s config.StippleConfig) error {
	logger := loggerFromContext(ctx)
	cfg := config.Config{Stipple: s, Server: configFromContext(ctx).Server}
	if err := cfg.Validate(); err != nil {
		return err
	}

	drawOpts := s.RenderOptions()
	drawOpts.Title = opts.title

	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	if st != nil {
		defer st.Close()
	}
	runner := pipeline.NewRunner(imaging.NewImageCache(), st, logger)

	req := pipeline.Request{
		Points:     s.Points,
		Seed:       s.Seed,
		Iterations: s.Iterations,
		Workers:    s.Workers,
	}
	if input == "-" {
		if req.Data, err = io.ReadAll(stdin); err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		if len(req.Data) == 0 {
			return fmt.Errorf("no image data on stdin")
		}
	} else {
		req.Path = input
	}

	fields := s.FieldOptions()
	switch {
	case opts.crop != "":
		if fields.Region, err = parseCrop(opts.crop); err != nil {
			return err
		}
	case opts.region != "" && opts.region != "full":
		img, err := sourceImage(runner.Images(), req)
		if err != nil {
			return err
		}
		r, err := imaging.NamedRegion(img.Bounds(), opts.region)
		if err != nil {
			return err
		}
		fields.Region = &r
	}

	prog := newProgress(logger)
	req.Fields = fields
	out, err := runner.Run(ctx, req)
	if err != nil {
		return err
	}
	res := out.Result
	if err := res.Shortfall(); err != nil {
		logger.Warn(err.Error())
	}

	dest := outputPath(input, opts.output, opts.format)
	if err := writeOutput(dest, stdout, func(w io.Writer) error {
		if opts.format == formatJSON {
			return writeJSON(w, res)
		}
		return render.SVG(w, res, drawOpts)
	}); err != nil {
		return err
	}

	msg := fmt.Sprintf("Stippled %d dots", res.Len())
	if out.Cached {
		msg += " from cache"
	}
	if dest != "-" {
		msg += " to " + dest
	}
	prog.done(msg)
	return nil
}

// sourceImage decodes the image a request refers to.
func sourceImage(cache *imaging.ImageCache, req pipeline.Request) (image.Image, error) {
	if len(req.Data) > 0 {
		img, _, err := cache.LoadBytes(req.Data)
		return img, err
	}
	return cache.Load(req.Path)
}

func writeJSON(w io.Writer, res *stipple.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

// writeOutput runs write against dest, or stdout when dest is "-".
func writeOutput(dest string, stdout io.Writer, write func(io.Writer) error) error {
	if dest == "-" {
		return write(stdout)
	}
	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
