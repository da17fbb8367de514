// Package pipeline runs one stipple request end to end: load the image,
// consult the result store, derive fields, relax, and store the result.
//
// It is shared by the CLI render command and the MCP server tools.
package pipeline

import (
	"context"
	"fmt"
	"image"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/ironsheep/image-stipple-mcp/internal/imaging"
	"github.com/ironsheep/image-stipple-mcp/internal/stipple"
	"github.com/ironsheep/image-stipple-mcp/internal/store"
)

// Request describes one stipple job. Exactly one of Path and Data is used;
// Data wins when both are set.
type Request struct {
	Path string
	Data []byte

	Points     int
	Seed       uint64
	Iterations int
	Workers    int

	Fields imaging.FieldOptions
}

// Output is the outcome of a request.
type Output struct {
	Result *stipple.Result

	// Digest is the hex SHA-256 of the encoded source image.
	Digest string

	// Cached reports whether Result came from the store.
	Cached bool

	// SourceWidth and SourceHeight are the decoded image dimensions before
	// cropping and resizing.
	SourceWidth  int
	SourceHeight int

	Elapsed time.Duration
}

// cacheKey lists everything that shapes a result. Workers is absent because
// output does not depend on it.
type cacheKey struct {
	Points     int                  `json:"points"`
	Seed       uint64               `json:"seed"`
	Iterations int                  `json:"iterations"`
	Fields     imaging.FieldOptions `json:"fields"`
}

// Runner executes requests. It is safe for concurrent use.
type Runner struct {
	images *imaging.ImageCache
	store  *store.Store
	logger *log.Logger
}

// NewRunner returns a runner backed by images. st may be nil to disable
// result caching; a nil logger discards output.
func NewRunner(images *imaging.ImageCache, st *store.Store, logger *log.Logger) *Runner {
	if images == nil {
		images = imaging.NewImageCache()
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Runner{images: images, store: st, logger: logger}
}

// Images returns the decoded-image cache used by the runner.
func (r *Runner) Images() *imaging.ImageCache { return r.images }

// Run executes req.
func (r *Runner) Run(ctx context.Context, req Request) (*Output, error) {
	start := time.Now()

	src, digest, err := r.source(req)
	if err != nil {
		return nil, err
	}
	if err := req.Fields.Validate(); err != nil {
		return nil, err
	}

	out := &Output{
		Digest:       digest,
		SourceWidth:  src.Bounds().Dx(),
		SourceHeight: src.Bounds().Dy(),
	}

	key := store.Key(digest, cacheKey{
		Points:     req.Points,
		Seed:       req.Seed,
		Iterations: req.Iterations,
		Fields:     req.Fields.Normalized(),
	})

	if r.store != nil {
		res, ok, err := r.store.Get(ctx, key)
		if err != nil {
			r.logger.Warn("result store read failed", "err", err)
		} else if ok {
			out.Result = res
			out.Cached = true
			out.Elapsed = time.Since(start)
			return out, nil
		}
	}

	fields, err := r.fields(req)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare image: %w", err)
	}
	r.logger.Debug("fields ready",
		"width", fields.Width(), "height", fields.Height(),
		"positive", fields.Density.Positive())

	res, err := stipple.Generate(ctx, fields.Density, fields.Colors, stipple.Params{
		Points:     req.Points,
		Seed:       req.Seed,
		Iterations: req.Iterations,
		Workers:    req.Workers,
		Logger:     r.logger,
	})
	if err != nil {
		return nil, err
	}
	out.Result = res

	if r.store != nil {
		if err := r.store.Put(ctx, key, res); err != nil {
			r.logger.Warn("result store write failed", "err", err)
		}
	}

	out.Elapsed = time.Since(start)
	r.logger.Info("stippled image",
		"points", res.Len(), "requested", res.Requested,
		"elapsed", out.Elapsed.Round(time.Millisecond))
	return out, nil
}

// fields derives the stippling input from the same source as source. The
// decoded image is served from the cache, so nothing is decoded twice.
func (r *Runner) fields(req Request) (*imaging.Fields, error) {
	if len(req.Data) > 0 {
		return imaging.DecodeFields(r.images, req.Data, req.Fields)
	}
	return imaging.LoadFields(r.images, req.Path, req.Fields)
}

func (r *Runner) source(req Request) (image.Image, string, error) {
	if len(req.Data) > 0 {
		return r.images.LoadBytes(req.Data)
	}
	if req.Path == "" {
		return nil, "", fmt.Errorf("an image path or image data is required")
	}
	img, err := r.images.Load(req.Path)
	if err != nil {
		return nil, "", err
	}
	digest, err := r.images.Digest(req.Path)
	if err != nil {
		return nil, "", err
	}
	return img, digest, nil
}
