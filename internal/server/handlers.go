package server

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/ironsheep/image-stipple-mcp/internal/imaging"
	"github.com/ironsheep/image-stipple-mcp/internal/pipeline"
	"github.com/ironsheep/image-stipple-mcp/internal/render"
)

// paletteSize is the number of dominant dot colors reported per result.
const paletteSize = 5

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_load", "image_stipple").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, codeInvalidParams, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.logger.Warn("tool failed", "tool", params.Name, "err", err)
		return s.errorResponse(req.ID, codeToolFailed, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
//
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Fills unset optional parameters from the server configuration
//  3. Runs the stipple pipeline or reads image metadata
//  4. Returns the result or error
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Basic Image Information
	case "image_load":
		return s.handleImageLoad(args)
	case "image_dimensions":
		return s.handleImageDimensions(args)

	// Stippling
	case "image_stipple":
		return s.handleImageStipple(ctx, args)
	case "image_stipple_points":
		return s.handleImageStipplePoints(ctx, args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// === Basic Image Information Handlers ===

type imageLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

func (s *Server) handleImageDimensions(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.GetDimensions(s.cache, a.Path)
}

// === Stipple Handlers ===

// stippleArgs holds the arguments shared by the stipple tools. Pointer fields
// are optional and fall back to the server's configured defaults.
type stippleArgs struct {
	Path       string          `json:"path"`
	Dots       *int            `json:"dots"`
	Iterations *int            `json:"iterations"`
	Seed       *uint64         `json:"seed"`
	MaxSize    *int            `json:"max_size"`
	Mode       *string         `json:"mode"`
	Gamma      *float64        `json:"gamma"`
	Contrast   *float64        `json:"contrast"`
	Blur       *float64        `json:"blur"`
	Invert     *bool           `json:"invert"`
	Region     string          `json:"region"`
	Crop       *imaging.Region `json:"crop"`
	MinRadius  *float64        `json:"min_radius"`
	MaxRadius  *float64        `json:"max_radius"`
	Background *string         `json:"background"`
	OutputPath string          `json:"output_path"`
}

// request builds a pipeline request from the arguments and server defaults.
func (s *Server) request(a stippleArgs) (pipeline.Request, error) {
	if a.Path == "" {
		return pipeline.Request{}, fmt.Errorf("path is required")
	}

	d := s.defaults
	if a.Dots != nil {
		d.Points = *a.Dots
	}
	if a.Iterations != nil {
		d.Iterations = *a.Iterations
	}
	if a.Seed != nil {
		d.Seed = *a.Seed
	}
	if a.MaxSize != nil {
		d.MaxSize = *a.MaxSize
	}
	if a.Mode != nil {
		d.Mode = *a.Mode
	}
	if a.Gamma != nil {
		d.Gamma = *a.Gamma
	}
	if a.Contrast != nil {
		d.Contrast = *a.Contrast
	}
	if a.Blur != nil {
		d.Blur = *a.Blur
	}
	if a.Invert != nil {
		d.Invert = *a.Invert
	}

	fields := d.FieldOptions()
	switch {
	case a.Crop != nil:
		r := *a.Crop
		fields.Region = &r
	case a.Region != "" && a.Region != "full":
		img, err := s.cache.Load(a.Path)
		if err != nil {
			return pipeline.Request{}, err
		}
		r, err := imaging.NamedRegion(img.Bounds(), a.Region)
		if err != nil {
			return pipeline.Request{}, err
		}
		fields.Region = &r
	}

	p := d.Params()
	return pipeline.Request{
		Path:       a.Path,
		Points:     p.Points,
		Seed:       p.Seed,
		Iterations: p.Iterations,
		Workers:    p.Workers,
		Fields:     fields,
	}, nil
}

// renderOptions overlays drawing arguments on the configured defaults.
func (s *Server) renderOptions(a stippleArgs) (render.Options, error) {
	opts := s.defaults.RenderOptions()
	if a.MinRadius != nil {
		opts.MinRadius = *a.MinRadius
	}
	if a.MaxRadius != nil {
		opts.MaxRadius = *a.MaxRadius
	}
	if a.Background != nil {
		opts.Background = *a.Background
	}
	return opts, opts.Validate()
}

// stippleSummary describes a stipple run.
type stippleSummary struct {
	Width        int                      `json:"width"`
	Height       int                      `json:"height"`
	SourceWidth  int                      `json:"source_width"`
	SourceHeight int                      `json:"source_height"`
	Requested    int                      `json:"requested"`
	Placed       int                      `json:"placed"`
	Iterations   int                      `json:"iterations"`
	Seed         uint64                   `json:"seed"`
	Digest       string                   `json:"digest"`
	Cached       bool                     `json:"cached"`
	ElapsedMS    int64                    `json:"elapsed_ms"`
	Palette      []imaging.ColorFrequency `json:"palette"`
	Warning      string                   `json:"warning,omitempty"`
}

func summarize(req pipeline.Request, out *pipeline.Output) stippleSummary {
	res := out.Result
	sum := stippleSummary{
		Width:        res.Width,
		Height:       res.Height,
		SourceWidth:  out.SourceWidth,
		SourceHeight: out.SourceHeight,
		Requested:    res.Requested,
		Placed:       res.Len(),
		Iterations:   req.Iterations,
		Seed:         req.Seed,
		Digest:       out.Digest,
		Cached:       out.Cached,
		ElapsedMS:    out.Elapsed.Milliseconds(),
		Palette:      imaging.Palette(res.Colors, paletteSize),
	}
	if err := res.Shortfall(); err != nil {
		sum.Warning = err.Error()
	}
	return sum
}

// ImageStippleResult is returned by the image_stipple tool. Exactly one of
// SVG and OutputPath is set.
type ImageStippleResult struct {
	stippleSummary
	OutputPath string `json:"output_path,omitempty"`
	SVG        string `json:"svg,omitempty"`
}

func (s *Server) handleImageStipple(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a stippleArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	opts, err := s.renderOptions(a)
	if err != nil {
		return nil, err
	}
	req, err := s.request(a)
	if err != nil {
		return nil, err
	}

	out, err := s.runner.Run(ctx, req)
	if err != nil {
		return nil, err
	}

	result := &ImageStippleResult{stippleSummary: summarize(req, out)}
	if a.OutputPath != "" {
		if err := writeSVG(a.OutputPath, out, opts); err != nil {
			return nil, err
		}
		result.OutputPath = a.OutputPath
		return result, nil
	}

	result.SVG, err = render.SVGString(out.Result, opts)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func writeSVG(path string, out *pipeline.Output, opts render.Options) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := render.SVG(f, out.Result, opts); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}

// Dot is one stipple in the image_stipple_points result.
type Dot struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Radius     float64 `json:"radius"`
	DrawRadius float64 `json:"draw_radius"`
	Color      string  `json:"color"`
}

// ImageStipplePointsResult is returned by the image_stipple_points tool.
// Radius is the cell's mass radius; DrawRadius is scaled into the
// min_radius..max_radius range used for SVG output.
type ImageStipplePointsResult struct {
	stippleSummary
	Dots []Dot `json:"dots"`
}

func (s *Server) handleImageStipplePoints(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a stippleArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	opts, err := s.renderOptions(a)
	if err != nil {
		return nil, err
	}
	req, err := s.request(a)
	if err != nil {
		return nil, err
	}

	out, err := s.runner.Run(ctx, req)
	if err != nil {
		return nil, err
	}

	res := out.Result
	drawn := render.ScaleRadii(res, opts)
	dots := make([]Dot, res.Len())
	for i, p := range res.Points {
		dots[i] = Dot{
			X:          p.X,
			Y:          p.Y,
			Radius:     res.Radii[i],
			DrawRadius: drawn[i],
			Color:      imaging.HexColor(res.Colors[i]),
		}
	}

	return &ImageStipplePointsResult{
		stippleSummary: summarize(req, out),
		Dots:           dots,
	}, nil
}
