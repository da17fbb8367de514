package server

import (
	"fmt"

	"github.com/ironsheep/image-stipple-mcp/internal/config"
)

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// regionNames lists the named regions accepted by the stipple tools.
var regionNames = []string{
	"full", "top-left", "top-right", "bottom-left", "bottom-right",
	"top-half", "bottom-half", "left-half", "right-half", "center",
}

// GetToolDefinitions returns all available tools. Argument descriptions
// quote the defaults in d.
func GetToolDefinitions(d config.StippleConfig) []Tool {
	return []Tool{
		// Basic Image Information
		{
			Name:        "image_load",
			Description: "Load an image file and return its dimensions, format and content digest. Later stipple calls on the same path reuse the decoded image.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_dimensions",
			Description: "Get the width and height of an image file.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
				},
				"required": []string{"path"},
			},
		},

		// Stippling
		{
			Name:        "image_stipple",
			Description: "Render an image as weighted Voronoi stipples: dots placed by Lloyd relaxation, sized by local darkness and colored from the source. Returns the SVG document, or writes it to output_path.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": stippleProperties(d, true),
				"required":   []string{"path"},
			},
		},
		{
			Name:        "image_stipple_points",
			Description: "Compute stipple dots for an image and return their positions, radii and hex colors as JSON instead of an SVG.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": stippleProperties(d, false),
				"required":   []string{"path"},
			},
		},
	}
}

// stippleProperties returns the argument schema shared by the stipple tools.
func stippleProperties(d config.StippleConfig, withOutput bool) map[string]interface{} {
	props := map[string]interface{}{
		"path": map[string]interface{}{
			"type":        "string",
			"description": "Absolute path to the image file",
		},
		"dots": map[string]interface{}{
			"type":        "integer",
			"description": fmt.Sprintf("Number of dots to place. Default %d", d.Points),
			"minimum":     0,
		},
		"iterations": map[string]interface{}{
			"type":        "integer",
			"description": fmt.Sprintf("Lloyd relaxation passes. More passes give more even spacing. Default %d", d.Iterations),
			"minimum":     0,
		},
		"seed": map[string]interface{}{
			"type":        "integer",
			"description": fmt.Sprintf("Random seed for initial placement. Same seed and inputs give identical output. Default %d", d.Seed),
			"minimum":     0,
		},
		"max_size": map[string]interface{}{
			"type":        "integer",
			"description": fmt.Sprintf("Downsize the image so its longer side is at most this many pixels. 0 keeps native size. Default %d", d.MaxSize),
			"minimum":     0,
		},
		"mode": map[string]interface{}{
			"type":        "string",
			"enum":        []string{"luma", "lab"},
			"description": fmt.Sprintf("Luminance model: luma (BT.601) or lab (CIE L*). Default %s", d.Mode),
		},
		"gamma": map[string]interface{}{
			"type":        "number",
			"description": fmt.Sprintf("Gamma applied before density is computed. Above 1 lightens midtones. Default %g", d.Gamma),
		},
		"contrast": map[string]interface{}{
			"type":        "number",
			"description": fmt.Sprintf("Contrast change in [-1,1]. Default %g", d.Contrast),
			"minimum":     -1,
			"maximum":     1,
		},
		"blur": map[string]interface{}{
			"type":        "number",
			"description": fmt.Sprintf("Gaussian blur radius in pixels applied to the density. Default %g", d.Blur),
			"minimum":     0,
		},
		"invert": map[string]interface{}{
			"type":        "boolean",
			"description": fmt.Sprintf("Place dots in bright areas instead of dark ones. Default %t", d.Invert),
		},
		"region": map[string]interface{}{
			"type":        "string",
			"enum":        regionNames,
			"description": "Stipple only a named part of the image. Default full",
		},
		"crop": map[string]interface{}{
			"type":        "object",
			"description": "Stipple only this rectangle, in source pixels. Overrides region",
			"properties": map[string]interface{}{
				"x1": map[string]interface{}{"type": "integer", "description": "Left edge (inclusive)"},
				"y1": map[string]interface{}{"type": "integer", "description": "Top edge (inclusive)"},
				"x2": map[string]interface{}{"type": "integer", "description": "Right edge (exclusive)"},
				"y2": map[string]interface{}{"type": "integer", "description": "Bottom edge (exclusive)"},
			},
			"required": []string{"x1", "y1", "x2", "y2"},
		},
		"min_radius": map[string]interface{}{
			"type":        "number",
			"description": fmt.Sprintf("Smallest drawn dot radius in pixels. Default %g", d.MinRadius),
			"minimum":     0,
		},
		"max_radius": map[string]interface{}{
			"type":        "number",
			"description": fmt.Sprintf("Largest drawn dot radius in pixels. Raised to min_radius if smaller. Default %g", d.MaxRadius),
			"minimum":     0,
		},
	}

	if withOutput {
		props["background"] = map[string]interface{}{
			"type":        "string",
			"description": fmt.Sprintf("Background fill as #rrggbb, or \"none\" for a transparent backdrop. Default %s", d.Background),
		}
		props["output_path"] = map[string]interface{}{
			"type":        "string",
			"description": "Write the SVG to this path instead of returning it inline",
		}
	}
	return props
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(s.defaults),
		},
	}
}
