// Package server implements the MCP (Model Context Protocol) server for
// image stippling.
//
// This package provides a JSON-RPC 2.0 server that exposes the stipple engine
// through the MCP protocol, so MCP-compatible clients can turn images into
// weighted Voronoi stipple drawings.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Basic Image Information:
//   - image_load: Load image and get metadata, including its content digest
//   - image_dimensions: Get width and height
//
// Stippling:
//   - image_stipple: Stipple an image and return or write an SVG
//   - image_stipple_points: Stipple an image and return the dots as JSON
//
// Optional stipple arguments fall back to the values in the server's
// configuration file and IMAGE_STIPPLE_* environment variables.
//
// # Caching
//
// Decoded images are cached in memory by path for the lifetime of the
// process. When a result store is configured, finished stipple results are
// also persisted in SQLite keyed by image digest and parameters, and repeated
// requests are answered from it.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string
//
// A request for more dots than the image has weighted pixels succeeds with
// fewer dots and a "warning" field in the result.
//
// # Usage
//
// The server is normally started by the serve command:
//
//	srv := server.New(server.Options{Config: cfg, Store: st, Logger: logger})
//	if err := srv.Run(ctx); err != nil {
//	    return err
//	}
package server
