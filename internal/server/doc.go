// Package server implements the MCP (Model Context Protocol) server for image
// channel statistics.
//
// This package provides a JSON-RPC 2.0 server that exposes the analyzer
// through the MCP protocol, so MCP clients can measure the per-channel mean
// and standard deviation of images, including HEIF grid images.
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
//   - image_channel_stats: Statistics of one image, as JSON and as a CSV row
//   - image_analyze_batch: Statistics of every image in a directory
//   - image_grid_info: Grid descriptor, tile items and crops of a HEIF file
//   - image_tile_crop_plan: Crop plan for a grid given by its parameters
//
// # Image Caching
//
// image_channel_stats keeps decoded images in memory keyed by path and raw
// size, so repeated calls on the same file skip the decode. Batch analysis
// bypasses the cache.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// Within image_analyze_batch a failed image does not fail the call; it is
// listed under "failed" with the analysis step that failed.
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	srv := server.New(cfg)
//	if err := srv.Run(ctx, os.Stdin, os.Stdout); err != nil {
//	    log.Fatal(err)
//	}
package server
