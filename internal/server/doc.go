// Package server implements the MCP (Model Context Protocol) tool server for
// document scanning.
//
// This package provides a JSON-RPC 2.0 server that exposes document boundary
// detection and perspective correction through the MCP protocol.
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
//   - image_load: Load image and get metadata
//   - image_dimensions: Get width and height
//
// Document Scanning:
//   - docscan_detect: Find the document corners, optionally with an overlay
//   - docscan_rectify: Flatten the document from given or detected corners
//   - docscan_edges: Render the closed edge map and list contour candidates
//
// The detection tools accept low_threshold, high_threshold, min_area,
// max_cosine and approx_epsilon to override the configured defaults for a
// single call.
//
// # Image Caching
//
// Images are cached by path and reused across tool calls for the lifetime
// of the server process.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string
//
// A document that cannot be found is not an error: docscan_detect reports
// found=false and docscan_rectify falls back to the whole image when
// select_all_on_error is configured.
//
// # Usage
//
//	srv := server.New(scanner.DefaultOptions(), logger)
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
