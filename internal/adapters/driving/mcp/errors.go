// Package mcp provides an MCP (Model Context Protocol) server adapter for bookqa.
// It exposes the retrieval tool surface to external AI assistants, letting them
// run the same search and lookup tools the in-process executor uses.
package mcp

import "errors"

// ErrMissingToolSurface is returned when the tool surface is not provided.
var ErrMissingToolSurface = errors.New("mcp: tool surface is required")
