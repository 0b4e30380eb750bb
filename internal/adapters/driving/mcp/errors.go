// Package mcp provides an MCP (Model Context Protocol) server adapter for StudyMate.
// It lets AI assistants search, ingest and manage study material through the
// retrieval engine.
package mcp

import "errors"

// ErrMissingSearchService is returned when the search service is not provided.
var ErrMissingSearchService = errors.New("mcp: search service is required")
