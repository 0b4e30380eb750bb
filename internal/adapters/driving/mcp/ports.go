package mcp

import (
	"github.com/abhinay-x/studymate-sub000/internal/core/domain"
	"github.com/abhinay-x/studymate-sub000/internal/core/ports/driven"
	"github.com/abhinay-x/studymate-sub000/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Search provides search capabilities.
	Search driving.SearchService

	// Document ingests, lists and removes documents. Optional.
	Document driving.DocumentService

	// Index reports and clears the index. Optional.
	Index driving.IndexService

	// Reader loads files for ingestion by path. Optional; without it the
	// ingest tool only accepts text.
	Reader driven.DocumentReader

	// Defaults fill in search options the caller leaves out.
	// The zero value selects domain.DefaultSearchOptions.
	Defaults domain.SearchOptions
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Search == nil {
		return ErrMissingSearchService
	}
	return nil
}

func (p *Ports) searchDefaults() domain.SearchOptions {
	if p.Defaults.MaxResults <= 0 {
		return domain.DefaultSearchOptions()
	}
	return p.Defaults
}
