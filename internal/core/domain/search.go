package domain

import "strings"

// Search defaults.
const (
	DefaultMaxResults   = 3
	DefaultMinRelevance = 0.1
)

// SearchOptions configures a search query.
type SearchOptions struct {
	// MaxResults is the maximum number of results.
	MaxResults int `json:"maxResults"`

	// MinRelevance drops results whose combined score is at or below it.
	MinRelevance float64 `json:"minRelevance"`

	// DocumentFilter keeps only results whose document name contains it,
	// compared case-insensitively. Empty disables the filter.
	DocumentFilter string `json:"documentFilter,omitempty"`

	// IncludeContext attaches adjacent chunks from the same document.
	IncludeContext bool `json:"includeContext"`
}

// DefaultSearchOptions returns the options used when the caller sets none.
func DefaultSearchOptions() SearchOptions {
	return SearchOptions{
		MaxResults:     DefaultMaxResults,
		MinRelevance:   DefaultMinRelevance,
		IncludeContext: true,
	}
}

// Normalise fills in values the ranker cannot work with.
func (o SearchOptions) Normalise() SearchOptions {
	if o.MaxResults <= 0 {
		o.MaxResults = DefaultMaxResults
	}
	o.DocumentFilter = strings.TrimSpace(o.DocumentFilter)
	return o
}

// SearchResult represents a single ranked chunk.
type SearchResult struct {
	// Chunk is the matched chunk, returned without its embedding.
	Chunk Chunk `json:"chunk"`

	// Score is the combined score: (lexical + semantic) x source boost.
	Score float64 `json:"score"`

	// LexicalScore is the term-frequency contribution.
	LexicalScore float64 `json:"lexicalScore"`

	// SemanticScore is the cosine similarity contribution.
	SemanticScore float64 `json:"semanticScore"`

	// Relevance is round(Score*100) clamped to [0, 100] for display.
	Relevance int `json:"relevance"`

	// MatchedTerms lists query terms that occur literally in the chunk.
	MatchedTerms []string `json:"matchedTerms"`

	// Context holds up to two neighbouring chunks from the same document.
	// They are informational and not separately scored.
	Context []Chunk `json:"context,omitempty"`
}
