package driving

import (
	"context"

	"github.com/abhinay-x/studymate-sub000/internal/core/domain"
)

// SearchService provides search capabilities to external actors.
type SearchService interface {
	// Search embeds the query and returns hybrid-ranked chunks.
	// Blank queries fail with domain.ErrEmptyQuery without reaching the embedder.
	Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error)
}
