package driven

import (
	"context"

	"github.com/abhinay-x/studymate-sub000/internal/core/domain"
)

// Normaliser extracts plain text from one file format.
type Normaliser interface {
	// Extensions returns the lower-case file extensions handled, with the dot.
	Extensions() []string

	// Normalise returns the readable text of raw. It never fails on empty content.
	Normalise(ctx context.Context, raw *domain.RawDocument) (string, error)
}
