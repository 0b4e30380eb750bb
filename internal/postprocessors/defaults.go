package postprocessors

import (
	"github.com/abhinay-x/studymate-sub000/internal/core/domain"
	"github.com/abhinay-x/studymate-sub000/internal/postprocessors/chunker"
)

// NewDefaultPipeline builds the ingestion pipeline from chunk settings.
// Invalid settings fail here, before any document is touched.
func NewDefaultPipeline(settings domain.ChunkSettings) (*Pipeline, error) {
	c, err := chunker.New(chunker.WithSettings(settings))
	if err != nil {
		return nil, err
	}
	return NewPipeline(c), nil
}
