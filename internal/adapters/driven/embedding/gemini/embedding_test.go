package gemini

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEmbeddingService_RequiresKey(t *testing.T) {
	_, err := NewEmbeddingService(context.Background(), Config{})
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestNewEmbeddingService_Defaults(t *testing.T) {
	svc, err := NewEmbeddingService(context.Background(), Config{APIKey: "test-key"})
	require.NoError(t, err)

	assert.Equal(t, DefaultModel, svc.ModelName())
	assert.Equal(t, DefaultDimensions, svc.Dimensions())
	assert.NoError(t, svc.Close())
}

func TestNewEmbeddingService_Overrides(t *testing.T) {
	svc, err := NewEmbeddingService(context.Background(), Config{
		APIKey:     "test-key",
		BaseURL:    "http://127.0.0.1:1",
		Model:      "gemini-embedding-001",
		Dimensions: 256,
	})
	require.NoError(t, err)

	assert.Equal(t, "gemini-embedding-001", svc.ModelName())
	assert.Equal(t, 256, svc.Dimensions())
}

func TestEmbedBatch_Empty(t *testing.T) {
	svc, err := NewEmbeddingService(context.Background(), Config{APIKey: "test-key"})
	require.NoError(t, err)

	vecs, err := svc.EmbedBatch(context.Background(), nil)
	assert.NoError(t, err)
	assert.Nil(t, vecs)
}

func TestEmbed_Unreachable(t *testing.T) {
	svc, err := NewEmbeddingService(context.Background(), Config{
		APIKey:  "test-key",
		BaseURL: "http://127.0.0.1:1",
	})
	require.NoError(t, err)

	_, err = svc.Embed(context.Background(), "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "embedding generation failed")
}
