package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhinay-x/studymate-sub000/internal/core/domain"
)

func TestExtractDocumentID(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		expected string
	}{
		{
			name:     "valid document URI",
			uri:      "studymate://documents/doc-456",
			expected: "doc-456",
		},
		{
			name:     "invalid prefix",
			uri:      "file://documents/doc-456",
			expected: "",
		},
		{
			name:     "document list URI",
			uri:      "studymate://documents",
			expected: "",
		},
		{
			name:     "empty URI",
			uri:      "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := extractDocumentID(tt.uri)
			assert.Equal(t, tt.expected, result)
		})
	}
}

// Helper to create a ReadResourceRequest with the given URI.
func makeReadResourceRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

func sampleStatuses() []domain.DocumentStatus {
	return []domain.DocumentStatus{
		{DocumentID: "doc-1", DocumentName: "Biology.pdf", State: domain.DocumentIndexed, ChunkCount: 3, EmbeddedCount: 3},
		{DocumentID: "doc-2", DocumentName: "Chemistry.pdf", State: domain.DocumentFailed, Error: "cancelled"},
	}
}

func TestServer_handleDocumentsResource(t *testing.T) {
	ctx := context.Background()

	t.Run("nil document service returns empty list", func(t *testing.T) {
		server := newTestServer(t, &Ports{})

		result, err := server.handleDocumentsResource(ctx, makeReadResourceRequest("studymate://documents"))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "[]", result.Contents[0].Text)
	})

	t.Run("returns documents", func(t *testing.T) {
		server := newTestServer(t, &Ports{Document: &mockDocumentService{statuses: sampleStatuses()}})

		result, err := server.handleDocumentsResource(ctx, makeReadResourceRequest("studymate://documents"))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "studymate://documents", result.Contents[0].URI)
		assert.Equal(t, "application/json", result.Contents[0].MIMEType)

		var docs []DocumentOutput
		require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &docs))
		require.Len(t, docs, 2)
		assert.Equal(t, "doc-1", docs[0].ID)
		assert.Equal(t, "failed", docs[1].State)
	})
}

func TestServer_handleDocumentResource(t *testing.T) {
	ctx := context.Background()
	server := newTestServer(t, &Ports{Document: &mockDocumentService{statuses: sampleStatuses()}})

	t.Run("known document", func(t *testing.T) {
		result, err := server.handleDocumentResource(ctx, makeReadResourceRequest("studymate://documents/doc-2"))

		require.NoError(t, err)
		var doc DocumentOutput
		require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &doc))
		assert.Equal(t, "Chemistry.pdf", doc.Name)
		assert.Equal(t, "cancelled", doc.Error)
	})

	t.Run("unknown document", func(t *testing.T) {
		_, err := server.handleDocumentResource(ctx, makeReadResourceRequest("studymate://documents/nope"))
		assert.Error(t, err)
	})

	t.Run("malformed URI", func(t *testing.T) {
		_, err := server.handleDocumentResource(ctx, makeReadResourceRequest("studymate://other"))
		assert.Error(t, err)
	})

	t.Run("nil document service", func(t *testing.T) {
		bare := newTestServer(t, &Ports{})
		_, err := bare.handleDocumentResource(ctx, makeReadResourceRequest("studymate://documents/doc-1"))
		assert.Error(t, err)
	})
}

func TestServer_handleStatsResource(t *testing.T) {
	ctx := context.Background()

	t.Run("returns stats", func(t *testing.T) {
		index := &mockIndexService{stats: domain.IndexStats{ChunkCount: 4, DocumentCount: 1, EmbeddedCount: 3, Dimensions: 8, Coverage: 0.75}}
		server := newTestServer(t, &Ports{Index: index})

		result, err := server.handleStatsResource(ctx, makeReadResourceRequest("studymate://stats"))

		require.NoError(t, err)
		var stats StatsOutput
		require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &stats))
		assert.Equal(t, 4, stats.ChunkCount)
		assert.Equal(t, 0.75, stats.Coverage)
	})

	t.Run("nil index service", func(t *testing.T) {
		server := newTestServer(t, &Ports{})
		_, err := server.handleStatsResource(ctx, makeReadResourceRequest("studymate://stats"))
		assert.Error(t, err)
	})
}
