package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/abhinay-x/studymate-sub000/internal/core/domain"
)

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query          string   `json:"query" jsonschema:"the question or keywords to search study material for"`
	MaxResults     int      `json:"max_results,omitempty" jsonschema:"maximum number of chunks to return (default 3)"`
	MinRelevance   *float64 `json:"min_relevance,omitempty" jsonschema:"drop chunks whose score is at or below this value (default 0.1)"`
	Document       string   `json:"document,omitempty" jsonschema:"only search documents whose name contains this text"`
	IncludeContext *bool    `json:"include_context,omitempty" jsonschema:"attach the neighbouring chunks of each result"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Results []SearchResultOutput `json:"results"`
	Count   int                  `json:"count"`
}

// SearchResultOutput represents a single ranked chunk.
type SearchResultOutput struct {
	DocumentID   string   `json:"document_id"`
	DocumentName string   `json:"document_name"`
	ChunkID      string   `json:"chunk_id"`
	Position     int      `json:"position"`
	Page         int      `json:"page"`
	Relevance    int      `json:"relevance"`
	Score        float64  `json:"score"`
	MatchedTerms []string `json:"matched_terms,omitempty"`
	Content      string   `json:"content"`
	Context      []string `json:"context,omitempty"`
}

// IngestInput is the input schema for the ingest tool.
type IngestInput struct {
	ID   string `json:"id,omitempty" jsonschema:"document ID; defaults to one derived from path"`
	Name string `json:"name,omitempty" jsonschema:"display name, usually the file name"`
	Text string `json:"text,omitempty" jsonschema:"plain text to ingest"`
	Path string `json:"path,omitempty" jsonschema:"a .txt, .md or .html file to ingest instead of text"`
}

// IngestOutput is the output schema for the ingest tool.
type IngestOutput struct {
	DocumentID    string   `json:"document_id"`
	DocumentName  string   `json:"document_name"`
	State         string   `json:"state"`
	ChunkCount    int      `json:"chunk_count"`
	EmbeddedCount int      `json:"embedded_count"`
	TotalWords    int      `json:"total_words"`
	FailedChunks  []string `json:"failed_chunks,omitempty"`
}

// StatsInput is the input schema for the stats tool.
type StatsInput struct{}

// StatsOutput is the output schema for the stats tool.
type StatsOutput struct {
	ChunkCount    int     `json:"chunk_count"`
	DocumentCount int     `json:"document_count"`
	EmbeddedCount int     `json:"embedded_count"`
	Dimensions    int     `json:"dimensions"`
	Coverage      float64 `json:"coverage"`
}

// RemoveInput is the input schema for the remove_document tool.
type RemoveInput struct {
	DocumentID string `json:"document_id" jsonschema:"ID of the document to remove"`
}

// RemoveOutput is the output schema for the remove_document tool.
type RemoveOutput struct {
	DocumentID    string `json:"document_id"`
	RemovedChunks int    `json:"removed_chunks"`
}

// ListInput is the input schema for the list_documents tool.
type ListInput struct{}

// ListOutput is the output schema for the list_documents tool.
type ListOutput struct {
	Documents []DocumentOutput `json:"documents"`
	Count     int              `json:"count"`
}

// DocumentOutput describes one document and its ingestion state.
type DocumentOutput struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	State         string `json:"state"`
	ChunkCount    int    `json:"chunk_count"`
	EmbeddedCount int    `json:"embedded_count"`
	Error         string `json:"error,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
// Document and index tools are only offered when their ports are set.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Search ingested study material and return the most relevant passages",
	}, s.handleSearch)

	if s.ports.Document != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "ingest",
			Description: "Chunk, embed and index a document so it becomes searchable",
		}, s.handleIngest)
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "remove_document",
			Description: "Remove a document and all of its chunks from the index",
		}, s.handleRemove)
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "list_documents",
			Description: "List ingested documents with their ingestion state",
		}, s.handleList)
	}

	if s.ports.Index != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "stats",
			Description: "Report chunk, document and embedding coverage counts",
		}, s.handleStats)
	}
}

// handleSearch handles the search tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	opts := s.ports.searchDefaults()
	if input.MaxResults > 0 {
		opts.MaxResults = input.MaxResults
	}
	if input.MinRelevance != nil {
		opts.MinRelevance = *input.MinRelevance
	}
	if input.IncludeContext != nil {
		opts.IncludeContext = *input.IncludeContext
	}
	opts.DocumentFilter = input.Document

	results, err := s.ports.Search.Search(ctx, input.Query, opts)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Results: make([]SearchResultOutput, len(results)),
		Count:   len(results),
	}

	for i := range results {
		r := &results[i]
		out := SearchResultOutput{
			DocumentID:   r.Chunk.DocumentID,
			DocumentName: r.Chunk.DocumentName,
			ChunkID:      r.Chunk.ID,
			Position:     r.Chunk.Position,
			Page:         r.Chunk.Page,
			Relevance:    r.Relevance,
			Score:        r.Score,
			MatchedTerms: r.MatchedTerms,
			Content:      r.Chunk.Content,
		}
		for j := range r.Context {
			out.Context = append(out.Context, r.Context[j].Content)
		}
		output.Results[i] = out
	}

	return nil, output, nil
}

// handleIngest handles the ingest tool invocation.
func (s *Server) handleIngest(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IngestInput,
) (*mcp.CallToolResult, IngestOutput, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	id, name, text := input.ID, input.Name, input.Text
	if input.Path != "" {
		if s.ports.Reader == nil {
			return nil, IngestOutput{}, fmt.Errorf("%w: ingesting by path is not available", domain.ErrInvalidInput)
		}
		doc, err := s.ports.Reader.ReadFile(ctx, input.Path)
		if err != nil {
			return nil, IngestOutput{}, err
		}
		text = doc.Content
		if id == "" {
			id = doc.ID
		}
		if name == "" {
			name = doc.Name
		}
	}
	if strings.TrimSpace(id) == "" {
		return nil, IngestOutput{}, fmt.Errorf("%w: id is required when ingesting text", domain.ErrInvalidInput)
	}

	summary, err := s.ports.Document.Ingest(ctx, id, name, text)
	if err != nil {
		return nil, IngestOutput{}, err
	}

	return nil, IngestOutput{
		DocumentID:    summary.DocumentID,
		DocumentName:  summary.DocumentName,
		State:         string(summary.State),
		ChunkCount:    summary.ChunkCount,
		EmbeddedCount: summary.EmbeddedCount,
		TotalWords:    summary.TotalWords,
		FailedChunks:  summary.FailedChunks,
	}, nil
}

// handleRemove handles the remove_document tool invocation.
func (s *Server) handleRemove(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RemoveInput,
) (*mcp.CallToolResult, RemoveOutput, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	n, err := s.ports.Document.Remove(ctx, input.DocumentID)
	if err != nil {
		return nil, RemoveOutput{}, err
	}
	return nil, RemoveOutput{DocumentID: input.DocumentID, RemovedChunks: n}, nil
}

// handleList handles the list_documents tool invocation.
func (s *Server) handleList(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ListInput,
) (*mcp.CallToolResult, ListOutput, error) {
	docs := documentOutputs(s.ports.Document.List(ctx))
	return nil, ListOutput{Documents: docs, Count: len(docs)}, nil
}

// handleStats handles the stats tool invocation.
func (s *Server) handleStats(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ StatsInput,
) (*mcp.CallToolResult, StatsOutput, error) {
	return nil, statsOutput(s.ports.Index.Stats(ctx)), nil
}

func documentOutputs(statuses []domain.DocumentStatus) []DocumentOutput {
	out := make([]DocumentOutput, len(statuses))
	for i, st := range statuses {
		out[i] = DocumentOutput{
			ID:            st.DocumentID,
			Name:          st.DocumentName,
			State:         string(st.State),
			ChunkCount:    st.ChunkCount,
			EmbeddedCount: st.EmbeddedCount,
			Error:         st.Error,
		}
	}
	return out
}

func statsOutput(st domain.IndexStats) StatsOutput {
	return StatsOutput{
		ChunkCount:    st.ChunkCount,
		DocumentCount: st.DocumentCount,
		EmbeddedCount: st.EmbeddedCount,
		Dimensions:    st.Dimensions,
		Coverage:      st.Coverage,
	}
}
