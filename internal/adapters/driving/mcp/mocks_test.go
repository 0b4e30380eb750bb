package mcp

import (
	"context"

	"github.com/abhinay-x/studymate-sub000/internal/core/domain"
)

// mockSearchService is a mock implementation of driving.SearchService.
type mockSearchService struct {
	results []domain.SearchResult
	err     error

	lastQuery string
	lastOpts  domain.SearchOptions
}

func (m *mockSearchService) Search(
	_ context.Context,
	query string,
	opts domain.SearchOptions,
) ([]domain.SearchResult, error) {
	m.lastQuery = query
	m.lastOpts = opts
	return m.results, m.err
}

// mockDocumentService is a mock implementation of driving.DocumentService.
type mockDocumentService struct {
	summary  domain.IngestSummary
	statuses []domain.DocumentStatus
	removed  int
	err      error

	lastID   string
	lastName string
	lastText string
}

func (m *mockDocumentService) Ingest(_ context.Context, id, name, text string) (domain.IngestSummary, error) {
	m.lastID, m.lastName, m.lastText = id, name, text
	if m.err != nil {
		return domain.IngestSummary{}, m.err
	}
	s := m.summary
	s.DocumentID = id
	s.DocumentName = name
	return s, nil
}

func (m *mockDocumentService) Remove(_ context.Context, id string) (int, error) {
	m.lastID = id
	return m.removed, m.err
}

func (m *mockDocumentService) List(_ context.Context) []domain.DocumentStatus {
	return m.statuses
}

// mockIndexService is a mock implementation of driving.IndexService.
type mockIndexService struct {
	stats   domain.IndexStats
	cleared bool
}

func (m *mockIndexService) Stats(_ context.Context) domain.IndexStats {
	return m.stats
}

func (m *mockIndexService) Clear(_ context.Context) error {
	m.cleared = true
	return nil
}

// mockReader is a mock implementation of driven.DocumentReader.
type mockReader struct {
	doc *domain.Document
	err error
}

func (m *mockReader) ReadFile(_ context.Context, _ string) (*domain.Document, error) {
	return m.doc, m.err
}
