// Package chunker provides a word-window text chunking processor.
package chunker

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/abhinay-x/studymate-sub000/internal/core/domain"
)

// DefaultChunkSize is the default number of words per chunk.
const DefaultChunkSize = domain.DefaultChunkSize

// DefaultChunkOverlap is the default number of overlapping words.
const DefaultChunkOverlap = domain.DefaultOverlap

// DefaultWordsPerPage is the page size used to estimate page numbers.
const DefaultWordsPerPage = domain.DefaultWordsPerPage

// chunkNamespace scopes the name-based UUIDs of chunk IDs.
var chunkNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("studymate:chunk"))

// Processor splits document content into overlapping word windows.
// It implements the PostProcessor interface.
type Processor struct {
	chunkSize    int
	overlap      int
	wordsPerPage int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in words.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		p.chunkSize = size
	}
}

// WithOverlap sets the overlap between chunks in words.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		p.overlap = overlap
	}
}

// WithWordsPerPage sets the number of words assumed per page.
func WithWordsPerPage(n int) Option {
	return func(p *Processor) {
		p.wordsPerPage = n
	}
}

// WithSettings applies all chunking settings at once.
func WithSettings(s domain.ChunkSettings) Option {
	return func(p *Processor) {
		p.chunkSize = s.ChunkSize
		p.overlap = s.Overlap
		p.wordsPerPage = s.WordsPerPage
	}
}

// New creates a new chunker processor with the given options.
// Invalid sizes are rejected with domain.ErrInvalidConfig rather than corrected.
func New(opts ...Option) (*Processor, error) {
	p := &Processor{
		chunkSize:    DefaultChunkSize,
		overlap:      DefaultChunkOverlap,
		wordsPerPage: DefaultWordsPerPage,
	}

	for _, opt := range opts {
		opt(p)
	}

	if err := p.Settings().Validate(); err != nil {
		return nil, err
	}

	return p, nil
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Settings returns the effective chunking settings.
func (p *Processor) Settings() domain.ChunkSettings {
	return domain.ChunkSettings{
		ChunkSize:    p.chunkSize,
		Overlap:      p.overlap,
		WordsPerPage: p.wordsPerPage,
	}
}

// Process splits the document content into chunks.
// Input chunks are ignored; this processor creates new chunks from document content.
func (p *Processor) Process(ctx context.Context, doc *domain.Document, _ []domain.Chunk) ([]domain.Chunk, error) {
	return p.Chunk(ctx, doc)
}

// Chunk splits the document into windows of chunkSize words with a stride of
// chunkSize-overlap. Every window starting before the last word is emitted, so
// trailing windows may be shorter and fall inside their predecessor.
func (p *Processor) Chunk(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: document is nil", domain.ErrInvalidInput)
	}

	words := strings.Fields(doc.Content)
	total := len(words)
	if total == 0 {
		// Empty content produces no chunks
		return nil, nil
	}

	stride := p.chunkSize - p.overlap
	chunks := make([]domain.Chunk, 0, (total+stride-1)/stride)

	for start := 0; start < total; start += stride {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		end := min(start+p.chunkSize, total)
		position := len(chunks)

		chunks = append(chunks, domain.Chunk{
			ID:           ChunkID(doc.ID, position),
			DocumentID:   doc.ID,
			DocumentName: doc.Name,
			Content:      strings.Join(words[start:end], " "),
			Position:     position,
			StartWord:    start,
			EndWord:      end,
			WordCount:    end - start,
			Page:         start/p.wordsPerPage + 1,
		})
	}

	return chunks, nil
}

// ChunkID derives the stable identifier of the chunk at position in a document.
func ChunkID(documentID string, position int) string {
	return uuid.NewSHA1(chunkNamespace, fmt.Appendf(nil, "%s:%d", documentID, position)).String()
}

// CountWords returns the number of whitespace-separated words in text.
func CountWords(text string) int {
	return len(strings.Fields(text))
}
