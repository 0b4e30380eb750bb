package services

import (
	"sort"
	"strings"

	"github.com/abhinay-x/studymate-sub000/internal/core/domain"
	"github.com/abhinay-x/studymate-sub000/internal/similarity"
)

// maxContextChunks bounds the neighbouring chunks attached to a result.
const maxContextChunks = 2

// HybridRanker scores candidate chunks by literal term frequency plus cosine
// similarity, multiplied by a source boost. With a zero term weight it ranks
// purely semantically.
type HybridRanker struct {
	settings domain.RankerSettings
}

// NewHybridRanker creates a ranker with the given weights and boost table.
func NewHybridRanker(settings domain.RankerSettings) *HybridRanker {
	return &HybridRanker{settings: settings}
}

// scoredCandidate holds intermediate scores before options are applied.
type scoredCandidate struct {
	chunk    domain.Chunk
	lexical  float64
	semantic float64
	score    float64
	matched  []string
}

// Rank scores candidates against the query and applies options in order:
// threshold, document filter, stable sort, truncation, context expansion.
// corpus supplies neighbouring chunks for context and is usually the full
// index snapshot the candidates were drawn from.
func (r *HybridRanker) Rank(
	query string,
	queryVec []float32,
	candidates []domain.Chunk,
	corpus []domain.Chunk,
	opts domain.SearchOptions,
) []domain.SearchResult {
	opts = opts.Normalise()
	terms := QueryTerms(query)
	filter := strings.ToLower(opts.DocumentFilter)

	seen := make(map[string]struct{}, len(candidates))
	scored := make([]scoredCandidate, 0, len(candidates))
	for i := range candidates {
		c := &candidates[i]
		if _, dup := seen[c.ID]; dup {
			continue
		}
		seen[c.ID] = struct{}{}

		sc := r.score(terms, queryVec, c)
		if sc.score <= opts.MinRelevance {
			continue
		}
		if filter != "" && !strings.Contains(strings.ToLower(c.DocumentName), filter) {
			continue
		}
		scored = append(scored, sc)
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})
	if len(scored) > opts.MaxResults {
		scored = scored[:opts.MaxResults]
	}

	results := make([]domain.SearchResult, len(scored))
	for i := range scored {
		sc := &scored[i]
		results[i] = domain.SearchResult{
			Chunk:         sc.chunk.WithoutEmbedding(),
			Score:         sc.score,
			LexicalScore:  sc.lexical,
			SemanticScore: sc.semantic,
			Relevance:     similarity.Relevance(sc.score),
			MatchedTerms:  sc.matched,
		}
		if opts.IncludeContext {
			results[i].Context = neighbours(sc.chunk, corpus)
		}
	}

	return results
}

// score computes the combined score of one chunk.
func (r *HybridRanker) score(terms []string, queryVec []float32, c *domain.Chunk) scoredCandidate {
	content := strings.ToLower(c.Content)
	matched := make([]string, 0, len(terms))

	var occurrences int
	for _, term := range terms {
		n := strings.Count(content, term)
		if n > 0 {
			occurrences += n
			matched = append(matched, term)
		}
	}

	sc := scoredCandidate{
		chunk:   *c,
		lexical: r.settings.TermWeight * float64(occurrences),
		matched: matched,
	}
	if len(queryVec) > 0 && c.HasEmbedding() {
		sc.semantic = r.settings.SemanticWeight * similarity.Cosine(queryVec, c.Embedding)
	}
	sc.score = (sc.lexical + sc.semantic) * r.settings.BoostFor(c.DocumentName)
	return sc
}

// neighbours returns up to two other chunks of the same document whose page is
// within one of the chunk's page, in corpus order.
func neighbours(c domain.Chunk, corpus []domain.Chunk) []domain.Chunk {
	var out []domain.Chunk
	for i := range corpus {
		n := &corpus[i]
		if n.DocumentID != c.DocumentID || n.ID == c.ID {
			continue
		}
		if d := n.Page - c.Page; d < -1 || d > 1 {
			continue
		}
		out = append(out, n.WithoutEmbedding())
		if len(out) == maxContextChunks {
			break
		}
	}
	return out
}

// QueryTerms lowercases the query and splits it on whitespace. Repeated terms
// are kept and each occurrence contributes to the lexical score.
func QueryTerms(query string) []string {
	return strings.Fields(strings.ToLower(query))
}

// containsAnyTerm reports whether the lowercased content holds any term.
func containsAnyTerm(content string, terms []string) bool {
	lower := strings.ToLower(content)
	for _, t := range terms {
		if strings.Contains(lower, t) {
			return true
		}
	}
	return false
}
