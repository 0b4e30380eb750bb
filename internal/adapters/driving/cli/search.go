package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhinay-x/studymate-sub000/internal/core/domain"
)

// snippetLength caps the characters of chunk text shown per result.
const snippetLength = 320

var (
	searchMaxResults   int
	searchMinRelevance float64
	searchDocument     string
	searchNoContext    bool
	searchJSON         bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed documents",
	Long: `Finds the passages most relevant to a question.

Chunks are ranked by a hybrid score: keyword matches plus semantic similarity
to the query, multiplied by a boost for preferred sources such as textbooks.
Unset flags take their values from the settings file.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchMaxResults, "max-results", "n", domain.DefaultMaxResults, "maximum number of results")
	searchCmd.Flags().Float64Var(&searchMinRelevance, "min-relevance", domain.DefaultMinRelevance,
		"drop results scoring at or below this")
	searchCmd.Flags().StringVarP(&searchDocument, "document", "d", "", "only search documents whose name contains this")
	searchCmd.Flags().BoolVar(&searchNoContext, "no-context", false, "omit neighbouring chunks")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	svc, err := requireRetrieval()
	if err != nil {
		return err
	}

	query := args[0]
	opts := searchOptionsFromFlags(cmd)

	results, err := svc.Search(cmd.Context(), query, opts)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, results)
	}
	outputSearchResults(cmd, results, opts.IncludeContext)
	return nil
}

// searchOptionsFromFlags applies the flags the user set over the settings defaults.
func searchOptionsFromFlags(cmd *cobra.Command) domain.SearchOptions {
	opts := searchDefaults()
	flags := cmd.Flags()
	if flags.Changed("max-results") {
		opts.MaxResults = searchMaxResults
	}
	if flags.Changed("min-relevance") {
		opts.MinRelevance = searchMinRelevance
	}
	if searchNoContext {
		opts.IncludeContext = false
	}
	opts.DocumentFilter = searchDocument
	return opts
}

func outputSearchJSON(cmd *cobra.Command, results []domain.SearchResult) error {
	if results == nil {
		results = []domain.SearchResult{}
	}
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchResults(cmd *cobra.Command, results []domain.SearchResult, withContext bool) {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return
	}

	st := newStyles(terminalWidth())

	cmd.Println(st.Title.Render("Results:"))
	cmd.Println()
	for i := range results {
		r := &results[i]

		header := fmt.Sprintf("  [%d] %s", i+1, st.Source.Render(r.Chunk.DocumentName))
		if r.Chunk.Page > 0 {
			header += st.Muted.Render(fmt.Sprintf("  p.%d", r.Chunk.Page))
		}
		header += "  " + st.Relevance.Render(fmt.Sprintf("%d%%", r.Relevance))
		cmd.Println(header)

		cmd.Println(st.Body.Render(snippet(r.Chunk.Content, snippetLength)))

		if len(r.MatchedTerms) > 0 {
			cmd.Println(st.Muted.Render("    matched: " + strings.Join(r.MatchedTerms, ", ")))
		}
		if withContext && len(r.Context) > 0 {
			cmd.Println(st.Muted.Render(fmt.Sprintf("    context: %d neighbouring chunks", len(r.Context))))
		}
		cmd.Println()
	}
}

// snippet collapses whitespace and cuts text to at most n runes.
func snippet(text string, n int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return strings.TrimSpace(string(runes[:n])) + "..."
}
