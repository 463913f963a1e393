package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/manualqa/internal/core/domain"
)

var (
	searchK    int
	searchJSON bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Show the manual passages retrieved for a query",
	Long: `Runs retrieval only: the query is embedded, the closest chunks are
fetched from the index and re-ranked with maximal marginal relevance.
No language model is called.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchK, "k", "k", 0, "number of passages (default retrieval.k)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if err := ensureIndex(cmd); err != nil {
		return err
	}

	query := strings.Join(args, " ")
	results, err := indexService.Search(cmd.Context(), query, searchK)
	if err != nil {
		if errors.Is(err, domain.ErrEmptyQuestion) {
			return errors.New("query must not be empty")
		}
		return fmt.Errorf("search failed: %w", friendlyError(err))
	}

	if searchJSON {
		return outputSearchJSON(cmd, results)
	}
	outputSearchTable(cmd, results)
	return nil
}

func outputSearchJSON(cmd *cobra.Command, results []domain.ScoredChunk) error {
	out := make([]sourceJSON, len(results))
	for i, r := range results {
		out[i] = sourceJSON{Source: r.Chunk.Source(), Page: r.Chunk.Page(), Content: r.Chunk.Content, Score: r.Score}
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, results []domain.ScoredChunk) {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return
	}

	cmd.Println("Results:")
	cmd.Println()
	for i, r := range results {
		cmd.Printf("  [%d] %s, page %d (%.2f)\n", i+1, r.Chunk.Source(), r.Chunk.Page(), r.Score)
		cmd.Printf("      %s\n", snippet(r.Chunk.Content, 200))
		cmd.Println()
	}
}

// snippet collapses whitespace and truncates to n runes.
func snippet(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > n {
		return string(r[:n]) + "..."
	}
	return s
}
