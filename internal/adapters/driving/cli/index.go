package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Inspect or reset the search index",
}

var indexStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show index statistics",
	Args:  cobra.NoArgs,
	RunE:  runIndexStats,
}

var indexClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every document from the index",
	Long: `Removes all chunks and document records, including persisted ones.
Asks for confirmation unless --yes is given.`,
	Args: cobra.NoArgs,
	RunE: runIndexClear,
}

var clearYes bool

func init() {
	indexClearCmd.Flags().BoolVarP(&clearYes, "yes", "y", false, "do not ask for confirmation")

	indexCmd.AddCommand(indexStatsCmd)
	indexCmd.AddCommand(indexClearCmd)
	rootCmd.AddCommand(indexCmd)
}

func runIndexStats(cmd *cobra.Command, _ []string) error {
	svc, err := requireRetrieval()
	if err != nil {
		return err
	}

	stats := svc.Stats(cmd.Context())
	cmd.Printf("Documents:   %d\n", stats.DocumentCount)
	cmd.Printf("Chunks:      %d\n", stats.ChunkCount)
	cmd.Printf("Embedded:    %d (%.0f%%)\n", stats.EmbeddedCount, stats.Coverage*100)
	if stats.Dimensions > 0 {
		cmd.Printf("Dimensions:  %d\n", stats.Dimensions)
	} else {
		cmd.Println("Dimensions:  (not set)")
	}
	return nil
}

func runIndexClear(cmd *cobra.Command, _ []string) error {
	svc, err := requireRetrieval()
	if err != nil {
		return err
	}

	if !clearYes {
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			return errors.New("refusing to clear the index without --yes")
		}
		stats := svc.Stats(cmd.Context())
		cmd.Printf("Remove %d documents (%d chunks)? [y/N]: ", stats.DocumentCount, stats.ChunkCount)
		answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if a := strings.ToLower(strings.TrimSpace(answer)); a != "y" && a != "yes" {
			cmd.Println("Aborted.")
			return nil
		}
	}

	if err := svc.Clear(cmd.Context()); err != nil {
		return fmt.Errorf("clear failed: %w", err)
	}
	cmd.Println("Index cleared.")
	return nil
}
