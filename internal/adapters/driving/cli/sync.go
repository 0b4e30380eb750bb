package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhinay-x/studymate-sub000/internal/adapters/driven/watcher"
	"github.com/abhinay-x/studymate-sub000/internal/core/services"
	"github.com/abhinay-x/studymate-sub000/internal/normalisers"
)

var (
	syncWatch    bool
	syncDebounce time.Duration
)

var syncCmd = &cobra.Command{
	Use:   "sync [directory]",
	Short: "Synchronise documents from a folder",
	Long: `Adds every supported file under the directory to the index.
Hidden files and directories are skipped.

With --watch, keeps running and re-indexes files as they are created,
modified or deleted until interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: runSync,
}

func init() {
	syncCmd.Flags().BoolVarP(&syncWatch, "watch", "w", false, "keep watching for changes")
	syncCmd.Flags().DurationVar(&syncDebounce, "debounce", watcher.DefaultDebounce,
		"quiet period before a changed file is re-indexed")
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	svc, err := requireRetrieval()
	if err != nil {
		return err
	}

	reader := normalisers.Default()
	w, err := watcher.New(args[0], reader, watcher.WithDebounce(syncDebounce))
	if err != nil {
		return err
	}
	defer w.Close()

	ctx := cmd.Context()
	fileSync := services.NewFileSync(svc, reader)

	cmd.Printf("Synchronising %s...\n", w.Root())
	changes, err := w.Scan(ctx)
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}
	stats, err := fileSync.Sync(ctx, changes)
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}
	printSyncStats(cmd, "Synchronised", stats)

	if !syncWatch {
		return nil
	}

	events, err := w.Watch(ctx)
	if err != nil {
		return fmt.Errorf("watch failed: %w", err)
	}
	cmd.Printf("Watching %s for changes (Ctrl+C to stop)...\n", w.Root())

	stats = fileSync.Run(ctx, events)
	printSyncStats(cmd, "Stopped watching", stats)
	return nil
}

func printSyncStats(cmd *cobra.Command, prefix string, stats services.FileSyncStats) {
	cmd.Printf("%s: %d added, %d removed, %d failed\n", prefix, stats.Ingested, stats.Removed, stats.Failed)
}
