package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/manualqa/internal/adapters/driving/watcher"
	"github.com/custodia-labs/manualqa/internal/core/domain"
)

var (
	ingestForce bool
	ingestWatch bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Build or load the manual index",
	Long: `Loads the persisted index, or builds it from the source directory when
the index directory is missing or empty. Files that fail to load are
reported and skipped unless ingest.fail_fast is set.

Use --force to rebuild from scratch, and --watch to keep running and
rebuild whenever files in the source directory change.`,
	Args: cobra.NoArgs,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVarP(&ingestForce, "force", "f", false, "rebuild even if an index exists")
	ingestCmd.Flags().BoolVarP(&ingestWatch, "watch", "w", false, "rebuild when source files change")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, _ []string) error {
	if indexService == nil {
		return errors.New("index service not configured")
	}
	ctx := cmd.Context()

	report, err := indexService.Ensure(ctx, ingestForce)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", friendlyError(err))
	}
	printReport(cmd, report)

	if !ingestWatch {
		return nil
	}

	w := watcher.New(sourceDir, func(ctx context.Context) error {
		report, err := indexService.Ensure(ctx, true)
		if err != nil {
			return friendlyError(err)
		}
		printReport(cmd, report)
		return nil
	}, watcher.WithFilter(acceptSource))

	cmd.Printf("Watching %s for changes (Ctrl+C to stop)\n", sourceDir)
	err = w.Start(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func printReport(cmd *cobra.Command, report *domain.IndexReport) {
	if !report.Built {
		cmd.Printf("Index ready: %d chunks (%s)\n", report.Chunks, report.Backend)
		return
	}
	cmd.Printf("Built index: %d chunks from %d file(s) (%s)\n",
		report.Chunks, len(report.Files), report.Backend)
	for _, f := range report.Failures {
		cmd.Printf("  skipped: %v\n", f)
	}
}
