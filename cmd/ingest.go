package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lorekeep/lorekeep/internal/app"
	"github.com/lorekeep/lorekeep/internal/ingest"
	"github.com/lorekeep/lorekeep/internal/log"
)

var (
	ingestXMLPath  string
	ingestCrawlURL string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Load a wiki corpus into the passage store",
	Long: `Ingest loads wiki articles into PostgreSQL, embedding each chunk.

Two corpus sources are supported:

  --xml    a MediaWiki XML export on disk
  --crawl  a live wiki, walked from the given article URL

Re-ingesting the same corpus overwrites existing passages in place.`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestXMLPath, "xml", "", "path to a MediaWiki XML export")
	ingestCmd.Flags().StringVar(&ingestCrawlURL, "crawl", "", "article URL to start a live crawl from")
	ingestCmd.MarkFlagsMutuallyExclusive("xml", "crawl")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, _ []string) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := log.New(log.Config{})

	a, err := app.Setup(ctx, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer func() {
		if closeErr := a.Close(context.Background()); closeErr != nil {
			logger.Warn("shutdown error", "error", closeErr)
		}
	}()

	ing, err := a.NewIngester()
	if err != nil {
		return fmt.Errorf("creating ingester: %w", err)
	}

	var stats ingest.Stats
	switch {
	case ingestCrawlURL != "":
		crawler := ingest.NewCrawler(ing, a.Config.CrawlMaxPages, logger)
		stats, err = crawler.Crawl(ctx, ingestCrawlURL)
	default:
		path := ingestXMLPath
		if path == "" {
			path = a.Config.CorpusPath
		}
		stats, err = ing.IngestXML(ctx, path)
	}
	if err != nil {
		return fmt.Errorf("ingesting corpus: %w", err)
	}

	fmt.Printf("Ingested %d pages (%d chunks, %d skipped)\n",
		stats.Pages, stats.Chunks, stats.Skipped)

	count, err := a.Store.Count(ctx)
	if err == nil {
		fmt.Printf("Passage store now holds %d passages\n", count)
	}
	return nil
}
