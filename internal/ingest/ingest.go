// Package ingest loads wiki corpora into the passage store, either from
// a MediaWiki XML export or by crawling a live wiki. A file lock guards
// against concurrent ingest runs competing on the same corpus.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/lorekeep/lorekeep/internal/passage"
	"github.com/lorekeep/lorekeep/internal/wiki"
)

// upserter is the slice of passage.Store ingestion depends on.
type upserter interface {
	Upsert(ctx context.Context, p passage.Passage) error
}

// Stats summarizes one ingest run.
type Stats struct {
	Pages   int // articles ingested
	Chunks  int // passages written
	Skipped int // articles dropped (empty or below the length floor)
}

// Config tunes an Ingester.
type Config struct {
	Store  upserter
	Logger *slog.Logger

	// ChunkSize/ChunkOverlap control passage splitting; MinArticleLen
	// drops stub articles whose stripped text is shorter.
	ChunkSize     int
	ChunkOverlap  int
	MinArticleLen int

	// SourceLabel is stamped on every ingested passage; empty leaves
	// the source column NULL.
	SourceLabel string

	// LockDir holds the ingest lock file. Defaults to os.TempDir().
	LockDir string
}

// Ingester ingests MediaWiki XML exports.
type Ingester struct {
	store   upserter
	logger  *slog.Logger
	cfg     Config
	srcPtr  *string
	lockDir string
}

// New creates an Ingester, applying defaults for zero tuning fields.
func New(cfg Config) (*Ingester, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 1000
	}
	if cfg.ChunkOverlap < 0 || cfg.ChunkOverlap >= cfg.ChunkSize {
		cfg.ChunkOverlap = 0
	}
	if cfg.MinArticleLen <= 0 {
		cfg.MinArticleLen = 200
	}
	lockDir := cfg.LockDir
	if lockDir == "" {
		lockDir = os.TempDir()
	}

	var srcPtr *string
	if cfg.SourceLabel != "" {
		srcPtr = &cfg.SourceLabel
	}

	return &Ingester{
		store:   cfg.Store,
		logger:  cfg.Logger,
		cfg:     cfg,
		srcPtr:  srcPtr,
		lockDir: lockDir,
	}, nil
}

// IngestXML streams a MediaWiki XML export into the passage store.
// Returns an error without touching the store if another ingest run
// already holds the lock.
func (in *Ingester) IngestXML(ctx context.Context, xmlPath string) (Stats, error) {
	lock := flock.New(filepath.Join(in.lockDir, "lorekeep-ingest.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return Stats{}, fmt.Errorf("acquiring ingest lock: %w", err)
	}
	if !locked {
		return Stats{}, fmt.Errorf("another ingest run is already in progress")
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			in.logger.Warn("releasing ingest lock", "error", err)
		}
	}()

	f, err := os.Open(xmlPath)
	if err != nil {
		return Stats{}, fmt.Errorf("opening export: %w", err)
	}
	defer f.Close()

	var stats Stats
	err = wiki.IteratePages(f, func(page wiki.Page) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, err := in.ingestArticle(ctx, page.Title, page.Text)
		if err != nil {
			return fmt.Errorf("ingesting %q: %w", page.Title, err)
		}
		if n == 0 {
			stats.Skipped++
			return nil
		}
		stats.Pages++
		stats.Chunks += n
		return nil
	})
	if err != nil {
		return stats, err
	}

	in.logger.Info("ingest completed",
		"path", xmlPath,
		"pages", stats.Pages,
		"chunks", stats.Chunks,
		"skipped", stats.Skipped,
	)
	return stats, nil
}

// ingestArticle strips, chunks, and stores one article. Returns the
// number of passages written; zero means the article was skipped.
func (in *Ingester) ingestArticle(ctx context.Context, title, raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	clean := wiki.Strip(raw)
	if len(clean) < in.cfg.MinArticleLen {
		return 0, nil
	}

	chunks := wiki.Split(clean, in.cfg.ChunkSize, in.cfg.ChunkOverlap)
	for i, chunk := range chunks {
		chunkID := i
		p := passage.Passage{
			Title:   title,
			Source:  in.srcPtr,
			ChunkID: &chunkID,
			Content: chunk,
		}
		if err := in.store.Upsert(ctx, p); err != nil {
			return 0, err
		}
	}

	in.logger.Debug("ingested article", "title", title, "chunks", len(chunks))
	return len(chunks), nil
}
