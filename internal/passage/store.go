package passage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pgvector/pgvector-go"
	"google.golang.org/genai"
)

// Querier defines the interface for database operations on passages.
// Following Go best practices: interfaces are defined by the consumer,
// not the provider (similar to http.RoundTripper, io.Reader).
//
// Both *pgxpool.Pool and pgx.Tx satisfy this interface.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store manages passages with vector search capabilities.
// It handles embedding generation and cosine similarity search using
// PostgreSQL + pgvector.
//
// Store is safe for concurrent use by multiple goroutines.
type Store struct {
	db       Querier
	embedder ai.Embedder
	logger   *slog.Logger
	timeout  time.Duration
}

// NewStore creates a new Store instance.
//
// timeout bounds each embedding call and each vector search query;
// zero means a 10-second default.
func NewStore(db Querier, embedder ai.Embedder, timeout time.Duration, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Store{
		db:       db,
		embedder: embedder,
		logger:   logger,
		timeout:  timeout,
	}
}

// embed generates the pgvector embedding for a piece of text.
// The embedder output is truncated to VectorDimension so it matches the
// vector(768) column.
func (s *Store) embed(ctx context.Context, text string) (pgvector.Vector, error) {
	dim := VectorDimension
	resp, err := s.embedder.Embed(ctx, &ai.EmbedRequest{
		Input: []*ai.Document{
			ai.DocumentFromText(text, nil),
		},
		Options: &genai.EmbedContentConfig{
			OutputDimensionality: &dim,
		},
	})
	if err != nil {
		return pgvector.Vector{}, fmt.Errorf("embed failed: %w", err)
	}

	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Embedding) == 0 {
		return pgvector.Vector{}, errors.New("empty embedding returned")
	}

	return pgvector.NewVector(resp.Embeddings[0].Embedding), nil
}

// Upsert embeds and stores a passage. The passage ID is derived from the
// normalized title and chunk ordinal, so re-ingesting the same corpus
// overwrites rather than duplicates.
func (s *Store) Upsert(ctx context.Context, p Passage) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	embedding, err := s.embed(ctx, p.Content)
	if err != nil {
		return fmt.Errorf("embedding passage %q: %w", p.Title, err)
	}

	id := MakeID(p.Title, p.ChunkID)
	_, err = s.db.Exec(ctx, `
		INSERT INTO passages (id, title, title_norm, source, chunk_id, content, embedding)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			title      = EXCLUDED.title,
			title_norm = EXCLUDED.title_norm,
			source     = EXCLUDED.source,
			chunk_id   = EXCLUDED.chunk_id,
			content    = EXCLUDED.content,
			embedding  = EXCLUDED.embedding`,
		id, p.Title, NormalizeTitle(p.Title), p.Source, p.ChunkID, p.Content, embedding,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert passage %q: %w", id, err)
	}

	s.logger.Debug("upserted passage", "id", id, "content_length", len(p.Content))
	return nil
}

// Search returns the limit most similar passages to the query, ordered by
// cosine similarity (best first). The query is embedded with the same
// model and dimensionality as the stored passages.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]Passage, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	queryEmbedding, err := s.embed(ctx, query)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("embedding generation timeout: %w", err)
		}
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, title, source, chunk_id, content,
		       1 - (embedding <=> $1) AS similarity,
		       created_at
		FROM passages
		ORDER BY embedding <=> $1
		LIMIT $2`,
		queryEmbedding, limit,
	)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("search query timeout: %w", err)
		}
		return nil, fmt.Errorf("search failed: %w", err)
	}
	defer rows.Close()

	var passages []Passage
	for rows.Next() {
		var (
			p         Passage
			source    pgtype.Text
			chunkID   pgtype.Int4
			createdAt pgtype.Timestamptz
		)
		if err := rows.Scan(&p.ID, &p.Title, &source, &chunkID, &p.Content, &p.Similarity, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning passage row: %w", err)
		}
		if source.Valid {
			p.Source = &source.String
		}
		if chunkID.Valid {
			c := int(chunkID.Int32)
			p.ChunkID = &c
		}
		if createdAt.Valid {
			p.CreatedAt = createdAt.Time
		}
		passages = append(passages, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating passage rows: %w", err)
	}

	return passages, nil
}

// Count returns the number of stored passages.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRow(ctx, `SELECT count(*) FROM passages`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count failed: %w", err)
	}
	return count, nil
}

// DeleteSource removes all passages ingested from the given origin.
// Returns the number of passages removed.
func (s *Store) DeleteSource(ctx context.Context, source string) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM passages WHERE source = $1`, source)
	if err != nil {
		return 0, fmt.Errorf("failed to delete passages for source %q: %w", source, err)
	}

	s.logger.Debug("deleted passages", "source", source, "count", tag.RowsAffected())
	return tag.RowsAffected(), nil
}
