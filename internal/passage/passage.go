// Package passage stores wiki passages with vector search capabilities.
// Passages are chunks of wiki articles embedded with Gemini and searched
// via PostgreSQL + pgvector cosine similarity.
package passage

import (
	"fmt"
	"strings"
	"time"
)

// VectorDimension is the embedding width stored in the passages table.
// gemini-embedding-001 is truncated to this dimensionality at embed time;
// the vector(768) column type must match.
const VectorDimension int32 = 768

// Passage is a single retrievable chunk of a wiki article.
//
// ChunkID and Source are pointers because both are nullable: a passage
// ingested as a whole article has no chunk ordinal, and locally authored
// corpora carry no origin URL.
type Passage struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Source     *string    `json:"source"`
	ChunkID    *int       `json:"chunk_id"`
	Content    string     `json:"content"`
	Similarity float64    `json:"similarity,omitempty"`
	CreatedAt  time.Time  `json:"created_at,omitzero"`
}

// NormalizeTitle canonicalizes an article title for identity comparisons:
// lowercased, with runs of whitespace collapsed to single underscores.
func NormalizeTitle(title string) string {
	return strings.Join(strings.Fields(strings.ToLower(title)), "_")
}

// MakeID builds the deterministic passage ID used for upserts, so
// re-ingesting the same corpus overwrites rather than duplicates.
func MakeID(title string, chunkID *int) string {
	if chunkID == nil {
		return NormalizeTitle(title)
	}
	return fmt.Sprintf("%s#%d", NormalizeTitle(title), *chunkID)
}
