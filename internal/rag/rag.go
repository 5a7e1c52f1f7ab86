// Package rag implements the question-answering pipeline: query
// rewriting against conversation history, multi-query retrieval with
// first-seen deduplication, context assembly, and grounded answer
// synthesis.
package rag

import (
	"context"

	"github.com/lorekeep/lorekeep/internal/passage"
	"github.com/lorekeep/lorekeep/internal/session"
)

// Generator produces model text from a system prompt, prior
// conversation turns, and a final user prompt. Implemented in
// production by ModelGenerator; tests substitute stubs.
type Generator interface {
	Generate(ctx context.Context, system string, history []session.Turn, prompt string) (string, error)
}

// Retriever returns the passages most similar to a single query
// phrasing, best first.
type Retriever interface {
	Retrieve(ctx context.Context, query string) ([]passage.Passage, error)
}

// Attribution identifies one passage that contributed to an answer.
type Attribution struct {
	Title   string  `json:"title"`
	ChunkID *int    `json:"chunk_id"`
	Source  *string `json:"source"`
}

// Answer is the result of one ask: the synthesized text plus the
// passages it was grounded on, in context order.
type Answer struct {
	Answer  string        `json:"answer"`
	Sources []Attribution `json:"sources"`
}
