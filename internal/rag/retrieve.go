package rag

import (
	"context"

	"github.com/lorekeep/lorekeep/internal/passage"
)

// searcher is the slice of passage.Store the retriever depends on.
type searcher interface {
	Search(ctx context.Context, query string, limit int) ([]passage.Passage, error)
}

// StoreRetriever adapts the passage store to the Retriever interface,
// fixing the per-phrasing search width.
type StoreRetriever struct {
	store searcher
	width int
}

// NewStoreRetriever creates a retriever that fetches width passages per
// query phrasing.
func NewStoreRetriever(store searcher, width int) *StoreRetriever {
	if width <= 0 {
		width = 4
	}
	return &StoreRetriever{store: store, width: width}
}

func (r *StoreRetriever) Retrieve(ctx context.Context, query string) ([]passage.Passage, error) {
	return r.store.Search(ctx, query, r.width)
}
