package rag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorekeep/lorekeep/internal/passage"
)

func chunkPtr(i int) *int { return &i }

func TestAssemble(t *testing.T) {
	t.Parallel()

	passages := []passage.Passage{
		{ID: "kaladin#0", Title: "Kaladin Stormblessed", ChunkID: chunkPtr(0), Content: "Kaladin is a Windrunner."},
		{ID: "shallan#2", Title: "Shallan Davar", ChunkID: chunkPtr(2), Content: "Shallan is a Lightweaver."},
		{ID: "dalinar#1", Title: "Dalinar Kholin", ChunkID: chunkPtr(1), Content: "Dalinar is a Bondsmith."},
	}

	text, sources := Assemble(passages, 2)

	assert.Equal(t,
		"[Kaladin Stormblessed]\nKaladin is a Windrunner.\n\n[Shallan Davar]\nShallan is a Lightweaver.",
		text)

	// Attributions come back in context order, one per included passage.
	require.Len(t, sources, 2)
	assert.Equal(t, "Kaladin Stormblessed", sources[0].Title)
	assert.Equal(t, 0, *sources[0].ChunkID)
	assert.Equal(t, "Shallan Davar", sources[1].Title)
	assert.Equal(t, 2, *sources[1].ChunkID)
}

func TestAssemble_Empty(t *testing.T) {
	t.Parallel()

	text, sources := Assemble(nil, 4)
	assert.Empty(t, text)
	assert.NotNil(t, sources)
	assert.Empty(t, sources)

	text, sources = Assemble([]passage.Passage{}, 4)
	assert.Empty(t, text)
	assert.Empty(t, sources)
}

func TestAssemble_TopKBeyondAvailable(t *testing.T) {
	t.Parallel()

	passages := []passage.Passage{
		{ID: "a", Title: "A", Content: "alpha"},
	}

	text, sources := Assemble(passages, 10)
	assert.Equal(t, "[A]\nalpha", text)
	assert.Len(t, sources, 1)
}

func TestAssemble_Idempotent(t *testing.T) {
	t.Parallel()

	passages := []passage.Passage{
		{ID: "a", Title: "A", ChunkID: chunkPtr(0), Content: "alpha"},
		{ID: "b", Title: "B", ChunkID: chunkPtr(1), Content: "beta"},
	}

	text1, sources1 := Assemble(passages, 2)
	text2, sources2 := Assemble(passages, 2)

	assert.Equal(t, text1, text2)
	assert.Equal(t, sources1, sources2)
}

func TestDedupe_FirstSeenWins(t *testing.T) {
	t.Parallel()

	passages := []passage.Passage{
		{ID: "a", Content: "first a", Similarity: 0.9},
		{ID: "b", Content: "first b", Similarity: 0.8},
		{ID: "a", Content: "duplicate a", Similarity: 0.99},
		{ID: "c", Content: "first c", Similarity: 0.7},
		{ID: "b", Content: "duplicate b", Similarity: 0.95},
	}

	got := dedupe(passages)
	require.Len(t, got, 3)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "first a", got[0].Content)
	assert.Equal(t, "b", got[1].ID)
	assert.Equal(t, "c", got[2].ID)
}

func TestDedupe_Empty(t *testing.T) {
	t.Parallel()

	assert.Empty(t, dedupe(nil))
	assert.Empty(t, dedupe([]passage.Passage{}))
}
