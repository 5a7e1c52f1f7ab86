package wiki

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit_ShortTextSingleChunk(t *testing.T) {
	t.Parallel()

	chunks := Split("Kaladin is a Windrunner.", 1000, 200)
	require.Len(t, chunks, 1)
	assert.Equal(t, "Kaladin is a Windrunner.", chunks[0])
}

func TestSplit_EmptyText(t *testing.T) {
	t.Parallel()

	assert.Nil(t, Split("", 1000, 200))
	assert.Nil(t, Split("   \n\n  ", 1000, 200))
}

func TestSplit_RespectsChunkSize(t *testing.T) {
	t.Parallel()

	var b strings.Builder
	for range 50 {
		b.WriteString("Kaladin leads Bridge Four through the chasms of the Shattered Plains. ")
	}

	chunks := Split(b.String(), 300, 50)
	require.NotEmpty(t, chunks)
	for i, c := range chunks {
		assert.LessOrEqual(t, len(c), 300, "chunk %d exceeds size", i)
		assert.NotEmpty(t, strings.TrimSpace(c), "chunk %d is blank", i)
	}
}

func TestSplit_PrefersParagraphBoundaries(t *testing.T) {
	t.Parallel()

	para1 := strings.Repeat("a", 400)
	para2 := strings.Repeat("b", 400)
	chunks := Split(para1+"\n\n"+para2, 500, 100)

	require.Len(t, chunks, 2)
	assert.Equal(t, para1, chunks[0])
	assert.Equal(t, para2, chunks[1])
}

func TestSplit_HardSplitUnbrokenRun(t *testing.T) {
	t.Parallel()

	text := strings.Repeat("x", 2500)
	chunks := Split(text, 1000, 200)

	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 1000)
	}
	// Consecutive windows share overlap characters, so the total exceeds
	// the input length.
	total := 0
	for _, c := range chunks {
		total += len(c)
	}
	assert.Greater(t, total, len(text))
}

func TestSplit_OverlapCarriesContext(t *testing.T) {
	t.Parallel()

	words := []string{"alpha", "bravo", "charlie", "delta", "echo", "foxtrot", "golf", "hotel"}
	text := strings.Join(words, " ")

	chunks := Split(text, 20, 10)
	require.Greater(t, len(chunks), 1)

	// Every chunk opens with context carried over from its predecessor.
	for i := 1; i < len(chunks); i++ {
		first := strings.Fields(chunks[i])[0]
		assert.Contains(t, strings.Fields(chunks[i-1]), first,
			"chunk %d does not carry overlap from chunk %d", i, i-1)
	}
}

func TestSplit_CoversAllContent(t *testing.T) {
	t.Parallel()

	paras := []string{
		"Kaladin was born in Hearthstone, the son of a surgeon.",
		"He joined Amaram's army to protect his brother Tien.",
		"After Tien's death he was branded a slave and sold to bridge crews.",
		"On the Shattered Plains he spoke the Words and became a Radiant.",
	}
	text := strings.Join(paras, "\n\n")

	chunks := Split(text, 120, 30)
	joined := strings.Join(chunks, "\n")
	for _, p := range paras {
		first := strings.Fields(p)[0]
		assert.Contains(t, joined, first, "content from paragraph lost: %q", p)
	}
}
