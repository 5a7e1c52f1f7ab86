package passage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTitle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		title string
		want  string
	}{
		{"simple", "Kaladin", "kaladin"},
		{"spaces to underscores", "Kaladin Stormblessed", "kaladin_stormblessed"},
		{"mixed case", "The WAY of Kings", "the_way_of_kings"},
		{"collapses whitespace", "The  Way\tof  Kings", "the_way_of_kings"},
		{"trims edges", "  Szeth  ", "szeth"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, NormalizeTitle(tt.title))
		})
	}
}

func TestMakeID(t *testing.T) {
	t.Parallel()

	chunk := 3
	assert.Equal(t, "kaladin_stormblessed#3", MakeID("Kaladin Stormblessed", &chunk))
	assert.Equal(t, "kaladin_stormblessed", MakeID("Kaladin Stormblessed", nil))

	zero := 0
	assert.Equal(t, "szeth#0", MakeID("Szeth", &zero))
}

func TestMakeID_Deterministic(t *testing.T) {
	t.Parallel()

	// Variant spellings of the same title must collapse to the same ID so
	// re-ingestion overwrites instead of duplicating.
	c := 1
	assert.Equal(t, MakeID("the way of kings", &c), MakeID("The  Way of KINGS", &c))
}
