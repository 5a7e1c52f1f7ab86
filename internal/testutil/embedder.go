package testutil

import (
	"context"
	"hash/fnv"
	"math"
	"os"
	"testing"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/core/api"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"

	"github.com/lorekeep/lorekeep/internal/passage"
)

// MockEmbedder implements ai.Embedder with deterministic fake vectors.
//
// The embedding is derived from an FNV hash of the input text, so equal
// texts always embed identically and different texts almost never collide.
// That is enough for store round-trip tests where real semantics do not
// matter.
type MockEmbedder struct {
	Err       error // returned from Embed when non-nil
	CallCount int
	LastInput string
}

func (m *MockEmbedder) Name() string { return "mock-embedder" }

func (m *MockEmbedder) Register(r api.Registry) {}

func (m *MockEmbedder) Embed(ctx context.Context, req *ai.EmbedRequest) (*ai.EmbedResponse, error) {
	m.CallCount++

	if len(req.Input) > 0 && len(req.Input[0].Content) > 0 {
		m.LastInput = req.Input[0].Content[0].Text
	}

	if m.Err != nil {
		return nil, m.Err
	}

	return &ai.EmbedResponse{
		Embeddings: []*ai.Embedding{
			{Embedding: deterministicVector(m.LastInput)},
		},
	}, nil
}

// deterministicVector produces a unit-norm vector seeded by the text.
func deterministicVector(text string) []float32 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	seed := h.Sum64()

	vec := make([]float32, passage.VectorDimension)
	var norm float64
	for i := range vec {
		// xorshift keeps the sequence reproducible without math/rand state
		seed ^= seed << 13
		seed ^= seed >> 7
		seed ^= seed << 17
		v := float64(int64(seed%2000)-1000) / 1000
		vec[i] = float32(v)
		norm += v * v
	}

	norm = math.Sqrt(norm)
	if norm == 0 {
		vec[0] = 1
		return vec
	}
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec
}

// EmbedderSetup contains resources for tests that exercise the real
// Gemini embedder.
type EmbedderSetup struct {
	Embedder ai.Embedder
	Genkit   *genkit.Genkit
}

// SetupEmbedder creates a Google AI embedder for integration testing.
// Skips the test when GEMINI_API_KEY is not set.
func SetupEmbedder(t *testing.T) *EmbedderSetup {
	t.Helper()

	if os.Getenv("GEMINI_API_KEY") == "" {
		t.Skip("GEMINI_API_KEY not set - skipping test requiring embedder")
	}

	g := genkit.Init(context.Background(),
		genkit.WithPlugins(&googlegenai.GoogleAI{}))

	return &EmbedderSetup{
		Embedder: googlegenai.GoogleAIEmbedder(g, "gemini-embedding-001"),
		Genkit:   g,
	}
}
