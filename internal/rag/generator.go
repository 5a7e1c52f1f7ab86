package rag

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"golang.org/x/time/rate"

	"github.com/lorekeep/lorekeep/internal/session"
)

// ModelGenerator calls a Gemini model through Genkit. A shared rate
// limiter sits in front of every call so rewrite, expansion, and
// synthesis together stay under the provider quota.
//
// ModelGenerator is safe for concurrent use by multiple goroutines.
type ModelGenerator struct {
	g         *genkit.Genkit
	modelName string
	limiter   *rate.Limiter
	logger    *slog.Logger
}

// NewModelGenerator creates a generator for the given provider-qualified
// model name (e.g. "googleai/gemini-2.5-flash").
//
// limiter may be nil, in which case a default of 10 requests/sec with a
// burst of 30 is applied.
func NewModelGenerator(g *genkit.Genkit, modelName string, limiter *rate.Limiter, logger *slog.Logger) *ModelGenerator {
	if limiter == nil {
		limiter = rate.NewLimiter(10, 30)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &ModelGenerator{
		g:         g,
		modelName: modelName,
		limiter:   limiter,
		logger:    logger,
	}
}

// Generate renders the conversation as alternating user/model messages,
// appends prompt as the final user message, and returns the model's
// trimmed text response.
func (m *ModelGenerator) Generate(ctx context.Context, system string, history []session.Turn, prompt string) (string, error) {
	if err := m.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	messages := make([]*ai.Message, 0, len(history)+1)
	for _, turn := range history {
		switch turn.Role {
		case session.RoleAssistant:
			messages = append(messages, ai.NewModelMessage(ai.NewTextPart(turn.Content)))
		default:
			messages = append(messages, ai.NewUserMessage(ai.NewTextPart(turn.Content)))
		}
	}
	messages = append(messages, ai.NewUserMessage(ai.NewTextPart(prompt)))

	resp, err := genkit.Generate(ctx, m.g,
		ai.WithModelName(m.modelName),
		ai.WithSystem(system),
		ai.WithMessages(messages...),
	)
	if err != nil {
		return "", fmt.Errorf("generate failed: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	m.logger.Debug("model response", "model", m.modelName, "response_length", len(text))
	return text, nil
}
