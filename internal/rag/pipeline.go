package rag

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lorekeep/lorekeep/internal/passage"
	"github.com/lorekeep/lorekeep/internal/session"
)

// Pipeline defaults, used when Config fields are zero.
const (
	defaultTopK            = 4
	defaultMaxTopK         = 10
	defaultExpansions      = 2
	defaultGenerateTimeout = 60 * time.Second
	defaultSearchTimeout   = 10 * time.Second
)

// Config configures a Pipeline.
type Config struct {
	Generator Generator
	Retriever Retriever
	Sessions  *session.Registry
	Logger    *slog.Logger

	// DefaultTopK is used when a caller passes topK <= 0; MaxTopK clamps
	// oversized requests.
	DefaultTopK int
	MaxTopK     int

	// Expansions is the number of alternative phrasings requested on top
	// of the rewritten query.
	Expansions int

	// GenerateTimeout bounds each model call; SearchTimeout bounds each
	// per-phrasing retrieval.
	GenerateTimeout time.Duration
	SearchTimeout   time.Duration
}

// Pipeline answers questions over the passage store, one conversation
// per session ID.
//
// Pipeline is safe for concurrent use; asks on the same session are
// serialized by the session's call lock, asks on different sessions
// proceed in parallel.
type Pipeline struct {
	gen      Generator
	ret      Retriever
	sessions *session.Registry
	logger   *slog.Logger

	defaultTopK int
	maxTopK     int
	expansions  int
	genTimeout  time.Duration
	srchTimeout time.Duration
}

// NewPipeline creates a Pipeline from cfg, applying defaults for any
// zero tuning fields.
func NewPipeline(cfg Config) (*Pipeline, error) {
	if cfg.Generator == nil {
		return nil, fmt.Errorf("generator is required")
	}
	if cfg.Retriever == nil {
		return nil, fmt.Errorf("retriever is required")
	}
	if cfg.Sessions == nil {
		return nil, fmt.Errorf("session registry is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.DefaultTopK <= 0 {
		cfg.DefaultTopK = defaultTopK
	}
	if cfg.MaxTopK <= 0 {
		cfg.MaxTopK = defaultMaxTopK
	}
	if cfg.Expansions <= 0 {
		cfg.Expansions = defaultExpansions
	}
	if cfg.GenerateTimeout <= 0 {
		cfg.GenerateTimeout = defaultGenerateTimeout
	}
	if cfg.SearchTimeout <= 0 {
		cfg.SearchTimeout = defaultSearchTimeout
	}

	return &Pipeline{
		gen:         cfg.Generator,
		ret:         cfg.Retriever,
		sessions:    cfg.Sessions,
		logger:      cfg.Logger,
		defaultTopK: cfg.DefaultTopK,
		maxTopK:     cfg.MaxTopK,
		expansions:  cfg.Expansions,
		genTimeout:  cfg.GenerateTimeout,
		srchTimeout: cfg.SearchTimeout,
	}, nil
}

// Ask answers question within the given session's conversation.
//
// The rewritten query drives retrieval only; synthesis always sees the
// question exactly as the caller phrased it. The exchange is appended
// to session history only after synthesis succeeds, so a failed ask
// leaves the conversation unchanged.
func (p *Pipeline) Ask(ctx context.Context, sessionID, question string, topK int) (*Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("question must not be empty")
	}
	if topK <= 0 {
		topK = p.defaultTopK
	}
	if topK > p.maxTopK {
		topK = p.maxTopK
	}

	sess := p.sessions.Get(sessionID)
	sess.Lock()
	defer sess.Unlock()

	history := sess.Snapshot()

	query, err := p.rewrite(ctx, history, question)
	if err != nil {
		return nil, fmt.Errorf("rewriting question: %w", err)
	}
	phrasings, err := p.expand(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("expanding query: %w", err)
	}
	merged := p.retrieveAll(ctx, phrasings)
	contextText, sources := Assemble(merged, topK)

	answer, err := p.synthesize(ctx, history, question, contextText)
	if err != nil {
		return nil, fmt.Errorf("synthesizing answer: %w", err)
	}

	sess.AppendExchange(question, answer)

	p.logger.Info("answered question",
		"session_id", sessionID,
		"phrasings", len(phrasings),
		"passages", len(merged),
		"sources", len(sources),
	)

	return &Answer{Answer: answer, Sources: sources}, nil
}

// rewrite makes the question self-contained using conversation history.
// With no history there is nothing to resolve and no model call is
// made. A failed rewrite fails the ask; falling back to the raw
// question would mask the failure.
func (p *Pipeline) rewrite(ctx context.Context, history []session.Turn, question string) (string, error) {
	if len(history) == 0 {
		return question, nil
	}

	ctx, cancel := context.WithTimeout(ctx, p.genTimeout)
	defer cancel()

	rewritten, err := p.gen.Generate(ctx, rewriteSystem, history, question)
	if err != nil {
		return "", err
	}
	if rewritten == "" {
		return "", fmt.Errorf("model returned an empty rewrite")
	}
	return rewritten, nil
}

// expand returns the query plus up to p.expansions alternative
// phrasings. A model output with no usable lines yields the query
// alone; a failed model call fails the ask.
func (p *Pipeline) expand(ctx context.Context, query string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.genTimeout)
	defer cancel()

	prompt := fmt.Sprintf("Generate %d alternative phrasings of this query:\n\n%s", p.expansions, query)
	raw, err := p.gen.Generate(ctx, expandSystem, nil, prompt)
	if err != nil {
		return nil, err
	}

	phrasings := []string{query}
	for _, alt := range parsePhrasings(raw, p.expansions) {
		if !strings.EqualFold(alt, query) {
			phrasings = append(phrasings, alt)
		}
	}
	return phrasings, nil
}

// retrieveAll searches every phrasing and merges the results, keeping
// the first occurrence of each passage. A failed phrasing is logged and
// skipped.
func (p *Pipeline) retrieveAll(ctx context.Context, phrasings []string) []passage.Passage {
	var merged []passage.Passage
	for _, phrasing := range phrasings {
		results, err := func() ([]passage.Passage, error) {
			ctx, cancel := context.WithTimeout(ctx, p.srchTimeout)
			defer cancel()
			return p.ret.Retrieve(ctx, phrasing)
		}()
		if err != nil {
			p.logger.Warn("retrieval failed for phrasing", "phrasing", phrasing, "error", err)
			continue
		}
		merged = append(merged, results...)
	}
	return dedupe(merged)
}

// parsePhrasings splits model output into clean phrasing lines,
// stripping any numbering or bullets the model added despite
// instructions.
func parsePhrasings(raw string, limit int) []string {
	var out []string
	for line := range strings.Lines(raw) {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "0123456789.)-*• \t")
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out = append(out, line)
		if len(out) == limit {
			break
		}
	}
	return out
}

// synthesize produces the final answer from the assembled context and
// the caller's original question.
func (p *Pipeline) synthesize(ctx context.Context, history []session.Turn, question, contextText string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.genTimeout)
	defer cancel()

	prompt := fmt.Sprintf("Context:\n%s\n\nQuestion: %s", contextText, question)
	return p.gen.Generate(ctx, synthesisSystem, history, prompt)
}
