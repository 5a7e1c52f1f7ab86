package rag

import (
	"strings"

	"github.com/lorekeep/lorekeep/internal/passage"
)

// Assemble builds the synthesis context from retrieved passages: the
// first topK passages rendered as "[Title]\ntext" blocks separated by
// blank lines, plus one attribution per included passage in the same
// order.
//
// Assemble is a pure function of its inputs; assembling the same
// passages twice yields identical output.
func Assemble(passages []passage.Passage, topK int) (string, []Attribution) {
	if topK > len(passages) {
		topK = len(passages)
	}
	if topK <= 0 {
		return "", []Attribution{}
	}

	blocks := make([]string, 0, topK)
	sources := make([]Attribution, 0, topK)
	for _, p := range passages[:topK] {
		blocks = append(blocks, "["+p.Title+"]\n"+p.Content)
		sources = append(sources, Attribution{
			Title:   p.Title,
			ChunkID: p.ChunkID,
			Source:  p.Source,
		})
	}

	return strings.Join(blocks, "\n\n"), sources
}

// dedupe keeps the first occurrence of each passage ID, preserving
// arrival order across phrasings.
func dedupe(passages []passage.Passage) []passage.Passage {
	seen := make(map[string]struct{}, len(passages))
	out := passages[:0:0]
	for _, p := range passages {
		if _, ok := seen[p.ID]; ok {
			continue
		}
		seen[p.ID] = struct{}{}
		out = append(out, p)
	}
	return out
}
