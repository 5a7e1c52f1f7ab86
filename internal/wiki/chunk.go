package wiki

import "strings"

// chunkSeparators are tried in order: paragraph breaks first, then
// lines, then words, then a hard character split as the last resort.
var chunkSeparators = []string{"\n\n", "\n", " "}

// Split divides text into chunks of at most chunkSize characters, with
// roughly overlap characters shared between consecutive chunks. Splits
// prefer paragraph boundaries, then line and word boundaries, falling
// back to a hard cut only for unbroken runs longer than chunkSize.
func Split(text string, chunkSize, overlap int) []string {
	if chunkSize <= 0 {
		return nil
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = 0
	}
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if len(text) <= chunkSize {
		return []string{text}
	}
	return splitRecursive(text, chunkSize, overlap, chunkSeparators)
}

func splitRecursive(text string, chunkSize, overlap int, seps []string) []string {
	sep := ""
	var rest []string
	for i, s := range seps {
		if strings.Contains(text, s) {
			sep = s
			rest = seps[i+1:]
			break
		}
	}
	if sep == "" {
		return hardSplit(text, chunkSize, overlap)
	}

	var chunks []string
	var pending []string
	flush := func() {
		if len(pending) > 0 {
			chunks = append(chunks, mergePieces(pending, sep, chunkSize, overlap)...)
			pending = nil
		}
	}

	for piece := range strings.SplitSeq(text, sep) {
		if piece == "" {
			continue
		}
		if len(piece) > chunkSize {
			// Oversized piece: flush accumulated small pieces, then
			// recurse with finer separators.
			flush()
			chunks = append(chunks, splitRecursive(piece, chunkSize, overlap, rest)...)
			continue
		}
		pending = append(pending, piece)
	}
	flush()

	return chunks
}

// mergePieces greedily joins pieces into chunks no longer than chunkSize,
// carrying trailing pieces totaling at most overlap characters into the
// next chunk.
func mergePieces(pieces []string, sep string, chunkSize, overlap int) []string {
	var chunks []string
	var cur []string

	for _, p := range pieces {
		if len(cur) > 0 && joinedLen(cur, sep)+len(sep)+len(p) > chunkSize {
			chunks = append(chunks, strings.Join(cur, sep))
			// Shed leading pieces until the carried tail fits within
			// overlap and leaves room for the next piece.
			for len(cur) > 0 && (joinedLen(cur, sep) > overlap ||
				joinedLen(cur, sep)+len(sep)+len(p) > chunkSize) {
				cur = cur[1:]
			}
		}
		cur = append(cur, p)
	}
	if len(cur) > 0 {
		chunks = append(chunks, strings.Join(cur, sep))
	}

	return chunks
}

func joinedLen(pieces []string, sep string) int {
	n := 0
	for i, p := range pieces {
		if i > 0 {
			n += len(sep)
		}
		n += len(p)
	}
	return n
}

// hardSplit cuts text into fixed-size windows stepping by
// chunkSize-overlap, used for unbroken runs with no separator.
func hardSplit(text string, chunkSize, overlap int) []string {
	step := chunkSize - overlap
	runes := []rune(text)

	var chunks []string
	for i := 0; i < len(runes); i += step {
		end := min(i+chunkSize, len(runes))
		chunks = append(chunks, string(runes[i:end]))
		if end == len(runes) {
			break
		}
	}
	return chunks
}
