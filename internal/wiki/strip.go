// Package wiki converts MediaWiki markup into plain text passages:
// stripping markup, iterating XML exports, and splitting article text
// into retrieval-sized chunks.
package wiki

import (
	"regexp"
	"strings"
)

var (
	// {{...}} templates (infoboxes, citations). Matched innermost-first
	// and applied repeatedly so nested templates unwind.
	templateRe = regexp.MustCompile(`\{\{[^{}]*\}\}`)

	// [[target|label]] and [[target]] internal links, reduced to the
	// visible text.
	wikiLinkRe = regexp.MustCompile(`\[\[(?:[^|\]]*\|)?([^\]]+)\]\]`)

	// [http://... label] external links, reduced to the label.
	externalLinkRe = regexp.MustCompile(`\[https?://[^\s\]]+(?:\s+([^\]]*))?\]`)

	// <ref>...</ref> footnotes, dropped entirely.
	refRe            = regexp.MustCompile(`(?s)<ref[^>/]*>.*?</ref>`)
	refSelfClosingRe = regexp.MustCompile(`<ref[^>]*/>`)

	// Any remaining HTML-ish tags.
	htmlTagRe = regexp.MustCompile(`<[^>]+>`)

	// == Heading == markers, keeping the heading text.
	headingRe = regexp.MustCompile(`(?m)^=+\s*(.*?)\s*=+\s*$`)

	trailingSpaceRe = regexp.MustCompile(`[ \t]+\n`)
	blankLinesRe    = regexp.MustCompile(`\n{3,}`)
)

// Strip removes MediaWiki markup from article text, leaving readable
// plain text. Paragraph breaks (blank lines) are preserved so the
// chunker can split on them.
func Strip(text string) string {
	if text == "" {
		return ""
	}

	for {
		stripped := templateRe.ReplaceAllString(text, "")
		if stripped == text {
			break
		}
		text = stripped
	}

	text = wikiLinkRe.ReplaceAllString(text, "$1")
	text = externalLinkRe.ReplaceAllString(text, "$1")
	text = refRe.ReplaceAllString(text, "")
	text = refSelfClosingRe.ReplaceAllString(text, "")
	text = htmlTagRe.ReplaceAllString(text, "")
	text = headingRe.ReplaceAllString(text, "$1")

	text = strings.ReplaceAll(text, "'''", "")
	text = strings.ReplaceAll(text, "''", "")

	text = trailingSpaceRe.ReplaceAllString(text, "\n")
	text = blankLinesRe.ReplaceAllString(text, "\n\n")

	return strings.TrimSpace(text)
}
