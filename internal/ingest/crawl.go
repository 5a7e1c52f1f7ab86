package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"github.com/lorekeep/lorekeep/internal/passage"
	"github.com/lorekeep/lorekeep/internal/wiki"
)

// Crawler ingests articles straight from a live MediaWiki site instead
// of an XML export. Each crawled passage records the page URL as its
// source so a later re-crawl can replace it.
type Crawler struct {
	ing      *Ingester
	logger   *slog.Logger
	maxPages int
}

// NewCrawler creates a Crawler on top of an Ingester. maxPages caps how
// many article pages one crawl visits; zero means 500.
func NewCrawler(ing *Ingester, maxPages int, logger *slog.Logger) *Crawler {
	if maxPages <= 0 {
		maxPages = 500
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Crawler{ing: ing, logger: logger, maxPages: maxPages}
}

// Crawl walks wiki article pages starting from startURL, staying on the
// start host and following only /wiki/ article links. The crawl stops
// after maxPages pages or when ctx is cancelled.
func (c *Crawler) Crawl(ctx context.Context, startURL string) (Stats, error) {
	start, err := url.Parse(startURL)
	if err != nil {
		return Stats{}, fmt.Errorf("invalid start URL: %w", err)
	}

	collector := colly.NewCollector(
		colly.AllowedDomains(start.Hostname()),
		colly.MaxDepth(3),
		colly.UserAgent("lorekeep-crawler/1.0"),
	)

	var stats Stats
	var firstErr error

	collector.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil || stats.Pages >= c.maxPages {
			r.Abort()
		}
	})

	collector.OnHTML("html", func(e *colly.HTMLElement) {
		title, text := extractArticle(e.DOM)
		if title == "" {
			return
		}

		pageURL := e.Request.URL.String()
		n, err := c.ingestCrawled(ctx, title, text, pageURL)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			return
		}
		if n == 0 {
			stats.Skipped++
			return
		}
		stats.Pages++
		stats.Chunks += n
	})

	collector.OnHTML("a[href]", func(e *colly.HTMLElement) {
		href := e.Attr("href")
		if !isArticleLink(href) {
			return
		}
		// Visit errors (already seen, depth, domain) are expected noise.
		_ = e.Request.Visit(href)
	})

	collector.OnError(func(r *colly.Response, err error) {
		c.logger.Warn("crawl request failed", "url", r.Request.URL.String(), "error", err)
	})

	if err := collector.Visit(startURL); err != nil {
		return stats, fmt.Errorf("starting crawl: %w", err)
	}
	collector.Wait()

	if firstErr != nil {
		return stats, firstErr
	}
	if err := ctx.Err(); err != nil {
		return stats, err
	}

	c.logger.Info("crawl completed",
		"start", startURL,
		"pages", stats.Pages,
		"chunks", stats.Chunks,
		"skipped", stats.Skipped,
	)
	return stats, nil
}

// ingestCrawled chunks and stores one crawled article with its page URL
// as the source.
func (c *Crawler) ingestCrawled(ctx context.Context, title, text, pageURL string) (int, error) {
	if len(text) < c.ing.cfg.MinArticleLen {
		return 0, nil
	}

	chunks := wiki.Split(text, c.ing.cfg.ChunkSize, c.ing.cfg.ChunkOverlap)
	for i, chunk := range chunks {
		chunkID := i
		p := passage.Passage{
			Title:   title,
			Source:  &pageURL,
			ChunkID: &chunkID,
			Content: chunk,
		}
		if err := c.ing.store.Upsert(ctx, p); err != nil {
			return 0, fmt.Errorf("storing %q: %w", title, err)
		}
	}
	return len(chunks), nil
}

// extractArticle pulls the heading and body text out of a rendered
// MediaWiki page. Navigation chrome, infoboxes, and edit links live
// outside (or are removed from) the selected nodes.
func extractArticle(doc *goquery.Selection) (title, text string) {
	title = strings.TrimSpace(doc.Find("#firstHeading").First().Text())
	if title == "" {
		return "", ""
	}

	content := doc.Find("#mw-content-text").First().Clone()
	content.Find("table, .infobox, .navbox, .mw-editsection, .reference, style, script").Remove()

	var paragraphs []string
	content.Find("p, h2, h3, li").Each(func(_ int, s *goquery.Selection) {
		if t := strings.TrimSpace(s.Text()); t != "" {
			paragraphs = append(paragraphs, t)
		}
	})

	return title, strings.Join(paragraphs, "\n\n")
}

// isArticleLink reports whether href points at a plain wiki article:
// under /wiki/, with no namespace colon (File:, Special:, Talk:) and no
// fragment-only self reference.
func isArticleLink(href string) bool {
	if !strings.HasPrefix(href, "/wiki/") {
		return false
	}
	rest := strings.TrimPrefix(href, "/wiki/")
	if rest == "" || strings.Contains(rest, ":") || strings.HasPrefix(rest, "#") {
		return false
	}
	return true
}
