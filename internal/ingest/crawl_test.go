package ingest

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorekeep/lorekeep/internal/log"
)

func wikiPage(title, body string, links ...string) string {
	var b strings.Builder
	b.WriteString(`<html><body><h1 id="firstHeading">`)
	b.WriteString(title)
	b.WriteString(`</h1><div id="mw-content-text">`)
	b.WriteString(body)
	for _, l := range links {
		fmt.Fprintf(&b, `<a href="%s">%s</a>`, l, l)
	}
	b.WriteString(`</div></body></html>`)
	return b.String()
}

func TestCrawl(t *testing.T) {
	t.Parallel()

	kaladinBody := "<p>" + strings.Repeat("Kaladin leads Bridge Four. ", 10) + "</p>"
	shallanBody := "<p>" + strings.Repeat("Shallan is a Lightweaver. ", 10) + "</p>"

	mux := http.NewServeMux()
	mux.HandleFunc("/wiki/Kaladin", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = fmt.Fprint(w, wikiPage("Kaladin", kaladinBody,
			"/wiki/Shallan", "/wiki/Special:Random", "/wiki/File:Kaladin.png"))
	})
	mux.HandleFunc("/wiki/Shallan", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = fmt.Fprint(w, wikiPage("Shallan", shallanBody))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	store := &mockStore{}
	ing := newTestIngester(t, store, 50)
	crawler := NewCrawler(ing, 10, log.NewNop())

	stats, err := crawler.Crawl(context.Background(), srv.URL+"/wiki/Kaladin")
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Pages)
	assert.Equal(t, stats.Chunks, len(store.all()))

	titles := map[string]bool{}
	for _, p := range store.all() {
		titles[p.Title] = true
		require.NotNil(t, p.Source, "crawled passages carry their page URL")
		assert.Contains(t, *p.Source, srv.URL)
	}
	assert.True(t, titles["Kaladin"])
	assert.True(t, titles["Shallan"])
}

func TestCrawl_MaxPagesCap(t *testing.T) {
	t.Parallel()

	body := "<p>" + strings.Repeat("Endless articles all the way down. ", 10) + "</p>"

	var served int
	mux := http.NewServeMux()
	mux.HandleFunc("/wiki/", func(w http.ResponseWriter, r *http.Request) {
		served++
		next := fmt.Sprintf("/wiki/Page%d", served)
		title := strings.TrimPrefix(r.URL.Path, "/wiki/")
		_, _ = fmt.Fprint(w, wikiPage(title, body, next))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	store := &mockStore{}
	ing := newTestIngester(t, store, 50)
	crawler := NewCrawler(ing, 2, log.NewNop())

	stats, err := crawler.Crawl(context.Background(), srv.URL+"/wiki/Page0")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Pages)
}

func TestCrawl_InvalidStartURL(t *testing.T) {
	t.Parallel()

	ing := newTestIngester(t, &mockStore{}, 50)
	crawler := NewCrawler(ing, 10, log.NewNop())

	_, err := crawler.Crawl(context.Background(), "://not-a-url")
	require.Error(t, err)
}

func TestExtractArticle_NoHeading(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/wiki/Bare", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = fmt.Fprint(w, `<html><body><p>No wiki chrome here.</p></body></html>`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	store := &mockStore{}
	ing := newTestIngester(t, store, 50)
	crawler := NewCrawler(ing, 10, log.NewNop())

	stats, err := crawler.Crawl(context.Background(), srv.URL+"/wiki/Bare")
	require.NoError(t, err)
	assert.Zero(t, stats.Pages)
	assert.Empty(t, store.all())
}

func TestIsArticleLink(t *testing.T) {
	t.Parallel()

	tests := []struct {
		href string
		want bool
	}{
		{"/wiki/Kaladin", true},
		{"/wiki/Kaladin_Stormblessed", true},
		{"/wiki/Special:Random", false},
		{"/wiki/File:Kaladin.png", false},
		{"/wiki/Talk:Kaladin", false},
		{"/wiki/", false},
		{"/w/index.php?title=Kaladin", false},
		{"https://elsewhere.example/wiki/Kaladin", false},
		{"#section", false},
	}

	for _, tt := range tests {
		t.Run(tt.href, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, isArticleLink(tt.href))
		})
	}
}
