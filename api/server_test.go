package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorekeep/lorekeep/internal/log"
	"github.com/lorekeep/lorekeep/internal/rag"
)

func newTestServer(asker Asker) http.Handler {
	return NewServer(asker, nil, log.NewNop()).Handler()
}

func TestServer_Health(t *testing.T) {
	t.Parallel()

	handler := newTestServer(&stubAsker{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestServer_ReadyWithoutPool(t *testing.T) {
	t.Parallel()

	handler := newTestServer(&stubAsker{})

	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestServer_ChatRoute(t *testing.T) {
	t.Parallel()

	asker := &stubAsker{answer: &rag.Answer{Answer: "ok", Sources: []rag.Attribution{}}}
	handler := newTestServer(asker)

	req := httptest.NewRequest(http.MethodPost, "/chat",
		strings.NewReader(`{"session_id":"s1","question":"Who is Kaladin?"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	// Empty sources serialize as [], never null.
	assert.Contains(t, w.Body.String(), `"sources":[]`)
}

func TestServer_MethodNotAllowed(t *testing.T) {
	t.Parallel()

	handler := newTestServer(&stubAsker{})

	req := httptest.NewRequest(http.MethodGet, "/chat", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestServer_CORSHeaders(t *testing.T) {
	t.Parallel()

	handler := newTestServer(&stubAsker{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://example.com")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestServer_CORSPreflight(t *testing.T) {
	t.Parallel()

	handler := newTestServer(&stubAsker{})

	req := httptest.NewRequest(http.MethodOptions, "/chat", nil)
	req.Header.Set("Origin", "https://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)
}
