package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/lorekeep/lorekeep/internal/rag"
)

// maxRequestBody bounds the /chat request body size.
const maxRequestBody = 64 * 1024

// Asker answers a question within a session. Implemented by
// rag.Pipeline; tests substitute stubs.
type Asker interface {
	Ask(ctx context.Context, sessionID, question string, topK int) (*rag.Answer, error)
}

// ChatHandler handles the question answering endpoint.
type ChatHandler struct {
	asker  Asker
	logger *slog.Logger
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(asker Asker, logger *slog.Logger) *ChatHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChatHandler{asker: asker, logger: logger}
}

// RegisterRoutes registers chat routes on the given mux.
func (h *ChatHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /chat", h.handleChat)
}

// ChatRequest is the /chat request body.
type ChatRequest struct {
	SessionID string `json:"session_id"`
	Question  string `json:"question"`
	TopK      int    `json:"top_k"`
}

// handleChat answers a question within a session.
//
// Request body: {"session_id": "...", "question": "...", "top_k": 4}
// Response: {"answer": "...", "sources": [{"title": "...", "chunk_id": 0, "source": null}]}
func (h *ChatHandler) handleChat(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "request body must be valid JSON")
		return
	}

	req.SessionID = strings.TrimSpace(req.SessionID)
	req.Question = strings.TrimSpace(req.Question)
	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "missing_session_id", "session_id is required")
		return
	}
	if req.Question == "" {
		writeError(w, http.StatusBadRequest, "missing_question", "question is required")
		return
	}
	if req.TopK < 0 {
		writeError(w, http.StatusBadRequest, "invalid_top_k", "top_k must not be negative")
		return
	}

	answer, err := h.asker.Ask(r.Context(), req.SessionID, req.Question, req.TopK)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			// Client went away; nothing useful to write.
			return
		}
		h.logger.Error("ask failed", "session_id", req.SessionID, "error", err)
		writeError(w, http.StatusBadGateway, "ask_failed", "failed to answer the question")
		return
	}

	writeJSON(w, http.StatusOK, answer)
}
