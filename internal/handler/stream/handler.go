package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/news-rag/backend/internal/model/chat"
	"github.com/zhouzirui/news-rag/backend/internal/service/ai"
	"github.com/zhouzirui/news-rag/backend/pkg/utils"
)

// Answerer streams the answer to a query through onToken.
type Answerer interface {
	AnswerQuery(ctx context.Context, query string, onToken ai.TokenFunc) (string, error)
}

// Frame is one SSE/WebSocket payload: a token, the terminal done marker,
// or an error that ends the stream without done.
type Frame struct {
	Token string `json:"token,omitempty"`
	Done  bool   `json:"done,omitempty"`
	Error string `json:"error,omitempty"`
}

// Handler manages streaming answers via Server-Sent Events
type Handler struct {
	answerer Answerer
	store    chat.Store
}

// New creates a new stream handler
func New(answerer Answerer, store chat.Store) *Handler {
	return &Handler{
		answerer: answerer,
		store:    store,
	}
}

// RegisterRoutes registers the SSE endpoint.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat/stream", h.handleChatStream)
}

func (h *Handler) handleChatStream(w http.ResponseWriter, r *http.Request) {
	var payload chat.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := payload.Validate(); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	if err := h.HandleStreamRequest(r.Context(), w, flusher, payload.SessionID, payload.Message); err != nil {
		log.Printf("[stream] error handling request session=%s: %v", payload.SessionID, err)
	}
}

// HandleStreamRequest persists the user turn, streams the answer and, only
// if generation completed, persists the assistant turn and sends done.
func (h *Handler) HandleStreamRequest(ctx context.Context, w http.ResponseWriter, flusher http.Flusher, sessionID, userMessage string) error {
	if err := h.store.AppendMessage(ctx, sessionID, chat.UserMessage(userMessage)); err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to save message")
		return fmt.Errorf("save user message: %w", err)
	}

	utils.SetupSSEHeaders(w)
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	reply, err := h.answerer.AnswerQuery(ctx, userMessage, func(chunk string) error {
		return utils.SendSSEChunk(w, flusher, Frame{Token: chunk})
	})
	if err != nil {
		if ctx.Err() == nil {
			h.sendError(w, flusher, "answer generation failed")
		}
		return err
	}

	if err := h.store.AppendMessage(ctx, sessionID, chat.AssistantMessage(reply)); err != nil {
		h.sendError(w, flusher, "failed to save answer")
		return err
	}

	if err := utils.SendSSEChunk(w, flusher, Frame{Done: true}); err != nil {
		return err
	}

	log.Printf("[stream] completed response for session=%s, length=%d", sessionID, len(reply))
	return nil
}

func (h *Handler) sendError(w http.ResponseWriter, flusher http.Flusher, msg string) {
	if err := utils.SendSSEChunk(w, flusher, Frame{Error: msg}); err != nil {
		log.Printf("[stream] failed to send error frame: %v", err)
	}
}
