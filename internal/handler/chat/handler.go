package chat

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/news-rag/backend/internal/model/chat"
	"github.com/zhouzirui/news-rag/backend/internal/service/ai"
	"github.com/zhouzirui/news-rag/backend/pkg/utils"
)

// Answerer answers a single query. A nil onToken selects batch mode.
type Answerer interface {
	AnswerQuery(ctx context.Context, query string, onToken ai.TokenFunc) (string, error)
}

// Handler 会话与历史记录的HTTP处理器
type Handler struct {
	store    chat.Store
	answerer Answerer
}

// New 创建聊天处理器
func New(store chat.Store, answerer Answerer) *Handler {
	return &Handler{
		store:    store,
		answerer: answerer,
	}
}

// RegisterRoutes 注册会话相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/session", h.handleCreateSession)
	r.Delete("/session/{id}", h.handleDeleteSession)
	r.Get("/history/{id}", h.handleHistory)
	r.Post("/chat", h.handleChat)
}

// handleCreateSession 创建会话
func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.store.CreateSession(r.Context())
	if err != nil {
		log.Printf("[chat] create session failed: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	utils.RespondJSON(w, http.StatusOK, session)
}

// handleHistory 返回会话的全部消息
func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")

	messages, err := h.store.ListMessages(r.Context(), sessionID)
	if err != nil {
		log.Printf("[chat] list messages failed session=%s: %v", sessionID, err)
		utils.RespondError(w, http.StatusInternalServerError, "failed to load history")
		return
	}

	utils.RespondJSON(w, http.StatusOK, messages)
}

// handleDeleteSession 删除会话（幂等）
func (h *Handler) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")

	if err := h.store.DeleteSession(r.Context(), sessionID); err != nil {
		log.Printf("[chat] delete session failed session=%s: %v", sessionID, err)
		utils.RespondError(w, http.StatusInternalServerError, "failed to delete session")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// handleChat 非流式问答：两条消息都落库后一次性返回回答
func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var payload chat.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := payload.Validate(); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	if err := h.store.AppendMessage(ctx, payload.SessionID, chat.UserMessage(payload.Message)); err != nil {
		log.Printf("[chat] failed to save user message: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, "failed to save message")
		return
	}

	reply, err := h.answerer.AnswerQuery(ctx, payload.Message, nil)
	if err != nil {
		log.Printf("[chat] answer failed session=%s: %v", payload.SessionID, err)
		utils.RespondError(w, utils.StatusForError(err), "failed to generate answer")
		return
	}

	if err := h.store.AppendMessage(ctx, payload.SessionID, chat.AssistantMessage(reply)); err != nil {
		log.Printf("[chat] failed to save assistant message: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, "failed to save message")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]string{"reply": reply})
}
