package stream

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/zhouzirui/news-rag/backend/internal/model/chat"
)

const (
	wsReadTimeout  = 60 * time.Second
	wsWriteTimeout = 10 * time.Second
	wsPingInterval = 25 * time.Second
)

// WebSocketHandler WebSocket流式问答处理器，与 SSE 端点共享持久化语义
type WebSocketHandler struct {
	answerer Answerer
	store    chat.Store
	upgrader websocket.Upgrader
}

// NewWebSocketHandler 创建WebSocket处理器
func NewWebSocketHandler(answerer Answerer, store chat.Store) *WebSocketHandler {
	return &WebSocketHandler{
		answerer: answerer,
		store:    store,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes 注册WebSocket路由
func (h *WebSocketHandler) RegisterRoutes(r chi.Router) {
	r.Get("/chat/ws/{sessionID}", h.handleWebSocket)
}

type inboundMessage struct {
	Message string `json:"message"`
}

// handleWebSocket 处理WebSocket连接
func (h *WebSocketHandler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if strings.TrimSpace(sessionID) == "" {
		http.Error(w, "sessionID is required", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[websocket] upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	log.Printf("[websocket] new connection for session: %s", sessionID)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
		return nil
	})

	go h.pingLoop(ctx, conn)

	for {
		var msg inboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[websocket] read error: %v", err)
			}
			return
		}

		if strings.TrimSpace(msg.Message) == "" {
			if err := h.sendError(conn, chat.ErrInvalidChatRequest.Error()); err != nil {
				return
			}
			continue
		}

		// A turn can outlast the read deadline while the model is generating.
		conn.SetReadDeadline(time.Time{})
		if err := h.processTurn(ctx, conn, sessionID, msg.Message); err != nil {
			log.Printf("[websocket] turn failed session=%s: %v", sessionID, err)
		}
		conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	}
}

func (h *WebSocketHandler) processTurn(ctx context.Context, conn *websocket.Conn, sessionID, userText string) error {
	if err := h.store.AppendMessage(ctx, sessionID, chat.UserMessage(userText)); err != nil {
		h.sendError(conn, "failed to save message")
		return err
	}

	reply, err := h.answerer.AnswerQuery(ctx, userText, func(chunk string) error {
		return h.send(conn, Frame{Token: chunk})
	})
	if err != nil {
		if ctx.Err() == nil {
			h.sendError(conn, "answer generation failed")
		}
		return err
	}

	if err := h.store.AppendMessage(ctx, sessionID, chat.AssistantMessage(reply)); err != nil {
		h.sendError(conn, "failed to save answer")
		return err
	}

	return h.send(conn, Frame{Done: true})
}

func (h *WebSocketHandler) send(conn *websocket.Conn, frame Frame) error {
	conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return conn.WriteJSON(frame)
}

// sendError writes an error frame; a failed write is logged and returned.
func (h *WebSocketHandler) sendError(conn *websocket.Conn, msg string) error {
	err := h.send(conn, Frame{Error: msg})
	if err != nil {
		log.Printf("[websocket] failed to send error frame: %v", err)
	}
	return err
}

func (h *WebSocketHandler) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteTimeout)); err != nil {
				return
			}
		}
	}
}
