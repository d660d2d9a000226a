package handler

import (
	"context"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/zhouzirui/news-rag/backend/internal/handler/chat"
	"github.com/zhouzirui/news-rag/backend/internal/handler/stream"
	middlewarePkg "github.com/zhouzirui/news-rag/backend/internal/middleware"
	chatModel "github.com/zhouzirui/news-rag/backend/internal/model/chat"
	"github.com/zhouzirui/news-rag/backend/internal/service/ai"
	"github.com/zhouzirui/news-rag/backend/pkg/utils"
)

// Answerer is the retrieval-augmented answer pipeline shared by all chat transports.
type Answerer interface {
	AnswerQuery(ctx context.Context, query string, onToken ai.TokenFunc) (string, error)
}

// Pinger is implemented by stores that can report their own availability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// NewRouter wires HTTP routes to core services.
func NewRouter(store chatModel.Store, answerer Answerer) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	r.Get("/", handleLiveness)
	if pinger, ok := store.(Pinger); ok {
		r.Get("/healthz", handleReadiness(pinger))
	}

	chatHandler := chat.New(store, answerer)
	streamHandler := stream.New(answerer, store)
	wsHandler := stream.NewWebSocketHandler(answerer, store)

	r.Route("/api", func(api chi.Router) {
		// Session lifecycle, history and batch chat
		chatHandler.RegisterRoutes(api)

		// Token streaming over SSE and WebSocket
		streamHandler.RegisterRoutes(api)
		wsHandler.RegisterRoutes(api)
	})

	return r
}

// handleReadiness reports 503 while the session store is unreachable.
func handleReadiness(pinger Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := pinger.Ping(r.Context()); err != nil {
			log.Printf("[health] session store unavailable: %v", err)
			utils.RespondError(w, http.StatusServiceUnavailable, "session store unavailable")
			return
		}
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func handleLiveness(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("AI Chat Backend is running"))
}
