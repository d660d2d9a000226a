package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/zhouzirui/news-rag/backend/internal/config"
	"github.com/zhouzirui/news-rag/backend/internal/handler"
	"github.com/zhouzirui/news-rag/backend/internal/service/ai"
	"github.com/zhouzirui/news-rag/backend/internal/service/chat"
	"github.com/zhouzirui/news-rag/backend/internal/service/embedding"
	"github.com/zhouzirui/news-rag/backend/internal/service/rag"
	"github.com/zhouzirui/news-rag/backend/internal/service/vectorsearch"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	// Session store
	rdb, err := chat.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer rdb.Close()
	chatService := chat.NewService(rdb, cfg.Redis.SessionTTL)

	// Retrieval pipeline
	embedder, err := embedding.NewClient(cfg.Embedding)
	if err != nil {
		log.Fatalf("failed to initialize embedding client: %v", err)
	}
	retriever, err := vectorsearch.NewClient(cfg.Qdrant)
	if err != nil {
		log.Fatalf("failed to initialize vector search client: %v", err)
	}
	aiService, err := ai.NewService(ctx, cfg.AI)
	if err != nil {
		log.Fatalf("failed to initialize AI service: %v", err)
	}
	log.Printf("AI service initialized with provider %s", cfg.AI.Provider)

	ragService := rag.NewService(embedder, retriever, aiService, cfg.RAG.TopK)

	router := handler.NewRouter(chatService, ragService)

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("News RAG backend listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
