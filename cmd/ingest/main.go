package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/zhouzirui/news-rag/backend/internal/chunker"
	"github.com/zhouzirui/news-rag/backend/internal/config"
	"github.com/zhouzirui/news-rag/backend/internal/model/rag"
	"github.com/zhouzirui/news-rag/backend/internal/service/embedding"
	"github.com/zhouzirui/news-rag/backend/internal/service/ingest"
	"github.com/zhouzirui/news-rag/backend/internal/service/vectorsearch"
)

func main() {
	var cfgPath, articlesPath string
	flag.StringVar(&cfgPath, "config", "", "Path to YAML ingest config (optional)")
	flag.StringVar(&articlesPath, "articles", "articles.json", "Path to the fetched articles file")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	if err := cfg.ValidateIngest(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	ingestCfg, err := config.LoadIngest(cfgPath)
	if err != nil {
		log.Fatalf("failed to load ingest config: %v", err)
	}

	articles, err := readArticles(articlesPath, ingestCfg.Limit)
	if err != nil {
		log.Fatalf("failed to read articles: %v", err)
	}
	log.Printf("[ingest] loaded %d articles from %s", len(articles), articlesPath)

	embedder, err := embedding.NewClient(cfg.Embedding)
	if err != nil {
		log.Fatalf("failed to initialize embedding client: %v", err)
	}
	indexer, err := vectorsearch.NewClient(cfg.Qdrant)
	if err != nil {
		log.Fatalf("failed to initialize vector search client: %v", err)
	}

	svc := ingest.NewService(
		chunker.NewWindowChunker(ingestCfg.Chunker.MaxChars, ingestCfg.Chunker.Overlap),
		embedder,
		indexer,
		ingestCfg.Dimension,
		ingestCfg.BatchSize,
	)

	stats, err := svc.Run(ctx, articles)
	if err != nil {
		log.Fatalf("ingest failed: %v", err)
	}
	log.Printf("Uploaded %d articles total (%d points)", stats.Articles, stats.Points)
}

func readArticles(path string, limit int) ([]rag.Article, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var articles []rag.Article
	if err := json.Unmarshal(data, &articles); err != nil {
		return nil, err
	}
	if limit > 0 && len(articles) > limit {
		articles = articles[:limit]
	}
	return articles, nil
}
