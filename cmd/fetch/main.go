package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/zhouzirui/news-rag/backend/internal/config"
	"github.com/zhouzirui/news-rag/backend/internal/service/fetch"
)

func main() {
	var cfgPath, outPath string
	flag.StringVar(&cfgPath, "config", "", "Path to YAML ingest config (optional)")
	flag.StringVar(&outPath, "out", "articles.json", "Where to write the fetched articles")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ingestCfg, err := config.LoadIngest(cfgPath)
	if err != nil {
		log.Fatalf("failed to load ingest config: %v", err)
	}

	svc := fetch.NewService(ingestCfg.Fetch.Timeout(), ingestCfg.Fetch.Limit)
	articles, err := svc.Run(ctx, ingestCfg.Fetch.Feeds)
	if err != nil {
		log.Fatalf("fetch failed: %v", err)
	}

	data, err := json.MarshalIndent(articles, "", "  ")
	if err != nil {
		log.Fatalf("failed to encode articles: %v", err)
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		log.Fatalf("failed to write %s: %v", outPath, err)
	}
	log.Printf("Saved %d articles to %s", len(articles), outPath)
}
