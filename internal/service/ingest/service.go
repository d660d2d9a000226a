package ingest

import (
	"context"
	"fmt"
	"log"

	"github.com/zhouzirui/news-rag/backend/internal/model/rag"
)

// DefaultBatchSize is the number of points sent per upsert.
const DefaultBatchSize = 32

// Splitter cuts article text into chunks.
type Splitter interface {
	Split(text string) []string
}

// BatchEmbedder embeds many texts in one upstream call.
type BatchEmbedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Indexer owns the vector collection.
type Indexer interface {
	RecreateCollection(ctx context.Context, size int) error
	Upsert(ctx context.Context, points []rag.Point) error
}

// Stats summarizes one ingest run.
type Stats struct {
	Articles int
	Skipped  int
	Points   int
}

// Service chunks articles, embeds the chunks and upserts them into a fresh collection.
type Service struct {
	splitter  Splitter
	embedder  BatchEmbedder
	indexer   Indexer
	dimension int
	batchSize int
}

// NewService creates an ingest service that builds a collection of the given
// vector dimension. batchSize < 1 means DefaultBatchSize.
func NewService(splitter Splitter, embedder BatchEmbedder, indexer Indexer, dimension, batchSize int) *Service {
	if batchSize < 1 {
		batchSize = DefaultBatchSize
	}
	return &Service{
		splitter:  splitter,
		embedder:  embedder,
		indexer:   indexer,
		dimension: dimension,
		batchSize: batchSize,
	}
}

// Run replaces the collection contents with the given articles.
// Point ids follow articleIndex*10 + chunkIndex.
func (s *Service) Run(ctx context.Context, articles []rag.Article) (Stats, error) {
	var stats Stats

	if err := s.indexer.RecreateCollection(ctx, s.dimension); err != nil {
		return stats, fmt.Errorf("recreate collection: %w", err)
	}

	var pending []rag.Point
	for idx, article := range articles {
		chunks := s.splitter.Split(article.Text)
		if len(chunks) == 0 {
			stats.Skipped++
			continue
		}

		vectors, err := s.embedder.EmbedBatch(ctx, chunks)
		if err != nil {
			return stats, fmt.Errorf("embed article %d: %w", idx, err)
		}

		for i, chunk := range chunks {
			pending = append(pending, rag.Point{
				ID:     uint64(idx*10 + i),
				Vector: vectors[i],
				Payload: rag.Passage{
					Text:  chunk,
					Title: article.Title,
					URL:   article.URL,
				},
			})
		}
		stats.Articles++

		if len(pending) >= s.batchSize {
			if err := s.indexer.Upsert(ctx, pending); err != nil {
				return stats, fmt.Errorf("upsert batch: %w", err)
			}
			stats.Points += len(pending)
			log.Printf("[ingest] uploaded %d articles", idx+1)
			pending = nil
		}
	}

	if len(pending) > 0 {
		if err := s.indexer.Upsert(ctx, pending); err != nil {
			return stats, fmt.Errorf("upsert remaining: %w", err)
		}
		stats.Points += len(pending)
	}

	log.Printf("[ingest] done: articles=%d skipped=%d points=%d", stats.Articles, stats.Skipped, stats.Points)
	return stats, nil
}
