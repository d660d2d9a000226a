package ingest

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/zhouzirui/news-rag/backend/internal/model/rag"
)

// lineSplitter treats every non-empty line as a chunk.
type lineSplitter struct{}

func (lineSplitter) Split(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

type fakeEmbedder struct {
	calls int
	err   error
}

func (f *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{float32(len(texts[i]))}
	}
	return out, nil
}

type fakeIndexer struct {
	size    int
	batches [][]rag.Point
}

func (f *fakeIndexer) RecreateCollection(_ context.Context, size int) error {
	f.size = size
	return nil
}

func (f *fakeIndexer) Upsert(_ context.Context, points []rag.Point) error {
	f.batches = append(f.batches, append([]rag.Point(nil), points...))
	return nil
}

func TestRunBuildsPointsAndBatches(t *testing.T) {
	indexer := &fakeIndexer{}
	svc := NewService(lineSplitter{}, &fakeEmbedder{}, indexer, 1024, 3)

	articles := []rag.Article{
		{Title: "A", URL: "https://a", Text: "a1\na2"},
		{Title: "B", URL: "https://b", Text: ""},
		{Title: "C", URL: "https://c", Text: "c1\nc2\nc3"},
	}

	stats, err := svc.Run(context.Background(), articles)
	if err != nil {
		t.Fatalf("Run err: %v", err)
	}
	if indexer.size != 1024 {
		t.Fatalf("expected collection size 1024, got %d", indexer.size)
	}
	if stats.Articles != 2 || stats.Skipped != 1 || stats.Points != 5 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	// article A stays pending (2 < 3); C pushes the batch to 5 and flushes it.
	if len(indexer.batches) != 1 || len(indexer.batches[0]) != 5 {
		t.Fatalf("unexpected batches %v", indexer.batches)
	}

	wantIDs := []uint64{0, 1, 20, 21, 22}
	for i, p := range indexer.batches[0] {
		if p.ID != wantIDs[i] {
			t.Fatalf("point %d: expected id %d, got %d", i, wantIDs[i], p.ID)
		}
	}
	last := indexer.batches[0][4]
	if last.Payload.Title != "C" || last.Payload.URL != "https://c" || last.Payload.Text != "c3" {
		t.Fatalf("unexpected payload %+v", last.Payload)
	}
}

func TestRunFlushesRemainder(t *testing.T) {
	indexer := &fakeIndexer{}
	svc := NewService(lineSplitter{}, &fakeEmbedder{}, indexer, 8, 0)

	stats, err := svc.Run(context.Background(), []rag.Article{{Text: "only"}})
	if err != nil {
		t.Fatalf("Run err: %v", err)
	}
	if stats.Points != 1 || len(indexer.batches) != 1 {
		t.Fatalf("expected remainder flush, got %+v / %v", stats, indexer.batches)
	}
}

func TestRunStopsOnEmbeddingFailure(t *testing.T) {
	indexer := &fakeIndexer{}
	embedder := &fakeEmbedder{err: errors.New("quota")}
	svc := NewService(lineSplitter{}, embedder, indexer, 8, 32)

	_, err := svc.Run(context.Background(), []rag.Article{{Text: "x"}, {Text: "y"}})
	if err == nil {
		t.Fatal("expected error")
	}
	if embedder.calls != 1 || len(indexer.batches) != 0 {
		t.Fatalf("expected fail fast, got %d calls and %d batches", embedder.calls, len(indexer.batches))
	}
}
