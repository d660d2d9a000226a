// Package rag answers a query by retrieving passages and asking the model.
//
// Every call is independent: earlier turns of a session are never fed back
// into the prompt.
package rag

import (
	"context"
	"fmt"
	"log"

	"github.com/cloudwego/eino/components/prompt"

	ragmodel "github.com/zhouzirui/news-rag/backend/internal/model/rag"
	"github.com/zhouzirui/news-rag/backend/internal/service/ai"
)

// DefaultTopK is the number of passages retrieved per query.
const DefaultTopK = 5

// Embedder turns a query into a vector.
type Embedder interface {
	Embed(ctx context.Context, query string) ([]float32, error)
}

// Retriever returns the passages closest to a vector.
type Retriever interface {
	Search(ctx context.Context, vector []float32, topK int) ([]ragmodel.Passage, error)
}

// Generator produces answer text from a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	GenerateStream(ctx context.Context, prompt string, onToken ai.TokenFunc) (string, error)
}

// Service is the answer orchestrator.
type Service struct {
	embedder  Embedder
	retriever Retriever
	generator Generator
	template  prompt.ChatTemplate
	topK      int
}

// NewService wires the orchestrator. topK < 1 falls back to DefaultTopK.
func NewService(embedder Embedder, retriever Retriever, generator Generator, topK int) *Service {
	if topK < 1 {
		topK = DefaultTopK
	}
	return &Service{
		embedder:  embedder,
		retriever: retriever,
		generator: generator,
		template:  newPromptTemplate(),
		topK:      topK,
	}
}

// AnswerQuery runs embed -> search -> prompt -> generate. When onToken is
// non-nil the answer is streamed through it chunk by chunk; otherwise the
// model is called in batch mode.
func (s *Service) AnswerQuery(ctx context.Context, query string, onToken ai.TokenFunc) (string, error) {
	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return "", fmt.Errorf("embed query: %w", err)
	}

	passages, err := s.retriever.Search(ctx, vector, s.topK)
	if err != nil {
		return "", fmt.Errorf("search passages: %w", err)
	}
	log.Printf("[rag] retrieved %d passages", len(passages))

	promptText, err := s.BuildPrompt(ctx, query, passages)
	if err != nil {
		return "", err
	}

	if onToken == nil {
		answer, err := s.generator.Generate(ctx, promptText)
		if err != nil {
			return "", fmt.Errorf("generate answer: %w", err)
		}
		return answer, nil
	}

	answer, err := s.generator.GenerateStream(ctx, promptText, onToken)
	if err != nil {
		return answer, fmt.Errorf("stream answer: %w", err)
	}
	return answer, nil
}
