package rag

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/zhouzirui/news-rag/backend/internal/apperr"
	ragmodel "github.com/zhouzirui/news-rag/backend/internal/model/rag"
	"github.com/zhouzirui/news-rag/backend/internal/service/ai"
)

type stubEmbedder struct {
	err   error
	calls int
}

func (s *stubEmbedder) Embed(context.Context, string) ([]float32, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return []float32{0.1, 0.2}, nil
}

type stubRetriever struct {
	passages []ragmodel.Passage
	calls    int
	topK     int
}

func (s *stubRetriever) Search(_ context.Context, _ []float32, topK int) ([]ragmodel.Passage, error) {
	s.calls++
	s.topK = topK
	return s.passages, nil
}

type stubGenerator struct {
	tokens      []string
	reply       string
	prompt      string
	batchCalls  int
	streamCalls int
}

func (s *stubGenerator) Generate(_ context.Context, prompt string) (string, error) {
	s.batchCalls++
	s.prompt = prompt
	return s.reply, nil
}

func (s *stubGenerator) GenerateStream(_ context.Context, prompt string, onToken ai.TokenFunc) (string, error) {
	s.streamCalls++
	s.prompt = prompt
	var full strings.Builder
	for _, tok := range s.tokens {
		full.WriteString(tok)
		if err := onToken(tok); err != nil {
			return full.String(), err
		}
	}
	return full.String(), nil
}

func TestAnswerQueryStreamsAndNumbersPassages(t *testing.T) {
	retriever := &stubRetriever{passages: []ragmodel.Passage{{Text: "A"}, {Text: "B"}}}
	generator := &stubGenerator{tokens: []string{"Hello", " world"}}
	svc := NewService(&stubEmbedder{}, retriever, generator, 0)

	var got []string
	answer, err := svc.AnswerQuery(context.Background(), "what?", func(chunk string) error {
		got = append(got, chunk)
		return nil
	})
	if err != nil {
		t.Fatalf("AnswerQuery err: %v", err)
	}

	first := strings.Index(generator.prompt, "(1) A")
	second := strings.Index(generator.prompt, "(2) B")
	if first < 0 || second < 0 || first > second {
		t.Fatalf("passages not numbered in order in prompt: %q", generator.prompt)
	}
	if len(got) != 2 || got[0] != "Hello" || got[1] != " world" {
		t.Fatalf("unexpected tokens %q", got)
	}
	if answer != "Hello world" {
		t.Fatalf("unexpected answer %q", answer)
	}
	if retriever.topK != DefaultTopK {
		t.Fatalf("expected topK %d, got %d", DefaultTopK, retriever.topK)
	}
}

func TestAnswerQueryBatchModeWithoutSink(t *testing.T) {
	generator := &stubGenerator{reply: "batch answer"}
	svc := NewService(&stubEmbedder{}, &stubRetriever{}, generator, 3)

	answer, err := svc.AnswerQuery(context.Background(), "q", nil)
	if err != nil {
		t.Fatalf("AnswerQuery err: %v", err)
	}
	if answer != "batch answer" || generator.batchCalls != 1 || generator.streamCalls != 0 {
		t.Fatalf("expected a single batch call, got answer=%q batch=%d stream=%d", answer, generator.batchCalls, generator.streamCalls)
	}
}

func TestAnswerQueryEmbeddingFailureStopsPipeline(t *testing.T) {
	embedder := &stubEmbedder{err: apperr.Upstream("embedding", errors.New("401"))}
	retriever := &stubRetriever{}
	generator := &stubGenerator{}
	svc := NewService(embedder, retriever, generator, 5)

	_, err := svc.AnswerQuery(context.Background(), "q", func(string) error { return nil })
	if !apperr.IsUpstream(err) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if retriever.calls != 0 || generator.batchCalls+generator.streamCalls != 0 {
		t.Fatalf("search or generation ran after embedding failed")
	}
}

func TestBuildPromptIncludesQuestionAndFallback(t *testing.T) {
	svc := NewService(&stubEmbedder{}, &stubRetriever{}, &stubGenerator{}, 5)

	got, err := svc.BuildPrompt(context.Background(), "Who won?", []ragmodel.Passage{{Text: "Team {X} won"}})
	if err != nil {
		t.Fatalf("BuildPrompt err: %v", err)
	}
	if !strings.HasPrefix(got, "Answer the question using the following passages:\n\n(1) Team {X} won\n\nQuestion: Who won?\n") {
		t.Fatalf("unexpected prompt start: %q", got)
	}
	if !strings.Contains(got, NoInformationReply) {
		t.Fatalf("prompt lacks fallback sentence: %q", got)
	}
}

func TestBuildContextEmpty(t *testing.T) {
	if got := BuildContext(nil); got != "" {
		t.Fatalf("expected empty context, got %q", got)
	}
}
