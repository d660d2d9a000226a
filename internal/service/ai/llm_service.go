package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/news-rag/backend/internal/apperr"
	"github.com/zhouzirui/news-rag/backend/internal/config"
)

const serviceName = "generation"

// TokenFunc receives generated text chunks in arrival order. Returning an
// error stops the stream.
type TokenFunc func(chunk string) error

// Service encapsulates answer generation over the configured chat model.
type Service struct {
	chain compose.Runnable[string, *schema.Message]
}

// NewService creates the chat model described by cfg and compiles the
// generation chain around it.
func NewService(ctx context.Context, cfg config.AIConfig) (*Service, error) {
	chatModel, err := NewChatModel(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewServiceWithModel(ctx, chatModel)
}

// NewServiceWithModel compiles the generation chain around an existing model.
func NewServiceWithModel(ctx context.Context, chatModel model.ChatModel) (*Service, error) {
	chain := compose.NewChain[string, *schema.Message]()
	chain.AppendLambda(compose.InvokableLambda(promptToMessages))
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile generation chain: %w", err)
	}

	return &Service{chain: runnable}, nil
}

func promptToMessages(_ context.Context, prompt string) ([]*schema.Message, error) {
	return []*schema.Message{schema.UserMessage(prompt)}, nil
}

// Generate returns the complete answer for prompt.
func (s *Service) Generate(ctx context.Context, prompt string) (string, error) {
	response, err := s.chain.Invoke(ctx, prompt)
	if err != nil {
		return "", apperr.Upstream(serviceName, err)
	}

	log.Printf("[ai] generated response length=%d", len(response.Content))
	return response.Content, nil
}

// Stream starts generation and returns the chunk stream. The caller owns
// the reader and must Close it; closing early abandons the upstream call.
func (s *Service) Stream(ctx context.Context, prompt string) (*schema.StreamReader[*schema.Message], error) {
	stream, err := s.chain.Stream(ctx, prompt)
	if err != nil {
		return nil, apperr.Upstream(serviceName, err)
	}
	return stream, nil
}

// GenerateStream streams the answer to onToken and returns the full text.
// Chunks already delivered are not retracted when the stream later fails.
func (s *Service) GenerateStream(ctx context.Context, prompt string, onToken TokenFunc) (string, error) {
	stream, err := s.Stream(ctx, prompt)
	if err != nil {
		return "", err
	}
	defer stream.Close()

	var full strings.Builder
	for {
		chunk, recvErr := stream.Recv()
		if errors.Is(recvErr, io.EOF) {
			break
		}
		if recvErr != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return full.String(), ctxErr
			}
			return full.String(), apperr.Upstream(serviceName, recvErr)
		}
		if chunk == nil || chunk.Content == "" {
			continue
		}

		full.WriteString(chunk.Content)
		if onToken != nil {
			if err := onToken(chunk.Content); err != nil {
				return full.String(), err
			}
		}
	}

	log.Printf("[ai] streamed response length=%d", full.Len())
	return full.String(), nil
}
