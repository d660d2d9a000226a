package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	"github.com/zhouzirui/news-rag/backend/internal/apperr"
)

// GeminiChatModel adapts the Gemini API to eino's ChatModel so it can sit
// in the same chain as the Ark model.
type GeminiChatModel struct {
	client    *genai.Client
	modelName string
}

// NewGeminiChatModel creates a Gemini-backed chat model using an API key.
func NewGeminiChatModel(ctx context.Context, apiKey, modelName string) (*GeminiChatModel, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, apperr.NewConfigurationError("GEMINI_API_KEY")
	}
	return newGeminiChatModel(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}, modelName)
}

func newGeminiChatModel(ctx context.Context, clientCfg *genai.ClientConfig, modelName string) (*GeminiChatModel, error) {
	if modelName == "" {
		modelName = "gemini-2.0-flash"
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("creating Gemini client: %w", err)
	}

	return &GeminiChatModel{client: client, modelName: modelName}, nil
}

// Generate implements model.BaseChatModel.
func (g *GeminiChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	contents, cfg := g.buildRequest(input, opts)

	res, err := g.client.Models.GenerateContent(ctx, g.modelName, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini generate content: %w", err)
	}
	return schema.AssistantMessage(res.Text(), nil), nil
}

// Stream implements model.BaseChatModel. Chunks are pumped from the Gemini
// stream into an eino pipe. Closing the returned reader stops the pump at the
// next chunk, which cancels the upstream request.
func (g *GeminiChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	contents, cfg := g.buildRequest(input, opts)

	reader, writer := schema.Pipe[*schema.Message](8)
	go func() {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()
		defer writer.Close()
		for res, err := range g.client.Models.GenerateContentStream(ctx, g.modelName, contents, cfg) {
			if err != nil {
				writer.Send(nil, fmt.Errorf("gemini stream: %w", err))
				return
			}
			text := res.Text()
			if text == "" {
				continue
			}
			if closed := writer.Send(schema.AssistantMessage(text, nil), nil); closed {
				return
			}
		}
	}()

	return reader, nil
}

// BindTools implements model.ChatModel. Tool calling is not used here.
func (g *GeminiChatModel) BindTools(tools []*schema.ToolInfo) error {
	if len(tools) > 0 {
		return errors.New("gemini chat model: tools are not supported")
	}
	return nil
}

func (g *GeminiChatModel) buildRequest(input []*schema.Message, opts []model.Option) ([]*genai.Content, *genai.GenerateContentConfig) {
	options := model.GetCommonOptions(&model.Options{}, opts...)

	cfg := &genai.GenerateContentConfig{
		Temperature: options.Temperature,
		TopP:        options.TopP,
	}
	if options.MaxTokens != nil {
		cfg.MaxOutputTokens = int32(*options.MaxTokens)
	}

	var system []string
	contents := make([]*genai.Content, 0, len(input))
	for _, msg := range input {
		switch msg.Role {
		case schema.System:
			system = append(system, msg.Content)
		case schema.Assistant:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleUser))
		}
	}
	if len(system) > 0 {
		cfg.SystemInstruction = genai.NewContentFromText(strings.Join(system, "\n\n"), genai.RoleUser)
	}

	return contents, cfg
}
