package ai

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"

	"github.com/zhouzirui/news-rag/backend/internal/apperr"
	"github.com/zhouzirui/news-rag/backend/internal/config"
)

// NewChatModel 根据 LLM_PROVIDER 创建模型实例。
func NewChatModel(ctx context.Context, cfg config.AIConfig) (model.ChatModel, error) {
	switch cfg.Provider {
	case config.ProviderArk:
		return newArkChatModel(ctx, cfg)
	case config.ProviderGemini, "":
		return NewGeminiChatModel(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.Provider)
	}
}

func newArkChatModel(ctx context.Context, c config.AIConfig) (model.ChatModel, error) {
	if !c.ArkEnabled() {
		return nil, apperr.NewConfigurationError("ARK_MODEL", "ARK_API_KEY")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	var topP *float32
	if c.TopP != nil {
		val := float32(*c.TopP)
		topP = &val
	}

	var maxTokens *int
	if c.MaxTokens != nil {
		val := *c.MaxTokens
		maxTokens = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		TopP:        topP,
	}

	return ark.NewChatModel(ctx, cfg)
}
