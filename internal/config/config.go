package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"

	"github.com/zhouzirui/news-rag/backend/internal/apperr"
)

// Provider names accepted by LLM_PROVIDER.
const (
	ProviderGemini = "gemini"
	ProviderArk    = "ark"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server    ServerConfig
	Embedding EmbeddingConfig
	Qdrant    QdrantConfig
	AI        AIConfig
	Redis     RedisConfig
	RAG       RAGConfig
}

// Load 从环境变量加载配置。缺失的必填项不会在这里报错，交给 Validate 统一处理。
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}
	cfg.Server = server

	if err := cfg.AI.loadSampling(); err != nil {
		return nil, err
	}

	cfg.AI.Provider = strings.ToLower(strings.TrimSpace(cfg.AI.Provider))
	if cfg.AI.Provider == "" {
		cfg.AI.Provider = ProviderGemini
	}
	if cfg.RAG.TopK < 1 {
		cfg.RAG.TopK = 5
	}
	return cfg, nil
}

// Validate checks everything the API server needs and reports all missing
// variables in a single ConfigurationError.
func (c *Config) Validate() error {
	var missing []string
	missing = append(missing, c.Embedding.missing()...)
	missing = append(missing, c.Qdrant.missing()...)
	missing = append(missing, c.AI.missing()...)
	missing = append(missing, c.Redis.missing()...)
	if len(missing) > 0 {
		return apperr.NewConfigurationError(missing...)
	}
	if c.AI.Provider != ProviderGemini && c.AI.Provider != ProviderArk {
		return fmt.Errorf("invalid LLM_PROVIDER value %q", c.AI.Provider)
	}
	return nil
}

// ValidateIngest checks only what the ingest command needs.
func (c *Config) ValidateIngest() error {
	missing := append(c.Embedding.missing(), c.Qdrant.missing()...)
	if len(missing) > 0 {
		return apperr.NewConfigurationError(missing...)
	}
	return nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr string
}

// loadServerConfig 解析服务器监听地址。
func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "4000"
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":4000" 或 "127.0.0.1:4000"。
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// EmbeddingConfig 描述 Jina 向量化接口配置。
type EmbeddingConfig struct {
	APIKey  string        `env:"JINA_API_KEY"`
	BaseURL string        `env:"EMBEDDING_BASE_URL" envDefault:"https://api.jina.ai/v1"`
	Model   string        `env:"EMBEDDING_MODEL" envDefault:"jina-embeddings-v3"`
	Timeout time.Duration `env:"UPSTREAM_TIMEOUT" envDefault:"30s"`
}

func (c EmbeddingConfig) missing() []string {
	if strings.TrimSpace(c.APIKey) == "" {
		return []string{"JINA_API_KEY"}
	}
	return nil
}

// QdrantConfig 描述向量检索服务配置。
type QdrantConfig struct {
	URL        string        `env:"QDRANT_URL"`
	APIKey     string        `env:"QDRANT_API_KEY"`
	Collection string        `env:"QDRANT_COLLECTION" envDefault:"news_docs"`
	Timeout    time.Duration `env:"UPSTREAM_TIMEOUT" envDefault:"30s"`
}

func (c QdrantConfig) missing() []string {
	var out []string
	if strings.TrimSpace(c.URL) == "" {
		out = append(out, "QDRANT_URL")
	}
	if strings.TrimSpace(c.APIKey) == "" {
		out = append(out, "QDRANT_API_KEY")
	}
	return out
}

// AIConfig 描述大模型相关配置。
type AIConfig struct {
	Provider string `env:"LLM_PROVIDER" envDefault:"gemini"`

	GeminiAPIKey string `env:"GEMINI_API_KEY"`
	GeminiModel  string `env:"GEMINI_MODEL" envDefault:"gemini-2.0-flash"`

	APIKey    string `env:"ARK_API_KEY"`
	AccessKey string `env:"ARK_ACCESS_KEY"`
	SecretKey string `env:"ARK_SECRET_KEY"`
	Model     string `env:"ARK_MODEL"`
	BaseURL   string `env:"ARK_BASE_URL" envDefault:"https://ark.cn-beijing.volces.com/api/v3"`
	Region    string `env:"ARK_REGION" envDefault:"cn-beijing"`

	Temperature *float64
	TopP        *float64
	MaxTokens   *int
}

// ArkEnabled 表示是否提供了 Ark 必需的密钥。
func (c AIConfig) ArkEnabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

func (c AIConfig) missing() []string {
	switch c.Provider {
	case ProviderArk:
		if c.ArkEnabled() {
			return nil
		}
		var out []string
		if c.Model == "" {
			out = append(out, "ARK_MODEL")
		}
		if c.APIKey == "" && (c.AccessKey == "" || c.SecretKey == "") {
			out = append(out, "ARK_API_KEY")
		}
		return out
	default:
		if strings.TrimSpace(c.GeminiAPIKey) == "" {
			return []string{"GEMINI_API_KEY"}
		}
		return nil
	}
}

func (c *AIConfig) loadSampling() error {
	temperature, err := parseOptionalFloatEnv("ARK_TEMPERATURE")
	if err != nil {
		return err
	}
	topP, err := parseOptionalFloatEnv("ARK_TOP_P")
	if err != nil {
		return err
	}
	maxTokens, err := parseOptionalIntEnv("ARK_MAX_TOKENS")
	if err != nil {
		return err
	}
	c.Temperature = temperature
	c.TopP = topP
	c.MaxTokens = maxTokens
	return nil
}

// RedisConfig 描述会话存储配置。
type RedisConfig struct {
	Host       string        `env:"REDIS_URL"`
	Port       string        `env:"REDIS_PORT"`
	Username   string        `env:"REDIS_USERNAME" envDefault:"default"`
	Password   string        `env:"REDIS_PASSWORD"`
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"24h"`
}

// Addr returns host:port for the redis client.
func (c RedisConfig) Addr() string {
	return c.Host + ":" + c.Port
}

func (c RedisConfig) missing() []string {
	var out []string
	if strings.TrimSpace(c.Host) == "" {
		out = append(out, "REDIS_URL")
	}
	if strings.TrimSpace(c.Port) == "" {
		out = append(out, "REDIS_PORT")
	}
	if c.Password == "" {
		out = append(out, "REDIS_PASSWORD")
	}
	return out
}

// RAGConfig 控制检索增强的参数。
type RAGConfig struct {
	TopK int `env:"RAG_TOP_K" envDefault:"5"`
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
