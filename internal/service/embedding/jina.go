// Package embedding turns text into vectors through the Jina embeddings API.
// Jina speaks the OpenAI embeddings wire format, so the go-openai client is
// pointed at its base URL.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/zhouzirui/news-rag/backend/internal/apperr"
	"github.com/zhouzirui/news-rag/backend/internal/config"
)

const serviceName = "embedding"

// Client is a Jina embeddings client.
type Client struct {
	client *openai.Client
	model  string
}

// NewClient creates an embeddings client. It fails with a ConfigurationError
// when no API key is configured.
func NewClient(cfg config.EmbeddingConfig) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, apperr.NewConfigurationError("JINA_API_KEY")
	}

	oaCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oaCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	oaCfg.HTTPClient = &http.Client{Timeout: timeout}

	model := cfg.Model
	if model == "" {
		model = "jina-embeddings-v3"
	}

	return &Client{
		client: openai.NewClientWithConfig(oaCfg),
		model:  model,
	}, nil
}

// Embed returns the embedding of a single query.
func (c *Client) Embed(ctx context.Context, query string) ([]float32, error) {
	vectors, err := c.create(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch embeds several texts in one request. The result is aligned
// with the input order.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	vectors, err := c.create(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(texts) {
		return nil, apperr.Upstream(serviceName, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(vectors)))
	}
	return vectors, nil
}

func (c *Client) create(ctx context.Context, input []string) ([][]float32, error) {
	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: input,
		Model: openai.EmbeddingModel(c.model),
	})
	if err != nil {
		return nil, wrapError(err)
	}
	if len(resp.Data) == 0 {
		return nil, apperr.Upstream(serviceName, errors.New("response has no embeddings"))
	}

	data := resp.Data
	sort.SliceStable(data, func(i, j int) bool { return data[i].Index < data[j].Index })

	out := make([][]float32, 0, len(data))
	for _, item := range data {
		if len(item.Embedding) == 0 {
			return nil, apperr.Upstream(serviceName, fmt.Errorf("empty embedding at index %d", item.Index))
		}
		out = append(out, item.Embedding)
	}
	return out, nil
}

func wrapError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &apperr.UpstreamError{Service: serviceName, StatusCode: apiErr.HTTPStatusCode, Err: err}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &apperr.UpstreamError{Service: serviceName, StatusCode: reqErr.HTTPStatusCode, Err: err}
	}
	return apperr.Upstream(serviceName, err)
}
