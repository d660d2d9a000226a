// Package vectorsearch is a minimal REST client for the Qdrant collection
// holding the news passages.
package vectorsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/zhouzirui/news-rag/backend/internal/apperr"
	"github.com/zhouzirui/news-rag/backend/internal/config"
	"github.com/zhouzirui/news-rag/backend/internal/model/rag"
)

const (
	serviceName = "qdrant"
	// DefaultTopK is used when a caller asks for fewer than one result.
	DefaultTopK = 5
)

// Client talks to a single pre-existing collection.
type Client struct {
	url        string
	apiKey     string
	collection string
	client     *http.Client
}

// NewClient creates a Qdrant client. URL and API key are both required.
func NewClient(cfg config.QdrantConfig) (*Client, error) {
	var missing []string
	if strings.TrimSpace(cfg.URL) == "" {
		missing = append(missing, "QDRANT_URL")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		missing = append(missing, "QDRANT_API_KEY")
	}
	if len(missing) > 0 {
		return nil, apperr.NewConfigurationError(missing...)
	}

	collection := cfg.Collection
	if collection == "" {
		collection = "news_docs"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}

	return &Client{
		url:        strings.TrimRight(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		collection: collection,
		client:     &http.Client{Timeout: timeout},
	}, nil
}

type searchResponse struct {
	Result *[]struct {
		Score   float64      `json:"score"`
		Payload *rag.Passage `json:"payload"`
	} `json:"result"`
}

// Search returns up to topK payloads in the order ranked by Qdrant.
func (c *Client) Search(ctx context.Context, vector []float32, topK int) ([]rag.Passage, error) {
	if topK < 1 {
		topK = DefaultTopK
	}
	body := map[string]any{
		"vector":       vector,
		"limit":        topK,
		"with_payload": true,
	}

	var resp searchResponse
	if err := c.do(ctx, http.MethodPost, c.collectionURL("/points/search"), body, &resp); err != nil {
		return nil, err
	}
	if resp.Result == nil {
		return nil, apperr.Upstream(serviceName, errors.New("response has no result field"))
	}

	passages := make([]rag.Passage, 0, len(*resp.Result))
	for _, hit := range *resp.Result {
		if hit.Payload == nil {
			continue
		}
		passages = append(passages, *hit.Payload)
	}
	return passages, nil
}

// RecreateCollection drops the collection if present and creates it again
// with cosine distance and the given vector size.
func (c *Client) RecreateCollection(ctx context.Context, size int) error {
	if size <= 0 {
		return errors.New("invalid vector size")
	}
	if err := c.do(ctx, http.MethodDelete, c.collectionURL(""), nil, nil); err != nil {
		var upErr *apperr.UpstreamError
		if !errors.As(err, &upErr) || upErr.StatusCode != http.StatusNotFound {
			return err
		}
	}
	body := map[string]any{
		"vectors": map[string]any{
			"size":     size,
			"distance": "Cosine",
		},
	}
	return c.do(ctx, http.MethodPut, c.collectionURL(""), body, nil)
}

// Upsert writes points and waits for them to be indexed.
func (c *Client) Upsert(ctx context.Context, points []rag.Point) error {
	if len(points) == 0 {
		return nil
	}
	items := make([]map[string]any, len(points))
	for i, p := range points {
		items[i] = map[string]any{
			"id":      p.ID,
			"vector":  p.Vector,
			"payload": p.Payload,
		}
	}
	return c.do(ctx, http.MethodPut, c.collectionURL("/points?wait=true"), map[string]any{"points": items}, nil)
}

func (c *Client) collectionURL(suffix string) string {
	return fmt.Sprintf("%s/collections/%s%s", c.url, c.collection, suffix)
}

func (c *Client) do(ctx context.Context, method, url string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode qdrant request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("build qdrant request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return apperr.Upstream(serviceName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &apperr.UpstreamError{
			Service:    serviceName,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%s %s: %s", method, url, strings.TrimSpace(string(msg))),
		}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperr.Upstream(serviceName, fmt.Errorf("decode response: %w", err))
	}
	return nil
}
