// Package fetch builds the ingest corpus from news RSS feeds: each feed entry
// is downloaded and reduced to its readable article text.
package fetch

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"
	"github.com/mmcdole/gofeed"

	"github.com/zhouzirui/news-rag/backend/internal/model/rag"
)

// DefaultLimit caps the number of articles collected per run.
const DefaultLimit = 60

// mediaPaths mark entries whose page is a player rather than an article.
var mediaPaths = []string{"/video", "/videos", "/audio"}

// Service reads feeds and extracts article text.
type Service struct {
	client *http.Client
	parser *gofeed.Parser
	limit  int
}

// NewService creates a fetcher. A zero timeout means 30s; limit < 1 means DefaultLimit.
func NewService(timeout time.Duration, limit int) *Service {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	client := &http.Client{Timeout: timeout}

	parser := gofeed.NewParser()
	parser.Client = client

	return &Service{client: client, parser: parser, limit: limit}
}

// Run collects up to the configured limit of articles from feeds, in feed
// order. Feeds that cannot be parsed and pages that cannot be extracted are
// logged and skipped.
func (s *Service) Run(ctx context.Context, feeds []string) ([]rag.Article, error) {
	articles := make([]rag.Article, 0, s.limit)

	for _, feedURL := range feeds {
		if len(articles) >= s.limit {
			break
		}

		feed, err := s.parser.ParseURLWithContext(feedURL, ctx)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return articles, ctxErr
			}
			log.Printf("[fetch] skipping feed %s: %v", feedURL, err)
			continue
		}

		for _, item := range feed.Items {
			if len(articles) >= s.limit {
				break
			}
			if item == nil || item.Link == "" || isMediaLink(item.Link) {
				continue
			}

			article, err := s.extract(ctx, item.Link)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return articles, ctxErr
				}
				log.Printf("[fetch] skipping %s: %v", item.Link, err)
				continue
			}
			if item.Published != "" {
				published := item.Published
				article.Published = &published
			}
			articles = append(articles, article)
		}
	}

	log.Printf("[fetch] collected %d articles from %d feeds", len(articles), len(feeds))
	return articles, nil
}

func (s *Service) extract(ctx context.Context, link string) (rag.Article, error) {
	pageURL, err := url.Parse(link)
	if err != nil {
		return rag.Article{}, fmt.Errorf("parse link: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return rag.Article{}, fmt.Errorf("build request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return rag.Article{}, fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return rag.Article{}, fmt.Errorf("download: status %d", resp.StatusCode)
	}

	parsed, err := readability.FromReader(resp.Body, pageURL)
	if err != nil {
		return rag.Article{}, fmt.Errorf("extract: %w", err)
	}

	return rag.Article{
		ID:    link,
		Title: strings.TrimSpace(parsed.Title),
		Text:  strings.TrimSpace(parsed.TextContent),
		URL:   link,
	}, nil
}

func isMediaLink(link string) bool {
	for _, p := range mediaPaths {
		if strings.Contains(link, p) {
			return true
		}
	}
	return false
}
