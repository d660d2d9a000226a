package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// IngestConfig tunes the offline fetch and ingest commands. Credentials still
// come from the environment; this file only shapes fetching, chunking and batching.
type IngestConfig struct {
	Fetch     FetchConfig   `yaml:"fetch"`
	Chunker   ChunkerConfig `yaml:"chunker"`
	BatchSize int           `yaml:"batch_size"`
	Limit     int           `yaml:"limit"`
	Dimension int           `yaml:"dimension"`
}

// FetchConfig configures corpus collection from RSS feeds.
type FetchConfig struct {
	Feeds       []string `yaml:"feeds"`
	Limit       int      `yaml:"limit"`
	TimeoutSecs int      `yaml:"timeout_secs"`
}

// Timeout returns the per-request timeout for feed and page downloads.
func (c FetchConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// ChunkerConfig configures how article text is split into windows.
type ChunkerConfig struct {
	MaxChars int `yaml:"max_chars"`
	Overlap  int `yaml:"overlap"`
}

// LoadIngest reads an ingest config from path. An empty path or a missing file
// yields defaults. Keys present in the file replace the defaults, including
// explicit zeros such as `overlap: 0`.
func LoadIngest(path string) (*IngestConfig, error) {
	cfg := defaultIngestConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read ingest config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse ingest config: %w", err)
	}
	return cfg, nil
}

func defaultIngestConfig() *IngestConfig {
	return &IngestConfig{
		Fetch: FetchConfig{
			Feeds: []string{
				"https://feeds.bbci.co.uk/news/in_pictures/rss.xml",
				"http://rss.cnn.com/rss/cnn_tech.rss",
				"https://feeds.bbci.co.uk/news/stories/rss.xml",
				"https://feeds.bbci.co.uk/news/have_your_say/rss.xml",
			},
			Limit:       60,
			TimeoutSecs: 30,
		},
		Chunker:   ChunkerConfig{MaxChars: 800, Overlap: 100},
		BatchSize: 32,
		Limit:     50,
		Dimension: 1024,
	}
}
