package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

const articlePage = `<!DOCTYPE html>
<html><head><title>%s</title></head>
<body>
<nav><a href="/">Home</a> <a href="/world">World</a></nav>
<article>
<h1>%s</h1>
<p>Central banks in several large economies signalled on Tuesday that interest rates could fall later this year, as inflation continued to ease across the region, according to officials.</p>
<p>Analysts said the shift, which had been widely expected by markets, would ease pressure on households, businesses and governments that have struggled with higher borrowing costs.</p>
<p>Stock markets rose after the announcement, with the main indexes closing at their highest level in months, while bond yields fell sharply, traders said.</p>
<p>Some economists warned, however, that cutting too early could allow price growth to pick up again, and urged policymakers to wait for further evidence before acting.</p>
</article>
<footer>Copyright</footer>
</body></html>`

type feedServer struct {
	srv  *httptest.Server
	mu   sync.Mutex
	hits []string
}

func newFeedServer(t *testing.T) *feedServer {
	t.Helper()
	fs := &feedServer{}
	mux := http.NewServeMux()

	mux.HandleFunc("/rss.xml", func(w http.ResponseWriter, r *http.Request) {
		base := fs.srv.URL
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>Test news</title>
<item><title>Rates</title><link>%[1]s/news/rates</link><pubDate>Tue, 10 Jun 2025 08:00:00 GMT</pubDate></item>
<item><title>Clip</title><link>%[1]s/news/videos/clip</link></item>
<item><title>Podcast</title><link>%[1]s/sounds/audio/ep1</link></item>
<item><title>Gone</title><link>%[1]s/news/missing</link></item>
<item><title>Markets</title><link>%[1]s/news/markets</link></item>
</channel></rss>`, base)
	})
	mux.HandleFunc("/broken.xml", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("this is not a feed"))
	})
	mux.HandleFunc("/news/", func(w http.ResponseWriter, r *http.Request) {
		fs.mu.Lock()
		fs.hits = append(fs.hits, r.URL.Path)
		fs.mu.Unlock()

		switch r.URL.Path {
		case "/news/rates":
			fmt.Fprintf(w, articlePage, "Rates expected to fall this year", "Rates expected to fall this year")
		case "/news/markets":
			fmt.Fprintf(w, articlePage, "Markets rally on rate cut hopes", "Markets rally on rate cut hopes")
		default:
			http.NotFound(w, r)
		}
	})
	mux.HandleFunc("/sounds/", func(w http.ResponseWriter, r *http.Request) {
		fs.mu.Lock()
		fs.hits = append(fs.hits, r.URL.Path)
		fs.mu.Unlock()
	})

	fs.srv = httptest.NewServer(mux)
	t.Cleanup(fs.srv.Close)
	return fs
}

func TestRunExtractsArticlesAndSkipsMedia(t *testing.T) {
	fs := newFeedServer(t)
	svc := NewService(5*time.Second, 10)

	articles, err := svc.Run(context.Background(), []string{fs.srv.URL + "/broken.xml", fs.srv.URL + "/rss.xml"})
	if err != nil {
		t.Fatalf("Run err: %v", err)
	}
	if len(articles) != 2 {
		t.Fatalf("expected 2 articles, got %d", len(articles))
	}

	first := articles[0]
	if first.URL != fs.srv.URL+"/news/rates" || first.ID != first.URL {
		t.Fatalf("unexpected url/id %q/%q", first.URL, first.ID)
	}
	if first.Title != "Rates expected to fall this year" {
		t.Fatalf("unexpected title %q", first.Title)
	}
	if !strings.Contains(first.Text, "interest rates could fall later this year") {
		t.Fatalf("article text not extracted: %q", first.Text)
	}
	if first.Published == nil || *first.Published == "" {
		t.Fatal("expected published date from the feed entry")
	}
	if articles[1].Published != nil {
		t.Fatalf("expected no published date, got %q", *articles[1].Published)
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()
	for _, hit := range fs.hits {
		if strings.Contains(hit, "/videos") || strings.Contains(hit, "/audio") {
			t.Fatalf("media link %s should not be downloaded", hit)
		}
	}
}

func TestRunStopsAtLimit(t *testing.T) {
	fs := newFeedServer(t)
	svc := NewService(5*time.Second, 1)

	articles, err := svc.Run(context.Background(), []string{fs.srv.URL + "/rss.xml", fs.srv.URL + "/rss.xml"})
	if err != nil {
		t.Fatalf("Run err: %v", err)
	}
	if len(articles) != 1 {
		t.Fatalf("expected the limit to cap the corpus at 1, got %d", len(articles))
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()
	if len(fs.hits) != 1 {
		t.Fatalf("expected a single page download, got %v", fs.hits)
	}
}

func TestIsMediaLink(t *testing.T) {
	cases := map[string]bool{
		"https://www.bbc.co.uk/news/videos/c123":    true,
		"https://www.bbc.co.uk/news/av/video/world": true,
		"https://www.bbc.co.uk/sounds/audio/p0":     true,
		"https://www.bbc.co.uk/news/articles/c456":  false,
	}
	for link, want := range cases {
		if got := isMediaLink(link); got != want {
			t.Fatalf("isMediaLink(%q) = %v, want %v", link, got, want)
		}
	}
}

func TestNewServiceDefaults(t *testing.T) {
	svc := NewService(0, 0)
	if svc.limit != DefaultLimit {
		t.Fatalf("expected limit %d, got %d", DefaultLimit, svc.limit)
	}
	if svc.client.Timeout != 30*time.Second {
		t.Fatalf("unexpected timeout %s", svc.client.Timeout)
	}
}
