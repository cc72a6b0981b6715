package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestExtractReusesMarkup(t *testing.T) {
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer server.Close()

	markup := "<html><body><p>" + strings.Repeat("a", 60) + "</p></body></html>"
	extractor := NewContentExtractor(NewPageFetcher())

	item := extractor.Extract(context.Background(), Item{URL: server.URL, RawMarkup: markup})

	if item.ExtractionError != "" {
		t.Fatalf("Extract() ExtractionError = %q, want empty", item.ExtractionError)
	}
	if item.Content != strings.Repeat("a", 60) {
		t.Errorf("Extract() Content = %q, want %q", item.Content, strings.Repeat("a", 60))
	}
	if hits.Load() != 0 {
		t.Errorf("Extract() fetched %d times despite prefetched markup, want 0", hits.Load())
	}
}

func TestExtractFetchesMissingMarkup(t *testing.T) {
	var gotAgent atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAgent.Store(r.Header.Get("User-Agent"))
		w.Write([]byte("<html><body><p>" + strings.Repeat("b", 60) + "</p></body></html>"))
	}))
	defer server.Close()

	extractor := NewContentExtractor(NewPageFetcher())
	item := extractor.Extract(context.Background(), Item{URL: server.URL})

	if item.ExtractionError != "" {
		t.Fatalf("Extract() ExtractionError = %q, want empty", item.ExtractionError)
	}
	if item.Content != strings.Repeat("b", 60) {
		t.Errorf("Extract() Content = %q, want %q", item.Content, strings.Repeat("b", 60))
	}

	agent, _ := gotAgent.Load().(string)
	known := false
	for _, ua := range userAgents {
		if agent == ua {
			known = true
		}
	}
	if !known {
		t.Errorf("fetch used User-Agent %q, want one of the browser agents", agent)
	}
}

func TestExtractFetchFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	fetcher := &PageFetcher{client: &http.Client{Timeout: time.Second}, attempts: 1}
	extractor := NewContentExtractor(fetcher)

	item := extractor.Extract(context.Background(), Item{URL: server.URL})

	if item.ExtractionError != "Failed to fetch article content" {
		t.Errorf("Extract() ExtractionError = %q, want %q",
			item.ExtractionError, "Failed to fetch article content")
	}
	if item.Content != "" {
		t.Errorf("Extract() Content = %q, want empty on fetch failure", item.Content)
	}
}

func TestExtractStripsNonContentElements(t *testing.T) {
	markup := `<html><body>
		<header><p>Header junk that should never appear</p></header>
		<nav><p>Navigation links that should never appear</p></nav>
		<p>Real article text <script>track()</script> keeps flowing with enough words to clear the minimum.</p>
		<footer><p>Footer junk that should never appear</p></footer>
		<style>.x { color: red }</style>
	</body></html>`

	extractor := NewContentExtractor(NewPageFetcher())
	item := extractor.Extract(context.Background(), Item{URL: "https://example.com/article/1", RawMarkup: markup})

	if item.ExtractionError != "" {
		t.Fatalf("Extract() ExtractionError = %q, want empty", item.ExtractionError)
	}
	want := "Real article text keeps flowing with enough words to clear the minimum."
	if item.Content != want {
		t.Errorf("Extract() Content = %q, want %q", item.Content, want)
	}
}

func TestExtractJoinsParagraphsAndCollapsesWhitespace(t *testing.T) {
	markup := `<html><body>
		<p>  First   paragraph with    ragged spacing  </p>
		<p>Second paragraph continues the article body text.</p>
	</body></html>`

	extractor := NewContentExtractor(NewPageFetcher())
	item := extractor.Extract(context.Background(), Item{URL: "https://example.com/article/2", RawMarkup: markup})

	want := "First paragraph with ragged spacing Second paragraph continues the article body text."
	if item.Content != want {
		t.Errorf("Extract() Content = %q, want %q", item.Content, want)
	}
}

func TestExtractContentLengthBoundary(t *testing.T) {
	tests := []struct {
		name      string
		length    int
		wantError string
	}{
		{"one short of minimum", minContentLength - 1, "Insufficient content extracted"},
		{"exactly minimum", minContentLength, ""},
	}

	extractor := NewContentExtractor(NewPageFetcher())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			markup := "<html><body><p>" + strings.Repeat("a", tt.length) + "</p></body></html>"
			item := extractor.Extract(context.Background(), Item{URL: "https://example.com/article/3", RawMarkup: markup})

			if item.ExtractionError != tt.wantError {
				t.Errorf("Extract() ExtractionError = %q, want %q", item.ExtractionError, tt.wantError)
			}
			if tt.wantError == "" && len(item.Content) != tt.length {
				t.Errorf("Extract() len(Content) = %d, want %d", len(item.Content), tt.length)
			}
		})
	}
}

func TestExtractAllPreservesItems(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	good := "<html><body><p>" + strings.Repeat("c", 60) + "</p></body></html>"
	items := []Item{
		{URL: "https://example.com/article/a", Title: "A", RawMarkup: good},
		{URL: server.URL, Title: "B"},
		{URL: "https://example.com/article/c", Title: "C", RawMarkup: "<html><body><p>tiny</p></body></html>"},
	}

	fetcher := &PageFetcher{client: &http.Client{Timeout: time.Second}, attempts: 1}
	extractor := NewContentExtractor(fetcher)

	processed := extractor.ExtractAll(context.Background(), items)

	if len(processed) != len(items) {
		t.Fatalf("ExtractAll() returned %d items, want %d", len(processed), len(items))
	}
	if processed[0].Title != "A" || processed[1].Title != "B" || processed[2].Title != "C" {
		t.Errorf("ExtractAll() reordered items: got %q, %q, %q",
			processed[0].Title, processed[1].Title, processed[2].Title)
	}
	if processed[0].ExtractionError != "" {
		t.Errorf("processed[0].ExtractionError = %q, want empty", processed[0].ExtractionError)
	}
	if processed[1].ExtractionError != "Failed to fetch article content" {
		t.Errorf("processed[1].ExtractionError = %q, want %q",
			processed[1].ExtractionError, "Failed to fetch article content")
	}
	if processed[2].ExtractionError != "Insufficient content extracted" {
		t.Errorf("processed[2].ExtractionError = %q, want %q",
			processed[2].ExtractionError, "Insufficient content extracted")
	}
}
