package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	minContentLength   = 50
	extractConcurrency = 4
)

// Elements that never contribute readable article text.
const strippedElements = "script, style, nav, header, footer"

// ContentExtractor turns an item's markup into cleaned, readable text.
type ContentExtractor struct {
	fetcher *PageFetcher
}

// NewContentExtractor creates an extractor that fetches missing markup
// through the given fetcher.
func NewContentExtractor(fetcher *PageFetcher) *ContentExtractor {
	return &ContentExtractor{fetcher: fetcher}
}

// ExtractAll processes all items concurrently over ownership-isolated
// copies. Every input item comes back, either with Content set or with
// ExtractionError recording why it failed; output order matches input order.
func (e *ContentExtractor) ExtractAll(ctx context.Context, items []Item) []Item {
	results := runStage(ctx, stage[Item, Item]{
		Name:        "extract_content",
		Concurrency: extractConcurrency,
		Process: func(ctx context.Context, item Item) (Item, error) {
			return e.Extract(ctx, item), nil
		},
	}, items)

	processed := make([]Item, len(results))
	for i, result := range results {
		if result.Err != nil {
			item := items[i]
			item.ExtractionError = fmt.Sprintf("Error extracting content: %v", result.Err)
			processed[i] = item
			continue
		}
		processed[i] = result.Value
	}
	return processed
}

// Extract returns a copy of item with Content or ExtractionError set. Markup
// already fetched during discovery is reused; only items without markup
// trigger a fresh fetch, with a randomized User-Agent. A fault in one item
// never propagates: it is recorded on the item itself.
func (e *ContentExtractor) Extract(ctx context.Context, item Item) (out Item) {
	out = item
	defer func() {
		if r := recover(); r != nil {
			out.ExtractionError = fmt.Sprintf("Error extracting content: %v", r)
		}
	}()

	markup := item.RawMarkup
	if markup == "" {
		fetched, err := e.fetcher.FetchPage(ctx, item.URL, randomUserAgent())
		if err != nil {
			out.ExtractionError = "Failed to fetch article content"
			return out
		}
		markup = fetched
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		out.ExtractionError = fmt.Sprintf("Error extracting content: %v", err)
		return out
	}

	doc.Find(strippedElements).Remove()

	var parts []string
	doc.Find("p").Each(func(_ int, sel *goquery.Selection) {
		if text := strings.TrimSpace(sel.Text()); text != "" {
			parts = append(parts, text)
		}
	})

	content := strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
	if len(content) < minContentLength {
		out.ExtractionError = "Insufficient content extracted"
		return out
	}

	out.Content = content
	return out
}
