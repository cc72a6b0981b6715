package main

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
	"github.com/mmcdole/gofeed"
)

const (
	defaultMaxPerSource = 2
	fetchConcurrency    = 4
)

// Markers that identify likely article URLs on a source's landing page.
var articlePathMarkers = []string{"/article", "/news/", "/story/"}

// linkCandidate is one potential article link found on a source page. Title
// is set only when the finder already knows it (feed entries); otherwise the
// discoverer fetches the page and looks for one.
type linkCandidate struct {
	URL   string
	Title string
}

// LinkFinder extracts candidate article links from a fetched source page.
type LinkFinder interface {
	CanFind(pageURL, body string) bool
	FindLinks(base *url.URL, body string) ([]linkCandidate, error)
}

// feedLinkFinder handles sources that serve an RSS, Atom or JSON feed.
type feedLinkFinder struct {
	stripPolicy *bluemonday.Policy
}

func (f *feedLinkFinder) CanFind(pageURL, body string) bool {
	return gofeed.DetectFeedType(strings.NewReader(body)) != gofeed.FeedTypeUnknown
}

func (f *feedLinkFinder) FindLinks(base *url.URL, body string) ([]linkCandidate, error) {
	feed, err := gofeed.NewParser().ParseString(body)
	if err != nil {
		return nil, fmt.Errorf("parsing feed: %w", err)
	}

	var candidates []linkCandidate
	for _, entry := range feed.Items {
		link := resolveLink(base, entry.Link)
		if link == "" {
			continue
		}
		candidates = append(candidates, linkCandidate{
			URL:   link,
			Title: stripTags(f.stripPolicy, entry.Title),
		})
	}
	return candidates, nil
}

// htmlLinkFinder scans anchors on an HTML landing page for article-looking
// URLs. It accepts any body and must stay last in the finder chain.
type htmlLinkFinder struct{}

func (f *htmlLinkFinder) CanFind(pageURL, body string) bool {
	return true
}

func (f *htmlLinkFinder) FindLinks(base *url.URL, body string) ([]linkCandidate, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing page: %w", err)
	}

	var candidates []linkCandidate
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		link := resolveLink(base, href)
		if link == "" || !looksLikeArticle(link) {
			return
		}
		candidates = append(candidates, linkCandidate{URL: link})
	})
	return candidates, nil
}

func looksLikeArticle(link string) bool {
	for _, marker := range articlePathMarkers {
		if strings.Contains(link, marker) {
			return true
		}
	}
	return false
}

// resolveLink resolves href against base and returns the absolute URL, or ""
// when the result is not an http(s) link.
func resolveLink(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	parsed, err := url.Parse(href)
	if err != nil {
		return ""
	}
	resolved := base.ResolveReference(parsed)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	return resolved.String()
}

// stripTags removes markup from feed-provided text and collapses whitespace.
func stripTags(p *bluemonday.Policy, raw string) string {
	return strings.Join(strings.Fields(p.Sanitize(raw)), " ")
}

// ArticleDiscoverer turns configured sources into concrete article items.
type ArticleDiscoverer struct {
	fetcher      *PageFetcher
	finders      []LinkFinder
	maxPerSource int
}

// NewArticleDiscoverer creates a discoverer with the default finder chain
// (most specific first).
func NewArticleDiscoverer(fetcher *PageFetcher, maxPerSource int) *ArticleDiscoverer {
	if maxPerSource <= 0 {
		maxPerSource = defaultMaxPerSource
	}
	return &ArticleDiscoverer{
		fetcher: fetcher,
		finders: []LinkFinder{
			&feedLinkFinder{stripPolicy: bluemonday.StrictPolicy()},
			&htmlLinkFinder{}, // fallback
		},
		maxPerSource: maxPerSource,
	}
}

// Discover fans the configured sources out concurrently and returns the
// accepted items, ordered by source then by link appearance.
func (d *ArticleDiscoverer) Discover(ctx context.Context, sources []Source) []Item {
	results := runStage(ctx, stage[Source, []Item]{
		Name:        "fetch_links",
		Concurrency: fetchConcurrency,
		Process: func(ctx context.Context, source Source) ([]Item, error) {
			return d.discoverSource(ctx, source), nil
		},
	}, sources)

	var items []Item
	for _, result := range results {
		items = append(items, result.Value...)
	}
	log.Printf("Processed %d sources, found %d articles", len(sources), len(items))
	return items
}

// discoverSource fetches one source page, collects candidate links and
// accepts those with a discoverable title. Items without a title are
// dropped without being recorded as errors.
func (d *ArticleDiscoverer) discoverSource(ctx context.Context, source Source) []Item {
	body, err := d.fetcher.FetchPage(ctx, source.URL, discoveryUserAgent)
	if err != nil {
		log.Printf("✗ Error fetching source %s: %v", source.URL, err)
		return nil
	}

	base, err := url.Parse(source.URL)
	if err != nil {
		log.Printf("✗ Invalid source URL %s: %v", source.URL, err)
		return nil
	}

	candidates := dedupeCandidates(d.findCandidates(source.URL, base, body))
	if len(candidates) > d.maxPerSource {
		candidates = candidates[:d.maxPerSource]
	}

	var items []Item
	for _, candidate := range candidates {
		if candidate.Title != "" {
			// Feed entries arrive titled; their markup is fetched later by
			// the extraction stage.
			items = append(items, Item{URL: candidate.URL, Title: candidate.Title, SourceName: source.Name})
			continue
		}

		markup, err := d.fetcher.FetchPage(ctx, candidate.URL, discoveryUserAgent)
		if err != nil {
			log.Printf("✗ Error fetching article %s: %v", candidate.URL, err)
			continue
		}

		title := extractTitle(markup)
		if title == "" {
			debugLog("dropping %s: no discoverable title", candidate.URL)
			continue
		}
		items = append(items, Item{URL: candidate.URL, Title: title, SourceName: source.Name, RawMarkup: markup})
	}
	return items
}

func (d *ArticleDiscoverer) findCandidates(pageURL string, base *url.URL, body string) []linkCandidate {
	for _, finder := range d.finders {
		if !finder.CanFind(pageURL, body) {
			continue
		}
		candidates, err := finder.FindLinks(base, body)
		if err != nil {
			log.Printf("✗ Error scanning %s for links: %v", pageURL, err)
			return nil
		}
		return candidates
	}
	return nil
}

// dedupeCandidates drops repeated URLs, keeping first-appearance order.
func dedupeCandidates(candidates []linkCandidate) []linkCandidate {
	seen := make(map[string]struct{}, len(candidates))
	var deduped []linkCandidate
	for _, candidate := range candidates {
		if _, ok := seen[candidate.URL]; ok {
			continue
		}
		seen[candidate.URL] = struct{}{}
		deduped = append(deduped, candidate)
	}
	return deduped
}

// extractTitle finds an article title: the first h1, else the og:title meta
// tag. An empty return means the page has no usable title.
func extractTitle(markup string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return ""
	}
	if title := strings.TrimSpace(doc.Find("h1").First().Text()); title != "" {
		return title
	}
	return strings.TrimSpace(doc.Find(`meta[property="og:title"]`).First().AttrOr("content", ""))
}
