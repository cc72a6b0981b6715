package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	defaultFetchAttempts = 3
	fetchAttemptTimeout  = 10 * time.Second

	retryInitialInterval = 500 * time.Millisecond
	retryMaxInterval     = 5 * time.Second
)

// Browser user agents for avoiding bot detection. Source discovery always
// sends the first one; extraction-stage fetches pick one at random.
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/14.0 Safari/605.1.15",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:89.0) Gecko/20100101 Firefox/89.0",
}

var discoveryUserAgent = userAgents[0]

func randomUserAgent() string {
	return userAgents[rand.Intn(len(userAgents))]
}

var debugEnabled bool

// SetDebugMode enables or disables debug logging
func SetDebugMode(enabled bool) {
	debugEnabled = enabled
}

func debugLog(format string, args ...interface{}) {
	if debugEnabled {
		log.Printf("[DEBUG] "+format, args...)
	}
}

// HTTPError represents an HTTP error with status code
type HTTPError struct {
	StatusCode int
	URL        string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d for %s", e.StatusCode, e.URL)
}

// PageFetcher retrieves pages with a bounded number of attempts. A non-200
// status or any transport fault consumes one attempt; attempts are spaced
// by exponential backoff.
type PageFetcher struct {
	client   *http.Client
	attempts uint64
}

// NewPageFetcher creates a fetcher with a shared pooled HTTP client and a
// per-attempt timeout.
func NewPageFetcher() *PageFetcher {
	return &PageFetcher{
		client:   &http.Client{Timeout: fetchAttemptTimeout},
		attempts: defaultFetchAttempts,
	}
}

// FetchPage fetches pageURL with the given User-Agent header and returns the
// response body. After the attempt budget is exhausted it returns an error;
// callers treat that as a skip signal, never a reason to halt a batch.
func (f *PageFetcher) FetchPage(ctx context.Context, pageURL, userAgent string) (string, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = retryInitialInterval
	b.MaxInterval = retryMaxInterval
	bo := backoff.WithContext(backoff.WithMaxRetries(b, f.attempts-1), ctx)

	var body string
	attempt := 0
	op := func() error {
		attempt++
		text, err := f.fetchOnce(ctx, pageURL, userAgent)
		if err != nil {
			log.Printf("Attempt %d/%d failed for %s: %v", attempt, f.attempts, pageURL, err)
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}
		body = text
		return nil
	}

	if err := backoff.Retry(op, bo); err != nil {
		return "", fmt.Errorf("fetching %s: %w", pageURL, err)
	}
	return body, nil
}

func (f *PageFetcher) fetchOnce(ctx context.Context, pageURL, userAgent string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return "", &HTTPError{StatusCode: resp.StatusCode, URL: pageURL}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}
