// Package fetch provides the rate-limited HTTP client used by the
// scraping data source. Every request is paced by a configured delay plus
// random jitter, and transient failures are retried with backoff.
package fetch

import (
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"time"
)

// Options configures a Client. Zero delays are valid and make the client
// deterministic for tests.
type Options struct {
	Timeout      time.Duration
	RequestDelay time.Duration
	Jitter       time.Duration
	MaxRetries   int
	UserAgent    string
}

// Client issues polite GET requests: paced, jittered, and retried on
// transient failures (429/503 or network errors). Any other non-success
// status is terminal immediately.
type Client struct {
	inner *http.Client
	opts  Options
	sleep func(time.Duration) // swapped out in tests
}

// NewClient creates a Client with the given options.
func NewClient(opts Options) *Client {
	return &Client{
		inner: &http.Client{Timeout: opts.Timeout},
		opts:  opts,
		sleep: time.Sleep,
	}
}

// Get fetches a URL as text. It sleeps for the configured delay plus a
// uniformly random jitter before the first attempt, then retries up to
// MaxRetries times on 429/503 (exponential backoff) or network errors
// (linear backoff). Exhausting retries returns the last failure.
func (c *Client) Get(url string) (string, error) {
	c.politeDelay()

	var lastErr error
	attempts := c.opts.MaxRetries + 1

	for attempt := 1; attempt <= attempts; attempt++ {
		req, err := http.NewRequest(http.MethodGet, url, nil)
		if err != nil {
			return "", fmt.Errorf("build request: %w", err)
		}
		if c.opts.UserAgent != "" {
			req.Header.Set("User-Agent", c.opts.UserAgent)
		}

		resp, err := c.inner.Do(req)
		if err != nil {
			// Network-level failure: linear backoff.
			lastErr = fmt.Errorf("request error: %w", err)
			log.Printf("[WARN] GET %s attempt %d failed: %v", url, attempt, err)
			c.sleep(c.opts.RequestDelay * time.Duration(attempt))
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			if readErr != nil {
				return "", fmt.Errorf("read response body: %w", readErr)
			}
			return string(body), nil

		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable:
			// Rate limited — back off harder, exponentially.
			lastErr = fmt.Errorf("HTTP %d", resp.StatusCode)
			backoff := c.opts.RequestDelay * time.Duration(1<<uint(attempt))
			log.Printf("[WARN] GET %s rate limited (%d) on attempt %d, sleeping %s", url, resp.StatusCode, attempt, backoff)
			c.sleep(backoff)

		default:
			// Other non-success statuses are terminal: no retry.
			return "", fmt.Errorf("HTTP error %d for %s", resp.StatusCode, url)
		}
	}

	return "", fmt.Errorf("all retries exhausted for %s: %w", url, lastErr)
}

func (c *Client) politeDelay() {
	delay := c.opts.RequestDelay
	if c.opts.Jitter > 0 {
		delay += time.Duration(rand.Int63n(int64(c.opts.Jitter) + 1))
	}
	if delay > 0 {
		c.sleep(delay)
	}
}
