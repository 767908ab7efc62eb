package amazon

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/shelfwatch/backend/internal/domain"
)

const searchUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

const maxFetchAttempts = 3

// Client fetches storefront search pages. All network concerns live here;
// the matching engine only ever sees the returned HTML string.
type Client struct {
	http        *resty.Client
	rateLimiter *rate.Limiter
	debug       bool
}

// NewClient creates a new search page client rate-limited to
// requestsPerMinute against the storefront
func NewClient(requestsPerMinute int) *Client {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 30
	}
	limiter := rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60.0), 5)

	httpClient := resty.New().
		SetTimeout(30 * time.Second).
		SetHeader("User-Agent", searchUserAgent).
		SetHeader("Accept-Language", "en-US,en;q=0.9")

	return &Client{
		http:        httpClient,
		rateLimiter: limiter,
	}
}

// SetDebug enables or disables debug logging
func (c *Client) SetDebug(debug bool) {
	c.debug = debug
}

// exponentialBackoff returns the delay before the given retry attempt
func exponentialBackoff(attempt int) time.Duration {
	return time.Duration(1<<(attempt-1)) * 500 * time.Millisecond
}

// FetchSearchPage retrieves the raw HTML of a search-results URL, retrying
// transient failures with exponential backoff
func (c *Client) FetchSearchPage(ctx context.Context, searchURL string) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= maxFetchAttempts; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limiter error: %w", err)
		}

		res, err := c.http.R().SetContext(ctx).Get(searchURL)
		if err != nil {
			if c.debug {
				log.Printf("[FETCH] request error (attempt %d): %v", attempt, err)
			}
			lastErr = fmt.Errorf("%w: %v", domain.ErrFetchFailure, err)
			time.Sleep(exponentialBackoff(attempt))
			continue
		}

		if res.StatusCode() != http.StatusOK {
			if c.debug {
				log.Printf("[FETCH] status %d (attempt %d) for %s", res.StatusCode(), attempt, searchURL)
			}
			lastErr = fmt.Errorf("%w: status %d", domain.ErrFetchFailure, res.StatusCode())
			time.Sleep(exponentialBackoff(attempt))
			continue
		}

		if c.debug {
			log.Printf("[FETCH] %d bytes from %s", len(res.Body()), searchURL)
		}
		return string(res.Body()), nil
	}

	return "", lastErr
}
