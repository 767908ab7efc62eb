package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) (interface{}, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// SearchPageFetcher supplies the raw search-results HTML for a storefront
// query URL. Fetching (retries, rate limiting, timeouts) is entirely this
// collaborator's concern; the matching engine never performs I/O.
type SearchPageFetcher interface {
	FetchSearchPage(ctx context.Context, searchURL string) (string, error)
}

// ListingExtractor parses a raw search-results document into candidate
// listings in document order.
type ListingExtractor interface {
	Extract(html string) ([]Listing, error)
}
