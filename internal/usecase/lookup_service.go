package usecase

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/shelfwatch/backend/internal/domain"
	"github.com/shelfwatch/backend/internal/infrastructure/amazon"
)

// LookupConfig holds configuration for the lookup service
type LookupConfig struct {
	DefaultDomain       string
	CacheTTL            time.Duration
	AcceptanceThreshold float64
	EnableFuzzyMatching bool
	EnableDebugLogging  bool
}

// LookupService orchestrates a price lookup: context building, page fetch,
// extraction, scoring, price resolution and result assembly, with a short-TTL
// cache in front.
type LookupService struct {
	cache     domain.CacheRepository
	fetcher   domain.SearchPageFetcher
	extractor domain.ListingExtractor

	builder  *ContextBuilder
	matcher  *MatchingService
	resolver *PriceResolver

	cacheTTL           time.Duration
	enableDebugLogging bool
}

// NewLookupService creates a new lookup service with dependencies
func NewLookupService(
	cache domain.CacheRepository,
	fetcher domain.SearchPageFetcher,
	extractor domain.ListingExtractor,
	config LookupConfig,
) *LookupService {
	cacheTTL := config.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = time.Hour
	}

	return &LookupService{
		cache:     cache,
		fetcher:   fetcher,
		extractor: extractor,
		builder:   NewContextBuilder(config.DefaultDomain, config.EnableDebugLogging),
		matcher: NewMatchingService(MatchConfig{
			AcceptanceThreshold: config.AcceptanceThreshold,
			EnableFuzzyMatching: config.EnableFuzzyMatching,
			EnableDebugLogging:  config.EnableDebugLogging,
		}),
		resolver:           NewPriceResolver(config.EnableDebugLogging),
		cacheTTL:           cacheTTL,
		enableDebugLogging: config.EnableDebugLogging,
	}
}

// Lookup performs a full price lookup for raw query parameters.
// Flow: build context -> check cache -> fetch page -> match -> cache -> return
func (s *LookupService) Lookup(
	ctx context.Context,
	params map[string]string,
	includePrice, includeImage bool,
) (*domain.MatchedResult, error) {
	sctx, err := s.builder.BuildSearchContext(params)
	if err != nil {
		return nil, err
	}

	cacheKey := s.generateCacheKey(sctx, includePrice, includeImage)
	if cached, err := s.getFromCache(ctx, cacheKey); err == nil && cached != nil {
		return cached, nil
	}

	html, err := s.fetcher.FetchSearchPage(ctx, sctx.SearchURL)
	if err != nil {
		return nil, err
	}

	result, err := s.Match(sctx, html, includePrice, includeImage)
	if err != nil {
		return nil, err
	}

	if err := s.setInCache(ctx, cacheKey, result); err != nil && s.enableDebugLogging {
		log.Printf("[LOOKUP] cache write failed: %v", err)
	}

	return result, nil
}

// Match runs the matching engine over an already-fetched document. It is
// synchronous and side-effect-free: one document and one context in, one
// result out.
func (s *LookupService) Match(
	sctx *domain.SearchContext,
	html string,
	includePrice, includeImage bool,
) (*domain.MatchedResult, error) {
	listings, err := s.extractor.Extract(html)
	if err != nil {
		return nil, err
	}

	ranked, err := s.matcher.Rank(sctx, listings)
	if err != nil {
		return nil, err
	}

	resolution := s.resolver.Resolve(sctx, ranked, includePrice)

	return s.assemble(sctx, ranked, resolution, includeImage), nil
}

// assemble builds the final MatchedResult. The result title and URLs come
// from whichever ranked candidate ultimately supplied the price (the
// top-ranked one when no price was requested or resolvable).
func (s *LookupService) assemble(
	sctx *domain.SearchContext,
	ranked []ScoredListing,
	resolution Resolution,
	includeImage bool,
) *domain.MatchedResult {
	winner := ranked[resolution.ListingIndex]

	result := &domain.MatchedResult{
		ResultTitle:  winner.Listing.Title,
		MatchScore:   winner.Score,
		PriceText:    resolution.Text,
		PriceValue:   resolution.Value,
		Currency:     resolution.Currency,
		PriceBinding: resolution.Binding,
		PriceError:   resolution.Err,
		ProductURL:   amazon.ProductURL(sctx.Host, winner.Listing.ASIN),
	}

	if includeImage && winner.Listing.ImageSource != "" {
		if canonical, ok := amazon.CanonicalImageURL(winner.Listing.ImageSource); ok {
			result.ImageURL = &canonical
		}
	}

	return result
}

// generateCacheKey creates a normalized cache key covering every input that
// can change the result. The full binding chain is part of the key so that
// lookups differing only in the Kindle fallback never share an entry.
func (s *LookupService) generateCacheKey(sctx *domain.SearchContext, includePrice, includeImage bool) string {
	return fmt.Sprintf("lookup:%s:%s:%s:%v:%v",
		sctx.Domain,
		normalizeText(sctx.ExpectedTitle),
		normalizeText(strings.Join(sctx.BindingLabels, " ")),
		includePrice,
		includeImage,
	)
}

// getFromCache retrieves a matched result from cache
func (s *LookupService) getFromCache(ctx context.Context, key string) (*domain.MatchedResult, error) {
	value, err := s.cache.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	if result, ok := value.(*domain.MatchedResult); ok {
		return result, nil
	}
	if dataMap, ok := value.(map[string]interface{}); ok {
		return mapToMatchedResult(dataMap), nil
	}
	return nil, domain.ErrCacheMiss
}

// setInCache stores a matched result in cache
func (s *LookupService) setInCache(ctx context.Context, key string, result *domain.MatchedResult) error {
	return s.cache.Set(ctx, key, result, s.cacheTTL)
}

// mapToMatchedResult converts a map (from JSON cache) back to a MatchedResult
func mapToMatchedResult(data map[string]interface{}) *domain.MatchedResult {
	result := &domain.MatchedResult{}

	if v, ok := data["resultTitle"].(string); ok {
		result.ResultTitle = v
	}
	if v, ok := data["matchScore"].(float64); ok {
		result.MatchScore = v
	}
	if v, ok := data["priceText"].(string); ok {
		result.PriceText = &v
	}
	if v, ok := data["priceValue"].(float64); ok {
		result.PriceValue = &v
	}
	if v, ok := data["currency"].(string); ok {
		result.Currency = &v
	}
	if v, ok := data["priceBinding"].(string); ok {
		result.PriceBinding = &v
	}
	if v, ok := data["priceError"].(string); ok {
		result.PriceError = &v
	}
	if v, ok := data["productUrl"].(string); ok {
		result.ProductURL = v
	}
	if v, ok := data["imageUrl"].(string); ok {
		result.ImageURL = &v
	}

	return result
}
