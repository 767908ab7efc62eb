package domain

import "strings"

// Marketplace describes one supported Amazon storefront and the currency
// conventions its price strings follow.
type Marketplace struct {
	Domain string // e.g. "amazon.de"
	Host   string // e.g. "www.amazon.de"

	Currency string // ISO 4217 code
	Symbol   string // display symbol, e.g. "CA$"

	// DecimalComma marks storefronts that write "8,99 €" style prices
	// (comma decimal separator, period thousands separator)
	DecimalComma bool
	// NoDecimals marks storefronts whose currency has no minor unit (JPY)
	NoDecimals bool
}

// DefaultMarketplaceDomain is used whenever the requested domain is
// unrecognized; normalization never fails.
const DefaultMarketplaceDomain = "amazon.com"

// marketplaces is the fixed allow-list of storefronts price lookups may target
var marketplaces = map[string]Marketplace{
	"amazon.com":   {Domain: "amazon.com", Host: "www.amazon.com", Currency: "USD", Symbol: "$"},
	"amazon.ca":    {Domain: "amazon.ca", Host: "www.amazon.ca", Currency: "CAD", Symbol: "CA$"},
	"amazon.co.uk": {Domain: "amazon.co.uk", Host: "www.amazon.co.uk", Currency: "GBP", Symbol: "£"},
	"amazon.de":    {Domain: "amazon.de", Host: "www.amazon.de", Currency: "EUR", Symbol: "€", DecimalComma: true},
	"amazon.fr":    {Domain: "amazon.fr", Host: "www.amazon.fr", Currency: "EUR", Symbol: "€", DecimalComma: true},
	"amazon.it":    {Domain: "amazon.it", Host: "www.amazon.it", Currency: "EUR", Symbol: "€", DecimalComma: true},
	"amazon.es":    {Domain: "amazon.es", Host: "www.amazon.es", Currency: "EUR", Symbol: "€", DecimalComma: true},
	"amazon.co.jp": {Domain: "amazon.co.jp", Host: "www.amazon.co.jp", Currency: "JPY", Symbol: "¥", NoDecimals: true},
}

// ResolveMarketplace normalizes a raw domain value (possibly carrying a
// protocol prefix, "www.", or a path) and resolves it against the allow-list.
// Unrecognized input silently resolves to the default marketplace.
func ResolveMarketplace(raw string) Marketplace {
	domain := strings.ToLower(strings.TrimSpace(raw))
	domain = strings.TrimPrefix(domain, "https://")
	domain = strings.TrimPrefix(domain, "http://")
	domain = strings.TrimPrefix(domain, "www.")
	if idx := strings.IndexAny(domain, "/?"); idx >= 0 {
		domain = domain[:idx]
	}

	if m, ok := marketplaces[domain]; ok {
		return m
	}
	return marketplaces[DefaultMarketplaceDomain]
}

// MarketplaceFor returns the marketplace for an already-resolved domain.
// The currency of a price is always inferred from the storefront, never from
// the symbol in the price text (symbols are ambiguous across storefronts).
func MarketplaceFor(domain string) Marketplace {
	if m, ok := marketplaces[domain]; ok {
		return m
	}
	return marketplaces[DefaultMarketplaceDomain]
}
