package usecase

import (
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/shelfwatch/backend/internal/domain"
)

// PriceResolver extracts a price from a ranked candidate list under the
// binding fallback protocol: the context's ordered binding chain is tried
// against each candidate in rank order, and a candidate without any usable
// price is skipped in favor of the next one rather than failing the lookup.
type PriceResolver struct {
	enableDebugLogging bool
}

// NewPriceResolver creates a new price resolver
func NewPriceResolver(enableDebugLogging bool) *PriceResolver {
	return &PriceResolver{
		enableDebugLogging: enableDebugLogging,
	}
}

// Resolution is the outcome of price extraction. ListingIndex names the
// ranked candidate that supplied the price (0 when none did); Err carries a
// non-fatal per-candidate price error.
type Resolution struct {
	ListingIndex int
	Binding      *string
	Text         *string
	Value        *float64
	Currency     *string
	Err          *string
}

// Resolve walks the ranked candidates best-first and returns the first price
// extractable under the binding chain. When includePrice is false all price
// fields stay null and no parsing is attempted.
func (r *PriceResolver) Resolve(sctx *domain.SearchContext, ranked []ScoredListing, includePrice bool) Resolution {
	if !includePrice || len(ranked) == 0 {
		return Resolution{}
	}

	marketplace := domain.MarketplaceFor(sctx.Domain)

	var firstErr *string
	for i, candidate := range ranked {
		for _, label := range sctx.BindingLabels {
			text, found := bindingPrice(candidate.Listing.Prices, label)
			if !found {
				continue
			}

			binding := label
			if strings.TrimSpace(text) == "" {
				msg := fmt.Sprintf("binding %q present on %q but its price text could not be located",
					label, candidate.Listing.Title)
				if firstErr == nil {
					firstErr = &msg
				}
				continue
			}

			value, err := ParsePrice(text, marketplace)
			if err != nil {
				msg := fmt.Sprintf("unparsable price %q for binding %q on %q",
					text, label, candidate.Listing.Title)
				if firstErr == nil {
					firstErr = &msg
				}
				continue
			}

			if r.enableDebugLogging {
				log.Printf("[PRICE] resolved %s %.2f from candidate #%d binding %q", marketplace.Currency, value, i, label)
			}

			priceText := strings.TrimSpace(text)
			currency := marketplace.Currency
			return Resolution{
				ListingIndex: i,
				Binding:      &binding,
				Text:         &priceText,
				Value:        &value,
				Currency:     &currency,
			}
		}
	}

	if r.enableDebugLogging && firstErr != nil {
		log.Printf("[PRICE] no usable price: %s", *firstErr)
	}

	// No candidate had a usable price; attach whatever error was recorded to
	// the top-ranked candidate instead of failing the lookup.
	return Resolution{Err: firstErr}
}

// bindingPrice looks up the price text recorded for a binding label. Labels
// are compared fold-insensitively first; storefront variants like "Kindle
// Edition" or "Mass Market Paperback" are then matched by normalized fold
// containment. Keys are scanned in sorted order so resolution stays
// deterministic.
func bindingPrice(prices map[string]string, label string) (string, bool) {
	if len(prices) == 0 {
		return "", false
	}

	keys := make([]string, 0, len(prices))
	for k := range prices {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if strings.EqualFold(k, label) {
			return prices[k], true
		}
	}
	for _, k := range keys {
		if fuzzy.MatchNormalizedFold(label, k) {
			return prices[k], true
		}
	}
	return "", false
}

// ParsePrice parses a storefront price string according to the marketplace's
// currency conventions. USD/CAD/GBP use a period decimal separator with comma
// thousands groups, EUR storefronts the reverse, and JPY has no minor unit.
// The marketplace, not the symbol in the text, decides the interpretation.
func ParsePrice(text string, m domain.Marketplace) (float64, error) {
	cleaned := keepNumeric(text)
	if cleaned == "" {
		return 0, fmt.Errorf("no numeric content in price %q", text)
	}

	if m.NoDecimals {
		digits := strings.Map(func(r rune) rune {
			if r >= '0' && r <= '9' {
				return r
			}
			return -1
		}, cleaned)
		if digits == "" {
			return 0, fmt.Errorf("no digits in price %q", text)
		}
		value, err := strconv.ParseFloat(digits, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid price %q: %w", text, err)
		}
		return value, nil
	}

	if m.DecimalComma {
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	} else {
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	}

	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid price %q: %w", text, err)
	}
	return value, nil
}

// keepNumeric strips currency symbols, spaces and everything else that is not
// a digit or a separator
func keepNumeric(s string) string {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == ',' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
