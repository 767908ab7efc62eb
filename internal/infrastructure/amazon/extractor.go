package amazon

import (
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/shelfwatch/backend/internal/domain"
)

var (
	asinFromHrefPattern    = regexp.MustCompile(`/dp/([A-Z0-9]{10})`)
	innerWhitespacePattern = regexp.MustCompile(`\s+`)
)

// Extractor parses raw search-results HTML into candidate listings. It is the
// only component that knows anything about the storefront's markup; scoring
// never touches the document.
type Extractor struct {
	enableDebugLogging bool
}

// NewExtractor creates a new search page extractor
func NewExtractor(enableDebugLogging bool) *Extractor {
	return &Extractor{
		enableDebugLogging: enableDebugLogging,
	}
}

// Extract returns the listings of a search-results document in document
// order. A document without a results container is malformed ("site layout
// changed"); a container with zero listing nodes, or only titleless ones,
// means the site has no usable matches. The two failures stay distinguishable.
func (e *Extractor) Extract(html string) ([]domain.Listing, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPageShape, err)
	}

	container := doc.Find("div.s-main-slot")
	if container.Length() == 0 {
		container = doc.Find("span[data-component-type=s-search-results]")
	}
	if container.Length() == 0 {
		return nil, fmt.Errorf("%w: no results container in document", domain.ErrPageShape)
	}

	items := container.Find("div[data-component-type=s-search-result]")
	if items.Length() == 0 {
		return nil, fmt.Errorf("%w: results container holds no listing nodes", domain.ErrNoListings)
	}

	var listings []domain.Listing
	skipped := 0
	items.Each(func(_ int, item *goquery.Selection) {
		title := cleanText(item.Find("h2").First().Text())
		if title == "" {
			// Listings without a recognizable title are excluded outright,
			// not merely scored zero
			skipped++
			return
		}

		asin := strings.TrimSpace(item.AttrOr("data-asin", ""))
		if asin == "" {
			if m := asinFromHrefPattern.FindStringSubmatch(item.Find("h2 a").AttrOr("href", "")); m != nil {
				asin = m[1]
			}
		}

		listings = append(listings, domain.Listing{
			ASIN:        asin,
			Title:       title,
			Prices:      extractBindingPrices(item),
			ImageSource: item.Find("img.s-image").First().AttrOr("src", ""),
			Sponsored:   isSponsored(item),
		})
	})

	if e.enableDebugLogging {
		log.Printf("[EXTRACT] %d listings (%d titleless skipped)", len(listings), skipped)
	}

	if len(listings) == 0 {
		return nil, fmt.Errorf("%w: every listing lacked a recognizable title", domain.ErrNoListings)
	}

	return listings, nil
}

// isSponsored detects sponsored placements via the storefront's ad markers
func isSponsored(item *goquery.Selection) bool {
	if item.HasClass("AdHolder") {
		return true
	}
	return item.Find(`[data-component-type="sp-sponsored-result"]`).Length() > 0
}

// extractBindingPrices collects the (binding label, price text) pairs found
// within a listing node. Binding rows are product links whose anchor text is
// a short label such as "Paperback" or "Kindle Edition"; the price text of a
// row may legitimately be missing.
func extractBindingPrices(item *goquery.Selection) map[string]string {
	prices := make(map[string]string)

	item.Find("div.a-row").Each(func(_ int, row *goquery.Selection) {
		link := row.Find("a").First()
		if !strings.Contains(link.AttrOr("href", ""), "/dp/") {
			return
		}

		label := cleanText(link.Text())
		if label == "" || len(label) > 40 || strings.ContainsAny(label, "0123456789") {
			return
		}
		if _, seen := prices[label]; seen {
			return
		}

		prices[label] = cleanText(row.Find("span.a-price span.a-offscreen").First().Text())
	})

	return prices
}

// cleanText trims and collapses whitespace in node text
func cleanText(s string) string {
	return strings.TrimSpace(innerWhitespacePattern.ReplaceAllString(s, " "))
}
