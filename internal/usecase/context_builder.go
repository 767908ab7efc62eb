package usecase

import (
	"fmt"
	"log"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/shelfwatch/backend/internal/domain"
)

// maxTitleLength bounds pathological scoring cost; longer titles are
// truncated, never rejected.
const maxTitleLength = 200

const (
	defaultBinding = "Paperback"
	bindingKindle  = "Kindle"
)

// hardcoverSynonyms extend the fallback chain whenever the preferred binding
// resolves to Paperback; storefronts label the same edition either way.
var hardcoverSynonyms = []string{"Hardcover", "Hardback"}

// Compiled regex patterns for subtitle derivation
var (
	// Matches volume markers like "Vol. 3", "Volume 03", "vol 3"
	volumeMarkerPattern = regexp.MustCompile(`(?i)[,:]?\s*\b(?:vol(?:ume)?\.?)\s*0*\d+\b`)

	// Empty bracket pairs left behind after token removal
	emptyBracketPattern = regexp.MustCompile(`\(\s*\)|\[\s*\]`)

	multiSpacePattern = regexp.MustCompile(`\s+`)
)

// ContextBuilder turns raw query parameters into a search specification
type ContextBuilder struct {
	defaultDomain      string
	enableDebugLogging bool
}

// NewContextBuilder creates a new context builder. defaultDomain is the
// configured marketplace used when a request names none; empty means the
// built-in default.
func NewContextBuilder(defaultDomain string, enableDebugLogging bool) *ContextBuilder {
	return &ContextBuilder{
		defaultDomain:      defaultDomain,
		enableDebugLogging: enableDebugLogging,
	}
}

// BuildSearchContext validates and normalizes a flat set of query parameters
// into an immutable SearchContext. Recognized keys: title, volume, format,
// binding, domain, volumeTitle, kindle.
//
// Only a missing or blank title is an error. A non-numeric volume degrades to
// "no specific volume requested" and an unrecognized domain resolves to the
// default marketplace.
func (b *ContextBuilder) BuildSearchContext(params map[string]string) (*domain.SearchContext, error) {
	title := strings.TrimSpace(params["title"])
	if title == "" {
		return nil, fmt.Errorf("%w: title query parameter is required", domain.ErrMissingTitle)
	}
	title = truncateTitle(title)

	volumeNumber, hasVolume := parseVolume(params["volume"])

	rawDomain := strings.TrimSpace(params["domain"])
	if rawDomain == "" {
		rawDomain = b.defaultDomain
	}
	marketplace := domain.ResolveMarketplace(rawDomain)

	binding := strings.TrimSpace(params["binding"])
	if binding == "" {
		binding = defaultBinding
	}
	fallbackToKindle := parseBoolParam(params["kindle"])
	bindingLabels := buildBindingChain(binding, fallbackToKindle)

	format := strings.TrimSpace(params["format"])

	volumeTitle := truncateTitle(strings.TrimSpace(params["volumeTitle"]))
	subtitle := deriveSubtitle(volumeTitle, title, volumeNumber, hasVolume, format, binding)

	sctx := &domain.SearchContext{
		Domain:           marketplace.Domain,
		Host:             marketplace.Host,
		Title:            title,
		ExpectedTitle:    buildExpectedTitle(title, volumeNumber, hasVolume, format, subtitle),
		RequiredTitle:    title,
		Format:           format,
		BindingLabel:     binding,
		BindingLabels:    bindingLabels,
		FallbackToKindle: fallbackToKindle,
		VolumeNumber:     volumeNumber,
		HasVolume:        hasVolume,
		VolumeTitle:      volumeTitle,
		VolumeSubtitle:   subtitle,
		SearchURL:        buildSearchURL(marketplace.Host, title, volumeNumber, hasVolume, format, binding),
	}

	if b.enableDebugLogging {
		log.Printf("[CONTEXT] domain=%s expected=%q required=%q bindings=%v volume=%v",
			sctx.Domain, sctx.ExpectedTitle, sctx.RequiredTitle, sctx.BindingLabels, params["volume"])
	}

	return sctx, nil
}

// truncateTitle caps a title at maxTitleLength characters, cutting at a word
// boundary when one is reasonably close.
func truncateTitle(title string) string {
	runes := []rune(title)
	if len(runes) <= maxTitleLength {
		return title
	}
	truncated := string(runes[:maxTitleLength])
	if lastSpace := strings.LastIndex(truncated, " "); lastSpace > maxTitleLength/2 {
		truncated = truncated[:lastSpace]
	}
	return strings.TrimSpace(truncated)
}

// parseVolume parses the volume parameter. Anything non-numeric is treated as
// absent, never as an error.
func parseVolume(raw string) (int, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	volume, err := strconv.Atoi(raw)
	if err != nil || volume < 0 {
		return 0, false
	}
	return volume, true
}

func parseBoolParam(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// buildBindingChain returns the ordered binding fallback chain. The chain
// always starts with the preferred binding; Kindle is only ever appended when
// explicitly enabled.
func buildBindingChain(binding string, fallbackToKindle bool) []string {
	chain := []string{binding}
	if strings.EqualFold(binding, defaultBinding) {
		chain = append(chain, hardcoverSynonyms...)
	}
	if fallbackToKindle {
		chain = append(chain, bindingKindle)
	}
	return chain
}

// deriveSubtitle removes the series title, the volume marker, the format name
// and the binding name from the full volume title; whatever non-empty text is
// left over becomes the subtitle.
func deriveSubtitle(volumeTitle, title string, volumeNumber int, hasVolume bool, format, binding string) string {
	if volumeTitle == "" {
		return ""
	}

	subtitle := removeCaseInsensitive(volumeTitle, title)
	if hasVolume {
		// Strip the specific requested volume marker, zero-padded or not
		specific := regexp.MustCompile(fmt.Sprintf(`(?i)[,:]?\s*\b(?:vol(?:ume)?\.?)\s*0*%d\b`, volumeNumber))
		subtitle = specific.ReplaceAllString(subtitle, " ")
	}
	subtitle = volumeMarkerPattern.ReplaceAllString(subtitle, " ")
	subtitle = removeCaseInsensitive(subtitle, format)
	subtitle = removeCaseInsensitive(subtitle, binding)

	subtitle = emptyBracketPattern.ReplaceAllString(subtitle, " ")
	subtitle = multiSpacePattern.ReplaceAllString(subtitle, " ")
	return strings.Trim(subtitle, " ,:-–()[]")
}

// removeCaseInsensitive removes every occurrence of sub from s, ignoring
// case. Matching runs on s itself rather than a lowered copy: lowering can
// change byte lengths (e.g. "İ"), which would make offsets into the copy
// invalid for s.
func removeCaseInsensitive(s, sub string) string {
	if sub == "" {
		return s
	}
	pattern := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(sub))
	return pattern.ReplaceAllString(s, " ")
}

// buildExpectedTitle assembles the verbose string whose tokens drive scoring
func buildExpectedTitle(title string, volumeNumber int, hasVolume bool, format, subtitle string) string {
	parts := []string{title}
	if hasVolume {
		parts = append(parts, fmt.Sprintf("Vol. %d", volumeNumber))
	}
	if format != "" {
		parts = append(parts, format)
	}
	if subtitle != "" {
		parts = append(parts, subtitle)
	}
	return strings.Join(parts, " ")
}

// buildSearchURL assembles the storefront query URL. It is carried on the
// context for traceability and handed to the fetch collaborator; the engine
// itself never requests it.
func buildSearchURL(host, title string, volumeNumber int, hasVolume bool, format, binding string) string {
	terms := []string{title}
	if hasVolume {
		terms = append(terms, fmt.Sprintf("Vol. %d", volumeNumber))
	}
	if format != "" {
		terms = append(terms, format)
	}
	terms = append(terms, binding)

	query := url.Values{}
	query.Set("k", strings.Join(terms, " "))
	query.Set("i", "stripbooks")

	return fmt.Sprintf("https://%s/s?%s", host, query.Encode())
}
