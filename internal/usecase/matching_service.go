package usecase

import (
	"fmt"
	"log"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/antzucaro/matchr"
	"golang.org/x/text/unicode/norm"

	"github.com/shelfwatch/backend/internal/domain"
)

// Package-level compiled regex patterns for performance
var (
	nonAlnumRegex = regexp.MustCompile(`[^a-z0-9\s]+`)

	// Matches explicit volume markers like "Vol. 5", "Volume 05", "#3",
	// optionally followed by a range: "Vol. 4-6"
	volumeRefPattern = regexp.MustCompile(`(?i)\b(?:vol(?:ume)?\.?|#)\s*(\d+)(?:\s*[-–—]\s*(\d+))?`)

	// Matches bare ranges ("1-3") as used by box sets without a volume marker
	bareRangePattern = regexp.MustCompile(`\b(\d+)\s*[-–—]\s*(\d+)\b`)
)

// Scoring weights. The base score is token coverage of the expected title;
// everything else adjusts it. Validated against the scenarios in
// matching_service_test.go: an exact volume must beat an off-by-one volume,
// a range containing the requested volume must beat one excluding it, and
// plain titles must outrank elaborately-named special editions.
const (
	baseScoreWeight   = 0.70
	fuzzyWeightFactor = 0.8 // fuzzy token matches count at 80% of an exact match

	exactVolumeBonus     = 0.25
	wrongVolumePenalty   = 0.40
	rangeContainsBonus   = 0.10
	rangeExcludesPenalty = 0.30

	formatConflictPenalty = 0.20

	excessTokenAllowance  = 2
	excessTokenPenalty    = 0.04
	maxExcessTokenPenalty = 0.20

	// minMatchScore keeps accepted scores strictly above zero
	minMatchScore = 0.01

	// fuzzyTokenSimilarity is the Jaro-Winkler floor below which two tokens
	// are considered unrelated
	fuzzyTokenSimilarity = 0.92
)

const defaultAcceptanceThreshold = 0.30

// MatchConfig holds configuration for the matching service
type MatchConfig struct {
	AcceptanceThreshold float64
	EnableFuzzyMatching bool
	EnableDebugLogging  bool
}

// MatchingService scores candidate listings against a search context
type MatchingService struct {
	acceptanceThreshold float64
	enableFuzzyMatching bool
	enableDebugLogging  bool
}

// NewMatchingService creates a new matching service with the given configuration
func NewMatchingService(config MatchConfig) *MatchingService {
	threshold := config.AcceptanceThreshold
	if threshold <= 0 || threshold >= 1 {
		threshold = defaultAcceptanceThreshold
	}

	return &MatchingService{
		acceptanceThreshold: threshold,
		enableFuzzyMatching: config.EnableFuzzyMatching,
		enableDebugLogging:  config.EnableDebugLogging,
	}
}

// ScoredListing pairs a candidate listing with its match score
type ScoredListing struct {
	Listing domain.Listing
	Score   float64
}

// Rank scores every candidate against the context and returns the eligible
// ones ordered best-first. Sponsored candidates are removed unconditionally
// before scoring. Ties keep the order in which candidates appeared in the
// document.
func (s *MatchingService) Rank(sctx *domain.SearchContext, listings []domain.Listing) ([]ScoredListing, error) {
	if len(listings) == 0 {
		return nil, fmt.Errorf("%w: no candidates to score", domain.ErrNoListings)
	}

	var ranked []ScoredListing
	for _, listing := range listings {
		if listing.Sponsored {
			if s.enableDebugLogging {
				log.Printf("[MATCH] dropping sponsored listing %q", listing.Title)
			}
			continue
		}

		score, eligible := s.Score(sctx, listing)
		if s.enableDebugLogging {
			log.Printf("[MATCH] candidate %q | score=%.3f eligible=%v", listing.Title, score, eligible)
		}
		if !eligible || score < s.acceptanceThreshold {
			continue
		}

		ranked = append(ranked, ScoredListing{Listing: listing, Score: clampScore(score)})
	}

	if len(ranked) == 0 {
		return nil, fmt.Errorf("%w: no listing for %q scored above %.2f",
			domain.ErrNoMatch, sctx.ExpectedTitle, s.acceptanceThreshold)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	if s.enableDebugLogging {
		log.Printf("[MATCH] best match %q (score=%.3f)", ranked[0].Listing.Title, ranked[0].Score)
	}

	return ranked, nil
}

// Score computes the raw match score of a single candidate against the
// context, plus an eligibility flag. It is a pure function with no access to
// the document the candidate came from.
//
// A candidate is ineligible when its title misses any token of the required
// title. The returned score is unclamped and may be negative.
func (s *MatchingService) Score(sctx *domain.SearchContext, listing domain.Listing) (float64, bool) {
	candidateTokens := tokenizeTitle(listing.Title)
	if len(candidateTokens) == 0 {
		return 0, false
	}
	candidateSet := make(map[string]bool, len(candidateTokens))
	for _, t := range candidateTokens {
		candidateSet[t] = true
	}

	// Hard eligibility gate: every required token must be present
	for _, required := range tokenizeTitle(sctx.RequiredTitle) {
		if !candidateSet[required] {
			return 0, false
		}
	}

	expectedTokens := tokenizeTitle(sctx.ExpectedTitle)
	if len(expectedTokens) == 0 {
		return 0, false
	}

	score := s.coverage(expectedTokens, candidateTokens, candidateSet) * baseScoreWeight
	score += s.volumeAdjustment(sctx, listing.Title)

	if hasFormatConflict(sctx.Format, listing.Title) {
		score -= formatConflictPenalty
	}

	score -= excessTokenDemotion(expectedTokens, candidateTokens)

	return score, true
}

// coverage returns the fraction of expected tokens found among the candidate
// tokens. Exact matches count fully; near-identical tokens (typos, plural
// forms) count at a reduced weight when fuzzy matching is enabled.
func (s *MatchingService) coverage(expected, candidateTokens []string, candidateSet map[string]bool) float64 {
	var matched float64
	for _, token := range expected {
		if candidateSet[token] {
			matched++
			continue
		}
		if !s.enableFuzzyMatching {
			continue
		}
		for _, candidate := range candidateTokens {
			if fuzzyTokenMatch(token, candidate) {
				matched += fuzzyWeightFactor
				break
			}
		}
	}
	return matched / float64(len(expected))
}

// volumeAdjustment applies the volume bonus/penalty rules. An explicit match
// on the requested volume (including zero-padded forms) is a strong positive
// signal, an explicit different volume a strong negative one. Ranges are
// accepted when they contain the requested volume and penalized when they do
// not.
func (s *MatchingService) volumeAdjustment(sctx *domain.SearchContext, candidateTitle string) float64 {
	if !sctx.HasVolume {
		return 0
	}

	singles, ranges := findVolumeRefs(candidateTitle)

	var adjustment float64
	if len(singles) > 0 {
		exact := false
		for _, n := range singles {
			if n == sctx.VolumeNumber {
				exact = true
				break
			}
		}
		if exact {
			adjustment += exactVolumeBonus
		} else {
			adjustment -= wrongVolumePenalty
		}
	}

	if len(ranges) > 0 {
		contained := false
		for _, r := range ranges {
			if sctx.VolumeNumber >= r[0] && sctx.VolumeNumber <= r[1] {
				contained = true
				break
			}
		}
		if contained {
			adjustment += rangeContainsBonus
		} else {
			adjustment -= rangeExcludesPenalty
		}
	}

	return adjustment
}

// findVolumeRefs extracts explicit single volume numbers and volume ranges
// from a candidate title. A marker followed by a range ("Vol. 4-6") counts
// only as a range; bare ranges ("1-3") are recognized for box sets that omit
// the marker.
func findVolumeRefs(title string) (singles []int, ranges [][2]int) {
	consumed := map[string]bool{}

	for _, m := range volumeRefPattern.FindAllStringSubmatch(title, -1) {
		lo, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if m[2] != "" {
			hi, err := strconv.Atoi(m[2])
			if err == nil && hi >= lo {
				ranges = append(ranges, [2]int{lo, hi})
				consumed[m[1]+"-"+m[2]] = true
			}
			continue
		}
		singles = append(singles, lo)
	}

	for _, m := range bareRangePattern.FindAllStringSubmatch(title, -1) {
		if consumed[m[1]+"-"+m[2]] {
			continue
		}
		lo, err1 := strconv.Atoi(m[1])
		hi, err2 := strconv.Atoi(m[2])
		if err1 != nil || err2 != nil || hi < lo {
			continue
		}
		ranges = append(ranges, [2]int{lo, hi})
	}

	return singles, ranges
}

// hasFormatConflict reports whether the candidate title carries a marker of
// the opposite format. Conflicts demote a candidate but never exclude it;
// other signals may still make it the best available choice.
func hasFormatConflict(format, candidateTitle string) bool {
	if format == "" {
		return false
	}
	f := strings.ToLower(format)
	t := strings.ToLower(candidateTitle)

	switch {
	case strings.Contains(f, "manga"):
		return strings.Contains(t, "light novel") || strings.Contains(t, "novel")
	case strings.Contains(f, "novel"):
		return strings.Contains(t, "manga")
	}
	return false
}

// excessTokenDemotion penalizes candidate titles carrying many descriptive
// tokens absent from the context, so an unembellished exact title outranks a
// "Collector Premium Deluxe" special edition of itself.
func excessTokenDemotion(expectedTokens, candidateTokens []string) float64 {
	expectedSet := make(map[string]bool, len(expectedTokens))
	for _, t := range expectedTokens {
		expectedSet[t] = true
	}

	excess := 0
	for _, token := range candidateTokens {
		if expectedSet[token] || isNumericToken(token) || isVolumeMarkerToken(token) {
			continue
		}
		excess++
	}
	if excess <= excessTokenAllowance {
		return 0
	}

	penalty := float64(excess-excessTokenAllowance) * excessTokenPenalty
	if penalty > maxExcessTokenPenalty {
		penalty = maxExcessTokenPenalty
	}
	return penalty
}

func clampScore(score float64) float64 {
	if score > 1 {
		return 1
	}
	if score < minMatchScore {
		return minMatchScore
	}
	return score
}

// fuzzyTokenMatch checks whether two tokens are near-identical via
// Jaro-Winkler similarity. Short tokens are exempt to avoid false positives.
func fuzzyTokenMatch(token1, token2 string) bool {
	if token1 == token2 {
		return true
	}
	if len(token1) < 4 || len(token2) < 4 {
		return false
	}
	return matchr.JaroWinkler(token1, token2, false) >= fuzzyTokenSimilarity
}

// tokenizeTitle splits a title into normalized lowercase tokens. Titles are
// NFKC-folded and stripped of diacritics first so "Pokémon" and "Pokemon"
// tokenize identically; numeric tokens drop leading zeros so "Vol. 01" and
// "Vol. 1" do too.
func tokenizeTitle(s string) []string {
	cleaned := normalizeText(s)
	words := strings.Fields(cleaned)

	var tokens []string
	for _, word := range words {
		if len(word) == 1 && !isNumericToken(word) {
			continue
		}
		if isNumericToken(word) {
			word = strings.TrimLeft(word, "0")
			if word == "" {
				word = "0"
			}
		}
		tokens = append(tokens, word)
	}
	return tokens
}

// normalizeText lowercases, folds unicode compatibility forms, removes
// diacritics and strips punctuation
func normalizeText(s string) string {
	s = norm.NFKC.String(s)
	s = stripDiacritics(s)
	s = strings.ToLower(s)
	s = nonAlnumRegex.ReplaceAllString(s, " ")
	s = multiSpacePattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// stripDiacritics removes combining marks after NFD decomposition
func stripDiacritics(s string) string {
	decomp := norm.NFD.String(s)
	var b strings.Builder
	b.Grow(len(decomp))
	for _, r := range decomp {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isNumericToken(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return len(s) > 0
}

func isVolumeMarkerToken(s string) bool {
	return s == "vol" || s == "volume"
}
