package usecase

import (
	"errors"
	"strings"
	"testing"

	"github.com/shelfwatch/backend/internal/domain"
)

func mangaContext(t *testing.T, volume string) *domain.SearchContext {
	t.Helper()
	sctx, err := NewContextBuilder("", false).BuildSearchContext(map[string]string{
		"title":  "One Piece",
		"volume": volume,
		"format": "Manga",
	})
	if err != nil {
		t.Fatalf("unexpected error building context: %v", err)
	}
	return sctx
}

func listing(title string) domain.Listing {
	return domain.Listing{ASIN: "B000TEST01", Title: title}
}

func TestNewMatchingService(t *testing.T) {
	t.Run("creates service with provided threshold", func(t *testing.T) {
		svc := NewMatchingService(MatchConfig{AcceptanceThreshold: 0.5})
		if svc.acceptanceThreshold != 0.5 {
			t.Errorf("acceptanceThreshold = %v, want 0.5", svc.acceptanceThreshold)
		}
	})

	t.Run("uses default threshold when zero", func(t *testing.T) {
		svc := NewMatchingService(MatchConfig{})
		if svc.acceptanceThreshold != defaultAcceptanceThreshold {
			t.Errorf("acceptanceThreshold = %v, want default %v", svc.acceptanceThreshold, defaultAcceptanceThreshold)
		}
	})

	t.Run("uses default threshold when out of range", func(t *testing.T) {
		svc := NewMatchingService(MatchConfig{AcceptanceThreshold: 1.5})
		if svc.acceptanceThreshold != defaultAcceptanceThreshold {
			t.Errorf("acceptanceThreshold = %v, want default %v", svc.acceptanceThreshold, defaultAcceptanceThreshold)
		}
	})
}

func TestScore_EligibilityGate(t *testing.T) {
	svc := NewMatchingService(MatchConfig{})
	sctx := mangaContext(t, "1")

	t.Run("unrelated title is ineligible", func(t *testing.T) {
		_, eligible := svc.Score(sctx, listing("The Ultimate Cookbook: 500 Recipes"))
		if eligible {
			t.Error("cookbook should not be eligible against One Piece")
		}
	})

	t.Run("partial required tokens are not enough", func(t *testing.T) {
		_, eligible := svc.Score(sctx, listing("Piece of Cake Baking Guide"))
		if eligible {
			t.Error("title missing a required token should not be eligible")
		}
	})

	t.Run("all required tokens make a candidate eligible", func(t *testing.T) {
		score, eligible := svc.Score(sctx, listing("One Piece, Vol. 1"))
		if !eligible {
			t.Fatal("exact series title should be eligible")
		}
		if score <= 0 {
			t.Errorf("score = %v, want > 0", score)
		}
	})

	t.Run("gate ignores case and punctuation", func(t *testing.T) {
		_, eligible := svc.Score(sctx, listing("ONE PIECE: Vol. 1"))
		if !eligible {
			t.Error("case/punctuation variants should pass the gate")
		}
	})

	t.Run("empty title is ineligible", func(t *testing.T) {
		_, eligible := svc.Score(sctx, listing(""))
		if eligible {
			t.Error("empty title should not be eligible")
		}
	})
}

func TestScore_VolumeHandling(t *testing.T) {
	svc := NewMatchingService(MatchConfig{})
	sctx := mangaContext(t, "1")

	t.Run("exact volume outranks off-by-one volume", func(t *testing.T) {
		exact, _ := svc.Score(sctx, listing("One Piece, Vol. 1"))
		offByOne, _ := svc.Score(sctx, listing("One Piece, Vol. 2"))
		if exact <= offByOne {
			t.Errorf("exact volume score %v should beat off-by-one score %v", exact, offByOne)
		}
	})

	t.Run("zero-padded volume counts as exact", func(t *testing.T) {
		padded, _ := svc.Score(sctx, listing("One Piece, Vol. 01"))
		plain, _ := svc.Score(sctx, listing("One Piece, Vol. 1"))
		if padded != plain {
			t.Errorf("zero-padded score %v differs from plain score %v", padded, plain)
		}
	})

	t.Run("containing range outranks excluding range", func(t *testing.T) {
		contains, _ := svc.Score(sctx, listing("One Piece Box Set Vol. 1-3"))
		excludes, _ := svc.Score(sctx, listing("One Piece Box Set Vol. 4-6"))
		if contains <= excludes {
			t.Errorf("containing range score %v should beat excluding range score %v", contains, excludes)
		}
	})

	t.Run("bare box set range is recognized", func(t *testing.T) {
		contains, _ := svc.Score(sctx, listing("One Piece Box Set 1-3"))
		excludes, _ := svc.Score(sctx, listing("One Piece Box Set 4-6"))
		if contains <= excludes {
			t.Errorf("containing range score %v should beat excluding range score %v", contains, excludes)
		}
	})

	t.Run("no volume requested means no volume adjustment", func(t *testing.T) {
		noVolume := mangaContext(t, "")
		a, _ := svc.Score(noVolume, listing("One Piece, Vol. 7 Manga"))
		b, _ := svc.Score(noVolume, listing("One Piece, Vol. 9 Manga"))
		if a != b {
			t.Errorf("without a requested volume, scores %v and %v should be equal", a, b)
		}
	})
}

func TestScore_FormatConflict(t *testing.T) {
	svc := NewMatchingService(MatchConfig{})

	t.Run("light novel marker demotes manga query", func(t *testing.T) {
		sctx := mangaContext(t, "1")
		manga, _ := svc.Score(sctx, listing("One Piece, Vol. 1"))
		novel, eligible := svc.Score(sctx, listing("One Piece (Light Novel) Vol. 1"))
		if !eligible {
			t.Fatal("format conflict must demote, not exclude")
		}
		if novel >= manga {
			t.Errorf("light novel score %v should be below manga score %v", novel, manga)
		}
	})

	t.Run("manga marker demotes light novel query", func(t *testing.T) {
		sctx, err := NewContextBuilder("", false).BuildSearchContext(map[string]string{
			"title":  "Spice and Wolf",
			"volume": "1",
			"format": "Light Novel",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		novel, _ := svc.Score(sctx, listing("Spice and Wolf, Vol. 1"))
		manga, _ := svc.Score(sctx, listing("Spice and Wolf, Vol. 1 (Manga)"))
		if manga >= novel {
			t.Errorf("manga score %v should be below novel score %v", manga, novel)
		}
	})
}

func TestScore_ExcessTokenDemotion(t *testing.T) {
	svc := NewMatchingService(MatchConfig{})
	sctx := mangaContext(t, "1")

	plain, _ := svc.Score(sctx, listing("One Piece, Vol. 1"))
	deluxe, _ := svc.Score(sctx, listing("One Piece Vol. 1 Collector Premium Deluxe Gold Limited Legacy Edition"))

	if deluxe >= plain {
		t.Errorf("special edition score %v should be below plain score %v", deluxe, plain)
	}
}

func TestScore_FuzzyTokens(t *testing.T) {
	strict := NewMatchingService(MatchConfig{EnableFuzzyMatching: false})
	fuzzy := NewMatchingService(MatchConfig{EnableFuzzyMatching: true})
	sctx := mangaContext(t, "1")

	// "Mangas" only matches the expected "Manga" token fuzzily
	title := "One Piece, Vol. 1 Mangas"

	strictScore, _ := strict.Score(sctx, listing(title))
	fuzzyScore, _ := fuzzy.Score(sctx, listing(title))
	if fuzzyScore <= strictScore {
		t.Errorf("fuzzy score %v should exceed strict score %v", fuzzyScore, strictScore)
	}
}

func TestRank(t *testing.T) {
	svc := NewMatchingService(MatchConfig{})
	sctx := mangaContext(t, "1")

	t.Run("empty candidate list is a not-found error", func(t *testing.T) {
		_, err := svc.Rank(sctx, nil)
		if !errors.Is(err, domain.ErrNoListings) {
			t.Errorf("error = %v, want ErrNoListings", err)
		}
	})

	t.Run("sponsored candidates are never selected", func(t *testing.T) {
		sponsored := domain.Listing{Title: "One Piece, Vol. 1 Manga", Sponsored: true}
		organic := domain.Listing{Title: "One Piece Box Set Vol. 1-3"}

		ranked, err := svc.Rank(sctx, []domain.Listing{sponsored, organic})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, r := range ranked {
			if r.Listing.Sponsored {
				t.Errorf("sponsored listing %q made it into the ranking", r.Listing.Title)
			}
		}
		if ranked[0].Listing.Title != organic.Title {
			t.Errorf("best = %q, want the organic listing", ranked[0].Listing.Title)
		}
	})

	t.Run("all below threshold is a distinct not-found error", func(t *testing.T) {
		_, err := svc.Rank(sctx, []domain.Listing{
			{Title: "One Piece Encyclopedia Deluxe Collector Art Compendium Special Anniversary Guide Vol. 8"},
		})
		if !errors.Is(err, domain.ErrNoMatch) {
			t.Fatalf("error = %v, want ErrNoMatch", err)
		}
		// The message must name the mismatch, not just say "no results"
		if !strings.Contains(err.Error(), "One Piece") {
			t.Errorf("error message %q should mention the searched title", err.Error())
		}
	})

	t.Run("only sponsored listings is a not-found error", func(t *testing.T) {
		_, err := svc.Rank(sctx, []domain.Listing{
			{Title: "One Piece, Vol. 1", Sponsored: true},
		})
		if !errors.Is(err, domain.ErrNoMatch) {
			t.Errorf("error = %v, want ErrNoMatch", err)
		}
	})

	t.Run("scores are clamped into (0,1]", func(t *testing.T) {
		ranked, err := svc.Rank(sctx, []domain.Listing{
			{Title: "One Piece, Vol. 1 Manga"},
			{Title: "One Piece Box Set Vol. 1-3"},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, r := range ranked {
			if r.Score <= 0 || r.Score > 1 {
				t.Errorf("score %v for %q outside (0,1]", r.Score, r.Listing.Title)
			}
		}
	})

	t.Run("ties keep document order", func(t *testing.T) {
		first := domain.Listing{ASIN: "A", Title: "One Piece, Vol. 1"}
		second := domain.Listing{ASIN: "B", Title: "One Piece Vol. 1"}

		ranked, err := svc.Rank(sctx, []domain.Listing{first, second})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ranked[0].Listing.ASIN != "A" {
			t.Errorf("tie-break picked %q, want the earlier candidate", ranked[0].Listing.ASIN)
		}
	})

	t.Run("best match first", func(t *testing.T) {
		ranked, err := svc.Rank(sctx, []domain.Listing{
			{Title: "One Piece Box Set Vol. 1-3"},
			{Title: "One Piece, Vol. 1 Manga"},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ranked[0].Listing.Title != "One Piece, Vol. 1 Manga" {
			t.Errorf("best = %q, want the exact volume", ranked[0].Listing.Title)
		}
	})
}

func TestFindVolumeRefs(t *testing.T) {
	tests := []struct {
		title       string
		wantSingles []int
		wantRanges  [][2]int
	}{
		{"One Piece, Vol. 1", []int{1}, nil},
		{"One Piece Volume 05", []int{5}, nil},
		{"One Piece #12", []int{12}, nil},
		{"One Piece Box Set Vol. 4-6", nil, [][2]int{{4, 6}}},
		{"One Piece Box Set 1-3", nil, [][2]int{{1, 3}}},
		{"One Piece", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			singles, ranges := findVolumeRefs(tt.title)
			if len(singles) != len(tt.wantSingles) {
				t.Fatalf("singles = %v, want %v", singles, tt.wantSingles)
			}
			for i := range tt.wantSingles {
				if singles[i] != tt.wantSingles[i] {
					t.Fatalf("singles = %v, want %v", singles, tt.wantSingles)
				}
			}
			if len(ranges) != len(tt.wantRanges) {
				t.Fatalf("ranges = %v, want %v", ranges, tt.wantRanges)
			}
			for i := range tt.wantRanges {
				if ranges[i] != tt.wantRanges[i] {
					t.Fatalf("ranges = %v, want %v", ranges, tt.wantRanges)
				}
			}
		})
	}
}

func TestTokenizeTitle(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"basic", "One Piece, Vol. 1", []string{"one", "piece", "vol", "1"}},
		{"leading zeros dropped", "Vol. 05", []string{"vol", "5"}},
		{"diacritics folded", "Pokémon Adventures", []string{"pokemon", "adventures"}},
		{"fullwidth folded", "Ｏｎｅ Ｐｉｅｃｅ", []string{"one", "piece"}},
		{"empty", "   ", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tokenizeTitle(tt.input)
			if len(got) != len(tt.want) {
				t.Fatalf("tokens = %v, want %v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Fatalf("tokens = %v, want %v", got, tt.want)
				}
			}
		})
	}
}
