package dedup

import (
	"sort"
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"

	"scifind-backend/internal/models"
)

// ratioMetric backs the fuzzy "token sort ratio" and "ratio" primitives.
// Levenshtein-based normalized similarity is the closest stdlib-adjacent
// analogue available in the strutil package to rapidfuzz's ratio family; no
// example in the retrieval pack implements fuzzy string matching, so this
// dependency is named rather than grounded (see DESIGN.md).
var ratioMetric = metrics.NewLevenshtein()

// tokenSort splits s on whitespace and rejoins the tokens in sorted order,
// neutralizing word-order differences before similarity scoring.
func tokenSort(s string) string {
	tokens := strings.Fields(s)
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

// TitleSimilarity computes the token-sort fuzzy ratio of two normalized
// titles, in [0,1]. Returns 0 if either is empty after normalization.
func TitleSimilarity(a, b string) float64 {
	na, nb := NormalizeTitle(a), NormalizeTitle(b)
	if na == "" || nb == "" {
		return 0
	}
	sa, sb := tokenSort(na), tokenSort(nb)
	return strutil.Similarity(sa, sb, ratioMetric)
}

// AuthorSimilarity compares first-author surnames: 1.0 on exact match, a
// fuzzy ratio on near matches, 0.5 if either side is unknown.
func AuthorSimilarity(a, b []models.RecordAuthor) float64 {
	la, ok1 := ExtractFirstAuthorSurname(a)
	lb, ok2 := ExtractFirstAuthorSurname(b)
	if !ok1 || !ok2 {
		return 0.5
	}
	if la == lb {
		return 1.0
	}
	return strutil.Similarity(la, lb, ratioMetric)
}

// YearSimilarity scores 1.0/0.9/0.7/0.0 by absolute difference of 0/1/2/>2
// years; 0.5 when either side is unknown.
func YearSimilarity(a, b *int) float64 {
	if a == nil || b == nil {
		return 0.5
	}
	diff := *a - *b
	if diff < 0 {
		diff = -diff
	}
	switch {
	case diff == 0:
		return 1.0
	case diff == 1:
		return 0.9
	case diff == 2:
		return 0.7
	default:
		return 0.0
	}
}

const (
	titleSimThreshold = 0.90
	titleSimHighConf  = 0.95
	authorSimMin      = 0.30
	combinedThreshold = 0.85
)

// AreLikelySamePaper decides whether two records are likely the same work,
// per spec 4.3: DOI is definitive when both are present; otherwise fuzzy
// title/author/year matching with a combined-score fallback.
func AreLikelySamePaper(a, b *models.PaperRecord) bool {
	if a.DOI != nil && b.DOI != nil {
		return strings.EqualFold(*a.DOI, *b.DOI)
	}

	titleSim := TitleSimilarity(a.Title, b.Title)
	if titleSim < titleSimThreshold {
		return false
	}

	if a.Year != nil && b.Year != nil {
		diff := *a.Year - *b.Year
		if diff < 0 {
			diff = -diff
		}
		if diff > 2 {
			return false
		}
	}

	if titleSim >= titleSimHighConf {
		return true
	}

	authorSim := AuthorSimilarity(a.Authors, b.Authors)
	if authorSim < authorSimMin {
		return false
	}

	yearSim := YearSimilarity(a.Year, b.Year)
	combined := titleSim*0.5 + authorSim*0.35 + yearSim*0.15
	return combined >= combinedThreshold
}
