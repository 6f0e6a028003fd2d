package dedup

import (
	"strconv"
	"time"

	"scifind-backend/internal/models"
)

// citationAgeThreshold is one row of the spec 4.7 sanity table: a paper
// reporting at least MinCitations must be at least MinAgeYears old.
type citationAgeThreshold struct {
	MinCitations int
	MinAgeYears  int
}

// citationAgeThresholds is ordered by descending MinCitations so the first
// matching row is the strictest applicable one.
var citationAgeThresholds = []citationAgeThreshold{
	{MinCitations: 10000, MinAgeYears: 5},
	{MinCitations: 5000, MinAgeYears: 4},
	{MinCitations: 2000, MinAgeYears: 3},
	{MinCitations: 500, MinAgeYears: 2},
}

const arxivIDProvenance = "arxiv_id_inference"

// CitationAgeSanityPass checks a merged paper's citation count against its
// age and flags/corrects implausible combinations, per spec 4.7.
func CitationAgeSanityPass(m *models.MergedPaper, now time.Time) {
	if m.CitationCount == nil || m.Year == nil {
		return
	}
	citations := *m.CitationCount
	ageYears := now.Year() - *m.Year

	var requiredAge int
	matched := false
	for _, th := range citationAgeThresholds {
		if citations >= th.MinCitations {
			requiredAge = th.MinAgeYears
			matched = true
			break
		}
	}
	if !matched || ageYears >= requiredAge {
		return
	}

	m.AddFlag(models.FlagImplausibleCitationAge)

	if correctedYear, ok := yearFromArxivID(m.ArxivID, now); ok {
		m.Year = &correctedYear
		m.AddFlag(models.FlagYearCorrected)
		m.FieldProvenance["year"] = models.SourceTag(arxivIDProvenance)
		return
	}

	m.Year = nil
	m.AddFlag(models.FlagYearUncorrectable)
}

// yearFromArxivID decodes the year implied by an arXiv id's leading four
// digits (YYMM format): 2000+yy if yy<50, else 1900+yy. Returns ok=false if
// the id is too short, non-numeric, or the decoded year fails validation.
func yearFromArxivID(arxivID *string, now time.Time) (int, bool) {
	if arxivID == nil || len(*arxivID) < 4 {
		return 0, false
	}
	digits := (*arxivID)[:4]
	yy, err := strconv.Atoi(digits[:2])
	if err != nil {
		return 0, false
	}
	if _, err := strconv.Atoi(digits[2:4]); err != nil {
		return 0, false
	}
	var year int
	if yy < 50 {
		year = 2000 + yy
	} else {
		year = 1900 + yy
	}
	return NormalizeYear(year, now)
}
