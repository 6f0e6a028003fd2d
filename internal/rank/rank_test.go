package rank

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"scifind-backend/internal/models"
)

func mp(title string, year int, citations int, relevance float64) *models.MergedPaper {
	c := citations
	return &models.MergedPaper{
		ID:             title,
		Title:          title,
		Year:           &year,
		CitationCount:  &c,
		RelevanceScore: relevance,
		Sources:        []models.SourceTag{models.SourceSemanticScholar},
		Authors:        []models.RecordAuthor{{Name: "Author " + title}},
	}
}

func TestRankPapersEmptyInput(t *testing.T) {
	out := RankPapers(nil, ModeFoundational, 20, false, "", time.Now())
	assert.Nil(t, out)
}

func TestRankPapersFoundationalPrefersCitations(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	old := mp("classic", 2005, 10000, 0.6)
	recent := mp("new", 2025, 5, 0.6)

	out := RankPapers([]*models.MergedPaper{recent, old}, ModeFoundational, 20, false, "", now)
	assert.Equal(t, "classic", out[0].Title)
}

func TestRankPapersRecentPrefersVelocity(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	// old paper: low per-year citation rate and no recency.
	old := mp("slow burner", 2006, 200, 0.6)
	// recent paper: both a higher citation rate and recency boost applies.
	recent := mp("rising star", 2025, 200, 0.6)

	out := RankPapers([]*models.MergedPaper{old, recent}, ModeRecent, 20, false, "", now)
	assert.Equal(t, "rising star", out[0].Title)
}

func TestDetectQueryIntentSurveySeeking(t *testing.T) {
	intent := DetectQueryIntent("a comprehensive survey of transformers")
	assert.Greater(t, intent.SurveySeeking, 0.0)
}

func TestDetectQueryIntentNoKeywords(t *testing.T) {
	intent := DetectQueryIntent("transformers for vision")
	assert.Equal(t, Intent{}, intent)
}

func TestApplyDiversityFiltersCapsPerAuthor(t *testing.T) {
	var papers []*models.MergedPaper
	for i := 0; i < 5; i++ {
		p := mp("paper", 2020, 10, 0.5)
		p.Authors = []models.RecordAuthor{{Name: "Same Author"}}
		papers = append(papers, p)
	}
	out := applyDiversityFilters(papers, 3)
	count := 0
	for _, p := range out {
		if len(p.Authors) > 0 && p.Authors[0].Name == "Same Author" {
			count++
		}
	}
	assert.LessOrEqual(t, count, 3) // backfill allowed once primary candidates exhausted
}

func TestRankPapersEnforcesAuthorDiversityWhenCandidatesExceedLimit(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var papers []*models.MergedPaper
	// 15 high-citation papers sharing one author: these rank first.
	for i := 0; i < 15; i++ {
		p := mp("prolific", 2015, 5000, 0.5)
		p.Authors = []models.RecordAuthor{{Name: "Prolific Author"}}
		papers = append(papers, p)
	}
	// 10 low-citation papers, each a distinct author in a distinct decade:
	// enough diverse supply that the author cap alone (not a backfill that
	// ignores caps) satisfies the limit.
	for i := 0; i < 10; i++ {
		year := 1900 + i*10
		p := mp("unique", year, 10, 0.5)
		p.Authors = []models.RecordAuthor{{Name: "Author " + string(rune('A'+i))}}
		papers = append(papers, p)
	}

	out := RankPapers(papers, ModeFoundational, 10, false, "", now)
	assert.Len(t, out, 10)

	count := 0
	for _, p := range out {
		if len(p.Authors) > 0 && p.Authors[0].Name == "Prolific Author" {
			count++
		}
	}
	assert.LessOrEqual(t, count, 2, "diversity filter must cap a single author at 2 when diverse candidates are available to backfill with")
}

func TestApplyAdaptiveSurveyCapRespectsCapWhenNonSurveysAvailable(t *testing.T) {
	var scored []Scored
	for i := 0; i < 10; i++ {
		p := mp("survey", 2020, 10, 0.5)
		p.IsSurvey = true
		p.Score = float64(i)
		scored = append(scored, Scored{Paper: p})
	}
	for i := 0; i < 10; i++ {
		p := mp("paper", 2020, 10, 0.5)
		p.Score = float64(i)
		scored = append(scored, Scored{Paper: p})
	}
	out := applyAdaptiveSurveyCap(scored, 10, Intent{})
	// The returned pool is not truncated; the cap governs the first `limit`
	// entries, where non-surveys come before any remaining survey.
	surveyCount := 0
	for _, p := range out[:10] {
		if p.IsSurvey {
			surveyCount++
		}
	}
	assert.LessOrEqual(t, surveyCount, maxSurveysInResults)
}
