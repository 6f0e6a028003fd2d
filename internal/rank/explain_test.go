package rank

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"scifind-backend/internal/models"
)

func TestGenerateWhyBulletsHighlyCited(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := 5000
	y := 2010
	p := &models.MergedPaper{Title: "x", CitationCount: &c, Year: &y, RelevanceScore: 0.9, Sources: []models.SourceTag{models.SourceSemanticScholar}}
	others := []*models.MergedPaper{p}
	bullets := GenerateWhyBullets(p, ModeFoundational, others, now)
	assert.NotEmpty(t, bullets)
}

func TestGenerateWhyBulletsOpenAccessAlwaysIncluded(t *testing.T) {
	now := time.Now()
	p := &models.MergedPaper{Title: "x", IsOpenAccess: true}
	bullets := GenerateWhyBullets(p, ModeFoundational, []*models.MergedPaper{p}, now)
	assert.Contains(t, bullets, explanationText["open_access"])
}

func TestGenerateWhyBulletsSurveyAlwaysIncluded(t *testing.T) {
	now := time.Now()
	p := &models.MergedPaper{Title: "x", IsSurvey: true}
	bullets := GenerateWhyBullets(p, ModeFoundational, []*models.MergedPaper{p}, now)
	assert.Contains(t, bullets, explanationText["survey"])
}

func TestGenerateWhyBulletsCapsAtFour(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := 10000
	y := 2024
	venue := "Nature"
	p := &models.MergedPaper{
		Title: "x", CitationCount: &c, Year: &y, Venue: &venue,
		IsSurvey: true, IsOpenAccess: true, RelevanceScore: 0.95,
		WorkType: models.WorkTypeJournal,
		Sources:  []models.SourceTag{models.SourceSemanticScholar},
	}
	bullets := GenerateWhyBullets(p, ModeFoundational, []*models.MergedPaper{p}, now)
	assert.LessOrEqual(t, len(bullets), maxExplanationBullets)
}

func TestGenerateWhyBulletsHighRelevanceSuppressedWhenLow(t *testing.T) {
	now := time.Now()
	p := &models.MergedPaper{Title: "x", RelevanceScore: 0.1}
	bullets := GenerateWhyBullets(p, ModeFoundational, []*models.MergedPaper{p}, now)
	assert.NotContains(t, bullets, explanationText["high_relevance"])
}
