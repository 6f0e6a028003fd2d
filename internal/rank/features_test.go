package rank

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"scifind-backend/internal/models"
)

func yr(y int) *int { return &y }
func str(s string) *string { return &s }

func TestComputeFeaturesRecencyDecaysWithAge(t *testing.T) {
	recent := &models.MergedPaper{Year: yr(2025), Sources: []models.SourceTag{models.SourceSemanticScholar}, RelevanceScore: 0.8}
	old := &models.MergedPaper{Year: yr(1990), Sources: []models.SourceTag{models.SourceSemanticScholar}, RelevanceScore: 0.8}

	fRecent := ComputeFeatures(recent, 2026, "")
	fOld := ComputeFeatures(old, 2026, "")

	assert.Greater(t, fRecent.Recency, fOld.Recency)
}

func TestComputeFeaturesLogCitations(t *testing.T) {
	c := 100
	p := &models.MergedPaper{CitationCount: &c}
	f := ComputeFeatures(p, 2026, "")
	assert.Greater(t, f.LogCitations, 0.0)
}

func TestComputeVenueQualityTopTier(t *testing.T) {
	p := &models.MergedPaper{Venue: str("Proceedings of NeurIPS 2023"), WorkType: models.WorkTypeConference}
	assert.InDelta(t, 0.9, computeVenueQuality(p), 0.001)
}

func TestComputeVenueQualityNoVenue(t *testing.T) {
	p := &models.MergedPaper{}
	assert.Equal(t, 0.0, computeVenueQuality(p))
}

func TestComputeTopicOverlapDefaultAndScaled(t *testing.T) {
	assert.Equal(t, 0.3, computeTopicOverlap(&models.MergedPaper{}))
	p := &models.MergedPaper{Topics: []string{"a", "b", "c", "d", "e", "f", "g"}}
	assert.InDelta(t, 1.0, computeTopicOverlap(p), 0.001)
}

func TestComputeQuerySimilarityTitleMatch(t *testing.T) {
	p := &models.MergedPaper{Title: "Attention Is All You Need"}
	sim := computeQuerySimilarity("attention mechanism transformers", p)
	assert.Greater(t, sim, 0.0)
}

func TestNormalizeFeaturesRobustScaling(t *testing.T) {
	scored := []Scored{
		{Paper: &models.MergedPaper{}, Features: Features{LogCitations: 1, CitationVelocity: 1, Relevance: 0.2}},
		{Paper: &models.MergedPaper{}, Features: Features{LogCitations: 5, CitationVelocity: 5, Relevance: 0.5}},
		{Paper: &models.MergedPaper{}, Features: Features{LogCitations: 10, CitationVelocity: 10, Relevance: 0.9}},
	}
	out := NormalizeFeatures(scored)
	assert.Len(t, out, 3)
	for _, s := range out {
		assert.GreaterOrEqual(t, s.Features.LogCitations, 0.0)
		assert.LessOrEqual(t, s.Features.LogCitations, 1.0)
	}
}
