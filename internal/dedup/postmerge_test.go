package dedup

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"scifind-backend/internal/models"
)

func newMerged(title string) *models.MergedPaper {
	return &models.MergedPaper{
		Title:            title,
		FieldProvenance:  map[string]models.SourceTag{},
		DataQualityFlags: map[models.DataQualityFlag]bool{},
		Keywords:         map[string]bool{},
		Urls:             map[string]bool{},
		SourceIDs:        map[models.SourceTag]string{},
	}
}

func TestSafePostMergeDedupNoOpUnderTwo(t *testing.T) {
	papers := []*models.MergedPaper{newMerged("Solo")}
	out := SafePostMergeDedup(papers)
	assert.Len(t, out, 1)
}

func TestSafePostMergeDedupMergesSameArxivID(t *testing.T) {
	a := newMerged("Attention Is All You Need")
	a.ArxivID = strp("1706.03762")
	a.DOI = strp("10.1/a")
	b := newMerged("Attention Is All You Need")
	b.ArxivID = strp("1706.03762")

	out := SafePostMergeDedup([]*models.MergedPaper{a, b})
	assert.Len(t, out, 1)
	assert.NotNil(t, out[0].DOI)
}

func TestSafePostMergeDedupMergesExactlyOneHasStrongID(t *testing.T) {
	a := newMerged("Deep Residual Learning for Image Recognition")
	a.DOI = strp("10.1109/cvpr.2016.90")
	b := newMerged("Deep Residual Learning for Image Recognition")
	// b has neither doi nor arxiv id -> xor condition triggers.

	out := SafePostMergeDedup([]*models.MergedPaper{a, b})
	assert.Len(t, out, 1)
}

func TestSafePostMergeDedupLeavesDistinctPapers(t *testing.T) {
	a := newMerged("Attention Is All You Need")
	a.DOI = strp("10.1/a")
	b := newMerged("Completely Different Topic About Whales")
	b.DOI = strp("10.1/b")

	out := SafePostMergeDedup([]*models.MergedPaper{a, b})
	assert.Len(t, out, 2)
}

func TestSafePostMergeDedupBadMetadataFlagTriggersPairing(t *testing.T) {
	a := newMerged("A Survey of Transformer Architectures")
	a.AddFlag(models.FlagYearUncorrectable)
	b := newMerged("A Survey of Transformer Architectures")

	out := SafePostMergeDedup([]*models.MergedPaper{a, b})
	assert.Len(t, out, 1)
}

func TestMergePreferenceScorePrefersCompleteRecord(t *testing.T) {
	good := newMerged("x")
	good.Year = intp(2020)
	good.DOI = strp("10.1/x")
	good.Abstract = strp("abs")
	good.Sources = []models.SourceTag{models.SourceSemanticScholar}

	bad := newMerged("x")
	bad.AddFlag(models.FlagBadYear)

	assert.Greater(t, mergePreferenceScore(good), mergePreferenceScore(bad))
}

func TestMergePostPairTransfersYearOnlyWhenPrimaryImplausible(t *testing.T) {
	primary := newMerged("x")
	primary.Year = intp(2024)
	primary.CitationCount = intp(50000)
	primary.AddFlag(models.FlagImplausibleCitationAge)
	primary.DOI = strp("10.1/x")
	primary.ArxivID = strp("1706.03762")
	primary.Sources = []models.SourceTag{models.SourceSemanticScholar}
	// score: +20(year) +5(doi) +10(arxiv) +8(s2) +5(citation bonus) -30(implausible) = 18

	secondary := newMerged("x")
	secondary.Year = intp(2017)
	// score: +20(year) = 20, still below primary's 18? keep primary ahead by
	// adding one more bonus so the swap path is not exercised.
	primary.Abstract = strp("abs") // +2 -> primary score 20, ties; swap only on strict >, primary stays primary

	result := mergePostPair(primary, secondary)
	assert.Equal(t, 2017, *result.Year)
}

func TestMergePostPairFillsMissingFields(t *testing.T) {
	primary := newMerged("x")
	primary.DOI = strp("10.1/x")
	primary.Year = intp(2020)

	secondary := newMerged("x")
	secondary.Abstract = strp("secondary abstract")

	result := mergePostPair(primary, secondary)
	assert.NotNil(t, result.Abstract)
	assert.Equal(t, "secondary abstract", *result.Abstract)
}
