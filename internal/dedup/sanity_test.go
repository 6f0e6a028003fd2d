package dedup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"scifind-backend/internal/models"
)

func newMergedForSanity(citations, year int, arxivID *string) *models.MergedPaper {
	return &models.MergedPaper{
		CitationCount:    &citations,
		Year:             &year,
		ArxivID:          arxivID,
		FieldProvenance:  map[string]models.SourceTag{},
		DataQualityFlags: map[models.DataQualityFlag]bool{},
	}
}

func TestCitationAgeSanityPassNoFlagWhenPlausible(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m := newMergedForSanity(10000, 2015, nil)
	CitationAgeSanityPass(m, now)
	assert.False(t, m.HasFlag(models.FlagImplausibleCitationAge))
}

func TestCitationAgeSanityPassFlagsAndCorrectsFromArxivID(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m := newMergedForSanity(10000, 2024, strp("1706.03762"))
	CitationAgeSanityPass(m, now)
	assert.True(t, m.HasFlag(models.FlagImplausibleCitationAge))
	assert.True(t, m.HasFlag(models.FlagYearCorrected))
	assert.NotNil(t, m.Year)
	assert.Equal(t, 2017, *m.Year)
	assert.Equal(t, models.SourceTag(arxivIDProvenance), m.FieldProvenance["year"])
}

func TestCitationAgeSanityPassUncorrectableWithoutArxivID(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m := newMergedForSanity(10000, 2024, nil)
	CitationAgeSanityPass(m, now)
	assert.True(t, m.HasFlag(models.FlagImplausibleCitationAge))
	assert.True(t, m.HasFlag(models.FlagYearUncorrectable))
	assert.Nil(t, m.Year)
}

func TestCitationAgeSanityPassSkipsWhenFieldsMissing(t *testing.T) {
	now := time.Now()
	m := &models.MergedPaper{FieldProvenance: map[string]models.SourceTag{}, DataQualityFlags: map[models.DataQualityFlag]bool{}}
	CitationAgeSanityPass(m, now)
	assert.False(t, m.HasFlag(models.FlagImplausibleCitationAge))
}

func TestYearFromArxivID(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	year, ok := yearFromArxivID(strp("1706.03762"), now)
	assert.True(t, ok)
	assert.Equal(t, 2017, year)

	year, ok = yearFromArxivID(strp("9912.00001"), now)
	assert.True(t, ok)
	assert.Equal(t, 1999, year)

	_, ok = yearFromArxivID(nil, now)
	assert.False(t, ok)
}
