package dedup

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"scifind-backend/internal/models"
)

func intp(i int) *int { return &i }
func strp(s string) *string { return &s }

func TestTitleSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, TitleSimilarity("Attention Is All You Need", "attention is all you need"), 0.01)
	assert.Equal(t, 0.0, TitleSimilarity("", "anything"))
	assert.Greater(t, TitleSimilarity("Deep Learning Survey", "Survey Deep Learning"), 0.9)
}

func TestYearSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, YearSimilarity(intp(2020), intp(2020)))
	assert.Equal(t, 0.9, YearSimilarity(intp(2020), intp(2021)))
	assert.Equal(t, 0.7, YearSimilarity(intp(2020), intp(2022)))
	assert.Equal(t, 0.0, YearSimilarity(intp(2020), intp(2025)))
	assert.Equal(t, 0.5, YearSimilarity(nil, intp(2020)))
}

func TestAreLikelySamePaperDOIDefinitive(t *testing.T) {
	a := &models.PaperRecord{Title: "Foo", DOI: strp("10.1/abc")}
	b := &models.PaperRecord{Title: "Bar", DOI: strp("10.1/abc")}
	assert.True(t, AreLikelySamePaper(a, b))

	c := &models.PaperRecord{Title: "Foo", DOI: strp("10.1/xyz")}
	assert.False(t, AreLikelySamePaper(a, c))
}

func TestAreLikelySamePaperFuzzy(t *testing.T) {
	a := &models.PaperRecord{
		Title: "Attention Is All You Need",
		Year:  intp(2017),
		Authors: []models.RecordAuthor{{Name: "Ashish Vaswani"}},
	}
	b := &models.PaperRecord{
		Title: "Attention is all you need",
		Year:  intp(2017),
		Authors: []models.RecordAuthor{{Name: "Vaswani, Ashish"}},
	}
	assert.True(t, AreLikelySamePaper(a, b))

	c := &models.PaperRecord{
		Title: "Attention Is All You Need",
		Year:  intp(1990),
	}
	assert.False(t, AreLikelySamePaper(a, c))
}
