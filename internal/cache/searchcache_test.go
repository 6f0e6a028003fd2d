package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"scifind-backend/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.SearchCache{}, &models.PaperCache{}))
	return db
}

func TestSearchCacheKeyHashStableAcrossFieldOrder(t *testing.T) {
	yearMin := 2020
	k1 := SearchCacheKey{Query: "  Deep Learning  ", Mode: "foundational", YearMin: &yearMin, PublicationTypes: []string{"Book", "Journal"}}
	k2 := SearchCacheKey{Query: "deep learning", Mode: "foundational", YearMin: &yearMin, PublicationTypes: []string{"Journal", "Book"}}
	require.Equal(t, k1.Hash(), k2.Hash())
}

func TestSearchCacheKeyHashExcludesSortAndLimit(t *testing.T) {
	// SearchCacheKey has no sort_by/limit fields at all, so two requests
	// differing only in those always hash identically by construction.
	k := SearchCacheKey{Query: "graphs", Mode: "recent"}
	require.Equal(t, k.Hash(), k.Hash())
}

func TestSearchCacheKeyHashDiffersOnMode(t *testing.T) {
	k1 := SearchCacheKey{Query: "graphs", Mode: "foundational"}
	k2 := SearchCacheKey{Query: "graphs", Mode: "recent"}
	require.NotEqual(t, k1.Hash(), k2.Hash())
}

func TestSearchCacheMissThenSetThenHit(t *testing.T) {
	db := newTestDB(t)
	c := NewSearchCache(db, nil, time.Hour, 7*24*time.Hour)
	key := SearchCacheKey{Query: "transformers", Mode: "foundational"}

	_, hit, err := c.GetSearch(t.Context(), key)
	require.NoError(t, err)
	require.False(t, hit)

	year := 2017
	result := &SearchResult{
		Records:         []*models.MergedPaper{{ID: "m1", Title: "Attention Is All You Need", Year: &year}},
		TotalCandidates: 5,
		SourceStats:     map[models.SourceTag]int{models.SourceArxiv: 5},
	}
	require.NoError(t, c.SetSearch(t.Context(), key, result))

	got, hit, err := c.GetSearch(t.Context(), key)
	require.NoError(t, err)
	require.True(t, hit)
	require.Len(t, got.Records, 1)
	require.Equal(t, "Attention Is All You Need", got.Records[0].Title)
	require.Equal(t, 5, got.TotalCandidates)
}

func TestSearchCacheExpiredEntryIsAMiss(t *testing.T) {
	db := newTestDB(t)
	c := NewSearchCache(db, nil, -time.Hour, 7*24*time.Hour) // already expired
	key := SearchCacheKey{Query: "expired", Mode: "recent"}

	result := &SearchResult{Records: []*models.MergedPaper{{ID: "m1", Title: "x"}}}
	require.NoError(t, c.SetSearch(t.Context(), key, result))

	_, hit, err := c.GetSearch(t.Context(), key)
	require.NoError(t, err)
	require.False(t, hit)
}

func TestPaperCacheResolvesByIDAndDOI(t *testing.T) {
	db := newTestDB(t)
	c := NewSearchCache(db, nil, time.Hour, 7*24*time.Hour)

	doi := "10.1/x"
	paper := &models.MergedPaper{ID: "m1", Title: "Some Paper", DOI: &doi}
	require.NoError(t, c.SetPaper(t.Context(), paper))

	byID, hit, err := c.GetPaper(t.Context(), "m1")
	require.NoError(t, err)
	require.True(t, hit)
	require.Equal(t, "Some Paper", byID.Title)

	byDOI, hit, err := c.GetPaper(t.Context(), doi)
	require.NoError(t, err)
	require.True(t, hit)
	require.Equal(t, "Some Paper", byDOI.Title)
}

func TestPaperCacheMissForUnknownKey(t *testing.T) {
	db := newTestDB(t)
	c := NewSearchCache(db, nil, time.Hour, 7*24*time.Hour)

	_, hit, err := c.GetPaper(t.Context(), "does-not-exist")
	require.NoError(t, err)
	require.False(t, hit)
}
