package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"scifind-backend/internal/breaker"
	"scifind-backend/internal/cache"
	"scifind-backend/internal/models"
	"scifind-backend/internal/sources"
)

// fakeAdapter emits a fixed slate of records disjoint from other adapters'
// work keys, so every merged cluster survives unmerged for deterministic
// counting in these tests.
type fakeAdapter struct {
	name    models.SourceTag
	records []*models.PaperRecord
}

func (f *fakeAdapter) Name() models.SourceTag { return f.name }

func (f *fakeAdapter) Search(ctx context.Context, query string, limit int, yearMin, yearMax *int) ([]*models.PaperRecord, error) {
	return f.records, nil
}

func (f *fakeAdapter) Get(ctx context.Context, paperID string) (*models.PaperRecord, error) {
	for _, r := range f.records {
		if r.SourceID == paperID {
			return r, nil
		}
	}
	return nil, nil
}

// manyRecordsAdapter synthesizes n records from one author in one decade,
// each with a distinct title/DOI so normalization clusters them separately.
func manyRecordsAdapter(source models.SourceTag, n int, author string, citations int) *fakeAdapter {
	records := make([]*models.PaperRecord, 0, n)
	for i := 0; i < n; i++ {
		doi := "10.1/" + string(source) + "-" + string(rune('a'+i%26)) + string(rune('0'+i/26))
		year := 2015
		c := citations
		records = append(records, &models.PaperRecord{
			Title:          "paper " + doi,
			Source:         source,
			SourceID:       doi,
			DOI:            &doi,
			Year:           &year,
			Authors:        []models.RecordAuthor{{Name: author}},
			CitationCount:  &c,
			RelevanceScore: 0.5,
			WorkType:       models.WorkTypeJournal,
		})
	}
	return &fakeAdapter{name: source, records: records}
}

// diverseRecordsAdapter synthesizes n records, each with a distinct author
// and decade and lower citations than manyRecordsAdapter's output, so there
// is always diverse supply to fill a page once an author/decade cap trims
// the high-citation group above it.
func diverseRecordsAdapter(source models.SourceTag, n int, citations int) *fakeAdapter {
	records := make([]*models.PaperRecord, 0, n)
	for i := 0; i < n; i++ {
		doi := "10.2/" + string(source) + "-" + string(rune('a'+i%26)) + string(rune('0'+i/26))
		year := 1900 + i*10
		c := citations
		author := "Author " + string(rune('A'+i%26))
		records = append(records, &models.PaperRecord{
			Title:          "paper " + doi,
			Source:         source,
			SourceID:       doi,
			DOI:            &doi,
			Year:           &year,
			Authors:        []models.RecordAuthor{{Name: author}},
			CitationCount:  &c,
			RelevanceScore: 0.5,
			WorkType:       models.WorkTypeJournal,
		})
	}
	return &fakeAdapter{name: source, records: records}
}

func newSearchServiceTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.SearchCache{}, &models.PaperCache{}))
	return db
}

func newTestSearchService(t *testing.T, adapters []sources.Adapter) (*SearchService, *cache.SearchCache) {
	db := newSearchServiceTestDB(t)
	resultCache := cache.NewSearchCache(db, nil, time.Hour, 7*24*time.Hour)
	fanout := sources.NewFanout(adapters, breaker.NewManager(nil), nil)
	svc := NewSearchService(fanout, nil, resultCache, nil, nil, nil).(*SearchService)
	return svc, resultCache
}

func TestSearchServiceRunPipelineAppliesDiversityAcrossFullCandidatePool(t *testing.T) {
	// A high-citation group sharing one author/decade ranks first, plus a
	// diverse low-citation group supplying enough distinct authors/decades
	// to fill the page once the author cap trims the first group.
	prolific := manyRecordsAdapter(models.SourceArxiv, 20, "Prolific Author", 500)
	diverse := diverseRecordsAdapter(models.SourceCrossRef, 15, 10)
	svc, _ := newTestSearchService(t, []sources.Adapter{prolific, diverse})

	req := &SearchRequest{Query: "graph neural networks", Mode: "foundational", Limit: 10}
	req.SetDefaults()

	resp, err := svc.Search(t.Context(), req)
	require.NoError(t, err)
	require.Len(t, resp.Results, 10)

	count := 0
	for _, p := range resp.Results {
		if len(p.Authors) > 0 && p.Authors[0].Name == "Prolific Author" {
			count++
		}
	}
	require.LessOrEqual(t, count, 2, "author diversity cap must survive end-to-end even though one candidate group shares the author")
}

func TestSearchServiceCachePoolSizeIndependentOfTriggeringRequestLimit(t *testing.T) {
	adapter := manyRecordsAdapter(models.SourceArxiv, 30, "Author A", 100)
	svc, resultCache := newTestSearchService(t, []sources.Adapter{adapter})

	// First request triggers a small-limit fetch; if the cached candidate
	// pool were scaled to the triggering request's limit, it would be
	// capped far below the spec's fixed M=100 depth.
	small := &SearchRequest{Query: "graph neural networks", Mode: "foundational", Limit: 5}
	small.SetDefaults()
	_, err := svc.Search(t.Context(), small)
	require.NoError(t, err)

	key := svc.cacheKeyFor(small)
	cached, hit, err := resultCache.GetSearch(t.Context(), key)
	require.NoError(t, err)
	require.True(t, hit)
	require.LessOrEqual(t, len(cached.Records), searchCacheCap)

	// A later request with a larger limit against the same cache key must
	// be able to draw up to the full cached depth, not whatever the first
	// (smaller-limit) request happened to populate.
	large := &SearchRequest{Query: "graph neural networks", Mode: "foundational", Limit: 20}
	large.SetDefaults()
	resp, err := svc.Search(t.Context(), large)
	require.NoError(t, err)
	require.Len(t, resp.Results, 20)
}
