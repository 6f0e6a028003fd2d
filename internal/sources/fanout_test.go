package sources

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scifind-backend/internal/breaker"
	"scifind-backend/internal/models"
)

type fakeAdapter struct {
	name    models.SourceTag
	records []*models.PaperRecord
	err     error
}

func (f *fakeAdapter) Name() models.SourceTag { return f.name }

func (f *fakeAdapter) Search(ctx context.Context, query string, limit int, yearMin, yearMax *int) ([]*models.PaperRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

func (f *fakeAdapter) Get(ctx context.Context, paperID string) (*models.PaperRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, r := range f.records {
		if r.SourceID == paperID {
			return r, nil
		}
	}
	return nil, nil
}

func TestFanoutSearchAggregatesAcrossAdapters(t *testing.T) {
	a1 := &fakeAdapter{name: models.SourceArxiv, records: []*models.PaperRecord{{Title: "A", SourceID: "1"}}}
	a2 := &fakeAdapter{name: models.SourceCrossRef, records: []*models.PaperRecord{{Title: "B", SourceID: "2"}, {Title: "C", SourceID: "3"}}}

	f := NewFanout([]Adapter{a1, a2}, breaker.NewManager(nil), nil)
	result := f.Search(t.Context(), "query", 10, nil, nil)

	assert.Len(t, result.Records, 3)
	assert.Equal(t, 1, result.SourceStats[models.SourceArxiv])
	assert.Equal(t, 2, result.SourceStats[models.SourceCrossRef])
}

func TestFanoutSearchOneAdapterFailingDoesNotFailOthers(t *testing.T) {
	good := &fakeAdapter{name: models.SourceArxiv, records: []*models.PaperRecord{{Title: "A", SourceID: "1"}}}
	bad := &fakeAdapter{name: models.SourceCrossRef, err: errors.New("boom")}

	f := NewFanout([]Adapter{good, bad}, breaker.NewManager(nil), nil)
	result := f.Search(t.Context(), "query", 10, nil, nil)

	require.Len(t, result.Records, 1)
	assert.Equal(t, "A", result.Records[0].Title)
	assert.Equal(t, 0, result.SourceStats[models.SourceCrossRef])
}

func TestFanoutSkipsCallWhenBreakerOpen(t *testing.T) {
	mgr := breaker.NewManager(nil)

	b := mgr.GetOrCreate(string(models.SourceCrossRef))
	b.RecordFailure()
	b.RecordFailure()
	b.RecordFailure()
	require.False(t, b.IsAvailable())

	tracking := &fakeAdapter{name: models.SourceCrossRef, records: []*models.PaperRecord{{Title: "should not appear", SourceID: "1"}}}
	f := NewFanout([]Adapter{tracking}, mgr, nil)
	result := f.Search(t.Context(), "query", 10, nil, nil)

	assert.Empty(t, result.Records)
	assert.Equal(t, 0, result.SourceStats[models.SourceCrossRef])
}

func TestFanoutGetFromSourceUsesMatchingAdapter(t *testing.T) {
	a1 := &fakeAdapter{name: models.SourceArxiv, records: []*models.PaperRecord{{Title: "A", SourceID: "1"}}}
	f := NewFanout([]Adapter{a1}, breaker.NewManager(nil), nil)

	rec, err := f.GetFromSource(t.Context(), models.SourceArxiv, "1")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "A", rec.Title)
}

func TestFanoutGetFromSourceUnknownSourceReturnsNil(t *testing.T) {
	f := NewFanout(nil, breaker.NewManager(nil), nil)

	rec, err := f.GetFromSource(t.Context(), models.SourceArxiv, "1")
	assert.NoError(t, err)
	assert.Nil(t, rec)
}
