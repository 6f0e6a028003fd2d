package sources

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCrossRefSearchParsesResultsAndYearPriority(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"message":{"items":[
			{"DOI":"10.1/x","title":["A Review of Graph Neural Networks"],
			 "author":[{"given":"Jane","family":"Doe"}],
			 "published-online":{"date-parts":[[2019]]},
			 "published-print":{"date-parts":[[2020]]},
			 "container-title":["JMLR"],"type":"review",
			 "abstract":"<jats:p>gnns are useful</jats:p>",
			 "is-referenced-by-count":7,"URL":"https://crossref.example/x"}
		]}}`))
	}))
	defer srv.Close()

	a := NewCrossRefAdapter(newTestHTTPClient(), "me@example.org")
	a.baseURL = srv.URL

	records, err := a.Search(t.Context(), "gnn", 10, nil, nil)
	require.NoError(t, err)
	require.Len(t, records, 1)
	rec := records[0]
	assert.Equal(t, 2020, *rec.Year) // published-print wins over published-online
	assert.Equal(t, "gnns are useful", *rec.Abstract)
	assert.True(t, rec.IsSurvey)
	assert.Equal(t, 7, *rec.CitationCount)
}

func TestCrossRefSearchSkipsItemsWithoutTitle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"message":{"items":[{"DOI":"10.1/notitle","title":[]}]}}`))
	}))
	defer srv.Close()

	a := NewCrossRefAdapter(newTestHTTPClient(), "me@example.org")
	a.baseURL = srv.URL

	records, err := a.Search(t.Context(), "x", 10, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestCrossRefSearchRateLimitedReturnsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	a := NewCrossRefAdapter(newTestHTTPClient(), "me@example.org")
	a.baseURL = srv.URL

	records, err := a.Search(t.Context(), "x", 10, nil, nil)
	assert.NoError(t, err)
	assert.Nil(t, records)
}

func TestCrossRefGetNotFoundReturnsNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	a := NewCrossRefAdapter(newTestHTTPClient(), "me@example.org")
	a.baseURL = srv.URL

	rec, err := a.Get(t.Context(), "10.1/missing")
	assert.NoError(t, err)
	assert.Nil(t, rec)
}

func TestCrossRefSearchMalformedBodyReturnsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	a := NewCrossRefAdapter(newTestHTTPClient(), "me@example.org")
	a.baseURL = srv.URL

	records, err := a.Search(t.Context(), "x", 10, nil, nil)
	assert.NoError(t, err)
	assert.Nil(t, records)
}
