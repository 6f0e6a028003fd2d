package sources

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAlexSearchParsesResultsAndReconstructsAbstract(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":[
			{"id":"https://openalex.org/W123","doi":"https://doi.org/10.1/arxiv.1706.03762","title":"Attention",
			 "abstract_inverted_index":{"we":[0],"propose":[1]},
			 "publication_year":2017,"type":"article",
			 "authorships":[{"author":{"display_name":"A Vaswani"},"institutions":[{"display_name":"Google"}]}],
			 "concepts":[{"display_name":"Deep Learning","score":0.9}],
			 "cited_by_count":42,
			 "open_access":{"is_oa":true,"oa_url":"https://oa.example/x.pdf"}}
		]}`))
	}))
	defer srv.Close()

	a := NewOpenAlexAdapter(newTestHTTPClient(), "me@example.org")
	a.baseURL = srv.URL

	records, err := a.Search(t.Context(), "attention", 10, nil, nil)
	require.NoError(t, err)
	require.Len(t, records, 1)
	rec := records[0]
	assert.Equal(t, "we propose", *rec.Abstract)
	assert.Equal(t, "1706.03762", *rec.ArxivID)
	assert.Equal(t, "W123", rec.SourceID)
	assert.Equal(t, 42, *rec.CitationCount)
	assert.True(t, rec.IsOpenAccess)
}

func TestOpenAlexSearchRateLimitedReturnsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	a := NewOpenAlexAdapter(newTestHTTPClient(), "me@example.org")
	a.baseURL = srv.URL

	records, err := a.Search(t.Context(), "x", 10, nil, nil)
	assert.NoError(t, err)
	assert.Nil(t, records)
}

func TestOpenAlexGetNotFoundReturnsNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	a := NewOpenAlexAdapter(newTestHTTPClient(), "me@example.org")
	a.baseURL = srv.URL

	rec, err := a.Get(t.Context(), "W999")
	assert.NoError(t, err)
	assert.Nil(t, rec)
}

func TestOpenAlexSearchMalformedBodyReturnsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{not json`))
	}))
	defer srv.Close()

	a := NewOpenAlexAdapter(newTestHTTPClient(), "me@example.org")
	a.baseURL = srv.URL

	records, err := a.Search(t.Context(), "x", 10, nil, nil)
	assert.NoError(t, err)
	assert.Nil(t, records)
}

func TestReconstructInvertedAbstractOrdersTokens(t *testing.T) {
	index := map[string][]int{
		"fox":   {2},
		"quick": {0},
		"brown": {1},
	}
	assert.Equal(t, "quick brown fox", reconstructInvertedAbstract(index))
}
