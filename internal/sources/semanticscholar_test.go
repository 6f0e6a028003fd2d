package sources

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHTTPClient() *HTTPClient {
	return NewHTTPClient(http.DefaultClient, nil)
}

func TestSemanticScholarSearchParsesResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[
			{"paperId":"abc123","title":"Attention Is All You Need","abstract":"we propose","year":2017,
			 "venue":"NeurIPS","citationCount":100,"isOpenAccess":true,
			 "externalIds":{"DOI":"10.1/x","ArXiv":"1706.03762"},
			 "publicationTypes":["JournalArticle"],
			 "authors":[{"name":"Ashish Vaswani"}]}
		]}`))
	}))
	defer srv.Close()

	a := NewSemanticScholarAdapter(newTestHTTPClient(), "")
	a.baseURL = srv.URL

	records, err := a.Search(t.Context(), "transformers", 10, nil, nil)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Attention Is All You Need", records[0].Title)
	assert.Equal(t, "10.1/x", *records[0].DOI)
	assert.Equal(t, "1706.03762", *records[0].ArxivID)
	assert.Equal(t, 1.0, records[0].RelevanceScore)
}

func TestSemanticScholarSearchRateLimitedReturnsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	a := NewSemanticScholarAdapter(newTestHTTPClient(), "")
	a.baseURL = srv.URL

	records, err := a.Search(t.Context(), "x", 10, nil, nil)
	assert.NoError(t, err)
	assert.Nil(t, records)
}

func TestSemanticScholarGetNotFoundReturnsNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	a := NewSemanticScholarAdapter(newTestHTTPClient(), "")
	a.baseURL = srv.URL

	rec, err := a.Get(t.Context(), "missing")
	assert.NoError(t, err)
	assert.Nil(t, rec)
}

func TestSemanticScholarSearchMalformedBodyReturnsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	a := NewSemanticScholarAdapter(newTestHTTPClient(), "")
	a.baseURL = srv.URL

	records, err := a.Search(t.Context(), "x", 10, nil, nil)
	assert.NoError(t, err)
	assert.Nil(t, records)
}

func TestSemanticScholarPersistent5xxPropagatesError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewHTTPClient(http.DefaultClient, nil)
	a := NewSemanticScholarAdapter(client, "")
	a.baseURL = srv.URL

	_, err := a.Search(t.Context(), "x", 10, nil, nil)
	assert.Error(t, err)
}

func TestSemanticScholarSurveyDetection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{"paperId":"p1","title":"A Survey of Deep Learning","publicationTypes":["Review"]}]}`))
	}))
	defer srv.Close()

	a := NewSemanticScholarAdapter(newTestHTTPClient(), "")
	a.baseURL = srv.URL

	records, err := a.Search(t.Context(), "dl", 10, nil, nil)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.True(t, records[0].IsSurvey)
}
