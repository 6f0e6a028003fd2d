package sources

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const arxivSampleFeed = `<?xml version="1.0"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <id>http://arxiv.org/abs/1706.03762v5</id>
    <title>Attention Is All You Need</title>
    <summary>we propose the transformer</summary>
    <published>2017-06-12T00:00:00Z</published>
    <author><name>Ashish Vaswani</name></author>
    <category term="cs.CL"/>
    <link title="pdf" href="http://arxiv.org/pdf/1706.03762v5"/>
  </entry>
</feed>`

func TestArxivSearchParsesEntriesAndStripsVersion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(arxivSampleFeed))
	}))
	defer srv.Close()

	a := NewArxivAdapter(newTestHTTPClient())
	a.baseURL = srv.URL

	records, err := a.Search(t.Context(), "transformer", 10, nil, nil)
	require.NoError(t, err)
	require.Len(t, records, 1)
	rec := records[0]
	assert.Equal(t, "1706.03762", *rec.ArxivID)
	assert.True(t, rec.IsOpenAccess)
	assert.Equal(t, "http://arxiv.org/pdf/1706.03762v5", *rec.OAUrl)
	assert.Equal(t, 2017, *rec.Year)
}

func TestArxivSearchFiltersByYear(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(arxivSampleFeed))
	}))
	defer srv.Close()

	a := NewArxivAdapter(newTestHTTPClient())
	a.baseURL = srv.URL

	yearMin := 2020
	records, err := a.Search(t.Context(), "transformer", 10, &yearMin, nil)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestArxivSearchRateLimitedReturnsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	a := NewArxivAdapter(newTestHTTPClient())
	a.baseURL = srv.URL

	records, err := a.Search(t.Context(), "x", 10, nil, nil)
	assert.NoError(t, err)
	assert.Nil(t, records)
}

func TestArxivGetNotFoundReturnsNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	a := NewArxivAdapter(newTestHTTPClient())
	a.baseURL = srv.URL

	rec, err := a.Get(t.Context(), "arxiv:9999.99999")
	assert.NoError(t, err)
	assert.Nil(t, rec)
}

func TestArxivSearchMalformedXMLReturnsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<not-xml`))
	}))
	defer srv.Close()

	a := NewArxivAdapter(newTestHTTPClient())
	a.baseURL = srv.URL

	records, err := a.Search(t.Context(), "x", 10, nil, nil)
	assert.NoError(t, err)
	assert.Nil(t, records)
}
