package sources

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pubmedSampleXML = `<?xml version="1.0"?>
<PubmedArticleSet>
  <PubmedArticle>
    <MedlineCitation>
      <PMID>12345</PMID>
      <Article>
        <ArticleTitle>CRISPR in Plants</ArticleTitle>
        <Abstract>
          <AbstractText Label="BACKGROUND">gene editing is useful</AbstractText>
        </Abstract>
        <AuthorList>
          <Author><ForeName>Jane</ForeName><LastName>Doe</LastName></Author>
        </AuthorList>
        <Journal>
          <Title>Nature Plants</Title>
          <JournalIssue><PubDate><Year>2020</Year></PubDate></JournalIssue>
        </Journal>
        <PublicationTypeList><PublicationType>Review</PublicationType></PublicationTypeList>
      </Article>
    </MedlineCitation>
    <PubmedData>
      <ArticleIdList><ArticleId IdType="doi">10.1/plant</ArticleId></ArticleIdList>
    </PubmedData>
  </PubmedArticle>
</PubmedArticleSet>`

func TestPubMedSearchTwoStepParsesResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "esearch") {
			w.Write([]byte(`{"esearchresult":{"idlist":["12345"]}}`))
			return
		}
		w.Write([]byte(pubmedSampleXML))
	}))
	defer srv.Close()

	a := NewPubMedAdapter(newTestHTTPClient(), "me@example.org")
	a.baseURL = srv.URL

	records, err := a.Search(t.Context(), "crispr", 10, nil, nil)
	require.NoError(t, err)
	require.Len(t, records, 1)
	rec := records[0]
	assert.Equal(t, "CRISPR in Plants", rec.Title)
	assert.Equal(t, "BACKGROUND: gene editing is useful", *rec.Abstract)
	assert.Equal(t, "10.1/plant", *rec.DOI)
	assert.True(t, rec.IsSurvey)
	assert.Equal(t, 2020, *rec.Year)
}

func TestPubMedSearchEmptyIDListReturnsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"esearchresult":{"idlist":[]}}`))
	}))
	defer srv.Close()

	a := NewPubMedAdapter(newTestHTTPClient(), "me@example.org")
	a.baseURL = srv.URL

	records, err := a.Search(t.Context(), "x", 10, nil, nil)
	assert.NoError(t, err)
	assert.Nil(t, records)
}

func TestPubMedSearchRateLimitedReturnsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	a := NewPubMedAdapter(newTestHTTPClient(), "me@example.org")
	a.baseURL = srv.URL

	records, err := a.Search(t.Context(), "x", 10, nil, nil)
	assert.NoError(t, err)
	assert.Nil(t, records)
}

func TestPubMedGetNotFoundReturnsNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	a := NewPubMedAdapter(newTestHTTPClient(), "me@example.org")
	a.baseURL = srv.URL

	rec, err := a.Get(t.Context(), "12345")
	assert.NoError(t, err)
	assert.Nil(t, rec)
}

func TestPubMedSearchMalformedXMLReturnsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "esearch") {
			w.Write([]byte(`{"esearchresult":{"idlist":["1"]}}`))
			return
		}
		w.Write([]byte(`<not-xml`))
	}))
	defer srv.Close()

	a := NewPubMedAdapter(newTestHTTPClient(), "me@example.org")
	a.baseURL = srv.URL

	records, err := a.Search(t.Context(), "x", 10, nil, nil)
	assert.NoError(t, err)
	assert.Nil(t, records)
}
