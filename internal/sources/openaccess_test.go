package sources

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAccessResolverPrefersPDFOverLandingPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"is_oa":true,"best_oa_location":{"url_for_pdf":"https://oa.example/x.pdf","url_for_landing_page":"https://oa.example/x"}}`))
	}))
	defer srv.Close()

	r := NewOpenAccessResolver(newTestHTTPClient(), "me@example.org")
	r.baseURL = srv.URL

	url, err := r.ResolveOAURL(t.Context(), "10.1/x")
	require.NoError(t, err)
	assert.Equal(t, "https://oa.example/x.pdf", url)
}

func TestOpenAccessResolverNotOpenAccessReturnsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"is_oa":false}`))
	}))
	defer srv.Close()

	r := NewOpenAccessResolver(newTestHTTPClient(), "me@example.org")
	r.baseURL = srv.URL

	url, err := r.ResolveOAURL(t.Context(), "10.1/x")
	require.NoError(t, err)
	assert.Empty(t, url)
}

func TestOpenAccessResolverNotFoundTreatedAsAbsent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	r := NewOpenAccessResolver(newTestHTTPClient(), "me@example.org")
	r.baseURL = srv.URL

	url, err := r.ResolveOAURL(t.Context(), "10.1/missing")
	assert.NoError(t, err)
	assert.Empty(t, url)
}

func TestOpenAccessResolverRateLimitedTreatedAsAbsent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	r := NewOpenAccessResolver(newTestHTTPClient(), "me@example.org")
	r.baseURL = srv.URL

	url, err := r.ResolveOAURL(t.Context(), "10.1/x")
	assert.NoError(t, err)
	assert.Empty(t, url)
}

func TestOpenAccessResolverStripsDOIPrefix(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"is_oa":false}`))
	}))
	defer srv.Close()

	r := NewOpenAccessResolver(newTestHTTPClient(), "me@example.org")
	r.baseURL = srv.URL

	_, err := r.ResolveOAURL(t.Context(), "https://doi.org/10.1/x")
	require.NoError(t, err)
	assert.Equal(t, "/10.1/x", gotPath)
}
