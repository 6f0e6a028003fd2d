package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"scifind-backend/internal/models"
)

const openAccessBaseURL = "https://api.unpaywall.org/v2"

// OpenAccessResolver looks up the best open-access URL for a DOI. It is
// enrichment-only: it has no search/get-by-id operation of its own, per
// spec 4.1's "openaccess_resolver" row.
type OpenAccessResolver struct {
	baseURL       string
	http          *HTTPClient
	operatorEmail string
}

// NewOpenAccessResolver creates the resolver.
func NewOpenAccessResolver(httpClient *HTTPClient, operatorEmail string) *OpenAccessResolver {
	return &OpenAccessResolver{http: httpClient, operatorEmail: operatorEmail, baseURL: openAccessBaseURL}
}

func (r *OpenAccessResolver) Name() models.SourceTag { return models.SourceOpenAccess }

type unpaywallResponse struct {
	IsOA           bool               `json:"is_oa"`
	BestOALocation *unpaywallLocation `json:"best_oa_location"`
	OALocations    []unpaywallLocation `json:"oa_locations"`
}

type unpaywallLocation struct {
	URLForPDF         string `json:"url_for_pdf"`
	URL               string `json:"url"`
	URLForLandingPage string `json:"url_for_landing_page"`
}

func (l unpaywallLocation) bestURL() (string, bool) {
	switch {
	case l.URLForPDF != "":
		return l.URLForPDF, true
	case l.URL != "":
		return l.URL, true
	case l.URLForLandingPage != "":
		return l.URLForLandingPage, true
	default:
		return "", false
	}
}

// ResolveOAURL returns the best open-access URL for doi, or "" if none is
// known, the DOI isn't open access, or the lookup failed in a way the
// adapter error policy treats as absent (404, 422, 429).
func (r *OpenAccessResolver) ResolveOAURL(ctx context.Context, doi string) (string, error) {
	doi = strings.TrimPrefix(doi, "https://doi.org/")
	doi = strings.TrimPrefix(doi, "http://doi.org/")

	params := url.Values{}
	params.Set("email", r.operatorEmail)

	reqURL := r.baseURL + "/" + url.PathEscape(doi) + "?" + params.Encode()
	resp, err := r.http.Get(ctx, reqURL, nil)
	if err != nil {
		return "", err
	}
	switch resp.StatusCode {
	case http.StatusNotFound, http.StatusUnprocessableEntity, http.StatusTooManyRequests:
		return "", nil
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unpaywall returned status %d", resp.StatusCode)
	}

	var parsed unpaywallResponse
	if err := json.Unmarshal(resp.Body, &parsed); err != nil {
		return "", nil
	}
	if !parsed.IsOA {
		return "", nil
	}

	if parsed.BestOALocation != nil {
		if u, ok := parsed.BestOALocation.bestURL(); ok {
			return u, nil
		}
	}
	for _, loc := range parsed.OALocations {
		if u, ok := loc.bestURL(); ok {
			return u, nil
		}
	}
	return "", nil
}
