package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"scifind-backend/internal/models"
)

const (
	crossrefBaseURL = "https://api.crossref.org"
	crossrefPageMax = 100
	crossrefSelect  = "DOI,title,author,published-print,published-online,issued,published,container-title,type,abstract,is-referenced-by-count,URL,resource"
)

// CrossRefAdapter queries the Crossref works API, DOI-keyed.
type CrossRefAdapter struct {
	baseURL       string
	http          *HTTPClient
	operatorEmail string
}

// NewCrossRefAdapter creates the adapter. operatorEmail enters the polite pool.
func NewCrossRefAdapter(httpClient *HTTPClient, operatorEmail string) *CrossRefAdapter {
	return &CrossRefAdapter{http: httpClient, operatorEmail: operatorEmail, baseURL: crossrefBaseURL}
}

func (a *CrossRefAdapter) Name() models.SourceTag { return models.SourceCrossRef }

func (a *CrossRefAdapter) headers() map[string]string {
	return map[string]string{
		"Accept":     "application/json",
		"User-Agent": fmt.Sprintf("scifind-backend/1.0 (mailto:%s)", a.operatorEmail),
	}
}

type crossrefSearchResponse struct {
	Message struct {
		Items []crossrefWork `json:"items"`
	} `json:"message"`
}

type crossrefWork struct {
	DOI                 string              `json:"DOI"`
	Title               []string            `json:"title"`
	Author              []crossrefAuthor    `json:"author"`
	PublishedPrint       crossrefDateParts  `json:"published-print"`
	PublishedOnline      crossrefDateParts  `json:"published-online"`
	Issued               crossrefDateParts  `json:"issued"`
	Published            crossrefDateParts  `json:"published"`
	ContainerTitle       []string           `json:"container-title"`
	Type                 string             `json:"type"`
	Abstract             string             `json:"abstract"`
	IsReferencedByCount  *int               `json:"is-referenced-by-count"`
	URL                  string             `json:"URL"`
}

type crossrefAuthor struct {
	Given       string                `json:"given"`
	Family      string                `json:"family"`
	Affiliation []crossrefAffiliation `json:"affiliation"`
}

type crossrefAffiliation struct {
	Name string `json:"name"`
}

type crossrefDateParts struct {
	DateParts [][]int `json:"date-parts"`
}

func (d crossrefDateParts) year() (int, bool) {
	if len(d.DateParts) == 0 || len(d.DateParts[0]) == 0 {
		return 0, false
	}
	y := d.DateParts[0][0]
	if y == 0 {
		return 0, false
	}
	return y, true
}

func (a *CrossRefAdapter) Search(ctx context.Context, query string, limit int, yearMin, yearMax *int) ([]*models.PaperRecord, error) {
	if limit > crossrefPageMax {
		limit = crossrefPageMax
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("rows", strconv.Itoa(limit))
	params.Set("select", crossrefSelect)

	var filters []string
	if yearMin != nil {
		filters = append(filters, fmt.Sprintf("from-pub-date:%d", *yearMin))
	}
	if yearMax != nil {
		filters = append(filters, fmt.Sprintf("until-pub-date:%d", *yearMax))
	}
	if len(filters) > 0 {
		params.Set("filter", strings.Join(filters, ","))
	}

	reqURL := a.baseURL + "/works?" + params.Encode()
	resp, err := a.http.Get(ctx, reqURL, a.headers())
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("crossref search returned status %d", resp.StatusCode)
	}

	var parsed crossrefSearchResponse
	if err := json.Unmarshal(resp.Body, &parsed); err != nil {
		return nil, nil
	}

	total := len(parsed.Message.Items)
	records := make([]*models.PaperRecord, 0, total)
	for idx, item := range parsed.Message.Items {
		if len(item.Title) == 0 {
			continue
		}
		rec := a.convert(item)
		rec.RelevanceScore = positionalRelevance(idx, total)
		records = append(records, rec)
	}
	return records, nil
}

func (a *CrossRefAdapter) Get(ctx context.Context, paperID string) (*models.PaperRecord, error) {
	doi := strings.TrimPrefix(paperID, "https://doi.org/")
	doi = strings.TrimPrefix(doi, "http://doi.org/")

	reqURL := a.baseURL + "/works/" + url.PathEscape(doi)
	resp, err := a.http.Get(ctx, reqURL, a.headers())
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("crossref get returned status %d", resp.StatusCode)
	}

	var parsed struct {
		Message crossrefWork `json:"message"`
	}
	if err := json.Unmarshal(resp.Body, &parsed); err != nil {
		return nil, nil
	}
	if len(parsed.Message.Title) == 0 {
		return nil, nil
	}
	rec := a.convert(parsed.Message)
	rec.RelevanceScore = 1.0
	return rec, nil
}

func (a *CrossRefAdapter) convert(w crossrefWork) *models.PaperRecord {
	rec := &models.PaperRecord{
		Title:    w.Title[0],
		Source:   models.SourceCrossRef,
		SourceID: w.DOI,
	}
	if w.DOI != "" {
		doi := w.DOI
		rec.DOI = &doi
	}

	for _, author := range w.Author {
		var parts []string
		if author.Given != "" {
			parts = append(parts, author.Given)
		}
		if author.Family != "" {
			parts = append(parts, author.Family)
		}
		if len(parts) == 0 {
			continue
		}
		a := models.RecordAuthor{Name: strings.Join(parts, " ")}
		for _, aff := range author.Affiliation {
			if aff.Name == "" {
				continue
			}
			if a.Affiliations == nil {
				a.Affiliations = make(map[string]bool)
			}
			a.Affiliations[aff.Name] = true
		}
		rec.Authors = append(rec.Authors, a)
	}

	for _, dp := range []crossrefDateParts{w.PublishedPrint, w.PublishedOnline, w.Issued, w.Published} {
		if y, ok := dp.year(); ok {
			rec.Year = &y
			break
		}
	}

	if len(w.ContainerTitle) > 0 && w.ContainerTitle[0] != "" {
		venue := w.ContainerTitle[0]
		rec.Venue = &venue
	}

	rec.IsSurvey = w.Type == "review" || w.Type == "book-review"

	if w.Abstract != "" {
		abstract := w.Abstract
		abstract = strings.ReplaceAll(abstract, "<jats:p>", "")
		abstract = strings.ReplaceAll(abstract, "</jats:p>", "")
		abstract = strings.ReplaceAll(abstract, "<jats:italic>", "")
		abstract = strings.ReplaceAll(abstract, "</jats:italic>", "")
		rec.Abstract = &abstract
	}

	rec.CitationCount = w.IsReferencedByCount
	if w.URL != "" {
		u := w.URL
		rec.PublisherURL = &u
	}

	return rec
}
