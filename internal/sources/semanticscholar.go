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
	semanticScholarBaseURL = "https://api.semanticscholar.org/graph/v1"
	semanticScholarFields  = "paperId,title,abstract,year,venue,authors,citationCount,isOpenAccess,openAccessPdf,externalIds,publicationTypes,s2FieldsOfStudy"
	semanticScholarPageMax = 100
)

// SemanticScholarAdapter queries the Semantic Scholar Academic Graph API.
type SemanticScholarAdapter struct {
	http    *HTTPClient
	apiKey  string
	baseURL string
}

// NewSemanticScholarAdapter creates the adapter. apiKey may be empty.
func NewSemanticScholarAdapter(httpClient *HTTPClient, apiKey string) *SemanticScholarAdapter {
	return &SemanticScholarAdapter{http: httpClient, apiKey: apiKey, baseURL: semanticScholarBaseURL}
}

func (a *SemanticScholarAdapter) Name() models.SourceTag { return models.SourceSemanticScholar }

func (a *SemanticScholarAdapter) headers() map[string]string {
	h := map[string]string{"Accept": "application/json"}
	if a.apiKey != "" {
		h["x-api-key"] = a.apiKey
	}
	return h
}

type s2SearchResponse struct {
	Data []s2Paper `json:"data"`
}

type s2Paper struct {
	PaperID           string          `json:"paperId"`
	Title             string          `json:"title"`
	Abstract          *string         `json:"abstract"`
	Year              *int            `json:"year"`
	Venue             *string         `json:"venue"`
	CitationCount     *int            `json:"citationCount"`
	IsOpenAccess      bool            `json:"isOpenAccess"`
	OpenAccessPdf     *s2OAPdf        `json:"openAccessPdf"`
	ExternalIDs       s2ExternalIDs   `json:"externalIds"`
	PublicationTypes  []string        `json:"publicationTypes"`
	S2FieldsOfStudy   []s2FieldOfStudy `json:"s2FieldsOfStudy"`
	Authors           []s2Author      `json:"authors"`
}

type s2OAPdf struct {
	URL string `json:"url"`
}

type s2ExternalIDs struct {
	DOI    string `json:"DOI"`
	ArXiv  string `json:"ArXiv"`
	PubMed string `json:"PubMed"`
}

type s2FieldOfStudy struct {
	Category string `json:"category"`
}

type s2Author struct {
	Name string `json:"name"`
}

func (a *SemanticScholarAdapter) Search(ctx context.Context, query string, limit int, yearMin, yearMax *int) ([]*models.PaperRecord, error) {
	if limit > semanticScholarPageMax {
		limit = semanticScholarPageMax
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("limit", strconv.Itoa(limit))
	params.Set("fields", semanticScholarFields)
	if yearMin != nil || yearMax != nil {
		params.Set("year", yearFilter(yearMin, yearMax))
	}

	reqURL := a.baseURL + "/paper/search?" + params.Encode()
	resp, err := a.http.Get(ctx, reqURL, a.headers())
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("semantic scholar search returned status %d", resp.StatusCode)
	}

	var parsed s2SearchResponse
	if err := json.Unmarshal(resp.Body, &parsed); err != nil {
		return nil, nil
	}

	total := len(parsed.Data)
	records := make([]*models.PaperRecord, 0, total)
	for idx, p := range parsed.Data {
		if p.Title == "" {
			continue
		}
		rec := a.convert(p)
		rec.RelevanceScore = positionalRelevance(idx, total)
		records = append(records, rec)
	}
	return records, nil
}

func (a *SemanticScholarAdapter) Get(ctx context.Context, paperID string) (*models.PaperRecord, error) {
	reqURL := a.baseURL + "/paper/" + url.PathEscape(paperID) + "?fields=" + semanticScholarFields
	resp, err := a.http.Get(ctx, reqURL, a.headers())
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("semantic scholar get returned status %d", resp.StatusCode)
	}

	var p s2Paper
	if err := json.Unmarshal(resp.Body, &p); err != nil {
		return nil, nil
	}
	if p.Title == "" {
		return nil, nil
	}
	rec := a.convert(p)
	rec.RelevanceScore = 1.0
	return rec, nil
}

func (a *SemanticScholarAdapter) convert(p s2Paper) *models.PaperRecord {
	rec := &models.PaperRecord{
		Title:    p.Title,
		Source:   models.SourceSemanticScholar,
		SourceID: p.PaperID,
		Abstract: p.Abstract,
		Year:     p.Year,
		Venue:    p.Venue,
	}
	if p.ExternalIDs.DOI != "" {
		doi := p.ExternalIDs.DOI
		rec.DOI = &doi
	}
	if p.ExternalIDs.ArXiv != "" {
		id := p.ExternalIDs.ArXiv
		rec.ArxivID = &id
	}
	if p.ExternalIDs.PubMed != "" {
		id := p.ExternalIDs.PubMed
		rec.PMID = &id
	}
	rec.CitationCount = p.CitationCount
	rec.IsOpenAccess = p.IsOpenAccess
	if p.OpenAccessPdf != nil && p.OpenAccessPdf.URL != "" {
		oa := p.OpenAccessPdf.URL
		rec.OAUrl = &oa
	}

	for _, author := range p.Authors {
		if author.Name != "" {
			rec.Authors = append(rec.Authors, models.RecordAuthor{Name: author.Name})
		}
	}

	for _, f := range p.S2FieldsOfStudy {
		if f.Category != "" {
			rec.Topics = append(rec.Topics, f.Category)
		}
	}
	if len(rec.Topics) > 10 {
		rec.Topics = rec.Topics[:10]
	}

	for _, t := range p.PublicationTypes {
		if t == "Review" || t == "Survey" {
			rec.IsSurvey = true
			break
		}
	}

	return rec
}

type s2RelationsResponse struct {
	Data []s2Relation `json:"data"`
}

type s2Relation struct {
	CitingPaper  *s2Paper `json:"citingPaper"`
	CitedPaper   *s2Paper `json:"citedPaper"`
}

// GetCitationsAndReferences fetches the papers citing and the papers
// referenced by s2ID, for GET /paper/{id}/related (spec 6).
func (a *SemanticScholarAdapter) GetCitationsAndReferences(ctx context.Context, s2ID string) ([]*models.PaperRecord, error) {
	var out []*models.PaperRecord

	citations, err := a.fetchRelations(ctx, s2ID, "citations", "citingPaper")
	if err == nil {
		out = append(out, citations...)
	}
	references, err := a.fetchRelations(ctx, s2ID, "references", "citedPaper")
	if err == nil {
		out = append(out, references...)
	}
	return out, nil
}

func (a *SemanticScholarAdapter) fetchRelations(ctx context.Context, s2ID, relation, field string) ([]*models.PaperRecord, error) {
	prefixedFields := prefixFields(field, semanticScholarFields)
	reqURL := a.baseURL + "/paper/" + url.PathEscape(s2ID) + "/" + relation + "?fields=" + prefixedFields
	resp, err := a.http.Get(ctx, reqURL, a.headers())
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("semantic scholar %s returned status %d", relation, resp.StatusCode)
	}

	var parsed s2RelationsResponse
	if err := json.Unmarshal(resp.Body, &parsed); err != nil {
		return nil, nil
	}

	out := make([]*models.PaperRecord, 0, len(parsed.Data))
	for _, rel := range parsed.Data {
		var p *s2Paper
		if relation == "citations" {
			p = rel.CitingPaper
		} else {
			p = rel.CitedPaper
		}
		if p == nil || p.Title == "" {
			continue
		}
		rec := a.convert(*p)
		rec.RelevanceScore = 0.5
		out = append(out, rec)
	}
	return out, nil
}

// prefixFields rewrites a comma-separated field list into the dotted form
// the relations endpoints require (e.g. "citingPaper.title,citingPaper.year").
func prefixFields(prefix, fields string) string {
	parts := strings.Split(fields, ",")
	for i, p := range parts {
		parts[i] = prefix + "." + p
	}
	return strings.Join(parts, ",")
}

func yearFilter(yearMin, yearMax *int) string {
	var b strings.Builder
	if yearMin != nil {
		b.WriteString(strconv.Itoa(*yearMin))
	}
	b.WriteString("-")
	if yearMax != nil {
		b.WriteString(strconv.Itoa(*yearMax))
	}
	return b.String()
}
