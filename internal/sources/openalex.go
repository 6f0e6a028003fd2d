package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"scifind-backend/internal/models"
)

const (
	openAlexBaseURL        = "https://api.openalex.org"
	openAlexPageMax        = 200
	openAlexRelatedWorkMax = 10
	openAlexSelect         = "id,doi,title,display_name,abstract_inverted_index,publication_year,type,authorships,concepts,cited_by_count,open_access,primary_location,best_oa_location"
	openAlexSelectRelated  = openAlexSelect + ",related_works"
)

var openAlexArxivDOI = regexp.MustCompile(`arxiv\.(\d+\.\d+)`)

// OpenAlexAdapter queries the OpenAlex works API.
type OpenAlexAdapter struct {
	http          *HTTPClient
	operatorEmail string
	baseURL       string
}

// NewOpenAlexAdapter creates the adapter. operatorEmail enters the polite pool.
func NewOpenAlexAdapter(httpClient *HTTPClient, operatorEmail string) *OpenAlexAdapter {
	return &OpenAlexAdapter{http: httpClient, operatorEmail: operatorEmail, baseURL: openAlexBaseURL}
}

func (a *OpenAlexAdapter) Name() models.SourceTag { return models.SourceOpenAlex }

func (a *OpenAlexAdapter) headers() map[string]string {
	return map[string]string{
		"Accept":     "application/json",
		"User-Agent": fmt.Sprintf("scifind-backend/1.0 (mailto:%s)", a.operatorEmail),
	}
}

type openAlexSearchResponse struct {
	Results []openAlexWork `json:"results"`
}

type openAlexWork struct {
	ID                    string                     `json:"id"`
	DOI                   string                     `json:"doi"`
	Title                 string                     `json:"title"`
	DisplayName           string                     `json:"display_name"`
	AbstractInvertedIndex map[string][]int           `json:"abstract_inverted_index"`
	PublicationYear       *int                       `json:"publication_year"`
	Type                  string                     `json:"type"`
	Authorships           []openAlexAuthorship       `json:"authorships"`
	Concepts              []openAlexConcept          `json:"concepts"`
	CitedByCount          *int                       `json:"cited_by_count"`
	OpenAccess            openAlexOpenAccess         `json:"open_access"`
	PrimaryLocation       openAlexLocation           `json:"primary_location"`
	BestOALocation        openAlexLocation           `json:"best_oa_location"`
	IDs                   openAlexExternalIDs        `json:"ids"`
	RelatedWorks          []string                   `json:"related_works"`
}

type openAlexAuthorship struct {
	Author       openAlexAuthor         `json:"author"`
	Institutions []openAlexInstitution  `json:"institutions"`
}

type openAlexAuthor struct {
	DisplayName string `json:"display_name"`
}

type openAlexInstitution struct {
	DisplayName string `json:"display_name"`
}

type openAlexConcept struct {
	DisplayName string  `json:"display_name"`
	Score       float64 `json:"score"`
}

type openAlexOpenAccess struct {
	IsOA  bool   `json:"is_oa"`
	OAUrl string `json:"oa_url"`
}

type openAlexLocation struct {
	Source          openAlexSource `json:"source"`
	PDFUrl          string         `json:"pdf_url"`
	LandingPageURL  string         `json:"landing_page_url"`
}

type openAlexSource struct {
	DisplayName string `json:"display_name"`
}

type openAlexExternalIDs struct {
	Arxiv string `json:"arxiv"`
	PMID  string `json:"pmid"`
}

func (a *OpenAlexAdapter) Search(ctx context.Context, query string, limit int, yearMin, yearMax *int) ([]*models.PaperRecord, error) {
	if limit > openAlexPageMax {
		limit = openAlexPageMax
	}

	params := url.Values{}
	params.Set("search", query)
	params.Set("per_page", strconv.Itoa(limit))
	params.Set("select", openAlexSelect)

	var filters []string
	if yearMin != nil {
		filters = append(filters, fmt.Sprintf("from_publication_date:%d-01-01", *yearMin))
	}
	if yearMax != nil {
		filters = append(filters, fmt.Sprintf("to_publication_date:%d-12-31", *yearMax))
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
		return nil, fmt.Errorf("openalex search returned status %d", resp.StatusCode)
	}

	var parsed openAlexSearchResponse
	if err := json.Unmarshal(resp.Body, &parsed); err != nil {
		return nil, nil
	}

	total := len(parsed.Results)
	records := make([]*models.PaperRecord, 0, total)
	for idx, w := range parsed.Results {
		title := w.Title
		if title == "" {
			title = w.DisplayName
		}
		if title == "" {
			continue
		}
		rec := a.convert(w)
		rec.RelevanceScore = positionalRelevance(idx, total)
		records = append(records, rec)
	}
	return records, nil
}

func (a *OpenAlexAdapter) Get(ctx context.Context, paperID string) (*models.PaperRecord, error) {
	if !strings.HasPrefix(paperID, "W") {
		paperID = "W" + paperID
	}
	reqURL := a.baseURL + "/works/" + url.PathEscape(paperID) + "?select=" + url.QueryEscape(openAlexSelect)
	resp, err := a.http.Get(ctx, reqURL, a.headers())
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("openalex get returned status %d", resp.StatusCode)
	}

	var w openAlexWork
	if err := json.Unmarshal(resp.Body, &w); err != nil {
		return nil, nil
	}
	if w.Title == "" && w.DisplayName == "" {
		return nil, nil
	}
	rec := a.convert(w)
	rec.RelevanceScore = 1.0
	return rec, nil
}

// GetRelatedWorks fetches the OpenAlex-computed related works for oaID, for
// GET /paper/{id}/related (spec 6). OpenAlex exposes related works as a list
// of work ids on the work itself, so this first resolves oaID, then batches
// the referenced ids through a single ids.openalex filter.
func (a *OpenAlexAdapter) GetRelatedWorks(ctx context.Context, oaID string) ([]*models.PaperRecord, error) {
	if !strings.HasPrefix(oaID, "W") {
		oaID = "W" + oaID
	}
	reqURL := a.baseURL + "/works/" + url.PathEscape(oaID) + "?select=" + url.QueryEscape(openAlexSelectRelated)
	resp, err := a.http.Get(ctx, reqURL, a.headers())
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("openalex get returned status %d", resp.StatusCode)
	}

	var w openAlexWork
	if err := json.Unmarshal(resp.Body, &w); err != nil {
		return nil, nil
	}
	if len(w.RelatedWorks) == 0 {
		return nil, nil
	}

	ids := w.RelatedWorks
	if len(ids) > openAlexRelatedWorkMax {
		ids = ids[:openAlexRelatedWorkMax]
	}
	for i, id := range ids {
		ids[i] = strings.TrimPrefix(id, "https://openalex.org/")
	}

	params := url.Values{}
	params.Set("filter", "ids.openalex:"+strings.Join(ids, "|"))
	params.Set("select", openAlexSelect)
	params.Set("per_page", strconv.Itoa(len(ids)))

	listURL := a.baseURL + "/works?" + params.Encode()
	listResp, err := a.http.Get(ctx, listURL, a.headers())
	if err != nil {
		return nil, err
	}
	if listResp.StatusCode == http.StatusTooManyRequests {
		return nil, nil
	}
	if listResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("openalex related works returned status %d", listResp.StatusCode)
	}

	var parsed openAlexSearchResponse
	if err := json.Unmarshal(listResp.Body, &parsed); err != nil {
		return nil, nil
	}

	out := make([]*models.PaperRecord, 0, len(parsed.Results))
	for _, rw := range parsed.Results {
		title := rw.Title
		if title == "" {
			title = rw.DisplayName
		}
		if title == "" {
			continue
		}
		rec := a.convert(rw)
		rec.RelevanceScore = 0.5
		out = append(out, rec)
	}
	return out, nil
}

func (a *OpenAlexAdapter) convert(w openAlexWork) *models.PaperRecord {
	title := w.Title
	if title == "" {
		title = w.DisplayName
	}

	rec := &models.PaperRecord{
		Title:    title,
		Source:   models.SourceOpenAlex,
		SourceID: strings.TrimPrefix(w.ID, "https://openalex.org/"),
		Year:     w.PublicationYear,
	}

	doi := strings.TrimPrefix(w.DOI, "https://doi.org/")
	if doi != "" {
		rec.DOI = &doi
	}

	if doi != "" && strings.Contains(strings.ToLower(doi), "arxiv") {
		if m := openAlexArxivDOI.FindStringSubmatch(strings.ToLower(doi)); len(m) == 2 {
			id := m[1]
			rec.ArxivID = &id
		}
	}
	if rec.ArxivID == nil && w.IDs.Arxiv != "" {
		id := w.IDs.Arxiv
		rec.ArxivID = &id
	}
	if w.IDs.PMID != "" {
		id := w.IDs.PMID
		rec.PMID = &id
	}

	if abstract := reconstructInvertedAbstract(w.AbstractInvertedIndex); abstract != "" {
		rec.Abstract = &abstract
	}

	if w.PrimaryLocation.Source.DisplayName != "" {
		v := w.PrimaryLocation.Source.DisplayName
		rec.Venue = &v
	}

	for _, authorship := range w.Authorships {
		if authorship.Author.DisplayName == "" {
			continue
		}
		author := models.RecordAuthor{Name: authorship.Author.DisplayName}
		for _, inst := range authorship.Institutions {
			if inst.DisplayName == "" {
				continue
			}
			if author.Affiliations == nil {
				author.Affiliations = make(map[string]bool)
			}
			author.Affiliations[inst.DisplayName] = true
		}
		rec.Authors = append(rec.Authors, author)
	}

	for _, c := range w.Concepts {
		if c.DisplayName != "" && c.Score > 0.3 {
			rec.Topics = append(rec.Topics, c.DisplayName)
		}
	}
	if len(rec.Topics) > 10 {
		rec.Topics = rec.Topics[:10]
	}

	rec.CitationCount = w.CitedByCount
	rec.IsOpenAccess = w.OpenAccess.IsOA

	var publisherURL *string
	if w.BestOALocation.PDFUrl != "" {
		u := w.BestOALocation.PDFUrl
		publisherURL = &u
	} else if w.BestOALocation.LandingPageURL != "" {
		u := w.BestOALocation.LandingPageURL
		publisherURL = &u
	}
	rec.PublisherURL = publisherURL

	if w.OpenAccess.IsOA && w.OpenAccess.OAUrl != "" {
		oa := w.OpenAccess.OAUrl
		rec.OAUrl = &oa
	} else {
		rec.OAUrl = publisherURL
	}

	rec.IsSurvey = w.Type == "review" || w.Type == "book-chapter" || strings.Contains(strings.ToLower(title), "review")

	return rec
}

// reconstructInvertedAbstract rebuilds OpenAlex's inverted-index abstract
// format by sorting (position, token) pairs and joining the tokens.
func reconstructInvertedAbstract(index map[string][]int) string {
	if len(index) == 0 {
		return ""
	}
	type posToken struct {
		pos   int
		token string
	}
	var pairs []posToken
	for token, positions := range index {
		for _, pos := range positions {
			pairs = append(pairs, posToken{pos: pos, token: token})
		}
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].pos < pairs[j].pos })

	tokens := make([]string, len(pairs))
	for i, p := range pairs {
		tokens[i] = p.token
	}
	return strings.Join(tokens, " ")
}
