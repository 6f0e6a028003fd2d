package sources

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"scifind-backend/internal/models"
)

const (
	arxivBaseURL = "https://export.arxiv.org/api/query"
	arxivPageMax = 2000
)

// ArxivAdapter queries the ArXiv Atom API. Every ArXiv record is
// open-access by construction.
type ArxivAdapter struct {
	baseURL string
	http *HTTPClient
}

// NewArxivAdapter creates the adapter.
func NewArxivAdapter(httpClient *HTTPClient) *ArxivAdapter {
	return &ArxivAdapter{http: httpClient, baseURL: arxivBaseURL}
}

func (a *ArxivAdapter) Name() models.SourceTag { return models.SourceArxiv }

type arxivFeed struct {
	XMLName xml.Name    `xml:"feed"`
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID         string          `xml:"id"`
	Title      string          `xml:"title"`
	Summary    string          `xml:"summary"`
	Published  string          `xml:"published"`
	Authors    []arxivAuthor   `xml:"author"`
	Categories []arxivCategory `xml:"category"`
	Links      []arxivLink     `xml:"link"`
}

type arxivAuthor struct {
	Name string `xml:"name"`
}

type arxivCategory struct {
	Term string `xml:"term,attr"`
}

type arxivLink struct {
	Href  string `xml:"href,attr"`
	Title string `xml:"title,attr"`
	Type  string `xml:"type,attr"`
}

func (a *ArxivAdapter) Search(ctx context.Context, query string, limit int, yearMin, yearMax *int) ([]*models.PaperRecord, error) {
	if limit > arxivPageMax {
		limit = arxivPageMax
	}

	searchQuery := fmt.Sprintf("(ti:%q OR abs:%q)", query, query)

	params := url.Values{}
	params.Set("search_query", searchQuery)
	params.Set("start", "0")
	params.Set("max_results", strconv.Itoa(limit))
	params.Set("sortBy", "relevance")
	params.Set("sortOrder", "descending")

	reqURL := a.baseURL + "?" + params.Encode()
	resp, err := a.http.Get(ctx, reqURL, map[string]string{"User-Agent": "scifind-backend/1.0"})
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arxiv search returned status %d", resp.StatusCode)
	}

	var feed arxivFeed
	if err := xml.Unmarshal(resp.Body, &feed); err != nil {
		return nil, nil
	}

	records := filterByYear(a.convertAll(feed.Entries), yearMin, yearMax)
	total := len(records)
	for idx, rec := range records {
		rec.RelevanceScore = positionalRelevance(idx, total)
	}
	return records, nil
}

func (a *ArxivAdapter) Get(ctx context.Context, paperID string) (*models.PaperRecord, error) {
	id := strings.TrimPrefix(paperID, "arxiv:")
	id = strings.TrimPrefix(id, "arXiv:")

	params := url.Values{}
	params.Set("id_list", id)
	params.Set("max_results", "1")

	reqURL := a.baseURL + "?" + params.Encode()
	resp, err := a.http.Get(ctx, reqURL, map[string]string{"User-Agent": "scifind-backend/1.0"})
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arxiv get returned status %d", resp.StatusCode)
	}

	var feed arxivFeed
	if err := xml.Unmarshal(resp.Body, &feed); err != nil {
		return nil, nil
	}
	records := a.convertAll(feed.Entries)
	if len(records) == 0 {
		return nil, nil
	}
	records[0].RelevanceScore = 1.0
	return records[0], nil
}

func (a *ArxivAdapter) convertAll(entries []arxivEntry) []*models.PaperRecord {
	records := make([]*models.PaperRecord, 0, len(entries))
	for _, e := range entries {
		rec := a.convert(e)
		if rec != nil {
			records = append(records, rec)
		}
	}
	return records
}

func (a *ArxivAdapter) convert(e arxivEntry) *models.PaperRecord {
	title := strings.TrimSpace(e.Title)
	if title == "" {
		return nil
	}

	id := extractArxivIDFromEntry(e.ID)
	if id == "" {
		return nil
	}

	rec := &models.PaperRecord{
		Title:        title,
		Source:       models.SourceArxiv,
		SourceID:     id,
		ArxivID:      &id,
		IsOpenAccess: true,
		WorkType:     models.WorkTypePreprint,
	}

	if abstract := strings.TrimSpace(e.Summary); abstract != "" {
		rec.Abstract = &abstract
	}

	if len(e.Published) >= 4 {
		if y, err := strconv.Atoi(e.Published[:4]); err == nil {
			rec.Year = &y
		}
	}

	for _, author := range e.Authors {
		if author.Name != "" {
			rec.Authors = append(rec.Authors, models.RecordAuthor{Name: author.Name})
		}
	}

	for _, cat := range e.Categories {
		if cat.Term != "" {
			rec.Topics = append(rec.Topics, cat.Term)
		}
	}
	if len(rec.Topics) > 10 {
		rec.Topics = rec.Topics[:10]
	}

	for _, link := range e.Links {
		if link.Title == "pdf" {
			u := link.Href
			rec.OAUrl = &u
			rec.PublisherURL = &u
			break
		}
	}
	if rec.PublisherURL == nil {
		u := e.ID
		rec.PublisherURL = &u
	}

	return rec
}

func extractArxivIDFromEntry(entryID string) string {
	parts := strings.Split(entryID, "/")
	if len(parts) == 0 {
		return ""
	}
	id := parts[len(parts)-1]
	if idx := strings.LastIndex(id, "v"); idx > 0 {
		id = id[:idx]
	}
	return id
}

func filterByYear(records []*models.PaperRecord, yearMin, yearMax *int) []*models.PaperRecord {
	if yearMin == nil && yearMax == nil {
		return records
	}
	out := records[:0]
	for _, rec := range records {
		if rec.Year == nil {
			out = append(out, rec)
			continue
		}
		if yearMin != nil && *rec.Year < *yearMin {
			continue
		}
		if yearMax != nil && *rec.Year > *yearMax {
			continue
		}
		out = append(out, rec)
	}
	return out
}
