package sources

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"scifind-backend/internal/models"
)

const (
	pubmedBaseURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"
	pubmedPageMax = 100
)

// PubMedAdapter queries NCBI E-utilities: esearch for PMIDs, then efetch for
// the article XML.
type PubMedAdapter struct {
	baseURL       string
	http          *HTTPClient
	operatorEmail string
}

// NewPubMedAdapter creates the adapter. NCBI requires an operator email.
func NewPubMedAdapter(httpClient *HTTPClient, operatorEmail string) *PubMedAdapter {
	return &PubMedAdapter{http: httpClient, operatorEmail: operatorEmail, baseURL: pubmedBaseURL}
}

func (a *PubMedAdapter) Name() models.SourceTag { return models.SourcePubMed }

type pubmedESearchResponse struct {
	ESearchResult struct {
		IDList []string `json:"idlist"`
	} `json:"esearchresult"`
}

type pubmedArticleSet struct {
	XMLName  xml.Name        `xml:"PubmedArticleSet"`
	Articles []pubmedArticle `xml:"PubmedArticle"`
}

type pubmedArticle struct {
	MedlineCitation pubmedMedlineCitation `xml:"MedlineCitation"`
	PubmedData      pubmedData            `xml:"PubmedData"`
}

type pubmedMedlineCitation struct {
	PMID    string        `xml:"PMID"`
	Article pubmedArtical `xml:"Article"`
}

type pubmedArtical struct {
	ArticleTitle        string                  `xml:"ArticleTitle"`
	Abstract            pubmedAbstract          `xml:"Abstract"`
	AuthorList          pubmedAuthorList        `xml:"AuthorList"`
	Journal             pubmedJournal           `xml:"Journal"`
	PublicationTypeList pubmedPublicationTypes  `xml:"PublicationTypeList"`
}

type pubmedAbstract struct {
	Texts []pubmedAbstractText `xml:"AbstractText"`
}

type pubmedAbstractText struct {
	Label string `xml:"Label,attr"`
	Text  string `xml:",chardata"`
}

type pubmedAuthorList struct {
	Authors []pubmedAuthor `xml:"Author"`
}

type pubmedAuthor struct {
	ForeName       string                  `xml:"ForeName"`
	LastName       string                  `xml:"LastName"`
	AffiliationInfo []pubmedAffiliationInfo `xml:"AffiliationInfo"`
}

type pubmedAffiliationInfo struct {
	Affiliation string `xml:"Affiliation"`
}

type pubmedJournal struct {
	Title      string         `xml:"Title"`
	JournalIssue pubmedJournalIssue `xml:"JournalIssue"`
}

type pubmedJournalIssue struct {
	PubDate pubmedPubDate `xml:"PubDate"`
}

type pubmedPubDate struct {
	Year string `xml:"Year"`
}

type pubmedPublicationTypes struct {
	Types []string `xml:"PublicationType"`
}

type pubmedData struct {
	ArticleIDList pubmedArticleIDList `xml:"ArticleIdList"`
}

type pubmedArticleIDList struct {
	IDs []pubmedArticleID `xml:"ArticleId"`
}

type pubmedArticleID struct {
	IDType string `xml:"IdType,attr"`
	Value  string `xml:",chardata"`
}

func (a *PubMedAdapter) baseParams() url.Values {
	v := url.Values{}
	v.Set("email", a.operatorEmail)
	v.Set("tool", "scifind-backend")
	return v
}

func (a *PubMedAdapter) Search(ctx context.Context, query string, limit int, yearMin, yearMax *int) ([]*models.PaperRecord, error) {
	if limit > pubmedPageMax {
		limit = pubmedPageMax
	}

	searchQuery := query
	if yearMin != nil || yearMax != nil {
		lo, hi := 1900, 2100
		if yearMin != nil {
			lo = *yearMin
		}
		if yearMax != nil {
			hi = *yearMax
		}
		searchQuery = fmt.Sprintf("(%s) AND %d:%d[dp]", query, lo, hi)
	}

	searchParams := a.baseParams()
	searchParams.Set("db", "pubmed")
	searchParams.Set("term", searchQuery)
	searchParams.Set("retmax", strconv.Itoa(limit))
	searchParams.Set("retmode", "json")
	searchParams.Set("sort", "relevance")

	searchURL := a.baseURL + "/esearch.fcgi?" + searchParams.Encode()
	searchResp, err := a.http.Get(ctx, searchURL, nil)
	if err != nil {
		return nil, err
	}
	if searchResp.StatusCode == http.StatusTooManyRequests {
		return nil, nil
	}
	if searchResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("pubmed esearch returned status %d", searchResp.StatusCode)
	}

	var parsed pubmedESearchResponse
	if err := json.Unmarshal(searchResp.Body, &parsed); err != nil {
		return nil, nil
	}
	if len(parsed.ESearchResult.IDList) == 0 {
		return nil, nil
	}

	fetchParams := a.baseParams()
	fetchParams.Set("db", "pubmed")
	fetchParams.Set("id", strings.Join(parsed.ESearchResult.IDList, ","))
	fetchParams.Set("retmode", "xml")

	fetchURL := a.baseURL + "/efetch.fcgi?" + fetchParams.Encode()
	fetchResp, err := a.http.Get(ctx, fetchURL, nil)
	if err != nil {
		return nil, err
	}
	if fetchResp.StatusCode == http.StatusTooManyRequests {
		return nil, nil
	}
	if fetchResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("pubmed efetch returned status %d", fetchResp.StatusCode)
	}

	var articleSet pubmedArticleSet
	if err := xml.Unmarshal(fetchResp.Body, &articleSet); err != nil {
		return nil, nil
	}

	total := len(articleSet.Articles)
	records := make([]*models.PaperRecord, 0, total)
	for idx, art := range articleSet.Articles {
		rec := a.convert(art)
		if rec == nil {
			continue
		}
		rec.RelevanceScore = positionalRelevance(idx, total)
		records = append(records, rec)
	}
	return records, nil
}

func (a *PubMedAdapter) Get(ctx context.Context, paperID string) (*models.PaperRecord, error) {
	params := a.baseParams()
	params.Set("db", "pubmed")
	params.Set("id", paperID)
	params.Set("retmode", "xml")

	reqURL := a.baseURL + "/efetch.fcgi?" + params.Encode()
	resp, err := a.http.Get(ctx, reqURL, nil)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("pubmed efetch returned status %d", resp.StatusCode)
	}

	var articleSet pubmedArticleSet
	if err := xml.Unmarshal(resp.Body, &articleSet); err != nil {
		return nil, nil
	}
	if len(articleSet.Articles) == 0 {
		return nil, nil
	}

	rec := a.convert(articleSet.Articles[0])
	if rec == nil {
		return nil, nil
	}
	rec.RelevanceScore = 1.0
	return rec, nil
}

func (a *PubMedAdapter) convert(art pubmedArticle) *models.PaperRecord {
	title := art.MedlineCitation.Article.ArticleTitle
	if title == "" {
		return nil
	}

	pmid := art.MedlineCitation.PMID
	rec := &models.PaperRecord{
		Title:    title,
		Source:   models.SourcePubMed,
		SourceID: pmid,
	}
	if pmid != "" {
		p := pmid
		rec.PMID = &p
		url := fmt.Sprintf("https://pubmed.ncbi.nlm.nih.gov/%s/", pmid)
		rec.PublisherURL = &url
	}

	if texts := art.MedlineCitation.Article.Abstract.Texts; len(texts) > 0 {
		var parts []string
		for _, t := range texts {
			text := strings.TrimSpace(t.Text)
			if text == "" {
				continue
			}
			if t.Label != "" {
				parts = append(parts, t.Label+": "+text)
			} else {
				parts = append(parts, text)
			}
		}
		if len(parts) > 0 {
			abstract := strings.Join(parts, " ")
			rec.Abstract = &abstract
		}
	}

	for _, author := range art.MedlineCitation.Article.AuthorList.Authors {
		var name string
		if author.ForeName != "" && author.LastName != "" {
			name = author.ForeName + " " + author.LastName
		} else if author.LastName != "" {
			name = author.LastName
		} else {
			continue
		}
		a := models.RecordAuthor{Name: name}
		for _, aff := range author.AffiliationInfo {
			if aff.Affiliation == "" {
				continue
			}
			if a.Affiliations == nil {
				a.Affiliations = make(map[string]bool)
			}
			a.Affiliations[aff.Affiliation] = true
		}
		rec.Authors = append(rec.Authors, a)
	}

	if yearStr := art.MedlineCitation.Article.Journal.JournalIssue.PubDate.Year; yearStr != "" {
		if y, err := strconv.Atoi(yearStr); err == nil {
			rec.Year = &y
		}
	}
	if venue := art.MedlineCitation.Article.Journal.Title; venue != "" {
		rec.Venue = &venue
	}

	for _, id := range art.PubmedData.ArticleIDList.IDs {
		if id.IDType == "doi" && id.Value != "" {
			doi := id.Value
			rec.DOI = &doi
			break
		}
	}

	for _, t := range art.MedlineCitation.Article.PublicationTypeList.Types {
		if strings.Contains(strings.ToLower(t), "review") {
			rec.IsSurvey = true
			break
		}
	}

	return rec
}
