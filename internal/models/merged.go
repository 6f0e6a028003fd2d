package models

import "time"

// MergedPaper is the post-merge canonical work aggregating one or more
// PaperRecords under a single work_key. It carries a fresh opaque id and
// provenance for every field so downstream consumers can audit a value's
// origin.
type MergedPaper struct {
	ID string `json:"id"`

	Title    string   `json:"title"`
	DOI      *string  `json:"doi,omitempty"`
	ArxivID  *string  `json:"arxiv_id,omitempty"`
	PMID     *string  `json:"pmid,omitempty"`
	Abstract *string  `json:"abstract,omitempty"`
	Year     *int     `json:"year,omitempty"`
	Venue    *string  `json:"venue,omitempty"`
	WorkType WorkType `json:"work_type"`

	Authors []RecordAuthor `json:"authors"`

	CitationCount  *int    `json:"citation_count,omitempty"`
	CitationSource SourceTag `json:"citation_source,omitempty"`

	OAUrl        *string `json:"oa_url,omitempty"`
	PublisherURL *string `json:"publisher_url,omitempty"`
	DOIUrl       *string `json:"doi_url,omitempty"`

	Topics   []string `json:"topics,omitempty"`
	Keywords map[string]bool `json:"-"`

	IsSurvey     bool `json:"is_survey"`
	IsOpenAccess bool `json:"is_open_access"`

	// WorkKey is the canonical clustering identity (see normalize/workkey).
	WorkKey string `json:"work_key"`

	// Sources is an ordered multiset of source tags that contributed a record.
	Sources []SourceTag `json:"sources"`
	// SourceIDs maps source -> that source's id for this work.
	SourceIDs map[SourceTag]string `json:"source_ids"`

	Urls      map[string]bool `json:"-"`
	Databases map[SourceTag]bool `json:"-"`

	Categories map[string][]string `json:"categories,omitempty"` // facet -> values

	// FieldProvenance maps a merged field name to the source tag that
	// supplied its final value.
	FieldProvenance map[string]SourceTag `json:"field_provenance"`

	DataQualityFlags map[DataQualityFlag]bool `json:"-"`

	Score          float64  `json:"score"`
	RelevanceScore float64  `json:"relevance_score"`
	WhyRecommended []string `json:"why_recommended,omitempty"`

	// CitationKey is the spec 6 format
	// <first_author_surname_lower><year|"XXXX"><title_first_word_lower>,
	// computed by dedup.CitationKey once the merge finishes.
	CitationKey string `json:"citationKey"`

	// Selected and Comments are user-writable fields persisted externally
	// by the annotation store (see internal/repository/annotation.go).
	Selected bool    `json:"selected"`
	Comments *string `json:"comments,omitempty"`

	FirstSeenAt time.Time `json:"-"`
}

// NewMergedPaper wraps a single representative record as the seed of a
// (possibly size-1) cluster. dedup.MergeCluster folds in the remaining
// cluster members.
func NewMergedPaper(id string, rep *PaperRecord, workKey string) *MergedPaper {
	m := &MergedPaper{
		ID:               id,
		Title:            rep.Title,
		DOI:              rep.DOI,
		ArxivID:          rep.ArxivID,
		PMID:             rep.PMID,
		Abstract:         rep.Abstract,
		Year:             rep.Year,
		Venue:            rep.Venue,
		WorkType:         rep.WorkType,
		Authors:          rep.Authors,
		CitationCount:    rep.CitationCount,
		OAUrl:            rep.OAUrl,
		PublisherURL:     rep.PublisherURL,
		Topics:           append([]string(nil), rep.Topics...),
		Keywords:         map[string]bool{},
		IsSurvey:         rep.IsSurvey,
		IsOpenAccess:     rep.IsOpenAccess,
		WorkKey:          workKey,
		Sources:          []SourceTag{rep.Source},
		SourceIDs:        map[SourceTag]string{rep.Source: rep.SourceID},
		Urls:             map[string]bool{},
		Databases:        map[SourceTag]bool{rep.Source: true},
		Categories:       map[string][]string{},
		FieldProvenance:  map[string]SourceTag{},
		DataQualityFlags: map[DataQualityFlag]bool{},
		RelevanceScore:   rep.RelevanceScore,
		FirstSeenAt:      time.Now(),
	}
	if rep.CitationCount != nil {
		m.CitationSource = rep.Source
		m.FieldProvenance["citation_count"] = rep.Source
	}
	for f := range rep.DataQualityFlags {
		m.DataQualityFlags[f] = true
	}
	for _, k := range []string{"title", "work_type", "authors"} {
		m.FieldProvenance[k] = rep.Source
	}
	if rep.DOI != nil {
		m.FieldProvenance["doi"] = rep.Source
	}
	if rep.Abstract != nil {
		m.FieldProvenance["abstract"] = rep.Source
	}
	if rep.Year != nil {
		m.FieldProvenance["year"] = rep.Source
	}
	if rep.Venue != nil {
		m.FieldProvenance["venue"] = rep.Source
	}
	if rep.OAUrl != nil {
		m.AddURL(*rep.OAUrl)
		m.FieldProvenance["oa_url"] = rep.Source
	}
	if rep.PublisherURL != nil {
		m.AddURL(*rep.PublisherURL)
		m.FieldProvenance["publisher_url"] = rep.Source
	}
	for _, k := range rep.Keywords {
		if k != "" {
			m.Keywords[k] = true
		}
	}
	for facet, vals := range rep.Categories {
		m.Categories[facet] = append([]string(nil), vals...)
	}
	return m
}

// AddURL adds a URL to the merged paper's url set if non-empty.
func (m *MergedPaper) AddURL(url string) {
	if url == "" {
		return
	}
	if m.Urls == nil {
		m.Urls = map[string]bool{}
	}
	m.Urls[url] = true
}

// knownDatabases is the fixed set of sources AddDatabase accepts, matching
// the contributing adapters named in spec 4.1.
var knownDatabases = map[SourceTag]bool{
	SourceSemanticScholar: true,
	SourceOpenAlex:        true,
	SourcePubMed:          true,
	SourceArxiv:           true,
	SourceCrossRef:        true,
}

// AddDatabase records a contributing database, ignoring tags outside the
// fixed known set (e.g. the enrichment-only openaccess_resolver).
func (m *MergedPaper) AddDatabase(tag SourceTag) {
	if !knownDatabases[tag] {
		return
	}
	if m.Databases == nil {
		m.Databases = map[SourceTag]bool{}
	}
	m.Databases[tag] = true
}

// HasCategoryMatch reports whether any value under facet matches one of want.
func (m *MergedPaper) HasCategoryMatch(facet string, want []string) bool {
	vals, ok := m.Categories[facet]
	if !ok {
		return false
	}
	set := make(map[string]bool, len(want))
	for _, w := range want {
		set[w] = true
	}
	for _, v := range vals {
		if set[v] {
			return true
		}
	}
	return false
}

func (m *MergedPaper) AddFlag(f DataQualityFlag) {
	if m.DataQualityFlags == nil {
		m.DataQualityFlags = map[DataQualityFlag]bool{}
	}
	m.DataQualityFlags[f] = true
}

func (m *MergedPaper) HasFlag(f DataQualityFlag) bool {
	return m.DataQualityFlags != nil && m.DataQualityFlags[f]
}

func (m *MergedPaper) FlagList() []DataQualityFlag {
	if len(m.DataQualityFlags) == 0 {
		return nil
	}
	out := make([]DataQualityFlag, 0, len(m.DataQualityFlags))
	for f := range m.DataQualityFlags {
		out = append(out, f)
	}
	return out
}

func (m *MergedPaper) UrlList() []string {
	if len(m.Urls) == 0 {
		return nil
	}
	out := make([]string, 0, len(m.Urls))
	for u := range m.Urls {
		out = append(out, u)
	}
	return out
}

func (m *MergedPaper) DatabaseList() []SourceTag {
	if len(m.Databases) == 0 {
		return nil
	}
	out := make([]SourceTag, 0, len(m.Databases))
	for d := range m.Databases {
		out = append(out, d)
	}
	return out
}

func (m *MergedPaper) KeywordList() []string {
	if len(m.Keywords) == 0 {
		return nil
	}
	out := make([]string, 0, len(m.Keywords))
	for k := range m.Keywords {
		out = append(out, k)
	}
	return out
}

func (m *MergedPaper) AgeYears(now time.Time) float64 {
	if m.Year == nil {
		return 0
	}
	age := float64(now.Year() - *m.Year)
	if age < 0 {
		return 0
	}
	return age
}
