package models

import (
	"sort"
	"time"
)

// WorkType classifies the kind of scholarly work a record represents.
type WorkType string

const (
	WorkTypeJournal    WorkType = "journal"
	WorkTypeConference WorkType = "conference"
	WorkTypeBook       WorkType = "book"
	WorkTypeChapter    WorkType = "chapter"
	WorkTypePreprint   WorkType = "preprint"
	WorkTypeSurvey     WorkType = "survey"
	WorkTypeUnknown    WorkType = "unknown"
)

// DataQualityFlag tags a data-quality anomaly detected during normalization
// or merge. Flags never cause a hard failure; they travel with the record.
type DataQualityFlag string

const (
	FlagBadYear                 DataQualityFlag = "bad_year"
	FlagImplausibleCitationAge  DataQualityFlag = "implausible_citation_age"
	FlagYearCorrected           DataQualityFlag = "year_corrected"
	FlagYearUncorrectable       DataQualityFlag = "year_uncorrectable"
	FlagSuspiciousDOI           DataQualityFlag = "suspicious_doi"
)

// SourceTag identifies the bibliographic source an adapter speaks for.
type SourceTag string

const (
	SourceSemanticScholar SourceTag = "semantic_scholar"
	SourceOpenAlex        SourceTag = "openalex"
	SourcePubMed          SourceTag = "pubmed"
	SourceArxiv           SourceTag = "arxiv"
	SourceCrossRef        SourceTag = "crossref"
	SourceOpenAccess      SourceTag = "openaccess_resolver"
)

// RecordAuthor is an author entry as carried by a raw per-source record.
type RecordAuthor struct {
	Name         string          `json:"name"`
	Affiliations map[string]bool `json:"-"` // set of affiliation strings
}

// AffiliationList renders Affiliations as a stable, sorted slice for JSON output.
func (a RecordAuthor) AffiliationList() []string {
	if len(a.Affiliations) == 0 {
		return nil
	}
	out := make([]string, 0, len(a.Affiliations))
	for aff := range a.Affiliations {
		out = append(out, aff)
	}
	sort.Strings(out)
	return out
}

// PaperRecord is the adapter-emitted, per-source normalized record described
// in the data model: it exists only for the lifetime of a single request.
type PaperRecord struct {
	Title  string    `json:"title"`
	Source SourceTag `json:"source"`

	// SourceID is the record's identifier within Source.
	SourceID string `json:"source_id"`

	DOI      *string `json:"doi,omitempty"`
	ArxivID  *string `json:"arxiv_id,omitempty"`
	PMID     *string `json:"pmid,omitempty"`
	Abstract *string `json:"abstract,omitempty"`
	Year     *int    `json:"year,omitempty"`
	Venue    *string `json:"venue,omitempty"`

	Authors []RecordAuthor `json:"authors"`

	CitationCount *int    `json:"citation_count,omitempty"`
	OAUrl         *string `json:"oa_url,omitempty"`
	PublisherURL  *string `json:"publisher_url,omitempty"`

	// Topics is ordered, capped at 10 by the adapter.
	Topics   []string `json:"topics,omitempty"`
	Keywords []string `json:"keywords,omitempty"`

	// Categories maps a source-specific facet (e.g. "arxiv", "fields_of_study")
	// to the category values an adapter assigned under that facet.
	Categories map[string][]string `json:"categories,omitempty"`

	IsSurvey     bool     `json:"is_survey"`
	IsOpenAccess bool     `json:"is_open_access"`
	WorkType     WorkType `json:"work_type"`

	// RelevanceScore is the source-assigned ranking signal, normalized to [0,1].
	RelevanceScore float64 `json:"relevance_score"`

	DataQualityFlags map[DataQualityFlag]bool `json:"-"`
}

// AddFlag records a data-quality flag, initializing the set lazily.
func (r *PaperRecord) AddFlag(f DataQualityFlag) {
	if r.DataQualityFlags == nil {
		r.DataQualityFlags = make(map[DataQualityFlag]bool)
	}
	r.DataQualityFlags[f] = true
}

// HasFlag reports whether a flag is set.
func (r *PaperRecord) HasFlag(f DataQualityFlag) bool {
	return r.DataQualityFlags != nil && r.DataQualityFlags[f]
}

// FlagList renders the flag set as a sorted slice for deterministic output.
func (r *PaperRecord) FlagList() []DataQualityFlag {
	if len(r.DataQualityFlags) == 0 {
		return nil
	}
	out := make([]DataQualityFlag, 0, len(r.DataQualityFlags))
	for f := range r.DataQualityFlags {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// FirstAuthorName returns the raw (pre-normalization) name of the first
// listed author, or "" if the record has none.
func (r *PaperRecord) FirstAuthorName() string {
	if len(r.Authors) == 0 {
		return ""
	}
	return r.Authors[0].Name
}

// PublishedDate returns a best-effort publication date for external
// responses: January 1 of Year when only a year is known.
func (r *PaperRecord) PublishedDate() *time.Time {
	if r.Year == nil {
		return nil
	}
	d := time.Date(*r.Year, 1, 1, 0, 0, 0, 0, time.UTC)
	return &d
}
