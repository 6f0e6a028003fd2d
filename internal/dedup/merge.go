package dedup

import (
	"time"

	"scifind-backend/internal/models"
)

// sourceRepresentativeBonus is the per-source bonus added to representative
// selection score, per spec 4.6.
var sourceRepresentativeBonus = map[models.SourceTag]int{
	models.SourceSemanticScholar: 5,
	models.SourceOpenAlex:        4,
	models.SourcePubMed:          3,
	models.SourceCrossRef:        2,
	models.SourceArxiv:           1,
}

// citationSourcePriority is the ordered preference list for which source's
// citation_count to accept: highest priority first.
var citationSourcePriority = []models.SourceTag{
	models.SourceSemanticScholar,
	models.SourceOpenAlex,
	models.SourceCrossRef,
	models.SourcePubMed,
	models.SourceArxiv,
}

func isJournalOrConference(wt models.WorkType) bool {
	return wt == models.WorkTypeJournal || wt == models.WorkTypeConference
}

// representativeScore computes the tie-break-total score used to pick a
// cluster's base record, per spec 4.6's table.
func representativeScore(r *models.PaperRecord) int {
	score := 0
	if r.DOI != nil {
		score += 4
	}
	if isJournalOrConference(r.WorkType) {
		score += 3
	}
	if r.Abstract != nil {
		score += 2
	}
	if r.PublisherURL != nil {
		score += 2
	}
	if r.CitationCount != nil {
		score += 1
	}
	score += sourceRepresentativeBonus[r.Source]
	return score
}

// selectRepresentative picks the highest-scoring record as the cluster's
// base; ties broken by first occurrence (stable, deterministic order).
func selectRepresentative(cluster []*models.PaperRecord) (*models.PaperRecord, int) {
	bestIdx := 0
	bestScore := representativeScore(cluster[0])
	for i := 1; i < len(cluster); i++ {
		s := representativeScore(cluster[i])
		if s > bestScore {
			bestScore = s
			bestIdx = i
		}
	}
	return cluster[bestIdx], bestIdx
}

func topicsUnionCapped(existing []string, add []string, cap int) []string {
	seen := make(map[string]bool, len(existing))
	out := append([]string(nil), existing...)
	for _, t := range existing {
		seen[t] = true
	}
	for _, t := range add {
		if len(out) >= cap {
			break
		}
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// MergeCluster merges a cluster of records (already grouped by work_key and,
// where applicable, fuzzy-subclustered) into one MergedPaper, per spec 4.6.
// A size-1 cluster is trivially wrapped.
func MergeCluster(cluster []*models.PaperRecord, workKey string, idGen func() string, now time.Time) *models.MergedPaper {
	if len(cluster) == 1 {
		return models.NewMergedPaper(idGen(), cluster[0], workKey)
	}

	rep, repIdx := selectRepresentative(cluster)
	merged := models.NewMergedPaper(idGen(), rep, workKey)
	venueWorkType := rep.WorkType

	// citation_count: priority-ordered source selection across the whole
	// cluster, not a pairwise max.
	for _, src := range citationSourcePriority {
		found := false
		for _, r := range cluster {
			if r.Source == src && r.CitationCount != nil {
				merged.CitationCount = r.CitationCount
				merged.CitationSource = src
				merged.FieldProvenance["citation_count"] = src
				found = true
				break
			}
		}
		if found {
			break
		}
	}

	for i, r := range cluster {
		if i == repIdx {
			continue
		}
		mergeField(merged, r, &venueWorkType)
	}

	return merged
}

// mergeField applies the field-safe merge rules of spec 4.6 for one
// contributing record r into the in-progress merged paper.
func mergeField(merged *models.MergedPaper, r *models.PaperRecord, venueWorkType *models.WorkType) {
	// venue: prefer journal/conference over book/preprint
	if r.Venue != nil {
		switch {
		case merged.Venue == nil:
			merged.Venue = r.Venue
			*venueWorkType = r.WorkType
			merged.FieldProvenance["venue"] = r.Source
		case isJournalOrConference(r.WorkType) && !isJournalOrConference(*venueWorkType):
			merged.Venue = r.Venue
			*venueWorkType = r.WorkType
			merged.FieldProvenance["venue"] = r.Source
		}
	}

	// year: never overwrite a valid year with invalid/absent; fill if absent.
	if merged.Year == nil && r.Year != nil {
		merged.Year = r.Year
		merged.FieldProvenance["year"] = r.Source
	}

	if merged.DOI == nil && r.DOI != nil {
		merged.DOI = r.DOI
		merged.FieldProvenance["doi"] = r.Source
	}
	if merged.Abstract == nil && r.Abstract != nil {
		merged.Abstract = r.Abstract
		merged.FieldProvenance["abstract"] = r.Source
	}
	if merged.OAUrl == nil && r.OAUrl != nil {
		merged.OAUrl = r.OAUrl
		merged.FieldProvenance["oa_url"] = r.Source
	}
	if merged.PublisherURL == nil && r.PublisherURL != nil {
		merged.PublisherURL = r.PublisherURL
		merged.FieldProvenance["publisher_url"] = r.Source
	}
	if merged.ArxivID == nil && r.ArxivID != nil {
		merged.ArxivID = r.ArxivID
		merged.FieldProvenance["arxiv_id"] = r.Source
	}
	if merged.PMID == nil && r.PMID != nil {
		merged.PMID = r.PMID
		merged.FieldProvenance["pmid"] = r.Source
	}

	merged.Topics = topicsUnionCapped(merged.Topics, r.Topics, 10)

	for _, k := range r.Keywords {
		if k == "" {
			continue
		}
		merged.Keywords[k] = true
	}
	for facet, vals := range r.Categories {
		existing := merged.Categories[facet]
		seen := make(map[string]bool, len(existing))
		for _, v := range existing {
			seen[v] = true
		}
		for _, v := range vals {
			if !seen[v] {
				existing = append(existing, v)
				seen[v] = true
			}
		}
		merged.Categories[facet] = existing
	}
	merged.AddDatabase(r.Source)
	if r.OAUrl != nil {
		merged.AddURL(*r.OAUrl)
	}
	if r.PublisherURL != nil {
		merged.AddURL(*r.PublisherURL)
	}

	merged.Sources = append(merged.Sources, r.Source)
	if merged.SourceIDs == nil {
		merged.SourceIDs = map[models.SourceTag]string{}
	}
	if _, ok := merged.SourceIDs[r.Source]; !ok {
		merged.SourceIDs[r.Source] = r.SourceID
	}

	merged.IsOpenAccess = merged.IsOpenAccess || r.IsOpenAccess
	merged.IsSurvey = merged.IsSurvey || r.IsSurvey

	if r.RelevanceScore > merged.RelevanceScore {
		merged.RelevanceScore = r.RelevanceScore
	}

	for f := range r.DataQualityFlags {
		merged.AddFlag(f)
	}
}
