package dedup

import (
	"strconv"
	"strings"
	"time"

	"scifind-backend/internal/models"
)

// ComputeWorkKey assigns a record its canonical clustering key by first
// match, per spec 4.4: doi > arxiv_id (from any source) > pmid (from any
// source) > semantic_scholar source id > title_hash fallback.
func ComputeWorkKey(r *models.PaperRecord, now time.Time) string {
	if r.DOI != nil {
		doiLower := strings.ToLower(*r.DOI)
		if !IsSuspiciousDOI(doiLower) {
			return "doi:" + doiLower
		}
	}

	if r.ArxivID != nil && *r.ArxivID != "" {
		return "arxiv:" + StripArxivVersion(*r.ArxivID)
	}
	if r.Source == models.SourceArxiv && r.SourceID != "" {
		return "arxiv:" + StripArxivVersion(r.SourceID)
	}

	if r.PMID != nil && *r.PMID != "" {
		return "pmid:" + *r.PMID
	}
	if r.Source == models.SourcePubMed && r.SourceID != "" {
		return "pmid:" + r.SourceID
	}

	if r.Source == models.SourceSemanticScholar && r.SourceID != "" {
		return "s2:" + r.SourceID
	}

	normTitle := NormalizeTitle(r.Title)
	firstAuthor, ok := ExtractFirstAuthorSurname(r.Authors)
	if !ok {
		firstAuthor = "unknown"
	}
	yearBucket := "unknown"
	if r.Year != nil {
		yearBucket = strconv.Itoa(*r.Year)
	}
	return "title_hash:" + TitleHash(normTitle, firstAuthor, yearBucket)
}

// ClusterByWorkKey groups records by equal work_key, preserving first-seen
// order within each cluster. The returned map carries no order across
// clusters.
func ClusterByWorkKey(records []*models.PaperRecord, now time.Time) map[string][]*models.PaperRecord {
	clusters := make(map[string][]*models.PaperRecord)
	for _, r := range records {
		key := ComputeWorkKey(r, now)
		clusters[key] = append(clusters[key], r)
	}
	return clusters
}

// FuzzySubcluster subdivides a single title_hash bucket's records into
// near-duplicate groups per spec 4.5: iterate in order, for each unassigned
// record start a new group, then add any unassigned remainder for which
// AreLikelySamePaper holds.
func FuzzySubcluster(records []*models.PaperRecord) [][]*models.PaperRecord {
	assigned := make([]bool, len(records))
	groups := make([][]*models.PaperRecord, 0)

	for i := range records {
		if assigned[i] {
			continue
		}
		group := []*models.PaperRecord{records[i]}
		assigned[i] = true
		for j := i + 1; j < len(records); j++ {
			if assigned[j] {
				continue
			}
			if AreLikelySamePaper(records[i], records[j]) {
				group = append(group, records[j])
				assigned[j] = true
			}
		}
		groups = append(groups, group)
	}
	return groups
}

// ClusterAll performs work-key clustering followed by fuzzy sub-clustering
// of title_hash buckets, returning the final list of record clusters that
// feed the merge engine.
func ClusterAll(records []*models.PaperRecord, now time.Time) [][]*models.PaperRecord {
	byKey := ClusterByWorkKey(records, now)

	// Deterministic iteration: keys are visited in first-seen order;
	// title_hash buckets are subdivided, everything else becomes one cluster
	// per key.
	order := make([]string, 0, len(byKey))
	seen := make(map[string]bool, len(byKey))
	for _, r := range records {
		if key := ComputeWorkKey(r, now); !seen[key] {
			seen[key] = true
			order = append(order, key)
		}
	}
	result := make([][]*models.PaperRecord, 0, len(byKey))
	for _, key := range order {
		recs := byKey[key]
		if strings.HasPrefix(key, "title_hash:") {
			result = append(result, FuzzySubcluster(recs)...)
			continue
		}
		result = append(result, recs)
	}
	return result
}
