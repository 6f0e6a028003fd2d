package dedup

import (
	"scifind-backend/internal/models"
)

const postMergeTitleThreshold = 0.92
const postMergeHighConfTitle = 0.98
const postMergeAuthorOverlapMin = 0.40

func hasBadMetadataFlag(m *models.MergedPaper) bool {
	return m.HasFlag(models.FlagImplausibleCitationAge) ||
		m.HasFlag(models.FlagYearUncorrectable) ||
		m.HasFlag(models.FlagBadYear)
}

func hasArxivOrDOI(m *models.MergedPaper) bool {
	return m.ArxivID != nil || m.DOI != nil
}

func sameArxivID(a, b *models.MergedPaper) bool {
	return a.ArxivID != nil && b.ArxivID != nil && *a.ArxivID == *b.ArxivID
}

func citationRatioExceeds(a, b *models.MergedPaper, factor int) bool {
	if a.CitationCount == nil || b.CitationCount == nil {
		return false
	}
	ca, cb := *a.CitationCount, *b.CitationCount
	if ca == 0 || cb == 0 {
		return false
	}
	hi, lo := ca, cb
	if lo > hi {
		hi, lo = lo, hi
	}
	return hi/lo > factor
}

// isPostMergeCandidate reports whether (a,b) passes the safe post-merge
// dedup gate, per spec 4.8.
func isPostMergeCandidate(a, b *models.MergedPaper) bool {
	titleSim := TitleSimilarity(a.Title, b.Title)
	if titleSim < postMergeTitleThreshold {
		return false
	}
	if len(a.Authors) > 0 && len(b.Authors) > 0 {
		if AuthorSimilarity(a.Authors, b.Authors) < postMergeAuthorOverlapMin {
			return false
		}
	}

	if hasBadMetadataFlag(a) || hasBadMetadataFlag(b) {
		return true
	}
	if hasArxivOrDOI(a) != hasArxivOrDOI(b) {
		return true
	}
	if sameArxivID(a, b) {
		return true
	}
	if titleSim >= postMergeHighConfTitle && citationRatioExceeds(a, b, 10) {
		return true
	}
	return false
}

// postMergeScore scores a passing candidate pair for best-pairing selection.
func postMergeScore(a, b *models.MergedPaper) float64 {
	titleSim := TitleSimilarity(a.Title, b.Title)
	same := 0.0
	if sameArxivID(a, b) {
		same = 1.0
	}
	xor := 0.0
	if hasArxivOrDOI(a) != hasArxivOrDOI(b) {
		xor = 1.0
	}
	badFlag := 0.0
	if hasBadMetadataFlag(a) || hasBadMetadataFlag(b) {
		badFlag = 1.0
	}
	ratio := 0.0
	if citationRatioExceeds(a, b, 10) {
		ratio = 1.0
	}
	return 0.4*titleSim + 0.5*same + 0.2*xor + 0.3*badFlag + 0.2*ratio
}

// mergePreferenceScore ranks which of a pair is the "good" copy to keep as
// primary, per spec 4.8's delta table.
func mergePreferenceScore(m *models.MergedPaper) float64 {
	score := 0.0
	if m.Year != nil {
		score += 20
	}
	if m.HasFlag(models.FlagImplausibleCitationAge) || m.HasFlag(models.FlagYearUncorrectable) {
		score -= 30
	}
	if m.HasFlag(models.FlagBadYear) {
		score -= 20
	}
	if m.ArxivID != nil {
		score += 10
	}
	for _, s := range m.Sources {
		if s == models.SourceSemanticScholar {
			score += 8
			break
		}
	}
	if m.DOI != nil {
		score += 5
	}
	if m.CitationCount != nil {
		bonus := float64(*m.CitationCount) / 10000.0
		if bonus > 5 {
			bonus = 5
		}
		score += bonus
	}
	if m.Abstract != nil {
		score += 2
	}
	return score
}

// mergePostPair combines a candidate pair, keeping the higher-preference
// paper as primary and filling its missing fields from the secondary.
// On an exact preference-score tie the first argument stays primary, so the
// outcome follows input order.
func mergePostPair(primary, secondary *models.MergedPaper) *models.MergedPaper {
	if mergePreferenceScore(secondary) > mergePreferenceScore(primary) {
		primary, secondary = secondary, primary
	}

	// secondary's year is taken only if primary's year is flagged
	// implausible_citation_age and secondary's is not.
	if primary.HasFlag(models.FlagImplausibleCitationAge) && !secondary.HasFlag(models.FlagImplausibleCitationAge) && secondary.Year != nil {
		primary.Year = secondary.Year
		primary.FieldProvenance["year"] = secondary.CitationSource
	}

	if primary.DOI == nil && secondary.DOI != nil {
		primary.DOI = secondary.DOI
	}
	if primary.ArxivID == nil && secondary.ArxivID != nil {
		primary.ArxivID = secondary.ArxivID
	}
	if primary.PMID == nil && secondary.PMID != nil {
		primary.PMID = secondary.PMID
	}
	if primary.Abstract == nil && secondary.Abstract != nil {
		primary.Abstract = secondary.Abstract
	}
	if primary.OAUrl == nil && secondary.OAUrl != nil {
		primary.OAUrl = secondary.OAUrl
	}
	if primary.PublisherURL == nil && secondary.PublisherURL != nil {
		primary.PublisherURL = secondary.PublisherURL
	}
	if primary.CitationCount == nil && secondary.CitationCount != nil {
		primary.CitationCount = secondary.CitationCount
		primary.CitationSource = secondary.CitationSource
	}

	primary.Topics = topicsUnionCapped(primary.Topics, secondary.Topics, 10)
	for k := range secondary.Keywords {
		primary.Keywords[k] = true
	}
	for u := range secondary.Urls {
		primary.AddURL(u)
	}
	for _, s := range secondary.Sources {
		primary.Sources = append(primary.Sources, s)
		primary.AddDatabase(s)
	}
	for src, id := range secondary.SourceIDs {
		if _, ok := primary.SourceIDs[src]; !ok {
			primary.SourceIDs[src] = id
		}
	}
	for f := range secondary.DataQualityFlags {
		primary.AddFlag(f)
	}
	primary.IsOpenAccess = primary.IsOpenAccess || secondary.IsOpenAccess
	primary.IsSurvey = primary.IsSurvey || secondary.IsSurvey
	if secondary.RelevanceScore > primary.RelevanceScore {
		primary.RelevanceScore = secondary.RelevanceScore
	}

	return primary
}

// SafePostMergeDedup catches cross-cluster duplicates that slipped through
// clustering because the representative had no strong id while a sibling
// did, per spec 4.8. Disables itself (returns input unchanged) for inputs
// shorter than 2, matching the original's own short-circuit.
func SafePostMergeDedup(papers []*models.MergedPaper) []*models.MergedPaper {
	if len(papers) < 2 {
		return papers
	}

	merged := make([]bool, len(papers))
	result := make([]*models.MergedPaper, 0, len(papers))

	for i := 0; i < len(papers); i++ {
		if merged[i] {
			continue
		}
		a := papers[i]

		bestJ := -1
		bestScore := -1.0
		for j := i + 1; j < len(papers); j++ {
			if merged[j] {
				continue
			}
			b := papers[j]
			if !isPostMergeCandidate(a, b) {
				continue
			}
			s := postMergeScore(a, b)
			if s > bestScore {
				bestScore = s
				bestJ = j
			}
		}

		if bestJ >= 0 {
			merged[bestJ] = true
			a = mergePostPair(a, papers[bestJ])
		}
		merged[i] = true
		result = append(result, a)
	}

	return result
}
