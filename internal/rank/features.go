// Package rank implements feature extraction, two-stage ranking, diversity
// filtering, and explanation generation over merged papers.
package rank

import (
	"math"
	"strings"

	"scifind-backend/internal/models"
)

// topTierVenues is the curated set of high-signal venue substrings, matched
// case-insensitively against a paper's venue string.
var topTierVenues = map[string]bool{
	"nature": true, "science": true, "cell": true, "lancet": true,
	"nejm": true, "bmj": true, "pnas": true, "plos one": true,
	"ieee": true, "acm": true, "springer": true, "elsevier": true,
	"neurips": true, "icml": true, "iclr": true, "aaai": true,
	"ijcai": true, "cvpr": true, "iccv": true, "eccv": true,
	"acl": true, "emnlp": true, "naacl": true, "sigir": true,
	"kdd": true, "www": true, "chi": true, "uist": true,
}

// sourceReliability weights a source's own relevance_score by how much to
// trust it, per spec 4.9.
var sourceReliability = map[models.SourceTag]float64{
	models.SourceSemanticScholar: 1.0,
	models.SourceOpenAlex:        0.9,
	models.SourcePubMed:          0.85,
	models.SourceCrossRef:        0.8,
	models.SourceArxiv:           0.7,
}

// Features is one paper's extracted ranking feature vector.
type Features struct {
	Relevance        float64
	LogCitations     float64
	CitationVelocity float64
	Recency          float64
	AgeYears         int
	IsSurvey         float64
	IsOpenAccess     float64
	VenueSignal      float64
}

// ComputeFeatures extracts a paper's feature vector relative to currentYear
// and an optional query string, per spec 4.9.
func ComputeFeatures(paper *models.MergedPaper, currentYear int, query string) Features {
	ageYears := 0
	if paper.Year != nil {
		if d := currentYear - *paper.Year; d > 0 {
			ageYears = d
		}
	}

	relevance := computeUnifiedRelevance(paper, query)

	citations := 0
	if paper.CitationCount != nil {
		citations = *paper.CitationCount
	}
	logCitations := math.Log1p(float64(citations))

	var velocity float64
	if ageYears <= 0 {
		velocity = float64(citations)
	} else {
		base := float64(citations) / float64(ageYears)
		accel := 1.0
		switch {
		case ageYears < 2 && citations > 10:
			accel = 1.5
		case ageYears < 3 && citations > 20:
			accel = 1.2
		}
		velocity = base * accel
	}
	logVelocity := math.Log1p(velocity)

	recency := math.Exp(-0.15 * float64(ageYears))

	isSurvey, isOA := 0.0, 0.0
	if paper.IsSurvey {
		isSurvey = 1.0
	}
	if paper.IsOpenAccess {
		isOA = 1.0
	}

	return Features{
		Relevance:        relevance,
		LogCitations:     logCitations,
		CitationVelocity: logVelocity,
		Recency:          recency,
		AgeYears:         ageYears,
		IsSurvey:         isSurvey,
		IsOpenAccess:     isOA,
		VenueSignal:      computeVenueQuality(paper),
	}
}

// computeUnifiedRelevance blends source relevance, query similarity, and
// topic overlap into a single [0,1] relevance feature.
func computeUnifiedRelevance(paper *models.MergedPaper, query string) float64 {
	sourceRelevance := 0.5
	if paper.RelevanceScore > 0 {
		var sum float64
		n := 0
		for _, s := range paper.Sources {
			w, ok := sourceReliability[s]
			if !ok {
				w = 0.5
			}
			sum += w
			n++
		}
		avgWeight := 0.5
		if n > 0 {
			avgWeight = sum / float64(n)
		}
		sourceRelevance = paper.RelevanceScore * avgWeight
	}

	topicOverlap := computeTopicOverlap(paper)

	var relevance float64
	if query != "" {
		querySim := computeQuerySimilarity(query, paper)
		if querySim > 0 {
			relevance = 0.4*sourceRelevance + 0.4*querySim + 0.2*topicOverlap
		} else {
			relevance = 0.7*sourceRelevance + 0.3*topicOverlap
		}
	} else {
		relevance = 0.7*sourceRelevance + 0.3*topicOverlap
	}

	return clamp01(relevance)
}

func wordSet(s string) map[string]bool {
	out := map[string]bool{}
	for _, w := range strings.Fields(strings.ToLower(s)) {
		out[w] = true
	}
	return out
}

func overlapFraction(query map[string]bool, target map[string]bool) float64 {
	if len(query) == 0 {
		return 0
	}
	hits := 0
	for w := range query {
		if target[w] {
			hits++
		}
	}
	return float64(hits) / float64(len(query))
}

// computeQuerySimilarity scores title/abstract/keyword word overlap against
// the query, per spec 4.9's query_similarity formula.
func computeQuerySimilarity(query string, paper *models.MergedPaper) float64 {
	queryWords := wordSet(query)

	titleOverlap := overlapFraction(queryWords, wordSet(paper.Title))

	abstractOverlap := 0.0
	if paper.Abstract != nil {
		abstractOverlap = overlapFraction(queryWords, wordSet(*paper.Abstract))
	}

	keywordOverlap := 0.0
	if len(paper.Keywords) > 0 {
		kwSet := map[string]bool{}
		for k := range paper.Keywords {
			kwSet[strings.ToLower(k)] = true
		}
		hits := 0
		for w := range queryWords {
			if kwSet[w] {
				hits++
			}
		}
		keywordOverlap = float64(hits) / float64(len(queryWords))
	}

	sim := 0.5*titleOverlap + 0.3*abstractOverlap + 0.2*keywordOverlap
	if sim > 1.0 {
		sim = 1.0
	}
	return sim
}

// computeTopicOverlap rewards papers carrying more topics, per spec 4.9.
func computeTopicOverlap(paper *models.MergedPaper) float64 {
	if len(paper.Topics) == 0 {
		return 0.3
	}
	overlap := 0.3 + float64(len(paper.Topics))/10.0
	if overlap > 1.0 {
		overlap = 1.0
	}
	return overlap
}

// computeVenueQuality scores a paper's venue against the top-tier set plus a
// work-type boost, per spec 4.9.
func computeVenueQuality(paper *models.MergedPaper) float64 {
	if paper.Venue == nil || *paper.Venue == "" {
		return 0
	}
	venueLower := strings.ToLower(*paper.Venue)
	score := 0.0
	for v := range topTierVenues {
		if strings.Contains(venueLower, v) {
			score += 0.6
			break
		}
	}
	switch paper.WorkType {
	case models.WorkTypeJournal, models.WorkTypeConference:
		score += 0.3
	case models.WorkTypeBook:
		score += 0.1
	}
	return clamp01(score)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Scored pairs a paper with its (possibly normalized) feature vector.
type Scored struct {
	Paper    *models.MergedPaper
	Features Features
}

// percentileNormalize scales value against the robust [P25,P75] range of
// values, falling back to min-max, then to 0.5, per spec 4.9.
func percentileNormalize(values []float64, value float64) float64 {
	if len(values) == 0 {
		return 0.5
	}
	sorted := append([]float64(nil), values...)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j-1] > sorted[j]; j-- {
			sorted[j-1], sorted[j] = sorted[j], sorted[j-1]
		}
	}
	n := len(sorted)
	p25idx := n / 4
	p75idx := (3 * n) / 4
	if p75idx >= n {
		p75idx = n - 1
	}
	p25, p75 := sorted[p25idx], sorted[p75idx]
	iqr := p75 - p25
	if iqr > 0.001 {
		return clamp01((value - p25) / iqr)
	}
	valMin, valMax := sorted[0], sorted[n-1]
	if valMax > valMin {
		return (value - valMin) / (valMax - valMin)
	}
	return 0.5
}

// NormalizeFeatures robust-normalizes log_citations, citation_velocity, and
// relevance within the candidate set; recency, venue_signal, and the binary
// flags are already in [0,1] and pass through unchanged.
func NormalizeFeatures(scored []Scored) []Scored {
	if len(scored) == 0 {
		return scored
	}
	citations := make([]float64, len(scored))
	velocities := make([]float64, len(scored))
	relevances := make([]float64, len(scored))
	for i, s := range scored {
		citations[i] = s.Features.LogCitations
		velocities[i] = s.Features.CitationVelocity
		relevances[i] = s.Features.Relevance
	}

	out := make([]Scored, len(scored))
	for i, s := range scored {
		f := s.Features
		f.LogCitations = percentileNormalize(citations, f.LogCitations)
		f.CitationVelocity = percentileNormalize(velocities, f.CitationVelocity)
		f.Relevance = percentileNormalize(relevances, f.Relevance)
		out[i] = Scored{Paper: s.Paper, Features: f}
	}
	return out
}
