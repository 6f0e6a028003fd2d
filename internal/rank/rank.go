package rank

import (
	"sort"
	"strings"
	"time"

	"scifind-backend/internal/models"
)

// Mode selects the scoring weight table, per spec 4.10.
type Mode string

const (
	ModeFoundational Mode = "foundational"
	ModeRecent       Mode = "recent"
)

const (
	relevancePrefilterLimit = 200
	maxSurveysInResults     = 6
)

// Weights combines features into a final score.
type Weights struct {
	Relevance   float64
	Citations   float64
	Velocity    float64
	Recency     float64
	Venue       float64
	Survey      float64
	OpenAccess  float64
}

var foundationalWeights = Weights{
	Relevance: 0.45, Citations: 0.35, Venue: 0.10, Survey: 0.05, OpenAccess: 0.05,
}

var recentWeights = Weights{
	Relevance: 0.55, Velocity: 0.25, Recency: 0.15, Venue: 0.03, OpenAccess: 0.02,
}

func baseWeights(mode Mode) Weights {
	if mode == ModeRecent {
		return recentWeights
	}
	return foundationalWeights
}

// ComputeScore combines a feature vector into a final score via weights.
func ComputeScore(f Features, w Weights) float64 {
	return w.Relevance*f.Relevance +
		w.Citations*f.LogCitations +
		w.Velocity*f.CitationVelocity +
		w.Recency*f.Recency +
		w.Venue*f.VenueSignal +
		w.Survey*f.IsSurvey +
		w.OpenAccess*f.IsOpenAccess
}

// Intent is the detected query-intent scores, per spec 4.10.
type Intent struct {
	SurveySeeking       float64
	RecentSeeking       float64
	FoundationalSeeking float64
}

var surveyIntentKeywords = []string{
	"survey", "review", "overview", "state of the art", "state-of-the-art",
	"comprehensive", "systematic review", "literature review",
}
var recentIntentKeywords = []string{
	"recent", "latest", "new", "current", "2024", "2023", "2022",
	"emerging", "trending", "cutting-edge", "cutting edge",
}
var foundationalIntentKeywords = []string{
	"foundational", "classic", "seminal", "pioneering",
	"foundation", "fundamental", "original", "early",
}

// DetectQueryIntent scores a query against the three intent keyword sets,
// normalizing each to [0,1] if any fired, per spec 4.10.
func DetectQueryIntent(query string) Intent {
	q := strings.ToLower(query)
	var intent Intent
	for _, kw := range surveyIntentKeywords {
		if strings.Contains(q, kw) {
			intent.SurveySeeking += 0.3
		}
	}
	for _, kw := range recentIntentKeywords {
		if strings.Contains(q, kw) {
			intent.RecentSeeking += 0.3
		}
	}
	for _, kw := range foundationalIntentKeywords {
		if strings.Contains(q, kw) {
			intent.FoundationalSeeking += 0.3
		}
	}

	total := intent.SurveySeeking + intent.RecentSeeking + intent.FoundationalSeeking
	if total > 0 {
		intent.SurveySeeking = minF(1.0, intent.SurveySeeking/total)
		intent.RecentSeeking = minF(1.0, intent.RecentSeeking/total)
		intent.FoundationalSeeking = minF(1.0, intent.FoundationalSeeking/total)
	}
	return intent
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

// adjustWeightsByIntent nudges survey/recency/velocity/citations weights
// toward detected intent, each capped per spec 4.10.
func adjustWeightsByIntent(base Weights, mode Mode, intent Intent) Weights {
	w := base
	if intent.SurveySeeking > 0.3 {
		w.Survey = minF(0.15, base.Survey+intent.SurveySeeking*0.1)
	}
	if intent.RecentSeeking > 0.3 && mode == ModeRecent {
		w.Recency = minF(0.25, base.Recency+intent.RecentSeeking*0.1)
		w.Velocity = minF(0.35, base.Velocity+intent.RecentSeeking*0.1)
	}
	if intent.FoundationalSeeking > 0.3 && mode == ModeFoundational {
		w.Citations = minF(0.45, base.Citations+intent.FoundationalSeeking*0.1)
	}
	return w
}

// RankPapers performs the full two-stage ranking pipeline of spec 4.10:
// relevance prefilter to K=200, feature extraction + normalization, weighted
// scoring with query-intent adjustment and recent-mode recency boost,
// adaptive survey cap, and diversity filtering, returning up to limit papers
// in ranked order: score descending, except where the survey cap moves quality
// surveys ahead and the diversity filter backfills skipped papers at the end.
func RankPapers(papers []*models.MergedPaper, mode Mode, limit int, surveyOnly bool, query string, now time.Time) []*models.MergedPaper {
	if len(papers) == 0 {
		return nil
	}

	byRelevance := append([]*models.MergedPaper(nil), papers...)
	sort.SliceStable(byRelevance, func(i, j int) bool {
		return byRelevance[i].RelevanceScore > byRelevance[j].RelevanceScore
	})
	candidates := byRelevance
	if len(candidates) > relevancePrefilterLimit {
		candidates = candidates[:relevancePrefilterLimit]
	}

	var intent Intent
	if query != "" {
		intent = DetectQueryIntent(query)
	}
	weights := adjustWeightsByIntent(baseWeights(mode), mode, intent)

	currentYear := now.Year()
	scored := make([]Scored, len(candidates))
	for i, p := range candidates {
		scored[i] = Scored{Paper: p, Features: ComputeFeatures(p, currentYear, query)}
	}

	if mode == ModeRecent {
		for i := range scored {
			p := scored[i].Paper
			if p.Year != nil && *p.Year >= currentYear-3 {
				scored[i].Features.Recency = minF(1.0, scored[i].Features.Recency*1.5)
			}
		}
	}

	normalized := NormalizeFeatures(scored)

	for i := range normalized {
		score := ComputeScore(normalized[i].Features, weights)
		normalized[i].Paper.Score = score
	}
	sort.SliceStable(normalized, func(i, j int) bool {
		return normalized[i].Paper.Score > normalized[j].Paper.Score
	})

	// Both branches build a pool over the whole (already K=200-prefiltered)
	// candidate set, not just `limit` papers — the diversity filter below
	// needs a pool strictly larger than limit to have anything to filter;
	// it, not these stages, is what truncates to limit.
	var pool []*models.MergedPaper
	if surveyOnly {
		pool = make([]*models.MergedPaper, 0, len(normalized))
		for _, s := range normalized {
			pool = append(pool, s.Paper)
		}
	} else {
		pool = applyAdaptiveSurveyCap(normalized, limit, intent)
	}

	return applyDiversityFilters(pool, limit)
}

// applyAdaptiveSurveyCap interleaves quality surveys (scoring at/above the
// median survey score) with non-surveys, capping survey count, per spec 4.10.
// It returns the full reordered pool (not truncated to limit) so the
// diversity filter downstream has a pool larger than limit to work with.
func applyAdaptiveSurveyCap(scored []Scored, limit int, intent Intent) []*models.MergedPaper {
	var surveys, nonSurveys []Scored
	for _, s := range scored {
		if s.Paper.IsSurvey {
			surveys = append(surveys, s)
		} else {
			nonSurveys = append(nonSurveys, s)
		}
	}

	surveyCap := maxSurveysInResults
	if intent.SurveySeeking > 0.5 {
		surveyCap = limit / 2
		if surveyCap > len(surveys) {
			surveyCap = len(surveys)
		}
	}

	var qualitySurveys []Scored
	if len(surveys) > 0 {
		scores := make([]float64, len(surveys))
		for i, s := range surveys {
			scores[i] = s.Paper.Score
		}
		sort.Float64s(scores)
		median := scores[len(scores)/2]
		for _, s := range surveys {
			if s.Paper.Score >= median {
				qualitySurveys = append(qualitySurveys, s)
			}
		}
	}

	poolSize := len(scored)
	result := make([]*models.MergedPaper, 0, poolSize)
	surveyIdx, nonSurveyIdx := 0, 0
	for len(result) < poolSize {
		if surveyIdx < len(qualitySurveys) && surveyIdx < surveyCap {
			result = append(result, qualitySurveys[surveyIdx].Paper)
			surveyIdx++
			continue
		}
		if nonSurveyIdx < len(nonSurveys) {
			result = append(result, nonSurveys[nonSurveyIdx].Paper)
			nonSurveyIdx++
			continue
		}
		if surveyIdx < len(surveys) {
			result = append(result, surveys[surveyIdx].Paper)
			surveyIdx++
			continue
		}
		break
	}
	return result
}

// applyDiversityFilters caps papers per first-author (2), per venue (3), and
// softly per decade (3 until 70% of limit is filled), backfilling with the
// highest-scoring rejects if the filter shrinks the list below limit, per
// spec 4.10.
func applyDiversityFilters(papers []*models.MergedPaper, limit int) []*models.MergedPaper {
	if len(papers) <= limit {
		return papers
	}

	result := make([]*models.MergedPaper, 0, limit)
	kept := make(map[*models.MergedPaper]bool, limit)
	authorCounts := map[string]int{}
	venueCounts := map[string]int{}
	decadeCounts := map[int]int{}

	for _, p := range papers {
		if len(result) >= limit {
			break
		}

		if len(p.Authors) > 0 {
			first := p.Authors[0].Name
			if authorCounts[first] >= 2 {
				continue
			}
		}
		if p.Venue != nil && venueCounts[*p.Venue] >= 3 {
			continue
		}
		if p.Year != nil {
			decade := (*p.Year / 10) * 10
			if decadeCounts[decade] >= 3 && len(result) < int(float64(limit)*0.7) {
				continue
			}
		}

		if len(p.Authors) > 0 {
			authorCounts[p.Authors[0].Name]++
		}
		if p.Venue != nil {
			venueCounts[*p.Venue]++
		}
		if p.Year != nil {
			decade := (*p.Year / 10) * 10
			decadeCounts[decade]++
		}

		result = append(result, p)
		kept[p] = true
	}

	if len(result) < limit {
		for _, p := range papers {
			if len(result) >= limit {
				break
			}
			if !kept[p] {
				result = append(result, p)
			}
		}
	}

	if len(result) > limit {
		result = result[:limit]
	}
	return result
}
