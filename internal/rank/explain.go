package rank

import (
	"fmt"
	"sort"
	"time"

	"scifind-backend/internal/models"
)

const maxExplanationBullets = 4

var explanationText = map[string]string{
	"high_relevance": "High semantic match to your topic",
	"top_cited":      "Top-cited within the candidate set",
	"classic":        "Classic paper in the field",
	"fast_growth":    "Fast citation growth for a recent paper",
	"trending":       "Trending: rising citations",
	"survey":         "Survey/Review (good starting point)",
	"open_access":    "Open access available",
	"venue":          "Published in recognized venue",
}

func highlyCitedBullet(count int) string {
	return fmt.Sprintf("Highly cited (%d citations)", count)
}

func veryRecentBullet(year int) string {
	return fmt.Sprintf("Published recently (%d)", year)
}

type contribution struct {
	name  string
	value float64
}

func featureContributions(f Features, w Weights) []contribution {
	return []contribution{
		{"relevance", w.Relevance * f.Relevance},
		{"citations", w.Citations * f.LogCitations},
		{"velocity", w.Velocity * f.CitationVelocity},
		{"recency", w.Recency * f.Recency},
		{"venue", w.Venue * f.VenueSignal},
		{"survey", w.Survey * f.IsSurvey},
		{"open_access", w.OpenAccess * f.IsOpenAccess},
	}
}

func citationPercentile(paper *models.MergedPaper, allPapers []*models.MergedPaper) float64 {
	if len(allPapers) == 0 {
		return 0
	}
	citations := func(p *models.MergedPaper) int {
		if p.CitationCount == nil {
			return 0
		}
		return *p.CitationCount
	}
	paperCitations := citations(paper)
	below := 0
	for _, p := range allPapers {
		if citations(p) < paperCitations {
			below++
		}
	}
	return float64(below) / float64(len(allPapers))
}

// GenerateWhyBullets produces up to maxExplanationBullets explanation
// strings for paper, ranking feature contributions by descending value and
// emitting the first matching template per spec 4.12.
func GenerateWhyBullets(paper *models.MergedPaper, mode Mode, allPapers []*models.MergedPaper, now time.Time) []string {
	currentYear := now.Year()
	features := ComputeFeatures(paper, currentYear, "")
	weights := baseWeights(mode)

	contributions := featureContributions(features, weights)
	sort.SliceStable(contributions, func(i, j int) bool {
		return contributions[i].value > contributions[j].value
	})

	pctl := citationPercentile(paper, allPapers)

	var bullets []string
	seen := map[string]bool{}
	add := func(s string) {
		if s == "" || seen[s] || len(bullets) >= maxExplanationBullets {
			return
		}
		seen[s] = true
		bullets = append(bullets, s)
	}

	for _, c := range contributions {
		if c.value <= 0 || len(bullets) >= maxExplanationBullets {
			continue
		}
		add(featureToBullet(c.name, c.value, paper, features, mode, pctl, currentYear))
	}

	if paper.IsOpenAccess {
		add(explanationText["open_access"])
	}
	if paper.IsSurvey {
		add(explanationText["survey"])
	}

	return bullets
}

// featureToBullet converts one feature's contribution into an explanation
// string, or "" if no template applies. "High semantic match" is suppressed
// unless normalized relevance exceeds 0.6, to avoid vacuous explanations.
func featureToBullet(name string, contribution float64, paper *models.MergedPaper, features Features, mode Mode, citationPercentile float64, currentYear int) string {
	switch name {
	case "relevance":
		if contribution > 0.1 && features.Relevance > 0.6 {
			return explanationText["high_relevance"]
		}
		return ""

	case "citations":
		switch {
		case citationPercentile >= 0.9:
			return explanationText["top_cited"]
		case paper.CitationCount != nil && *paper.CitationCount >= 1000:
			return highlyCitedBullet(*paper.CitationCount)
		case paper.CitationCount != nil && *paper.CitationCount >= 100 && features.AgeYears >= 10:
			return explanationText["classic"]
		}

	case "velocity":
		switch {
		case mode == ModeRecent && contribution > 0.1:
			return explanationText["fast_growth"]
		case contribution > 0.05:
			return explanationText["trending"]
		}

	case "recency":
		if paper.Year != nil && *paper.Year >= currentYear-2 {
			return veryRecentBullet(*paper.Year)
		}

	case "survey":
		if paper.IsSurvey {
			return explanationText["survey"]
		}

	case "open_access":
		if paper.IsOpenAccess {
			return explanationText["open_access"]
		}

	case "venue":
		if paper.Venue != nil {
			return explanationText["venue"]
		}
	}
	return ""
}

// AddExplanations populates WhyRecommended on every paper in the set.
func AddExplanations(papers []*models.MergedPaper, mode Mode, now time.Time) {
	for _, p := range papers {
		p.WhyRecommended = GenerateWhyBullets(p, mode, papers, now)
	}
}
