package services

import (
	"net/http"
	"strings"
	"time"

	"scifind-backend/internal/errors"
	"scifind-backend/internal/models"
)

// newQueryConstraintError maps to 422 per spec 7 (missing/bad query constraints).
func newQueryConstraintError(message string) error {
	return errors.NewError(errors.ErrorTypeValidation, "QUERY_CONSTRAINT", message).
		WithStatusCode(http.StatusUnprocessableEntity).
		Build()
}

// newUnknownPublicationTypeError maps to 400 per spec 7 (unknown publication type).
func newUnknownPublicationTypeError(value string) error {
	return errors.NewError(errors.ErrorTypeValidation, "UNKNOWN_PUBLICATION_TYPE", "unknown publication type: "+value).
		WithDetail("value", value).
		WithStatusCode(http.StatusBadRequest).
		Build()
}

// SearchRequest is the parsed form of GET /search's query parameters
// (spec 6). Validate/SetDefaults mirror the query-string contract: q is
// required (>=2 chars after trimming), mode is required, everything else
// has a default.
type SearchRequest struct {
	Query             string   `json:"q"`
	Mode              string   `json:"mode"`
	Limit             int      `json:"limit"`
	SortBy            string   `json:"sort_by"`
	YearMin           *int     `json:"year_min,omitempty"`
	YearMax           *int     `json:"year_max,omitempty"`
	LimitPerDatabase  int      `json:"limit_per_database"`
	PublicationTypes  []string `json:"publication_types,omitempty"`
	OAOnly            bool     `json:"oa_only"`
	SurveyOnly        bool     `json:"survey_only"`
	IncludePubMed     bool     `json:"include_pubmed"`
	IncludeArxiv      bool     `json:"include_arxiv"`
	BypassCache       bool     `json:"bypass_cache"`
}

var validModes = map[string]bool{"foundational": true, "recent": true}
var validSortBy = map[string]bool{"relevance": true, "citations": true, "year": true}
var validPublicationTypes = map[string]bool{"Journal": true, "Conference Proceedings": true, "Book": true}

// Validate enforces spec 6's required-parameter and enum constraints,
// returning a 422-mapped validation error (missing/bad query constraints)
// or a 400-mapped one (unknown publication type) via the errors package's
// typed errors, which the HTTP layer inspects to choose a status code.
func (r *SearchRequest) Validate() error {
	if len(strings.TrimSpace(r.Query)) < 2 {
		return newQueryConstraintError("q must be at least 2 characters")
	}
	if r.Mode == "" {
		return newQueryConstraintError("mode is required")
	}
	if !validModes[r.Mode] {
		return newQueryConstraintError("mode must be foundational or recent")
	}
	if r.SortBy != "" && !validSortBy[r.SortBy] {
		return newQueryConstraintError("sort_by must be relevance, citations, or year")
	}
	for _, pt := range r.PublicationTypes {
		if !validPublicationTypes[pt] {
			return newUnknownPublicationTypeError(pt)
		}
	}
	if r.YearMin != nil && r.YearMax != nil && *r.YearMin > *r.YearMax {
		return newQueryConstraintError("year_min must be <= year_max")
	}
	return nil
}

// SetDefaults fills limit/sort_by/limit_per_database with spec defaults.
func (r *SearchRequest) SetDefaults() {
	if r.Limit <= 0 {
		r.Limit = 20
	}
	if r.Limit > 100 {
		r.Limit = 100
	}
	if r.SortBy == "" {
		r.SortBy = "relevance"
	}
	if r.LimitPerDatabase <= 0 {
		r.LimitPerDatabase = 50
	}
	if r.LimitPerDatabase > 200 {
		r.LimitPerDatabase = 200
	}
}

// SearchResponse is the exact body shape of spec 6's /search response.
type SearchResponse struct {
	Results         []*models.MergedPaper    `json:"results"`
	Query           string                   `json:"query"`
	Mode            string                   `json:"mode"`
	SortBy          string                   `json:"sortBy"`
	Limit           int                      `json:"limit"`
	TotalCandidates int                      `json:"totalCandidates"`
	SourceStats     map[models.SourceTag]int `json:"sourceStats"`
}

// RelatedPapersRequest is the parsed form of
// GET /paper/{id}/related?limit=20&s2_id=&oa_id=.
type RelatedPapersRequest struct {
	PaperID string
	Limit   int
	S2ID    string
	OAID    string
}

// SetDefaults fills limit with the spec default of 20.
func (r *RelatedPapersRequest) SetDefaults() {
	if r.Limit <= 0 {
		r.Limit = 20
	}
}

// AnnotationWriteResult is the response shape of the select/comment
// endpoints: {persisted: bool}.
type AnnotationWriteResult struct {
	Persisted bool `json:"persisted"`
}

// Analytics/health support types retained from the ambient stack.

type SearchMetrics struct {
	TotalSearches     int            `json:"total_searches"`
	UniqueUsers       int            `json:"unique_users"`
	AverageResultTime time.Duration  `json:"average_result_time"`
	SuccessRate       float64        `json:"success_rate"`
	PopularProviders  map[string]int `json:"popular_providers"`
	SearchesByHour    []HourlyMetric `json:"searches_by_hour"`
}

type ProviderMetrics struct {
	Name            string        `json:"name"`
	TotalRequests   int           `json:"total_requests"`
	SuccessRate     float64       `json:"success_rate"`
	AverageLatency  time.Duration `json:"average_latency"`
	ErrorRate       float64       `json:"error_rate"`
	LastHealthCheck time.Time     `json:"last_health_check"`
	IsHealthy       bool          `json:"is_healthy"`
}

type UserActivity struct {
	UserID         string          `json:"user_id"`
	SearchCount    int             `json:"search_count"`
	UniqueQueries  int             `json:"unique_queries"`
	FavoriteTopics []string        `json:"favorite_topics"`
	ActivityByDay  []DailyActivity `json:"activity_by_day"`
	LastActive     time.Time       `json:"last_active"`
}

type HourlyMetric struct {
	Hour  int `json:"hour"`
	Count int `json:"count"`
}

type DailyActivity struct {
	Date        time.Time `json:"date"`
	SearchCount int       `json:"search_count"`
}

type AnalyticsEvent struct {
	Type      string                 `json:"type"`
	UserID    string                 `json:"user_id,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

type SystemInfo struct {
	Version   string          `json:"version"`
	Uptime    time.Duration   `json:"uptime"`
	Memory    MemoryInfo      `json:"memory"`
	Database  DatabaseInfo    `json:"database"`
	Services  map[string]bool `json:"services"`
	Timestamp time.Time       `json:"timestamp"`
}

type MemoryInfo struct {
	Allocated uint64 `json:"allocated"`
	Total     uint64 `json:"total"`
	System    uint64 `json:"system"`
	GCRuns    uint32 `json:"gc_runs"`
}

type DatabaseInfo struct {
	Connected   bool                   `json:"connected"`
	Type        string                 `json:"type"`
	Version     string                 `json:"version,omitempty"`
	Connections map[string]int         `json:"connections"`
	Stats       map[string]interface{} `json:"stats,omitempty"`
}

type PopularQuery struct {
	Query       string  `json:"query"`
	Count       int64   `json:"count"`
	SuccessRate float64 `json:"success_rate"`
	AvgResults  float64 `json:"avg_results"`
}
