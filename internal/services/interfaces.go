package services

import (
	"context"
	"time"

	"scifind-backend/internal/models"
)


// SearchServiceInterface defines the contract for the search pipeline
// service (spec 6 GET /search).
type SearchServiceInterface interface {
	Search(ctx context.Context, req *SearchRequest) (*SearchResponse, error)
	Health(ctx context.Context) error
}

// PaperServiceInterface defines the contract for single-paper detail,
// related-papers, and annotation-store-backed endpoints (spec 6).
type PaperServiceInterface interface {
	GetByID(ctx context.Context, id string) (*models.MergedPaper, error)
	Related(ctx context.Context, req *RelatedPapersRequest) ([]*models.MergedPaper, error)
	Select(ctx context.Context, id string, selected bool) (*AnnotationWriteResult, error)
	Comment(ctx context.Context, id string, comment string) (*AnnotationWriteResult, error)
	Bookmarked(ctx context.Context) ([]models.AnnotatedPaper, error)
	WithNotes(ctx context.Context) ([]models.AnnotatedPaper, error)
	Health(ctx context.Context) error
}

// AnalyticsServiceInterface defines the contract for analytics service
type AnalyticsServiceInterface interface {
	GetSearchMetrics(ctx context.Context, from, to time.Time) (*SearchMetrics, error)
	GetPopularQueries(ctx context.Context, limit int, from, to time.Time) ([]*PopularQuery, error)
	GetProviderPerformance(ctx context.Context, from, to time.Time) (map[string]*ProviderMetrics, error)
	GetUserActivity(ctx context.Context, userID string, from, to time.Time) (*UserActivity, error)
	RecordEvent(ctx context.Context, event *AnalyticsEvent) error
	Health(ctx context.Context) error
}

// HealthServiceInterface defines the contract for health service
type HealthServiceInterface interface {
	Health(ctx context.Context) error
	DatabaseHealth(ctx context.Context) error
	MessagingHealth(ctx context.Context) error
	ExternalServicesHealth(ctx context.Context) map[string]error
	GetSystemInfo(ctx context.Context) (*SystemInfo, error)
}

// Analytics/health data structures live in types.go alongside the
// search/paper request-response shapes.