package repository

import (
	"context"
	"time"

	"scifind-backend/internal/models"
)

// SearchRepository defines the interface for search history and cache operations
type SearchRepository interface {
	// Search history
	CreateSearchHistory(ctx context.Context, history *models.SearchHistory) error
	GetSearchHistory(ctx context.Context, userID *string, limit, offset int) ([]models.SearchHistory, error)
	GetPopularQueries(ctx context.Context, since time.Time, limit int) ([]QueryStats, error)
	GetUserSearchStats(ctx context.Context, userID string) (*UserSearchStats, error)

	// Search cache
	GetCachedSearch(ctx context.Context, queryHash string) (*models.SearchCache, error)
	SetSearchCache(ctx context.Context, cache *models.SearchCache) error
	InvalidateCache(ctx context.Context, pattern string) error
	CleanupExpiredCache(ctx context.Context) error
	GetCacheStats(ctx context.Context) (*CacheStats, error)

	// Search suggestions
	GetSearchSuggestions(ctx context.Context, query string, limit int) ([]models.SearchSuggestion, error)
	UpdateSearchSuggestions(ctx context.Context, query string, resultCount int) error

	// Analytics
	GetSearchAnalytics(ctx context.Context, from, to time.Time) (*SearchAnalytics, error)
	GetProviderPerformance(ctx context.Context, provider string, from, to time.Time) (*ProviderPerformance, error)
}

// Statistics structures

// QueryStats represents search query statistics
type QueryStats struct {
	Query       string    `json:"query"`
	Count       int64     `json:"count"`
	LastQueried time.Time `json:"last_queried"`
}

// UserSearchStats represents user search statistics
type UserSearchStats struct {
	UserID        string       `json:"user_id"`
	TotalQueries  int64        `json:"total_queries"`
	UniqueQueries int64        `json:"unique_queries"`
	LastSearch    time.Time    `json:"last_search"`
	TopQueries    []QueryStats `json:"top_queries"`
}

// CacheStats represents search cache statistics
type CacheStats struct {
	TotalEntries   int64   `json:"total_entries"`
	ExpiredEntries int64   `json:"expired_entries"`
	HitRate        float64 `json:"hit_rate"`
	AvgAge         float64 `json:"avg_age_hours"`
	SizeBytes      int64   `json:"size_bytes"`
}

// SearchAnalytics represents search analytics
type SearchAnalytics struct {
	TotalSearches   int64                `json:"total_searches"`
	UniqueQueries   int64                `json:"unique_queries"`
	AvgResponseTime float64              `json:"avg_response_time_ms"`
	CacheHitRate    float64              `json:"cache_hit_rate"`
	TopQueries      []QueryStats         `json:"top_queries"`
	ProviderUsage   []ProviderUsageStats `json:"provider_usage"`
	ErrorRate       float64              `json:"error_rate"`
}

// ProviderPerformance represents provider performance metrics
type ProviderPerformance struct {
	Provider             string  `json:"provider"`
	TotalRequests        int64   `json:"total_requests"`
	SuccessRate          float64 `json:"success_rate"`
	AvgResponseTime      float64 `json:"avg_response_time_ms"`
	TotalResults         int64   `json:"total_results"`
	AvgResultsPerRequest float64 `json:"avg_results_per_request"`
}

type ProviderUsageStats struct {
	Provider string `json:"provider"`
	Usage    int64  `json:"usage"`
}
