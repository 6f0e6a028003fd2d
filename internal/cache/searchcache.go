// Package cache implements the process-wide search-result and single-paper
// caches of spec 4.13, backed by the same GORM store as the annotation
// tables (search_cache, paper_cache).
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"scifind-backend/internal/errors"
	"scifind-backend/internal/models"
)

// keyVersion is bumped whenever ranking or normalization logic changes in a
// way that makes previously-cached results stale; bumping it invalidates
// every existing search-cache entry without needing a delete pass.
const keyVersion = 1

// SearchCacheKey is the full set of inputs a cached search result depends
// on. sort_by and limit are deliberately excluded — they're applied to the
// cached ranked list on retrieval rather than being part of the pipeline's
// identity.
type SearchCacheKey struct {
	Query            string   `json:"query"`
	Mode             string   `json:"mode"`
	YearMin          *int     `json:"year_min,omitempty"`
	YearMax          *int     `json:"year_max,omitempty"`
	PublicationTypes []string `json:"publication_types,omitempty"`
	OAOnly           bool     `json:"oa_only"`
	SurveyOnly       bool     `json:"survey_only"`
	IncludePubMed    bool     `json:"include_pubmed"`
	IncludeArxiv     bool     `json:"include_arxiv"`
}

// Hash canonicalizes the key (lowercased/trimmed query, sorted publication
// types, fixed field order via struct marshaling, plus the version) and
// returns its sha256 hex digest.
func (k SearchCacheKey) Hash() string {
	normalized := k
	normalized.Query = normalizeQuery(k.Query)
	if len(k.PublicationTypes) > 0 {
		types := append([]string(nil), k.PublicationTypes...)
		sort.Strings(types)
		normalized.PublicationTypes = types
	}

	payload := struct {
		Version int `json:"version"`
		SearchCacheKey
	}{Version: keyVersion, SearchCacheKey: normalized}

	data, _ := json.Marshal(payload)
	sum := sha256.Sum256(data)
	return fmt.Sprintf("%x", sum)
}

func normalizeQuery(q string) string {
	return strings.TrimSpace(strings.ToLower(q))
}

// SearchResult is the cached payload: the ranked-by-relevance candidate
// list plus the bookkeeping the /search response needs regardless of the
// caller's requested sort_by/limit.
type SearchResult struct {
	Records         []*models.MergedPaper    `json:"records"`
	TotalCandidates int                      `json:"total_candidates"`
	SourceStats     map[models.SourceTag]int `json:"source_stats"`
}

// SearchCache is the process-wide, GORM-backed result cache. Concurrent
// misses for the same key may each run the pipeline and write the cache;
// last writer wins, which is acceptable since the key determines every
// input (spec 5, Shared resources).
type SearchCache struct {
	db     *gorm.DB
	logger *slog.Logger

	resultTTL time.Duration
	paperTTL  time.Duration
}

// NewSearchCache builds a cache using the given TTLs (spec default: 24h for
// search results, 7 days for single papers).
func NewSearchCache(db *gorm.DB, logger *slog.Logger, resultTTL, paperTTL time.Duration) *SearchCache {
	return &SearchCache{db: db, logger: logger, resultTTL: resultTTL, paperTTL: paperTTL}
}

// GetSearch returns the cached result for key, or (nil, false, nil) on a
// clean miss.
func (c *SearchCache) GetSearch(ctx context.Context, key SearchCacheKey) (*SearchResult, bool, error) {
	hash := key.Hash()

	var row models.SearchCache
	err := c.db.WithContext(ctx).
		First(&row, "query_hash = ? AND expires_at > ?", hash, time.Now()).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, false, nil
		}
		return nil, false, errors.NewDatabaseError("get_search_cache", err)
	}

	var result SearchResult
	if err := json.Unmarshal([]byte(row.Results), &result); err != nil {
		return nil, false, errors.NewSerializationError("decode cached search result", err)
	}

	row.IncrementAccess()
	c.db.WithContext(ctx).Save(&row)

	if c.logger != nil {
		c.logger.Debug("search cache hit", slog.String("query_hash", hash), slog.Int("records", len(result.Records)))
	}
	return &result, true, nil
}

// SetSearch stores result under key with the configured result TTL.
func (c *SearchCache) SetSearch(ctx context.Context, key SearchCacheKey, result *SearchResult) error {
	hash := key.Hash()

	data, err := json.Marshal(result)
	if err != nil {
		return errors.NewSerializationError("encode search result", err)
	}

	row := models.SearchCache{
		ID:          "search_" + hash,
		QueryHash:   hash,
		Query:       key.Query,
		Results:     string(data),
		ResultCount: len(result.Records),
		ExpiresAt:   time.Now().Add(c.resultTTL),
	}

	update := c.db.WithContext(ctx).
		Where("query_hash = ?", hash).
		Updates(&row)
	if update.Error != nil {
		return errors.NewDatabaseError("update_search_cache", update.Error)
	}
	if update.RowsAffected == 0 {
		if err := c.db.WithContext(ctx).Create(&row).Error; err != nil {
			return errors.NewDatabaseError("create_search_cache", err)
		}
	}

	if c.logger != nil {
		c.logger.Debug("search cache set", slog.String("query_hash", hash), slog.Int("records", len(result.Records)))
	}
	return nil
}

// GetPaper looks up a cached paper by id or DOI — both key forms resolve to
// the same entry.
func (c *SearchCache) GetPaper(ctx context.Context, idOrDOI string) (*models.MergedPaper, bool, error) {
	var row models.PaperCache
	err := c.db.WithContext(ctx).
		First(&row, "cache_key = ? AND expires_at > ?", paperCacheKey(idOrDOI), time.Now()).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, false, nil
		}
		return nil, false, errors.NewDatabaseError("get_paper_cache", err)
	}

	var paper models.MergedPaper
	if err := json.Unmarshal([]byte(row.Data), &paper); err != nil {
		return nil, false, errors.NewSerializationError("decode cached paper", err)
	}
	return &paper, true, nil
}

// SetPaper stores paper under its id, and additionally under its DOI if it
// has one, with the configured paper TTL (spec default 7 days).
func (c *SearchCache) SetPaper(ctx context.Context, paper *models.MergedPaper) error {
	data, err := json.Marshal(paper)
	if err != nil {
		return errors.NewSerializationError("encode paper", err)
	}

	keys := []string{paperCacheKey(paper.ID)}
	if paper.DOI != nil && *paper.DOI != "" {
		keys = append(keys, paperCacheKey(*paper.DOI))
	}

	expiresAt := time.Now().Add(c.paperTTL)
	for _, key := range keys {
		row := models.PaperCache{
			CacheKey:  key,
			PaperID:   paper.ID,
			Data:      string(data),
			ExpiresAt: expiresAt,
		}
		update := c.db.WithContext(ctx).Where("cache_key = ?", key).Updates(&row)
		if update.Error != nil {
			return errors.NewDatabaseError("update_paper_cache", update.Error)
		}
		if update.RowsAffected == 0 {
			if err := c.db.WithContext(ctx).Create(&row).Error; err != nil {
				return errors.NewDatabaseError("create_paper_cache", err)
			}
		}
	}
	return nil
}

func paperCacheKey(idOrDOI string) string {
	sum := sha256.Sum256([]byte(idOrDOI))
	return fmt.Sprintf("%x", sum)
}

// CleanupExpired removes expired entries from both cache tables; intended
// to be called periodically by a background maintenance loop.
func (c *SearchCache) CleanupExpired(ctx context.Context) error {
	now := time.Now()
	if err := c.db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&models.SearchCache{}).Error; err != nil {
		return errors.NewDatabaseError("cleanup_expired_search_cache", err)
	}
	if err := c.db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&models.PaperCache{}).Error; err != nil {
		return errors.NewDatabaseError("cleanup_expired_paper_cache", err)
	}
	return nil
}
