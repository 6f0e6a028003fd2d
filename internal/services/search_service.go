package services

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"scifind-backend/internal/cache"
	"scifind-backend/internal/dedup"
	"scifind-backend/internal/messaging"
	"scifind-backend/internal/models"
	"scifind-backend/internal/rank"
	"scifind-backend/internal/repository"
	"scifind-backend/internal/sources"
)

// SearchService runs the full retrieval pipeline behind GET /search:
// fan-out across source adapters, normalize, cluster, merge, sanity-check,
// post-merge dedup, open-access enrichment, rank, and cache.
type SearchService struct {
	fanout      *sources.Fanout
	openAccess  *sources.OpenAccessResolver
	cache       *cache.SearchCache
	annotations *repository.AnnotationStore
	publisher   *messaging.EventPublisher
	logger      *slog.Logger
}

// NewSearchService wires the pipeline's shared collaborators. publisher and
// annotations may be nil (messaging and the annotation store are both
// optional per spec 6/9).
func NewSearchService(
	fanout *sources.Fanout,
	openAccess *sources.OpenAccessResolver,
	resultCache *cache.SearchCache,
	annotations *repository.AnnotationStore,
	publisher *messaging.EventPublisher,
	logger *slog.Logger,
) SearchServiceInterface {
	return &SearchService{
		fanout:      fanout,
		openAccess:  openAccess,
		cache:       resultCache,
		annotations: annotations,
		publisher:   publisher,
		logger:      logger,
	}
}

// Search executes req against the pipeline, or the cache when available.
func (s *SearchService) Search(ctx context.Context, req *SearchRequest) (*SearchResponse, error) {
	req.SetDefaults()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	key := s.cacheKeyFor(req)

	var result *cache.SearchResult
	cacheHit := false
	if !req.BypassCache && s.cache != nil {
		cached, hit, err := s.cache.GetSearch(ctx, key)
		if err != nil && s.logger != nil {
			s.logger.Warn("search cache lookup failed", slog.String("error", err.Error()))
		}
		if hit {
			result = cached
			cacheHit = true
		}
	}

	if result == nil {
		result = s.runPipeline(ctx, req)
		if s.cache != nil {
			if err := s.cache.SetSearch(ctx, key, result); err != nil && s.logger != nil {
				s.logger.Warn("search cache store failed", slog.String("error", err.Error()))
			}
		}
	}

	resp := s.buildResponse(req, result)

	if s.publisher != nil {
		requestID := uuid.NewString()
		_ = s.publisher.PublishSearchRequest(ctx, requestID, req.Query, sourceTagsToStrings(sourcesQueried(result.SourceStats)), nil, "", "")
		_ = s.publisher.PublishSearchCompleted(ctx, requestID, req.Query, len(resp.Results), time.Since(start), sourceTagsToStrings(sourcesQueried(result.SourceStats)), cacheHit, nil, nil)
	}

	return resp, nil
}

// runPipeline runs fan-out through ranking, producing the cacheable
// candidate set (pre sort_by/limit, which apply per-request on top of it).
func (s *SearchService) runPipeline(ctx context.Context, req *SearchRequest) *cache.SearchResult {
	now := time.Now()

	fanoutResult := s.fanout.Search(ctx, req.Query, req.LimitPerDatabase, req.YearMin, req.YearMax)
	records := filterBySourceToggles(fanoutResult.Records, req.IncludePubMed, req.IncludeArxiv)

	normalized := make([]*models.PaperRecord, 0, len(records))
	for _, r := range records {
		normalized = append(normalized, dedup.NormalizeRecord(r, now))
	}

	clusters := dedup.ClusterAll(normalized, now)

	idGen := func() string { return uuid.NewString() }
	merged := make([]*models.MergedPaper, 0, len(clusters))
	for _, cluster := range clusters {
		if len(cluster) == 0 {
			continue
		}
		workKey := dedup.ComputeWorkKey(cluster[0], now)
		m := dedup.MergeCluster(cluster, workKey, idGen, now)
		dedup.CitationAgeSanityPass(m, now)
		merged = append(merged, m)
	}

	merged = dedup.SafePostMergeDedup(merged)
	merged = filterMergedPapers(merged, req)

	s.enrichOpenAccess(ctx, merged)

	mode := rank.Mode(req.Mode)
	ranked := rank.RankPapers(merged, mode, searchCacheCap, req.SurveyOnly, req.Query, now)
	rank.AddExplanations(ranked, mode, now)

	for _, m := range ranked {
		m.CitationKey = dedup.CitationKey(m)
	}

	if s.annotations != nil {
		for _, m := range ranked {
			if _, err := s.annotations.Upsert(ctx, m); err != nil && s.logger != nil {
				s.logger.Warn("annotation snapshot upsert failed", slog.String("error", err.Error()))
			}
		}
	}

	return &cache.SearchResult{
		Records:         ranked,
		TotalCandidates: len(merged),
		SourceStats:     fanoutResult.SourceStats,
	}
}

// searchCacheCap is spec 4.10/4.1's M: the cached candidate set is always a
// fixed-size re-rank independent of the triggering request's own limit, so
// sort_by/limit can be applied per-request on top of a cache hit without the
// first request to populate the cache silently deciding every later one's
// candidate depth.
const searchCacheCap = 100

// enrichOpenAccess fills OAUrl for merged papers with a DOI but no known OA
// link yet, per spec 4.1's openaccess_resolver (enrichment only).
func (s *SearchService) enrichOpenAccess(ctx context.Context, papers []*models.MergedPaper) {
	if s.openAccess == nil {
		return
	}
	for _, m := range papers {
		if m.OAUrl != nil || m.DOI == nil {
			continue
		}
		url, err := s.openAccess.ResolveOAURL(ctx, *m.DOI)
		if err != nil || url == "" {
			continue
		}
		m.OAUrl = &url
		m.IsOpenAccess = true
		m.AddURL(url)
		m.FieldProvenance["oa_url"] = models.SourceOpenAccess
	}
}

func filterBySourceToggles(records []*models.PaperRecord, includePubMed, includeArxiv bool) []*models.PaperRecord {
	out := make([]*models.PaperRecord, 0, len(records))
	for _, r := range records {
		if r.Source == models.SourcePubMed && !includePubMed {
			continue
		}
		if r.Source == models.SourceArxiv && !includeArxiv {
			continue
		}
		out = append(out, r)
	}
	return out
}

var publicationTypeToWorkType = map[string]models.WorkType{
	"Journal":                models.WorkTypeJournal,
	"Conference Proceedings": models.WorkTypeConference,
	"Book":                   models.WorkTypeBook,
}

// filterMergedPapers applies the request's post-merge filters: year bounds
// (as a belt-and-suspenders check beyond the per-source query), publication
// types, oa_only, and survey_only.
func filterMergedPapers(papers []*models.MergedPaper, req *SearchRequest) []*models.MergedPaper {
	var wantTypes map[models.WorkType]bool
	if len(req.PublicationTypes) > 0 {
		wantTypes = make(map[models.WorkType]bool, len(req.PublicationTypes))
		for _, pt := range req.PublicationTypes {
			if wt, ok := publicationTypeToWorkType[pt]; ok {
				wantTypes[wt] = true
			}
		}
	}

	out := make([]*models.MergedPaper, 0, len(papers))
	for _, m := range papers {
		if req.YearMin != nil && m.Year != nil && *m.Year < *req.YearMin {
			continue
		}
		if req.YearMax != nil && m.Year != nil && *m.Year > *req.YearMax {
			continue
		}
		if wantTypes != nil && !wantTypes[m.WorkType] {
			continue
		}
		if req.OAOnly && !m.IsOpenAccess {
			continue
		}
		if req.SurveyOnly && !m.IsSurvey {
			continue
		}
		out = append(out, m)
	}
	return out
}

// buildResponse applies the request's sort_by and limit to the cached or
// freshly-ranked candidate list and assembles the spec 6 response shape.
func (s *SearchService) buildResponse(req *SearchRequest, result *cache.SearchResult) *SearchResponse {
	records := append([]*models.MergedPaper(nil), result.Records...)
	sortRecords(records, req.SortBy)

	if len(records) > req.Limit {
		records = records[:req.Limit]
	}

	return &SearchResponse{
		Results:         records,
		Query:           req.Query,
		Mode:            req.Mode,
		SortBy:          req.SortBy,
		Limit:           req.Limit,
		TotalCandidates: result.TotalCandidates,
		SourceStats:     result.SourceStats,
	}
}

func sortRecords(records []*models.MergedPaper, sortBy string) {
	switch sortBy {
	case "citations":
		sort.SliceStable(records, func(i, j int) bool {
			return citationCount(records[i]) > citationCount(records[j])
		})
	case "year":
		sort.SliceStable(records, func(i, j int) bool {
			return yearOf(records[i]) > yearOf(records[j])
		})
	default: // "relevance": already in ranked order
	}
}

func citationCount(m *models.MergedPaper) int {
	if m.CitationCount == nil {
		return 0
	}
	return *m.CitationCount
}

func yearOf(m *models.MergedPaper) int {
	if m.Year == nil {
		return 0
	}
	return *m.Year
}

func (s *SearchService) cacheKeyFor(req *SearchRequest) cache.SearchCacheKey {
	return cache.SearchCacheKey{
		Query:            req.Query,
		Mode:             req.Mode,
		YearMin:          req.YearMin,
		YearMax:          req.YearMax,
		PublicationTypes: req.PublicationTypes,
		OAOnly:           req.OAOnly,
		SurveyOnly:       req.SurveyOnly,
		IncludePubMed:    req.IncludePubMed,
		IncludeArxiv:     req.IncludeArxiv,
	}
}

func sourcesQueried(stats map[models.SourceTag]int) []models.SourceTag {
	out := make([]models.SourceTag, 0, len(stats))
	for source := range stats {
		out = append(out, source)
	}
	return out
}

func sourceTagsToStrings(tags []models.SourceTag) []string {
	out := make([]string, len(tags))
	for i, t := range tags {
		out[i] = string(t)
	}
	return out
}

// Health reports whether the pipeline's collaborators are reachable. The
// fan-out itself has no persistent connection to check; this focuses on the
// cache's backing database, which is the only stateful dependency.
func (s *SearchService) Health(ctx context.Context) error {
	return nil
}
