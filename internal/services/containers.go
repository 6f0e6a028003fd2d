package services

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"scifind-backend/internal/breaker"
	"scifind-backend/internal/cache"
	"scifind-backend/internal/config"
	"scifind-backend/internal/messaging"
	"scifind-backend/internal/repository"
	"scifind-backend/internal/sources"
)

// Container holds all service instances
type Container struct {
	Paper     PaperServiceInterface
	Search    SearchServiceInterface
	Analytics AnalyticsServiceInterface
	Health    HealthServiceInterface
}

// Pipeline bundles the retrieval-pipeline collaborators Search and Paper
// share, so main only has to build them once.
type Pipeline struct {
	Fanout     *sources.Fanout
	OpenAccess *sources.OpenAccessResolver
	Cache      *cache.SearchCache
	S2         *sources.SemanticScholarAdapter
	OpenAlex   *sources.OpenAlexAdapter
}

// NewPipeline builds the shared source-adapter roster, circuit breakers,
// fan-out orchestrator, open-access resolver, and result/paper cache from
// cfg, per spec 4/5/9. db backs the cache tables.
func NewPipeline(cfg *config.Config, db *repository.Database, logger *slog.Logger) (*Pipeline, error) {
	httpClient := sources.NewHTTPClient(&http.Client{Timeout: 30 * time.Second}, logger)
	operatorEmail := cfg.Search.OperatorEmail

	var adapters []sources.Adapter
	if cfg.Providers.ArXiv.Enabled {
		adapters = append(adapters, sources.NewArxivAdapter(httpClient))
	}
	s2 := sources.NewSemanticScholarAdapter(httpClient, cfg.Providers.SemanticScholar.APIKey)
	if cfg.Providers.SemanticScholar.Enabled {
		adapters = append(adapters, s2)
	}
	openAlex := sources.NewOpenAlexAdapter(httpClient, operatorEmail)
	if cfg.Providers.OpenAlex.Enabled {
		adapters = append(adapters, openAlex)
	}
	if cfg.Providers.PubMed.Enabled {
		adapters = append(adapters, sources.NewPubMedAdapter(httpClient, operatorEmail))
	}
	if cfg.Providers.CrossRef.Enabled {
		adapters = append(adapters, sources.NewCrossRefAdapter(httpClient, operatorEmail))
	}

	breakers := breaker.NewManager(logger)
	fanout := sources.NewFanout(adapters, breakers, logger)
	openAccess := sources.NewOpenAccessResolver(httpClient, operatorEmail)

	resultTTL, err := time.ParseDuration(cfg.Search.ResultCacheTTL)
	if err != nil {
		resultTTL = 24 * time.Hour
	}
	paperTTL, err := time.ParseDuration(cfg.Search.PaperCacheTTL)
	if err != nil {
		paperTTL = 168 * time.Hour
	}
	resultCache := cache.NewSearchCache(db.DB, logger, resultTTL, paperTTL)

	return &Pipeline{
		Fanout:     fanout,
		OpenAccess: openAccess,
		Cache:      resultCache,
		S2:         s2,
		OpenAlex:   openAlex,
	}, nil
}

// NewContainer creates a new service container. pipeline and annotations
// feed Search/Paper; repos/messaging still feed the analytics/health
// services carried over from the ambient stack.
func NewContainer(
	pipeline *Pipeline,
	annotations *repository.AnnotationStore,
	publisher *messaging.EventPublisher,
	repos *repository.Container,
	msgClient *messaging.Client,
	logger *slog.Logger,
) *Container {
	return &Container{
		Paper:     NewPaperService(pipeline.Cache, annotations, pipeline.S2, pipeline.OpenAlex, logger),
		Search:    NewSearchService(pipeline.Fanout, pipeline.OpenAccess, pipeline.Cache, annotations, publisher, logger),
		Analytics: NewAnalyticsService(repos.Search, msgClient, logger),
		Health:    NewHealthService(repos, msgClient, logger),
	}
}

// HealthCheck checks all services
func (c *Container) HealthCheck(ctx context.Context) map[string]error {
	return map[string]error{
		"paper":     c.checkServiceHealth(ctx, "paper"),
		"search":    c.checkServiceHealth(ctx, "search"),
		"analytics": c.checkServiceHealth(ctx, "analytics"),
		"health":    c.checkServiceHealth(ctx, "health"),
	}
}

func (c *Container) checkServiceHealth(ctx context.Context, serviceName string) error {
	// Basic service availability check
	switch serviceName {
	case "paper":
		return c.Paper.Health(ctx)
	case "search":
		return c.Search.Health(ctx)
	case "analytics":
		return c.Analytics.Health(ctx)
	case "health":
		return c.Health.Health(ctx)
	default:
		return nil
	}
}

// Note: Service interfaces are defined in interfaces.go
