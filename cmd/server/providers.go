package main

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"scifind-backend/internal/api"
	"scifind-backend/internal/api/handlers"
	"scifind-backend/internal/config"
	"scifind-backend/internal/messaging"
	"scifind-backend/internal/messaging/embedded"
	"scifind-backend/internal/repository"
	"scifind-backend/internal/services"
)

// Application represents the complete application with all dependencies
type Application struct {
	Config          *config.Config
	Database        *repository.Database
	Messaging       *messaging.Client
	EmbeddedManager *embedded.Manager
	Services        *services.Container
	Handlers        *handlers.Container
	Router          *gin.Engine
	Logger          *slog.Logger
}

// NewApplication creates the main application instance
func NewApplication(
	cfg *config.Config,
	db *repository.Database,
	messaging *messaging.Client,
	embeddedManager *embedded.Manager,
	services *services.Container,
	handlers *handlers.Container,
	router *gin.Engine,
	logger *slog.Logger,
) *Application {
	return &Application{
		Config:          cfg,
		Database:        db,
		Messaging:       messaging,
		EmbeddedManager: embeddedManager,
		Services:        services,
		Handlers:        handlers,
		Router:          router,
		Logger:          logger,
	}
}

// Provider functions. wire.go's wireinject-tagged injectors build the same
// graph from these; wire_gen.go's real build calls them directly.

// ProvideLogger creates a structured logger instance
func ProvideLogger(cfg *config.Config) (*slog.Logger, error) {
	return config.NewLogger(cfg)
}

// ProvideDatabase creates a database instance
func ProvideDatabase(cfg *config.Config, logger *slog.Logger) (*repository.Database, error) {
	return repository.NewDatabase(cfg, logger)
}

// ProvideRepositories creates repository instances
func ProvideRepositories(db *repository.Database, logger *slog.Logger) *repository.Container {
	return repository.NewContainer(db.DB, logger)
}

// ProvideEmbeddedManager creates an embedded NATS manager
func ProvideEmbeddedManager(cfg *config.Config, logger *slog.Logger) (*embedded.Manager, error) {
	return embedded.NewManager(&cfg.NATS, logger)
}

// ProvideMessagingFromEmbedded provides the messaging client from the
// embedded NATS manager.
func ProvideMessagingFromEmbedded(embeddedManager *embedded.Manager) *messaging.Client {
	return embeddedManager.GetClient()
}

// ProvideEventPublisher wraps the messaging client for the publish-side of
// spec 9's event stream (paper.indexed, search.requested, etc).
func ProvideEventPublisher(client *messaging.Client, logger *slog.Logger) *messaging.EventPublisher {
	return messaging.NewEventPublisher(client, logger)
}

// ProvidePipeline builds the shared source-adapter/fan-out/cache pipeline
// that both the search and paper services run against (spec 4/5/9).
func ProvidePipeline(cfg *config.Config, db *repository.Database, logger *slog.Logger) (*services.Pipeline, error) {
	return services.NewPipeline(cfg, db, logger)
}

// ProvideServices creates service instances
func ProvideServices(
	pipeline *services.Pipeline,
	repos *repository.Container,
	publisher *messaging.EventPublisher,
	client *messaging.Client,
	logger *slog.Logger,
) *services.Container {
	return services.NewContainer(pipeline, repos.Annotations, publisher, repos, client, logger)
}

// ProvideHandlers creates HTTP handler instances
func ProvideHandlers(svc *services.Container, logger *slog.Logger) *handlers.Container {
	return handlers.NewContainer(svc, logger)
}

// ProvideConcreteHealthHandler creates a concrete health handler
func ProvideConcreteHealthHandler(svc *services.Container, logger *slog.Logger) *handlers.HealthHandler {
	return handlers.NewHealthHandler(svc.Health, logger)
}

// ProvideRouter creates the HTTP router
func ProvideRouter(
	svc *services.Container,
	healthHandler *handlers.HealthHandler,
	logger *slog.Logger,
) *gin.Engine {
	return api.NewRouter(
		svc.Search,
		svc.Paper,
		healthHandler,
		logger,
	)
}

// ProvideDevelopmentConfig creates a development configuration
func ProvideDevelopmentConfig() *config.Config {
	cfg, err := config.LoadConfig()
	if err != nil {
		// Fallback to development defaults
		cfg = &config.Config{}
		cfg.Server.Mode = "debug"
		cfg.Server.Port = 8080
		cfg.Database.Type = "sqlite"
		cfg.Database.SQLite.Path = "./dev-scifind.db"
		cfg.Database.SQLite.AutoMigrate = true
		cfg.NATS.URL = "nats://localhost:4222"
		cfg.NATS.Embedded.Enabled = true
		cfg.Logging.Level = "debug"
		cfg.Logging.Format = "text"
	}
	return cfg
}

// ProvideTestConfig creates a test configuration
func ProvideTestConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Server.Mode = "test"
	cfg.Server.Port = 0 // Random port for testing
	cfg.Database.Type = "sqlite"
	cfg.Database.SQLite.Path = ":memory:"
	cfg.Database.SQLite.AutoMigrate = true
	cfg.Logging.Level = "error"
	cfg.Logging.Format = "text"
	return cfg
}
