//go:build wireinject
// +build wireinject

package main

import (
	"context"

	"github.com/google/wire"

	"scifind-backend/internal/config"
)

// Provider sets for Wire dependency injection. The provider functions
// themselves live in providers.go (untagged) so wire_gen.go's hand-built
// graph and this file's wire.Build injectors both compile against the
// same definitions.
var ConfigProviderSet = wire.NewSet(
	config.LoadConfig,
	ProvideLogger,
)

var DatabaseProviderSet = wire.NewSet(
	ProvideDatabase,
	ProvideRepositories,
)

var MessagingProviderSet = wire.NewSet(
	ProvideEmbeddedManager,
	ProvideMessagingFromEmbedded,
	ProvideEventPublisher,
)

var PipelineProviderSet = wire.NewSet(
	ProvidePipeline,
)

var ServicesProviderSet = wire.NewSet(
	ProvideServices,
)

var HandlersProviderSet = wire.NewSet(
	ProvideHandlers,
)

var APIProviderSet = wire.NewSet(
	ProvideConcreteHealthHandler,
	ProvideRouter,
)

// ApplicationProviderSet combines all provider sets
var ApplicationProviderSet = wire.NewSet(
	ConfigProviderSet,
	DatabaseProviderSet,
	MessagingProviderSet,
	PipelineProviderSet,
	ServicesProviderSet,
	HandlersProviderSet,
	APIProviderSet,
	NewApplication,
)

// InitializeApplication creates a fully configured application using Wire
func InitializeApplication(ctx context.Context) (*Application, func(), error) {
	wire.Build(ApplicationProviderSet)
	return &Application{}, func() {}, nil
}

// InitializeDevelopmentApplication creates an application instance for development
func InitializeDevelopmentApplication(ctx context.Context) (*Application, func(), error) {
	wire.Build(
		ProvideDevelopmentConfig,
		ProvideLogger,
		ProvideDatabase,
		ProvideEmbeddedManager,
		ProvideMessagingFromEmbedded,
		ProvideEventPublisher,
		ProvideRepositories,
		ProvidePipeline,
		ProvideServices,
		ProvideHandlers,
		ProvideConcreteHealthHandler,
		ProvideRouter,
		NewApplication,
	)
	return &Application{}, func() {}, nil
}

// InitializeTestApplication creates an application instance for testing
func InitializeTestApplication(ctx context.Context) (*Application, func(), error) {
	wire.Build(
		ProvideTestConfig,
		ProvideLogger,
		ProvideDatabase,
		ProvideEmbeddedManager,
		ProvideMessagingFromEmbedded,
		ProvideEventPublisher,
		ProvideRepositories,
		ProvidePipeline,
		ProvideServices,
		ProvideHandlers,
		ProvideConcreteHealthHandler,
		ProvideRouter,
		NewApplication,
	)
	return &Application{}, func() {}, nil
}
