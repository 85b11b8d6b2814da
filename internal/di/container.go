// Package di provides dependency injection configuration for the Pintree admin server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/pintree/pintree-admin/internal/config"
	"github.com/pintree/pintree-admin/internal/di/providers"
	"github.com/pintree/pintree-admin/internal/logger"
	"github.com/pintree/pintree-admin/internal/persistence"
	"github.com/pintree/pintree-admin/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()
	do.Provide(injector, providers.ProvideConfig)
	Register(injector)
	return injector
}

// Register adds every provider except the configuration, which the caller
// supplies (tests use do.ProvideValue).
func Register(injector do.Injector) {
	// Core infrastructure
	do.Provide(injector, providers.ProvideLogger)

	// Database layer
	do.Provide(injector, providers.ProvideSSEManager)
	do.Provide(injector, providers.ProvideStore)

	// Business services
	do.Provide(injector, providers.ProvideCollectionImportService)
	do.Provide(injector, providers.ProvidePersistenceClient)
	do.Provide(injector, providers.ProvideImportService)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)
}

// Bootstrap initializes all services and starts the HTTP server.
// Configuration and database errors are returned rather than panicking.
func Bootstrap(injector do.Injector) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*providers.SSEManagerHandle](injector)
	if _, err := do.Invoke[*providers.StoreHandle](injector); err != nil {
		return err
	}

	// Business services
	_ = do.MustInvoke[*service.CollectionImportService](injector)
	_ = do.MustInvoke[persistence.Client](injector)
	_ = do.MustInvoke[*service.ImportService](injector)

	// Server
	_, err := do.Invoke[*providers.HTTPServerHandle](injector)
	return err
}
