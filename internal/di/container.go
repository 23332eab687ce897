// Package di provides dependency injection configuration for the Basegroup server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/basegroupapp/basegroup-server/internal/auth"
	"github.com/basegroupapp/basegroup-server/internal/config"
	"github.com/basegroupapp/basegroup-server/internal/di/providers"
	"github.com/basegroupapp/basegroup-server/internal/logger"
	"github.com/basegroupapp/basegroup-server/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideSlogLogger)
	do.Provide(injector, providers.ProvideAuthKey)

	// Database layer
	do.Provide(injector, providers.ProvideStore)

	// Auth layer
	do.Provide(injector, providers.ProvideTokenService)

	// Business services
	do.Provide(injector, providers.ProvideInstanceService)
	do.Provide(injector, providers.ProvideAuthService)
	do.Provide(injector, providers.ProvideFileService)
	do.Provide(injector, providers.ProvideDatasetService)

	// Workers
	do.Provide(injector, providers.ProvideDataDirWatcher)
	do.Provide(injector, providers.ProvideSessionCleanupJob)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and returns once the server is
// running. This triggers lazy initialization of all core services.
func Bootstrap(injector *do.RootScope) error {
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[providers.AuthKey](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*auth.TokenService](injector)

	// Business services
	_ = do.MustInvoke[*service.InstanceService](injector)
	_ = do.MustInvoke[*service.AuthService](injector)
	_ = do.MustInvoke[*service.FileService](injector)
	_ = do.MustInvoke[*providers.DatasetServiceHandle](injector)

	// Workers
	_ = do.MustInvoke[*providers.DataDirWatcherHandle](injector)
	_ = do.MustInvoke[*providers.SessionCleanupJob](injector)

	// Server
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	return nil
}
