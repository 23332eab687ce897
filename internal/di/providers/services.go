package providers

import (
	"log/slog"

	"github.com/samber/do/v2"

	"github.com/basegroupapp/basegroup-server/internal/auth"
	"github.com/basegroupapp/basegroup-server/internal/config"
	"github.com/basegroupapp/basegroup-server/internal/service"
)

// DatasetServiceHandle wraps the dataset service to implement do.Shutdowner;
// shutdown closes all per-session search indexes.
type DatasetServiceHandle struct {
	Service *service.DatasetService
}

// Shutdown releases all in-memory session state.
func (h *DatasetServiceHandle) Shutdown() error {
	h.Service.Close()
	return nil
}

// ProvideInstanceService creates the instance service.
func ProvideInstanceService(i do.Injector) (*service.InstanceService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*slog.Logger](i)

	return service.NewInstanceService(storeHandle.Store, cfg, log), nil
}

// ProvideAuthService creates the authentication service.
func ProvideAuthService(i do.Injector) (*service.AuthService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokens := do.MustInvoke[*auth.TokenService](i)
	instance := do.MustInvoke[*service.InstanceService](i)
	log := do.MustInvoke[*slog.Logger](i)

	return service.NewAuthService(storeHandle.Store, tokens, instance, log), nil
}

// ProvideFileService creates the data directory file service.
func ProvideFileService(i do.Injector) (*service.FileService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*slog.Logger](i)

	return service.NewFileService(cfg.Data.DataDir, log), nil
}

// ProvideDatasetService creates the dataset service.
func ProvideDatasetService(i do.Injector) (*DatasetServiceHandle, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	files := do.MustInvoke[*service.FileService](i)
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*slog.Logger](i)

	svc := service.NewDatasetService(storeHandle.Store, files, cfg.Grouping.Marker, log)
	return &DatasetServiceHandle{Service: svc}, nil
}
