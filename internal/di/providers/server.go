package providers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/basegroupapp/basegroup-server/internal/api"
	"github.com/basegroupapp/basegroup-server/internal/config"
	"github.com/basegroupapp/basegroup-server/internal/service"
)

// HTTPServerHandle wraps the HTTP server to implement do.Shutdowner.
type HTTPServerHandle struct {
	Server    *http.Server
	apiServer *api.Server
	logger    *slog.Logger
}

// Shutdown gracefully stops the HTTP server.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	h.logger.Info("Shutting down HTTP server")
	err := h.Server.Shutdown(ctx)
	h.apiServer.Close()
	return err
}

// ProvideHTTPServer assembles the API server and starts listening.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*slog.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)

	instanceService := do.MustInvoke[*service.InstanceService](i)
	authService := do.MustInvoke[*service.AuthService](i)
	fileService := do.MustInvoke[*service.FileService](i)
	datasetHandle := do.MustInvoke[*DatasetServiceHandle](i)

	instance, err := instanceService.InitializeInstance(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize instance: %w", err)
	}
	log.Info("Instance ready",
		"id", instance.ID,
		"name", instance.Name,
		"configured", instance.Configured,
	)

	services := &api.Services{
		Instance: instanceService,
		Auth:     authService,
		Dataset:  datasetHandle.Service,
		Files:    fileService,
	}

	apiServer := api.NewServer(storeHandle.Store, services, cfg.Data.MaxUploadBytes, log)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      apiServer,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server failed", "error", err)
		}
	}()

	return &HTTPServerHandle{
		Server:    server,
		apiServer: apiServer,
		logger:    log,
	}, nil
}
