package api

import (
	"context"
	"encoding/hex"
	"encoding/json/v2"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/basegroupapp/basegroup-server/internal/auth"
	"github.com/basegroupapp/basegroup-server/internal/basegroup"
	"github.com/basegroupapp/basegroup-server/internal/config"
	"github.com/basegroupapp/basegroup-server/internal/service"
	"github.com/basegroupapp/basegroup-server/internal/store"
)

// testEnvelope mirrors the response envelope for decoding in tests.
type testEnvelope[T any] struct {
	V       int    `json:"v"`
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// testServer wraps the API server for handler testing.
type testServer struct {
	*Server
	api     humatest.TestAPI
	dataDir string
}

// setupTestServer creates a fully wired server over temp storage.
func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	tmpDir := t.TempDir()
	dataDir := filepath.Join(tmpDir, "data")
	require.NoError(t, os.MkdirAll(dataDir, 0o700))

	st, err := store.New(filepath.Join(tmpDir, "db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	cfg := &config.Config{
		Server: config.ServerConfig{Name: "Test Server"},
		Auth: config.AuthConfig{
			AccessTokenDuration:  15 * time.Minute,
			RefreshTokenDuration: 30 * 24 * time.Hour,
		},
	}

	authKey, err := auth.LoadOrGenerateKey(tmpDir)
	require.NoError(t, err)

	tokenService, err := auth.NewTokenService(
		hex.EncodeToString(authKey),
		cfg.Auth.AccessTokenDuration,
		cfg.Auth.RefreshTokenDuration,
	)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	instanceService := service.NewInstanceService(st, cfg, logger)
	authService := service.NewAuthService(st, tokenService, instanceService, logger)
	fileService := service.NewFileService(dataDir, logger)
	datasetService := service.NewDatasetService(st, fileService, basegroup.DefaultMarker, logger)
	t.Cleanup(datasetService.Close)

	services := &Services{
		Instance: instanceService,
		Auth:     authService,
		Dataset:  datasetService,
		Files:    fileService,
	}

	router := chi.NewRouter()
	router.Use(authMiddleware(services.Auth))

	humaConfig := huma.DefaultConfig("Basegroup API Test", "1.0.0")
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)

	api := humachi.New(router, humaConfig)
	RegisterErrorHandler()

	s := &Server{
		store:           st,
		services:        services,
		router:          router,
		api:             api,
		logger:          logger,
		authRateLimiter: NewRateLimiter(100, time.Minute, 50),
		maxUploadBytes:  32 << 20,
	}
	t.Cleanup(s.authRateLimiter.Stop)

	s.registerHealthRoutes()
	s.registerInstanceRoutes()
	s.registerAuthRoutes()
	s.registerDatasetRoutes()
	s.registerQueryRoutes()

	_, err = services.Instance.InitializeInstance(context.Background())
	require.NoError(t, err)

	return &testServer{
		Server:  s,
		api:     humatest.Wrap(t, api),
		dataDir: dataDir,
	}
}

// setupAndLogin configures the gate password and opens a session.
func (ts *testServer) setupAndLogin(t *testing.T) (token string, sessionID string) {
	t.Helper()

	resp := ts.api.Post("/api/v1/auth/setup", map[string]any{
		"password": "TestPassword123!",
	})
	require.Equal(t, http.StatusOK, resp.Code, "Setup failed: %s", resp.Body.String())

	resp = ts.api.Post("/api/v1/auth/login", map[string]any{
		"password": "TestPassword123!",
	})
	require.Equal(t, http.StatusOK, resp.Code, "Login failed: %s", resp.Body.String())

	var envelope testEnvelope[AuthResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))

	return envelope.Data.AccessToken, envelope.Data.SessionID
}
