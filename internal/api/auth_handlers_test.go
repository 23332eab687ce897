package api

import (
	"encoding/json/v2"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup_Once(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/auth/setup", map[string]any{
		"password": "TestPassword123!",
	})
	assert.Equal(t, http.StatusOK, resp.Code)

	// Second setup is rejected.
	resp = ts.api.Post("/api/v1/auth/setup", map[string]any{
		"password": "AnotherPassword1!",
	})
	assert.Equal(t, http.StatusConflict, resp.Code)

	var envelope testEnvelope[struct{}]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.False(t, envelope.Success)
}

func TestSetup_ShortPasswordRejected(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/auth/setup", map[string]any{
		"password": "short",
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestLogin_WrongPassword(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/auth/setup", map[string]any{
		"password": "TestPassword123!",
	})
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Post("/api/v1/auth/login", map[string]any{
		"password": "WrongPassword123!",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestLogin_ReturnsTokenPair(t *testing.T) {
	ts := setupTestServer(t)

	token, sessionID := ts.setupAndLogin(t)
	assert.NotEmpty(t, token)
	assert.NotEmpty(t, sessionID)
}

func TestRefresh_RotatesTokens(t *testing.T) {
	ts := setupTestServer(t)
	ts.setupAndLogin(t)

	resp := ts.api.Post("/api/v1/auth/login", map[string]any{
		"password": "TestPassword123!",
	})
	require.Equal(t, http.StatusOK, resp.Code)

	var login testEnvelope[AuthResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &login))

	resp = ts.api.Post("/api/v1/auth/refresh", map[string]any{
		"refresh_token": login.Data.RefreshToken,
	})
	require.Equal(t, http.StatusOK, resp.Code)

	var refreshed testEnvelope[AuthResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &refreshed))
	assert.Equal(t, login.Data.SessionID, refreshed.Data.SessionID)
	assert.NotEqual(t, login.Data.RefreshToken, refreshed.Data.RefreshToken)

	// Old refresh token is dead.
	resp = ts.api.Post("/api/v1/auth/refresh", map[string]any{
		"refresh_token": login.Data.RefreshToken,
	})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestLogout_RevokesSession(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.setupAndLogin(t)

	resp := ts.api.Post("/api/v1/auth/logout", "Authorization: Bearer "+token, map[string]any{})
	assert.Equal(t, http.StatusOK, resp.Code)

	// Token no longer grants access.
	resp = ts.api.Get("/api/v1/datasets/current", "Authorization: Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestGetInstance_ReportsSetupRequired(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/v1/instance")
	require.Equal(t, http.StatusOK, resp.Code)

	var envelope testEnvelope[InstanceResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.True(t, envelope.Data.SetupRequired)

	ts.setupAndLogin(t)

	resp = ts.api.Get("/api/v1/instance")
	require.Equal(t, http.StatusOK, resp.Code)
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.False(t, envelope.Data.SetupRequired)
}

func TestHealthCheck(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/health")
	require.Equal(t, http.StatusOK, resp.Code)

	var envelope testEnvelope[HealthResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Equal(t, "healthy", envelope.Data.Status)
	assert.Contains(t, envelope.Data.Components, "database")
	assert.Contains(t, envelope.Data.Components, "data_dir")
}

func TestProtectedRoute_RequiresToken(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/v1/groups")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = ts.api.Get("/api/v1/groups", "Authorization: Bearer not-a-token")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}
