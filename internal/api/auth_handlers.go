package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/basegroupapp/basegroup-server/internal/service"
)

func (s *Server) registerAuthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "setup",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/setup",
		Summary:     "Initial server setup",
		Description: "Sets the gate password. Can only be called once.",
		Tags:        []string{"Authentication"},
	}, s.handleSetup)

	huma.Register(s.api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/login",
		Summary:     "Login",
		Description: "Verifies the gate password and returns access and refresh tokens",
		Tags:        []string{"Authentication"},
	}, s.handleLogin)

	huma.Register(s.api, huma.Operation{
		OperationID: "refresh",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/refresh",
		Summary:     "Refresh tokens",
		Description: "Exchanges a refresh token for new tokens",
		Tags:        []string{"Authentication"},
	}, s.handleRefresh)

	huma.Register(s.api, huma.Operation{
		OperationID: "logout",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/logout",
		Summary:     "Logout",
		Description: "Revokes the session and discards its dataset",
		Tags:        []string{"Authentication"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleLogout)
}

// === DTOs ===

// SetupRequest is the request body for initial server setup.
type SetupRequest struct {
	Password string `json:"password" validate:"required,min=8,max=128" doc:"Gate password"`
}

// SetupInput wraps the setup request for Huma.
type SetupInput struct {
	Body SetupRequest
}

// LoginRequest is the request body for login.
type LoginRequest struct {
	Password string `json:"password" validate:"required,max=1024" doc:"Gate password"`
}

// LoginInput wraps the login request with headers for Huma.
type LoginInput struct {
	Body          LoginRequest
	XForwardedFor string `header:"X-Forwarded-For"`
	XRealIP       string `header:"X-Real-IP"`
	UserAgent     string `header:"User-Agent"`
}

// RefreshRequest is the request body for token refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required" doc:"Refresh token"`
}

// RefreshInput wraps the refresh request with headers for Huma.
type RefreshInput struct {
	Body          RefreshRequest
	XForwardedFor string `header:"X-Forwarded-For"`
	XRealIP       string `header:"X-Real-IP"`
	UserAgent     string `header:"User-Agent"`
}

// LogoutInput wraps the logout request for Huma.
type LogoutInput struct {
	Authorization string `header:"Authorization"`
}

// AuthResponse contains authentication tokens.
type AuthResponse struct {
	SessionID    string `json:"session_id" doc:"Session identifier"`
	AccessToken  string `json:"access_token" doc:"PASETO access token"`
	RefreshToken string `json:"refresh_token" doc:"Refresh token"`
	TokenType    string `json:"token_type" doc:"Token type (Bearer)"`
	ExpiresIn    int64  `json:"expires_in" doc:"Access token expiry in seconds"`
}

// AuthOutput wraps the auth response for Huma.
type AuthOutput struct {
	Body AuthResponse
}

// MessageResponse contains a simple message.
type MessageResponse struct {
	Message string `json:"message" doc:"Success message"`
}

// MessageOutput wraps the message response for Huma.
type MessageOutput struct {
	Body MessageResponse
}

// === Handlers ===

func (s *Server) handleSetup(ctx context.Context, input *SetupInput) (*MessageOutput, error) {
	if err := s.services.Auth.Setup(ctx, service.SetupRequest{
		Password: input.Body.Password,
	}); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Instance configured"}}, nil
}

func (s *Server) handleLogin(ctx context.Context, input *LoginInput) (*AuthOutput, error) {
	pair, err := s.services.Auth.Login(ctx, service.LoginRequest{
		Password:  input.Body.Password,
		IPAddress: extractIP(input.XForwardedFor, input.XRealIP),
		UserAgent: input.UserAgent,
	})
	if err != nil {
		return nil, err
	}

	return &AuthOutput{Body: mapTokenPair(pair)}, nil
}

func (s *Server) handleRefresh(ctx context.Context, input *RefreshInput) (*AuthOutput, error) {
	pair, err := s.services.Auth.RefreshTokens(ctx, service.RefreshRequest{
		RefreshToken: input.Body.RefreshToken,
		IPAddress:    extractIP(input.XForwardedFor, input.XRealIP),
		UserAgent:    input.UserAgent,
	})
	if err != nil {
		return nil, err
	}

	return &AuthOutput{Body: mapTokenPair(pair)}, nil
}

func (s *Server) handleLogout(ctx context.Context, input *LogoutInput) (*MessageOutput, error) {
	sessionID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	if err := s.services.Auth.Logout(ctx, sessionID); err != nil {
		return nil, err
	}
	s.services.Dataset.DropState(sessionID)

	return &MessageOutput{Body: MessageResponse{Message: "Logged out successfully"}}, nil
}

// === Helpers ===

func mapTokenPair(pair *service.TokenPair) AuthResponse {
	return AuthResponse{
		SessionID:    pair.SessionID,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    pair.ExpiresIn,
	}
}

func extractIP(xForwardedFor, xRealIP string) string {
	if xForwardedFor != "" {
		for i := 0; i < len(xForwardedFor); i++ {
			if xForwardedFor[i] == ',' {
				return xForwardedFor[:i]
			}
		}
		return xForwardedFor
	}
	return xRealIP
}
