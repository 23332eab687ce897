package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/basegroupapp/basegroup-server/internal/auth"
	"github.com/basegroupapp/basegroup-server/internal/domain"
	domainerrors "github.com/basegroupapp/basegroup-server/internal/errors"
	"github.com/basegroupapp/basegroup-server/internal/id"
	"github.com/basegroupapp/basegroup-server/internal/store"
)

// SetupRequest sets the gate password on a fresh instance.
type SetupRequest struct {
	Password string `json:"password" validate:"required,min=8,max=128"`
}

// LoginRequest opens a new session with the gate password.
type LoginRequest struct {
	Password  string `json:"password" validate:"required"`
	IPAddress string `json:"-"`
	UserAgent string `json:"-"`
}

// RefreshRequest rotates a session's token pair.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
	IPAddress    string `json:"-"`
	UserAgent    string `json:"-"`
}

// TokenPair is issued on login and refresh.
type TokenPair struct {
	SessionID    string `json:"session_id"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// AuthService handles the gate password, sessions, and token issuance.
type AuthService struct {
	store    *store.Store
	tokens   *auth.TokenService
	instance *InstanceService
	logger   *slog.Logger
}

// NewAuthService creates a new auth service.
func NewAuthService(st *store.Store, tokens *auth.TokenService, instance *InstanceService, logger *slog.Logger) *AuthService {
	return &AuthService{store: st, tokens: tokens, instance: instance, logger: logger}
}

// Setup sets the gate password. It fails once the instance is configured;
// after that the password can only be changed through configuration.
func (s *AuthService) Setup(ctx context.Context, req SetupRequest) error {
	if err := validate.Validate(req); err != nil {
		return err
	}

	required, err := s.instance.IsSetupRequired(ctx)
	if err != nil {
		return fmt.Errorf("check setup state: %w", err)
	}
	if !required {
		return domainerrors.AlreadyConfigured("instance is already configured")
	}

	if err := s.instance.SetPassword(ctx, req.Password); err != nil {
		return fmt.Errorf("set password: %w", err)
	}

	s.logger.Info("Instance configured")
	return nil
}

// Login verifies the gate password and opens a session.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*TokenPair, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	admin, err := s.store.GetAdmin(ctx)
	if err != nil {
		if errors.Is(err, store.ErrAdminNotFound) {
			return nil, domainerrors.InvalidCredentials("instance is not configured yet")
		}
		return nil, fmt.Errorf("get admin: %w", err)
	}

	ok, err := auth.VerifyPassword(admin.PasswordHash, req.Password)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		s.logger.Warn("Failed login attempt", "ip", req.IPAddress)
		return nil, domainerrors.InvalidCredentials("invalid password")
	}

	sessionID, err := id.Generate("sess")
	if err != nil {
		return nil, fmt.Errorf("generate session id: %w", err)
	}

	refreshToken, err := s.tokens.GenerateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	now := time.Now()
	session := &domain.Session{
		ID:               sessionID,
		RefreshTokenHash: auth.HashRefreshToken(refreshToken),
		IPAddress:        req.IPAddress,
		UserAgent:        req.UserAgent,
		CreatedAt:        now,
		LastSeenAt:       now,
		ExpiresAt:        now.Add(s.tokens.RefreshTokenDuration()),
	}
	if err := s.store.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	accessToken, err := s.tokens.GenerateAccessToken(sessionID)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	s.logger.Info("Session opened", "session_id", sessionID, "ip", req.IPAddress)

	return &TokenPair{
		SessionID:    sessionID,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.tokens.AccessTokenDuration().Seconds()),
	}, nil
}

// RefreshTokens rotates a session's refresh token and issues a new pair.
func (s *AuthService) RefreshTokens(ctx context.Context, req RefreshRequest) (*TokenPair, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	session, err := s.store.GetSessionByRefreshToken(ctx, auth.HashRefreshToken(req.RefreshToken))
	if err != nil {
		if errors.Is(err, store.ErrSessionNotFound) || errors.Is(err, store.ErrSessionExpired) {
			return nil, domainerrors.TokenExpired("invalid or expired refresh token")
		}
		return nil, fmt.Errorf("lookup session: %w", err)
	}

	refreshToken, err := s.tokens.GenerateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	session.RefreshTokenHash = auth.HashRefreshToken(refreshToken)
	session.IPAddress = req.IPAddress
	session.UserAgent = req.UserAgent
	session.Touch()
	session.ExpiresAt = time.Now().Add(s.tokens.RefreshTokenDuration())

	if err := s.store.UpdateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("rotate session: %w", err)
	}

	accessToken, err := s.tokens.GenerateAccessToken(session.ID)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	return &TokenPair{
		SessionID:    session.ID,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.tokens.AccessTokenDuration().Seconds()),
	}, nil
}

// Logout closes a session and drops its dataset snapshot.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if err := s.store.DeleteSession(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	s.logger.Info("Session closed", "session_id", sessionID)
	return nil
}

// VerifyAccessToken validates an access token and confirms its session is
// still live. Returns the session ID.
func (s *AuthService) VerifyAccessToken(ctx context.Context, token string) (string, error) {
	claims, err := s.tokens.VerifyAccessToken(token)
	if err != nil {
		return "", domainerrors.Unauthorized("invalid access token")
	}

	if _, err := s.store.GetSession(ctx, claims.SessionID); err != nil {
		return "", domainerrors.Unauthorized("session is no longer valid")
	}

	return claims.SessionID, nil
}

// CleanupExpiredSessions removes expired sessions. Called periodically.
func (s *AuthService) CleanupExpiredSessions(ctx context.Context) (int, error) {
	return s.store.DeleteExpiredSessions(ctx)
}
