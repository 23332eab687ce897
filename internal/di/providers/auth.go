package providers

import (
	"encoding/hex"
	"fmt"

	"github.com/samber/do/v2"

	"github.com/basegroupapp/basegroup-server/internal/auth"
	"github.com/basegroupapp/basegroup-server/internal/config"
	"github.com/basegroupapp/basegroup-server/internal/logger"
)

// AuthKey is the PASETO symmetric key loaded from disk.
type AuthKey []byte

// ProvideAuthKey loads or generates the token signing key and stores it
// on the config for downstream consumers.
func ProvideAuthKey(i do.Injector) (AuthKey, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	key, err := auth.LoadOrGenerateKey(cfg.Data.BasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load auth key: %w", err)
	}
	cfg.Auth.AccessTokenKey = key

	log.Debug("Auth key ready", "path", cfg.Data.BasePath)
	return AuthKey(key), nil
}

// ProvideTokenService creates the PASETO token service.
func ProvideTokenService(i do.Injector) (*auth.TokenService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	key := do.MustInvoke[AuthKey](i)

	tokens, err := auth.NewTokenService(
		hex.EncodeToString(key),
		cfg.Auth.AccessTokenDuration,
		cfg.Auth.RefreshTokenDuration,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create token service: %w", err)
	}
	return tokens, nil
}
