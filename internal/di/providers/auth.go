package providers

import (
	"github.com/samber/do/v2"

	"github.com/recipebook/recipebook-server/internal/auth"
	"github.com/recipebook/recipebook-server/internal/config"
	"github.com/recipebook/recipebook-server/internal/logger"
)

// AuthKey wraps the token signing key bytes.
type AuthKey []byte

// ProvideAuthKey loads or generates the token key in the data directory.
func ProvideAuthKey(i do.Injector) (AuthKey, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	key, err := auth.LoadOrGenerateKey(cfg.Data.BasePath)
	if err != nil {
		return nil, err
	}

	log.Info("Authentication key loaded", "path", cfg.Data.BasePath)
	return AuthKey(key), nil
}

// ProvideTokenService provides the PASETO token service.
func ProvideTokenService(i do.Injector) (*auth.TokenService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	var (
		tokens *auth.TokenService
		err    error
	)
	if cfg.Auth.TokenKey != "" {
		tokens, err = auth.NewTokenService(cfg.Auth.TokenKey, cfg.Auth.TokenTTL)
	} else {
		tokens, err = auth.NewTokenServiceFromKey(do.MustInvoke[AuthKey](i), cfg.Auth.TokenTTL)
	}
	if err != nil {
		return nil, err
	}

	log.Info("Token service ready", "token_ttl", tokens.TTL())
	return tokens, nil
}

// ProvidePasswordHasher provides the argon2id password hasher.
func ProvidePasswordHasher(i do.Injector) (*auth.PasswordHasher, error) {
	return auth.NewPasswordHasher(auth.DefaultHashParams), nil
}
