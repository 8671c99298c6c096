package auth

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"aidanwoods.dev/go-paseto"

	"github.com/recipebook/recipebook-server/internal/domain"
	"github.com/recipebook/recipebook-server/internal/id"
)

const (
	tokenIssuer   = "recipebook-server"
	tokenAudience = "recipebook-client"
)

// farFuture stands in for "no expiry"; paseto's NotExpired rule requires an exp claim.
var farFuture = time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)

// ErrInvalidToken covers every reason a presented token cannot be used.
var ErrInvalidToken = errors.New("invalid token")

// TokenService issues and decrypts PASETO v4.local access tokens.
type TokenService struct {
	key paseto.V4SymmetricKey
	ttl time.Duration
	now func() time.Time
}

// NewTokenService builds a service from a hex-encoded 32 byte key.
// A zero ttl issues tokens that only die when replaced or revoked.
func NewTokenService(keyHex string, ttl time.Duration) (*TokenService, error) {
	if len(keyHex) != keyHexLength {
		return nil, fmt.Errorf("PASETO v4 key must be exactly %d hex characters, got %d", keyHexLength, len(keyHex))
	}
	raw, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, fmt.Errorf("invalid hex string for PASETO key: %w", err)
	}
	return NewTokenServiceFromKey(raw, ttl)
}

// NewTokenServiceFromKey builds a service from raw key bytes, as returned by LoadOrGenerateKey.
func NewTokenServiceFromKey(raw []byte, ttl time.Duration) (*TokenService, error) {
	key, err := paseto.V4SymmetricKeyFromBytes(raw)
	if err != nil {
		return nil, fmt.Errorf("create PASETO symmetric key: %w", err)
	}
	return &TokenService{key: key, ttl: ttl, now: time.Now}, nil
}

// Issue encrypts a fresh token for user. The returned record is what the
// store keeps to recognise the token as the user's live one.
func (s *TokenService) Issue(user *domain.User) (string, *domain.AuthToken, error) {
	now := s.now()

	tokenID, err := id.Generate(id.PrefixToken)
	if err != nil {
		return "", nil, fmt.Errorf("generate token ID: %w", err)
	}

	record := &domain.AuthToken{UserID: user.ID, TokenID: tokenID, CreatedAt: now}
	exp := farFuture
	if s.ttl > 0 {
		record.ExpiresAt = now.Add(s.ttl)
		exp = record.ExpiresAt
	}

	token := paseto.NewToken()
	token.SetIssuer(tokenIssuer)
	token.SetSubject(user.ID)
	token.SetAudience(tokenAudience)
	token.SetIssuedAt(now)
	token.SetNotBefore(now)
	token.SetExpiration(exp)
	token.SetJti(tokenID)
	//nolint:errcheck // Set only fails on values that cannot be marshalled
	_ = token.Set("user_id", user.ID)

	return token.V4Encrypt(s.key, nil), record, nil
}

// Verify decrypts a token and checks its standard claims.
// It does not consult the store; revocation is the caller's job.
func (s *TokenService) Verify(tokenString string) (*Claims, error) {
	parser := paseto.NewParser()
	parser.AddRule(paseto.ForAudience(tokenAudience))
	parser.AddRule(paseto.IssuedBy(tokenIssuer))
	parser.AddRule(paseto.NotExpired())
	parser.AddRule(paseto.ValidAt(s.now()))

	token, err := parser.ParseV4Local(s.key, tokenString, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	var claims Claims
	if err := json.Unmarshal(token.ClaimsJSON(), &claims); err != nil {
		return nil, fmt.Errorf("%w: parse claims: %v", ErrInvalidToken, err)
	}
	if claims.UserID == "" || claims.TokenID == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return &claims, nil
}

// TTL returns the configured token lifetime. Zero means no expiry.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}
