package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/recipebook/recipebook-server/internal/auth"
	"github.com/recipebook/recipebook-server/internal/domain"
	domainerrors "github.com/recipebook/recipebook-server/internal/errors"
	"github.com/recipebook/recipebook-server/internal/metrics"
	"github.com/recipebook/recipebook-server/internal/store"
)

// Token operations, used as metric labels.
const (
	tokenOpIssue   = "issue"
	tokenOpResolve = "resolve"
	tokenOpRevoke  = "revoke"
)

// CredentialService exchanges credentials for tokens and resolves tokens back
// to users. Each user holds at most one live token.
type CredentialService struct {
	store    store.Store
	identity *IdentityService
	tokens   *auth.TokenService
	metrics  *metrics.Metrics
	logger   *slog.Logger
	now      func() time.Time
}

// NewCredentialService creates a new credential service. m may be nil.
func NewCredentialService(
	store store.Store,
	identity *IdentityService,
	tokens *auth.TokenService,
	m *metrics.Metrics,
	logger *slog.Logger,
) *CredentialService {
	return &CredentialService{
		store:    store,
		identity: identity,
		tokens:   tokens,
		metrics:  m,
		logger:   orDiscard(logger),
		now:      time.Now,
	}
}

// TokenRequest carries the credentials exchanged for a token.
type TokenRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// IssueToken verifies the credentials and mints a token for the user.
// The new token replaces any token issued before.
func (s *CredentialService) IssueToken(ctx context.Context, req TokenRequest) (token string, err error) {
	defer func() { s.observe(tokenOpIssue, err) }()

	missing := map[string]string{}
	if strings.TrimSpace(req.Email) == "" {
		missing["email"] = "is required"
	}
	if req.Password == "" {
		missing["password"] = "is required"
	}
	if len(missing) > 0 {
		return "", domainerrors.ValidationWithDetails("validation failed", missing)
	}

	user, err := s.identity.VerifyCredentials(ctx, req.Email, req.Password)
	if err != nil {
		return "", err
	}

	token, record, err := s.tokens.Issue(user)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	if err := s.store.PutAuthToken(ctx, record); err != nil {
		return "", fmt.Errorf("store token: %w", err)
	}

	s.logger.Info("token issued", "user_id", user.ID)
	return token, nil
}

// ResolveToken returns the active user bound to token. Absent, malformed,
// superseded and expired tokens are all rejected as unauthenticated.
func (s *CredentialService) ResolveToken(ctx context.Context, token string) (user *domain.User, err error) {
	defer func() { s.observe(tokenOpResolve, err) }()

	if token == "" {
		return nil, domainerrors.Unauthorized("authentication credentials were not provided")
	}

	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, domainerrors.Unauthorized("invalid token")
	}

	record, err := s.store.GetAuthToken(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.Unauthorized("invalid token")
		}
		return nil, fmt.Errorf("get auth token: %w", err)
	}
	if record.TokenID != claims.TokenID || record.IsExpired(s.now()) {
		return nil, domainerrors.Unauthorized("invalid token")
	}

	user, err = s.store.GetUser(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.Unauthorized("invalid token")
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	if !user.IsActive {
		return nil, domainerrors.Unauthorized("user inactive or deleted")
	}
	return user, nil
}

// RevokeToken drops the user's live token, if any.
func (s *CredentialService) RevokeToken(ctx context.Context, userID string) (err error) {
	defer func() { s.observe(tokenOpRevoke, err) }()

	if err := s.store.DeleteAuthToken(ctx, userID); err != nil {
		return fmt.Errorf("delete auth token: %w", err)
	}
	s.logger.Info("token revoked", "user_id", userID)
	return nil
}

func (s *CredentialService) observe(op string, err error) {
	if s.metrics != nil {
		s.metrics.ObserveToken(op, err)
	}
}

// TokenFromHeader extracts the token from an Authorization header value.
// Both the "Bearer" and "Token" schemes are accepted.
func TokenFromHeader(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok {
		return ""
	}
	if !strings.EqualFold(scheme, "Bearer") && !strings.EqualFold(scheme, "Token") {
		return ""
	}
	return strings.TrimSpace(token)
}
