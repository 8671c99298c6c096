package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/recipebook/recipebook-server/internal/access"
	"github.com/recipebook/recipebook-server/internal/domain"
	domainerrors "github.com/recipebook/recipebook-server/internal/errors"
	"github.com/recipebook/recipebook-server/internal/store"
)

// AdminService is the user administration surface. Staff may list, create
// and edit profiles and activation; only admins change permission flags.
type AdminService struct {
	store       store.Store
	identity    *IdentityService
	credentials *CredentialService
	logger      *slog.Logger
}

// NewAdminService creates a new admin service.
func NewAdminService(
	store store.Store,
	identity *IdentityService,
	credentials *CredentialService,
	logger *slog.Logger,
) *AdminService {
	return &AdminService{
		store:       store,
		identity:    identity,
		credentials: credentials,
		logger:      orDiscard(logger),
	}
}

// PermissionUpdate holds the flag edits. Nil fields are left unchanged.
type PermissionUpdate struct {
	IsActive    *bool `json:"is_active,omitempty"`
	IsStaff     *bool `json:"is_staff,omitempty"`
	IsAdmin     *bool `json:"is_admin,omitempty"`
	IsSuperuser *bool `json:"is_superuser,omitempty"`
}

func (p PermissionUpdate) elevates() bool {
	return p.IsStaff != nil || p.IsAdmin != nil || p.IsSuperuser != nil
}

func (p PermissionUpdate) apply(u *domain.User) {
	if p.IsActive != nil {
		u.IsActive = *p.IsActive
	}
	if p.IsStaff != nil {
		u.IsStaff = *p.IsStaff
	}
	if p.IsAdmin != nil {
		u.IsAdmin = *p.IsAdmin
	}
	if p.IsSuperuser != nil {
		u.IsSuperuser = *p.IsSuperuser
	}
}

// AdminCreateUserRequest creates an account with optional flags.
type AdminCreateUserRequest struct {
	RegisterRequest
	PermissionUpdate
}

// AdminUpdateUserRequest edits another user's profile and flags.
type AdminUpdateUserRequest struct {
	ProfileUpdate
	PermissionUpdate
}

// ListUsers returns every user ordered by creation time.
func (s *AdminService) ListUsers(ctx context.Context, caller *domain.User) ([]*domain.User, error) {
	if err := s.requireStaff(caller); err != nil {
		return nil, err
	}
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// GetUser returns a single user.
func (s *AdminService) GetUser(ctx context.Context, caller *domain.User, userID string) (*domain.User, error) {
	if err := s.requireStaff(caller); err != nil {
		return nil, err
	}
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, translateStoreError(err, "user")
	}
	return u, nil
}

// CreateUser registers an account on behalf of someone else.
func (s *AdminService) CreateUser(ctx context.Context, caller *domain.User, req AdminCreateUserRequest) (*domain.User, error) {
	tier := access.TierOf(caller)
	if err := s.requireStaff(caller); err != nil {
		return nil, err
	}
	if req.elevates() && !access.CanElevate(tier) {
		return nil, domainerrors.Forbidden("admin access required to grant permissions")
	}

	user, err := s.identity.create(ctx, req.RegisterRequest, req.PermissionUpdate.apply)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user created by admin", "user_id", user.ID, "by", caller.ID)
	return user, nil
}

// UpdateUser edits a user. Deactivating a user revokes their token.
func (s *AdminService) UpdateUser(ctx context.Context, caller *domain.User, userID string, req AdminUpdateUserRequest) (*domain.User, error) {
	tier := access.TierOf(caller)
	if err := s.requireStaff(caller); err != nil {
		return nil, err
	}
	if req.elevates() && !access.CanElevate(tier) {
		return nil, domainerrors.Forbidden("admin access required to change permissions")
	}
	if req.IsActive != nil && !*req.IsActive && userID == caller.ID {
		return nil, domainerrors.Validation("you cannot deactivate your own account")
	}

	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, translateStoreError(err, "user")
	}
	if !access.CanManageUser(tier, user) {
		return nil, domainerrors.Forbidden("admin access required to edit an administrator")
	}
	wasActive := user.IsActive

	if err := s.identity.applyProfile(user, req.ProfileUpdate); err != nil {
		return nil, err
	}
	req.PermissionUpdate.apply(user)
	if err := s.identity.save(ctx, user); err != nil {
		return nil, err
	}

	if wasActive && !user.IsActive {
		if err := s.credentials.RevokeToken(ctx, user.ID); err != nil {
			return nil, err
		}
	}

	s.logger.Info("user updated by admin",
		"user_id", user.ID,
		"by", caller.ID,
		"active", user.IsActive,
		"staff", user.IsStaff,
		"admin", user.IsAdmin,
	)
	return user, nil
}

func (s *AdminService) requireStaff(caller *domain.User) error {
	return access.Require(access.TierOf(caller), access.TierStaff)
}
