package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/recipebook/recipebook-server/internal/auth"
	"github.com/recipebook/recipebook-server/internal/domain"
	domainerrors "github.com/recipebook/recipebook-server/internal/errors"
	"github.com/recipebook/recipebook-server/internal/id"
	"github.com/recipebook/recipebook-server/internal/normalize"
	"github.com/recipebook/recipebook-server/internal/store"
	"github.com/recipebook/recipebook-server/internal/validation"
)

// IdentityService owns user records: registration, credential checks and
// profile edits.
type IdentityService struct {
	store     store.Store
	hasher    *auth.PasswordHasher
	validator *validation.Validator
	logger    *slog.Logger
}

// NewIdentityService creates a new identity service.
func NewIdentityService(
	store store.Store,
	hasher *auth.PasswordHasher,
	validator *validation.Validator,
	logger *slog.Logger,
) *IdentityService {
	return &IdentityService{
		store:     store,
		hasher:    hasher,
		validator: validator,
		logger:    orDiscard(logger),
	}
}

// RegisterRequest contains the data for a new account.
type RegisterRequest struct {
	FirstName   string `json:"first_name" validate:"max=25"`
	LastName    string `json:"last_name" validate:"max=25"`
	Username    string `json:"username" validate:"required,max=50"`
	PhoneNumber string `json:"phone_number" validate:"max=8,phone"`
	Email       string `json:"email" validate:"required,email,max=100"`
	Password    string `json:"password" validate:"required,min=5,max=1024"`
}

func (r *RegisterRequest) normalize() {
	r.FirstName = normalize.Text(r.FirstName)
	r.LastName = normalize.Text(r.LastName)
	r.Username = normalize.Username(r.Username)
	r.PhoneNumber = normalize.Text(r.PhoneNumber)
	r.Email = normalize.Email(r.Email)
}

// ProfileUpdate is a partial profile edit. Nil fields are left unchanged.
type ProfileUpdate struct {
	FirstName   *string `json:"first_name,omitempty" validate:"omitnil,max=25"`
	LastName    *string `json:"last_name,omitempty" validate:"omitnil,max=25"`
	Username    *string `json:"username,omitempty" validate:"omitnil,min=1,max=50"`
	PhoneNumber *string `json:"phone_number,omitempty" validate:"omitnil,max=8,phone"`
	Email       *string `json:"email,omitempty" validate:"omitnil,email,max=100"`
	Password    *string `json:"password,omitempty" validate:"omitnil,min=5,max=1024"`
}

func (p *ProfileUpdate) normalize() {
	normalizeField(p.FirstName, normalize.Text)
	normalizeField(p.LastName, normalize.Text)
	normalizeField(p.Username, normalize.Username)
	normalizeField(p.PhoneNumber, normalize.Text)
	normalizeField(p.Email, normalize.Email)
}

func normalizeField(v *string, fn func(string) string) {
	if v != nil {
		*v = fn(*v)
	}
}

// Register creates an ordinary, active account.
func (s *IdentityService) Register(ctx context.Context, req RegisterRequest) (*domain.User, error) {
	return s.create(ctx, req, func(*domain.User) {})
}

// RegisterSuperuser creates an account with every permission flag set.
func (s *IdentityService) RegisterSuperuser(ctx context.Context, req RegisterRequest) (*domain.User, error) {
	return s.create(ctx, req, (*domain.User).Elevate)
}

func (s *IdentityService) create(ctx context.Context, req RegisterRequest, grant func(*domain.User)) (*domain.User, error) {
	req.normalize()
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	passwordHash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	userID, err := id.Generate(id.PrefixUser)
	if err != nil {
		return nil, fmt.Errorf("generate user ID: %w", err)
	}

	user := &domain.User{
		ID:           userID,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Username:     req.Username,
		PhoneNumber:  req.PhoneNumber,
		Email:        req.Email,
		PasswordHash: passwordHash,
		IsActive:     true,
	}
	grant(user)
	user.InitTimestamps()

	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, translateStoreError(err, "user")
	}

	s.logger.Info("user registered",
		"user_id", user.ID,
		"email", user.Email,
		"superuser", user.IsSuperuser,
	)
	return user, nil
}

// VerifyCredentials returns the active user with the given email and password.
// Unknown emails, wrong passwords and inactive accounts fail alike.
func (s *IdentityService) VerifyCredentials(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.store.GetUserByEmail(ctx, normalize.Email(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, errBadCredentials()
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}

	if !s.hasher.Verify(user.PasswordHash, password) || !user.IsActive {
		s.logger.Debug("credential check failed", "user_id", user.ID)
		return nil, errBadCredentials()
	}
	return user, nil
}

func errBadCredentials() error {
	return domainerrors.InvalidCredentials("unable to authenticate with provided credentials")
}

// UpdateProfile applies a partial edit to a copy of user and persists it.
// user itself is left untouched. A new password is hashed before it is stored.
func (s *IdentityService) UpdateProfile(ctx context.Context, user *domain.User, req ProfileUpdate) (*domain.User, error) {
	if user == nil {
		return nil, domainerrors.Unauthorized("authentication required")
	}
	updated := *user
	if err := s.applyProfile(&updated, req); err != nil {
		return nil, err
	}
	if err := s.save(ctx, &updated); err != nil {
		return nil, err
	}

	s.logger.Info("profile updated", "user_id", updated.ID)
	return &updated, nil
}

// applyProfile validates req and copies it onto user without saving.
func (s *IdentityService) applyProfile(user *domain.User, req ProfileUpdate) error {
	req.normalize()
	if err := s.validator.Validate(req); err != nil {
		return err
	}

	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.Username != nil {
		user.Username = *req.Username
	}
	if req.PhoneNumber != nil {
		user.PhoneNumber = *req.PhoneNumber
	}
	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.Password != nil {
		hash, err := s.hasher.Hash(*req.Password)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		user.PasswordHash = hash
	}
	return nil
}

func (s *IdentityService) save(ctx context.Context, user *domain.User) error {
	user.Touch()
	if err := s.store.UpdateUser(ctx, user); err != nil {
		return translateStoreError(err, "user")
	}
	return nil
}
