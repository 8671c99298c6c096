package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/recipebook/recipebook-server/internal/domain"
	"github.com/recipebook/recipebook-server/internal/service"
)

func (s *Server) registerUserRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "registerUser",
		Method:        http.MethodPost,
		Path:          "/api/users",
		Summary:       "Register",
		Description:   "Creates a new account",
		Tags:          []string{"Users"},
		DefaultStatus: http.StatusCreated,
	}, s.handleRegister)

	huma.Register(s.api, huma.Operation{
		OperationID:   "issueToken",
		Method:        http.MethodPost,
		Path:          "/api/users/token",
		Summary:       "Issue token",
		Description:   "Exchanges email and password for a token. Any earlier token stops working.",
		Tags:          []string{"Users"},
		DefaultStatus: http.StatusOK,
	}, s.handleIssueToken)

	huma.Register(s.api, huma.Operation{
		OperationID:   "logout",
		Method:        http.MethodPost,
		Path:          "/api/users/logout",
		Summary:       "Logout",
		Description:   "Revokes the caller's token",
		Tags:          []string{"Users"},
		Security:      bearerSecurity,
		DefaultStatus: http.StatusNoContent,
	}, s.handleLogout)

	huma.Register(s.api, huma.Operation{
		OperationID: "getProfile",
		Method:      http.MethodGet,
		Path:        "/api/users/me",
		Summary:     "Get own profile",
		Tags:        []string{"Users"},
		Security:    bearerSecurity,
	}, s.handleGetProfile)

	huma.Register(s.api, huma.Operation{
		OperationID: "patchProfile",
		Method:      http.MethodPatch,
		Path:        "/api/users/me",
		Summary:     "Update own profile",
		Description: "Updates the supplied fields. A new password is hashed before storage.",
		Tags:        []string{"Users"},
		Security:    bearerSecurity,
	}, s.handleUpdateProfile)

	huma.Register(s.api, huma.Operation{
		OperationID: "putProfile",
		Method:      http.MethodPut,
		Path:        "/api/users/me",
		Summary:     "Replace own profile",
		Tags:        []string{"Users"},
		Security:    bearerSecurity,
	}, s.handleUpdateProfile)
}

// === DTOs ===

// RegisterBody is the registration payload. Required fields are checked by
// the identity service so that every failure is reported per field.
type RegisterBody struct {
	Email       string `json:"email,omitempty" doc:"Login email address"`
	Username    string `json:"username,omitempty" doc:"Unique username"`
	Password    string `json:"password,omitempty" doc:"Password, at least 5 characters"`
	FirstName   string `json:"first_name,omitempty"`
	LastName    string `json:"last_name,omitempty"`
	PhoneNumber string `json:"phone_number,omitempty"`
}

func (b RegisterBody) request() service.RegisterRequest {
	return service.RegisterRequest{
		FirstName:   b.FirstName,
		LastName:    b.LastName,
		Username:    b.Username,
		PhoneNumber: b.PhoneNumber,
		Email:       b.Email,
		Password:    b.Password,
	}
}

// RegisterInput wraps the registration request for Huma.
type RegisterInput struct {
	Body RegisterBody
}

// ProfileResponse is a user's own view of their account. The password hash
// never leaves the server.
type ProfileResponse struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Username    string `json:"username"`
	PhoneNumber string `json:"phone_number"`
	Email       string `json:"email"`
}

func newProfileResponse(u *domain.User) ProfileResponse {
	return ProfileResponse{
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Username:    u.Username,
		PhoneNumber: u.PhoneNumber,
		Email:       u.Email,
	}
}

// ProfileOutput wraps the profile response for Huma.
type ProfileOutput struct {
	Body ProfileResponse
}

// IssueTokenInput wraps the token request for Huma.
type IssueTokenInput struct {
	Body service.TokenRequest
}

// TokenResponse carries a freshly issued token.
type TokenResponse struct {
	Token string `json:"token" doc:"Send as 'Authorization: Bearer <token>'"`
}

// TokenOutput wraps the token response for Huma.
type TokenOutput struct {
	Body TokenResponse
}

// AuthenticatedInput is used by endpoints that take nothing but the token.
type AuthenticatedInput struct {
	Authorization string `header:"Authorization"`
}

// UpdateProfileInput wraps a profile edit for Huma.
type UpdateProfileInput struct {
	Authorization string `header:"Authorization"`
	Body          service.ProfileUpdate
}

// === Handlers ===

func (s *Server) handleRegister(ctx context.Context, input *RegisterInput) (*ProfileOutput, error) {
	user, err := s.services.Identity.Register(ctx, input.Body.request())
	if err != nil {
		return nil, err
	}
	return &ProfileOutput{Body: newProfileResponse(user)}, nil
}

func (s *Server) handleIssueToken(ctx context.Context, input *IssueTokenInput) (*TokenOutput, error) {
	token, err := s.services.Credentials.IssueToken(ctx, input.Body)
	if err != nil {
		return nil, err
	}
	return &TokenOutput{Body: TokenResponse{Token: token}}, nil
}

func (s *Server) handleLogout(ctx context.Context, input *AuthenticatedInput) (*struct{}, error) {
	user, err := s.authenticate(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}
	if err := s.services.Credentials.RevokeToken(ctx, user.ID); err != nil {
		return nil, err
	}
	return nil, nil
}

func (s *Server) handleGetProfile(ctx context.Context, input *AuthenticatedInput) (*ProfileOutput, error) {
	user, err := s.authenticate(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}
	return &ProfileOutput{Body: newProfileResponse(user)}, nil
}

func (s *Server) handleUpdateProfile(ctx context.Context, input *UpdateProfileInput) (*ProfileOutput, error) {
	user, err := s.authenticate(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}
	user, err = s.services.Identity.UpdateProfile(ctx, user, input.Body)
	if err != nil {
		return nil, err
	}
	return &ProfileOutput{Body: newProfileResponse(user)}, nil
}
