package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/recipebook/recipebook-server/internal/domain"
	"github.com/recipebook/recipebook-server/internal/service"
)

func (s *Server) registerAdminRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "adminListUsers",
		Method:      http.MethodGet,
		Path:        "/api/admin/users",
		Summary:     "List users",
		Description: "Lists every account. Requires staff.",
		Tags:        []string{"Admin"},
		Security:    bearerSecurity,
	}, s.handleAdminListUsers)

	huma.Register(s.api, huma.Operation{
		OperationID:   "adminCreateUser",
		Method:        http.MethodPost,
		Path:          "/api/admin/users",
		Summary:       "Create user",
		Description:   "Creates an account. Requires staff; setting permission flags requires admin.",
		Tags:          []string{"Admin"},
		Security:      bearerSecurity,
		DefaultStatus: http.StatusCreated,
	}, s.handleAdminCreateUser)

	huma.Register(s.api, huma.Operation{
		OperationID: "adminGetUser",
		Method:      http.MethodGet,
		Path:        "/api/admin/users/{id}",
		Summary:     "Get user",
		Tags:        []string{"Admin"},
		Security:    bearerSecurity,
	}, s.handleAdminGetUser)

	huma.Register(s.api, huma.Operation{
		OperationID: "adminUpdateUser",
		Method:      http.MethodPatch,
		Path:        "/api/admin/users/{id}",
		Summary:     "Update user",
		Description: "Edits profile fields and flags. Deactivating a user revokes their token.",
		Tags:        []string{"Admin"},
		Security:    bearerSecurity,
	}, s.handleAdminUpdateUser)
}

// === DTOs ===

// AdminUserResponse is the administrative view of an account.
type AdminUserResponse struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	Username    string    `json:"username"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	FullName    string    `json:"full_name"`
	PhoneNumber string    `json:"phone_number"`
	IsActive    bool      `json:"is_active"`
	IsStaff     bool      `json:"is_staff"`
	IsAdmin     bool      `json:"is_admin"`
	IsSuperuser bool      `json:"is_superuser"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func newAdminUserResponse(u *domain.User) AdminUserResponse {
	return AdminUserResponse{
		ID:          u.ID,
		Email:       u.Email,
		Username:    u.Username,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		FullName:    u.FullName(),
		PhoneNumber: u.PhoneNumber,
		IsActive:    u.IsActive,
		IsStaff:     u.IsStaff,
		IsAdmin:     u.IsAdmin,
		IsSuperuser: u.IsSuperuser,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

// AdminUserOutput wraps a single user.
type AdminUserOutput struct {
	Body AdminUserResponse
}

// AdminUserListOutput wraps the user listing.
type AdminUserListOutput struct {
	Body []AdminUserResponse
}

// AdminCreateUserBody is the account creation payload.
type AdminCreateUserBody struct {
	Email       string `json:"email,omitempty"`
	Username    string `json:"username,omitempty"`
	Password    string `json:"password,omitempty"`
	FirstName   string `json:"first_name,omitempty"`
	LastName    string `json:"last_name,omitempty"`
	PhoneNumber string `json:"phone_number,omitempty"`
	IsActive    *bool  `json:"is_active,omitempty" doc:"Defaults to true"`
	IsStaff     *bool  `json:"is_staff,omitempty"`
	IsAdmin     *bool  `json:"is_admin,omitempty"`
	IsSuperuser *bool  `json:"is_superuser,omitempty"`
}

func (b AdminCreateUserBody) request() service.AdminCreateUserRequest {
	return service.AdminCreateUserRequest{
		RegisterRequest: service.RegisterRequest{
			FirstName:   b.FirstName,
			LastName:    b.LastName,
			Username:    b.Username,
			PhoneNumber: b.PhoneNumber,
			Email:       b.Email,
			Password:    b.Password,
		},
		PermissionUpdate: service.PermissionUpdate{
			IsActive:    b.IsActive,
			IsStaff:     b.IsStaff,
			IsAdmin:     b.IsAdmin,
			IsSuperuser: b.IsSuperuser,
		},
	}
}

// AdminUpdateUserBody is the partial account edit. Nil fields are left unchanged.
type AdminUpdateUserBody struct {
	Email       *string `json:"email,omitempty"`
	Username    *string `json:"username,omitempty"`
	Password    *string `json:"password,omitempty"`
	FirstName   *string `json:"first_name,omitempty"`
	LastName    *string `json:"last_name,omitempty"`
	PhoneNumber *string `json:"phone_number,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
	IsStaff     *bool   `json:"is_staff,omitempty"`
	IsAdmin     *bool   `json:"is_admin,omitempty"`
	IsSuperuser *bool   `json:"is_superuser,omitempty"`
}

func (b AdminUpdateUserBody) request() service.AdminUpdateUserRequest {
	return service.AdminUpdateUserRequest{
		ProfileUpdate: service.ProfileUpdate{
			FirstName:   b.FirstName,
			LastName:    b.LastName,
			Username:    b.Username,
			PhoneNumber: b.PhoneNumber,
			Email:       b.Email,
			Password:    b.Password,
		},
		PermissionUpdate: service.PermissionUpdate{
			IsActive:    b.IsActive,
			IsStaff:     b.IsStaff,
			IsAdmin:     b.IsAdmin,
			IsSuperuser: b.IsSuperuser,
		},
	}
}

// AdminCreateUserInput wraps an account creation.
type AdminCreateUserInput struct {
	Authorization string `header:"Authorization"`
	Body          AdminCreateUserBody
}

// AdminUserIDInput addresses one user.
type AdminUserIDInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id"`
}

// AdminUpdateUserInput wraps an account edit.
type AdminUpdateUserInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id"`
	Body          AdminUpdateUserBody
}

// === Handlers ===

func (s *Server) handleAdminListUsers(ctx context.Context, input *AuthenticatedInput) (*AdminUserListOutput, error) {
	caller, err := s.authenticate(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}
	users, err := s.services.Admin.ListUsers(ctx, caller)
	if err != nil {
		return nil, err
	}

	out := make([]AdminUserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, newAdminUserResponse(u))
	}
	return &AdminUserListOutput{Body: out}, nil
}

func (s *Server) handleAdminCreateUser(ctx context.Context, input *AdminCreateUserInput) (*AdminUserOutput, error) {
	caller, err := s.authenticate(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}
	user, err := s.services.Admin.CreateUser(ctx, caller, input.Body.request())
	if err != nil {
		return nil, err
	}
	return &AdminUserOutput{Body: newAdminUserResponse(user)}, nil
}

func (s *Server) handleAdminGetUser(ctx context.Context, input *AdminUserIDInput) (*AdminUserOutput, error) {
	caller, err := s.authenticate(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}
	user, err := s.services.Admin.GetUser(ctx, caller, input.ID)
	if err != nil {
		return nil, err
	}
	return &AdminUserOutput{Body: newAdminUserResponse(user)}, nil
}

func (s *Server) handleAdminUpdateUser(ctx context.Context, input *AdminUpdateUserInput) (*AdminUserOutput, error) {
	caller, err := s.authenticate(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}
	user, err := s.services.Admin.UpdateUser(ctx, caller, input.ID, input.Body.request())
	if err != nil {
		return nil, err
	}
	return &AdminUserOutput{Body: newAdminUserResponse(user)}, nil
}
