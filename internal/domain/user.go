package domain

import "time"

// User is a registered identity. Email is the login identifier.
type User struct {
	ID           string    `json:"id"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Username     string    `json:"username"`
	PhoneNumber  string    `json:"phone_number"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	IsAdmin      bool      `json:"is_admin"`
	IsStaff      bool      `json:"is_staff"`
	IsActive     bool      `json:"is_active"`
	IsSuperuser  bool      `json:"is_superuser"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// FullName returns "Last First", the display order used by the admin listing.
func (u *User) FullName() string {
	switch {
	case u.LastName == "":
		return u.FirstName
	case u.FirstName == "":
		return u.LastName
	default:
		return u.LastName + " " + u.FirstName
	}
}

// String returns the user's email.
func (u *User) String() string {
	return u.Email
}

// Elevate grants every permission flag. Used when creating superusers.
func (u *User) Elevate() {
	u.IsAdmin = true
	u.IsStaff = true
	u.IsActive = true
	u.IsSuperuser = true
}

// InitTimestamps sets both CreatedAt and UpdatedAt to now.
func (u *User) InitTimestamps() {
	now := time.Now()
	u.CreatedAt = now
	u.UpdatedAt = now
}

// Touch updates the UpdatedAt timestamp.
func (u *User) Touch() {
	u.UpdatedAt = time.Now()
}

// AuthToken records the single live token for a user. Issuing a new token
// replaces the row, which invalidates whatever token was issued before.
type AuthToken struct {
	UserID    string    `json:"user_id"`
	TokenID   string    `json:"token_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IsExpired reports whether the token is past its expiry at the given time.
func (t *AuthToken) IsExpired(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && now.After(t.ExpiresAt)
}
