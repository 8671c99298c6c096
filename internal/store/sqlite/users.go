package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/recipebook/recipebook-server/internal/domain"
	"github.com/recipebook/recipebook-server/internal/normalize"
	"github.com/recipebook/recipebook-server/internal/store"
)

// userColumns is the ordered list of columns selected in user queries.
// Must match the scan order in scanUser.
const userColumns = `id, email, username, password_hash, first_name, last_name,
	phone_number, is_admin, is_staff, is_active, is_superuser, created_at, updated_at`

// scanUser scans a sql.Row (or sql.Rows via its Scan method) into a domain.User.
func scanUser(scanner interface{ Scan(dest ...any) error }) (*domain.User, error) {
	var u domain.User

	var (
		isAdmin, isStaff, isActive, isSuperuser int
		createdAt, updatedAt                    string
	)

	err := scanner.Scan(
		&u.ID,
		&u.Email,
		&u.Username,
		&u.PasswordHash,
		&u.FirstName,
		&u.LastName,
		&u.PhoneNumber,
		&isAdmin,
		&isStaff,
		&isActive,
		&isSuperuser,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	u.IsAdmin = isAdmin != 0
	u.IsStaff = isStaff != 0
	u.IsActive = isActive != 0
	u.IsSuperuser = isSuperuser != 0

	u.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	u.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}

	return &u, nil
}

// uniqueUserError maps a UNIQUE violation on users to the field that collided.
func uniqueUserError(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "users.email_lower"):
		return store.ErrAlreadyExists.WithMessage("email already exists")
	case strings.Contains(msg, "users.username"):
		return store.ErrAlreadyExists.WithMessage("username already exists")
	default:
		return store.ErrAlreadyExists
	}
}

// CreateUser inserts a new user. The email is matched case-insensitively.
// Returns store.ErrAlreadyExists on duplicate email or username.
func (s *Store) CreateUser(ctx context.Context, u *domain.User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (
			id, email, email_lower, username, password_hash, first_name, last_name,
			phone_number, is_admin, is_staff, is_active, is_superuser, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID,
		u.Email,
		normalize.EmailKey(u.Email),
		u.Username,
		u.PasswordHash,
		u.FirstName,
		u.LastName,
		u.PhoneNumber,
		boolToInt(u.IsAdmin),
		boolToInt(u.IsStaff),
		boolToInt(u.IsActive),
		boolToInt(u.IsSuperuser),
		formatTime(u.CreatedAt),
		formatTime(u.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return uniqueUserError(err)
		}
		return err
	}
	return nil
}

// GetUser retrieves a user by ID.
// Returns store.ErrNotFound if the user does not exist.
func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)

	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// GetUserByEmail retrieves a user by email, ignoring case.
// Returns store.ErrNotFound if no user has that email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email_lower = ?`, normalize.EmailKey(email))

	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// UpdateUser writes every mutable user column.
// Returns store.ErrNotFound if the user does not exist.
func (s *Store) UpdateUser(ctx context.Context, u *domain.User) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE users SET
			email = ?,
			email_lower = ?,
			username = ?,
			password_hash = ?,
			first_name = ?,
			last_name = ?,
			phone_number = ?,
			is_admin = ?,
			is_staff = ?,
			is_active = ?,
			is_superuser = ?,
			updated_at = ?
		WHERE id = ?`,
		u.Email,
		normalize.EmailKey(u.Email),
		u.Username,
		u.PasswordHash,
		u.FirstName,
		u.LastName,
		u.PhoneNumber,
		boolToInt(u.IsAdmin),
		boolToInt(u.IsStaff),
		boolToInt(u.IsActive),
		boolToInt(u.IsSuperuser),
		formatTime(u.UpdatedAt),
		u.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return uniqueUserError(err)
		}
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ListUsers returns every user ordered by creation time.
func (s *Store) ListUsers(ctx context.Context) ([]*domain.User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []*domain.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
