package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/recipebook/recipebook-server/internal/domain"
	"github.com/recipebook/recipebook-server/internal/store"
)

// PutAuthToken stores the token for its user, replacing any previous row.
func (s *Store) PutAuthToken(ctx context.Context, t *domain.AuthToken) error {
	var expiresAt sql.NullString
	if !t.ExpiresAt.IsZero() {
		expiresAt = nullString(formatTime(t.ExpiresAt))
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO auth_tokens (user_id, token_id, created_at, expires_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			token_id = excluded.token_id,
			created_at = excluded.created_at,
			expires_at = excluded.expires_at`,
		t.UserID,
		t.TokenID,
		formatTime(t.CreatedAt),
		expiresAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// GetAuthToken returns the live token row for a user.
// Returns store.ErrNotFound if the user holds no token.
func (s *Store) GetAuthToken(ctx context.Context, userID string) (*domain.AuthToken, error) {
	var (
		t         domain.AuthToken
		createdAt string
		expiresAt sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, token_id, created_at, expires_at FROM auth_tokens WHERE user_id = ?`, userID,
	).Scan(&t.UserID, &t.TokenID, &createdAt, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	t.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	if expiresAt.Valid {
		t.ExpiresAt, err = parseTime(expiresAt.String)
		if err != nil {
			return nil, err
		}
	}
	return &t, nil
}

// DeleteAuthToken removes the user's token. Deleting a missing token is not an error.
func (s *Store) DeleteAuthToken(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM auth_tokens WHERE user_id = ?`, userID)
	return err
}
