package auth

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recipebook/recipebook-server/internal/domain"
)

const testKeyHex = "707172737475767778797a7b7c7d7e7f808182838485868788898a8b8c8d8e8f"

func newTestTokenService(t *testing.T, ttl time.Duration) *TokenService {
	t.Helper()
	s, err := NewTokenService(testKeyHex, ttl)
	require.NoError(t, err)
	return s
}

func TestTokenService_IssueAndVerify(t *testing.T) {
	s := newTestTokenService(t, time.Hour)
	user := &domain.User{ID: "usr-1", Email: "a@x.com"}

	token, record, err := s.Issue(user)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(token, "v4.local."))
	assert.Equal(t, "usr-1", record.UserID)
	assert.True(t, strings.HasPrefix(record.TokenID, "tok-"))
	assert.WithinDuration(t, time.Now().Add(time.Hour), record.ExpiresAt, 5*time.Second)

	claims, err := s.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "usr-1", claims.UserID)
	assert.Equal(t, "usr-1", claims.Subject)
	assert.Equal(t, record.TokenID, claims.TokenID)
	assert.Equal(t, tokenIssuer, claims.Issuer)
}

func TestTokenService_ZeroTTLNeverExpires(t *testing.T) {
	s := newTestTokenService(t, 0)

	token, record, err := s.Issue(&domain.User{ID: "usr-1"})
	require.NoError(t, err)
	assert.True(t, record.ExpiresAt.IsZero())

	s.now = func() time.Time { return time.Now().AddDate(50, 0, 0) }
	_, err = s.Verify(token)
	assert.NoError(t, err)
}

func TestTokenService_Expired(t *testing.T) {
	s := newTestTokenService(t, time.Minute)
	token, _, err := s.Issue(&domain.User{ID: "usr-1"})
	require.NoError(t, err)

	s.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = s.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenService_RejectsGarbageAndForeignKeys(t *testing.T) {
	s := newTestTokenService(t, time.Hour)

	_, err := s.Verify("")
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = s.Verify("v4.local.garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)

	other, err := NewTokenService(strings.Repeat("ab", 32), time.Hour)
	require.NoError(t, err)
	token, _, err := other.Issue(&domain.User{ID: "usr-1"})
	require.NoError(t, err)

	_, err = s.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewTokenService_BadKey(t *testing.T) {
	_, err := NewTokenService("abc", time.Hour)
	assert.Error(t, err)

	_, err = NewTokenService(strings.Repeat("zz", 32), time.Hour)
	assert.Error(t, err)
}

func TestLoadOrGenerateKey(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")

	key, err := LoadOrGenerateKey(dir)
	require.NoError(t, err)
	assert.Len(t, key, keyLength)

	info, err := os.Stat(filepath.Join(dir, keyFileName))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	again, err := LoadOrGenerateKey(dir)
	require.NoError(t, err)
	assert.Equal(t, key, again)

	_, err = NewTokenService(hex.EncodeToString(key), time.Hour)
	assert.NoError(t, err)
}

func TestLoadOrGenerateKey_Corrupt(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, keyFileName), []byte("short"), 0o600))

	_, err := LoadOrGenerateKey(dir)
	assert.Error(t, err)
}
