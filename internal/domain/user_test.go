package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUser_FullName(t *testing.T) {
	tests := []struct {
		first, last string
		want        string
	}{
		{"Taro", "Yamada", "Yamada Taro"},
		{"Taro", "", "Taro"},
		{"", "Yamada", "Yamada"},
	}

	for _, tt := range tests {
		u := &User{FirstName: tt.first, LastName: tt.last}
		assert.Equal(t, tt.want, u.FullName())
	}
}

func TestUser_Elevate(t *testing.T) {
	u := &User{}
	u.Elevate()

	assert.True(t, u.IsAdmin)
	assert.True(t, u.IsStaff)
	assert.True(t, u.IsActive)
	assert.True(t, u.IsSuperuser)
}

func TestUser_StringIsEmail(t *testing.T) {
	u := &User{Email: "cook@example.com"}
	assert.Equal(t, "cook@example.com", u.String())
}

func TestAuthToken_IsExpired(t *testing.T) {
	now := time.Now()

	assert.False(t, (&AuthToken{}).IsExpired(now), "zero expiry never expires")
	assert.False(t, (&AuthToken{ExpiresAt: now.Add(time.Minute)}).IsExpired(now))
	assert.True(t, (&AuthToken{ExpiresAt: now.Add(-time.Minute)}).IsExpired(now))
}
