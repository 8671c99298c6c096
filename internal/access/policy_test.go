package access

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recipebook/recipebook-server/internal/domain"
	domainerrors "github.com/recipebook/recipebook-server/internal/errors"
	"github.com/recipebook/recipebook-server/internal/store"
)

func TestTierOf(t *testing.T) {
	tests := []struct {
		name string
		user *domain.User
		want Tier
	}{
		{"nil user", nil, TierAnonymous},
		{"inactive", &domain.User{IsActive: false}, TierInactive},
		{"inactive admin", &domain.User{IsActive: false, IsAdmin: true}, TierInactive},
		{"ordinary", &domain.User{IsActive: true}, TierOrdinary},
		{"staff", &domain.User{IsActive: true, IsStaff: true}, TierStaff},
		{"admin", &domain.User{IsActive: true, IsAdmin: true}, TierAdmin},
		{"superuser only", &domain.User{IsActive: true, IsSuperuser: true}, TierAdmin},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TierOf(tt.user))
		})
	}
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name     string
		tier     Tier
		callerID string
		ownerID  string
		want     Decision
	}{
		{"anonymous", TierAnonymous, "", "usr-a", DenyUnauthenticated},
		{"inactive owner", TierInactive, "usr-a", "usr-a", DenyUnauthenticated},
		{"ordinary owner", TierOrdinary, "usr-a", "usr-a", Allow},
		{"ordinary other", TierOrdinary, "usr-b", "usr-a", DenyHidden},
		{"staff other", TierStaff, "usr-b", "usr-a", DenyHidden},
		{"staff owner", TierStaff, "usr-a", "usr-a", Allow},
		{"admin other", TierAdmin, "usr-b", "usr-a", Allow},
		{"ordinary empty ids", TierOrdinary, "", "", DenyHidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(tt.tier, tt.callerID, tt.ownerID))
		})
	}
}

func TestDecision_Err(t *testing.T) {
	assert.NoError(t, Allow.Err("recipe"))
	assert.ErrorIs(t, DenyUnauthenticated.Err("recipe"), domainerrors.ErrUnauthorized)

	err := DenyHidden.Err("recipe")
	require.ErrorIs(t, err, domainerrors.ErrNotFound)
	assert.Equal(t, "recipe not found", err.Error())
}

// ItemScope lifts the owner restriction exactly where Evaluate lets a caller
// reach another owner's rows.
func TestItemScope_AgreesWithEvaluate(t *testing.T) {
	for _, tier := range []Tier{TierOrdinary, TierStaff, TierAdmin} {
		scope := ItemScope(tier, "usr-a")
		assert.Equal(t, "usr-a", scope.OwnerID)
		assert.Equal(t, Evaluate(tier, "usr-a", "usr-b") == Allow, scope.All, "tier=%s", tier)
	}
}

func TestOwnScope_NeverUnrestricted(t *testing.T) {
	assert.Equal(t, store.Scope{OwnerID: "usr-a"}, OwnScope("usr-a"))
}

func TestRequire(t *testing.T) {
	assert.ErrorIs(t, Require(TierAnonymous, TierStaff), domainerrors.ErrUnauthorized)
	assert.ErrorIs(t, Require(TierInactive, TierOrdinary), domainerrors.ErrUnauthorized)
	assert.ErrorIs(t, Require(TierOrdinary, TierStaff), domainerrors.ErrForbidden)
	assert.NoError(t, Require(TierStaff, TierStaff))
	assert.NoError(t, Require(TierAdmin, TierStaff))
	assert.ErrorIs(t, Require(TierStaff, TierAdmin), domainerrors.ErrForbidden)
}

func TestUserSurfaces(t *testing.T) {
	assert.False(t, CanElevate(TierStaff))
	assert.True(t, CanElevate(TierAdmin))
}

func TestCanManageUser(t *testing.T) {
	ordinary := &domain.User{IsActive: true}
	staff := &domain.User{IsActive: true, IsStaff: true}
	admin := &domain.User{IsActive: true, IsAdmin: true}
	inactiveSuperuser := &domain.User{IsSuperuser: true}

	for _, target := range []*domain.User{ordinary, staff} {
		assert.True(t, CanManageUser(TierStaff, target))
		assert.True(t, CanManageUser(TierAdmin, target))
		assert.False(t, CanManageUser(TierOrdinary, target))
	}
	for _, target := range []*domain.User{admin, inactiveSuperuser} {
		assert.False(t, CanManageUser(TierStaff, target))
		assert.True(t, CanManageUser(TierAdmin, target))
	}
}
