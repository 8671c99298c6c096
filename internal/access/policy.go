// Package access decides what a caller may do with owned entities and
// administrative surfaces. Every decision derives from a flat Tier and the
// owner of the resource involved.
package access

import (
	"github.com/recipebook/recipebook-server/internal/domain"
	domainerrors "github.com/recipebook/recipebook-server/internal/errors"
	"github.com/recipebook/recipebook-server/internal/store"
)

// Tier is a caller's permission level, in increasing privilege.
type Tier int

// Permission tiers.
const (
	TierAnonymous Tier = iota
	TierInactive
	TierOrdinary
	TierStaff
	TierAdmin
)

// String returns the tier name used in logs and admin responses.
func (t Tier) String() string {
	switch t {
	case TierInactive:
		return "inactive"
	case TierOrdinary:
		return "ordinary"
	case TierStaff:
		return "staff"
	case TierAdmin:
		return "admin"
	default:
		return "anonymous"
	}
}

// TierOf derives the tier from a user's flags. A nil user is anonymous and an
// inactive user is inactive regardless of any elevated flags.
func TierOf(u *domain.User) Tier {
	switch {
	case u == nil:
		return TierAnonymous
	case !u.IsActive:
		return TierInactive
	case u.IsAdmin || u.IsSuperuser:
		return TierAdmin
	case u.IsStaff:
		return TierStaff
	default:
		return TierOrdinary
	}
}

// Decision is the outcome of a policy evaluation.
type Decision int

// Policy decisions.
const (
	Allow Decision = iota
	// DenyUnauthenticated means the caller has no usable identity.
	DenyUnauthenticated
	// DenyHidden means the caller may not see the resource and must not learn it exists.
	DenyHidden
)

// Evaluate decides whether a caller of the given tier may act on a resource
// owned by ownerID. Admins act on any resource; everyone else only on their own.
func Evaluate(tier Tier, callerID, ownerID string) Decision {
	switch {
	case tier <= TierInactive:
		return DenyUnauthenticated
	case tier >= TierAdmin:
		return Allow
	case callerID != "" && callerID == ownerID:
		return Allow
	default:
		return DenyHidden
	}
}

// Err converts a decision into the error returned to the caller.
// kind names the resource ("recipe", "tag") for the not-found message.
func (d Decision) Err(kind string) error {
	switch d {
	case Allow:
		return nil
	case DenyUnauthenticated:
		return domainerrors.Unauthorized("authentication required")
	default:
		return domainerrors.NotFoundf("%s not found", kind)
	}
}

// ItemScope is the query-side form of Evaluate for single-entity reads and
// writes: admins see every owner's rows, everyone else only their own.
func ItemScope(tier Tier, callerID string) store.Scope {
	if tier >= TierAdmin {
		return store.Scope{OwnerID: callerID, All: true}
	}
	return store.Scope{OwnerID: callerID}
}

// OwnScope restricts queries to the caller's own rows. Listing and creation
// always use it, whatever the tier.
func OwnScope(callerID string) store.Scope {
	return store.Scope{OwnerID: callerID}
}

// Require checks that the caller holds at least the minimum tier.
// Callers without a usable identity get Unauthorized; the rest get Forbidden.
func Require(tier, minimum Tier) error {
	if tier <= TierInactive {
		return domainerrors.Unauthorized("authentication required")
	}
	if tier < minimum {
		return domainerrors.Forbidden(minimum.String() + " access required")
	}
	return nil
}

// CanElevate reports whether the tier may change another user's permission flags.
func CanElevate(tier Tier) bool {
	return tier >= TierAdmin
}

// CanManageUser reports whether the tier may edit target's account. Accounts
// carrying admin or superuser flags need an admin, even while inactive.
func CanManageUser(tier Tier, target *domain.User) bool {
	if target.IsAdmin || target.IsSuperuser {
		return CanElevate(tier)
	}
	return tier >= TierStaff
}
