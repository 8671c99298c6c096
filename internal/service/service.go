// Package service holds the business operations of the Recipebook server.
// Handlers resolve the caller first and pass it in; services enforce
// validation, ownership and tier checks before touching the store.
package service

import (
	"errors"
	"log/slog"

	"github.com/recipebook/recipebook-server/internal/access"
	"github.com/recipebook/recipebook-server/internal/domain"
	domainerrors "github.com/recipebook/recipebook-server/internal/errors"
	"github.com/recipebook/recipebook-server/internal/logger"
	"github.com/recipebook/recipebook-server/internal/store"
)

// translateStoreError maps storage sentinels to domain errors. kind names the
// entity for not-found messages.
func translateStoreError(err error, kind string) error {
	if err == nil {
		return nil
	}
	var ref *store.ReferenceError
	if errors.As(err, &ref) {
		return domainerrors.Wrap(err, domainerrors.CodeValidation, "validation failed").
			WithDetails(map[string]string{ref.Field: "unknown ids: " + ref.ID})
	}
	if errors.Is(err, store.ErrNotFound) {
		return domainerrors.NotFoundf("%s not found", kind)
	}
	if errors.Is(err, store.ErrAlreadyExists) {
		var se *store.Error
		if errors.As(err, &se) {
			return domainerrors.Conflict(se.Message)
		}
		return domainerrors.Conflictf("%s already exists", kind)
	}
	return err
}

// member checks that caller can act on owned data at all and returns the
// scope for single-entity access.
func member(caller *domain.User) (access.Tier, store.Scope, error) {
	tier := access.TierOf(caller)
	if err := access.Require(tier, access.TierOrdinary); err != nil {
		return tier, store.Scope{}, err
	}
	return tier, access.ItemScope(tier, caller.ID), nil
}

// authorize applies the ownership policy to an entity the store returned.
func authorize(tier access.Tier, caller *domain.User, ownerID, kind string) error {
	return access.Evaluate(tier, caller.ID, ownerID).Err(kind)
}

func orDiscard(l *slog.Logger) *slog.Logger {
	return logger.OrDiscard(l)
}
