package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/recipebook/recipebook-server/internal/access"
	"github.com/recipebook/recipebook-server/internal/domain"
	"github.com/recipebook/recipebook-server/internal/id"
	"github.com/recipebook/recipebook-server/internal/normalize"
	"github.com/recipebook/recipebook-server/internal/search"
	"github.com/recipebook/recipebook-server/internal/store"
	"github.com/recipebook/recipebook-server/internal/validation"
)

type namedEntity[T any] interface {
	*T
	Base() *domain.NamedEntity
}

// NamedService is the owner-scoped CRUD service shared by tags and ingredients.
type NamedService[T any, PT namedEntity[T]] struct {
	kind      string
	idPrefix  string
	repo      store.NamedRepository[T]
	document  func(*T) *search.Document
	search    *SearchService
	validator *validation.Validator
	logger    *slog.Logger
}

// TagService manages tags.
type TagService = NamedService[domain.Tag, *domain.Tag]

// IngredientService manages ingredients.
type IngredientService = NamedService[domain.Ingredient, *domain.Ingredient]

// NewTagService creates a tag service. searchSvc may be nil.
func NewTagService(st store.Store, searchSvc *SearchService, validator *validation.Validator, logger *slog.Logger) *TagService {
	return &TagService{
		kind:      "tag",
		idPrefix:  id.PrefixTag,
		repo:      st.Tags(),
		document:  search.TagDocument,
		search:    searchSvc,
		validator: validator,
		logger:    orDiscard(logger),
	}
}

// NewIngredientService creates an ingredient service. searchSvc may be nil.
func NewIngredientService(st store.Store, searchSvc *SearchService, validator *validation.Validator, logger *slog.Logger) *IngredientService {
	return &IngredientService{
		kind:      "ingredient",
		idPrefix:  id.PrefixIngredient,
		repo:      st.Ingredients(),
		document:  search.IngredientDocument,
		search:    searchSvc,
		validator: validator,
		logger:    orDiscard(logger),
	}
}

// NamedRequest is the body accepted for creating or renaming a tag or ingredient.
type NamedRequest struct {
	Name string `json:"name" validate:"required,max=50"`
}

// List returns the caller's own entities, newest name first.
func (s *NamedService[T, PT]) List(ctx context.Context, caller *domain.User, filter store.NamedFilter) ([]*T, error) {
	if _, _, err := member(caller); err != nil {
		return nil, err
	}
	items, err := s.repo.List(ctx, access.OwnScope(caller.ID), filter)
	if err != nil {
		return nil, fmt.Errorf("list %ss: %w", s.kind, err)
	}
	return items, nil
}

// Create adds an entity owned by the caller.
func (s *NamedService[T, PT]) Create(ctx context.Context, caller *domain.User, req NamedRequest) (*T, error) {
	if _, _, err := member(caller); err != nil {
		return nil, err
	}

	req.Name = normalize.Text(req.Name)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	entityID, err := id.Generate(s.idPrefix)
	if err != nil {
		return nil, fmt.Errorf("generate %s ID: %w", s.kind, err)
	}

	v := new(T)
	e := PT(v).Base()
	e.ID = entityID
	e.OwnerID = caller.ID
	e.Name = req.Name
	e.InitTimestamps()

	if err := s.repo.Create(ctx, v); err != nil {
		return nil, translateStoreError(err, s.kind)
	}

	s.index(v)
	s.logger.Info(s.kind+" created", "id", e.ID, "user_id", caller.ID)
	return v, nil
}

// Get returns one entity the caller may see.
func (s *NamedService[T, PT]) Get(ctx context.Context, caller *domain.User, entityID string) (*T, error) {
	tier, scope, err := member(caller)
	if err != nil {
		return nil, err
	}
	v, err := s.repo.Get(ctx, scope, entityID)
	if err != nil {
		return nil, translateStoreError(err, s.kind)
	}
	if err := authorize(tier, caller, PT(v).Base().OwnerID, s.kind); err != nil {
		return nil, err
	}
	return v, nil
}

// Rename changes an entity's name. The owner never changes.
func (s *NamedService[T, PT]) Rename(ctx context.Context, caller *domain.User, entityID string, req NamedRequest) (*T, error) {
	_, scope, err := member(caller)
	if err != nil {
		return nil, err
	}

	req.Name = normalize.Text(req.Name)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	v, err := s.repo.Get(ctx, scope, entityID)
	if err != nil {
		return nil, translateStoreError(err, s.kind)
	}
	e := PT(v).Base()
	e.Name = req.Name
	e.Touch()

	if err := s.repo.Update(ctx, scope, v); err != nil {
		return nil, translateStoreError(err, s.kind)
	}

	s.index(v)
	s.reindexRecipes(ctx, e.OwnerID)
	s.logger.Info(s.kind+" renamed", "id", e.ID, "user_id", caller.ID)
	return v, nil
}

// Delete removes an entity and detaches it from every recipe.
func (s *NamedService[T, PT]) Delete(ctx context.Context, caller *domain.User, entityID string) error {
	_, scope, err := member(caller)
	if err != nil {
		return err
	}

	v, err := s.repo.Get(ctx, scope, entityID)
	if err != nil {
		return translateStoreError(err, s.kind)
	}
	if err := s.repo.Delete(ctx, scope, entityID); err != nil {
		return translateStoreError(err, s.kind)
	}

	ownerID := PT(v).Base().OwnerID
	if s.search != nil {
		s.search.Remove(entityID)
	}
	s.reindexRecipes(ctx, ownerID)
	s.logger.Info(s.kind+" deleted", "id", entityID, "user_id", caller.ID)
	return nil
}

func (s *NamedService[T, PT]) index(v *T) {
	if s.search != nil {
		s.search.IndexDocument(s.document(v))
	}
}

func (s *NamedService[T, PT]) reindexRecipes(ctx context.Context, ownerID string) {
	if s.search != nil {
		s.search.ReindexRecipes(ctx, ownerID)
	}
}
