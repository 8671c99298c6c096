// Package store defines the persistence interface for the Recipebook server.
package store

import (
	"context"

	"github.com/recipebook/recipebook-server/internal/domain"
)

// Scope limits which owners' rows a query may touch.
type Scope struct {
	OwnerID string
	// All lifts the owner restriction. Only administrative callers get it.
	All bool
}

// NamedFilter narrows tag and ingredient listings.
type NamedFilter struct {
	// AssignedOnly keeps only entities attached to at least one recipe.
	AssignedOnly bool
}

// RecipeFilter narrows recipe listings. A recipe matches when it carries
// any of the given tags and any of the given ingredients.
type RecipeFilter struct {
	TagIDs        []string
	IngredientIDs []string
}

// NamedRepository is the owner-scoped CRUD contract shared by tags and ingredients.
type NamedRepository[T any] interface {
	List(ctx context.Context, scope Scope, filter NamedFilter) ([]*T, error)
	Get(ctx context.Context, scope Scope, id string) (*T, error)
	GetMany(ctx context.Context, scope Scope, ids []string) ([]*T, error)
	Create(ctx context.Context, entity *T) error
	Update(ctx context.Context, scope Scope, entity *T) error
	Delete(ctx context.Context, scope Scope, id string) error
}

// Store defines the interface for all persistence operations.
type Store interface {
	Close() error
	Ping(ctx context.Context) error

	// Users
	CreateUser(ctx context.Context, user *domain.User) error
	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateUser(ctx context.Context, user *domain.User) error
	ListUsers(ctx context.Context) ([]*domain.User, error)

	// Auth tokens (one row per user)
	PutAuthToken(ctx context.Context, token *domain.AuthToken) error
	GetAuthToken(ctx context.Context, userID string) (*domain.AuthToken, error)
	DeleteAuthToken(ctx context.Context, userID string) error

	// Owned entities
	Tags() NamedRepository[domain.Tag]
	Ingredients() NamedRepository[domain.Ingredient]

	ListRecipes(ctx context.Context, scope Scope, filter RecipeFilter) ([]*domain.Recipe, error)
	GetRecipe(ctx context.Context, scope Scope, id string) (*domain.Recipe, error)
	CreateRecipe(ctx context.Context, recipe *domain.Recipe) error
	UpdateRecipe(ctx context.Context, scope Scope, recipe *domain.Recipe) error
	DeleteRecipe(ctx context.Context, scope Scope, id string) error
}
