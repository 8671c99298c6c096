package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/recipebook/recipebook-server/internal/access"
	"github.com/recipebook/recipebook-server/internal/domain"
	"github.com/recipebook/recipebook-server/internal/search"
	"github.com/recipebook/recipebook-server/internal/store"
)

// SearchService keeps the full-text index in step with the store and runs
// owner-scoped queries against it. Index failures are logged, never returned
// from writes: the store stays the source of truth.
type SearchService struct {
	store  store.Store
	index  *search.SearchIndex
	logger *slog.Logger
}

// NewSearchService creates a new search service.
func NewSearchService(store store.Store, index *search.SearchIndex, logger *slog.Logger) *SearchService {
	return &SearchService{store: store, index: index, logger: orDiscard(logger)}
}

// SearchRequest holds the query parameters accepted from callers.
type SearchRequest struct {
	Query  string
	Types  []search.DocType
	Limit  int
	Offset int
}

// Search runs a query over the caller's own recipes, tags and ingredients.
func (s *SearchService) Search(ctx context.Context, caller *domain.User, req SearchRequest) (*search.Result, error) {
	if err := access.Require(access.TierOf(caller), access.TierOrdinary); err != nil {
		return nil, err
	}
	return s.index.Search(ctx, search.Params{
		Query:   req.Query,
		OwnerID: caller.ID,
		Types:   req.Types,
		Limit:   req.Limit,
		Offset:  req.Offset,
	})
}

// IndexRecipe (re)indexes a recipe together with its tag and ingredient names.
func (s *SearchService) IndexRecipe(ctx context.Context, r *domain.Recipe) {
	doc, err := s.recipeDocument(ctx, r)
	if err == nil {
		err = s.index.Index(doc)
	}
	if err != nil {
		s.logger.Warn("failed to index recipe", "recipe_id", r.ID, "error", err)
	}
}

// IndexDocument indexes a prepared document.
func (s *SearchService) IndexDocument(doc *search.Document) {
	if err := s.index.Index(doc); err != nil {
		s.logger.Warn("failed to index document", "id", doc.ID, "type", doc.Type, "error", err)
	}
}

// Remove drops a document from the index.
func (s *SearchService) Remove(id string) {
	if err := s.index.Delete(id); err != nil {
		s.logger.Warn("failed to remove document from index", "id", id, "error", err)
	}
}

// ReindexRecipes refreshes every recipe of one owner. Renaming or deleting a
// tag or ingredient changes the names stored on those recipe documents.
func (s *SearchService) ReindexRecipes(ctx context.Context, ownerID string) {
	recipes, err := s.store.ListRecipes(ctx, access.OwnScope(ownerID), store.RecipeFilter{})
	if err != nil {
		s.logger.Warn("failed to list recipes for reindex", "user_id", ownerID, "error", err)
		return
	}

	docs := make([]*search.Document, 0, len(recipes))
	for _, r := range recipes {
		doc, err := s.recipeDocument(ctx, r)
		if err != nil {
			s.logger.Warn("failed to build recipe document", "recipe_id", r.ID, "error", err)
			continue
		}
		docs = append(docs, doc)
	}
	if err := s.index.IndexBatch(docs); err != nil {
		s.logger.Warn("failed to reindex recipes", "user_id", ownerID, "error", err)
	}
}

// Rebuild indexes every owned entity of every user. It runs at startup when
// the index is empty.
func (s *SearchService) Rebuild(ctx context.Context) error {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}

	total := 0
	for _, u := range users {
		scope := access.OwnScope(u.ID)
		var docs []*search.Document

		tags, err := s.store.Tags().List(ctx, scope, store.NamedFilter{})
		if err != nil {
			return fmt.Errorf("list tags: %w", err)
		}
		for _, t := range tags {
			docs = append(docs, search.TagDocument(t))
		}

		ingredients, err := s.store.Ingredients().List(ctx, scope, store.NamedFilter{})
		if err != nil {
			return fmt.Errorf("list ingredients: %w", err)
		}
		for _, i := range ingredients {
			docs = append(docs, search.IngredientDocument(i))
		}

		recipes, err := s.store.ListRecipes(ctx, scope, store.RecipeFilter{})
		if err != nil {
			return fmt.Errorf("list recipes: %w", err)
		}
		for _, r := range recipes {
			doc, err := s.recipeDocument(ctx, r)
			if err != nil {
				return err
			}
			docs = append(docs, doc)
		}

		if err := s.index.IndexBatch(docs); err != nil {
			return fmt.Errorf("index documents: %w", err)
		}
		total += len(docs)
	}

	s.logger.Info("search index rebuilt", "users", len(users), "documents", total)
	return nil
}

// RebuildIfEmpty rebuilds the index when it holds no documents.
func (s *SearchService) RebuildIfEmpty(ctx context.Context) error {
	count, err := s.index.DocumentCount()
	if err != nil {
		return fmt.Errorf("count documents: %w", err)
	}
	if count > 0 {
		return nil
	}
	return s.Rebuild(ctx)
}

// DocumentCount reports how many documents the index holds.
func (s *SearchService) DocumentCount() (uint64, error) {
	return s.index.DocumentCount()
}

func (s *SearchService) recipeDocument(ctx context.Context, r *domain.Recipe) (*search.Document, error) {
	scope := access.OwnScope(r.OwnerID)

	tags, err := s.store.Tags().GetMany(ctx, scope, r.TagIDs)
	if err != nil {
		return nil, fmt.Errorf("load tags: %w", err)
	}
	ingredients, err := s.store.Ingredients().GetMany(ctx, scope, r.IngredientIDs)
	if err != nil {
		return nil, fmt.Errorf("load ingredients: %w", err)
	}

	tagNames := make([]string, len(tags))
	for i, t := range tags {
		tagNames[i] = t.Name
	}
	ingredientNames := make([]string, len(ingredients))
	for i, ing := range ingredients {
		ingredientNames[i] = ing.Name
	}
	return search.RecipeDocument(r, tagNames, ingredientNames), nil
}
