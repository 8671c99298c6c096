package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/recipebook/recipebook-server/internal/access"
	"github.com/recipebook/recipebook-server/internal/domain"
	domainerrors "github.com/recipebook/recipebook-server/internal/errors"
	"github.com/recipebook/recipebook-server/internal/id"
	"github.com/recipebook/recipebook-server/internal/media/images"
	"github.com/recipebook/recipebook-server/internal/metrics"
	"github.com/recipebook/recipebook-server/internal/normalize"
	"github.com/recipebook/recipebook-server/internal/store"
	"github.com/recipebook/recipebook-server/internal/validation"
)

// RecipeService manages recipes, their tag and ingredient links, and their image.
type RecipeService struct {
	store     store.Store
	images    *images.Storage
	search    *SearchService
	metrics   *metrics.Metrics
	validator *validation.Validator
	logger    *slog.Logger
}

// NewRecipeService creates a new recipe service. searchSvc and m may be nil.
func NewRecipeService(
	st store.Store,
	imageStorage *images.Storage,
	searchSvc *SearchService,
	m *metrics.Metrics,
	validator *validation.Validator,
	logger *slog.Logger,
) *RecipeService {
	return &RecipeService{
		store:     st,
		images:    imageStorage,
		search:    searchSvc,
		metrics:   m,
		validator: validator,
		logger:    orDiscard(logger),
	}
}

// RecipeRequest is a complete recipe body, used by create and full replace.
type RecipeRequest struct {
	Title       string   `json:"title" validate:"required,max=100"`
	Price       string   `json:"price" validate:"required,price"`
	Link        string   `json:"link" validate:"max=255"`
	TimeMinutes int      `json:"time_minutes" validate:"gte=0"`
	Tags        []string `json:"tags"`
	Ingredients []string `json:"ingredients"`
}

// RecipePatch is a partial recipe edit. Nil fields are left unchanged.
type RecipePatch struct {
	Title       *string   `json:"title,omitempty" validate:"omitnil,min=1,max=100"`
	Price       *string   `json:"price,omitempty" validate:"omitnil,min=1,price"`
	Link        *string   `json:"link,omitempty" validate:"omitnil,max=255"`
	TimeMinutes *int      `json:"time_minutes,omitempty" validate:"omitnil,gte=0"`
	Tags        *[]string `json:"tags,omitempty"`
	Ingredients *[]string `json:"ingredients,omitempty"`
}

// Patch returns the request as a patch that sets every field.
func (r RecipeRequest) Patch() RecipePatch {
	tags := r.Tags
	if tags == nil {
		tags = []string{}
	}
	ingredients := r.Ingredients
	if ingredients == nil {
		ingredients = []string{}
	}
	return RecipePatch{
		Title:       &r.Title,
		Price:       &r.Price,
		Link:        &r.Link,
		TimeMinutes: &r.TimeMinutes,
		Tags:        &tags,
		Ingredients: &ingredients,
	}
}

// RecipeDetail is a recipe with its tags and ingredients resolved.
type RecipeDetail struct {
	Recipe      *domain.Recipe
	Tags        []*domain.Tag
	Ingredients []*domain.Ingredient
}

// List returns the caller's own recipes, optionally narrowed by tag and ingredient.
func (s *RecipeService) List(ctx context.Context, caller *domain.User, filter store.RecipeFilter) ([]*domain.Recipe, error) {
	if _, _, err := member(caller); err != nil {
		return nil, err
	}
	recipes, err := s.store.ListRecipes(ctx, access.OwnScope(caller.ID), filter)
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	return recipes, nil
}

// Get returns a recipe with its tags and ingredients.
func (s *RecipeService) Get(ctx context.Context, caller *domain.User, recipeID string) (*RecipeDetail, error) {
	r, err := s.load(ctx, caller, recipeID)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, r)
}

// Create adds a recipe owned by the caller. Every referenced tag and
// ingredient must belong to the caller.
func (s *RecipeService) Create(ctx context.Context, caller *domain.User, req RecipeRequest) (*RecipeDetail, error) {
	if _, _, err := member(caller); err != nil {
		return nil, err
	}

	req.Title = normalize.Text(req.Title)
	req.Price = strings.TrimSpace(req.Price)
	req.Link = normalize.Text(req.Link)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	recipeID, err := id.Generate(id.PrefixRecipe)
	if err != nil {
		return nil, fmt.Errorf("generate recipe ID: %w", err)
	}

	r := &domain.Recipe{
		Owned:       domain.Owned{ID: recipeID, OwnerID: caller.ID},
		Title:       req.Title,
		Price:       parsePrice(req.Price),
		Link:        req.Link,
		TimeMinutes: req.TimeMinutes,
	}
	r.SetTags(req.Tags)
	r.SetIngredients(req.Ingredients)
	if err := s.checkReferences(ctx, r); err != nil {
		return nil, err
	}
	r.InitTimestamps()

	if err := s.store.CreateRecipe(ctx, r); err != nil {
		return nil, translateStoreError(err, "recipe")
	}

	s.index(ctx, r)
	s.logger.Info("recipe created", "recipe_id", r.ID, "user_id", caller.ID)
	return s.detail(ctx, r)
}

// Update applies a partial edit. References are checked against the
// recipe's owner, which may differ from an admin caller.
func (s *RecipeService) Update(ctx context.Context, caller *domain.User, recipeID string, patch RecipePatch) (*RecipeDetail, error) {
	_, scope, err := member(caller)
	if err != nil {
		return nil, err
	}

	normalizeField(patch.Title, normalize.Text)
	normalizeField(patch.Price, strings.TrimSpace)
	normalizeField(patch.Link, normalize.Text)
	if err := s.validator.Validate(patch); err != nil {
		return nil, err
	}

	r, err := s.store.GetRecipe(ctx, scope, recipeID)
	if err != nil {
		return nil, translateStoreError(err, "recipe")
	}

	if patch.Title != nil {
		r.Title = *patch.Title
	}
	if patch.Price != nil {
		r.Price = parsePrice(*patch.Price)
	}
	if patch.Link != nil {
		r.Link = *patch.Link
	}
	if patch.TimeMinutes != nil {
		r.TimeMinutes = *patch.TimeMinutes
	}
	if patch.Tags != nil {
		r.SetTags(*patch.Tags)
	}
	if patch.Ingredients != nil {
		r.SetIngredients(*patch.Ingredients)
	}
	if err := s.checkReferences(ctx, r); err != nil {
		return nil, err
	}
	r.Touch()

	if err := s.store.UpdateRecipe(ctx, scope, r); err != nil {
		return nil, translateStoreError(err, "recipe")
	}

	s.index(ctx, r)
	s.logger.Info("recipe updated", "recipe_id", r.ID, "user_id", caller.ID)
	return s.detail(ctx, r)
}

// Delete removes a recipe, its links and its image file.
func (s *RecipeService) Delete(ctx context.Context, caller *domain.User, recipeID string) error {
	_, scope, err := member(caller)
	if err != nil {
		return err
	}

	r, err := s.store.GetRecipe(ctx, scope, recipeID)
	if err != nil {
		return translateStoreError(err, "recipe")
	}
	if err := s.store.DeleteRecipe(ctx, scope, recipeID); err != nil {
		return translateStoreError(err, "recipe")
	}

	if r.HasImage() {
		s.removeImageFile(r.Image.Filename)
	}
	if s.search != nil {
		s.search.Remove(r.ID)
	}
	s.logger.Info("recipe deleted", "recipe_id", r.ID, "user_id", caller.ID)
	return nil
}

// UploadImage stores data as the recipe's image, replacing any previous one.
// The stored name is a fresh UUID with the detected format's extension.
func (s *RecipeService) UploadImage(ctx context.Context, caller *domain.User, recipeID, uploadName string, data []byte) (r *domain.Recipe, err error) {
	defer func() {
		if s.metrics != nil && !errors.Is(err, domainerrors.ErrNotFound) && !errors.Is(err, domainerrors.ErrUnauthorized) {
			s.metrics.ObserveUpload(int64(len(data)), err)
		}
	}()

	_, scope, err := member(caller)
	if err != nil {
		return nil, err
	}
	r, err = s.store.GetRecipe(ctx, scope, recipeID)
	if err != nil {
		return nil, translateStoreError(err, "recipe")
	}

	inspection, err := images.Inspect(data)
	if err != nil {
		if errors.Is(err, images.ErrUnsupportedFormat) || errors.Is(err, images.ErrUndecodable) {
			return nil, domainerrors.ValidationWithDetails("validation failed", map[string]string{
				"image": "upload a valid JPEG, PNG, GIF or WebP image",
			})
		}
		return nil, fmt.Errorf("inspect image: %w", err)
	}

	name := images.NewName(inspection.Format.ExtensionFor(uploadName))
	if err := s.images.Save(name, data); err != nil {
		return nil, fmt.Errorf("save image: %w", err)
	}

	previous := r.Image
	r.Image = &domain.RecipeImage{
		Filename:    name,
		ContentType: inspection.Format.ContentType,
		Size:        int64(len(data)),
		BlurHash:    inspection.BlurHash,
	}
	r.Touch()

	if err := s.store.UpdateRecipe(ctx, scope, r); err != nil {
		s.removeImageFile(name)
		return nil, translateStoreError(err, "recipe")
	}
	if previous != nil && previous.Filename != "" {
		s.removeImageFile(previous.Filename)
	}

	s.logger.Info("recipe image uploaded",
		"recipe_id", r.ID,
		"user_id", caller.ID,
		"filename", name,
		"size", len(data),
	)
	return r, nil
}

// Image returns the recipe's image metadata and bytes.
func (s *RecipeService) Image(ctx context.Context, caller *domain.User, recipeID string) (*domain.RecipeImage, []byte, error) {
	r, err := s.load(ctx, caller, recipeID)
	if err != nil {
		return nil, nil, err
	}
	if !r.HasImage() {
		return nil, nil, domainerrors.NotFound("recipe has no image")
	}

	data, err := s.images.Get(r.Image.Filename)
	if err != nil {
		if errors.Is(err, images.ErrNotFound) {
			s.logger.Warn("image file missing", "recipe_id", r.ID, "filename", r.Image.Filename)
			return nil, nil, domainerrors.NotFound("recipe has no image")
		}
		return nil, nil, fmt.Errorf("read image: %w", err)
	}
	return r.Image, data, nil
}

// DeleteImage detaches and removes the recipe's image.
func (s *RecipeService) DeleteImage(ctx context.Context, caller *domain.User, recipeID string) error {
	_, scope, err := member(caller)
	if err != nil {
		return err
	}
	r, err := s.store.GetRecipe(ctx, scope, recipeID)
	if err != nil {
		return translateStoreError(err, "recipe")
	}
	if !r.HasImage() {
		return domainerrors.NotFound("recipe has no image")
	}

	filename := r.Image.Filename
	r.Image = nil
	r.Touch()
	if err := s.store.UpdateRecipe(ctx, scope, r); err != nil {
		return translateStoreError(err, "recipe")
	}
	s.removeImageFile(filename)
	return nil
}

func (s *RecipeService) load(ctx context.Context, caller *domain.User, recipeID string) (*domain.Recipe, error) {
	tier, scope, err := member(caller)
	if err != nil {
		return nil, err
	}
	r, err := s.store.GetRecipe(ctx, scope, recipeID)
	if err != nil {
		return nil, translateStoreError(err, "recipe")
	}
	if err := authorize(tier, caller, r.OwnerID, "recipe"); err != nil {
		return nil, err
	}
	return r, nil
}

// checkReferences rejects tag and ingredient IDs that do not belong to the
// recipe's owner. Foreign IDs are reported the same way as unknown ones.
func (s *RecipeService) checkReferences(ctx context.Context, r *domain.Recipe) error {
	scope := access.OwnScope(r.OwnerID)
	details := map[string]string{}

	tags, err := s.store.Tags().GetMany(ctx, scope, r.TagIDs)
	if err != nil {
		return fmt.Errorf("load tags: %w", err)
	}
	if missing := missingIDs(r.TagIDs, tags); len(missing) > 0 {
		details["tags"] = "unknown tag ids: " + strings.Join(missing, ", ")
	}

	ingredients, err := s.store.Ingredients().GetMany(ctx, scope, r.IngredientIDs)
	if err != nil {
		return fmt.Errorf("load ingredients: %w", err)
	}
	if missing := missingIDs(r.IngredientIDs, ingredients); len(missing) > 0 {
		details["ingredients"] = "unknown ingredient ids: " + strings.Join(missing, ", ")
	}

	if len(details) > 0 {
		return domainerrors.ValidationWithDetails("validation failed", details)
	}
	return nil
}

func missingIDs[T any, PT namedEntity[T]](want []string, found []*T) []string {
	have := make(map[string]struct{}, len(found))
	for _, v := range found {
		have[PT(v).Base().ID] = struct{}{}
	}
	var missing []string
	for _, w := range want {
		if _, ok := have[w]; !ok {
			missing = append(missing, w)
		}
	}
	slices.Sort(missing)
	return missing
}

func (s *RecipeService) detail(ctx context.Context, r *domain.Recipe) (*RecipeDetail, error) {
	scope := access.OwnScope(r.OwnerID)
	tags, err := s.store.Tags().GetMany(ctx, scope, r.TagIDs)
	if err != nil {
		return nil, fmt.Errorf("load tags: %w", err)
	}
	ingredients, err := s.store.Ingredients().GetMany(ctx, scope, r.IngredientIDs)
	if err != nil {
		return nil, fmt.Errorf("load ingredients: %w", err)
	}
	return &RecipeDetail{Recipe: r, Tags: tags, Ingredients: ingredients}, nil
}

func (s *RecipeService) index(ctx context.Context, r *domain.Recipe) {
	if s.search != nil {
		s.search.IndexRecipe(ctx, r)
	}
}

func (s *RecipeService) removeImageFile(name string) {
	if err := s.images.Delete(name); err != nil {
		s.logger.Warn("failed to delete image file", "filename", name, "error", err)
	}
}

// parsePrice parses a price that already passed the price validation rule.
func parsePrice(raw string) decimal.Decimal {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero
	}
	return d.Round(domain.PriceDecimalPlaces)
}
