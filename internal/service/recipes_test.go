package service

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recipebook/recipebook-server/internal/domain"
	domainerrors "github.com/recipebook/recipebook-server/internal/errors"
	"github.com/recipebook/recipebook-server/internal/search"
	"github.com/recipebook/recipebook-server/internal/store"
	"github.com/recipebook/recipebook-server/internal/store/sqlite"
	"github.com/recipebook/recipebook-server/internal/validation"
)

func tagIDs(tags []*domain.Tag) []string {
	ids := make([]string, len(tags))
	for i, t := range tags {
		ids[i] = t.ID
	}
	return ids
}

func TestRecipeService_CreateAndRetrieve(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	alice := env.register(t, "a@x.com", "a")
	bob := env.register(t, "b@x.com", "b")

	t1 := env.tag(t, alice, "dessert")
	t2 := env.tag(t, alice, "baking")

	created, err := env.recipes.Create(ctx, alice, RecipeRequest{
		Title:       "Chocolate cake",
		Price:       "5.00",
		TimeMinutes: 30,
		Tags:        []string{t1.ID, t2.ID, t1.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, alice.ID, created.Recipe.OwnerID)
	assert.Equal(t, "5.00", created.Recipe.Price.StringFixed(2))

	got, err := env.recipes.Get(ctx, alice, created.Recipe.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{t1.ID, t2.ID}, got.Recipe.TagIDs)
	assert.ElementsMatch(t, []string{t1.ID, t2.ID}, tagIDs(got.Tags))
	assert.Equal(t, 30, got.Recipe.TimeMinutes)

	list, err := env.recipes.List(ctx, bob, store.RecipeFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = env.recipes.Get(ctx, bob, created.Recipe.ID)
	requireCode(t, err, domainerrors.CodeNotFound)
}

func TestRecipeService_Create_Validation(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	alice := env.register(t, "a@x.com", "a")

	tests := []struct {
		name  string
		req   RecipeRequest
		field string
	}{
		{"missing title", RecipeRequest{Price: "1.00"}, "title"},
		{"long title", RecipeRequest{Title: strings.Repeat("t", 101), Price: "1.00"}, "title"},
		{"missing price", RecipeRequest{Title: "Soup"}, "price"},
		{"too many digits", RecipeRequest{Title: "Soup", Price: "1000.00"}, "price"},
		{"too many places", RecipeRequest{Title: "Soup", Price: "1.234"}, "price"},
		{"negative price", RecipeRequest{Title: "Soup", Price: "-1.00"}, "price"},
		{"not a number", RecipeRequest{Title: "Soup", Price: "cheap"}, "price"},
		{"negative time", RecipeRequest{Title: "Soup", Price: "1.00", TimeMinutes: -5}, "time_minutes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.recipes.Create(ctx, alice, tt.req)
			de := requireCode(t, err, domainerrors.CodeValidation)
			assert.Contains(t, de.Details, tt.field)
		})
	}
}

func TestRecipeService_RejectsForeignReferences(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	alice := env.register(t, "a@x.com", "a")
	bob := env.register(t, "b@x.com", "b")

	own := env.tag(t, alice, "mine")
	foreign := env.tag(t, bob, "theirs")
	foreignIng := env.ingredient(t, bob, "salt")

	_, err := env.recipes.Create(ctx, alice, RecipeRequest{
		Title:       "Soup",
		Price:       "1.00",
		Tags:        []string{own.ID, foreign.ID},
		Ingredients: []string{foreignIng.ID, "ing-missing"},
	})
	de := requireCode(t, err, domainerrors.CodeValidation)
	details, ok := de.Details.(map[string]string)
	require.True(t, ok)
	assert.Contains(t, details["tags"], foreign.ID)
	assert.NotContains(t, details["tags"], own.ID)
	assert.Contains(t, details["ingredients"], foreignIng.ID)
	assert.Contains(t, details["ingredients"], "ing-missing")

	list, err := env.recipes.List(ctx, alice, store.RecipeFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

// tagDeletingStore deletes a tag after the service has checked references and
// before the recipe row is written.
type tagDeletingStore struct {
	*sqlite.Store
	ownerID string
	tagID   string
}

func (s *tagDeletingStore) CreateRecipe(ctx context.Context, r *domain.Recipe) error {
	if err := s.Tags().Delete(ctx, store.Scope{OwnerID: s.ownerID}, s.tagID); err != nil {
		return err
	}
	return s.Store.CreateRecipe(ctx, r)
}

func TestRecipeService_ReferenceDeletedDuringCreate(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	alice := env.register(t, "a@x.com", "a")
	vegan := env.tag(t, alice, "vegan")

	st := &tagDeletingStore{Store: env.store, ownerID: alice.ID, tagID: vegan.ID}
	recipes := NewRecipeService(st, env.images, nil, nil, validation.New(), nil)

	_, err := recipes.Create(ctx, alice, RecipeRequest{
		Title: "Soup",
		Price: "1.00",
		Tags:  []string{vegan.ID},
	})
	de := requireCode(t, err, domainerrors.CodeValidation)
	details, ok := de.Details.(map[string]string)
	require.True(t, ok)
	assert.Contains(t, details["tags"], vegan.ID)
	assert.ErrorIs(t, err, store.ErrInvalidInput)

	list, err := env.recipes.List(ctx, alice, store.RecipeFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestRecipeService_UpdateAndReplace(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	alice := env.register(t, "a@x.com", "a")
	tag := env.tag(t, alice, "dinner")
	ing := env.ingredient(t, alice, "leek")

	created, err := env.recipes.Create(ctx, alice, RecipeRequest{
		Title:       "Soup",
		Price:       "3.50",
		TimeMinutes: 20,
		Tags:        []string{tag.ID},
		Ingredients: []string{ing.ID},
	})
	require.NoError(t, err)
	recipeID := created.Recipe.ID

	title := "Leek soup"
	updated, err := env.recipes.Update(ctx, alice, recipeID, RecipePatch{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Leek soup", updated.Recipe.Title)
	assert.Equal(t, []string{tag.ID}, updated.Recipe.TagIDs)
	assert.Equal(t, []string{ing.ID}, updated.Recipe.IngredientIDs)
	assert.Equal(t, "3.50", updated.Recipe.Price.StringFixed(2))

	replaced, err := env.recipes.Update(ctx, alice, recipeID, RecipeRequest{
		Title: "Plain soup",
		Price: "2",
	}.Patch())
	require.NoError(t, err)
	assert.Equal(t, "Plain soup", replaced.Recipe.Title)
	assert.Empty(t, replaced.Recipe.TagIDs)
	assert.Empty(t, replaced.Recipe.IngredientIDs)
	assert.Equal(t, 0, replaced.Recipe.TimeMinutes)
	assert.Equal(t, "2.00", replaced.Recipe.Price.StringFixed(2))

	bad := "12345"
	_, err = env.recipes.Update(ctx, alice, recipeID, RecipePatch{Price: &bad})
	requireCode(t, err, domainerrors.CodeValidation)
}

func TestRecipeService_ListFiltersAndOrder(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	alice := env.register(t, "a@x.com", "a")
	quick := env.tag(t, alice, "quick")
	egg := env.ingredient(t, alice, "egg")

	omelette, err := env.recipes.Create(ctx, alice, RecipeRequest{
		Title: "Omelette", Price: "1.00", Tags: []string{quick.ID}, Ingredients: []string{egg.ID},
	})
	require.NoError(t, err)
	_, err = env.recipes.Create(ctx, alice, RecipeRequest{Title: "Bread", Price: "1.00"})
	require.NoError(t, err)
	_, err = env.recipes.Create(ctx, alice, RecipeRequest{Title: "Pancakes", Price: "1.00", Ingredients: []string{egg.ID}})
	require.NoError(t, err)

	all, err := env.recipes.List(ctx, alice, store.RecipeFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Pancakes", all[0].Title)
	assert.Equal(t, "Omelette", all[1].Title)
	assert.Equal(t, "Bread", all[2].Title)

	tagged, err := env.recipes.List(ctx, alice, store.RecipeFilter{TagIDs: []string{quick.ID}})
	require.NoError(t, err)
	require.Len(t, tagged, 1)
	assert.Equal(t, omelette.Recipe.ID, tagged[0].ID)

	withEgg, err := env.recipes.List(ctx, alice, store.RecipeFilter{IngredientIDs: []string{egg.ID}})
	require.NoError(t, err)
	assert.Len(t, withEgg, 2)
}

func TestRecipeService_ImageLifecycle(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	alice := env.register(t, "a@x.com", "a")
	bob := env.register(t, "b@x.com", "b")

	created, err := env.recipes.Create(ctx, alice, RecipeRequest{Title: "Cake", Price: "4.00"})
	require.NoError(t, err)
	recipeID := created.Recipe.ID

	_, _, err = env.recipes.Image(ctx, alice, recipeID)
	requireCode(t, err, domainerrors.CodeNotFound)

	data := encodePNG(t, 80, 40)
	r, err := env.recipes.UploadImage(ctx, alice, recipeID, "my cake.png", data)
	require.NoError(t, err)
	require.True(t, r.HasImage())
	first := r.Image.Filename
	assert.Equal(t, ".png", filepath.Ext(first))
	assert.NotContains(t, first, "my cake")
	assert.Equal(t, "image/png", r.Image.ContentType)
	assert.NotEmpty(t, r.Image.BlurHash)
	assert.True(t, env.images.Exists(first))

	img, got, err := env.recipes.Image(ctx, alice, recipeID)
	require.NoError(t, err)
	assert.Equal(t, first, img.Filename)
	assert.Equal(t, data, got)

	_, err = env.recipes.UploadImage(ctx, bob, recipeID, "x.png", data)
	requireCode(t, err, domainerrors.CodeNotFound)

	_, err = env.recipes.UploadImage(ctx, alice, recipeID, "notes.txt", []byte("plain text, not an image"))
	de := requireCode(t, err, domainerrors.CodeValidation)
	assert.Contains(t, de.Details, "image")

	r, err = env.recipes.UploadImage(ctx, alice, recipeID, "again.png", encodePNG(t, 10, 10))
	require.NoError(t, err)
	second := r.Image.Filename
	assert.NotEqual(t, first, second)
	assert.False(t, env.images.Exists(first), "replaced image should be removed")
	assert.True(t, env.images.Exists(second))

	require.NoError(t, env.recipes.Delete(ctx, alice, recipeID))
	assert.False(t, env.images.Exists(second), "deleting the recipe removes its image")
	_, err = env.recipes.Get(ctx, alice, recipeID)
	requireCode(t, err, domainerrors.CodeNotFound)
}

func TestRecipeService_DeleteImage(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	alice := env.register(t, "a@x.com", "a")

	created, err := env.recipes.Create(ctx, alice, RecipeRequest{Title: "Cake", Price: "4.00"})
	require.NoError(t, err)
	recipeID := created.Recipe.ID

	err = env.recipes.DeleteImage(ctx, alice, recipeID)
	requireCode(t, err, domainerrors.CodeNotFound)

	r, err := env.recipes.UploadImage(ctx, alice, recipeID, "", encodePNG(t, 8, 8))
	require.NoError(t, err)
	name := r.Image.Filename

	require.NoError(t, env.recipes.DeleteImage(ctx, alice, recipeID))
	assert.False(t, env.images.Exists(name))

	got, err := env.recipes.Get(ctx, alice, recipeID)
	require.NoError(t, err)
	assert.False(t, got.Recipe.HasImage())
}

func TestRecipeService_SearchFollowsTagRenames(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	alice := env.register(t, "a@x.com", "a")
	tag := env.tag(t, alice, "weeknight")

	created, err := env.recipes.Create(ctx, alice, RecipeRequest{Title: "Stew", Price: "6.00", Tags: []string{tag.ID}})
	require.NoError(t, err)

	recipesOnly := []search.DocType{search.DocTypeRecipe}
	res, err := env.search.Search(ctx, alice, SearchRequest{Query: "weeknight", Types: recipesOnly})
	require.NoError(t, err)
	require.Len(t, res.Hits, 1)
	assert.Equal(t, created.Recipe.ID, res.Hits[0].ID)

	_, err = env.tags.Rename(ctx, alice, tag.ID, NamedRequest{Name: "holiday"})
	require.NoError(t, err)

	res, err = env.search.Search(ctx, alice, SearchRequest{Query: "holiday", Types: recipesOnly})
	require.NoError(t, err)
	require.Len(t, res.Hits, 1)
	assert.Equal(t, created.Recipe.ID, res.Hits[0].ID)
}
