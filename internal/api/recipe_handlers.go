package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/recipebook/recipebook-server/internal/domain"
	"github.com/recipebook/recipebook-server/internal/service"
	"github.com/recipebook/recipebook-server/internal/store"
)

func (s *Server) registerRecipeRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listRecipes",
		Method:      http.MethodGet,
		Path:        "/api/recipes",
		Summary:     "List recipes",
		Description: "Returns the caller's own recipes, newest title first. " +
			"tags and ingredients take comma-separated IDs; a recipe matches when it carries any of them.",
		Tags:     []string{"Recipes"},
		Security: bearerSecurity,
	}, s.handleListRecipes)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createRecipe",
		Method:        http.MethodPost,
		Path:          "/api/recipes",
		Summary:       "Create recipe",
		Tags:          []string{"Recipes"},
		Security:      bearerSecurity,
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateRecipe)

	huma.Register(s.api, huma.Operation{
		OperationID: "getRecipe",
		Method:      http.MethodGet,
		Path:        "/api/recipes/{id}",
		Summary:     "Get recipe",
		Description: "Returns the recipe with its tags, ingredients and image resolved",
		Tags:        []string{"Recipes"},
		Security:    bearerSecurity,
	}, s.handleGetRecipe)

	huma.Register(s.api, huma.Operation{
		OperationID: "replaceRecipe",
		Method:      http.MethodPut,
		Path:        "/api/recipes/{id}",
		Summary:     "Replace recipe",
		Description: "Replaces every field. Omitted tags and ingredients are cleared.",
		Tags:        []string{"Recipes"},
		Security:    bearerSecurity,
	}, s.handleReplaceRecipe)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateRecipe",
		Method:      http.MethodPatch,
		Path:        "/api/recipes/{id}",
		Summary:     "Update recipe",
		Description: "Updates only the supplied fields. A supplied tag or ingredient list replaces the old one.",
		Tags:        []string{"Recipes"},
		Security:    bearerSecurity,
	}, s.handleUpdateRecipe)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteRecipe",
		Method:        http.MethodDelete,
		Path:          "/api/recipes/{id}",
		Summary:       "Delete recipe",
		Tags:          []string{"Recipes"},
		Security:      bearerSecurity,
		DefaultStatus: http.StatusNoContent,
	}, s.handleDeleteRecipe)
}

// === DTOs ===

// RecipeResponse is the list form of a recipe. Tags and ingredients are IDs.
type RecipeResponse struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	TimeMinutes int      `json:"time_minutes"`
	Price       string   `json:"price" doc:"Decimal with two places, e.g. 5.00"`
	Link        string   `json:"link"`
	Tags        []string `json:"tags"`
	Ingredients []string `json:"ingredients"`
}

func newRecipeResponse(r *domain.Recipe) RecipeResponse {
	return RecipeResponse{
		ID:          r.ID,
		Title:       r.Title,
		TimeMinutes: r.TimeMinutes,
		Price:       r.Price.StringFixed(domain.PriceDecimalPlaces),
		Link:        r.Link,
		Tags:        nonNil(r.TagIDs),
		Ingredients: nonNil(r.IngredientIDs),
	}
}

// ImageResponse describes an attached image.
type ImageResponse struct {
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	BlurHash    string `json:"blur_hash,omitempty"`
}

// RecipeDetailResponse is the single-recipe form, with tags and ingredients expanded.
type RecipeDetailResponse struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	TimeMinutes int             `json:"time_minutes"`
	Price       string          `json:"price"`
	Link        string          `json:"link"`
	Tags        []NamedResponse `json:"tags"`
	Ingredients []NamedResponse `json:"ingredients"`
	Image       *ImageResponse  `json:"image"`
}

func newRecipeDetailResponse(d *service.RecipeDetail) RecipeDetailResponse {
	r := d.Recipe
	resp := RecipeDetailResponse{
		ID:          r.ID,
		Title:       r.Title,
		TimeMinutes: r.TimeMinutes,
		Price:       r.Price.StringFixed(domain.PriceDecimalPlaces),
		Link:        r.Link,
		Tags:        newNamedResponses[domain.Tag](d.Tags),
		Ingredients: newNamedResponses[domain.Ingredient](d.Ingredients),
	}
	if r.HasImage() {
		resp.Image = &ImageResponse{
			URL:         imageURL(r.ID),
			ContentType: r.Image.ContentType,
			Size:        r.Image.Size,
			BlurHash:    r.Image.BlurHash,
		}
	}
	return resp
}

func imageURL(recipeID string) string {
	return "/api/recipes/" + recipeID + "/image"
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}

// RecipeBody is the create and full-replace payload.
type RecipeBody struct {
	Title       string   `json:"title,omitempty" doc:"At most 100 characters"`
	Price       string   `json:"price,omitempty" doc:"Decimal string with at most 5 digits, 2 after the point"`
	Link        string   `json:"link,omitempty"`
	TimeMinutes int      `json:"time_minutes,omitempty" doc:"Preparation time in minutes"`
	Tags        []string `json:"tags,omitempty" doc:"IDs of the caller's tags"`
	Ingredients []string `json:"ingredients,omitempty" doc:"IDs of the caller's ingredients"`
}

func (b RecipeBody) request() service.RecipeRequest {
	return service.RecipeRequest{
		Title:       b.Title,
		Price:       b.Price,
		Link:        b.Link,
		TimeMinutes: b.TimeMinutes,
		Tags:        b.Tags,
		Ingredients: b.Ingredients,
	}
}

// ListRecipesInput filters a recipe listing.
type ListRecipesInput struct {
	Authorization string `header:"Authorization"`
	Tags          string `query:"tags" doc:"Comma-separated tag IDs"`
	Ingredients   string `query:"ingredients" doc:"Comma-separated ingredient IDs"`
}

// RecipeListOutput wraps a recipe listing.
type RecipeListOutput struct {
	Body []RecipeResponse
}

// CreateRecipeInput wraps a create request.
type CreateRecipeInput struct {
	Authorization string `header:"Authorization"`
	Body          RecipeBody
}

// RecipeIDInput addresses one recipe.
type RecipeIDInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id"`
}

// ReplaceRecipeInput wraps a full replace.
type ReplaceRecipeInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id"`
	Body          RecipeBody
}

// UpdateRecipeInput wraps a partial update.
type UpdateRecipeInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id"`
	Body          service.RecipePatch
}

// RecipeDetailOutput wraps a single recipe.
type RecipeDetailOutput struct {
	Body RecipeDetailResponse
}

// === Handlers ===

func (s *Server) handleListRecipes(ctx context.Context, input *ListRecipesInput) (*RecipeListOutput, error) {
	user, err := s.authenticate(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}
	recipes, err := s.services.Recipes.List(ctx, user, store.RecipeFilter{
		TagIDs:        splitIDs(input.Tags),
		IngredientIDs: splitIDs(input.Ingredients),
	})
	if err != nil {
		return nil, err
	}

	out := make([]RecipeResponse, 0, len(recipes))
	for _, r := range recipes {
		out = append(out, newRecipeResponse(r))
	}
	return &RecipeListOutput{Body: out}, nil
}

func (s *Server) handleCreateRecipe(ctx context.Context, input *CreateRecipeInput) (*RecipeDetailOutput, error) {
	user, err := s.authenticate(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}
	detail, err := s.services.Recipes.Create(ctx, user, input.Body.request())
	if err != nil {
		return nil, err
	}
	return &RecipeDetailOutput{Body: newRecipeDetailResponse(detail)}, nil
}

func (s *Server) handleGetRecipe(ctx context.Context, input *RecipeIDInput) (*RecipeDetailOutput, error) {
	user, err := s.authenticate(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}
	detail, err := s.services.Recipes.Get(ctx, user, input.ID)
	if err != nil {
		return nil, err
	}
	return &RecipeDetailOutput{Body: newRecipeDetailResponse(detail)}, nil
}

func (s *Server) handleReplaceRecipe(ctx context.Context, input *ReplaceRecipeInput) (*RecipeDetailOutput, error) {
	user, err := s.authenticate(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}
	detail, err := s.services.Recipes.Update(ctx, user, input.ID, input.Body.request().Patch())
	if err != nil {
		return nil, err
	}
	return &RecipeDetailOutput{Body: newRecipeDetailResponse(detail)}, nil
}

func (s *Server) handleUpdateRecipe(ctx context.Context, input *UpdateRecipeInput) (*RecipeDetailOutput, error) {
	user, err := s.authenticate(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}
	detail, err := s.services.Recipes.Update(ctx, user, input.ID, input.Body)
	if err != nil {
		return nil, err
	}
	return &RecipeDetailOutput{Body: newRecipeDetailResponse(detail)}, nil
}

func (s *Server) handleDeleteRecipe(ctx context.Context, input *RecipeIDInput) (*struct{}, error) {
	user, err := s.authenticate(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}
	if err := s.services.Recipes.Delete(ctx, user, input.ID); err != nil {
		return nil, err
	}
	return nil, nil
}

// splitIDs parses a comma-separated ID list, skipping blanks.
func splitIDs(raw string) []string {
	if raw == "" {
		return nil
	}
	var ids []string
	for part := range strings.SplitSeq(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			ids = append(ids, part)
		}
	}
	return ids
}
