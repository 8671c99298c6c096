package api

import (
	"github.com/recipebook/recipebook-server/internal/service"
)

// Services groups the business services used by the API server.
type Services struct {
	Identity    *service.IdentityService
	Credentials *service.CredentialService
	Tags        *service.TagService
	Ingredients *service.IngredientService
	Recipes     *service.RecipeService
	Admin       *service.AdminService
	Search      *service.SearchService
}
