// Package search keeps a Bleve full-text index of recipes, tags and
// ingredients. Every document carries its owner so queries stay owner-scoped.
package search

import (
	"github.com/recipebook/recipebook-server/internal/domain"
)

// DocType discriminates documents in the shared index.
type DocType string

// Document types for the search index.
const (
	DocTypeRecipe     DocType = "recipe"
	DocTypeTag        DocType = "tag"
	DocTypeIngredient DocType = "ingredient"
)

// Document is the indexed form of an owned entity.
// Recipes carry their tag and ingredient names so one query finds
// "soup with leeks" without a join.
type Document struct {
	ID          string
	Type        DocType
	OwnerID     string
	Name        string
	Tags        []string
	Ingredients []string
	TimeMinutes int
	Price       float64
}

// ToMap converts the document to the field names used by the mapping.
func (d *Document) ToMap() map[string]any {
	m := map[string]any{
		"id":       d.ID,
		"type":     string(d.Type),
		"owner_id": d.OwnerID,
		"name":     d.Name,
	}
	if d.Type == DocTypeRecipe {
		m["tags"] = d.Tags
		m["ingredients"] = d.Ingredients
		m["time_minutes"] = float64(d.TimeMinutes)
		m["price"] = d.Price
	}
	return m
}

// RecipeDocument builds the document for a recipe. tagNames and
// ingredientNames are the names behind r.TagIDs and r.IngredientIDs.
func RecipeDocument(r *domain.Recipe, tagNames, ingredientNames []string) *Document {
	price, _ := r.Price.Float64()
	return &Document{
		ID:          r.ID,
		Type:        DocTypeRecipe,
		OwnerID:     r.OwnerID,
		Name:        r.Title,
		Tags:        tagNames,
		Ingredients: ingredientNames,
		TimeMinutes: r.TimeMinutes,
		Price:       price,
	}
}

// TagDocument builds the document for a tag.
func TagDocument(t *domain.Tag) *Document {
	return &Document{ID: t.ID, Type: DocTypeTag, OwnerID: t.OwnerID, Name: t.Name}
}

// IngredientDocument builds the document for an ingredient.
func IngredientDocument(i *domain.Ingredient) *Document {
	return &Document{ID: i.ID, Type: DocTypeIngredient, OwnerID: i.OwnerID, Name: i.Name}
}
