package domain

import (
	"slices"

	"github.com/shopspring/decimal"
)

// Price limits: at most 5 significant digits, 2 of them after the decimal point.
const (
	PriceMaxDigits     = 5
	PriceDecimalPlaces = 2
)

// Recipe is a user-owned recipe. Tag and ingredient references are sets of IDs
// that must point at entities owned by the same user.
type Recipe struct {
	Owned
	Title         string          `json:"title"`
	Price         decimal.Decimal `json:"price"`
	Link          string          `json:"link,omitempty"`
	TimeMinutes   int             `json:"time_minutes"`
	TagIDs        []string        `json:"tags"`
	IngredientIDs []string        `json:"ingredients"`
	Image         *RecipeImage    `json:"image,omitempty"`
}

// RecipeImage describes the single stored image of a recipe.
// Filename is generated on upload and never derived from the client's filename.
type RecipeImage struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	BlurHash    string `json:"blur_hash,omitempty"`
}

// SetTags replaces the tag set, dropping duplicates and keeping a stable order.
func (r *Recipe) SetTags(ids []string) {
	r.TagIDs = uniqueSorted(ids)
}

// SetIngredients replaces the ingredient set, dropping duplicates and keeping a stable order.
func (r *Recipe) SetIngredients(ids []string) {
	r.IngredientIDs = uniqueSorted(ids)
}

// HasImage reports whether an image is attached.
func (r *Recipe) HasImage() bool {
	return r.Image != nil && r.Image.Filename != ""
}

// PriceFits reports whether p can be stored with the recipe price precision.
func PriceFits(p decimal.Decimal) bool {
	if p.Exponent() < -PriceDecimalPlaces {
		// More fractional digits than allowed, unless they are trailing zeros.
		if !p.Equal(p.Round(PriceDecimalPlaces)) {
			return false
		}
	}
	limit := decimal.New(1, PriceMaxDigits-PriceDecimalPlaces)
	return p.Abs().LessThan(limit)
}

func uniqueSorted(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != "" {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
