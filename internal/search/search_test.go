package search

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recipebook/recipebook-server/internal/domain"
)

func newTestIndex(t *testing.T) *SearchIndex {
	t.Helper()
	idx, err := NewSearchIndex(Options{})
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })
	return idx
}

func recipe(id, owner, title string) *domain.Recipe {
	return &domain.Recipe{
		Owned:       domain.Owned{ID: id, OwnerID: owner},
		Title:       title,
		Price:       decimal.RequireFromString("4.20"),
		TimeMinutes: 15,
	}
}

func TestSearch_OwnerScoped(t *testing.T) {
	idx := newTestIndex(t)
	require.NoError(t, idx.Index(RecipeDocument(recipe("rcp-1", "usr-a", "Leek soup"), nil, nil)))
	require.NoError(t, idx.Index(RecipeDocument(recipe("rcp-2", "usr-b", "Leek pie"), nil, nil)))

	res, err := idx.Search(context.Background(), Params{Query: "leek", OwnerID: "usr-a"})
	require.NoError(t, err)
	require.Len(t, res.Hits, 1)
	assert.Equal(t, "rcp-1", res.Hits[0].ID)
	assert.Equal(t, DocTypeRecipe, res.Hits[0].Type)
	assert.Equal(t, "Leek soup", res.Hits[0].Name)

	all, err := idx.Search(context.Background(), Params{Query: "leek", AllOwners: true})
	require.NoError(t, err)
	assert.Len(t, all.Hits, 2)
}

func TestSearch_MatchesTagAndIngredientNames(t *testing.T) {
	idx := newTestIndex(t)
	doc := RecipeDocument(recipe("rcp-1", "usr-a", "Weeknight bowl"), []string{"vegan"}, []string{"chickpeas", "rice"})
	require.NoError(t, idx.Index(doc))

	res, err := idx.Search(context.Background(), Params{Query: "chickpeas", OwnerID: "usr-a"})
	require.NoError(t, err)
	require.Len(t, res.Hits, 1)
	assert.Equal(t, "rcp-1", res.Hits[0].ID)

	res, err = idx.Search(context.Background(), Params{Query: "vegan", OwnerID: "usr-a"})
	require.NoError(t, err)
	assert.Len(t, res.Hits, 1)
}

func TestSearch_TypeFilterAndPrefix(t *testing.T) {
	idx := newTestIndex(t)
	require.NoError(t, idx.IndexBatch([]*Document{
		TagDocument(domain.NewTag("tag-1", "usr-a", "breakfast")),
		IngredientDocument(domain.NewIngredient("ing-1", "usr-a", "bread flour")),
		RecipeDocument(recipe("rcp-1", "usr-a", "Breakfast bread"), nil, nil),
	}))

	count, err := idx.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), count)

	res, err := idx.Search(context.Background(), Params{Query: "brea", OwnerID: "usr-a"})
	require.NoError(t, err)
	assert.Len(t, res.Hits, 3, "prefix should reach every document")

	res, err = idx.Search(context.Background(), Params{Query: "bread", OwnerID: "usr-a", Types: []DocType{DocTypeIngredient}})
	require.NoError(t, err)
	require.Len(t, res.Hits, 1)
	assert.Equal(t, "ing-1", res.Hits[0].ID)
}

func TestSearch_DeleteRemovesHits(t *testing.T) {
	idx := newTestIndex(t)
	require.NoError(t, idx.Index(TagDocument(domain.NewTag("tag-1", "usr-a", "dessert"))))
	require.NoError(t, idx.Delete("tag-1"))
	require.NoError(t, idx.Delete("tag-missing"))

	res, err := idx.Search(context.Background(), Params{Query: "dessert", OwnerID: "usr-a"})
	require.NoError(t, err)
	assert.Empty(t, res.Hits)
}

func TestSearch_EmptyQueryOrScope(t *testing.T) {
	idx := newTestIndex(t)
	require.NoError(t, idx.Index(TagDocument(domain.NewTag("tag-1", "usr-a", "dessert"))))

	res, err := idx.Search(context.Background(), Params{Query: "   ", OwnerID: "usr-a"})
	require.NoError(t, err)
	assert.Empty(t, res.Hits)

	res, err = idx.Search(context.Background(), Params{Query: "dessert"})
	require.NoError(t, err)
	assert.Empty(t, res.Hits)
}

func TestNewSearchIndex_OnDiskReopen(t *testing.T) {
	dir := t.TempDir()

	idx, err := NewSearchIndex(Options{DataPath: dir})
	require.NoError(t, err)
	require.NoError(t, idx.Index(TagDocument(domain.NewTag("tag-1", "usr-a", "dessert"))))
	require.NoError(t, idx.Close())

	reopened, err := NewSearchIndex(Options{DataPath: dir})
	require.NoError(t, err)
	defer reopened.Close()

	count, err := reopened.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
}
