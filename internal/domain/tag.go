package domain

// Tag is a user-owned label that can be attached to that user's recipes.
type Tag struct {
	NamedEntity
}

// Ingredient is a user-owned ingredient that can be attached to that user's recipes.
type Ingredient struct {
	NamedEntity
}

// NewTag builds a tag owned by ownerID.
func NewTag(id, ownerID, name string) *Tag {
	t := &Tag{NamedEntity{Owned: Owned{ID: id, OwnerID: ownerID}, Name: name}}
	t.InitTimestamps()
	return t
}

// NewIngredient builds an ingredient owned by ownerID.
func NewIngredient(id, ownerID, name string) *Ingredient {
	i := &Ingredient{NamedEntity{Owned: Owned{ID: id, OwnerID: ownerID}, Name: name}}
	i.InitTimestamps()
	return i
}
