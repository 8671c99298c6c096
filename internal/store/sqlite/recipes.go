package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/recipebook/recipebook-server/internal/domain"
	"github.com/recipebook/recipebook-server/internal/store"
)

// recipeColumns is the ordered list of columns selected in recipe queries.
// Must match the scan order in scanRecipe.
const recipeColumns = `id, owner_id, title, price, link, time_minutes,
	image_filename, image_content_type, image_size, image_blur_hash, created_at, updated_at`

// scanRecipe scans a recipe row. Tag and ingredient IDs are loaded separately.
func scanRecipe(scanner interface{ Scan(dest ...any) error }) (*domain.Recipe, error) {
	var r domain.Recipe

	var (
		price                string
		imageFilename        sql.NullString
		imageContentType     sql.NullString
		imageSize            sql.NullInt64
		imageBlurHash        sql.NullString
		createdAt, updatedAt string
	)

	err := scanner.Scan(
		&r.ID,
		&r.OwnerID,
		&r.Title,
		&price,
		&r.Link,
		&r.TimeMinutes,
		&imageFilename,
		&imageContentType,
		&imageSize,
		&imageBlurHash,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	r.Price, err = decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("parse price %q: %w", price, err)
	}

	if imageFilename.Valid && imageFilename.String != "" {
		r.Image = &domain.RecipeImage{
			Filename:    imageFilename.String,
			ContentType: imageContentType.String,
			Size:        imageSize.Int64,
			BlurHash:    imageBlurHash.String,
		}
	}

	r.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	r.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}

	r.TagIDs = []string{}
	r.IngredientIDs = []string{}
	return &r, nil
}

func imageArgs(img *domain.RecipeImage) []any {
	if img == nil || img.Filename == "" {
		return []any{nil, nil, nil, nil}
	}
	return []any{img.Filename, img.ContentType, img.Size, nullString(img.BlurHash)}
}

// ListRecipes returns recipes in scope, ordered by title descending.
// Each non-empty filter list keeps recipes linked to at least one of its IDs.
func (s *Store) ListRecipes(ctx context.Context, scope store.Scope, filter store.RecipeFilter) ([]*domain.Recipe, error) {
	where, args := scopeClause("owner_id", scope)
	clauses := []string{where}

	if len(filter.TagIDs) > 0 {
		clauses = append(clauses, fmt.Sprintf(
			"id IN (SELECT recipe_id FROM recipe_tags WHERE tag_id IN (%s))", placeholders(len(filter.TagIDs))))
		for _, id := range filter.TagIDs {
			args = append(args, id)
		}
	}
	if len(filter.IngredientIDs) > 0 {
		clauses = append(clauses, fmt.Sprintf(
			"id IN (SELECT recipe_id FROM recipe_ingredients WHERE ingredient_id IN (%s))", placeholders(len(filter.IngredientIDs))))
		for _, id := range filter.IngredientIDs {
			args = append(args, id)
		}
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+recipeColumns+` FROM recipes WHERE `+strings.Join(clauses, " AND ")+
			` ORDER BY title DESC, id ASC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	recipes := []*domain.Recipe{}
	for rows.Next() {
		r, err := scanRecipe(rows)
		if err != nil {
			return nil, err
		}
		recipes = append(recipes, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, r := range recipes {
		if err := s.loadRecipeLinks(ctx, r); err != nil {
			return nil, err
		}
	}
	return recipes, nil
}

// GetRecipe returns a recipe in scope with its tag and ingredient IDs.
// Returns store.ErrNotFound if the recipe does not exist or is out of scope.
func (s *Store) GetRecipe(ctx context.Context, scope store.Scope, id string) (*domain.Recipe, error) {
	where, args := scopeClause("owner_id", scope)
	row := s.db.QueryRowContext(ctx,
		`SELECT `+recipeColumns+` FROM recipes WHERE id = ? AND `+where,
		append([]any{id}, args...)...)

	r, err := scanRecipe(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := s.loadRecipeLinks(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// CreateRecipe inserts a recipe and its links in one transaction.
func (s *Store) CreateRecipe(ctx context.Context, r *domain.Recipe) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	args := []any{r.ID, r.OwnerID, r.Title, r.Price.String(), r.Link, r.TimeMinutes}
	args = append(args, imageArgs(r.Image)...)
	args = append(args, formatTime(r.CreatedAt), formatTime(r.UpdatedAt))

	_, err = tx.ExecContext(ctx, `
		INSERT INTO recipes (
			id, owner_id, title, price, link, time_minutes,
			image_filename, image_content_type, image_size, image_blur_hash, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrAlreadyExists
		}
		return err
	}

	if err := writeRecipeLinks(ctx, tx, r); err != nil {
		return err
	}
	return tx.Commit()
}

// UpdateRecipe writes every mutable recipe column and replaces its links.
// Returns store.ErrNotFound if the recipe does not exist or is out of scope.
func (s *Store) UpdateRecipe(ctx context.Context, scope store.Scope, r *domain.Recipe) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	where, scopeArgs := scopeClause("owner_id", scope)
	args := []any{r.Title, r.Price.String(), r.Link, r.TimeMinutes}
	args = append(args, imageArgs(r.Image)...)
	args = append(args, formatTime(r.UpdatedAt), r.ID)
	args = append(args, scopeArgs...)

	result, err := tx.ExecContext(ctx, `
		UPDATE recipes SET
			title = ?,
			price = ?,
			link = ?,
			time_minutes = ?,
			image_filename = ?,
			image_content_type = ?,
			image_size = ?,
			image_blur_hash = ?,
			updated_at = ?
		WHERE id = ? AND `+where, args...)
	if err != nil {
		return err
	}
	if err := requireAffected(result); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM recipe_tags WHERE recipe_id = ?`, r.ID); err != nil {
		return fmt.Errorf("clear recipe tags: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM recipe_ingredients WHERE recipe_id = ?`, r.ID); err != nil {
		return fmt.Errorf("clear recipe ingredients: %w", err)
	}
	if err := writeRecipeLinks(ctx, tx, r); err != nil {
		return err
	}
	return tx.Commit()
}

// DeleteRecipe removes a recipe in scope. Links cascade.
func (s *Store) DeleteRecipe(ctx context.Context, scope store.Scope, id string) error {
	where, args := scopeClause("owner_id", scope)
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM recipes WHERE id = ? AND `+where, append([]any{id}, args...)...)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

// writeRecipeLinks inserts the link rows. A tag or ingredient deleted since
// the caller checked it fails the foreign key and yields *store.ReferenceError.
func writeRecipeLinks(ctx context.Context, tx *sql.Tx, r *domain.Recipe) error {
	for _, tagID := range r.TagIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO recipe_tags (recipe_id, tag_id) VALUES (?, ?)`, r.ID, tagID); err != nil {
			if isForeignKeyViolation(err) {
				return &store.ReferenceError{Field: "tags", ID: tagID, Err: err}
			}
			return fmt.Errorf("link tag %s: %w", tagID, err)
		}
	}
	for _, ingredientID := range r.IngredientIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO recipe_ingredients (recipe_id, ingredient_id) VALUES (?, ?)`, r.ID, ingredientID); err != nil {
			if isForeignKeyViolation(err) {
				return &store.ReferenceError{Field: "ingredients", ID: ingredientID, Err: err}
			}
			return fmt.Errorf("link ingredient %s: %w", ingredientID, err)
		}
	}
	return nil
}

func (s *Store) loadRecipeLinks(ctx context.Context, r *domain.Recipe) error {
	tagIDs, err := s.queryIDs(ctx, `SELECT tag_id FROM recipe_tags WHERE recipe_id = ? ORDER BY tag_id`, r.ID)
	if err != nil {
		return fmt.Errorf("load recipe tags: %w", err)
	}
	ingredientIDs, err := s.queryIDs(ctx, `SELECT ingredient_id FROM recipe_ingredients WHERE recipe_id = ? ORDER BY ingredient_id`, r.ID)
	if err != nil {
		return fmt.Errorf("load recipe ingredients: %w", err)
	}
	r.TagIDs = tagIDs
	r.IngredientIDs = ingredientIDs
	return nil
}

func (s *Store) queryIDs(ctx context.Context, q string, args ...any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
