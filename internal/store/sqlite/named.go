package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/recipebook/recipebook-server/internal/domain"
	"github.com/recipebook/recipebook-server/internal/store"
)

// namedEntity is the constraint satisfied by *domain.Tag and *domain.Ingredient.
type namedEntity[T any] interface {
	*T
	Base() *domain.NamedEntity
}

// namedColumns is the ordered list of columns selected from tags and ingredients.
// Must match the scan order in scanNamed.
const namedColumns = `id, owner_id, name, created_at, updated_at`

// namedRepo stores tags and ingredients. Both tables share one shape and
// differ only in their table and recipe join table names.
type namedRepo[T any, PT namedEntity[T]] struct {
	db        *sql.DB
	table     string
	joinTable string
	joinCol   string
}

func newNamedRepo[T any, PT namedEntity[T]](db *sql.DB, table, joinTable, joinCol string) *namedRepo[T, PT] {
	return &namedRepo[T, PT]{db: db, table: table, joinTable: joinTable, joinCol: joinCol}
}

func (r *namedRepo[T, PT]) scan(scanner interface{ Scan(dest ...any) error }) (*T, error) {
	var (
		v                    T
		createdAt, updatedAt string
	)
	e := PT(&v).Base()

	if err := scanner.Scan(&e.ID, &e.OwnerID, &e.Name, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	var err error
	e.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	e.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *namedRepo[T, PT]) query(ctx context.Context, q string, args ...any) ([]*T, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*T{}
	for rows.Next() {
		v, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// List returns the entities visible in scope, ordered by name descending.
func (r *namedRepo[T, PT]) List(ctx context.Context, scope store.Scope, filter store.NamedFilter) ([]*T, error) {
	where, args := scopeClause("owner_id", scope)
	if filter.AssignedOnly {
		where += fmt.Sprintf(" AND id IN (SELECT %s FROM %s)", r.joinCol, r.joinTable)
	}
	q := fmt.Sprintf(`SELECT %s FROM %s WHERE %s ORDER BY name DESC, id ASC`, namedColumns, r.table, where)
	return r.query(ctx, q, args...)
}

// Get returns one entity. Rows outside scope are reported as store.ErrNotFound.
func (r *namedRepo[T, PT]) Get(ctx context.Context, scope store.Scope, id string) (*T, error) {
	where, args := scopeClause("owner_id", scope)
	q := fmt.Sprintf(`SELECT %s FROM %s WHERE id = ? AND %s`, namedColumns, r.table, where)

	v, err := r.scan(r.db.QueryRowContext(ctx, q, append([]any{id}, args...)...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

// GetMany returns the entities in scope whose IDs are listed.
// Missing or out-of-scope IDs are silently absent from the result.
func (r *namedRepo[T, PT]) GetMany(ctx context.Context, scope store.Scope, ids []string) ([]*T, error) {
	if len(ids) == 0 {
		return []*T{}, nil
	}
	where, scopeArgs := scopeClause("owner_id", scope)
	q := fmt.Sprintf(`SELECT %s FROM %s WHERE id IN (%s) AND %s ORDER BY name DESC, id ASC`,
		namedColumns, r.table, placeholders(len(ids)), where)

	args := make([]any, 0, len(ids)+len(scopeArgs))
	for _, id := range ids {
		args = append(args, id)
	}
	args = append(args, scopeArgs...)
	return r.query(ctx, q, args...)
}

// Create inserts a new entity.
func (r *namedRepo[T, PT]) Create(ctx context.Context, v *T) error {
	e := PT(v).Base()
	_, err := r.db.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO %s (id, owner_id, name, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`, r.table),
		e.ID, e.OwnerID, e.Name, formatTime(e.CreatedAt), formatTime(e.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// Update writes the name of an entity in scope. The owner never changes.
func (r *namedRepo[T, PT]) Update(ctx context.Context, scope store.Scope, v *T) error {
	e := PT(v).Base()
	where, args := scopeClause("owner_id", scope)
	result, err := r.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE %s SET name = ?, updated_at = ? WHERE id = ? AND %s`, r.table, where),
		append([]any{e.Name, formatTime(e.UpdatedAt), e.ID}, args...)...,
	)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

// Delete removes an entity in scope along with its recipe links.
func (r *namedRepo[T, PT]) Delete(ctx context.Context, scope store.Scope, id string) error {
	where, args := scopeClause("owner_id", scope)
	result, err := r.db.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE id = ? AND %s`, r.table, where),
		append([]any{id}, args...)...,
	)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

func requireAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
