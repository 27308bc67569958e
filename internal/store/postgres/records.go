package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/recordbase/recordbase/internal/domain"
	"github.com/recordbase/recordbase/internal/lifecycle"
	"github.com/recordbase/recordbase/internal/query"
)

// Tracked base columns every record table carries, in select order. Entity
// columns follow these in Mapping.Columns.
var baseColumns = []string{
	"id", "public_id",
	"created", "created_by", "modified", "modified_by",
	"removed", "removed_by", "is_removed",
	"row_version", "search_field",
}

// Row is satisfied by pgx.Row and pgx.Rows.
type Row interface {
	Scan(dest ...any) error
}

// ScanBase scans the tracked base columns into meta, then any entity
// destinations. Mapping.Scan implementations build on this.
func ScanBase(r Row, meta *domain.Record, entityDest ...any) error {
	dest := []any{
		&meta.ID, &meta.PublicID,
		&meta.Created, &meta.CreatedBy, &meta.Modified, &meta.ModifiedBy,
		&meta.Removed, &meta.RemovedBy, &meta.IsRemoved,
		&meta.RowVersion, &meta.SearchField,
	}
	return r.Scan(append(dest, entityDest...)...)
}

// Mapping registers one entity family with the store. Soft-vs-physical
// delete is an explicit flag resolved at registration, not a per-call type
// test.
type Mapping[T domain.Tracked] struct {
	Table string

	// EntityColumns are the columns beyond the tracked base, in the order
	// Scan expects them after the base fields.
	EntityColumns []string

	// Scan reads one full row (base columns then entity columns).
	Scan func(r Row) (T, error)

	// EntityValues returns the entity column values written on insert and
	// update, keyed by column name. The base columns are handled here.
	EntityValues func(T) map[string]any

	SoftDelete bool

	// Sort is the entity's registered sort-column map.
	Sort *query.Columns[T]
}

// Records is the record store for one entity family. It satisfies
// lifecycle.Store.
type Records[T domain.Tracked] struct {
	pool    *pgxpool.Pool
	mapping Mapping[T]
}

// NewRecords validates the mapping and binds it to the pool.
func NewRecords[T domain.Tracked](pool *pgxpool.Pool, m Mapping[T]) (*Records[T], error) {
	switch {
	case pool == nil:
		return nil, errors.New("postgres.NewRecords: pool is required")
	case m.Table == "":
		return nil, errors.New("postgres.NewRecords: table name is required")
	case m.Scan == nil:
		return nil, errors.New("postgres.NewRecords: Scan is required")
	case m.EntityValues == nil:
		return nil, errors.New("postgres.NewRecords: EntityValues is required")
	case m.Sort == nil:
		return nil, errors.New("postgres.NewRecords: sort columns are required")
	case !m.Sort.Has(query.ColumnID):
		return nil, errors.New("postgres.NewRecords: sort columns must include id")
	}
	return &Records[T]{pool: pool, mapping: m}, nil
}

// Begin opens a unit of work on a dedicated transaction.
func (r *Records[T]) Begin(ctx context.Context) (lifecycle.Tx[T], error) {
	pgTx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, mapError("postgres.Begin", err)
	}
	return &tx[T]{repo: r, tx: pgTx}, nil
}

func (r *Records[T]) selectColumns() []string {
	return append(append([]string(nil), baseColumns...), r.mapping.EntityColumns...)
}

type tx[T domain.Tracked] struct {
	repo     *Records[T]
	tx       pgx.Tx
	affected int
	done     bool
}

func (t *tx[T]) Find(ctx context.Context, publicID uuid.UUID, includeRemoved bool) (T, error) {
	var zero T
	r := t.repo

	b := builder.Select(r.selectColumns()...).
		From(r.mapping.Table).
		Where(sq.Eq{"public_id": publicID})
	if !includeRemoved {
		b = b.Where(sq.Eq{"is_removed": false})
	}

	sqlStr, args, err := b.ToSql()
	if err != nil {
		return zero, fmt.Errorf("postgres.Find: build: %w", err)
	}

	rec, err := r.mapping.Scan(t.tx.QueryRow(ctx, sqlStr, args...))
	if err != nil {
		return zero, mapError("postgres.Find", err)
	}
	return rec, nil
}

func (t *tx[T]) Insert(ctx context.Context, rec T) error {
	r := t.repo
	meta := rec.Meta()

	values := map[string]any{
		"public_id":   meta.PublicID,
		"created":     meta.Created,
		"created_by":  meta.CreatedBy,
		"modified":    meta.Modified,
		"modified_by": meta.ModifiedBy,
		"removed":     meta.Removed,
		"removed_by":  meta.RemovedBy,
		"is_removed":  meta.IsRemoved,
		"row_version": int64(1),
	}
	for col, v := range r.mapping.EntityValues(rec) {
		values[col] = v
	}

	sqlStr, args, err := builder.Insert(r.mapping.Table).SetMap(values).ToSql()
	if err != nil {
		return fmt.Errorf("postgres.Insert: build: %w", err)
	}

	_, err = t.tx.Exec(ctx, sqlStr, args...)
	if err != nil {
		return mapError("postgres.Insert", err)
	}
	t.affected++
	return nil
}

// Update writes the record back, guarded by the concurrency token it was
// loaded with. Zero rows affected means a concurrent writer got there first.
func (t *tx[T]) Update(ctx context.Context, rec T) error {
	r := t.repo
	meta := rec.Meta()

	values := map[string]any{
		"modified":    meta.Modified,
		"modified_by": meta.ModifiedBy,
		"removed":     meta.Removed,
		"removed_by":  meta.RemovedBy,
		"is_removed":  meta.IsRemoved,
		"row_version": meta.RowVersion + 1,
	}
	for col, v := range r.mapping.EntityValues(rec) {
		values[col] = v
	}

	sqlStr, args, err := builder.Update(r.mapping.Table).
		SetMap(values).
		Where(sq.Eq{"public_id": meta.PublicID, "row_version": meta.RowVersion}).
		ToSql()
	if err != nil {
		return fmt.Errorf("postgres.Update: build: %w", err)
	}

	tag, err := t.tx.Exec(ctx, sqlStr, args...)
	if err != nil {
		return mapError("postgres.Update", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("postgres.Update: stale row version for %s: %w", meta.PublicID, domain.ErrConflict)
	}
	t.affected++
	return nil
}

func (t *tx[T]) Delete(ctx context.Context, publicID, removedBy uuid.UUID) error {
	r := t.repo

	var (
		sqlStr string
		args   []any
		err    error
	)
	if r.mapping.SoftDelete {
		sqlStr, args, err = builder.Update(r.mapping.Table).
			SetMap(map[string]any{
				"removed":    time.Now().UTC(),
				"removed_by": removedBy,
				"is_removed": true,
			}).
			Set("row_version", sq.Expr("row_version + 1")).
			Where(sq.Eq{"public_id": publicID}).
			ToSql()
	} else {
		sqlStr, args, err = builder.Delete(r.mapping.Table).
			Where(sq.Eq{"public_id": publicID}).
			ToSql()
	}
	if err != nil {
		return fmt.Errorf("postgres.Delete: build: %w", err)
	}

	tag, err := t.tx.Exec(ctx, sqlStr, args...)
	if err != nil {
		return mapError("postgres.Delete", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("postgres.Delete: %s: %w", publicID, domain.ErrNotFound)
	}
	t.affected++
	return nil
}

func (t *tx[T]) AppendChange(ctx context.Context, e domain.ChangeEntry) error {
	err := appendChange(ctx, t.tx, e)
	if err != nil {
		return err
	}
	t.affected++
	return nil
}

func (t *tx[T]) Count(ctx context.Context, f query.Filter) (int, error) {
	b := builder.Select("COUNT(*)").From(t.repo.mapping.Table)
	b = filterWhere(b, f)

	sqlStr, args, err := b.ToSql()
	if err != nil {
		return 0, fmt.Errorf("postgres.Count: build: %w", err)
	}

	var count int
	err = t.tx.QueryRow(ctx, sqlStr, args...).Scan(&count)
	if err != nil {
		return 0, mapError("postgres.Count", err)
	}
	return count, nil
}

func (t *tx[T]) Fetch(ctx context.Context, f query.Filter, o query.Order, offset, limit int) ([]T, error) {
	r := t.repo

	b := builder.Select(r.selectColumns()...).From(r.mapping.Table)
	b = filterWhere(b, f)

	b, err := r.mapping.Sort.ApplySQL(b, o)
	if err != nil {
		return nil, fmt.Errorf("postgres.Fetch: %w", err)
	}
	if offset > 0 {
		b = b.Offset(uint64(offset))
	}
	if limit > 0 {
		b = b.Limit(uint64(limit))
	}

	sqlStr, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("postgres.Fetch: build: %w", err)
	}

	rows, err := t.tx.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, mapError("postgres.Fetch", err)
	}
	defer rows.Close()

	var records []T
	for rows.Next() {
		rec, err := r.mapping.Scan(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres.Fetch: scan: %w", err)
		}
		records = append(records, rec)
	}
	err = rows.Err()
	if err != nil {
		return nil, mapError("postgres.Fetch", err)
	}
	return records, nil
}

func (t *tx[T]) Commit(ctx context.Context) (int, error) {
	if t.done {
		return 0, errors.New("postgres.Commit: unit of work already closed")
	}
	t.done = true

	err := t.tx.Commit(ctx)
	if err != nil {
		return 0, mapError("postgres.Commit", err)
	}
	return t.affected, nil
}

func (t *tx[T]) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true

	err := t.tx.Rollback(ctx)
	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return mapError("postgres.Rollback", err)
	}
	return nil
}

// filterWhere translates the engine's closed filter algebra to SQL.
func filterWhere(b sq.SelectBuilder, f query.Filter) sq.SelectBuilder {
	if !f.IncludeRemoved {
		b = b.Where(sq.Eq{"is_removed": false})
	}
	if f.PublicID != uuid.Nil {
		return b.Where(sq.Eq{"public_id": f.PublicID})
	}
	for _, term := range f.Terms {
		b = b.Where(sq.ILike{"search_field": "%" + escapeLike(term) + "%"})
	}
	return b
}

// escapeLike neutralizes LIKE metacharacters in user-supplied terms.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}
