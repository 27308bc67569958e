package postgres

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/recordbase/recordbase/internal/domain"
)

const changeLogTable = "change_log"

var changeLogColumns = []string{
	"id", "log_id", "reference_id", "table_name",
	"message", "created_by", "created_by_name", "created",
}

// appendChange inserts one audit entry inside a unit of work so it commits
// atomically with the mutation it records.
func appendChange(ctx context.Context, pgTx pgx.Tx, e domain.ChangeEntry) error {
	sqlStr, args, err := builder.Insert(changeLogTable).
		SetMap(map[string]any{
			"log_id":          e.LogID,
			"reference_id":    e.ReferenceID,
			"table_name":      e.TableName,
			"message":         e.Message,
			"created_by":      e.CreatedBy,
			"created_by_name": e.CreatedByName,
			"created":         e.Created,
		}).
		ToSql()
	if err != nil {
		return fmt.Errorf("postgres.appendChange: build: %w", err)
	}

	_, err = pgTx.Exec(ctx, sqlStr, args...)
	if err != nil {
		return mapError("postgres.appendChange", err)
	}
	return nil
}

// ChangeLogRepo reads back the append-only audit trail. It satisfies
// domain.ChangeLogRepository.
type ChangeLogRepo struct {
	pool *pgxpool.Pool
}

func NewChangeLogRepo(pool *pgxpool.Pool) *ChangeLogRepo {
	return &ChangeLogRepo{pool: pool}
}

func (r *ChangeLogRepo) ListByReference(ctx context.Context, referenceID uuid.UUID, limit int) ([]domain.ChangeEntry, error) {
	b := builder.Select(changeLogColumns...).
		From(changeLogTable).
		Where(sq.Eq{"reference_id": referenceID}).
		OrderBy("created DESC")
	if limit > 0 {
		b = b.Limit(uint64(limit))
	}
	return r.list(ctx, "changeLogRepo.ListByReference", b)
}

func (r *ChangeLogRepo) ListByTable(ctx context.Context, table string, limit, offset int) ([]domain.ChangeEntry, error) {
	b := builder.Select(changeLogColumns...).
		From(changeLogTable).
		Where(sq.Eq{"table_name": table}).
		OrderBy("created DESC")
	if limit > 0 {
		b = b.Limit(uint64(limit))
	}
	if offset > 0 {
		b = b.Offset(uint64(offset))
	}
	return r.list(ctx, "changeLogRepo.ListByTable", b)
}

func (r *ChangeLogRepo) list(ctx context.Context, op string, b sq.SelectBuilder) ([]domain.ChangeEntry, error) {
	sqlStr, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: build: %w", op, err)
	}

	rows, err := r.pool.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, mapError(op, err)
	}
	defer rows.Close()

	var entries []domain.ChangeEntry
	for rows.Next() {
		var e domain.ChangeEntry

		err = rows.Scan(
			&e.ID, &e.LogID, &e.ReferenceID, &e.TableName,
			&e.Message, &e.CreatedBy, &e.CreatedByName, &e.Created,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		entries = append(entries, e)
	}
	err = rows.Err()
	if err != nil {
		return nil, mapError(op, err)
	}
	return entries, nil
}
