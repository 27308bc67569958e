package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// MaxChangeMessageLen bounds the free-text message on a change entry.
const MaxChangeMessageLen = 2048

// ChangeEntry is an immutable audit fact: actor X did action Y to record R
// in table T at time C. Entries are append-only, never mutated or deleted,
// and carry no foreign key to the referenced record — they may outlive a
// physically deleted record.
type ChangeEntry struct {
	ID            int64
	LogID         uuid.UUID
	ReferenceID   uuid.UUID
	TableName     string
	Message       string
	CreatedBy     uuid.UUID
	CreatedByName string
	Created       time.Time
}

// NewChangeEntry builds an entry for the given table and record, stamped with
// the acting user. Over-long messages are truncated.
func NewChangeEntry(table, message string, referenceID uuid.UUID, uc UserContext) ChangeEntry {
	if len(message) > MaxChangeMessageLen {
		message = message[:MaxChangeMessageLen]
	}

	e := ChangeEntry{
		LogID:       uuid.New(),
		ReferenceID: referenceID,
		TableName:   table,
		Message:     message,
		Created:     time.Now().UTC(),
	}
	if uc != nil {
		e.CreatedBy = uc.UserID()
		e.CreatedByName = uc.UserName()
	}
	return e
}

// ChangeLogRepository reads back the audit trail. Appending happens inside a
// unit of work so it commits atomically with the mutation it records.
type ChangeLogRepository interface {
	ListByReference(ctx context.Context, referenceID uuid.UUID, limit int) ([]ChangeEntry, error)
	ListByTable(ctx context.Context, table string, limit, offset int) ([]ChangeEntry, error)
}
