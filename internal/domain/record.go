package domain

import (
	"time"

	"github.com/google/uuid"
)

// Record is the base shape every persisted entity embeds. The store assigns
// ID sequentially; PublicID is the stable caller-visible identifier and is
// immutable once set. SearchField is maintained by the store (a concatenation
// of the entity's searchable columns) and is read-only here.
type Record struct {
	ID         int64
	PublicID   uuid.UUID
	Created    time.Time
	CreatedBy  uuid.UUID
	Modified   time.Time
	ModifiedBy uuid.UUID
	Removed    *time.Time
	RemovedBy  uuid.UUID
	IsRemoved  bool

	// RowVersion is the optimistic-concurrency token. It changes on every
	// successful write; the store rejects updates carrying a stale value.
	RowVersion int64

	SearchField string
}

// Tracked is implemented by any entity embedding Record.
type Tracked interface {
	Meta() *Record
}

// Meta returns the embedded base, letting generic code reach the tracking
// fields of any entity.
func (r *Record) Meta() *Record { return r }

// SetCreated stamps creation and modification tracking for a brand-new
// record. A zero userID leaves the actor fields untouched.
func (r *Record) SetCreated(userID uuid.UUID) {
	now := time.Now().UTC()
	r.Created = now
	r.Modified = now
	if userID != uuid.Nil {
		r.CreatedBy = userID
		r.ModifiedBy = userID
	}
}

// SetModified refreshes modification tracking on an existing record.
func (r *Record) SetModified(userID uuid.UUID) {
	r.Modified = time.Now().UTC()
	if userID != uuid.Nil {
		r.ModifiedBy = userID
	}
}

// MarkRemoved soft-deletes the record. IsRemoved=true always comes with a
// non-nil Removed timestamp.
func (r *Record) MarkRemoved(userID uuid.UUID) {
	now := time.Now().UTC()
	r.Removed = &now
	r.IsRemoved = true
	if userID != uuid.Nil {
		r.RemovedBy = userID
	}
}

// ModelTracking mirrors a record's identity and audit fields on a detail
// model for presentation. Existing distinguishes a stored record from a
// fresh draft.
type ModelTracking struct {
	PublicID   uuid.UUID `json:"publicId"`
	Created    time.Time `json:"created"`
	CreatedBy  uuid.UUID `json:"createdBy"`
	Modified   time.Time `json:"modified"`
	ModifiedBy uuid.UUID `json:"modifiedBy"`
	Existing   bool      `json:"existing"`
}

// DetailModel is implemented by any detail view embedding ModelTracking.
type DetailModel interface {
	Tracking() *ModelTracking
}

// Tracking returns the embedded tracking block.
func (m *ModelTracking) Tracking() *ModelTracking { return m }

// InitTracking seeds a fresh draft: not existing, the given public identifier,
// and creation fields from the acting user.
func (m *ModelTracking) InitTracking(publicID, userID uuid.UUID) {
	now := time.Now().UTC()
	m.Existing = false
	m.PublicID = publicID
	m.Created = now
	m.Modified = now
	if userID != uuid.Nil {
		m.CreatedBy = userID
		m.ModifiedBy = userID
	}
}

// ReadTracking copies a stored record's tracking fields onto the model and
// flags it as existing.
func (m *ModelTracking) ReadTracking(rec *Record) {
	m.Existing = true
	m.PublicID = rec.PublicID
	m.Created = rec.Created
	m.Modified = rec.Modified
	m.CreatedBy = rec.CreatedBy
	m.ModifiedBy = rec.ModifiedBy
}
