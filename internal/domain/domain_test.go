package domain_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recordbase/recordbase/internal/domain"
)

// ---------------------------------------------------------------------------
// Record tracking
// ---------------------------------------------------------------------------

func TestRecordSetCreated(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	rec := &domain.Record{}
	rec.SetCreated(userID)

	assert.False(t, rec.Created.IsZero())
	assert.True(t, rec.Created.Equal(rec.Modified), "fresh records carry identical created/modified stamps")
	assert.Equal(t, userID, rec.CreatedBy)
	assert.Equal(t, userID, rec.ModifiedBy)
	assert.Equal(t, time.UTC, rec.Created.Location())
}

func TestRecordSetCreatedZeroUser(t *testing.T) {
	t.Parallel()

	rec := &domain.Record{}
	rec.SetCreated(uuid.Nil)

	assert.False(t, rec.Created.IsZero())
	assert.Equal(t, uuid.Nil, rec.CreatedBy, "zero actor leaves CreatedBy untouched")
	assert.Equal(t, uuid.Nil, rec.ModifiedBy)
}

func TestRecordSetModified(t *testing.T) {
	t.Parallel()

	creator := uuid.New()
	editor := uuid.New()

	rec := &domain.Record{}
	rec.SetCreated(creator)
	created := rec.Created

	time.Sleep(2 * time.Millisecond)
	rec.SetModified(editor)

	assert.True(t, rec.Created.Equal(created), "creation stamp is immutable")
	assert.True(t, rec.Modified.After(rec.Created))
	assert.Equal(t, creator, rec.CreatedBy)
	assert.Equal(t, editor, rec.ModifiedBy)
}

func TestRecordMarkRemoved(t *testing.T) {
	t.Parallel()

	remover := uuid.New()
	rec := &domain.Record{}
	rec.SetCreated(uuid.New())
	rec.MarkRemoved(remover)

	assert.True(t, rec.IsRemoved)
	require.NotNil(t, rec.Removed, "IsRemoved always pairs with a removal timestamp")
	assert.Equal(t, remover, rec.RemovedBy)
}

func TestRecordMeta(t *testing.T) {
	t.Parallel()

	type entity struct {
		domain.Record
		Name string
	}

	e := &entity{Name: "thing"}
	e.Meta().PublicID = uuid.New()

	assert.Equal(t, e.PublicID, e.Meta().PublicID, "Meta exposes the embedded base")
}

// ---------------------------------------------------------------------------
// ModelTracking
// ---------------------------------------------------------------------------

func TestInitTracking(t *testing.T) {
	t.Parallel()

	publicID := uuid.New()
	userID := uuid.New()

	m := &domain.ModelTracking{}
	m.InitTracking(publicID, userID)

	assert.False(t, m.Existing, "a fresh draft is never flagged existing")
	assert.Equal(t, publicID, m.PublicID)
	assert.Equal(t, userID, m.CreatedBy)
	assert.Equal(t, userID, m.ModifiedBy)
	assert.True(t, m.Created.Equal(m.Modified))
}

func TestReadTracking(t *testing.T) {
	t.Parallel()

	rec := &domain.Record{
		PublicID:   uuid.New(),
		Created:    time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
		CreatedBy:  uuid.New(),
		Modified:   time.Date(2025, 3, 2, 9, 0, 0, 0, time.UTC),
		ModifiedBy: uuid.New(),
	}

	m := &domain.ModelTracking{}
	m.ReadTracking(rec)

	assert.True(t, m.Existing)
	assert.Equal(t, rec.PublicID, m.PublicID)
	assert.Equal(t, rec.Created, m.Created)
	assert.Equal(t, rec.CreatedBy, m.CreatedBy)
	assert.Equal(t, rec.Modified, m.Modified)
	assert.Equal(t, rec.ModifiedBy, m.ModifiedBy)
}

// ---------------------------------------------------------------------------
// ChangeEntry
// ---------------------------------------------------------------------------

type stubUser struct {
	id   uuid.UUID
	name string
}

func (s stubUser) IsAuthenticated() bool { return true }
func (s stubUser) UserID() uuid.UUID     { return s.id }
func (s stubUser) UserName() string      { return s.name }
func (s stubUser) CanDesign() bool       { return true }

func TestNewChangeEntry(t *testing.T) {
	t.Parallel()

	refID := uuid.New()
	actor := stubUser{id: uuid.New(), name: "Dana"}

	e := domain.NewChangeEntry("widgets", "Modified", refID, actor)

	assert.NotEqual(t, uuid.Nil, e.LogID)
	assert.Equal(t, refID, e.ReferenceID)
	assert.Equal(t, "widgets", e.TableName)
	assert.Equal(t, "Modified", e.Message)
	assert.Equal(t, actor.id, e.CreatedBy)
	assert.Equal(t, "Dana", e.CreatedByName)
	assert.False(t, e.Created.IsZero())
}

func TestNewChangeEntryTruncatesMessage(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("x", domain.MaxChangeMessageLen+500)
	e := domain.NewChangeEntry("widgets", long, uuid.New(), stubUser{id: uuid.New()})

	assert.Len(t, e.Message, domain.MaxChangeMessageLen)
}

func TestNewChangeEntryNilUser(t *testing.T) {
	t.Parallel()

	e := domain.NewChangeEntry("widgets", "Added", uuid.New(), nil)

	assert.Equal(t, uuid.Nil, e.CreatedBy)
	assert.Empty(t, e.CreatedByName)
}

// ---------------------------------------------------------------------------
// Result mapping
// ---------------------------------------------------------------------------

func TestResultFromError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		wantCode int
		wantMsg  string
	}{
		{name: "nil is OK", err: nil, wantCode: domain.StatusOK, wantMsg: "OK"},
		{name: "unauthorized", err: domain.ErrUnauthorized, wantCode: domain.StatusForbidden, wantMsg: "Unauthorized"},
		{name: "forbidden", err: domain.ErrForbidden, wantCode: domain.StatusForbidden, wantMsg: "No design rights"},
		{name: "not found", err: domain.ErrNotFound, wantCode: domain.StatusNotFound, wantMsg: "Not found"},
		{name: "wrapped not found", err: errors.Join(errors.New("store"), domain.ErrNotFound), wantCode: domain.StatusNotFound, wantMsg: "Not found"},
		{name: "conflict keeps detail", err: domain.ErrConflict, wantCode: domain.StatusConflict, wantMsg: domain.ErrConflict.Error()},
		{name: "unknown is internal", err: errors.New("disk on fire"), wantCode: domain.StatusInternal, wantMsg: "disk on fire"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			res := domain.ResultFromError(tc.err)
			assert.Equal(t, tc.wantCode, res.Code)
			assert.Equal(t, tc.wantMsg, res.Message)
		})
	}
}

func TestResultIsError(t *testing.T) {
	t.Parallel()

	assert.False(t, domain.Result{Code: domain.StatusOK}.IsError())
	assert.False(t, domain.Result{Code: domain.StatusNoContent}.IsError())
	assert.True(t, domain.Result{Code: domain.StatusForbidden}.IsError())
	assert.True(t, domain.Result{Code: domain.StatusNotFound}.IsError())
	assert.True(t, domain.Result{Code: domain.StatusConflict}.IsError())
	assert.True(t, domain.Result{Code: domain.StatusInternal}.IsError())
}
