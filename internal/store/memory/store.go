// Package memory implements the record store against process-local maps.
// It backs the engine's tests and small embedded deployments; the postgres
// store is the production implementation of the same capabilities.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/recordbase/recordbase/internal/domain"
	"github.com/recordbase/recordbase/internal/lifecycle"
	"github.com/recordbase/recordbase/internal/query"
)

// Mapping registers one entity family with the store. Soft-vs-physical
// delete is an explicit flag resolved here, once, not a per-call type test.
type Mapping[T domain.Tracked] struct {
	Table string

	// Clone deep-copies a record so callers never alias committed state.
	Clone func(T) T

	// SearchText derives the record's search field, the in-memory stand-in
	// for the store-computed column. May be nil for unsearchable entities.
	SearchText func(T) string

	SoftDelete bool

	// Sort is the entity's registered sort-column map.
	Sort *query.Columns[T]
}

// Store holds the committed state for one entity family plus its change log.
type Store[T domain.Tracked] struct {
	mapping Mapping[T]

	mu      sync.Mutex
	nextID  int64
	records map[uuid.UUID]T
	changes []domain.ChangeEntry
}

// New validates the mapping and returns an empty store.
func New[T domain.Tracked](m Mapping[T]) (*Store[T], error) {
	switch {
	case m.Table == "":
		return nil, errors.New("memory.New: table name is required")
	case m.Clone == nil:
		return nil, errors.New("memory.New: Clone is required")
	case m.Sort == nil:
		return nil, errors.New("memory.New: sort columns are required")
	case !m.Sort.Has(query.ColumnID):
		return nil, errors.New("memory.New: sort columns must include id")
	}
	return &Store[T]{
		mapping: m,
		records: make(map[uuid.UUID]T),
	}, nil
}

// Begin opens a unit of work. Mutations are staged and only applied, with
// conflict checks, on Commit; reads always see the last committed state.
func (s *Store[T]) Begin(_ context.Context) (lifecycle.Tx[T], error) {
	return &tx[T]{store: s}, nil
}

// Changes returns a copy of the appended change log, oldest first.
func (s *Store[T]) Changes() []domain.ChangeEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.ChangeEntry(nil), s.changes...)
}

// Len returns the number of committed records, removed ones included.
func (s *Store[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

type stagedOp[T domain.Tracked] struct {
	insert    *T
	update    *T
	deleteID  *uuid.UUID
	removedBy uuid.UUID
}

type tx[T domain.Tracked] struct {
	store   *Store[T]
	ops     []stagedOp[T]
	changes []domain.ChangeEntry
	done    bool
}

func (t *tx[T]) Find(_ context.Context, publicID uuid.UUID, includeRemoved bool) (T, error) {
	var zero T
	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[publicID]
	if !ok || (!includeRemoved && rec.Meta().IsRemoved) {
		return zero, fmt.Errorf("memory.Find: %s: %w", publicID, domain.ErrNotFound)
	}
	return s.mapping.Clone(rec), nil
}

func (t *tx[T]) Insert(_ context.Context, rec T) error {
	staged := t.store.mapping.Clone(rec)
	t.ops = append(t.ops, stagedOp[T]{insert: &staged})
	return nil
}

func (t *tx[T]) Update(_ context.Context, rec T) error {
	staged := t.store.mapping.Clone(rec)
	t.ops = append(t.ops, stagedOp[T]{update: &staged})
	return nil
}

func (t *tx[T]) Delete(_ context.Context, publicID, removedBy uuid.UUID) error {
	s := t.store
	s.mu.Lock()
	_, ok := s.records[publicID]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("memory.Delete: %s: %w", publicID, domain.ErrNotFound)
	}

	t.ops = append(t.ops, stagedOp[T]{deleteID: &publicID, removedBy: removedBy})
	return nil
}

func (t *tx[T]) AppendChange(_ context.Context, e domain.ChangeEntry) error {
	t.changes = append(t.changes, e)
	return nil
}

func (t *tx[T]) Count(_ context.Context, f query.Filter) (int, error) {
	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.filtered(f)), nil
}

func (t *tx[T]) Fetch(_ context.Context, f query.Filter, o query.Order, offset, limit int) ([]T, error) {
	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()

	matched := s.filtered(f)

	cmp, err := s.mapping.Sort.Compare(o)
	if err != nil {
		return nil, fmt.Errorf("memory.Fetch: %w", err)
	}
	sort.SliceStable(matched, func(i, j int) bool { return cmp(matched[i], matched[j]) < 0 })

	if offset < 0 {
		offset = 0
	}
	if offset >= len(matched) {
		return nil, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(matched) {
		end = len(matched)
	}

	page := make([]T, 0, end-offset)
	for _, rec := range matched[offset:end] {
		page = append(page, s.mapping.Clone(rec))
	}
	return page, nil
}

// Commit applies the staged mutations under the store lock. Uniqueness and
// concurrency-token violations surface as domain.ErrConflict and leave the
// committed state untouched.
func (t *tx[T]) Commit(_ context.Context) (int, error) {
	if t.done {
		return 0, errors.New("memory.Commit: unit of work already closed")
	}
	t.done = true

	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()

	// Validate everything before mutating anything.
	for _, op := range t.ops {
		switch {
		case op.insert != nil:
			id := (*op.insert).Meta().PublicID
			if _, exists := s.records[id]; exists {
				return 0, fmt.Errorf("memory.Commit: duplicate public id %s: %w", id, domain.ErrConflict)
			}
		case op.update != nil:
			meta := (*op.update).Meta()
			current, exists := s.records[meta.PublicID]
			if !exists {
				return 0, fmt.Errorf("memory.Commit: %s: %w", meta.PublicID, domain.ErrNotFound)
			}
			if current.Meta().RowVersion != meta.RowVersion {
				return 0, fmt.Errorf("memory.Commit: stale row version for %s: %w", meta.PublicID, domain.ErrConflict)
			}
		case op.deleteID != nil:
			if _, exists := s.records[*op.deleteID]; !exists {
				return 0, fmt.Errorf("memory.Commit: %s: %w", *op.deleteID, domain.ErrNotFound)
			}
		}
	}

	affected := 0
	for _, op := range t.ops {
		switch {
		case op.insert != nil:
			rec := *op.insert
			meta := rec.Meta()
			s.nextID++
			meta.ID = s.nextID
			meta.RowVersion = 1
			s.refreshSearch(rec)
			s.records[meta.PublicID] = rec
		case op.update != nil:
			rec := *op.update
			meta := rec.Meta()
			meta.ID = s.records[meta.PublicID].Meta().ID
			meta.RowVersion++
			s.refreshSearch(rec)
			s.records[meta.PublicID] = rec
		case op.deleteID != nil:
			if s.mapping.SoftDelete {
				rec := s.mapping.Clone(s.records[*op.deleteID])
				meta := rec.Meta()
				meta.MarkRemoved(op.removedBy)
				meta.RowVersion++
				s.records[*op.deleteID] = rec
			} else {
				delete(s.records, *op.deleteID)
			}
		}
		affected++
	}

	s.changes = append(s.changes, t.changes...)
	affected += len(t.changes)

	t.ops = nil
	t.changes = nil
	return affected, nil
}

func (t *tx[T]) Rollback(_ context.Context) error {
	t.done = true
	t.ops = nil
	t.changes = nil
	return nil
}

// filtered returns the committed records matching the filter, unordered.
// Callers hold s.mu.
func (s *Store[T]) filtered(f query.Filter) []T {
	var out []T
	for _, rec := range s.records {
		meta := rec.Meta()
		if meta.IsRemoved && !f.IncludeRemoved {
			continue
		}
		if f.PublicID != uuid.Nil {
			if meta.PublicID == f.PublicID {
				out = append(out, rec)
			}
			continue
		}
		if !matchesTerms(meta.SearchField, f.Terms) {
			continue
		}
		out = append(out, rec)
	}
	return out
}

func matchesTerms(search string, terms []string) bool {
	for _, term := range terms {
		if !containsFold(search, term) {
			return false
		}
	}
	return true
}

func (s *Store[T]) refreshSearch(rec T) {
	if s.mapping.SearchText != nil {
		rec.Meta().SearchField = s.mapping.SearchText(rec)
	}
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
