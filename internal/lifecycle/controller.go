// Package lifecycle implements the generic record lifecycle controller: the
// orchestrator tying authorization, view mapping, audit logging, and
// persistence together for a single entity family.
package lifecycle

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/recordbase/recordbase/internal/domain"
	"github.com/recordbase/recordbase/internal/query"
)

// Tx is one unit of work against the record store. Every controller
// operation opens its own Tx and releases it on all exit paths; mutations
// become visible only after Commit.
type Tx[T domain.Tracked] interface {
	query.Source[T]

	// Find loads a record by public identifier. It returns
	// domain.ErrNotFound when absent, or when soft-deleted and
	// includeRemoved is false.
	Find(ctx context.Context, publicID uuid.UUID, includeRemoved bool) (T, error)

	Insert(ctx context.Context, rec T) error

	// Update persists a loaded record, guarded by its concurrency token.
	// A stale token surfaces as domain.ErrConflict.
	Update(ctx context.Context, rec T) error

	// Delete soft-deletes when the entity is registered as soft-deletable,
	// physically deletes otherwise. removedBy stamps the soft-delete actor.
	Delete(ctx context.Context, publicID, removedBy uuid.UUID) error

	AppendChange(ctx context.Context, e domain.ChangeEntry) error

	// Commit returns the number of records the unit of work touched.
	Commit(ctx context.Context) (int, error)
	Rollback(ctx context.Context) error
}

// Store opens units of work for one entity family.
type Store[T domain.Tracked] interface {
	Begin(ctx context.Context) (Tx[T], error)
}

// Config wires one entity family into a controller. All mapping functions
// are required; Access is optional and defaults to the user context's
// design right.
type Config[TData domain.Tracked, TList any, TDetail domain.DetailModel] struct {
	Store Store[TData]

	// Table names the entity in audit entries and messages.
	Table string

	// NewRecord returns a blank record; NewDetail a blank detail model.
	NewRecord func() TData
	NewDetail func() TDetail

	// ToList projects a record to its list view.
	ToList func(TData) TList

	// ToDetail projects a record for editing. The controller stamps the
	// tracking block afterwards, mappers only fill entity fields.
	ToDetail func(context.Context, TData) (TDetail, error)

	// Apply copies detail-model fields onto a record on save.
	Apply func(context.Context, TDetail, TData) (TData, error)

	// Access, when set, replaces the default design-right check and may
	// scope the decision to the specific record.
	Access domain.AccessCheck
}

// Controller exposes the five lifecycle operations for one entity family.
// It holds no per-call state; all operations are safe for concurrent use.
type Controller[TData domain.Tracked, TList any, TDetail domain.DetailModel] struct {
	cfg Config[TData, TList, TDetail]
}

// New validates the wiring and returns a controller.
func New[TData domain.Tracked, TList any, TDetail domain.DetailModel](cfg Config[TData, TList, TDetail]) (*Controller[TData, TList, TDetail], error) {
	switch {
	case cfg.Store == nil:
		return nil, errors.New("lifecycle.New: store is required")
	case cfg.Table == "":
		return nil, errors.New("lifecycle.New: table name is required")
	case cfg.NewRecord == nil:
		return nil, errors.New("lifecycle.New: NewRecord is required")
	case cfg.NewDetail == nil:
		return nil, errors.New("lifecycle.New: NewDetail is required")
	case cfg.ToList == nil:
		return nil, errors.New("lifecycle.New: ToList is required")
	case cfg.ToDetail == nil:
		return nil, errors.New("lifecycle.New: ToDetail is required")
	case cfg.Apply == nil:
		return nil, errors.New("lifecycle.New: Apply is required")
	}
	return &Controller[TData, TList, TDetail]{cfg: cfg}, nil
}

// Blank returns an empty detail model, for callers that need a decode
// target before Save.
func (c *Controller[TData, TList, TDetail]) Blank() TDetail {
	return c.cfg.NewDetail()
}

// Initialize prepares a detail model for editing. A parseable identifier
// matching a stored, non-removed record loads that record flagged existing;
// anything else yields a fresh draft with a generated (or adopted) public
// identifier. Two calls with an absent identifier yield two distinct drafts.
func (c *Controller[TData, TList, TDetail]) Initialize(ctx context.Context, id string, uc domain.UserContext) (TDetail, error) {
	var zero TDetail
	if uc == nil || !uc.IsAuthenticated() {
		return zero, domain.ErrUnauthorized
	}

	publicID, parseErr := uuid.Parse(id)
	if parseErr == nil {
		model, err := c.Read(ctx, publicID, uc)
		if err == nil {
			return model, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return zero, err
		}
	}
	if publicID == uuid.Nil {
		publicID = uuid.New()
	}

	model := c.cfg.NewDetail()
	model.Tracking().InitTracking(publicID, uc.UserID())
	return model, nil
}

// List runs the search/paging engine over the non-removed records and
// projects the resulting page. The request is updated in place with the
// clamped page number and the computed totals.
func (c *Controller[TData, TList, TDetail]) List(ctx context.Context, req *query.Request, uc domain.UserContext) ([]TList, error) {
	if uc == nil || !uc.IsAuthenticated() {
		return nil, domain.ErrUnauthorized
	}

	tx, err := c.cfg.Store.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("lifecycle.List: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	records, total, err := query.Search[TData](ctx, tx, req)
	if err != nil {
		return nil, fmt.Errorf("lifecycle.List: %w", err)
	}

	views := make([]TList, 0, len(records))
	for _, rec := range records {
		views = append(views, c.cfg.ToList(rec))
	}

	totalPages := (total + req.PageSize - 1) / req.PageSize
	page := req.Page
	if page > totalPages {
		page = totalPages
	}
	if page < 1 {
		page = 1
	}
	req.Page = page
	req.TotalItems = total
	req.TotalPages = totalPages

	return views, nil
}

// Read returns the detail projection of a stored, non-removed record.
func (c *Controller[TData, TList, TDetail]) Read(ctx context.Context, publicID uuid.UUID, uc domain.UserContext) (TDetail, error) {
	var zero TDetail
	if uc == nil || !uc.IsAuthenticated() {
		return zero, domain.ErrUnauthorized
	}

	tx, err := c.cfg.Store.Begin(ctx)
	if err != nil {
		return zero, fmt.Errorf("lifecycle.Read: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rec, err := tx.Find(ctx, publicID, false)
	if err != nil {
		return zero, fmt.Errorf("lifecycle.Read: %w", err)
	}

	model, err := c.cfg.ToDetail(ctx, rec)
	if err != nil {
		return zero, fmt.Errorf("lifecycle.Read: %w", err)
	}
	model.Tracking().ReadTracking(rec.Meta())
	return model, nil
}

// Save persists a detail model: updating the stored record when the model is
// flagged existing, inserting a new record otherwise. Both branches append a
// change entry and commit in the same unit of work.
func (c *Controller[TData, TList, TDetail]) Save(ctx context.Context, model TDetail, uc domain.UserContext) domain.Result {
	if uc == nil || !uc.IsAuthenticated() {
		return domain.ResultFromError(domain.ErrUnauthorized)
	}
	if !uc.CanDesign() {
		return domain.ResultFromError(domain.ErrForbidden)
	}

	tx, err := c.cfg.Store.Begin(ctx)
	if err != nil {
		return c.failure("Save", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tracking := model.Tracking()
	switch {
	case tracking.Existing:
		rec, err := tx.Find(ctx, tracking.PublicID, true)
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Result{Code: domain.StatusNotFound, Message: fmt.Sprintf("Could not find %s", tracking.PublicID)}
		}
		if err != nil {
			return c.failure("Save", err)
		}

		rec.Meta().SetModified(uc.UserID())
		rec, err = c.cfg.Apply(ctx, model, rec)
		if err != nil {
			return c.failure("Save", err)
		}
		err = tx.Update(ctx, rec)
		if err != nil {
			return c.failure("Save", err)
		}
		err = tx.AppendChange(ctx, domain.NewChangeEntry(c.cfg.Table, "Modified", rec.Meta().PublicID, uc))
		if err != nil {
			return c.failure("Save", err)
		}

	case c.canDesign(uc, tracking.PublicID):
		rec := c.cfg.NewRecord()
		meta := rec.Meta()
		if tracking.PublicID != uuid.Nil {
			meta.PublicID = tracking.PublicID
		} else {
			meta.PublicID = uuid.New()
		}
		meta.SetCreated(uc.UserID())

		rec, err := c.cfg.Apply(ctx, model, rec)
		if err != nil {
			return c.failure("Save", err)
		}
		err = tx.Insert(ctx, rec)
		if err != nil {
			return c.failure("Save", err)
		}
		err = tx.AppendChange(ctx, domain.NewChangeEntry(c.cfg.Table, "Added", rec.Meta().PublicID, uc))
		if err != nil {
			return c.failure("Save", err)
		}

	default:
		return domain.ResultFromError(domain.ErrForbidden)
	}

	n, err := tx.Commit(ctx)
	if err != nil {
		return c.failure("Save", err)
	}
	return domain.Result{Code: domain.StatusOK, Message: fmt.Sprintf("%d records modified", n)}
}

// Remove deletes a record (soft or physical per the store registration),
// appends the change entry, and commits.
func (c *Controller[TData, TList, TDetail]) Remove(ctx context.Context, publicID uuid.UUID, uc domain.UserContext) domain.Result {
	if uc == nil || !uc.IsAuthenticated() {
		return domain.ResultFromError(domain.ErrUnauthorized)
	}
	if !c.canDesign(uc, publicID) {
		return domain.ResultFromError(domain.ErrForbidden)
	}

	tx, err := c.cfg.Store.Begin(ctx)
	if err != nil {
		return c.failure("Remove", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.Delete(ctx, publicID, uc.UserID())
	if err != nil {
		return c.failure("Remove", err)
	}
	err = tx.AppendChange(ctx, domain.NewChangeEntry(c.cfg.Table, "Removed", publicID, uc))
	if err != nil {
		return c.failure("Remove", err)
	}

	n, err := tx.Commit(ctx)
	if err != nil {
		return c.failure("Remove", err)
	}
	return domain.Result{Code: domain.StatusOK, Message: fmt.Sprintf("%d records modified", n)}
}

func (c *Controller[TData, TList, TDetail]) canDesign(uc domain.UserContext, publicID uuid.UUID) bool {
	if uc == nil {
		return false
	}
	if c.cfg.Access == nil {
		return uc.CanDesign()
	}
	return c.cfg.Access(uc, domain.ActionDesign, publicID)
}

// failure converts a store-adjacent error into a client result. Unexpected
// failures are logged here; nothing below the controller logs on its own.
func (c *Controller[TData, TList, TDetail]) failure(op string, err error) domain.Result {
	res := domain.ResultFromError(err)
	if res.Code == domain.StatusInternal {
		log.Error().Err(err).Str("table", c.cfg.Table).Str("op", op).Msg("lifecycle operation failed")
	}
	return res
}
