package query

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Tunable paging bounds. PageSize requests outside these are clamped, not
// rejected.
const (
	DefaultPageSize = 15
	MaxPageSize     = 100
)

// Request carries a caller's search/paging parameters. List operations
// update TotalItems, TotalPages, and the clamped Page in place so the caller
// can render paging controls from the same value.
type Request struct {
	Q        string `json:"q"`
	Page     int    `json:"page"`
	PageSize int    `json:"pageSize"`
	Sort     string `json:"sort"`
	SortDesc bool   `json:"sortDesc"`

	TotalItems int `json:"totalItems"`
	TotalPages int `json:"totalPages"`
}

// Normalize clamps page and page size into their valid ranges.
func (r *Request) Normalize() {
	if r.Page < 1 {
		r.Page = 1
	}
	if r.PageSize <= 0 {
		r.PageSize = DefaultPageSize
	}
	if r.PageSize > MaxPageSize {
		r.PageSize = MaxPageSize
	}
}

// Filter is the closed set of predicates the engine derives from a search
// request. The zero value matches all non-removed records.
type Filter struct {
	// PublicID, when non-zero, is an exact match on the public identifier
	// and overrides Terms.
	PublicID uuid.UUID

	// Terms are conjunctive substring matches over the derived search text:
	// every term must match.
	Terms []string

	// IncludeRemoved widens the scope to soft-deleted records.
	IncludeRemoved bool
}

// FilterFor derives the filter for a free-text query. Text that parses as a
// public identifier becomes an exact-match filter and all other rules are
// skipped; text with whitespace is split into conjunctive terms; anything
// else is a single substring match.
func FilterFor(text string) Filter {
	if strings.TrimSpace(text) == "" {
		return Filter{}
	}
	if id, err := uuid.Parse(text); err == nil {
		return Filter{PublicID: id}
	}
	if strings.ContainsAny(text, " \t") {
		return Filter{Terms: strings.Fields(text)}
	}
	return Filter{Terms: []string{text}}
}

// Source is the minimal querying capability a record store exposes to the
// engine: count the filtered set, and fetch an ordered window of it.
type Source[T any] interface {
	Count(ctx context.Context, f Filter) (int, error)
	Fetch(ctx context.Context, f Filter, o Order, offset, limit int) ([]T, error)
}

// Search runs the full pipeline: normalize the request, derive the filter,
// count the filtered set, order, and fetch one page. The count reflects the
// whole filtered set regardless of the requested page.
//
// When the computed skip overshoots the total, it snaps back one page width
// rather than returning an empty page beyond the last. Deliberate, preserved
// behavior, including its edge cases.
func Search[T any](ctx context.Context, src Source[T], req *Request) ([]T, int, error) {
	req.Normalize()

	f := FilterFor(req.Q)

	total, err := src.Count(ctx, f)
	if err != nil {
		return nil, 0, fmt.Errorf("query.Search: count: %w", err)
	}

	order := By(ColumnID)
	if req.Sort != "" {
		if req.SortDesc {
			order = ByDesc(req.Sort)
		} else {
			order = By(req.Sort)
		}
	}

	skip := (req.Page - 1) * req.PageSize
	if skip > total {
		skip -= req.PageSize
	}

	items, err := src.Fetch(ctx, f, order, skip, req.PageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("query.Search: fetch: %w", err)
	}

	return items, total, nil
}
