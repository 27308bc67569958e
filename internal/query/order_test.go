package query_test

import (
	"testing"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recordbase/recordbase/internal/domain"
	"github.com/recordbase/recordbase/internal/query"
)

type scoreRow struct {
	Name     string
	Score    int64
	Modified time.Time
}

func scoreColumns() *query.Columns[scoreRow] {
	return query.NewColumns[scoreRow]().
		Add("name", "name", func(r scoreRow) any { return r.Name }).
		Add("score", "score", func(r scoreRow) any { return r.Score }).
		Add("modified", "modified", func(r scoreRow) any { return r.Modified })
}

// ---------------------------------------------------------------------------
// Order chains
// ---------------------------------------------------------------------------

func TestOrderIsZero(t *testing.T) {
	t.Parallel()

	assert.True(t, query.Order{}.IsZero())
	assert.False(t, query.By("name").IsZero())
	assert.False(t, query.ByDesc("name").IsZero())
}

func TestOrderThenByDoesNotMutateReceiver(t *testing.T) {
	t.Parallel()

	base := query.By("name")
	withScore := base.ThenBy("score")
	withModified := base.ThenByDesc("modified")

	cols := scoreColumns()

	b := sq.Select("*").From("rows")
	b, err := cols.ApplySQL(b, withScore)
	require.NoError(t, err)
	sql, _, err := b.ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "ORDER BY name ASC, score ASC")

	b2 := sq.Select("*").From("rows")
	b2, err = cols.ApplySQL(b2, withModified)
	require.NoError(t, err)
	sql2, _, err := b2.ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql2, "ORDER BY name ASC, modified DESC")
}

// ---------------------------------------------------------------------------
// Registration
// ---------------------------------------------------------------------------

func TestColumnsAddPanics(t *testing.T) {
	t.Parallel()

	key := func(r scoreRow) any { return r.Name }

	assert.Panics(t, func() {
		query.NewColumns[scoreRow]().Add("", "name", key)
	}, "empty name")

	assert.Panics(t, func() {
		query.NewColumns[scoreRow]().Add("name", "name", nil)
	}, "nil accessor")

	assert.Panics(t, func() {
		query.NewColumns[scoreRow]().Add("name", "name", key).Add("name", "other", key)
	}, "duplicate name")
}

func TestColumnsHas(t *testing.T) {
	t.Parallel()

	cols := scoreColumns()
	assert.True(t, cols.Has("name"))
	assert.True(t, cols.Has("score"))
	assert.False(t, cols.Has("Name"), "names are case-sensitive")
	assert.False(t, cols.Has("owner.name"))
}

func TestTrackedColumnsDefaults(t *testing.T) {
	t.Parallel()

	type entity struct{ domain.Record }

	cols := query.TrackedColumns[*entity]()
	for _, name := range []string{query.ColumnID, "publicId", "created", "modified"} {
		assert.True(t, cols.Has(name), name)
	}
}

// ---------------------------------------------------------------------------
// SQL application
// ---------------------------------------------------------------------------

func TestApplySQLUnknownColumn(t *testing.T) {
	t.Parallel()

	_, err := scoreColumns().ApplySQL(sq.Select("*").From("rows"), query.By("nope"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnknownColumn)
	assert.Contains(t, err.Error(), "nope")
}

func TestApplySQLDescending(t *testing.T) {
	t.Parallel()

	b, err := scoreColumns().ApplySQL(sq.Select("*").From("rows"), query.ByDesc("score"))
	require.NoError(t, err)

	sql, _, err := b.ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "ORDER BY score DESC")
}

// ---------------------------------------------------------------------------
// In-memory comparators
// ---------------------------------------------------------------------------

func TestCompareSingleKey(t *testing.T) {
	t.Parallel()

	cols := scoreColumns()

	cmp, err := cols.Compare(query.By("score"))
	require.NoError(t, err)

	low := scoreRow{Name: "a", Score: 1}
	high := scoreRow{Name: "b", Score: 9}

	assert.Negative(t, cmp(low, high))
	assert.Positive(t, cmp(high, low))
	assert.Zero(t, cmp(low, low))
}

func TestCompareDescending(t *testing.T) {
	t.Parallel()

	cmp, err := scoreColumns().Compare(query.ByDesc("score"))
	require.NoError(t, err)

	low := scoreRow{Score: 1}
	high := scoreRow{Score: 9}

	assert.Positive(t, cmp(low, high), "descending inverts the comparison")
	assert.Negative(t, cmp(high, low))
}

func TestCompareChainedKeys(t *testing.T) {
	t.Parallel()

	cmp, err := scoreColumns().Compare(query.By("score").ThenByDesc("name"))
	require.NoError(t, err)

	a := scoreRow{Name: "alpha", Score: 5}
	b := scoreRow{Name: "beta", Score: 5}

	assert.Positive(t, cmp(a, b), "tied primary key falls through to the descending secondary")
	assert.Negative(t, cmp(b, a))
}

func TestCompareTimeKeys(t *testing.T) {
	t.Parallel()

	cmp, err := scoreColumns().Compare(query.By("modified"))
	require.NoError(t, err)

	older := scoreRow{Modified: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	newer := scoreRow{Modified: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)}

	assert.Negative(t, cmp(older, newer))
}

func TestCompareUnknownColumn(t *testing.T) {
	t.Parallel()

	_, err := scoreColumns().Compare(query.By("nope"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnknownColumn)
}

func TestCompareZeroOrder(t *testing.T) {
	t.Parallel()

	cmp, err := scoreColumns().Compare(query.Order{})
	require.NoError(t, err)
	assert.Zero(t, cmp(scoreRow{Score: 1}, scoreRow{Score: 2}), "no keys means every pair compares equal")
}
