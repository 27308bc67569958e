// Package query implements the generic search, ordering, and paging engine.
// Sort columns are an explicit per-entity registry resolved by name at query
// time; nothing here touches the store, the built specs stay lazy until a
// store executes them.
package query

import (
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/recordbase/recordbase/internal/domain"
)

// ColumnID is the internal sequential identifier, registered for every
// entity and used as the default, deterministic sort.
const ColumnID = "id"

type orderKey struct {
	column string
	desc   bool
}

// Order is an immutable chain of sort keys. The zero value means "no
// explicit ordering requested".
type Order struct {
	keys []orderKey
}

// By starts an ascending order on the named column.
func By(column string) Order {
	return Order{keys: []orderKey{{column: column}}}
}

// ByDesc starts a descending order on the named column.
func ByDesc(column string) Order {
	return Order{keys: []orderKey{{column: column, desc: true}}}
}

// ThenBy appends a secondary ascending key.
func (o Order) ThenBy(column string) Order {
	return Order{keys: append(append([]orderKey(nil), o.keys...), orderKey{column: column})}
}

// ThenByDesc appends a secondary descending key.
func (o Order) ThenByDesc(column string) Order {
	return Order{keys: append(append([]orderKey(nil), o.keys...), orderKey{column: column, desc: true})}
}

// IsZero reports whether no sort keys were specified.
func (o Order) IsZero() bool { return len(o.keys) == 0 }

// Column is one registered sort target: the SQL expression the postgres
// store orders by, and the key accessor the in-memory store compares with.
type Column[T any] struct {
	SQL string
	Key func(T) any
}

// Columns is the closed per-entity map from external sort names to typed
// accessors. Names may be dotted for nested targets ("owner.name"); they are
// validated once at registration, so an unknown name at query time is a
// configuration error, never a silent fallback.
type Columns[T any] struct {
	byName map[string]Column[T]
}

// NewColumns creates an empty registry.
func NewColumns[T any]() *Columns[T] {
	return &Columns[T]{byName: make(map[string]Column[T])}
}

// Add registers a sort column. It panics on an empty or duplicate name or a
// nil accessor: registrations run at program start and a bad one must not
// survive to request time.
func (c *Columns[T]) Add(name, sqlExpr string, key func(T) any) *Columns[T] {
	if name == "" {
		panic("query: sort column name must not be empty")
	}
	if key == nil {
		panic(fmt.Sprintf("query: sort column %q has no key accessor", name))
	}
	if _, dup := c.byName[name]; dup {
		panic(fmt.Sprintf("query: sort column %q registered twice", name))
	}
	if sqlExpr == "" {
		sqlExpr = name
	}
	c.byName[name] = Column[T]{SQL: sqlExpr, Key: key}
	return c
}

// Has reports whether a name is registered.
func (c *Columns[T]) Has(name string) bool {
	_, ok := c.byName[name]
	return ok
}

func (c *Columns[T]) resolve(name string) (Column[T], error) {
	col, ok := c.byName[name]
	if !ok {
		return Column[T]{}, fmt.Errorf("query: column %q: %w", name, domain.ErrUnknownColumn)
	}
	return col, nil
}

// ApplySQL appends ORDER BY clauses for each key to a squirrel builder,
// equivalent to writing the orderBy chain statically.
func (c *Columns[T]) ApplySQL(b sq.SelectBuilder, o Order) (sq.SelectBuilder, error) {
	for _, k := range o.keys {
		col, err := c.resolve(k.column)
		if err != nil {
			return b, err
		}
		dir := " ASC"
		if k.desc {
			dir = " DESC"
		}
		b = b.OrderBy(col.SQL + dir)
	}
	return b, nil
}

// Compare builds a chained comparator over the registered key accessors,
// for stores that order in memory.
func (c *Columns[T]) Compare(o Order) (func(a, b T) int, error) {
	type cmpKey struct {
		key  func(T) any
		desc bool
	}

	chain := make([]cmpKey, 0, len(o.keys))
	for _, k := range o.keys {
		col, err := c.resolve(k.column)
		if err != nil {
			return nil, err
		}
		chain = append(chain, cmpKey{key: col.Key, desc: k.desc})
	}

	return func(a, b T) int {
		for _, k := range chain {
			r := compareValues(k.key(a), k.key(b))
			if r == 0 {
				continue
			}
			if k.desc {
				return -r
			}
			return r
		}
		return 0
	}, nil
}

func compareValues(a, b any) int {
	switch av := a.(type) {
	case string:
		return strings.Compare(av, b.(string))
	case int:
		return cmpOrdered(av, b.(int))
	case int32:
		return cmpOrdered(av, b.(int32))
	case int64:
		return cmpOrdered(av, b.(int64))
	case float64:
		return cmpOrdered(av, b.(float64))
	case time.Time:
		return av.Compare(b.(time.Time))
	case uuid.UUID:
		return strings.Compare(av.String(), b.(uuid.UUID).String())
	case bool:
		bv := b.(bool)
		switch {
		case av == bv:
			return 0
		case !av:
			return -1
		default:
			return 1
		}
	default:
		// Last resort for exotic key types.
		return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
	}
}

func cmpOrdered[N int | int32 | int64 | float64](a, b N) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
