package query

import "github.com/recordbase/recordbase/internal/domain"

// TrackedColumns returns a registry pre-loaded with the sort columns every
// tracked record carries. Entity registrations start from this and Add their
// own columns.
func TrackedColumns[T domain.Tracked]() *Columns[T] {
	c := NewColumns[T]()
	c.Add(ColumnID, "id", func(t T) any { return t.Meta().ID })
	c.Add("publicId", "public_id", func(t T) any { return t.Meta().PublicID })
	c.Add("created", "created", func(t T) any { return t.Meta().Created })
	c.Add("modified", "modified", func(t T) any { return t.Meta().Modified })
	return c
}
