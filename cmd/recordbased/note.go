package main

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/recordbase/recordbase/internal/domain"
	"github.com/recordbase/recordbase/internal/lifecycle"
	"github.com/recordbase/recordbase/internal/query"
	"github.com/recordbase/recordbase/internal/store/postgres"
)

// Note is the sample tracked entity shipped with the server binary.
type Note struct {
	domain.Record
	Title string
	Body  string
}

// NoteListItem is the lossy list projection.
type NoteListItem struct {
	PublicID uuid.UUID `json:"publicId"`
	Title    string    `json:"title"`
	Modified time.Time `json:"modified"`
}

// NoteDetail is the round-trippable edit projection.
type NoteDetail struct {
	domain.ModelTracking
	Title string `json:"title"`
	Body  string `json:"body"`
}

func newNoteController(store *postgres.Store) (*lifecycle.Controller[*Note, NoteListItem, *NoteDetail], error) {
	sortColumns := query.TrackedColumns[*Note]().
		Add("title", "title", func(n *Note) any { return n.Title })

	records, err := postgres.NewRecords(store.Pool(), postgres.Mapping[*Note]{
		Table:         "notes",
		EntityColumns: []string{"title", "body"},
		Scan: func(r postgres.Row) (*Note, error) {
			n := &Note{}
			err := postgres.ScanBase(r, n.Meta(), &n.Title, &n.Body)
			return n, err
		},
		EntityValues: func(n *Note) map[string]any {
			return map[string]any{"title": n.Title, "body": n.Body}
		},
		SoftDelete: true,
		Sort:       sortColumns,
	})
	if err != nil {
		return nil, err
	}

	return lifecycle.New(lifecycle.Config[*Note, NoteListItem, *NoteDetail]{
		Store:     records,
		Table:     "Note",
		NewRecord: func() *Note { return &Note{} },
		NewDetail: func() *NoteDetail { return &NoteDetail{} },
		ToList: func(n *Note) NoteListItem {
			return NoteListItem{PublicID: n.PublicID, Title: n.Title, Modified: n.Modified}
		},
		ToDetail: func(_ context.Context, n *Note) (*NoteDetail, error) {
			return &NoteDetail{Title: n.Title, Body: n.Body}, nil
		},
		Apply: func(_ context.Context, m *NoteDetail, n *Note) (*Note, error) {
			n.Title = m.Title
			n.Body = m.Body
			return n, nil
		},
	})
}
