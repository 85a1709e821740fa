// Package docstore is the contract the note layer uses to talk to the hosted
// document database, plus the backends that implement it.
package docstore

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get and Update when the record does not exist.
// Delete never returns it.
var ErrNotFound = errors.New("docstore: record not found")

// Record is one stored document. Time values come back as time.Time.
type Record struct {
	ID   string
	Data map[string]any
}

// Where is an equality filter on a single field.
type Where struct {
	Field string
	Value any
}

type OrderBy struct {
	Field string
	Desc  bool
}

type Query struct {
	Where   []Where
	OrderBy []OrderBy
}

// Store is implemented by every backend.
type Store interface {
	Add(ctx context.Context, collection string, data map[string]any) (string, error)
	Get(ctx context.Context, collection, id string) (Record, error)
	Query(ctx context.Context, collection string, q Query) ([]Record, error)
	Update(ctx context.Context, collection, id string, fields map[string]any) error
	Delete(ctx context.Context, collection, id string) error
	Close() error
}
