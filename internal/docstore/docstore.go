// Package docstore is the data-access layer over a document collection
// database. A Backend speaks raw field maps; Adapter layers typed records,
// validation, per-call timeouts and the failure taxonomy on top of it.
package docstore

import "context"

// Document is one stored document with its identifier.
type Document struct {
	ID   string
	Data map[string]any
}

// DocumentRef identifies a document after a successful create.
type DocumentRef struct {
	Collection string `json:"collection"`
	ID         string `json:"id"`
}

// Backend is a document collection store. Every call is a single round trip.
//
// Create writes data under id, or under a store-generated id when id is empty,
// and returns the id used. Update merges fields into an existing document and
// never creates one. Delete may report ErrNotFound for an absent document.
// List returns the whole collection or an error, never a partial page.
type Backend interface {
	Create(ctx context.Context, collection, id string, data map[string]any) (string, error)
	Get(ctx context.Context, collection, id string) (map[string]any, error)
	Update(ctx context.Context, collection, id string, fields map[string]any) error
	Delete(ctx context.Context, collection, id string) error
	List(ctx context.Context, collection string) ([]Document, error)
	Close() error
}

// Watcher is implemented by backends that can report changes made outside
// this process. onChange runs on the watcher goroutine until ctx is done.
type Watcher interface {
	Watch(ctx context.Context, onChange func()) error
}
