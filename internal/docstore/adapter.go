package docstore

import (
	"context"
	"fmt"
	"time"
)

// Record is a serializable document type that knows its own identifier.
type Record[T any] interface {
	DocumentID() string
	WithDocumentID(id string) T
}

type validatable interface {
	Validate() error
}

type defaultable interface {
	ApplyDefaults()
}

// Adapter performs typed CRUD on a Backend. It never retries; each call is
// one round trip with exactly one outcome.
type Adapter[T Record[T]] struct {
	backend Backend
	timeout time.Duration
}

// NewAdapter wraps backend. A positive timeout bounds every call.
func NewAdapter[T Record[T]](backend Backend, timeout time.Duration) *Adapter[T] {
	return &Adapter[T]{backend: backend, timeout: timeout}
}

// Backend returns the wrapped backend.
func (a *Adapter[T]) Backend() Backend {
	return a.backend
}

func (a *Adapter[T]) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.timeout)
}

// Create stores rec under its own id, or a store-generated one when it has none.
func (a *Adapter[T]) Create(ctx context.Context, collection string, rec T) (DocumentRef, error) {
	if v, ok := any(rec).(validatable); ok {
		if err := v.Validate(); err != nil {
			return DocumentRef{}, fmt.Errorf("%w: %w", ErrInvalidRecord, err)
		}
	}
	data, err := Encode(rec)
	if err != nil {
		return DocumentRef{}, err
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	id, err := a.backend.Create(ctx, collection, rec.DocumentID(), data)
	if err != nil {
		return DocumentRef{}, fmt.Errorf("create in %s: %w", collection, classify(err))
	}
	return DocumentRef{Collection: collection, ID: id}, nil
}

// Get reads one document.
func (a *Adapter[T]) Get(ctx context.Context, collection, id string) (T, error) {
	var zero T
	if id == "" {
		return zero, fmt.Errorf("%w: empty document id", ErrInvalidRecord)
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	data, err := a.backend.Get(ctx, collection, id)
	if err != nil {
		return zero, fmt.Errorf("get %s/%s: %w", collection, id, classify(err))
	}
	rec, err := a.decode(id, data)
	if err != nil {
		return zero, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	return rec, nil
}

// Update merges fields into an existing document.
func (a *Adapter[T]) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	if id == "" {
		return fmt.Errorf("%w: empty document id", ErrInvalidRecord)
	}
	if len(fields) == 0 {
		return fmt.Errorf("%w: no fields to update", ErrInvalidRecord)
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	if err := a.backend.Update(ctx, collection, id, fields); err != nil {
		return fmt.Errorf("update %s/%s: %w", collection, id, classify(err))
	}
	return nil
}

// Delete removes one document. An absent document surfaces as ErrNotFound
// when the backend reports it; callers decide whether that matters.
func (a *Adapter[T]) Delete(ctx context.Context, collection, id string) error {
	if id == "" {
		return fmt.Errorf("%w: empty document id", ErrInvalidRecord)
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	if err := a.backend.Delete(ctx, collection, id); err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, id, classify(err))
	}
	return nil
}

// List returns every document of the collection, or fails as a whole.
func (a *Adapter[T]) List(ctx context.Context, collection string) ([]T, error) {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	docs, err := a.backend.List(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, classify(err))
	}

	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		rec, err := a.decode(doc.ID, doc.Data)
		if err != nil {
			return nil, fmt.Errorf("list %s: document %s: %w", collection, doc.ID, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func (a *Adapter[T]) decode(id string, data map[string]any) (T, error) {
	var rec T
	if err := Decode(data, &rec); err != nil {
		return rec, err
	}
	if d, ok := any(&rec).(defaultable); ok {
		d.ApplyDefaults()
	}
	if v, ok := any(rec).(validatable); ok {
		if err := v.Validate(); err != nil {
			return rec, fmt.Errorf("%w: stored document violates record invariants: %w", ErrDeserializationFailed, err)
		}
	}
	return rec.WithDocumentID(id), nil
}

// CreateAsync runs Create on its own goroutine and delivers the outcome to done.
func (a *Adapter[T]) CreateAsync(ctx context.Context, collection string, rec T, done func(Result[DocumentRef])) *Task {
	return Go(ctx, func(ctx context.Context) (DocumentRef, error) {
		return a.Create(ctx, collection, rec)
	}, done)
}

// GetAsync runs Get on its own goroutine and delivers the outcome to done.
func (a *Adapter[T]) GetAsync(ctx context.Context, collection, id string, done func(Result[T])) *Task {
	return Go(ctx, func(ctx context.Context) (T, error) {
		return a.Get(ctx, collection, id)
	}, done)
}

// UpdateAsync runs Update on its own goroutine and delivers the outcome to done.
func (a *Adapter[T]) UpdateAsync(ctx context.Context, collection, id string, fields map[string]any, done func(Result[struct{}])) *Task {
	return Go(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, a.Update(ctx, collection, id, fields)
	}, done)
}

// DeleteAsync runs Delete on its own goroutine and delivers the outcome to done.
func (a *Adapter[T]) DeleteAsync(ctx context.Context, collection, id string, done func(Result[struct{}])) *Task {
	return Go(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, a.Delete(ctx, collection, id)
	}, done)
}

// ListAsync runs List on its own goroutine and delivers the outcome to done.
func (a *Adapter[T]) ListAsync(ctx context.Context, collection string, done func(Result[[]T])) *Task {
	return Go(ctx, func(ctx context.Context) ([]T, error) {
		return a.List(ctx, collection)
	}, done)
}
