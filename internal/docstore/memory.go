package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// MemoryBackend keeps every collection in memory. Data is lost on restart.
// Safe for concurrent use.
type MemoryBackend struct {
	mu          sync.RWMutex
	collections map[string]map[string]map[string]any
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		collections: make(map[string]map[string]map[string]any),
	}
}

// deepCopy returns a deep copy of a document by round-tripping through JSON,
// so values read back have the same shapes a remote store would return.
func deepCopy(src map[string]any) (map[string]any, error) {
	if src == nil {
		return map[string]any{}, nil
	}
	b, err := json.Marshal(src)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}
	var dst map[string]any
	if err := json.Unmarshal(b, &dst); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDeserializationFailed, err)
	}
	return dst, nil
}

func (m *MemoryBackend) Create(ctx context.Context, collection, id string, data map[string]any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	doc, err := deepCopy(data)
	if err != nil {
		return "", err
	}
	if id == "" {
		id = uuid.NewString()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.collections[collection]; !ok {
		m.collections[collection] = make(map[string]map[string]any)
	}
	m.collections[collection][id] = doc
	return id, nil
}

func (m *MemoryBackend) Get(ctx context.Context, collection, id string) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.collections[collection][id]
	if !ok {
		return nil, ErrNotFound
	}
	return deepCopy(doc)
}

func (m *MemoryBackend) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	patch, err := deepCopy(fields)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.collections[collection][id]
	if !ok {
		return ErrNotFound
	}
	for k, v := range patch {
		doc[k] = v
	}
	return nil
}

func (m *MemoryBackend) Delete(ctx context.Context, collection, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	coll, ok := m.collections[collection]
	if !ok {
		return ErrNotFound
	}
	if _, exists := coll[id]; !exists {
		return ErrNotFound
	}
	delete(coll, id)
	return nil
}

func (m *MemoryBackend) List(ctx context.Context, collection string) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	coll := m.collections[collection]
	docs := make([]Document, 0, len(coll))
	for id, data := range coll {
		doc, err := deepCopy(data)
		if err != nil {
			return nil, err
		}
		docs = append(docs, Document{ID: id, Data: doc})
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs, nil
}

// Put stores a copy of a raw document without any encoding, for seeding and tests.
func (m *MemoryBackend) Put(collection, id string, data map[string]any) error {
	doc, err := deepCopy(data)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.collections[collection]; !ok {
		m.collections[collection] = make(map[string]map[string]any)
	}
	m.collections[collection][id] = doc
	return nil
}

func (m *MemoryBackend) Close() error {
	return nil
}
