package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"github.com/bassista/chefs_best_friend/internal/logger"
)

// Metadata holds the last write time of the data file.
type Metadata struct {
	LastUpdate int64 `json:"lastUpdate"` // Unix timestamp in milliseconds
}

// fileDocument is the persisted JSON structure.
type fileDocument struct {
	Metadata    Metadata                             `json:"metadata"`
	Collections map[string]map[string]map[string]any `json:"collections"`
}

// FileBackend stores every collection in one JSON file, rewritten atomically
// on each mutation.
type FileBackend struct {
	path string
	dir  string
	base string

	mu          sync.Mutex
	lastWritten int64
	debounce    time.Duration
}

// NewFileBackend creates a backend for the given JSON file path. The file is
// created on first write.
func NewFileBackend(path string) (*FileBackend, error) {
	if path == "" {
		return nil, errors.New("data file path is required")
	}

	dir := filepath.Dir(path)
	base := filepath.Base(path)
	if dir == "" || dir == "." {
		dir = "."
	}

	return &FileBackend{path: path, dir: dir, base: base, debounce: 200 * time.Millisecond}, nil
}

// loadUnlocked reads the JSON file without acquiring the lock (caller must hold it).
// A missing file is an empty store.
func (f *FileBackend) loadUnlocked() (*fileDocument, error) {
	doc := &fileDocument{Collections: map[string]map[string]map[string]any{}}

	file, err := os.Open(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return doc, nil
		}
		return nil, fmt.Errorf("open data file: %w", err)
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(doc); err != nil {
		return nil, fmt.Errorf("%w: decode data file: %w", ErrDeserializationFailed, err)
	}
	if doc.Collections == nil {
		doc.Collections = map[string]map[string]map[string]any{}
	}
	return doc, nil
}

// saveUnlocked writes the document without acquiring the lock (caller must hold it).
func (f *FileBackend) saveUnlocked(doc *fileDocument) error {
	doc.Metadata.LastUpdate = time.Now().UnixMilli()

	payload, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: marshal data: %w", ErrInvalidRecord, err)
	}

	tmpFile, err := os.CreateTemp(f.dir, f.base+".tmp-")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		tmpFile.Close()
		os.Remove(tmpFile.Name())
	}()

	if _, err := tmpFile.Write(payload); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}

	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpFile.Name(), f.path); err != nil {
		return fmt.Errorf("replace data file: %w", err)
	}

	f.lastWritten = doc.Metadata.LastUpdate
	return nil
}

// mutate loads the file, applies fn and saves the result under one lock.
func (f *FileBackend) mutate(ctx context.Context, fn func(doc *fileDocument) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.loadUnlocked()
	if err != nil {
		return err
	}
	if err := fn(doc); err != nil {
		return err
	}
	return f.saveUnlocked(doc)
}

func (f *FileBackend) Create(ctx context.Context, collection, id string, data map[string]any) (string, error) {
	stored, err := deepCopy(data)
	if err != nil {
		return "", err
	}
	if id == "" {
		id = uuid.NewString()
	}
	err = f.mutate(ctx, func(doc *fileDocument) error {
		if _, ok := doc.Collections[collection]; !ok {
			doc.Collections[collection] = map[string]map[string]any{}
		}
		doc.Collections[collection][id] = stored
		return nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

func (f *FileBackend) Get(ctx context.Context, collection, id string) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.loadUnlocked()
	if err != nil {
		return nil, err
	}
	data, ok := doc.Collections[collection][id]
	if !ok {
		return nil, ErrNotFound
	}
	return data, nil
}

func (f *FileBackend) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	patch, err := deepCopy(fields)
	if err != nil {
		return err
	}
	return f.mutate(ctx, func(doc *fileDocument) error {
		data, ok := doc.Collections[collection][id]
		if !ok {
			return ErrNotFound
		}
		for k, v := range patch {
			data[k] = v
		}
		return nil
	})
}

func (f *FileBackend) Delete(ctx context.Context, collection, id string) error {
	return f.mutate(ctx, func(doc *fileDocument) error {
		if _, ok := doc.Collections[collection][id]; !ok {
			return ErrNotFound
		}
		delete(doc.Collections[collection], id)
		return nil
	})
}

func (f *FileBackend) List(ctx context.Context, collection string) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.loadUnlocked()
	if err != nil {
		return nil, err
	}
	coll := doc.Collections[collection]
	docs := make([]Document, 0, len(coll))
	for id, data := range coll {
		docs = append(docs, Document{ID: id, Data: data})
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs, nil
}

func (f *FileBackend) Close() error {
	return nil
}

// Watch listens for changes to the data file and calls onChange after debounce.
// It watches the parent directory (not the file) so atomic replace sequences (temp+rename)
// are still observed. Changes written by this backend are skipped. Cancel ctx to stop
// the goroutine and close the watcher.
func (f *FileBackend) Watch(ctx context.Context, onChange func()) error {
	if onChange == nil {
		return errors.New("onChange callback is required")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	if err := watcher.Add(f.dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch dir: %w", err)
	}

	reload := func() {
		if f.isOwnWrite() {
			logger.WithComponent("file-store").Trace("data file change was our own write, skipping")
			return
		}
		logger.WithComponent("file-store").Debug("data file changed externally")
		onChange()
	}

	go func() {
		defer watcher.Close()

		// debounce coalesces bursty fsnotify events (write+chmod/rename) into a single reload.
		var debounce *time.Timer
		schedule := func() {
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(f.debounce, reload)
		}

		for {
			select {
			case <-ctx.Done():
				if debounce != nil {
					debounce.Stop()
				}
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(event.Name) != f.base {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Chmod|fsnotify.Remove|fsnotify.Rename) != 0 {
					schedule()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.WithComponent("file-store").Errorf("watcher error: %v", err)
			}
		}
	}()

	return nil
}

// isOwnWrite reports whether the file on disk is the last version this backend saved.
func (f *FileBackend) isOwnWrite() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.loadUnlocked()
	if err != nil {
		return false
	}
	return f.lastWritten != 0 && doc.Metadata.LastUpdate == f.lastWritten
}
