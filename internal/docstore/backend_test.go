package docstore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

type backendFactory func(t *testing.T) Backend

func backendFactories() map[string]backendFactory {
	return map[string]backendFactory{
		"memory": func(t *testing.T) Backend {
			return NewMemoryBackend()
		},
		"file": func(t *testing.T) Backend {
			b, err := NewFileBackend(filepath.Join(t.TempDir(), "recipes.json"))
			if err != nil {
				t.Fatalf("failed to create file backend: %v", err)
			}
			return b
		},
		"sqlite": func(t *testing.T) Backend {
			b, err := NewSQLiteBackend(filepath.Join(t.TempDir(), "recipes.db"))
			if err != nil {
				t.Fatalf("failed to create sqlite backend: %v", err)
			}
			t.Cleanup(func() { b.Close() })
			return b
		},
	}
}

func TestBackends_CreateAndGet(t *testing.T) {
	for name, factory := range backendFactories() {
		t.Run(name, func(t *testing.T) {
			b := factory(t)
			ctx := context.Background()

			id, err := b.Create(ctx, "recipes", "", map[string]any{"name": "Carbonara"})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if id == "" {
				t.Fatal("expected a generated id")
			}

			data, err := b.Get(ctx, "recipes", id)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if data["name"] != "Carbonara" {
				t.Errorf("expected name 'Carbonara', got %v", data["name"])
			}
		})
	}
}

func TestBackends_CreateWithExplicitID(t *testing.T) {
	for name, factory := range backendFactories() {
		t.Run(name, func(t *testing.T) {
			b := factory(t)
			ctx := context.Background()

			id, err := b.Create(ctx, "recipes", "fixed", map[string]any{"name": "Pesto"})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if id != "fixed" {
				t.Errorf("expected id 'fixed', got '%s'", id)
			}
		})
	}
}

func TestBackends_UpdateMergesFields(t *testing.T) {
	for name, factory := range backendFactories() {
		t.Run(name, func(t *testing.T) {
			b := factory(t)
			ctx := context.Background()

			id, _ := b.Create(ctx, "recipes", "", map[string]any{"name": "Soup", "image": "soup.png"})
			if err := b.Update(ctx, "recipes", id, map[string]any{"cookingTime": "20 min"}); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			data, err := b.Get(ctx, "recipes", id)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if data["cookingTime"] != "20 min" {
				t.Errorf("expected cookingTime '20 min', got %v", data["cookingTime"])
			}
			if data["image"] != "soup.png" {
				t.Errorf("expected untouched image, got %v", data["image"])
			}
		})
	}
}

func TestBackends_MissingDocument(t *testing.T) {
	for name, factory := range backendFactories() {
		t.Run(name, func(t *testing.T) {
			b := factory(t)
			ctx := context.Background()

			if _, err := b.Get(ctx, "recipes", "nope"); !errors.Is(err, ErrNotFound) {
				t.Errorf("Get: expected ErrNotFound, got %v", err)
			}
			if err := b.Update(ctx, "recipes", "nope", map[string]any{"name": "x"}); !errors.Is(err, ErrNotFound) {
				t.Errorf("Update: expected ErrNotFound, got %v", err)
			}
			if err := b.Delete(ctx, "recipes", "nope"); !errors.Is(err, ErrNotFound) {
				t.Errorf("Delete: expected ErrNotFound, got %v", err)
			}
		})
	}
}

func TestBackends_DeleteRemovesDocument(t *testing.T) {
	for name, factory := range backendFactories() {
		t.Run(name, func(t *testing.T) {
			b := factory(t)
			ctx := context.Background()

			id, _ := b.Create(ctx, "recipes", "", map[string]any{"name": "Stew"})
			if err := b.Delete(ctx, "recipes", id); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if _, err := b.Get(ctx, "recipes", id); !errors.Is(err, ErrNotFound) {
				t.Errorf("expected ErrNotFound after delete, got %v", err)
			}
		})
	}
}

func TestBackends_ListIsSortedAndScopedToCollection(t *testing.T) {
	for name, factory := range backendFactories() {
		t.Run(name, func(t *testing.T) {
			b := factory(t)
			ctx := context.Background()

			b.Create(ctx, "recipes", "b", map[string]any{"name": "B"})
			b.Create(ctx, "recipes", "a", map[string]any{"name": "A"})
			b.Create(ctx, "other", "c", map[string]any{"name": "C"})

			docs, err := b.List(ctx, "recipes")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(docs) != 2 {
				t.Fatalf("expected 2 documents, got %d", len(docs))
			}
			if docs[0].ID != "a" || docs[1].ID != "b" {
				t.Errorf("expected ids [a b], got [%s %s]", docs[0].ID, docs[1].ID)
			}
		})
	}
}

func TestBackends_ListEmptyCollection(t *testing.T) {
	for name, factory := range backendFactories() {
		t.Run(name, func(t *testing.T) {
			docs, err := factory(t).List(context.Background(), "recipes")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if docs == nil || len(docs) != 0 {
				t.Errorf("expected empty non-nil list, got %v", docs)
			}
		})
	}
}

func TestBackends_CancelledContext(t *testing.T) {
	for name, factory := range backendFactories() {
		t.Run(name, func(t *testing.T) {
			b := factory(t)
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			if _, err := b.List(ctx, "recipes"); err == nil {
				t.Error("expected error for cancelled context")
			}
			if _, err := b.Create(ctx, "recipes", "", map[string]any{"name": "x"}); err == nil {
				t.Error("expected error for cancelled context")
			}
		})
	}
}

func TestMemoryBackend_ReturnsCopies(t *testing.T) {
	b := NewMemoryBackend()
	ctx := context.Background()

	id, _ := b.Create(ctx, "recipes", "", map[string]any{"name": "Tea"})
	data, _ := b.Get(ctx, "recipes", id)
	data["name"] = "Coffee"

	again, _ := b.Get(ctx, "recipes", id)
	if again["name"] != "Tea" {
		t.Errorf("expected stored document to be unchanged, got %v", again["name"])
	}
}

func TestMemoryBackend_PutCopiesDocument(t *testing.T) {
	b := NewMemoryBackend()
	seed := map[string]any{"name": "Tea", "ingredients": []any{"leaves"}}
	if err := b.Put("recipes", "tea", seed); err != nil {
		t.Fatalf("put: %v", err)
	}
	seed["name"] = "Coffee"
	seed["ingredients"].([]any)[0] = "beans"

	got, err := b.Get(context.Background(), "recipes", "tea")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got["name"] != "Tea" {
		t.Errorf("expected stored name Tea, got %v", got["name"])
	}
	if got["ingredients"].([]any)[0] != "leaves" {
		t.Errorf("expected stored ingredients to be unchanged, got %v", got["ingredients"])
	}
}

func TestNewFileBackend_EmptyPath(t *testing.T) {
	if _, err := NewFileBackend(""); err == nil {
		t.Error("expected error for empty path")
	}
}

func TestSQLiteBackend_InMemory(t *testing.T) {
	b, err := NewSQLiteBackend(":memory:")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer b.Close()

	if _, err := b.Create(context.Background(), "recipes", "x", map[string]any{"name": "X"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	docs, err := b.List(context.Background(), "recipes")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 1 {
		t.Errorf("expected 1 document, got %d", len(docs))
	}
}
