package docstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bassista/chefs_best_friend/internal/config"
)

func TestInstrumentedBackend_CountsOutcomes(t *testing.T) {
	b := Instrument("metrics-test", NewMemoryBackend())
	ctx := context.Background()

	okBefore := testutil.ToFloat64(storeOps.WithLabelValues("metrics-test", "create", "ok"))
	missBefore := testutil.ToFloat64(storeOps.WithLabelValues("metrics-test", "get", "not_found"))

	_, err := b.Create(ctx, "recipes", "", map[string]any{"name": "A"})
	require.NoError(t, err)
	_, err = b.Get(ctx, "recipes", "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, okBefore+1, testutil.ToFloat64(storeOps.WithLabelValues("metrics-test", "create", "ok")))
	assert.Equal(t, missBefore+1, testutil.ToFloat64(storeOps.WithLabelValues("metrics-test", "get", "not_found")))
}

func TestInstrumentedBackend_PassesThroughResults(t *testing.T) {
	inner := NewMemoryBackend()
	b := Instrument("metrics-test", inner)
	ctx := context.Background()

	id, err := b.Create(ctx, "recipes", "a", map[string]any{"name": "A"})
	require.NoError(t, err)
	require.NoError(t, b.Update(ctx, "recipes", id, map[string]any{"name": "B"}))

	docs, err := b.List(ctx, "recipes")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "B", docs[0].Data["name"])

	require.NoError(t, b.Delete(ctx, "recipes", id))
	assert.Same(t, inner, b.Unwrap())
	assert.NoError(t, b.Close())
}

func TestInstrumentedBackend_Watch(t *testing.T) {
	mem := Instrument("metrics-test", NewMemoryBackend())
	assert.ErrorIs(t, mem.Watch(context.Background(), func() {}), ErrWatchUnsupported)

	fb, err := NewFileBackend(filepath.Join(t.TempDir(), "recipes.json"))
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	assert.NoError(t, Instrument("file", fb).Watch(ctx, func() {}))
}

func TestNewBackendFromConfig(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		cfg     config.StoreConfig
		wantErr bool
	}{
		{"memory", config.StoreConfig{Backend: config.BackendMemory}, false},
		{"file", config.StoreConfig{Backend: config.BackendFile, FilePath: filepath.Join(dir, "r.json")}, false},
		{"default is file", config.StoreConfig{FilePath: filepath.Join(dir, "d.json")}, false},
		{"file without path", config.StoreConfig{Backend: config.BackendFile}, true},
		{"sqlite", config.StoreConfig{Backend: config.BackendSQLite, SQLitePath: filepath.Join(dir, "r.db")}, false},
		{"unknown", config.StoreConfig{Backend: "mongo"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := NewBackendFromConfig(context.Background(), tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			defer b.Close()

			_, err = b.Create(context.Background(), "recipes", "", map[string]any{"name": "x"})
			assert.NoError(t, err)
		})
	}
}
