package docstore

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// storeOps counts backend round trips by backend, operation and outcome kind.
	storeOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docstore_operations_total",
			Help: "Total number of document store operations.",
		},
		[]string{"backend", "op", "result"},
	)

	// storeLat records round-trip duration in seconds.
	storeLat = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "docstore_operation_duration_seconds",
			Help:    "Duration of document store operations in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend", "op"},
	)
)

func init() {
	prometheus.MustRegister(storeOps, storeLat)
}

// InstrumentedBackend records Prometheus metrics around another Backend.
type InstrumentedBackend struct {
	next Backend
	name string
}

// Instrument wraps next; name becomes the "backend" label.
func Instrument(name string, next Backend) *InstrumentedBackend {
	return &InstrumentedBackend{next: next, name: name}
}

// Unwrap returns the wrapped backend.
func (b *InstrumentedBackend) Unwrap() Backend {
	return b.next
}

func (b *InstrumentedBackend) observe(op string, start time.Time, err error) {
	storeOps.WithLabelValues(b.name, op, Kind(err)).Inc()
	storeLat.WithLabelValues(b.name, op).Observe(time.Since(start).Seconds())
}

func (b *InstrumentedBackend) Create(ctx context.Context, collection, id string, data map[string]any) (string, error) {
	start := time.Now()
	newID, err := b.next.Create(ctx, collection, id, data)
	b.observe("create", start, classify(err))
	return newID, err
}

func (b *InstrumentedBackend) Get(ctx context.Context, collection, id string) (map[string]any, error) {
	start := time.Now()
	data, err := b.next.Get(ctx, collection, id)
	b.observe("get", start, classify(err))
	return data, err
}

func (b *InstrumentedBackend) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	start := time.Now()
	err := b.next.Update(ctx, collection, id, fields)
	b.observe("update", start, classify(err))
	return err
}

func (b *InstrumentedBackend) Delete(ctx context.Context, collection, id string) error {
	start := time.Now()
	err := b.next.Delete(ctx, collection, id)
	b.observe("delete", start, classify(err))
	return err
}

func (b *InstrumentedBackend) List(ctx context.Context, collection string) ([]Document, error) {
	start := time.Now()
	docs, err := b.next.List(ctx, collection)
	b.observe("list", start, classify(err))
	return docs, err
}

func (b *InstrumentedBackend) Close() error {
	return b.next.Close()
}

// Watch delegates to the wrapped backend when it supports watching.
func (b *InstrumentedBackend) Watch(ctx context.Context, onChange func()) error {
	w, ok := b.next.(Watcher)
	if !ok {
		return ErrWatchUnsupported
	}
	return w.Watch(ctx, onChange)
}
