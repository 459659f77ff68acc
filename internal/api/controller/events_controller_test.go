package controller

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bassista/chefs_best_friend/internal/cache"
	"github.com/bassista/chefs_best_friend/internal/recipe"
)

// signallingStore reports when a subscriber registers.
type signallingStore struct {
	*cache.Store
	subscribed chan struct{}
}

func (s *signallingStore) Subscribe(fn cache.Subscriber) func() {
	unsubscribe := s.Store.Subscribe(fn)
	close(s.subscribed)
	return unsubscribe
}

func runStream(t *testing.T, ec *EventsController, afterSubscribe func()) string {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ctx, cancel := context.WithCancel(context.Background())
	r := gin.New()
	r.GET("/events", ec.Stream)
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		r.ServeHTTP(w, req)
	}()

	afterSubscribe()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not stop after client disconnect")
	}
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	return w.Body.String()
}

func TestEventsController_StreamsChanges(t *testing.T) {
	store := &signallingStore{Store: cache.NewStore(), subscribed: make(chan struct{})}
	store.Replace([]recipe.Recipe{{ID: "1", Name: "Carbonara", ServingSize: 2}})
	ec := NewEventsController(store, time.Hour)

	body := runStream(t, ec, func() {
		<-store.subscribed
		store.Append(recipe.Recipe{ID: "2", Name: "Pesto", ServingSize: 4})
		store.ReportError(errors.New("store offline"))
		// Give the handler time to drain the channel before disconnecting.
		time.Sleep(100 * time.Millisecond)
	})

	events := strings.Count(body, "event:recipes")
	require.GreaterOrEqual(t, events, 2, body)
	assert.Contains(t, body, "Carbonara")
	assert.Contains(t, body, "Pesto")
	assert.Contains(t, body, "event:error")
	assert.Contains(t, body, "store offline")
}

func TestEventsController_KeepAlive(t *testing.T) {
	store := &signallingStore{Store: cache.NewStore(), subscribed: make(chan struct{})}
	ec := NewEventsController(store, 10*time.Millisecond)

	body := runStream(t, ec, func() {
		<-store.subscribed
		time.Sleep(100 * time.Millisecond)
	})

	assert.Contains(t, body, "event:ping")
}

func TestEventsController_UnsubscribesOnDisconnect(t *testing.T) {
	store := &signallingStore{Store: cache.NewStore(), subscribed: make(chan struct{})}
	ec := NewEventsController(store, time.Hour)

	body := runStream(t, ec, func() { <-store.subscribed })
	require.Contains(t, body, "event:recipes")

	// A publish after disconnect must not block or panic.
	store.Append(recipe.Recipe{ID: "3", Name: "Soup", ServingSize: 1})
}

func TestToPayload(t *testing.T) {
	name, p := toPayload(cache.Event{Revision: 3})
	assert.Equal(t, "recipes", name)
	assert.Equal(t, []recipe.Recipe{}, p.Recipes)
	assert.Empty(t, p.Error)

	name, p = toPayload(cache.Event{Revision: 4, Err: errors.New("boom")})
	assert.Equal(t, "error", name)
	assert.Equal(t, "boom", p.Error)
}

func TestNewEventsController_DefaultKeepAlive(t *testing.T) {
	ec := NewEventsController(cache.NewStore(), 0)
	assert.Equal(t, defaultKeepAlive, ec.keepAlive)
}
