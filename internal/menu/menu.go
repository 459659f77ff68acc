// Package menu holds per-session recipe selections and the shopping list
// derived from them. Nothing here is persisted.
package menu

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bassista/chefs_best_friend/internal/logger"
	"github.com/bassista/chefs_best_friend/internal/recipe"
)

// Selection is an ordered set of recipes keyed by name.
type Selection struct {
	mu       sync.RWMutex
	selected []recipe.Recipe
}

func NewSelection() *Selection {
	return &Selection{selected: []recipe.Recipe{}}
}

// AddSelected inserts r unless a recipe with the same name is already
// selected. It reports whether r was added.
func (s *Selection) AddSelected(r recipe.Recipe) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sel := range s.selected {
		if sel.Name == r.Name {
			return false
		}
	}
	s.selected = append(s.selected, r.Clone())
	return true
}

// RemoveSelected drops the recipe with the given name.
func (s *Selection) RemoveSelected(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, sel := range s.selected {
		if sel.Name == name {
			s.selected = append(s.selected[:i], s.selected[i+1:]...)
			return true
		}
	}
	return false
}

// Selected returns the selected recipes in selection order.
func (s *Selection) Selected() []recipe.Recipe {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return recipe.CloneAll(s.selected)
}

// Ingredients flattens the ingredients of every selected recipe, in
// selection order. Duplicates are kept.
func (s *Selection) Ingredients() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []string{}
	for _, sel := range s.selected {
		out = append(out, sel.Ingredients...)
	}
	return out
}

func (s *Selection) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.selected)
}

func (s *Selection) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = []recipe.Recipe{}
}

type session struct {
	sel      *Selection
	lastSeen time.Time
}

// Registry maps session ids to selections. Sessions idle for longer than the
// configured TTL are dropped by EvictIdle.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*session
	idleTTL  time.Duration
	now      func() time.Time
}

// NewRegistry creates an empty registry. An idleTTL of 0 keeps sessions
// until they are dropped.
func NewRegistry(idleTTL time.Duration) *Registry {
	return &Registry{
		sessions: make(map[string]*session),
		idleTTL:  idleTTL,
		now:      time.Now,
	}
}

// For returns the selection of id, creating it on first use. An empty id
// gets a new generated one, which is returned.
func (r *Registry) For(id string) (string, *Selection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id == "" {
		id = uuid.NewString()
	}
	s, ok := r.sessions[id]
	if !ok {
		s = &session{sel: NewSelection()}
		r.sessions[id] = s
	}
	s.lastSeen = r.now()
	return id, s.sel
}

// Lookup returns the selection of an existing session without creating one.
func (r *Registry) Lookup(id string) (*Selection, bool) {
	if id == "" {
		return nil, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	s.lastSeen = r.now()
	return s.sel, true
}

// Drop forgets a session.
func (r *Registry) Drop(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// EvictIdle drops every session not used within the idle TTL and returns how
// many were dropped.
func (r *Registry) EvictIdle() int {
	if r.idleTTL <= 0 {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := r.now().Add(-r.idleTTL)
	evicted := 0
	for id, s := range r.sessions {
		if s.lastSeen.Before(cutoff) {
			delete(r.sessions, id)
			evicted++
		}
	}
	return evicted
}

// StartEviction runs EvictIdle every half TTL until ctx is done. The returned
// channel is closed when the loop has stopped.
func (r *Registry) StartEviction(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	every := r.idleTTL / 2
	if every <= 0 {
		logger.WithComponent("menu").Debug("session eviction disabled")
		close(done)
		return done
	}

	ticker := time.NewTicker(every)
	go func() {
		defer close(done)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				logger.WithComponent("menu").Debug("session eviction stopped")
				return
			case <-ticker.C:
				if n := r.EvictIdle(); n > 0 {
					logger.WithComponent("menu").Debugf("evicted %d idle session(s)", n)
				}
			}
		}
	}()
	return done
}
