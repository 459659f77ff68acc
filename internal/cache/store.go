package cache

import (
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/cases"

	"github.com/bassista/chefs_best_friend/internal/recipe"
)

// Event is published to subscribers after every change to the cached list
// and after every reported error.
type Event struct {
	Recipes     []recipe.Recipe
	Revision    uint64
	Err         error     // nil for list changes
	LastRefresh time.Time // zero until the first successful full refresh
}

// Subscriber receives events synchronously, in publish order. It must not
// mutate the store.
type Subscriber func(Event)

// Status describes the freshness of the cache.
type Status struct {
	Revision    uint64    `json:"revision"`
	Count       int       `json:"count"`
	LastRefresh time.Time `json:"lastRefresh"`
	LastError   string    `json:"lastError,omitempty"`
}

// Store keeps the in-memory recipe list.
type Store struct {
	// writeMu serializes a mutation together with its notification so
	// subscribers observe events in revision order.
	writeMu sync.Mutex

	mu          sync.RWMutex
	recipes     []recipe.Recipe
	revision    uint64
	lastRefresh time.Time
	lastErr     error

	subMu   sync.Mutex
	subs    map[uint64]Subscriber
	nextSub uint64
}

// NewStore creates an empty cache store.
func NewStore() *Store {
	return &Store{
		recipes: []recipe.Recipe{},
		subs:    make(map[uint64]Subscriber),
	}
}

// Subscribe registers fn and returns a function that removes it.
func (s *Store) Subscribe(fn Subscriber) (unsubscribe func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			defer s.subMu.Unlock()
			delete(s.subs, id)
		})
	}
}

// Snapshot returns a deep copy of the cached list.
func (s *Store) Snapshot() []recipe.Recipe {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return recipe.CloneAll(s.recipes)
}

// Status returns the current revision, size and freshness.
func (s *Store) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Status{Revision: s.revision, Count: len(s.recipes), LastRefresh: s.lastRefresh}
	if s.lastErr != nil {
		st.LastError = s.lastErr.Error()
	}
	return st
}

// FindByID returns the cached recipe with the given id.
func (s *Store) FindByID(id string) (recipe.Recipe, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.recipes {
		if r.ID == id {
			return r.Clone(), true
		}
	}
	return recipe.Recipe{}, false
}

// FindByName returns every cached recipe whose name matches exactly.
func (s *Store) FindByName(name string) []recipe.Recipe {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []recipe.Recipe{}
	for _, r := range s.recipes {
		if r.Name == name {
			out = append(out, r.Clone())
		}
	}
	return out
}

// Search returns the recipes whose name contains query, ignoring case.
// An empty query returns the whole list.
func (s *Store) Search(query string) []recipe.Recipe {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.Snapshot()
	}

	fold := cases.Fold()
	needle := fold.String(query)

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []recipe.Recipe{}
	for _, r := range s.recipes {
		if strings.Contains(fold.String(r.Name), needle) {
			out = append(out, r.Clone())
		}
	}
	return out
}

// Replace swaps the whole list after a successful refresh.
func (s *Store) Replace(list []recipe.Recipe) {
	cloned := recipe.CloneAll(list)
	s.apply(func() (bool, error) {
		s.recipes = cloned
		s.lastRefresh = time.Now()
		s.lastErr = nil
		return true, nil
	})
}

// Append adds one recipe at the end of the list.
func (s *Store) Append(r recipe.Recipe) {
	cloned := r.Clone()
	s.apply(func() (bool, error) {
		s.recipes = append(s.recipes, cloned)
		return true, nil
	})
}

// ReplaceByID swaps the entry with r's id. It reports whether one was found.
func (s *Store) ReplaceByID(r recipe.Recipe) bool {
	cloned := r.Clone()
	found := false
	s.apply(func() (bool, error) {
		for i := range s.recipes {
			if s.recipes[i].ID == cloned.ID {
				s.recipes[i] = cloned
				found = true
				return true, nil
			}
		}
		return false, nil
	})
	return found
}

// RemoveByID drops every entry with one of the given ids and returns how
// many were removed.
func (s *Store) RemoveByID(ids ...string) int {
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}

	removed := 0
	s.apply(func() (bool, error) {
		kept := make([]recipe.Recipe, 0, len(s.recipes))
		for _, r := range s.recipes {
			if _, ok := drop[r.ID]; ok {
				removed++
				continue
			}
			kept = append(kept, r)
		}
		if removed == 0 {
			return false, nil
		}
		s.recipes = kept
		return true, nil
	})
	return removed
}

// ReportError publishes a failure without touching the list.
func (s *Store) ReportError(err error) {
	if err == nil {
		return
	}
	s.apply(func() (bool, error) {
		s.lastErr = err
		return true, err
	})
}

// apply runs fn under the data lock and, when fn reports a change, bumps the
// revision and notifies subscribers after the data lock is released. The
// error returned by fn becomes the event's Err.
func (s *Store) apply(fn func() (changed bool, evErr error)) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	changed, evErr := fn()
	if !changed {
		s.mu.Unlock()
		return
	}
	s.revision++
	ev := Event{
		Recipes:     recipe.CloneAll(s.recipes),
		Revision:    s.revision,
		Err:         evErr,
		LastRefresh: s.lastRefresh,
	}
	s.mu.Unlock()

	s.notify(ev)
}

func (s *Store) notify(ev Event) {
	s.subMu.Lock()
	subs := make([]Subscriber, 0, len(s.subs))
	for _, id := range slices.Sorted(maps.Keys(s.subs)) {
		subs = append(subs, s.subs[id])
	}
	s.subMu.Unlock()

	for _, fn := range subs {
		fn(ev)
	}
}
