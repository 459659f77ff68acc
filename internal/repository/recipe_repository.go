// Package repository owns the cached recipe list and routes every mutation
// through the document store.
package repository

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"
	"golang.org/x/sync/errgroup"

	"github.com/bassista/chefs_best_friend/internal/cache"
	"github.com/bassista/chefs_best_friend/internal/docstore"
	"github.com/bassista/chefs_best_friend/internal/logger"
	"github.com/bassista/chefs_best_friend/internal/recipe"
)

// ErrClosed is returned by every operation after Close.
var ErrClosed = errors.New("recipe repository closed")

const (
	defaultCollection    = "recipes"
	defaultRetryInterval = 200 * time.Millisecond
	// fanOut bounds concurrent store calls for multi-document operations.
	fanOut = 4
)

// Options tunes a RecipeRepository.
type Options struct {
	Collection string
	// ListMaxAttempts bounds LoadAll attempts on ErrStoreUnavailable; 1 disables retry.
	ListMaxAttempts int
	RetryInterval   time.Duration
}

// RecipeRepository is the sole owner of the cached recipe list.
type RecipeRepository struct {
	store       DocumentStore
	cache       *cache.Store
	collection  string
	maxAttempts int
	retryEvery  time.Duration

	baseCtx context.Context
	cancel  context.CancelFunc
	closed  atomic.Bool
}

// New creates a repository over store that publishes into c.
func New(store DocumentStore, c *cache.Store, opts Options) (*RecipeRepository, error) {
	if store == nil {
		return nil, errors.New("document store is required")
	}
	if c == nil {
		return nil, errors.New("cache store is required")
	}
	if opts.Collection == "" {
		opts.Collection = defaultCollection
	}
	if opts.ListMaxAttempts < 1 {
		opts.ListMaxAttempts = 1
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = defaultRetryInterval
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &RecipeRepository{
		store:       store,
		cache:       c,
		collection:  opts.Collection,
		maxAttempts: opts.ListMaxAttempts,
		retryEvery:  opts.RetryInterval,
		baseCtx:     ctx,
		cancel:      cancel,
	}, nil
}

// Close cancels in-flight asynchronous operations. Completions that arrive
// afterwards are dropped.
func (r *RecipeRepository) Close() error {
	if r.closed.CompareAndSwap(false, true) {
		r.cancel()
		logger.WithComponent("repository").Debug("recipe repository closed")
	}
	return nil
}

func (r *RecipeRepository) checkOpen() error {
	if r.closed.Load() {
		return ErrClosed
	}
	return nil
}

// Recipes returns the cached list.
func (r *RecipeRepository) Recipes() []recipe.Recipe {
	return r.cache.Snapshot()
}

// Search filters the cached list by name, ignoring case.
func (r *RecipeRepository) Search(query string) []recipe.Recipe {
	return r.cache.Search(query)
}

// Subscribe registers an observer of list changes and published errors.
func (r *RecipeRepository) Subscribe(fn cache.Subscriber) (unsubscribe func()) {
	return r.cache.Subscribe(fn)
}

// Status reports the cache freshness.
func (r *RecipeRepository) Status() cache.Status {
	return r.cache.Status()
}

// LoadAll replaces the cached list with the whole collection. On failure the
// previous list is kept and the error is published.
func (r *RecipeRepository) LoadAll(ctx context.Context) error {
	if err := r.checkOpen(); err != nil {
		return err
	}

	list, err := r.listWithRetry(ctx)
	if err != nil {
		logger.WithComponent("repository").Errorf("load recipes failed: %v", err)
		r.cache.ReportError(err)
		return err
	}

	r.cache.Replace(list)
	logger.WithComponent("repository").Debugf("loaded %d recipes", len(list))
	return nil
}

func (r *RecipeRepository) listWithRetry(ctx context.Context) ([]recipe.Recipe, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.retryEvery

	return backoff.Retry(ctx, func() ([]recipe.Recipe, error) {
		list, err := r.store.List(ctx, r.collection)
		if err != nil && !errors.Is(err, docstore.ErrStoreUnavailable) {
			return nil, backoff.Permanent(err)
		}
		return list, err
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(r.maxAttempts)),
		backoff.WithNotify(func(err error, next time.Duration) {
			logger.WithComponent("repository").Warnf("list recipes failed, retrying in %v: %v", next, err)
		}),
	)
}

// Add creates rec in the store and, once confirmed, appends it to the cache
// with the store-assigned id.
func (r *RecipeRepository) Add(ctx context.Context, rec recipe.Recipe) (recipe.Recipe, error) {
	if err := r.checkOpen(); err != nil {
		return recipe.Recipe{}, err
	}
	log := logger.WithRecipe("repository", rec.ID, rec.Name)

	rec.ApplyDefaults()
	ref, err := r.store.Create(ctx, r.collection, rec)
	if err != nil {
		log.Errorf("add recipe failed: %v", err)
		r.cache.ReportError(err)
		return recipe.Recipe{}, err
	}

	created := rec.WithDocumentID(ref.ID)
	if !r.cache.ReplaceByID(created) {
		r.cache.Append(created)
	}
	log.WithField("recipe_id", ref.ID).Info("recipe added")
	return created, nil
}

// Update merges rec's fields into its stored document and reloads the list.
// A recipe without id is resolved by name. Update never creates a document.
func (r *RecipeRepository) Update(ctx context.Context, rec recipe.Recipe) (recipe.Recipe, error) {
	if err := r.checkOpen(); err != nil {
		return recipe.Recipe{}, err
	}
	log := logger.WithRecipe("repository", rec.ID, rec.Name)

	id, err := r.resolveID(ctx, rec)
	if err == nil {
		err = rec.Validate()
		if err != nil {
			err = fmt.Errorf("%w: %w", docstore.ErrInvalidRecord, err)
		}
	}
	if err == nil {
		err = r.store.Update(ctx, r.collection, id, rec.Fields())
	}
	if err != nil {
		log.Errorf("update recipe failed: %v", err)
		r.cache.ReportError(err)
		return recipe.Recipe{}, err
	}

	updated := rec.WithDocumentID(id)
	updated.ApplyDefaults()
	// The update is confirmed, so a failed reload is not published as an error.
	if list, err := r.listWithRetry(ctx); err != nil {
		log.Warnf("reload after update failed, applying update locally: %v", err)
		if !r.cache.ReplaceByID(updated) {
			r.cache.Append(updated)
		}
	} else {
		r.cache.Replace(list)
	}
	log.WithField("recipe_id", id).Info("recipe updated")
	return updated, nil
}

// resolveID returns rec's id, or the id of the single stored recipe with its name.
func (r *RecipeRepository) resolveID(ctx context.Context, rec recipe.Recipe) (string, error) {
	if rec.ID != "" {
		return rec.ID, nil
	}
	if rec.Name == "" {
		return "", fmt.Errorf("%w: recipe has neither id nor name", docstore.ErrInvalidRecord)
	}

	ids, err := r.storedIDsNamed(ctx, rec.Name)
	if err != nil {
		return "", err
	}
	switch len(ids) {
	case 0:
		return "", fmt.Errorf("recipe %q: %w", rec.Name, docstore.ErrNotFound)
	case 1:
		return ids[0], nil
	default:
		return "", fmt.Errorf("%w: %d recipes are named %q, update by id", docstore.ErrInvalidRecord, len(ids), rec.Name)
	}
}

// storedIDsNamed reads the collection from the store, not the cache, so
// recipes added elsewhere since the last refresh are found too.
func (r *RecipeRepository) storedIDsNamed(ctx context.Context, name string) ([]string, error) {
	list, err := r.store.List(ctx, r.collection)
	if err != nil {
		return nil, fmt.Errorf("resolve recipe %q: %w", name, err)
	}
	var ids []string
	for _, rec := range list {
		if rec.Name == name {
			ids = append(ids, rec.ID)
		}
	}
	return ids, nil
}

// Delete removes rec from the store and the cache. A recipe without id
// deletes every stored or cached recipe with its name. A missing document is
// not an error.
func (r *RecipeRepository) Delete(ctx context.Context, rec recipe.Recipe) error {
	if err := r.checkOpen(); err != nil {
		return err
	}
	log := logger.WithRecipe("repository", rec.ID, rec.Name)

	var ids []string
	switch {
	case rec.ID != "":
		ids = []string{rec.ID}
	case rec.Name != "":
		stored, err := r.storedIDsNamed(ctx, rec.Name)
		if err != nil {
			log.Errorf("delete recipe failed: %v", err)
			r.cache.ReportError(err)
			return err
		}
		ids = stored
		for _, m := range r.cache.FindByName(rec.Name) {
			if !slices.Contains(ids, m.ID) {
				ids = append(ids, m.ID)
			}
		}
	default:
		err := fmt.Errorf("%w: recipe has neither id nor name", docstore.ErrInvalidRecord)
		r.cache.ReportError(err)
		return err
	}

	if len(ids) == 0 {
		log.Debug("no recipe with this name, nothing to delete")
		return nil
	}

	var (
		mu      sync.Mutex
		deleted []string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fanOut)
	for _, id := range ids {
		g.Go(func() error {
			err := r.store.Delete(gctx, r.collection, id)
			if errors.Is(err, docstore.ErrNotFound) {
				log.WithField("recipe_id", id).Debug("recipe already absent")
				err = nil
			}
			if err != nil {
				return err
			}
			mu.Lock()
			deleted = append(deleted, id)
			mu.Unlock()
			return nil
		})
	}
	err := g.Wait()

	if len(deleted) > 0 {
		r.cache.RemoveByID(deleted...)
	}
	if err != nil {
		log.Errorf("delete recipe failed: %v", err)
		r.cache.ReportError(err)
		return err
	}
	log.Infof("deleted %d recipe(s)", len(deleted))
	return nil
}

// DeleteByName deletes every recipe named name.
func (r *RecipeRepository) DeleteByName(ctx context.Context, name string) error {
	return r.Delete(ctx, recipe.Recipe{Name: name})
}

// Get reads one recipe straight from the store.
func (r *RecipeRepository) Get(ctx context.Context, id string) (recipe.Recipe, error) {
	if err := r.checkOpen(); err != nil {
		return recipe.Recipe{}, err
	}
	return r.store.Get(ctx, r.collection, id)
}

// MigrateLegacy re-creates documents keyed by their name under a generated id
// and removes the old documents. It returns how many were migrated.
func (r *RecipeRepository) MigrateLegacy(ctx context.Context) (int, error) {
	if err := r.checkOpen(); err != nil {
		return 0, err
	}
	log := logger.WithComponent("migration")

	list, err := r.store.List(ctx, r.collection)
	if err != nil {
		return 0, fmt.Errorf("list for migration: %w", err)
	}

	var migrated atomic.Int32
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fanOut)
	for _, old := range list {
		if old.ID == "" || old.ID != old.Name {
			continue
		}
		g.Go(func() error {
			ref, err := r.store.Create(gctx, r.collection, old.WithDocumentID(""))
			if err != nil {
				return fmt.Errorf("migrate %q: %w", old.Name, err)
			}
			if err := r.store.Delete(gctx, r.collection, old.ID); err != nil && !errors.Is(err, docstore.ErrNotFound) {
				return fmt.Errorf("remove legacy %q: %w", old.Name, err)
			}
			log.Debugf("migrated %q to %s", old.Name, ref.ID)
			migrated.Add(1)
			return nil
		})
	}
	err = g.Wait()

	n := int(migrated.Load())
	if n > 0 {
		log.Infof("migrated %d legacy recipe(s)", n)
		if lerr := r.LoadAll(ctx); lerr != nil {
			log.Warnf("reload after migration failed: %v", lerr)
		}
	}
	return n, err
}
