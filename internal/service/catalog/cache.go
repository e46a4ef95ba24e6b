// Package catalog caches the operation definitions of each category.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"laser-offers/internal/metrics"
	"laser-offers/internal/storage"
)

type OperationProvider interface {
	GetOperationsByCategory(ctx context.Context, categoryID string) ([]storage.Operation, error)
}

// Cache holds the operations of every category fetched so far. It satisfies
// offercalc.OperationLookup.
//
// Invalidate and Reset bump a version that is part of the fetch key, so a
// fetch started before them can neither be joined nor stored afterwards.
type Cache struct {
	log      *slog.Logger
	provider OperationProvider
	timeout  time.Duration

	group singleflight.Group

	mu       sync.RWMutex
	entries  map[string][]storage.Operation
	waiters  map[string][]func()
	epoch    uint64
	versions map[string]uint64
}

// New creates an empty cache. timeout bounds the background fetches started
// by SecondsPerUnit and Await.
func New(log *slog.Logger, provider OperationProvider, timeout time.Duration) *Cache {
	return &Cache{
		log:      log,
		provider: provider,
		timeout:  timeout,
		entries:  make(map[string][]storage.Operation),
		waiters:  make(map[string][]func()),
		versions: make(map[string]uint64),
	}
}

// Load returns the operations of a category, fetching them at most once
// across concurrent callers.
func (c *Cache) Load(ctx context.Context, categoryID string) ([]storage.Operation, error) {
	const op = "service.catalog.Load"

	if ops, ok := c.Operations(categoryID); ok {
		return ops, nil
	}

	epoch, version := c.version(categoryID)
	key := fmt.Sprintf("%s/%d/%d", categoryID, epoch, version)

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		if ops, ok := c.Operations(categoryID); ok {
			return ops, nil
		}

		ops, err := c.provider.GetOperationsByCategory(ctx, categoryID)
		if err != nil {
			metrics.CatalogFetches.WithLabelValues("error").Inc()
			c.fail(categoryID)
			return nil, err
		}
		metrics.CatalogFetches.WithLabelValues("ok").Inc()

		c.store(categoryID, epoch, version, ops)
		return ops, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: category %s: %w", op, categoryID, err)
	}

	return v.([]storage.Operation), nil
}

// Operations returns the cached operations of a category without fetching.
func (c *Cache) Operations(categoryID string) ([]storage.Operation, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ops, ok := c.entries[categoryID]
	return ops, ok
}

// SecondsPerUnit looks the operation up in the cached category. An unknown
// category starts a background fetch and reports false.
func (c *Cache) SecondsPerUnit(categoryID, operationID string) (float64, bool) {
	if categoryID == "" {
		return 0, false
	}

	ops, ok := c.Operations(categoryID)
	if !ok {
		c.prefetch(categoryID)
		return 0, false
	}

	for _, o := range ops {
		if o.ID == operationID {
			return o.SecondsPerUnit, true
		}
	}
	return 0, false
}

// Await runs fn on its own goroutine once the category is cached.
func (c *Cache) Await(categoryID string, fn func()) {
	c.mu.Lock()
	if _, ok := c.entries[categoryID]; ok {
		c.mu.Unlock()
		go fn()
		return
	}
	c.waiters[categoryID] = append(c.waiters[categoryID], fn)
	c.mu.Unlock()

	c.prefetch(categoryID)
}

// Invalidate drops a category so the next lookup reads it again.
func (c *Cache) Invalidate(categoryID string) {
	c.mu.Lock()
	c.versions[categoryID]++
	delete(c.entries, categoryID)
	c.mu.Unlock()
}

// Reset drops every cached category.
func (c *Cache) Reset() {
	c.mu.Lock()
	c.epoch++
	c.entries = make(map[string][]storage.Operation)
	c.mu.Unlock()
}

func (c *Cache) version(categoryID string) (uint64, uint64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.epoch, c.versions[categoryID]
}

func (c *Cache) prefetch(categoryID string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
		defer cancel()

		if _, err := c.Load(ctx, categoryID); err != nil {
			c.log.Error("failed to fetch operation catalog",
				slog.String("category_id", categoryID),
				slog.String("error", err.Error()))
		}
	}()
}

// store caches ops unless the category was invalidated while they were
// being fetched. In that case pending waiters trigger a fresh fetch.
func (c *Cache) store(categoryID string, epoch, version uint64, ops []storage.Operation) {
	if ops == nil {
		ops = []storage.Operation{}
	}

	c.mu.Lock()
	if c.epoch != epoch || c.versions[categoryID] != version {
		pending := len(c.waiters[categoryID]) > 0
		c.mu.Unlock()
		if pending {
			c.prefetch(categoryID)
		}
		return
	}
	c.entries[categoryID] = ops
	fns := c.waiters[categoryID]
	delete(c.waiters, categoryID)
	c.mu.Unlock()

	for _, fn := range fns {
		go fn()
	}
}

// fail releases the waiters of a category whose fetch failed. They see the
// category as still unknown and treat their lookup as missed.
func (c *Cache) fail(categoryID string) {
	c.mu.Lock()
	fns := c.waiters[categoryID]
	delete(c.waiters, categoryID)
	c.mu.Unlock()

	for _, fn := range fns {
		go fn()
	}
}
