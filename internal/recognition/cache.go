package recognition

import (
	"context"
	"sync"
)

// Cache keeps one loaded Model per tier. Concurrent requests for the same
// tier share a single load; a failed load is not remembered.
type Cache struct {
	loader Loader

	mu    sync.Mutex
	slots map[ModelSize]*cacheSlot
}

// cacheSlot is one tier's load. done closes when the load finishes; model and
// err are set before that.
type cacheSlot struct {
	done  chan struct{}
	model Model
	err   error
}

// NewCache wraps a loader.
func NewCache(loader Loader) *Cache {
	return &Cache{loader: loader, slots: make(map[ModelSize]*cacheSlot)}
}

// Get returns the model for size, loading it on first use. Callers waiting on
// another goroutine's load return early when ctx is done.
func (c *Cache) Get(ctx context.Context, size ModelSize) (Model, error) {
	for {
		c.mu.Lock()
		slot, ok := c.slots[size]
		if !ok {
			if err := ctx.Err(); err != nil {
				c.mu.Unlock()
				return nil, err
			}
			slot = &cacheSlot{done: make(chan struct{})}
			c.slots[size] = slot
			c.mu.Unlock()
			return c.load(ctx, size, slot)
		}
		c.mu.Unlock()

		select {
		case <-slot.done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		if slot.err == nil {
			return slot.model, nil
		}
		// The load we waited on failed and its slot is gone; start another.
	}
}

func (c *Cache) load(ctx context.Context, size ModelSize, slot *cacheSlot) (Model, error) {
	model, err := c.loader.Load(ctx, size)
	c.mu.Lock()
	if err != nil {
		slot.err = err
		delete(c.slots, size)
	} else {
		slot.model = model
	}
	c.mu.Unlock()
	close(slot.done)
	return model, err
}

// Loaded reports whether a tier is resident. It never waits on a load in
// progress.
func (c *Cache) Loaded(size ModelSize) bool {
	c.mu.Lock()
	slot, ok := c.slots[size]
	c.mu.Unlock()
	if !ok {
		return false
	}
	select {
	case <-slot.done:
		return slot.err == nil
	default:
		return false
	}
}
