package cart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"cart-service/pkg/logkey"
)

// ErrLineNotFound is returned when an index does not refer to an existing
// line of the owner's cart.
var ErrLineNotFound = errors.New("cart line not found")

// Conf owns cart state: the in-memory carts, the persistent store they are
// mirrored to on every mutation, and the bus that line-count changes are
// broadcast on. The in-memory state stays authoritative for the session if
// the store misbehaves; persistence is best effort.
type Conf struct {
	store Store
	bus   *Bus

	mu    sync.Mutex
	carts map[string][]Item
}

func NewConf(store Store, bus *Bus) (*Conf, error) {
	if store == nil {
		return nil, fmt.Errorf("store is nil")
	}
	if bus == nil {
		return nil, fmt.Errorf("bus is nil")
	}
	return &Conf{
		store: store,
		bus:   bus,
		carts: make(map[string][]Item),
	}, nil
}

// loadLocked returns the owner's cart, reading it from the store on first
// access. A missing or malformed record yields an empty cart, never an
// error. Callers must hold c.mu.
func (c *Conf) loadLocked(ctx context.Context, ownerID string) []Item {
	if items, ok := c.carts[ownerID]; ok {
		return items
	}

	items, err := c.store.Load(ctx, ownerID)
	if err != nil {
		slog.Warn("failed to load persisted cart, starting empty",
			slog.String(logkey.OwnerID, ownerID), slog.String(logkey.ERROR, err.Error()))
		items = nil
	}
	items = NormalizeItems(items)

	c.carts[ownerID] = items
	return items
}

// persistLocked mirrors the cart to the store. A write failure is a silent
// degradation: it is logged and the in-memory cart keeps serving the session.
func (c *Conf) persistLocked(ctx context.Context, ownerID string, items []Item) {
	var err error
	if len(items) == 0 {
		err = c.store.Delete(ctx, ownerID)
	} else {
		err = c.store.Save(ctx, ownerID, items)
	}
	if err != nil {
		slog.Error("failed to persist cart, in-memory state remains authoritative",
			slog.String(logkey.OwnerID, ownerID), slog.String(logkey.ERROR, err.Error()))
	}
}

// Items returns a copy of the owner's cart in insertion order.
func (c *Conf) Items(ctx context.Context, ownerID string) []Item {
	c.mu.Lock()
	defer c.mu.Unlock()

	items := c.loadLocked(ctx, ownerID)
	out := make([]Item, len(items))
	copy(out, items)
	return out
}

// Count returns the number of distinct lines in the owner's cart.
func (c *Conf) Count(ctx context.Context, ownerID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.loadLocked(ctx, ownerID))
}

// Quote returns the owner's cart plus the derived amounts for a city.
func (c *Conf) Quote(ctx context.Context, ownerID string, city string) Quote {
	return QuoteFor(c.Items(ctx, ownerID), city)
}

// Add puts a product variant into the cart. An already-present
// (product, variant) pair gets its quantity incremented by one instead of a
// duplicate line. Returns the resulting line count.
func (c *Conf) Add(ctx context.Context, ownerID string, item Item) int {
	c.mu.Lock()

	items := c.loadLocked(ctx, ownerID)

	merged := false
	for i := range items {
		if items[i].ProductID == item.ProductID && items[i].Variant == item.Variant {
			items[i].Quantity++
			merged = true
			break
		}
	}
	if !merged {
		item.Quantity = 1
		items = append(items, item)
	}

	c.carts[ownerID] = items
	c.persistLocked(ctx, ownerID, items)
	count := len(items)
	c.mu.Unlock()

	c.bus.Publish(Event{OwnerID: ownerID, Lines: count, At: time.Now().UTC()})
	return count
}

// SetQuantity sets the quantity of the line at the given position, never
// below one. The line count is unchanged, so no event is published.
func (c *Conf) SetQuantity(ctx context.Context, ownerID string, index int, quantity int) error {
	if quantity < 1 {
		quantity = 1
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	items := c.loadLocked(ctx, ownerID)
	if index < 0 || index >= len(items) {
		return ErrLineNotFound
	}

	items[index].Quantity = quantity
	c.carts[ownerID] = items
	c.persistLocked(ctx, ownerID, items)
	return nil
}

// Remove deletes the line at the given position, shifting later lines up.
func (c *Conf) Remove(ctx context.Context, ownerID string, index int) error {
	c.mu.Lock()

	items := c.loadLocked(ctx, ownerID)
	if index < 0 || index >= len(items) {
		c.mu.Unlock()
		return ErrLineNotFound
	}

	remaining := make([]Item, 0, len(items)-1)
	remaining = append(remaining, items[:index]...)
	remaining = append(remaining, items[index+1:]...)

	c.carts[ownerID] = remaining
	c.persistLocked(ctx, ownerID, remaining)
	count := len(remaining)
	c.mu.Unlock()

	c.bus.Publish(Event{OwnerID: ownerID, Lines: count, At: time.Now().UTC()})
	return nil
}

// Clear empties the cart and removes the persisted record entirely.
func (c *Conf) Clear(ctx context.Context, ownerID string) {
	c.mu.Lock()

	c.carts[ownerID] = []Item{}
	c.persistLocked(ctx, ownerID, nil)
	c.mu.Unlock()

	c.bus.Publish(Event{OwnerID: ownerID, Lines: 0, At: time.Now().UTC()})
}
