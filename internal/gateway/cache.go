package gateway

import (
	"sync"

	"github.com/chaabi-dev/demandhub/internal/models"
)

// Cache holds the most recently fetched demand records. It keeps a
// list view and a per-id view; every successful mutation replaces
// both under one lock so they never disagree.
type Cache struct {
	mu   sync.Mutex
	list []models.Demand
	byID map[int64]models.Demand
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{byID: make(map[int64]models.Demand)}
}

// ReplaceList installs a fresh listing as the single source of truth,
// refreshing the per-id entries for every listed demand.
func (c *Cache) ReplaceList(demands []models.Demand) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.list = append([]models.Demand(nil), demands...)
	for _, d := range demands {
		c.byID[d.ID] = d
	}
}

// Put stores one demand, updating its list entry in place. A demand
// not present in the list view is prepended, matching the UI rule of
// newest first.
func (c *Cache) Put(d models.Demand) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byID[d.ID] = d
	for i := range c.list {
		if c.list[i].ID == d.ID {
			c.list[i] = d
			return
		}
	}
	c.list = append([]models.Demand{d}, c.list...)
}

// Remove drops a demand from both views.
func (c *Cache) Remove(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.byID, id)
	for i := range c.list {
		if c.list[i].ID == id {
			c.list = append(c.list[:i], c.list[i+1:]...)
			return
		}
	}
}

// Get returns the cached copy of a demand, if present.
func (c *Cache) Get(id int64) (models.Demand, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.byID[id]
	return d, ok
}

// List returns a copy of the cached list view.
func (c *Cache) List() []models.Demand {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Demand(nil), c.list...)
}
