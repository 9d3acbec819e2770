package plugin

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Fetcher retrieves the plugin catalog from the execution backend.
type Fetcher interface {
	FetchCatalog(ctx context.Context) ([]Descriptor, error)
}

// Catalog holds the plugin descriptors available in the current session.
// The snapshot is replaced atomically on load, so in-flight lookups never
// observe a partial list.
type Catalog struct {
	fetcher Fetcher

	// loadMu serializes loads; mu only guards the snapshot, so lookups keep
	// answering from the previous snapshot while a fetch is in flight.
	loadMu sync.Mutex

	mu      sync.RWMutex
	byName  map[string]*Descriptor
	ordered []*Descriptor
}

// NewCatalog creates an empty catalog backed by f.
func NewCatalog(f Fetcher) *Catalog {
	return &Catalog{
		fetcher: f,
		byName:  make(map[string]*Descriptor),
	}
}

// Load fetches the catalog and replaces the snapshot wholesale. On fetch
// failure the catalog becomes empty, not stale. Overlapping loads serialize
// on the load lock and the last one to complete wins; the snapshot lock is
// taken only for the swap, never across the fetch.
func (c *Catalog) Load(ctx context.Context) error {
	c.loadMu.Lock()
	defer c.loadMu.Unlock()

	descriptors, err := c.fetcher.FetchCatalog(ctx)
	if err != nil {
		c.swap(make(map[string]*Descriptor), nil)
		return fmt.Errorf("fetch plugin catalog: %w", err)
	}

	byName := make(map[string]*Descriptor, len(descriptors))
	ordered := make([]*Descriptor, 0, len(descriptors))
	for i := range descriptors {
		d := descriptors[i]
		if d.Name == "" {
			continue
		}
		if !d.Type.valid() {
			// Backend served a type this editor does not know; degrade
			// rather than reject the whole catalog.
			d.Type = TypeUnknown
		}
		if _, dup := byName[d.Name]; dup {
			continue
		}
		byName[d.Name] = &d
		ordered = append(ordered, &d)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Name < ordered[j].Name })

	c.swap(byName, ordered)
	return nil
}

func (c *Catalog) swap(byName map[string]*Descriptor, ordered []*Descriptor) {
	c.mu.Lock()
	c.byName = byName
	c.ordered = ordered
	c.mu.Unlock()
}

// Lookup returns the descriptor for name, if present.
func (c *Catalog) Lookup(name string) (*Descriptor, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.byName[name]
	return d, ok
}

// All returns the current snapshot sorted by name.
func (c *Catalog) All() []*Descriptor {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*Descriptor, len(c.ordered))
	copy(out, c.ordered)
	return out
}

// Len returns the number of descriptors in the snapshot.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byName)
}
