package ledger

import (
	"sync"
	"time"

	"github.com/tallyhq/tally/internal/model"
)

// Snapshot is a private copy of the ledger plus the file version it was
// read from.
type Snapshot struct {
	Transactions []model.Transaction
	ModTime      time.Time
}

// Cache keeps the parsed ledger in memory and re-reads the file only when
// its modification time or size changes. Callers always receive a copy.
type Cache struct {
	store *Store

	mu     sync.Mutex
	txns   []model.Transaction
	state  FileState
	loaded bool
}

// NewCache creates an empty Cache over store. Nothing is read until the
// first call to Snapshot or Ledger.
func NewCache(store *Store) *Cache {
	return &Cache{store: store}
}

// Snapshot returns the current ledger, reloading it if the file changed.
// It returns an error wrapping ErrNotFound when no ledger exists.
func (c *Cache) Snapshot() (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	state, err := c.store.Stat()
	if err != nil {
		c.loaded = false
		c.txns = nil
		return Snapshot{}, err
	}

	if !c.loaded || state != c.state {
		txns, err := c.store.Load()
		if err != nil {
			c.loaded = false
			return Snapshot{}, err
		}
		c.txns = txns
		c.state = state
		c.loaded = true
	}

	out := make([]model.Transaction, len(c.txns))
	copy(out, c.txns)
	return Snapshot{Transactions: out, ModTime: c.state.ModTime}, nil
}

// Ledger returns a copy of the current ledger.
func (c *Cache) Ledger() ([]model.Transaction, error) {
	snap, err := c.Snapshot()
	if err != nil {
		return nil, err
	}
	return snap.Transactions, nil
}

// Invalidate drops the cached ledger so the next read goes to disk.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.loaded = false
	c.txns = nil
	c.mu.Unlock()
}

// Reload invalidates the cache and reads the ledger again.
func (c *Cache) Reload() ([]model.Transaction, error) {
	c.Invalidate()
	return c.Ledger()
}
