// Storage backend contract and the volatile in-memory implementation.

package txn

import (
	"context"
	"iter"
	"slices"
	"sync"

	"github.com/maruel/ksid"
)

// Record is a committed body snapshot.
type Record struct {
	ID   ksid.ID `json:"id"`
	Type string  `json:"type"`
	Data []byte  `json:"data"`
}

// Clone returns a deep copy.
func (r *Record) Clone() Record {
	c := *r
	c.Data = slices.Clone(r.Data)
	return c
}

// Store persists committed snapshots. Implementations must be safe for
// concurrent use.
type Store interface {
	// Put stores recs, replacing any previous record with the same ID.
	Put(ctx context.Context, recs []Record) error
	// Get returns the latest record for id.
	Get(id ksid.ID) (Record, bool)
	// All iterates over the latest record of every body, ordered by ID.
	All() iter.Seq[Record]
	// Close flushes and releases resources.
	Close() error
}

// Volatile is an in-memory Store. Its content is lost when the process exits.
type Volatile struct {
	mu   sync.RWMutex
	rows map[ksid.ID]Record
}

// NewVolatile returns an empty Volatile store.
func NewVolatile() *Volatile {
	return &Volatile{rows: make(map[ksid.ID]Record)}
}

// Put implements [Store].
func (v *Volatile) Put(_ context.Context, recs []Record) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	for i := range recs {
		v.rows[recs[i].ID] = recs[i].Clone()
	}
	return nil
}

// Get implements [Store].
func (v *Volatile) Get(id ksid.ID) (Record, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	r, ok := v.rows[id]
	if !ok {
		return Record{}, false
	}
	return r.Clone(), true
}

// All implements [Store].
func (v *Volatile) All() iter.Seq[Record] {
	return func(yield func(Record) bool) {
		v.mu.RLock()
		ids := make([]ksid.ID, 0, len(v.rows))
		for id := range v.rows {
			ids = append(ids, id)
		}
		v.mu.RUnlock()
		slices.Sort(ids)
		for _, id := range ids {
			r, ok := v.Get(id)
			if !ok {
				continue
			}
			if !yield(r) {
				return
			}
		}
	}
}

// Close implements [Store].
func (v *Volatile) Close() error { return nil }
