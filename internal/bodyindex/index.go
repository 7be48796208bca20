// Provides in-memory enumeration of bodies by transaction and by type.

package bodyindex

import (
	"iter"
	"slices"
	"sync"

	"github.com/maruel/ksid"

	"github.com/Gabriel-RABHI/GhostBodyObject.Experiments-sub000/internal/body"
	"github.com/Gabriel-RABHI/GhostBodyObject.Experiments-sub000/internal/txn"
)

// Index tracks the bodies of every open transaction and the committed bodies
// of the repository, grouped by type name.
//
// The committed set is built from the repository store when created and kept
// synchronized via the [txn.Observer] interface. All operations are
// concurrent-safe.
type Index struct {
	mu        sync.Mutex
	open      map[ksid.ID]*members
	committed map[string]map[ksid.ID]struct{}
}

// members holds one transaction's bodies in adoption order.
type members struct {
	order  []*body.Body
	byType map[string][]*body.Body
}

// New creates an index over r and registers it as an observer. Only
// transactions begun afterwards are tracked.
func New(r *txn.Repository) *Index {
	idx := &Index{
		open:      make(map[ksid.ID]*members),
		committed: make(map[string]map[ksid.ID]struct{}),
	}
	for rec := range r.Store().All() {
		idx.addCommitted(rec.Type, rec.ID)
	}
	r.AddObserver(idx)
	return idx
}

// ReadModifiedBodies calls visit for each body modified in tx, in
// first-modification order, until visit returns false.
func (idx *Index) ReadModifiedBodies(tx *txn.Txn, visit func(*body.Body) bool) {
	tx.ReadModified(func(m txn.Member) bool {
		b, ok := m.(*body.Body)
		if !ok {
			return true
		}
		return visit(b)
	})
}

// Bodies returns an iterator over every body owned by tx, in adoption order.
func (idx *Index) Bodies(tx *txn.Txn) iter.Seq[*body.Body] {
	return idx.iter(tx, func(m *members) []*body.Body { return m.order })
}

// ByType returns an iterator over the bodies of the given type owned by tx.
func (idx *Index) ByType(tx *txn.Txn, typeName string) iter.Seq[*body.Body] {
	return idx.iter(tx, func(m *members) []*body.Body { return m.byType[typeName] })
}

func (idx *Index) iter(tx *txn.Txn, pick func(*members) []*body.Body) iter.Seq[*body.Body] {
	return func(yield func(*body.Body) bool) {
		// Copy under lock to avoid holding it during iteration.
		idx.mu.Lock()
		var list []*body.Body
		if m := idx.open[tx.ID()]; m != nil {
			list = slices.Clone(pick(m))
		}
		idx.mu.Unlock()
		for _, b := range list {
			if !yield(b) {
				return
			}
		}
	}
}

// Committed returns the IDs of the committed bodies of the given type, in
// creation order.
func (idx *Index) Committed(typeName string) []ksid.ID {
	idx.mu.Lock()
	ids := make([]ksid.ID, 0, len(idx.committed[typeName]))
	for id := range idx.committed[typeName] {
		ids = append(ids, id)
	}
	idx.mu.Unlock()
	slices.Sort(ids)
	return ids
}

// Types returns the type names having at least one committed body, sorted.
func (idx *Index) Types() []string {
	idx.mu.Lock()
	names := make([]string, 0, len(idx.committed))
	for name := range idx.committed {
		names = append(names, name)
	}
	idx.mu.Unlock()
	slices.Sort(names)
	return names
}

// OnAdopt implements [txn.Observer].
func (idx *Index) OnAdopt(tx *txn.Txn, m txn.Member) {
	b, ok := m.(*body.Body)
	if !ok {
		return
	}
	idx.mu.Lock()
	defer idx.mu.Unlock()
	e := idx.open[tx.ID()]
	if e == nil {
		e = &members{byType: make(map[string][]*body.Body)}
		idx.open[tx.ID()] = e
	}
	e.order = append(e.order, b)
	e.byType[b.TypeName()] = append(e.byType[b.TypeName()], b)
}

// OnModify implements [txn.Observer]. The transaction keeps its own modified
// set.
func (idx *Index) OnModify(*txn.Txn, txn.Member) {}

// OnCommit implements [txn.Observer].
func (idx *Index) OnCommit(_ *txn.Txn, modified []txn.Member) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	for _, m := range modified {
		idx.addCommitted(m.TypeName(), m.ID())
	}
}

// OnClose implements [txn.Observer].
func (idx *Index) OnClose(tx *txn.Txn) {
	idx.mu.Lock()
	delete(idx.open, tx.ID())
	idx.mu.Unlock()
}

func (idx *Index) addCommitted(typeName string, id ksid.ID) {
	if idx.committed[typeName] == nil {
		idx.committed[typeName] = make(map[ksid.ID]struct{})
	}
	idx.committed[typeName][id] = struct{}{}
}
