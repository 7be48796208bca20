package txn

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/maruel/ksid"

	"github.com/Gabriel-RABHI/GhostBodyObject.Experiments-sub000/internal/errs"
)

// Mode is the access mode of a transaction.
type Mode int

const (
	// ReadOnly transactions can load and read bodies.
	ReadOnly Mode = iota
	// ReadWrite transactions can also create and mutate bodies.
	ReadWrite
)

func (m Mode) String() string {
	if m == ReadWrite {
		return "read-write"
	}
	return "read-only"
}

// State is a transaction's lifecycle state.
type State int

const (
	// Open transactions accept operations.
	Open State = iota
	// Committed transactions have persisted their modified bodies.
	Committed
	// RolledBack transactions have discarded their changes.
	RolledBack
	// Closed transactions have released their bodies.
	Closed
)

func (s State) String() string {
	switch s {
	case Open:
		return "open"
	case Committed:
		return "committed"
	case RolledBack:
		return "rolled-back"
	case Closed:
		return "closed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Member is a body owned by a transaction.
type Member interface {
	ID() ksid.ID
	TypeName() string
	// Snapshot returns a copy of the body's buffer.
	Snapshot() []byte
	// Release frees the body's buffer.
	Release()
}

// Txn is a transaction token. Its methods are safe for concurrent use; the
// single-writer rule is enforced by [Txn.Guard].
type Txn struct {
	id        ksid.ID
	repo      *Repository
	mode      Mode
	observers []Observer
	log       *slog.Logger

	busy atomic.Bool

	mu         sync.Mutex
	state      State
	committing bool
	members    []Member
	modified   []Member
	modSet     map[ksid.ID]struct{}
}

// ID returns the transaction identifier.
func (t *Txn) ID() ksid.ID { return t.id }

// Mode returns the access mode.
func (t *Txn) Mode() Mode { return t.mode }

// Repository returns the repository that began the transaction.
func (t *Txn) Repository() *Repository { return t.repo }

// State returns the current lifecycle state.
func (t *Txn) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Busy reports whether a mutating call currently holds the write guard.
func (t *Txn) Busy() bool { return t.busy.Load() }

// RequireWritable fails unless the transaction is open and read-write.
func (t *Txn) RequireWritable() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.requireWritableLocked()
}

func (t *Txn) requireWritableLocked() error {
	if t.mode != ReadWrite {
		return errs.New(errs.InvalidTransactionState, "transaction %s is read-only", t.id).
			WithDetail("txn", t.id.String())
	}
	if t.state != Open {
		return errs.New(errs.InvalidTransactionState, "transaction %s is %s", t.id, t.state).
			WithDetail("txn", t.id.String())
	}
	if t.committing {
		return t.busyError("committing")
	}
	return nil
}

func (t *Txn) busyError(op string) error {
	return errs.New(errs.ConcurrencyViolation, "%s while transaction %s is busy", op, t.id).
		WithDetail("txn", t.id.String())
}

// acquire sets the busy flag or fails with ConcurrencyViolation.
func (t *Txn) acquire(op string) (release func(), err error) {
	if !t.busy.CompareAndSwap(false, true) {
		return nil, t.busyError(op)
	}
	return func() { t.busy.Store(false) }, nil
}

// Guard acquires the write guard for a mutation of a body owned by owner.
// It fails with CrossContextViolation when t is not owner, with
// InvalidTransactionState when t is not writable, and with
// ConcurrencyViolation when another mutation holds the guard. On success the
// caller must call release exactly once, typically with defer.
func (t *Txn) Guard(owner *Txn) (release func(), err error) {
	if t == nil || t != owner {
		return nil, errs.New(errs.CrossContextViolation, "body is owned by another transaction")
	}
	if err := t.RequireWritable(); err != nil {
		return nil, err
	}
	return t.acquire("mutation")
}

// Adopt makes m a member of the transaction. The transaction must be open
// and not committing.
func (t *Txn) Adopt(m Member) error {
	t.mu.Lock()
	if t.state != Open {
		t.mu.Unlock()
		return errs.New(errs.InvalidTransactionState, "transaction %s is %s", t.id, t.state)
	}
	if t.committing {
		t.mu.Unlock()
		return t.busyError("adopt")
	}
	t.members = append(t.members, m)
	t.mu.Unlock()
	for _, o := range t.observers {
		o.OnAdopt(t, m)
	}
	return nil
}

// MarkModified records that m was mutated. Recording the same member twice
// is a no-op.
func (t *Txn) MarkModified(m Member) {
	t.mu.Lock()
	if t.modSet == nil {
		t.modSet = make(map[ksid.ID]struct{})
	}
	if _, ok := t.modSet[m.ID()]; ok {
		t.mu.Unlock()
		return
	}
	t.modSet[m.ID()] = struct{}{}
	t.modified = append(t.modified, m)
	t.mu.Unlock()
	for _, o := range t.observers {
		o.OnModify(t, m)
	}
}

// Members returns the bodies owned by the transaction, in adoption order.
func (t *Txn) Members() []Member {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.members)
}

// ReadModified calls visit for each modified member, in first-modification
// order, until visit returns false.
func (t *Txn) ReadModified(visit func(Member) bool) {
	t.mu.Lock()
	modified := slices.Clone(t.modified)
	t.mu.Unlock()
	for _, m := range modified {
		if !visit(m) {
			return
		}
	}
}

// Commit persists the snapshots of every modified body and moves the
// transaction to Committed. It holds the write guard for its whole duration,
// so no mutation, adoption or lifecycle change can interleave. When the store
// fails the transaction stays Open.
func (t *Txn) Commit(ctx context.Context) error {
	release, err := t.acquire("commit")
	if err != nil {
		return err
	}
	defer release()

	t.mu.Lock()
	if err := t.requireWritableLocked(); err != nil {
		t.mu.Unlock()
		return err
	}
	t.committing = true
	modified := slices.Clone(t.modified)
	t.mu.Unlock()

	recs := make([]Record, 0, len(modified))
	for _, m := range modified {
		recs = append(recs, Record{ID: m.ID(), Type: m.TypeName(), Data: m.Snapshot()})
	}
	err = t.repo.store.Put(ctx, recs)

	t.mu.Lock()
	t.committing = false
	if err == nil {
		t.state = Committed
	}
	t.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to commit transaction %s: %w", t.id, err)
	}
	for _, o := range t.observers {
		o.OnCommit(t, modified)
	}
	t.log.DebugContext(ctx, "Commit transaction", "bodies", len(recs))
	return nil
}

// Rollback discards the transaction's changes and moves it to RolledBack. It
// fails with ConcurrencyViolation while a mutation holds the write guard.
func (t *Txn) Rollback() error {
	release, err := t.acquire("rollback")
	if err != nil {
		return err
	}
	defer release()
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.requireWritableLocked(); err != nil {
		return err
	}
	t.state = RolledBack
	t.log.Debug("Rollback transaction", "bodies", len(t.modified))
	return nil
}

// Close ends the transaction, rolling back an open read-write transaction and
// releasing every member body. Closing twice is a no-op. It fails with
// ConcurrencyViolation while a mutation or a commit holds the write guard;
// the transaction is left untouched and can be closed once that call returns.
func (t *Txn) Close() error {
	release, err := t.acquire("close")
	if err != nil {
		return err
	}
	defer release()

	t.mu.Lock()
	if t.state == Closed {
		t.mu.Unlock()
		return nil
	}
	if t.state == Open && t.mode == ReadWrite {
		t.log.Debug("Rollback transaction on close", "bodies", len(t.modified))
	}
	t.state = Closed
	members := t.members
	t.members = nil
	t.mu.Unlock()

	for _, m := range members {
		m.Release()
	}
	for _, o := range t.observers {
		o.OnClose(t)
	}
	t.repo.forget(t)
	t.log.Debug("Close transaction", "bodies", len(members))
	return nil
}
