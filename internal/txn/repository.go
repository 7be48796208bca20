package txn

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"

	"github.com/maruel/ksid"

	"github.com/Gabriel-RABHI/GhostBodyObject.Experiments-sub000/internal/errs"
	"github.com/Gabriel-RABHI/GhostBodyObject.Experiments-sub000/internal/pinned"
)

// Observer is notified of transaction events. Callbacks run synchronously on
// the goroutine driving the transaction and must not call back into it.
type Observer interface {
	OnAdopt(tx *Txn, m Member)
	OnModify(tx *Txn, m Member)
	OnCommit(tx *Txn, modified []Member)
	OnClose(tx *Txn)
}

// Options configures a Repository.
type Options struct {
	// Store receives committed snapshots. Defaults to a Volatile store.
	Store Store
	// Allocator provides body buffers. Defaults to a new pinned.Arena.
	Allocator pinned.Allocator
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Repository is the transaction factory over one storage backend.
type Repository struct {
	store Store
	alloc pinned.Allocator
	log   *slog.Logger

	mu        sync.Mutex
	observers []Observer
	open      map[ksid.ID]*Txn
	closed    bool
}

// NewRepository creates a Repository.
func NewRepository(opts Options) *Repository {
	if opts.Store == nil {
		opts.Store = NewVolatile()
	}
	if opts.Allocator == nil {
		opts.Allocator = pinned.NewArena(0)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Repository{
		store: opts.Store,
		alloc: opts.Allocator,
		log:   opts.Logger,
		open:  make(map[ksid.ID]*Txn),
	}
}

// AddObserver registers an observer for every transaction begun afterwards.
func (r *Repository) AddObserver(o Observer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observers = append(r.observers, o)
}

// Store returns the storage backend.
func (r *Repository) Store() Store { return r.store }

// Allocator returns the buffer allocator.
func (r *Repository) Allocator() pinned.Allocator { return r.alloc }

// OpenCount returns the number of transactions not yet closed.
func (r *Repository) OpenCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.open)
}

type ctxKey struct{}

// FromContext returns the transaction carried by ctx, or nil.
func FromContext(ctx context.Context) *Txn {
	tx, _ := ctx.Value(ctxKey{}).(*Txn)
	return tx
}

// Begin opens a transaction in the given mode. The returned context carries
// the transaction; beginning another one from it while this one is open fails
// with NestedContext.
func (r *Repository) Begin(ctx context.Context, mode Mode) (context.Context, *Txn, error) {
	if prev := FromContext(ctx); prev != nil && prev.State() == Open {
		return ctx, nil, errs.New(errs.NestedContext, "transaction %s is already open in this context", prev.id).
			WithDetail("txn", prev.id.String())
	}
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ctx, nil, errs.New(errs.InvalidTransactionState, "repository is closed")
	}
	tx := &Txn{
		id:        ksid.NewID(),
		repo:      r,
		mode:      mode,
		observers: slices.Clone(r.observers),
	}
	tx.log = r.log.With("txn", tx.id.String())
	r.open[tx.id] = tx
	r.mu.Unlock()
	tx.log.DebugContext(ctx, "Begin transaction", "mode", mode)
	return context.WithValue(ctx, ctxKey{}, tx), tx, nil
}

// BeginRead opens a read-only transaction.
func (r *Repository) BeginRead(ctx context.Context) (context.Context, *Txn, error) {
	return r.Begin(ctx, ReadOnly)
}

// BeginWrite opens a read-write transaction.
func (r *Repository) BeginWrite(ctx context.Context) (context.Context, *Txn, error) {
	return r.Begin(ctx, ReadWrite)
}

func (r *Repository) forget(tx *Txn) {
	r.mu.Lock()
	delete(r.open, tx.id)
	r.mu.Unlock()
}

// Close closes every open transaction and the store. Begin fails afterwards.
// Transactions busy with a mutation or a commit are reported in the returned
// error and stay open; the repository is reopened so Close can be retried.
func (r *Repository) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	open := make([]*Txn, 0, len(r.open))
	for _, tx := range r.open {
		open = append(open, tx)
	}
	r.mu.Unlock()
	var errList []error
	for _, tx := range open {
		if err := tx.Close(); err != nil {
			errList = append(errList, err)
		}
	}
	if len(errList) != 0 {
		r.mu.Lock()
		r.closed = false
		r.mu.Unlock()
		return errors.Join(errList...)
	}
	return r.store.Close()
}
