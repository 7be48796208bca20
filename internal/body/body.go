// Package body implements entity bodies: one pinned buffer holding a field map
// header followed by the packed data of every variable-length field, and the
// splice primitive through which every field edit goes.
package body

import (
	"slices"

	"github.com/maruel/ksid"

	"github.com/Gabriel-RABHI/GhostBodyObject.Experiments-sub000/internal/errs"
	"github.com/Gabriel-RABHI/GhostBodyObject.Experiments-sub000/internal/fieldmap"
	"github.com/Gabriel-RABHI/GhostBodyObject.Experiments-sub000/internal/pinned"
	"github.com/Gabriel-RABHI/GhostBodyObject.Experiments-sub000/internal/txn"
)

// Body is an entity instance. It is owned by the transaction it was created or
// loaded in; only that transaction may mutate it, and closing the transaction
// releases the body.
type Body struct {
	id     ksid.ID
	schema *fieldmap.Schema
	owner  *txn.Txn
	buf    *pinned.Buffer // nil once released
}

// New creates an empty body in tx, which must be open and read-write.
func New(tx *txn.Txn, schema *fieldmap.Schema) (*Body, error) {
	if tx == nil {
		return nil, errs.New(errs.InvalidTransactionState, "no transaction")
	}
	if err := tx.RequireWritable(); err != nil {
		return nil, err
	}
	buf := pinned.New(tx.Repository().Allocator(), schema.HeaderSize())
	schema.Init(buf.Bytes())
	b := &Body{id: ksid.NewID(), schema: schema, owner: tx, buf: buf}
	if err := tx.Adopt(b); err != nil {
		buf.Release()
		return nil, err
	}
	// A new body is persisted on commit even if no field is ever set.
	tx.MarkModified(b)
	return b, nil
}

// Load rebuilds the committed body id in tx. Bodies loaded in a read-only
// transaction can be read but not mutated.
func Load(tx *txn.Txn, schema *fieldmap.Schema, id ksid.ID) (*Body, error) {
	if tx == nil {
		return nil, errs.New(errs.InvalidTransactionState, "no transaction")
	}
	rec, ok := tx.Repository().Store().Get(id)
	if !ok {
		return nil, errs.New(errs.NotFound, "body %s not found", id).WithDetail("id", id.String())
	}
	if rec.Type != schema.Name() {
		return nil, errs.New(errs.InvalidArgument, "body %s is a %q, not a %q", id, rec.Type, schema.Name())
	}
	if len(rec.Data) < schema.HeaderSize() {
		return nil, errs.New(errs.InvalidArgument, "body %s: %d bytes is shorter than the header", id, len(rec.Data))
	}
	buf := pinned.FromBytes(tx.Repository().Allocator(), rec.Data)
	if err := schema.Map(buf.Bytes()).Validate(); err != nil {
		buf.Release()
		return nil, errs.New(errs.InvalidArgument, "body %s: corrupt field map", id).Wrap(err)
	}
	b := &Body{id: id, schema: schema, owner: tx, buf: buf}
	if err := tx.Adopt(b); err != nil {
		buf.Release()
		return nil, err
	}
	return b, nil
}

// ID implements [txn.Member].
func (b *Body) ID() ksid.ID { return b.id }

// TypeName implements [txn.Member].
func (b *Body) TypeName() string { return b.schema.Name() }

// Schema returns the body's field layout.
func (b *Body) Schema() *fieldmap.Schema { return b.schema }

// Owner returns the owning transaction.
func (b *Body) Owner() *txn.Txn { return b.owner }

// Released reports whether the body's buffer was freed.
func (b *Body) Released() bool { return b.buf == nil }

// Snapshot implements [txn.Member].
func (b *Body) Snapshot() []byte {
	if b.buf == nil {
		return nil
	}
	return slices.Clone(b.buf.Bytes())
}

// Release implements [txn.Member].
func (b *Body) Release() {
	if b.buf != nil {
		b.buf.Release()
		b.buf = nil
	}
}

// Occupied returns the number of bytes in use, header included.
func (b *Body) Occupied() int {
	if b.buf == nil {
		return 0
	}
	return b.buf.Len()
}

// CheckLayout verifies that the fields are packed back to back after the
// header and account for every occupied byte.
func (b *Body) CheckLayout() error {
	if err := b.alive(); err != nil {
		return err
	}
	return b.fmap().Validate()
}

// Entry returns field's offset/length record and element size.
func (b *Body) Entry(field int) (fieldmap.Entry, int, error) {
	if err := b.alive(); err != nil {
		return fieldmap.Entry{}, 0, err
	}
	m := b.fmap()
	if err := m.CheckIndex(field); err != nil {
		return fieldmap.Entry{}, 0, err
	}
	e, size := m.Resolve(field)
	return e, size, nil
}

// Len returns field's element count, or 0 for an invalid field or a released
// body.
func (b *Body) Len(field int) int {
	e, _, err := b.Entry(field)
	if err != nil {
		return 0
	}
	return e.Length
}

// Bytes returns field's current bytes without copying. The slice is valid
// until the next mutation of the body.
func (b *Body) Bytes(field int) ([]byte, error) {
	e, size, err := b.Entry(field)
	if err != nil {
		return nil, err
	}
	return b.buf.Slice(e.Offset, e.Length*size)
}

func (b *Body) alive() error {
	if b.buf == nil {
		return errs.New(errs.InvalidTransactionState, "body %s was released", b.id)
	}
	return nil
}

func (b *Body) fmap() fieldmap.Map {
	return b.schema.Map(b.buf.Bytes())
}
