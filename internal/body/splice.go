package body

import (
	"slices"

	"github.com/Gabriel-RABHI/GhostBodyObject.Experiments-sub000/internal/errs"
	"github.com/Gabriel-RABHI/GhostBodyObject.Experiments-sub000/internal/fieldmap"
	"github.com/Gabriel-RABHI/GhostBodyObject.Experiments-sub000/internal/txn"
)

// edit computes splice arguments from the field's current entry while the
// write guard is held.
type edit func(e fieldmap.Entry, elemSize int) (start, count int, insert []byte, err error)

// Splice replaces count bytes at byte offset start of field with insert.
// Every field stored after it moves by the length difference. Offsets and
// lengths are in bytes and must be multiples of the field's element size.
//
// Nothing is modified when Splice returns an error.
func (b *Body) Splice(tx *txn.Txn, field, start, count int, insert []byte) error {
	return b.apply(tx, field, func(fieldmap.Entry, int) (int, int, []byte, error) {
		return start, count, insert, nil
	})
}

// Swap replaces the whole content of field.
func (b *Body) Swap(tx *txn.Txn, field int, data []byte) error {
	return b.apply(tx, field, func(e fieldmap.Entry, size int) (int, int, []byte, error) {
		return 0, e.Length * size, data, nil
	})
}

// Append adds data after the last element of field.
func (b *Body) Append(tx *txn.Txn, field int, data []byte) error {
	return b.apply(tx, field, func(e fieldmap.Entry, size int) (int, int, []byte, error) {
		return e.Length * size, 0, data, nil
	})
}

// Prepend adds data before the first element of field.
func (b *Body) Prepend(tx *txn.Txn, field int, data []byte) error {
	return b.Splice(tx, field, 0, 0, data)
}

// Insert adds data before element index; index may equal the length.
func (b *Body) Insert(tx *txn.Txn, field, index int, data []byte) error {
	return b.apply(tx, field, func(e fieldmap.Entry, size int) (int, int, []byte, error) {
		if index < 0 || index > e.Length {
			return 0, 0, nil, errs.OutOfRange(index, e.Length+1)
		}
		return index * size, 0, data, nil
	})
}

// RemoveRange removes count elements starting at element index.
func (b *Body) RemoveRange(tx *txn.Txn, field, index, count int) error {
	return b.ReplaceRange(tx, field, index, count, nil)
}

// ReplaceRange replaces count elements starting at element index with data.
func (b *Body) ReplaceRange(tx *txn.Txn, field, index, count int, data []byte) error {
	return b.apply(tx, field, func(e fieldmap.Entry, size int) (int, int, []byte, error) {
		if index < 0 || count < 0 || index+count > e.Length {
			return 0, 0, nil, errs.RangeOutOfBounds(index, count, e.Length)
		}
		return index * size, count * size, data, nil
	})
}

// Resize sets field's element count to n. Growing appends zeroed elements and
// shrinking truncates. Resizing to the current length is a no-op that still
// requires the write guard.
func (b *Body) Resize(tx *txn.Txn, field, n int) error {
	return b.apply(tx, field, func(e fieldmap.Entry, size int) (int, int, []byte, error) {
		if n < 0 {
			return 0, 0, nil, errs.New(errs.InvalidArgument, "negative length %d", n)
		}
		if n >= e.Length {
			return e.Length * size, 0, make([]byte, (n-e.Length)*size), nil
		}
		return n * size, (e.Length - n) * size, nil, nil
	})
}

// Edit computes and applies a splice of field while the write guard is held,
// so reading the current content and changing it form one operation. fn gets
// field's current bytes, valid only until it returns, and the element size.
// It returns the splice to perform, in bytes. A zero count with nothing to
// insert leaves the body unmodified. An error from fn aborts the edit.
func (b *Body) Edit(tx *txn.Txn, field int, fn func(cur []byte, elemSize int) (start, count int, insert []byte, err error)) error {
	return b.apply(tx, field, func(e fieldmap.Entry, size int) (int, int, []byte, error) {
		cur, err := b.buf.Slice(e.Offset, e.Length*size)
		if err != nil {
			return 0, 0, nil, err
		}
		return fn(cur, size)
	})
}

// Clear empties field.
func (b *Body) Clear(tx *txn.Txn, field int) error {
	return b.Swap(tx, field, nil)
}

// WriteInPlace lets fn overwrite field's bytes without changing its length.
// It holds the write guard for the duration of fn and marks the body modified
// when fn succeeds.
func (b *Body) WriteInPlace(tx *txn.Txn, field int, fn func(p []byte) error) error {
	if err := b.alive(); err != nil {
		return err
	}
	release, err := tx.Guard(b.owner)
	if err != nil {
		return err
	}
	defer release()
	m := b.fmap()
	if err := m.CheckIndex(field); err != nil {
		return err
	}
	e, size := m.Resolve(field)
	p, err := b.buf.Slice(e.Offset, e.Length*size)
	if err != nil {
		return err
	}
	if err := fn(p); err != nil {
		return err
	}
	tx.MarkModified(b)
	return nil
}

func (b *Body) apply(tx *txn.Txn, field int, fn edit) error {
	if err := b.alive(); err != nil {
		return err
	}
	release, err := tx.Guard(b.owner)
	if err != nil {
		return err
	}
	defer release()
	m := b.fmap()
	if err := m.CheckIndex(field); err != nil {
		return err
	}
	e, size := m.Resolve(field)
	start, count, insert, err := fn(e, size)
	if err != nil {
		return err
	}
	if err := b.splice(m, field, e, size, start, count, insert); err != nil {
		return err
	}
	if count != 0 || len(insert) != 0 {
		tx.MarkModified(b)
	}
	return nil
}

// splice performs the edit once the guard is held. Every check runs before
// the first byte moves.
func (b *Body) splice(m fieldmap.Map, field int, e fieldmap.Entry, size, start, count int, insert []byte) error {
	old := e.Length * size
	if start < 0 || count < 0 || start+count > old {
		return errs.RangeOutOfBounds(start, count, old).WithDetail("field", b.schema.Field(field).Name)
	}
	if start%size != 0 || count%size != 0 || len(insert)%size != 0 {
		return errs.New(errs.InvalidArgument, "byte range [%d,+%d) with %d inserted bytes is not a multiple of element size %d",
			start, count, len(insert), size).WithDetail("field", b.schema.Field(field).Name)
	}
	delta := len(insert) - count
	next := fieldmap.Entry{Offset: e.Offset, Length: (old + delta) / size}
	if err := m.Check(field, next); err != nil {
		return err
	}
	n := b.schema.NumFields()
	if delta != 0 {
		for j := field + 1; j < n; j++ {
			ej, _ := m.Resolve(j)
			ej.Offset += delta
			if err := m.Check(j, ej); err != nil {
				return err
			}
		}
	}

	if b.buf.Aliases(insert) {
		insert = slices.Clone(insert)
	}
	at := e.Offset + start
	if delta != 0 {
		if delta > 0 {
			b.buf.Reserve(delta)
		}
		if err := b.buf.Shift(at+count, delta); err != nil {
			return err
		}
	}
	if err := b.buf.WriteAt(at, insert); err != nil {
		return err
	}

	// Reserve may have moved the buffer.
	m = b.fmap()
	if err := m.Set(field, next); err != nil {
		return err
	}
	if delta != 0 {
		for j := field + 1; j < n; j++ {
			ej, _ := m.Resolve(j)
			ej.Offset += delta
			if err := m.Set(j, ej); err != nil {
				return err
			}
		}
	}
	return nil
}
