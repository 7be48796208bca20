package fieldmap

import (
	"github.com/Gabriel-RABHI/GhostBodyObject.Experiments-sub000/internal/errs"
)

// Map reads and writes the entries stored in a body buffer's header. It is a
// transient value over the buffer's current bytes.
type Map struct {
	s   *Schema
	buf []byte
}

// CheckIndex reports IndexOutOfRange for an undeclared field.
func (m Map) CheckIndex(i int) error {
	if i < 0 || i >= len(m.s.fields) {
		return errs.OutOfRange(i, len(m.s.fields)).WithDetail("schema", m.s.name)
	}
	return nil
}

// Resolve returns field i's entry and element size in O(1).
func (m Map) Resolve(i int) (Entry, int) {
	f := m.s.fields[i]
	return f.Encoding.Decode(m.buf[m.s.pos[i]:]), f.ElemSize
}

// Check validates e against field i's encoding.
func (m Map) Check(i int, e Entry) error {
	f := m.s.fields[i]
	if err := f.Encoding.Check(e, f.ElemSize); err != nil {
		if ee, ok := err.(*errs.Error); ok {
			ee.WithDetail("field", f.Name)
		}
		return err
	}
	return nil
}

// Set stores field i's entry after validating it.
func (m Map) Set(i int, e Entry) error {
	if err := m.Check(i, e); err != nil {
		return err
	}
	m.s.fields[i].Encoding.Encode(m.buf[m.s.pos[i]:], e)
	return nil
}

// SetLength updates field i's element count, keeping its offset. It fails
// with Overflow when the count or the resulting end offset is not
// representable. It does not move any data.
func (m Map) SetLength(i, n int) error {
	if err := m.CheckIndex(i); err != nil {
		return err
	}
	e, _ := m.Resolve(i)
	e.Length = n
	return m.Set(i, e)
}

// Validate checks the packing invariant: fields are contiguous in index
// order, start right after the header and end exactly at the end of the
// buffer.
func (m Map) Validate() error {
	next := m.s.headerSize
	for i := range m.s.fields {
		e, size := m.Resolve(i)
		if e.Offset != next {
			return errs.New(errs.InvalidArgument, "field %s at offset %d, want %d", m.s.fields[i].Name, e.Offset, next)
		}
		next = e.End(size)
	}
	if next != len(m.buf) {
		return errs.New(errs.InvalidArgument, "fields end at %d, buffer holds %d bytes", next, len(m.buf))
	}
	return nil
}
