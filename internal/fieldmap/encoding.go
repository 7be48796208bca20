// Package fieldmap encodes the offset/length records of a body's
// variable-length fields.
//
// Each field has one entry in the header at the start of the body buffer. The
// entry's [Encoding] is chosen once in the [Schema] and never changes:
//
//   - [Small]: 4 bytes, offset up to 65,535 and length up to 2,047 elements.
//     The field's end offset is also bounded to 65,535.
//   - [Large]: 8 bytes, same 16-bit start offset, length up to 16,777,215.
//
// Fields are stored in index order with no padding, so a field's data ends
// exactly where the next field's data starts.
package fieldmap

import (
	"encoding/binary"

	"github.com/Gabriel-RABHI/GhostBodyObject.Experiments-sub000/internal/errs"
)

// Wire constants of the encodings.
const (
	SmallMaxOffset = 1<<16 - 1 // 65,535
	SmallMaxLength = 1<<11 - 1 // 2,047
	LargeMaxOffset = SmallMaxOffset
	LargeMaxLength = 1<<24 - 1 // 16,777,215
)

// Entry is a decoded field map record.
type Entry struct {
	Offset int // byte position within the buffer
	Length int // element count
}

// End returns the byte offset just past the field's data.
func (e Entry) End(elemSize int) int {
	return e.Offset + e.Length*elemSize
}

// Encoding is the bit layout of an entry.
type Encoding interface {
	// Name identifies the encoding.
	Name() string
	// EntrySize is the number of header bytes an entry takes.
	EntrySize() int
	// MaxOffset is the largest representable offset.
	MaxOffset() int
	// MaxLength is the largest representable element count.
	MaxLength() int
	// Check validates that e can be represented for a field of elemSize.
	Check(e Entry, elemSize int) error
	// Decode reads an entry from b.
	Decode(b []byte) Entry
	// Encode writes e into b. e must have passed Check.
	Encode(b []byte, e Entry)
}

type small struct{}

type large struct{}

// Small is the compact encoding.
var Small Encoding = small{}

// Large is the wide-length encoding.
var Large Encoding = large{}

func (small) Name() string   { return "small" }
func (small) EntrySize() int { return 4 }
func (small) MaxOffset() int { return SmallMaxOffset }
func (small) MaxLength() int { return SmallMaxLength }

func (s small) Check(e Entry, elemSize int) error {
	if e.Length < 0 || e.Length > SmallMaxLength {
		return errs.New(errs.Overflow, "length %d exceeds small encoding limit %d", e.Length, SmallMaxLength).
			WithDetail("length", e.Length)
	}
	if e.Offset < 0 || e.End(elemSize) > SmallMaxOffset {
		return errs.New(errs.Overflow, "end offset %d exceeds small encoding limit %d", e.End(elemSize), SmallMaxOffset).
			WithDetail("offset", e.Offset)
	}
	return nil
}

func (small) Decode(b []byte) Entry {
	v := binary.LittleEndian.Uint32(b)
	return Entry{Offset: int(v & 0xFFFF), Length: int(v >> 16 & SmallMaxLength)}
}

func (small) Encode(b []byte, e Entry) {
	binary.LittleEndian.PutUint32(b, uint32(e.Offset)|uint32(e.Length)<<16)
}

func (large) Name() string   { return "large" }
func (large) EntrySize() int { return 8 }
func (large) MaxOffset() int { return LargeMaxOffset }
func (large) MaxLength() int { return LargeMaxLength }

func (large) Check(e Entry, _ int) error {
	if e.Length < 0 || e.Length > LargeMaxLength {
		return errs.New(errs.Overflow, "length %d exceeds large encoding limit %d", e.Length, LargeMaxLength).
			WithDetail("length", e.Length)
	}
	if e.Offset < 0 || e.Offset > LargeMaxOffset {
		return errs.New(errs.Overflow, "offset %d exceeds large encoding limit %d", e.Offset, LargeMaxOffset).
			WithDetail("offset", e.Offset)
	}
	return nil
}

func (large) Decode(b []byte) Entry {
	v := binary.LittleEndian.Uint64(b)
	return Entry{Offset: int(v & 0xFFFF), Length: int(v >> 16 & LargeMaxLength)}
}

func (large) Encode(b []byte, e Entry) {
	binary.LittleEndian.PutUint64(b, uint64(e.Offset)|uint64(e.Length)<<16)
}
