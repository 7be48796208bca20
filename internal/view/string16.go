package view

import (
	"slices"
	"unicode/utf16"

	"github.com/Gabriel-RABHI/GhostBodyObject.Experiments-sub000/internal/body"
	"github.com/Gabriel-RABHI/GhostBodyObject.Experiments-sub000/internal/errs"
	"github.com/Gabriel-RABHI/GhostBodyObject.Experiments-sub000/internal/fieldmap"
	"github.com/Gabriel-RABHI/GhostBodyObject.Experiments-sub000/internal/txn"
)

// String16 is a view over a UTF-16 string field. Lengths and indices count
// 16-bit code units.
type String16 struct {
	a Array[uint16]
}

// BindString16 binds a String16 to a UTF-16 field of b.
func BindString16(tx *txn.Txn, b *body.Body, field int) (String16, error) {
	a, err := bind[uint16](tx, b, field, fieldmap.KindUTF16)
	return String16{a: a}, err
}

// Str16 returns a read-only String16 holding s.
func Str16(s string) String16 {
	return String16{a: Array[uint16]{plain: utf16.Encode([]rune(s))}}
}

// Units exposes the code units as an Array, for the generic algorithms.
func (s String16) Units() Array[uint16] { return s.a }

// ReadOnly reports whether the view is bound to a plain value.
func (s String16) ReadOnly() bool { return s.a.ReadOnly() }

// Len returns the number of code units.
func (s String16) Len() int { return s.a.Len() }

// ByteLen returns Len*2.
func (s String16) ByteLen() int { return s.a.ByteLen() }

// At returns code unit i.
func (s String16) At(i int) (uint16, error) { return s.a.At(i) }

// String decodes the field. Unpaired surrogates become U+FFFD.
func (s String16) String() string {
	return string(utf16.Decode(s.a.items()))
}

// ToUTF8 is String.
func (s String16) ToUTF8() string { return s.String() }

// Set replaces the content with v.
func (s String16) Set(v string) error { return s.a.SetAll(encode16(v)) }

// Append adds v at the end.
func (s String16) Append(v string) error { return s.a.Append(encode16(v)...) }

// Prepend adds v at the beginning.
func (s String16) Prepend(v string) error { return s.a.Prepend(encode16(v)...) }

// Insert inserts v before code unit i.
func (s String16) Insert(i int, v string) error { return s.a.InsertAt(i, encode16(v)...) }

// Remove removes count code units starting at i.
func (s String16) Remove(i, count int) error { return s.a.RemoveRange(i, count) }

// Clear empties the string.
func (s String16) Clear() error { return s.a.Clear() }

// ReplaceAll replaces every non-overlapping occurrence of old with repl in a
// single edit. An empty old is a no-op.
func (s String16) ReplaceAll(old, repl string) error {
	o := encode16(old)
	return s.a.edit("ReplaceAll", func(cur []byte, _ int) (int, int, []byte, error) {
		if len(o) == 0 {
			return 0, 0, nil, nil
		}
		units := decode[uint16](cur)
		if indexUnits(units, o) < 0 {
			return 0, 0, nil, nil
		}
		return 0, len(cur), bytesOf(replaceUnits(units, o, encode16(repl))), nil
	})
}

// IndexOf returns the code unit index of the first occurrence of v, or -1.
func (s String16) IndexOf(v string) int { return indexUnits(s.a.items(), encode16(v)) }

// LastIndexOf returns the code unit index of the last occurrence of v, or -1.
func (s String16) LastIndexOf(v string) int { return lastIndexUnits(s.a.items(), encode16(v)) }

// Contains reports whether v occurs in the string.
func (s String16) Contains(v string) bool { return s.IndexOf(v) >= 0 }

// StartsWith reports whether the string begins with v.
func (s String16) StartsWith(v string) bool { return s.a.StartsWith(encode16(v)) }

// EndsWith reports whether the string ends with v.
func (s String16) EndsWith(v string) bool { return s.a.EndsWith(encode16(v)) }

// Substring decodes count code units starting at i.
func (s String16) Substring(i, count int) (string, error) {
	u := s.a.items()
	if i < 0 || count < 0 || i+count > len(u) {
		return "", errs.RangeOutOfBounds(i, count, len(u))
	}
	return string(utf16.Decode(u[i : i+count])), nil
}

// Equal reports whether both strings are equal under mode.
func (s String16) Equal(o String16, mode Comparison) bool {
	return s.Compare(o, mode) == 0
}

// Compare orders two strings under mode. Ordinal compares code units.
func (s String16) Compare(o String16, mode Comparison) int {
	if mode == IgnoreCase {
		return compareFolded(s.String(), o.String())
	}
	return slices.Compare(s.a.items(), o.a.items())
}

func encode16(v string) []uint16 {
	return utf16.Encode([]rune(v))
}

func indexUnits(hay, needle []uint16) int {
	if len(needle) == 0 {
		return 0
	}
	for i := 0; i+len(needle) <= len(hay); i++ {
		if slices.Equal(hay[i:i+len(needle)], needle) {
			return i
		}
	}
	return -1
}

func lastIndexUnits(hay, needle []uint16) int {
	if len(needle) == 0 {
		return len(hay)
	}
	for i := len(hay) - len(needle); i >= 0; i-- {
		if slices.Equal(hay[i:i+len(needle)], needle) {
			return i
		}
	}
	return -1
}

func replaceUnits(cur, old, repl []uint16) []uint16 {
	out := make([]uint16, 0, len(cur))
	for {
		i := indexUnits(cur, old)
		if i < 0 {
			return append(out, cur...)
		}
		out = append(out, cur[:i]...)
		out = append(out, repl...)
		cur = cur[i+len(old):]
	}
}
