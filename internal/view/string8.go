package view

import (
	"bytes"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/Gabriel-RABHI/GhostBodyObject.Experiments-sub000/internal/body"
	"github.com/Gabriel-RABHI/GhostBodyObject.Experiments-sub000/internal/errs"
	"github.com/Gabriel-RABHI/GhostBodyObject.Experiments-sub000/internal/fieldmap"
	"github.com/Gabriel-RABHI/GhostBodyObject.Experiments-sub000/internal/txn"
)

// NotBoundary is returned by CharIndexForByteIndex for a byte index inside a
// multi-byte sequence.
const NotBoundary = -1

// String8 is a view over a UTF-8 string field. Len and byte-level methods
// count bytes; the Char methods count characters, each invalid byte counting
// as one character.
type String8 struct {
	a Array[byte]
}

// BindString8 binds a String8 to a UTF-8 field of b.
func BindString8(tx *txn.Txn, b *body.Body, field int) (String8, error) {
	a, err := bind[byte](tx, b, field, fieldmap.KindUTF8)
	return String8{a: a}, err
}

// Str8 returns a read-only String8 holding s.
func Str8(s string) String8 {
	return String8{a: Array[byte]{plain: []byte(s)}}
}

// Bytes exposes the bytes as an Array, for the generic algorithms.
func (s String8) Bytes() Array[byte] { return s.a }

// ReadOnly reports whether the view is bound to a plain value.
func (s String8) ReadOnly() bool { return s.a.ReadOnly() }

// Len returns the length in bytes.
func (s String8) Len() int { return s.a.Len() }

// ByteLen is Len.
func (s String8) ByteLen() int { return s.a.ByteLen() }

// At returns byte i.
func (s String8) At(i int) (byte, error) { return s.a.At(i) }

func (s String8) String() string { return string(s.a.raw()) }

// ToUTF16 re-encodes the string as UTF-16 code units.
func (s String8) ToUTF16() []uint16 {
	return utf16.Encode(bytes.Runes(s.a.raw()))
}

// IsValidUTF8 reports whether the bytes are valid UTF-8.
func (s String8) IsValidUTF8() bool { return utf8.Valid(s.a.raw()) }

// Set replaces the content with v.
func (s String8) Set(v string) error { return s.a.SetAll([]byte(v)) }

// Append adds v at the end.
func (s String8) Append(v string) error { return s.a.Append([]byte(v)...) }

// Prepend adds v at the beginning.
func (s String8) Prepend(v string) error { return s.a.Prepend([]byte(v)...) }

// Insert inserts v before byte i.
func (s String8) Insert(i int, v string) error { return s.a.InsertAt(i, []byte(v)...) }

// Remove removes count bytes starting at byte i.
func (s String8) Remove(i, count int) error { return s.a.RemoveRange(i, count) }

// Clear empties the string.
func (s String8) Clear() error { return s.a.Clear() }

// Substring returns count bytes starting at byte i.
func (s String8) Substring(i, count int) (string, error) {
	p := s.a.raw()
	if i < 0 || count < 0 || i+count > len(p) {
		return "", errs.RangeOutOfBounds(i, count, len(p))
	}
	return string(p[i : i+count]), nil
}

// IndexOf returns the byte index of the first occurrence of v, or -1.
func (s String8) IndexOf(v string) int { return bytes.Index(s.a.raw(), []byte(v)) }

// LastIndexOf returns the byte index of the last occurrence of v, or -1.
func (s String8) LastIndexOf(v string) int { return bytes.LastIndex(s.a.raw(), []byte(v)) }

// Contains reports whether v occurs in the string.
func (s String8) Contains(v string) bool { return s.IndexOf(v) >= 0 }

// StartsWith reports whether the string begins with v.
func (s String8) StartsWith(v string) bool { return bytes.HasPrefix(s.a.raw(), []byte(v)) }

// EndsWith reports whether the string ends with v.
func (s String8) EndsWith(v string) bool { return bytes.HasSuffix(s.a.raw(), []byte(v)) }

// ReplaceAll replaces every non-overlapping occurrence of old with repl in a
// single edit. An empty old is a no-op.
func (s String8) ReplaceAll(old, repl string) error {
	o := []byte(old)
	return s.a.edit("ReplaceAll", func(cur []byte, _ int) (int, int, []byte, error) {
		if len(o) == 0 || !bytes.Contains(cur, o) {
			return 0, 0, nil, nil
		}
		return 0, len(cur), bytes.ReplaceAll(cur, o, []byte(repl)), nil
	})
}

// RemoveAll removes every occurrence of v.
func (s String8) RemoveAll(v string) error {
	return s.ReplaceAll(v, "")
}

// Equal reports whether both strings are equal under mode.
func (s String8) Equal(o String8, mode Comparison) bool {
	return s.Compare(o, mode) == 0
}

// Compare orders two strings under mode. Ordinal compares bytes.
func (s String8) Compare(o String8, mode Comparison) int {
	if mode == IgnoreCase {
		return compareFolded(s.String(), o.String())
	}
	return bytes.Compare(s.a.raw(), o.a.raw())
}

// CharLen returns the number of characters.
func (s String8) CharLen() int { return utf8.RuneCount(s.a.raw()) }

// CharAt returns character ci.
func (s String8) CharAt(ci int) (rune, error) {
	p := s.a.raw()
	bi, err := byteIndex(p, ci)
	if err != nil {
		return 0, err
	}
	if bi == len(p) {
		return 0, errs.OutOfRange(ci, utf8.RuneCount(p))
	}
	r, _ := utf8.DecodeRune(p[bi:])
	return r, nil
}

// ByteIndexForCharIndex returns the byte offset of character ci. ci may equal
// CharLen, which maps to Len.
func (s String8) ByteIndexForCharIndex(ci int) (int, error) {
	return byteIndex(s.a.raw(), ci)
}

// CharIndexForByteIndex returns the character index starting at byte bi, or
// NotBoundary when bi falls inside a multi-byte sequence. bi may equal Len.
func (s String8) CharIndexForByteIndex(bi int) (int, error) {
	p := s.a.raw()
	if bi < 0 || bi > len(p) {
		return 0, errs.OutOfRange(bi, len(p)+1)
	}
	ci := 0
	for off := 0; off < bi; ci++ {
		_, w := utf8.DecodeRune(p[off:])
		off += w
		if off > bi {
			return NotBoundary, nil
		}
	}
	return ci, nil
}

// InsertChars inserts v before character ci.
func (s String8) InsertChars(ci int, v string) error {
	return s.a.edit("InsertChars", func(cur []byte, _ int) (int, int, []byte, error) {
		bi, err := byteIndex(cur, ci)
		if err != nil {
			return 0, 0, nil, err
		}
		return bi, 0, []byte(v), nil
	})
}

// RemoveChars removes count characters starting at character ci.
func (s String8) RemoveChars(ci, count int) error {
	return s.a.edit("RemoveChars", func(cur []byte, _ int) (int, int, []byte, error) {
		start, end, err := charRange(cur, ci, count)
		if err != nil {
			return 0, 0, nil, err
		}
		return start, end - start, nil, nil
	})
}

// SubstringChars returns count characters starting at character ci.
func (s String8) SubstringChars(ci, count int) (string, error) {
	p := s.a.raw()
	start, end, err := charRange(p, ci, count)
	if err != nil {
		return "", err
	}
	return string(p[start:end]), nil
}

// byteIndex walks p to the start of character ci.
func byteIndex(p []byte, ci int) (int, error) {
	if ci < 0 {
		return 0, errs.OutOfRange(ci, utf8.RuneCount(p)+1)
	}
	off := 0
	for range ci {
		if off == len(p) {
			return 0, errs.OutOfRange(ci, utf8.RuneCount(p)+1)
		}
		_, w := utf8.DecodeRune(p[off:])
		off += w
	}
	return off, nil
}

func charRange(p []byte, ci, count int) (int, int, error) {
	if count < 0 {
		return 0, 0, errs.RangeOutOfBounds(ci, count, utf8.RuneCount(p))
	}
	start, err := byteIndex(p, ci)
	if err != nil {
		return 0, 0, err
	}
	end, err := byteIndex(p[start:], count)
	if err != nil {
		return 0, 0, errs.RangeOutOfBounds(ci, count, utf8.RuneCount(p))
	}
	return start, start + end, nil
}
