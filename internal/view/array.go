package view

import (
	"bytes"
	"iter"
	"slices"

	"github.com/Gabriel-RABHI/GhostBodyObject.Experiments-sub000/internal/body"
	"github.com/Gabriel-RABHI/GhostBodyObject.Experiments-sub000/internal/errs"
	"github.com/Gabriel-RABHI/GhostBodyObject.Experiments-sub000/internal/fieldmap"
	"github.com/Gabriel-RABHI/GhostBodyObject.Experiments-sub000/internal/txn"
)

// Array is a view over a field of fixed-size elements.
//
// T must have a fixed size, contain no pointers and have no padding. Reads on
// a released body behave as on an empty array.
type Array[T any] struct {
	tx    *txn.Txn
	b     *body.Body
	field int
	plain []T
}

// Bind binds an Array to an array field of b. tx is the token every mutation
// made through the view will present to the body's write guard.
func Bind[T any](tx *txn.Txn, b *body.Body, field int) (Array[T], error) {
	return bind[T](tx, b, field, fieldmap.KindArray)
}

func bind[T any](tx *txn.Txn, b *body.Body, field int, kind fieldmap.Kind) (Array[T], error) {
	if err := checkElem[T](); err != nil {
		return Array[T]{}, err
	}
	if _, _, err := b.Entry(field); err != nil {
		return Array[T]{}, err
	}
	f := b.Schema().Field(field)
	if f.Kind != kind {
		return Array[T]{}, errs.New(errs.InvalidArgument, "field %s is %s, not %s", f.Name, f.Kind, kind)
	}
	if f.ElemSize != sizeOf[T]() {
		return Array[T]{}, errs.New(errs.InvalidArgument, "field %s has %d byte elements, not %d", f.Name, f.ElemSize, sizeOf[T]())
	}
	return Array[T]{tx: tx, b: b, field: field}, nil
}

// Of returns a read-only Array over xs. It panics if T is not a valid element
// type.
func Of[T any](xs []T) Array[T] {
	if err := checkElem[T](); err != nil {
		panic(err)
	}
	return Array[T]{plain: xs}
}

// ReadOnly reports whether the view is bound to a plain value.
func (a Array[T]) ReadOnly() bool { return a.b == nil }

// Len returns the number of elements.
func (a Array[T]) Len() int {
	if a.b == nil {
		return len(a.plain)
	}
	return a.b.Len(a.field)
}

// ByteLen returns Len times the element size.
func (a Array[T]) ByteLen() int { return a.Len() * sizeOf[T]() }

func (a Array[T]) raw() []byte {
	if a.b == nil {
		return bytesOf(a.plain)
	}
	p, err := a.b.Bytes(a.field)
	if err != nil {
		return nil
	}
	return p
}

// items returns the elements, zero-copy when the field is aligned for T.
func (a Array[T]) items() []T {
	if a.b == nil {
		return a.plain
	}
	p := a.raw()
	if s, ok := cast[T](p); ok {
		return s
	}
	return decode[T](p)
}

func (a Array[T]) elem(p []byte, i int) []byte {
	size := sizeOf[T]()
	return p[i*size : (i+1)*size]
}

// At returns element i.
func (a Array[T]) At(i int) (T, error) {
	var v T
	p := a.raw()
	n := len(p) / sizeOf[T]()
	if i < 0 || i >= n {
		return v, errs.OutOfRange(i, n)
	}
	copy(valueBytes(&v), a.elem(p, i))
	return v, nil
}

// ReadSlice returns the elements without copying. It fails with Misaligned
// when the field's address is not aligned for T; use ToSlice then.
func (a Array[T]) ReadSlice() ([]T, error) {
	if a.b == nil {
		return a.plain, nil
	}
	if s, ok := cast[T](a.raw()); ok {
		return s, nil
	}
	return nil, errs.New(errs.Misaligned, "field %s is not aligned for its element type", a.b.Schema().Field(a.field).Name)
}

// ToSlice returns a copy of the elements.
func (a Array[T]) ToSlice() []T {
	return slices.Clone(a.items())
}

// Values iterates over index/element pairs.
func (a Array[T]) Values() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i, v := range a.items() {
			if !yield(i, v) {
				return
			}
		}
	}
}

// IndexOf returns the index of the first element equal to v, or -1.
func (a Array[T]) IndexOf(v T) int { return indexElem(a.raw(), valueBytes(&v)) }

// LastIndexOf returns the index of the last element equal to v, or -1.
func (a Array[T]) LastIndexOf(v T) int {
	p, want := a.raw(), valueBytes(&v)
	for i := len(p)/len(want) - 1; i >= 0; i-- {
		if bytes.Equal(a.elem(p, i), want) {
			return i
		}
	}
	return -1
}

// Contains reports whether an element equals v.
func (a Array[T]) Contains(v T) bool { return a.IndexOf(v) >= 0 }

// StartsWith reports whether the array begins with prefix.
func (a Array[T]) StartsWith(prefix []T) bool {
	return bytes.HasPrefix(a.raw(), bytesOf(prefix))
}

// EndsWith reports whether the array ends with suffix.
func (a Array[T]) EndsWith(suffix []T) bool {
	return bytes.HasSuffix(a.raw(), bytesOf(suffix))
}

// All reports whether every element satisfies pred. It is true when empty.
func (a Array[T]) All(pred func(T) bool) bool {
	for _, v := range a.items() {
		if !pred(v) {
			return false
		}
	}
	return true
}

// Any reports whether some element satisfies pred.
func (a Array[T]) Any(pred func(T) bool) bool {
	return a.FindIndex(pred) >= 0
}

// Count returns the number of elements satisfying pred.
func (a Array[T]) Count(pred func(T) bool) int {
	n := 0
	for _, v := range a.items() {
		if pred(v) {
			n++
		}
	}
	return n
}

// Where returns the elements satisfying pred.
func (a Array[T]) Where(pred func(T) bool) []T {
	var out []T
	for _, v := range a.items() {
		if pred(v) {
			out = append(out, v)
		}
	}
	return out
}

// Select maps every element of a through fn.
func Select[T, U any](a Array[T], fn func(T) U) []U {
	items := a.items()
	out := make([]U, len(items))
	for i, v := range items {
		out[i] = fn(v)
	}
	return out
}

// Take returns a copy of the first n elements, or all of them when there are
// fewer.
func (a Array[T]) Take(n int) []T {
	items := a.items()
	return slices.Clone(items[:min(max(n, 0), len(items))])
}

// Skip returns a copy of the elements after the first n.
func (a Array[T]) Skip(n int) []T {
	items := a.items()
	return slices.Clone(items[min(max(n, 0), len(items)):])
}

// Distinct returns the elements with bitwise duplicates removed, keeping the
// first occurrence.
func (a Array[T]) Distinct() []T {
	p := a.raw()
	n := len(p) / sizeOf[T]()
	seen := make(map[string]struct{}, n)
	items := a.items()
	var out []T
	for i := range n {
		k := string(a.elem(p, i))
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, items[i])
	}
	return out
}

// BinarySearch searches a sorted array for v. It returns the position where v
// is or would be inserted and whether it was found.
func (a Array[T]) BinarySearch(v T, cmp func(T, T) int) (int, bool) {
	return slices.BinarySearchFunc(a.items(), v, cmp)
}

// Find returns the first element satisfying pred.
func (a Array[T]) Find(pred func(T) bool) (T, bool) {
	items := a.items()
	if i := slices.IndexFunc(items, pred); i >= 0 {
		return items[i], true
	}
	var zero T
	return zero, false
}

// FindLast returns the last element satisfying pred.
func (a Array[T]) FindLast(pred func(T) bool) (T, bool) {
	items := a.items()
	if i := lastIndexFunc(items, pred); i >= 0 {
		return items[i], true
	}
	var zero T
	return zero, false
}

// FindIndex returns the index of the first element satisfying pred, or -1.
func (a Array[T]) FindIndex(pred func(T) bool) int {
	return slices.IndexFunc(a.items(), pred)
}

// FindLastIndex returns the index of the last element satisfying pred, or -1.
func (a Array[T]) FindLastIndex(pred func(T) bool) int {
	return lastIndexFunc(a.items(), pred)
}

// FindAllIndex returns the indices of every element satisfying pred.
func (a Array[T]) FindAllIndex(pred func(T) bool) []int {
	var out []int
	for i, v := range a.items() {
		if pred(v) {
			out = append(out, i)
		}
	}
	return out
}

// First returns the first element.
func (a Array[T]) First() (T, error) {
	if a.Len() == 0 {
		var zero T
		return zero, errs.Empty("First")
	}
	return a.At(0)
}

// Last returns the last element.
func (a Array[T]) Last() (T, error) {
	n := a.Len()
	if n == 0 {
		var zero T
		return zero, errs.Empty("Last")
	}
	return a.At(n - 1)
}

// indexElem returns the index of the first element of p equal to want.
func indexElem(p, want []byte) int {
	size := len(want)
	for i := range len(p) / size {
		if bytes.Equal(p[i*size:(i+1)*size], want) {
			return i
		}
	}
	return -1
}

func lastIndexFunc[T any](s []T, pred func(T) bool) int {
	for i := len(s) - 1; i >= 0; i-- {
		if pred(s[i]) {
			return i
		}
	}
	return -1
}
