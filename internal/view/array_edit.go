package view

import (
	"slices"

	"github.com/Gabriel-RABHI/GhostBodyObject.Experiments-sub000/internal/errs"
)

func (a Array[T]) writable(op string) error {
	if a.b == nil {
		return errs.ReadOnlyView(op)
	}
	return nil
}

// Set overwrites element i in place.
func (a Array[T]) Set(i int, v T) error {
	if err := a.writable("Set"); err != nil {
		return err
	}
	return a.b.WriteInPlace(a.tx, a.field, func(p []byte) error {
		n := len(p) / sizeOf[T]()
		if i < 0 || i >= n {
			return errs.OutOfRange(i, n)
		}
		copy(a.elem(p, i), valueBytes(&v))
		return nil
	})
}

// WriteSlice calls fn with the elements as a mutable slice. Changes made by fn
// are written back; the length cannot change.
func (a Array[T]) WriteSlice(fn func([]T) error) error {
	if err := a.writable("WriteSlice"); err != nil {
		return err
	}
	return a.b.WriteInPlace(a.tx, a.field, func(p []byte) error {
		if s, ok := cast[T](p); ok {
			return fn(s)
		}
		s := decode[T](p)
		if err := fn(s); err != nil {
			return err
		}
		copy(p, bytesOf(s))
		return nil
	})
}

// SetAll replaces the content with vs.
func (a Array[T]) SetAll(vs []T) error {
	if err := a.writable("SetAll"); err != nil {
		return err
	}
	return a.b.Swap(a.tx, a.field, bytesOf(vs))
}

// Append adds vs at the end.
func (a Array[T]) Append(vs ...T) error {
	if err := a.writable("Append"); err != nil {
		return err
	}
	return a.b.Append(a.tx, a.field, bytesOf(vs))
}

// Prepend adds vs at the beginning.
func (a Array[T]) Prepend(vs ...T) error {
	if err := a.writable("Prepend"); err != nil {
		return err
	}
	return a.b.Prepend(a.tx, a.field, bytesOf(vs))
}

// InsertAt inserts vs before element i; i may equal Len.
func (a Array[T]) InsertAt(i int, vs ...T) error {
	if err := a.writable("InsertAt"); err != nil {
		return err
	}
	return a.b.Insert(a.tx, a.field, i, bytesOf(vs))
}

// RemoveAt removes element i.
func (a Array[T]) RemoveAt(i int) error {
	return a.edit("RemoveAt", func(cur []byte, size int) (int, int, []byte, error) {
		if n := len(cur) / size; i < 0 || i >= n {
			return 0, 0, nil, errs.OutOfRange(i, n)
		}
		return i * size, size, nil, nil
	})
}

// RemoveRange removes count elements starting at i.
func (a Array[T]) RemoveRange(i, count int) error {
	if err := a.writable("RemoveRange"); err != nil {
		return err
	}
	return a.b.RemoveRange(a.tx, a.field, i, count)
}

// ReplaceRange replaces count elements starting at i with vs.
func (a Array[T]) ReplaceRange(i, count int, vs ...T) error {
	if err := a.writable("ReplaceRange"); err != nil {
		return err
	}
	return a.b.ReplaceRange(a.tx, a.field, i, count, bytesOf(vs))
}

// Resize sets the length to n, zero-filling new elements.
func (a Array[T]) Resize(n int) error {
	if err := a.writable("Resize"); err != nil {
		return err
	}
	return a.b.Resize(a.tx, a.field, n)
}

// Clear removes every element.
func (a Array[T]) Clear() error {
	if err := a.writable("Clear"); err != nil {
		return err
	}
	return a.b.Clear(a.tx, a.field)
}

// Remove removes the first element equal to v and reports whether one was
// found.
func (a Array[T]) Remove(v T) (bool, error) {
	found := false
	err := a.edit("Remove", func(cur []byte, size int) (int, int, []byte, error) {
		i := indexElem(cur, valueBytes(&v))
		if i < 0 {
			return 0, 0, nil, nil
		}
		found = true
		return i * size, size, nil, nil
	})
	if err != nil {
		return false, err
	}
	return found, nil
}

// RemoveAll removes every element satisfying pred in a single edit and
// returns how many were removed. pred runs with the write guard held and must
// not mutate the body.
func (a Array[T]) RemoveAll(pred func(T) bool) (int, error) {
	removed := 0
	err := a.edit("RemoveAll", func(cur []byte, size int) (int, int, []byte, error) {
		kept := slices.DeleteFunc(decode[T](cur), pred)
		removed = len(cur)/size - len(kept)
		if removed == 0 {
			return 0, 0, nil, nil
		}
		return 0, len(cur), bytesOf(kept), nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// Pop removes and returns the last element.
func (a Array[T]) Pop() (T, error) {
	var v T
	err := a.edit("Pop", func(cur []byte, size int) (int, int, []byte, error) {
		if len(cur) == 0 {
			return 0, 0, nil, errs.Empty("Pop")
		}
		at := len(cur) - size
		copy(valueBytes(&v), cur[at:])
		return at, size, nil, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v, nil
}

// Shift removes and returns the first element.
func (a Array[T]) Shift() (T, error) {
	var v T
	err := a.edit("Shift", func(cur []byte, size int) (int, int, []byte, error) {
		if len(cur) == 0 {
			return 0, 0, nil, errs.Empty("Shift")
		}
		copy(valueBytes(&v), cur[:size])
		return 0, size, nil, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v, nil
}

// Reverse reverses the elements in place.
func (a Array[T]) Reverse() error {
	return a.inPlace("Reverse", func(s []T) { slices.Reverse(s) })
}

// Fill sets every element to v.
func (a Array[T]) Fill(v T) error {
	return a.inPlace("Fill", func(s []T) {
		for i := range s {
			s[i] = v
		}
	})
}

// Sort sorts the elements in place.
func (a Array[T]) Sort(cmp func(T, T) int) error {
	return a.inPlace("Sort", func(s []T) { slices.SortFunc(s, cmp) })
}

// edit reads and splices the field as one guarded operation.
func (a Array[T]) edit(op string, fn func(cur []byte, size int) (int, int, []byte, error)) error {
	if err := a.writable(op); err != nil {
		return err
	}
	return a.b.Edit(a.tx, a.field, fn)
}

func (a Array[T]) inPlace(op string, fn func([]T)) error {
	if err := a.writable(op); err != nil {
		return err
	}
	return a.WriteSlice(func(s []T) error {
		fn(s)
		return nil
	})
}
