// Package pinned provides the contiguous byte regions that back entity bodies.
//
// A [Buffer] is a region obtained from an [Allocator]. The Go runtime never
// moves heap memory, so a slice taken from a Buffer stays valid until the
// Buffer itself is grown past its capacity or released. Growing past capacity
// is explicit ([Buffer.Reserve]) and happens before any byte is shifted.
package pinned

import (
	"unsafe"

	"github.com/Gabriel-RABHI/GhostBodyObject.Experiments-sub000/internal/errs"
)

// Allocator hands out byte regions. Regions returned by Alloc have
// len == cap >= size and are zeroed.
type Allocator interface {
	Alloc(size int) []byte
	Free(region []byte)
}

// Heap is an Allocator backed directly by the Go heap.
type Heap struct{}

// Alloc implements [Allocator].
func (Heap) Alloc(size int) []byte { return make([]byte, size) }

// Free implements [Allocator].
func (Heap) Free([]byte) {}

// Buffer is a growable, bounds-checked byte region.
type Buffer struct {
	mem   []byte // len(mem) == cap(mem)
	n     int    // occupied bytes
	alloc Allocator
}

// New returns a Buffer with size zeroed occupied bytes.
func New(a Allocator, size int) *Buffer {
	if a == nil {
		a = Heap{}
	}
	mem := a.Alloc(size)
	return &Buffer{mem: mem[:cap(mem)], n: size, alloc: a}
}

// FromBytes returns a Buffer holding a copy of data.
func FromBytes(a Allocator, data []byte) *Buffer {
	b := New(a, len(data))
	copy(b.mem, data)
	return b
}

// Len returns the number of occupied bytes.
func (b *Buffer) Len() int { return b.n }

// Cap returns the capacity of the current region.
func (b *Buffer) Cap() int { return len(b.mem) }

// Bytes returns the occupied bytes without copying.
func (b *Buffer) Bytes() []byte { return b.mem[:b.n:b.n] }

// Slice returns bytes [off, off+n) without copying.
func (b *Buffer) Slice(off, n int) ([]byte, error) {
	if off < 0 || n < 0 || off+n > b.n {
		return nil, errs.RangeOutOfBounds(off, n, b.n)
	}
	return b.mem[off : off+n : off+n], nil
}

// Reserve makes room for extra more occupied bytes. When the current region is
// too small, a new region is obtained from the allocator, the occupied bytes
// are copied over and the old region is freed. It reports whether the region
// moved.
func (b *Buffer) Reserve(extra int) bool {
	need := b.n + extra
	if need <= len(b.mem) {
		return false
	}
	newCap := 2 * len(b.mem)
	if newCap < need {
		newCap = need
	}
	region := b.alloc.Alloc(newCap)
	region = region[:cap(region)]
	copy(region, b.mem[:b.n])
	old := b.mem
	b.mem = region
	b.alloc.Free(old)
	return true
}

// Shift moves every occupied byte at or after from by delta. A positive delta
// grows the occupied length and needs prior [Buffer.Reserve]; a negative delta
// shrinks it and zeroes the vacated tail.
func (b *Buffer) Shift(from, delta int) error {
	if from < 0 || from > b.n {
		return errs.OutOfRange(from, b.n+1)
	}
	switch {
	case delta > 0:
		if b.n+delta > len(b.mem) {
			return errs.New(errs.Overflow, "shift by %d exceeds capacity %d", delta, len(b.mem))
		}
		copy(b.mem[from+delta:b.n+delta], b.mem[from:b.n])
		b.n += delta
	case delta < 0:
		if from+delta < 0 {
			return errs.OutOfRange(from+delta, b.n)
		}
		copy(b.mem[from+delta:], b.mem[from:b.n])
		clear(b.mem[b.n+delta : b.n])
		b.n += delta
	}
	return nil
}

// WriteAt copies p into the occupied bytes starting at off.
func (b *Buffer) WriteAt(off int, p []byte) error {
	if off < 0 || off+len(p) > b.n {
		return errs.RangeOutOfBounds(off, len(p), b.n)
	}
	copy(b.mem[off:], p)
	return nil
}

// Aliases reports whether p shares memory with the buffer's region.
func (b *Buffer) Aliases(p []byte) bool {
	if len(p) == 0 || len(b.mem) == 0 {
		return false
	}
	start := uintptr(unsafe.Pointer(unsafe.SliceData(b.mem)))
	end := start + uintptr(len(b.mem))
	ps := uintptr(unsafe.Pointer(unsafe.SliceData(p)))
	pe := ps + uintptr(len(p))
	return ps < end && start < pe
}

// Release returns the region to the allocator. The Buffer must not be used
// afterwards.
func (b *Buffer) Release() {
	if b.mem == nil {
		return
	}
	b.alloc.Free(b.mem)
	b.mem = nil
	b.n = 0
}
