// Chunked region allocator with size-class free lists.

package pinned

import (
	"math/bits"
	"sync"
	"unsafe"
)

const (
	// DefaultChunkSize is the chunk size used when NewArena is given 0.
	DefaultChunkSize = 64 * 1024

	minClass = 64
)

// Metrics describes an Arena's memory usage.
type Metrics struct {
	Chunks      int // chunks carved so far
	Capacity    int // bytes reserved from the heap
	InUse       int // bytes handed out and not freed
	FreeRegions int // regions waiting on free lists
}

// Arena allocates regions from large chunks. Freed regions are kept on
// per-size-class free lists and handed out again zeroed. Requests larger than
// a chunk get a dedicated allocation. It is safe for concurrent use.
type Arena struct {
	mu        sync.Mutex
	chunkSize int
	cur       []byte
	free      map[int][][]byte
	live      map[*byte]int // base of each region handed out, to its class
	m         Metrics
}

// NewArena creates an Arena with the given chunk size.
func NewArena(chunkSize int) *Arena {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Arena{chunkSize: chunkSize, free: make(map[int][][]byte), live: make(map[*byte]int)}
}

// sizeClass rounds size up to a power of two no smaller than minClass.
func sizeClass(size int) int {
	if size <= minClass {
		return minClass
	}
	return 1 << bits.Len(uint(size-1))
}

// Alloc implements [Allocator].
func (a *Arena) Alloc(size int) []byte {
	class := sizeClass(size)
	a.mu.Lock()
	defer a.mu.Unlock()
	region := a.allocLocked(class)
	a.live[unsafe.SliceData(region)] = class
	a.m.InUse += class
	return region
}

func (a *Arena) allocLocked(class int) []byte {
	if l := a.free[class]; len(l) > 0 {
		region := l[len(l)-1]
		a.free[class] = l[:len(l)-1]
		a.m.FreeRegions--
		clear(region)
		return region
	}
	if class > a.chunkSize {
		a.m.Capacity += class
		return make([]byte, class)
	}
	if len(a.cur) < class {
		a.cur = make([]byte, a.chunkSize)
		a.m.Chunks++
		a.m.Capacity += a.chunkSize
	}
	region := a.cur[:class:class]
	a.cur = a.cur[class:]
	return region
}

// Free implements [Allocator]. region must start where a region returned by
// Alloc starts. Regions this Arena did not hand out, or already took back,
// are ignored.
func (a *Arena) Free(region []byte) {
	if cap(region) == 0 {
		return
	}
	base := unsafe.SliceData(region)
	a.mu.Lock()
	defer a.mu.Unlock()
	class, ok := a.live[base]
	if !ok {
		return
	}
	delete(a.live, base)
	a.free[class] = append(a.free[class], region[:class:class])
	a.m.InUse -= class
	a.m.FreeRegions++
}

// Metrics returns a snapshot of the arena's usage.
func (a *Arena) Metrics() Metrics {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.m
}

// Reset drops every chunk and free list.
func (a *Arena) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cur = nil
	a.free = make(map[int][][]byte)
	a.live = make(map[*byte]int)
	a.m = Metrics{}
}
