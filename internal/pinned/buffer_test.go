package pinned

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Gabriel-RABHI/GhostBodyObject.Experiments-sub000/internal/errs"
)

func TestBufferShift(t *testing.T) {
	t.Run("Grow", func(t *testing.T) {
		b := FromBytes(Heap{}, []byte("abcdef"))
		b.Reserve(2)
		require.NoError(t, b.Shift(2, 2))
		require.Equal(t, 8, b.Len())
		require.NoError(t, b.WriteAt(2, []byte("XY")))
		require.Equal(t, "abXYcdef", string(b.Bytes()))
	})
	t.Run("Shrink", func(t *testing.T) {
		b := FromBytes(Heap{}, []byte("abXYcdef"))
		require.NoError(t, b.Shift(4, -2))
		require.Equal(t, "abcdef", string(b.Bytes()))
		// Vacated tail is zeroed.
		require.Equal(t, []byte{0, 0}, b.mem[6:8])
	})
	t.Run("AtEnd", func(t *testing.T) {
		b := FromBytes(Heap{}, []byte("ab"))
		b.Reserve(1)
		require.NoError(t, b.Shift(2, 1))
		require.Equal(t, 3, b.Len())
	})
	t.Run("NoCapacity", func(t *testing.T) {
		b := FromBytes(Heap{}, []byte("ab"))
		err := b.Shift(0, 100)
		require.ErrorIs(t, err, errs.ErrOverflow)
		require.Equal(t, "ab", string(b.Bytes()))
	})
}

func TestBufferSlice(t *testing.T) {
	b := FromBytes(Heap{}, []byte("hello"))
	s, err := b.Slice(1, 3)
	require.NoError(t, err)
	require.Equal(t, "ell", string(s))
	require.Equal(t, 3, cap(s))

	_, err = b.Slice(3, 3)
	require.ErrorIs(t, err, errs.ErrIndexOutOfRange)
	_, err = b.Slice(-1, 1)
	require.ErrorIs(t, err, errs.ErrIndexOutOfRange)
}

func TestBufferReserveMoves(t *testing.T) {
	a := NewArena(256)
	b := New(a, 10)
	copy(b.mem, "0123456789")
	require.False(t, b.Reserve(10), "64-byte class holds 20 bytes")
	require.True(t, b.Reserve(100))
	require.Equal(t, "0123456789", string(b.Bytes()))
	require.GreaterOrEqual(t, b.Cap(), 110)
}

func TestBufferAliases(t *testing.T) {
	b := FromBytes(Heap{}, []byte("hello world"))
	inner, err := b.Slice(2, 3)
	require.NoError(t, err)
	require.True(t, b.Aliases(inner))
	require.False(t, b.Aliases([]byte("llo")))
	require.False(t, b.Aliases(nil))
}

func TestArena(t *testing.T) {
	a := NewArena(1024)
	r1 := a.Alloc(10)
	require.Len(t, r1, 64)
	r2 := a.Alloc(100)
	require.Len(t, r2, 128)
	m := a.Metrics()
	require.Equal(t, 1, m.Chunks)
	require.Equal(t, 192, m.InUse)

	r1[0] = 42
	a.Free(r1)
	require.Equal(t, 1, a.Metrics().FreeRegions)
	r3 := a.Alloc(30)
	require.Len(t, r3, 64)
	require.Zero(t, r3[0], "reused region is zeroed")
	require.Equal(t, 0, a.Metrics().FreeRegions)

	big := a.Alloc(4000)
	require.Len(t, big, 4096)
	require.Equal(t, 1, a.Metrics().Chunks)

	a.Reset()
	require.Equal(t, Metrics{}, a.Metrics())
}

func TestArenaFreeForeign(t *testing.T) {
	a := NewArena(1024)
	r := a.Alloc(64)
	want := a.Metrics()

	a.Free(make([]byte, 64))
	a.Free(make([]byte, 0, 128))
	a.Free(nil)
	require.Equal(t, want, a.Metrics())
	// A region from another arena is foreign too.
	a.Free(NewArena(1024).Alloc(64))
	require.Equal(t, want, a.Metrics())

	a.Free(r)
	require.Equal(t, 1, a.Metrics().FreeRegions)
	require.Zero(t, a.Metrics().InUse)
	a.Free(r)
	require.Equal(t, 1, a.Metrics().FreeRegions, "double free is ignored")
	require.Zero(t, a.Metrics().InUse)

	// After Reset, regions handed out earlier are no longer tracked.
	r = a.Alloc(64)
	a.Reset()
	a.Free(r)
	require.Equal(t, Metrics{}, a.Metrics())
}

func TestSizeClass(t *testing.T) {
	tests := []struct{ in, want int }{
		{0, 64}, {1, 64}, {64, 64}, {65, 128}, {128, 128}, {129, 256}, {5000, 8192},
	}
	for _, tt := range tests {
		if got := sizeClass(tt.in); got != tt.want {
			t.Errorf("sizeClass(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
