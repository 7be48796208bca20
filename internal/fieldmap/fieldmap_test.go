package fieldmap

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Gabriel-RABHI/GhostBodyObject.Experiments-sub000/internal/errs"
)

func TestEncodingRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		enc  Encoding
		e    Entry
	}{
		{"small zero", Small, Entry{}},
		{"small max", Small, Entry{Offset: 100, Length: SmallMaxLength}},
		{"small max offset", Small, Entry{Offset: SmallMaxOffset, Length: 0}},
		{"large", Large, Entry{Offset: 12, Length: 1_000_000}},
		{"large max", Large, Entry{Offset: LargeMaxOffset, Length: LargeMaxLength}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, tt.enc.Check(tt.e, 1))
			b := make([]byte, tt.enc.EntrySize())
			tt.enc.Encode(b, tt.e)
			require.Equal(t, tt.e, tt.enc.Decode(b))
		})
	}
}

func TestEncodingLimits(t *testing.T) {
	tests := []struct {
		name     string
		enc      Encoding
		e        Entry
		elemSize int
	}{
		{"small length", Small, Entry{Offset: 8, Length: SmallMaxLength + 1}, 1},
		{"small end offset", Small, Entry{Offset: 60000, Length: 2000}, 4},
		{"small negative", Small, Entry{Offset: 8, Length: -1}, 1},
		{"large length", Large, Entry{Offset: 8, Length: LargeMaxLength + 1}, 1},
		{"large offset", Large, Entry{Offset: LargeMaxOffset + 1}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.ErrorIs(t, tt.enc.Check(tt.e, tt.elemSize), errs.ErrOverflow)
		})
	}
	// Large fields are not bounded by their end offset.
	require.NoError(t, Large.Check(Entry{Offset: 60000, Length: 2000}, 4))
}

func TestConstants(t *testing.T) {
	require.Equal(t, 65535, SmallMaxOffset)
	require.Equal(t, 2047, SmallMaxLength)
	require.Equal(t, 16777215, LargeMaxLength)
}

func TestNewSchema(t *testing.T) {
	s, err := NewSchema("post",
		Field{Name: "title", Kind: KindUTF16},
		Field{Name: "slug", Kind: KindUTF8},
		Field{Name: "tags", Kind: KindArray, ElemSize: 16, Encoding: Large},
	)
	require.NoError(t, err)
	require.Equal(t, "post", s.Name())
	require.Equal(t, 3, s.NumFields())
	require.Equal(t, 16, s.HeaderSize())
	require.Equal(t, 2, s.Field(0).ElemSize)
	require.Equal(t, 1, s.Field(1).ElemSize)
	require.Equal(t, Small, s.Field(0).Encoding)
	i, ok := s.Lookup("tags")
	require.True(t, ok)
	require.Equal(t, 2, i)

	errTests := []struct {
		name   string
		fields []Field
	}{
		{"no name", []Field{{Kind: KindUTF8}}},
		{"duplicate", []Field{{Name: "a", Kind: KindUTF8}, {Name: "a", Kind: KindUTF8}}},
		{"utf16 size", []Field{{Name: "a", Kind: KindUTF16, ElemSize: 4}}},
		{"array size", []Field{{Name: "a", Kind: KindArray}}},
		{"kind", []Field{{Name: "a", Kind: Kind(9)}}},
	}
	for _, tt := range errTests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSchema("x", tt.fields...)
			require.ErrorIs(t, err, errs.ErrInvalidArgument)
		})
	}
	_, err = NewSchema("")
	require.ErrorIs(t, err, errs.ErrInvalidArgument)
}

func TestMap(t *testing.T) {
	s := MustSchema("pair",
		Field{Name: "a", Kind: KindUTF8},
		Field{Name: "b", Kind: KindArray, ElemSize: 4},
	)
	buf := make([]byte, s.HeaderSize())
	s.Init(buf)
	m := s.Map(buf)
	require.NoError(t, m.Validate())

	e, size := m.Resolve(1)
	require.Equal(t, Entry{Offset: 8}, e)
	require.Equal(t, 4, size)

	require.NoError(t, m.SetLength(0, 3))
	e, _ = m.Resolve(0)
	require.Equal(t, 3, e.Length)
	// Field a now claims 3 bytes the buffer does not hold, and b overlaps it.
	require.Error(t, m.Validate())

	require.ErrorIs(t, m.SetLength(0, SmallMaxLength+1), errs.ErrOverflow)
	require.ErrorIs(t, m.SetLength(2, 0), errs.ErrIndexOutOfRange)
	require.ErrorIs(t, m.CheckIndex(-1), errs.ErrIndexOutOfRange)
}
