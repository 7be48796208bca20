package fieldmap

import (
	"fmt"

	"github.com/Gabriel-RABHI/GhostBodyObject.Experiments-sub000/internal/errs"
)

// Kind is the element type family of a field.
type Kind uint8

const (
	// KindArray is an array of fixed-size elements.
	KindArray Kind = iota
	// KindUTF8 is a string stored as UTF-8 code units.
	KindUTF8
	// KindUTF16 is a string stored as UTF-16 code units.
	KindUTF16
)

func (k Kind) String() string {
	switch k {
	case KindArray:
		return "array"
	case KindUTF8:
		return "utf8"
	case KindUTF16:
		return "utf16"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Field declares one variable-length field.
type Field struct {
	Name     string
	Kind     Kind
	ElemSize int      // bytes per element; implied for string kinds
	Encoding Encoding // defaults to Small
}

// Schema is the fixed field layout of a body type. It is immutable once
// created and safe for concurrent use.
type Schema struct {
	name       string
	fields     []Field
	pos        []int // header byte position of each entry
	headerSize int
	byName     map[string]int
}

// NewSchema validates fields and computes the header layout.
func NewSchema(name string, fields ...Field) (*Schema, error) {
	if name == "" {
		return nil, errs.New(errs.InvalidArgument, "schema name is required")
	}
	s := &Schema{
		name:   name,
		fields: make([]Field, len(fields)),
		pos:    make([]int, len(fields)),
		byName: make(map[string]int, len(fields)),
	}
	for i, f := range fields {
		if f.Name == "" {
			return nil, errs.New(errs.InvalidArgument, "%s: field %d has no name", name, i)
		}
		if _, dup := s.byName[f.Name]; dup {
			return nil, errs.New(errs.InvalidArgument, "%s: duplicate field %q", name, f.Name)
		}
		switch f.Kind {
		case KindUTF8:
			if f.ElemSize != 0 && f.ElemSize != 1 {
				return nil, errs.New(errs.InvalidArgument, "%s.%s: utf8 element size must be 1", name, f.Name)
			}
			f.ElemSize = 1
		case KindUTF16:
			if f.ElemSize != 0 && f.ElemSize != 2 {
				return nil, errs.New(errs.InvalidArgument, "%s.%s: utf16 element size must be 2", name, f.Name)
			}
			f.ElemSize = 2
		case KindArray:
			if f.ElemSize <= 0 {
				return nil, errs.New(errs.InvalidArgument, "%s.%s: element size must be positive", name, f.Name)
			}
		default:
			return nil, errs.New(errs.InvalidArgument, "%s.%s: unknown kind %s", name, f.Name, f.Kind)
		}
		if f.Encoding == nil {
			f.Encoding = Small
		}
		s.fields[i] = f
		s.pos[i] = s.headerSize
		s.byName[f.Name] = i
		s.headerSize += f.Encoding.EntrySize()
	}
	if s.headerSize > SmallMaxOffset {
		return nil, errs.New(errs.Overflow, "%s: header of %d bytes exceeds offset domain", name, s.headerSize)
	}
	return s, nil
}

// MustSchema is like NewSchema but panics on error. Meant for package-level
// schema declarations.
func MustSchema(name string, fields ...Field) *Schema {
	s, err := NewSchema(name, fields...)
	if err != nil {
		panic(err)
	}
	return s
}

// Name returns the body type name.
func (s *Schema) Name() string { return s.name }

// NumFields returns the number of declared fields.
func (s *Schema) NumFields() int { return len(s.fields) }

// Field returns the declaration of field i.
func (s *Schema) Field(i int) Field { return s.fields[i] }

// Lookup returns the index of the named field.
func (s *Schema) Lookup(name string) (int, bool) {
	i, ok := s.byName[name]
	return i, ok
}

// HeaderSize returns the size in bytes of the encoded field map.
func (s *Schema) HeaderSize() int { return s.headerSize }

// Init writes an empty field map into buf, which must be at least HeaderSize
// bytes long. Every field starts empty at the end of the header.
func (s *Schema) Init(buf []byte) {
	for i, f := range s.fields {
		f.Encoding.Encode(buf[s.pos[i]:], Entry{Offset: s.headerSize})
	}
}

// Map returns the field map stored in buf.
func (s *Schema) Map(buf []byte) Map {
	return Map{s: s, buf: buf}
}
