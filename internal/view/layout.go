package view

import (
	"reflect"
	"sync"
	"unsafe"

	"github.com/Gabriel-RABHI/GhostBodyObject.Experiments-sub000/internal/errs"
)

// layouts caches the element type check per reflect.Type.
var layouts sync.Map

// checkElem reports whether T can be reinterpreted from raw bytes: fixed
// size, no pointers and no padding.
func checkElem[T any]() error {
	t := reflect.TypeFor[T]()
	if v, ok := layouts.Load(t); ok {
		if v == nil {
			return nil
		}
		return v.(error)
	}
	err := blittable(t)
	if err == nil && t.Size() == 0 {
		err = errs.New(errs.InvalidArgument, "%s has zero size", t)
	}
	if err != nil {
		layouts.Store(t, err)
		return err
	}
	layouts.Store(t, nil)
	return nil
}

func blittable(t reflect.Type) error {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return nil
	case reflect.Array:
		return blittable(t.Elem())
	case reflect.Struct:
		var sum uintptr
		for i := range t.NumField() {
			f := t.Field(i)
			if err := blittable(f.Type); err != nil {
				return errs.New(errs.InvalidArgument, "%s.%s: %v", t, f.Name, err)
			}
			sum += f.Type.Size()
		}
		if sum != t.Size() {
			return errs.New(errs.InvalidArgument, "%s has %d bytes of padding", t, t.Size()-sum)
		}
		return nil
	default:
		return errs.New(errs.InvalidArgument, "%s is not a fixed-size pointer-free type", t)
	}
}

func sizeOf[T any]() int {
	var zero T
	return int(unsafe.Sizeof(zero))
}

// cast reinterprets p as []T without copying. It fails when p is not
// aligned for T.
func cast[T any](p []byte) ([]T, bool) {
	var zero T
	size := int(unsafe.Sizeof(zero))
	if len(p) == 0 {
		return nil, true
	}
	data := unsafe.SliceData(p)
	if uintptr(unsafe.Pointer(data))%unsafe.Alignof(zero) != 0 {
		return nil, false
	}
	return unsafe.Slice((*T)(unsafe.Pointer(data)), len(p)/size), true
}

// decode copies p into a new []T.
func decode[T any](p []byte) []T {
	out := make([]T, len(p)/sizeOf[T]())
	copy(bytesOf(out), p)
	return out
}

// bytesOf returns the memory of s as bytes, without copying.
func bytesOf[T any](s []T) []byte {
	if len(s) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(s))), len(s)*sizeOf[T]())
}

func valueBytes[T any](v *T) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(v)), sizeOf[T]())
}
