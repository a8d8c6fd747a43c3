package alloc

import (
	"reflect"
	"unsafe"
)

// hasPointers reports whether values of t hold references the garbage
// collector must trace.
func hasPointers(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return false
	case reflect.Array:
		return t.Len() > 0 && hasPointers(t.Elem())
	case reflect.Struct:
		for i := range t.NumField() {
			if hasPointers(t.Field(i).Type) {
				return true
			}
		}
		return false
	default:
		return true
	}
}

// objectAlign returns the carve alignment for a record of size bytes: the
// lowest set bit of size capped at 8, never below the type's natural alignment.
func objectAlign(size, natural int) int {
	a := size & -size
	if a > 8 || a == 0 {
		a = 8
	}
	if a < natural {
		a = natural
	}
	return a
}

// layoutOf returns size and carve alignment of T.
func layoutOf[T any]() (size, align int) {
	var zero T
	size = int(unsafe.Sizeof(zero))
	return size, objectAlign(size, int(unsafe.Alignof(zero)))
}

func checkPoolable[T any](o *options) {
	if o.pool == nil {
		return
	}
	if t := reflect.TypeFor[T](); hasPointers(t) {
		violation(ErrPointerType, "pool-backed allocator for %s", t)
	}
}
