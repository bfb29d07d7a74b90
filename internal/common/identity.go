package common

import (
	"reflect"
	"unsafe"
)

// Identity is a stable handle for a reference-typed container. Two values with
// equal identities share storage.
type Identity struct {
	kind reflect.Kind
	ptr  unsafe.Pointer
	len  int
}

// IdentityOf returns the identity of a map, slice or pointer. ok is false for
// nil values and for kinds that carry no reference identity.
func IdentityOf(v reflect.Value) (Identity, bool) {
	switch v.Kind() {
	case reflect.Map, reflect.Pointer:
		if v.IsNil() {
			return Identity{}, false
		}
		return Identity{kind: v.Kind(), ptr: v.UnsafePointer()}, true
	case reflect.Slice:
		if v.IsNil() {
			return Identity{}, false
		}
		return Identity{kind: reflect.Slice, ptr: v.UnsafePointer(), len: v.Len()}, true
	}
	return Identity{}, false
}
