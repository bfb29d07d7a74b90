package attrcodec

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	ErrUnsupportedValueType = errors.New("unsupported value type")
	ErrNotRecord            = errors.New("value does not encode to a map")
)

// UnsupportedValueTypeError reports a Go type with no wire mapping.
type UnsupportedValueTypeError struct {
	Type reflect.Type
}

func (e *UnsupportedValueTypeError) Error() string {
	return fmt.Sprintf("unimplemented object of type %s", e.Type)
}

func (e *UnsupportedValueTypeError) Unwrap() error { return ErrUnsupportedValueType }
