package attr

import (
	"errors"
	"fmt"
)

var (
	ErrUnimplementedAttribute = errors.New("unimplemented attribute type")
	ErrMalformedWireValue     = errors.New("malformed wire value")
)

// UnimplementedAttributeError reports a tag the codec refuses to decode.
type UnimplementedAttributeError struct {
	Kind Kind
}

func (e *UnimplementedAttributeError) Error() string {
	return fmt.Sprintf("unimplemented type: %s", e.Kind)
}

func (e *UnimplementedAttributeError) Unwrap() error { return ErrUnimplementedAttribute }

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedWireValue, fmt.Sprintf(format, args...))
}
