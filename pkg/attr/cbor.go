package attr

import (
	"fmt"
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error

	// Canonical key order so equal values produce equal bytes.
	encOpts := cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsEmpty,
	}
	encMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create CBOR encoder mode: %v", err))
	}

	decOpts := cbor.DecOptions{
		DupMapKey:      cbor.DupMapKeyEnforcedAPF,
		IndefLength:    cbor.IndefLengthAllowed,
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}
	decMode, err = decOpts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create CBOR decoder mode: %v", err))
	}
}

// MarshalCBOR encodes v as a single-key CBOR map.
func MarshalCBOR(v Value) ([]byte, error) {
	raw, err := toRaw(v)
	if err != nil {
		return nil, err
	}
	return encMode.Marshal(raw)
}

// UnmarshalCBOR decodes a single wire value from CBOR.
func UnmarshalCBOR(data []byte) (Value, error) {
	var raw any
	if err := decMode.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedWireValue, err)
	}
	return fromRaw(raw)
}

// MarshalCBOR implements cbor.Marshaler.
func (it Item) MarshalCBOR() ([]byte, error) {
	m, err := rawMembers(it)
	if err != nil {
		return nil, err
	}
	return encMode.Marshal(m)
}

// UnmarshalCBOR implements cbor.Unmarshaler.
func (it *Item) UnmarshalCBOR(data []byte) error {
	var members map[string]any
	if err := decMode.Unmarshal(data, &members); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedWireValue, err)
	}
	m, err := fromRawMembers(members)
	if err != nil {
		return err
	}
	*it = Item(m)
	return nil
}
