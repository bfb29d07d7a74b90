package attr

import (
	"encoding/json"
	"fmt"
)

// MarshalJSON renders v in the store's JSON convention, e.g. {"S":"x"}.
func MarshalJSON(v Value) ([]byte, error) {
	raw, err := toRaw(v)
	if err != nil {
		return nil, err
	}
	return json.Marshal(raw)
}

// ParseJSON parses a single wire value from its JSON form.
func ParseJSON(data []byte) (Value, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedWireValue, err)
	}
	return fromRaw(raw)
}

// MarshalJSON implements json.Marshaler.
func (it Item) MarshalJSON() ([]byte, error) {
	m, err := rawMembers(it)
	if err != nil {
		return nil, err
	}
	return json.Marshal(m)
}

// UnmarshalJSON implements json.Unmarshaler.
func (it *Item) UnmarshalJSON(data []byte) error {
	var members map[string]any
	if err := json.Unmarshal(data, &members); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedWireValue, err)
	}
	m, err := fromRawMembers(members)
	if err != nil {
		return err
	}
	*it = Item(m)
	return nil
}
