package attrcodec

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"

	"github.com/mitchellh/mapstructure"

	"github.com/rawbytedev/attrcodec/pkg/attr"
)

// Unmarshal decodes a wire value. B and BS are always rejected with
// attr.ErrUnimplementedAttribute, and so is NS unless DecodeNumberSets is set.
//
// Decoded shapes: BOOL → bool, S → string, N → float64, NULL → nil,
// L → []any, SS → Set, M → map[string]any.
func (c *Codec) Unmarshal(v attr.Value) (any, error) {
	switch x := v.(type) {
	case attr.Binary, attr.BinarySet:
		return nil, &attr.UnimplementedAttributeError{Kind: v.Kind()}
	case attr.NumberSet:
		if !c.Opts.DecodeNumberSets {
			return nil, &attr.UnimplementedAttributeError{Kind: attr.KindNS}
		}
		out := make(Set, len(x))
		for i, n := range x {
			f, err := parseNumber(n)
			if err != nil {
				return nil, err
			}
			out[i] = f
		}
		return out, nil
	case attr.Bool:
		return bool(x), nil
	case attr.String:
		return string(x), nil
	case attr.Number:
		return parseNumber(string(x))
	case attr.Null:
		return nil, nil
	case attr.List:
		out := make([]any, len(x))
		for i, e := range x {
			d, err := c.Unmarshal(e)
			if err != nil {
				return nil, err
			}
			out[i] = d
		}
		return out, nil
	case attr.StringSet:
		out := make(Set, len(x))
		for i, s := range x {
			out[i] = s
		}
		return out, nil
	case attr.Map:
		return c.decodeMembers(x)
	case nil:
		return nil, fmt.Errorf("%w: no tag set", attr.ErrMalformedWireValue)
	}
	return nil, fmt.Errorf("%w: unknown value type %T", attr.ErrMalformedWireValue, v)
}

func (c *Codec) decodeMembers(m map[string]attr.Value) (map[string]any, error) {
	out := make(map[string]any, len(m))
	for k, e := range m {
		d, err := c.Unmarshal(e)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", k, err)
		}
		out[k] = d
	}
	return out, nil
}

// UnmarshalItem decodes the members of a record.
func (c *Codec) UnmarshalItem(item attr.Item) (map[string]any, error) {
	return c.decodeMembers(item)
}

// UnmarshalItemInto decodes a record into the struct or map pointed to by
// out, using the codec's tag name for field names. Fields of type time.Time
// are restored from DatePrefix strings.
func (c *Codec) UnmarshalItemInto(item attr.Item, out any) error {
	fields, err := c.UnmarshalItem(item)
	if err != nil {
		return err
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(dateHook, setHook),
		TagName:    c.tagName(),
		Result:     out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(fields)
}

func dateHook(from, to reflect.Type, data any) (any, error) {
	if to != timeType || from.Kind() != reflect.String {
		return data, nil
	}
	t, ok := ParseDate(data.(string))
	if !ok {
		return nil, fmt.Errorf("%q is not an encoded date", data)
	}
	return t, nil
}

// setHook lets a decoded Set fill a map[T]struct{} target.
func setHook(from, to reflect.Type, data any) (any, error) {
	if from != setType || to.Kind() != reflect.Map || to.Elem() != emptyStruct || to.Key().Kind() != reflect.String {
		return data, nil
	}
	out := reflect.MakeMapWithSize(to, len(data.(Set)))
	for _, m := range data.(Set) {
		s, ok := m.(string)
		if !ok {
			return nil, fmt.Errorf("set member %v is not a string", m)
		}
		out.SetMapIndex(reflect.ValueOf(s).Convert(to.Key()), reflect.ValueOf(struct{}{}))
	}
	return out.Interface(), nil
}

// parseNumber reads an N payload. Out of range magnitudes become ±Inf.
func parseNumber(s string) (float64, error) {
	if !attr.ValidNumber(s) {
		return 0, fmt.Errorf("%w: N payload %q", attr.ErrMalformedWireValue, s)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, fmt.Errorf("%w: N payload %q", attr.ErrMalformedWireValue, s)
	}
	return f, nil
}
