package attrcodec

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/rawbytedev/attrcodec/internal/common"
	"github.com/rawbytedev/attrcodec/pkg/attr"
)

var (
	timeType      = reflect.TypeOf(time.Time{})
	setType       = reflect.TypeOf(Set(nil))
	undefinedType = reflect.TypeOf(undefined{})
	bigIntType    = reflect.TypeOf((*big.Int)(nil))
	bigFloatType  = reflect.TypeOf((*big.Float)(nil))
	jsonNumType   = reflect.TypeOf(json.Number(""))
	emptyStruct   = reflect.TypeOf(struct{}{})
)

// Marshal encodes v into a wire value. It only fails for values with no wire
// mapping, reported as ErrUnsupportedValueType: unsupported types, non-finite
// floats and containers that contain themselves.
func (c *Codec) Marshal(v any) (attr.Value, error) {
	return c.encode(reflect.ValueOf(v), &encodeState{})
}

// encodeState tracks the reference containers on the current descent path.
type encodeState struct {
	stack []visit
}

// visit pairs an identity with the static type, so a pointer to a struct and
// a pointer to its first field are not mistaken for each other.
type visit struct {
	id common.Identity
	t  reflect.Type
}

// enter pushes v onto the descent path, failing when v is already on it.
func (st *encodeState) enter(v reflect.Value) error {
	id, ok := common.IdentityOf(v)
	if !ok {
		return nil
	}
	at := visit{id: id, t: v.Type()}
	for _, seen := range st.stack {
		if seen == at {
			return fmt.Errorf("%w: cyclic reference through %s", ErrUnsupportedValueType, v.Type())
		}
	}
	st.stack = append(st.stack, at)
	return nil
}

func (st *encodeState) leave() {
	st.stack = st.stack[:len(st.stack)-1]
}

// MarshalItem encodes a record (map or struct) into the members of an M value.
func (c *Codec) MarshalItem(v any) (attr.Item, error) {
	out, err := c.Marshal(v)
	if err != nil {
		return nil, err
	}
	m, ok := out.(attr.Map)
	if !ok {
		return nil, fmt.Errorf("%w: got %s", ErrNotRecord, out.Kind())
	}
	return attr.Item(m), nil
}

func (c *Codec) encode(v reflect.Value, st *encodeState) (attr.Value, error) {
	if !v.IsValid() {
		return attr.Null{}, nil
	}

	switch v.Type() {
	case undefinedType:
		return attr.Null{}, nil
	case timeType:
		t := v.Interface().(time.Time)
		return attr.String(DatePrefix + FormatDate(t)), nil
	case setType:
		if v.IsNil() {
			return attr.Null{}, nil
		}
		return c.encodeSet(v.Interface().(Set), st)
	case bigIntType:
		if v.IsNil() {
			return attr.Null{}, nil
		}
		return attr.Number(v.Interface().(*big.Int).String()), nil
	case bigFloatType:
		if v.IsNil() {
			return attr.Null{}, nil
		}
		f := v.Interface().(*big.Float)
		if f.IsInf() {
			return nil, fmt.Errorf("%w: non-finite number %s", ErrUnsupportedValueType, f)
		}
		return attr.Number(f.Text('g', -1)), nil
	case jsonNumType:
		return attr.Number(v.String()), nil
	}

	k := v.Kind()
	switch {
	case k == reflect.Bool:
		return attr.Bool(v.Bool()), nil
	case k == reflect.String:
		return attr.String(v.String()), nil
	case common.IsNumberKind(k):
		if (k == reflect.Float32 || k == reflect.Float64) && (math.IsNaN(v.Float()) || math.IsInf(v.Float(), 0)) {
			return nil, fmt.Errorf("%w: non-finite number %v", ErrUnsupportedValueType, v.Float())
		}
		return attr.Number(common.FormatNumber(v)), nil
	}

	switch k {
	case reflect.Interface:
		if v.IsNil() {
			return attr.Null{}, nil
		}
		return c.encode(v.Elem(), st)
	case reflect.Pointer:
		if v.IsNil() {
			return attr.Null{}, nil
		}
		if err := st.enter(v); err != nil {
			return nil, err
		}
		defer st.leave()
		return c.encode(v.Elem(), st)
	case reflect.Slice:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			return nil, &UnsupportedValueTypeError{Type: v.Type()}
		}
		if v.IsNil() {
			return attr.Null{}, nil
		}
		if err := st.enter(v); err != nil {
			return nil, err
		}
		defer st.leave()
		return c.encodeList(v, st)
	case reflect.Array:
		return c.encodeList(v, st)
	case reflect.Map:
		return c.encodeMap(v, st)
	case reflect.Struct:
		return c.encodeStruct(v, st)
	}
	return nil, &UnsupportedValueTypeError{Type: v.Type()}
}

func (c *Codec) encodeList(v reflect.Value, st *encodeState) (attr.Value, error) {
	out := make(attr.List, v.Len())
	for i := range out {
		e, err := c.encode(v.Index(i), st)
		if err != nil {
			return nil, err
		}
		out[i] = e
	}
	return out, nil
}

func (c *Codec) encodeMap(v reflect.Value, st *encodeState) (attr.Value, error) {
	t := v.Type()
	keyKind := t.Key().Kind()
	if t.Elem() == emptyStruct && (keyKind == reflect.String || common.IsNumberKind(keyKind)) {
		if v.IsNil() {
			return attr.Null{}, nil
		}
		return c.encodeSet(sortedKeys(v), st)
	}
	if keyKind != reflect.String {
		return nil, &UnsupportedValueTypeError{Type: t}
	}
	if v.IsNil() {
		return attr.Null{}, nil
	}
	if err := st.enter(v); err != nil {
		return nil, err
	}
	defer st.leave()
	out := make(attr.Map, v.Len())
	iter := v.MapRange()
	for iter.Next() {
		e, err := c.encode(iter.Value(), st)
		if err != nil {
			return nil, err
		}
		out[iter.Key().String()] = e
	}
	return out, nil
}

func (c *Codec) encodeStruct(v reflect.Value, st *encodeState) (attr.Value, error) {
	plan := c.getPlan(v.Type())
	out := make(attr.Map, len(plan.fields))
	for _, f := range plan.fields {
		fv, err := v.FieldByIndexErr(f.index)
		if err != nil {
			continue // field behind a nil embedded pointer
		}
		if f.omitEmpty && fv.IsZero() {
			continue
		}
		e, err := c.encode(fv, st)
		if err != nil {
			return nil, err
		}
		out[f.name] = e
	}
	return out, nil
}

// encodeSet picks SS or NS when every member shares that primitive type and
// falls back to L otherwise. The empty set is a string set.
func (c *Codec) encodeSet(members []any, st *encodeState) (attr.Value, error) {
	allStrings, allNumbers := true, true
	for _, m := range members {
		switch memberKind(m) {
		case attr.KindS:
			allNumbers = false
		case attr.KindN:
			allStrings = false
		default:
			allStrings, allNumbers = false, false
		}
	}

	switch {
	case allStrings:
		ss := make(attr.StringSet, len(members))
		for i, m := range members {
			ss[i] = reflect.ValueOf(m).String()
		}
		return ss, nil
	case allNumbers:
		ns := make(attr.NumberSet, len(members))
		for i, m := range members {
			n, err := c.encode(reflect.ValueOf(m), st)
			if err != nil {
				return nil, err
			}
			ns[i] = string(n.(attr.Number))
		}
		return ns, nil
	}

	out := make(attr.List, len(members))
	for i, m := range members {
		e, err := c.encode(reflect.ValueOf(m), st)
		if err != nil {
			return nil, err
		}
		out[i] = e
	}
	return out, nil
}

func memberKind(m any) attr.Kind {
	if m == nil {
		return attr.KindNULL
	}
	v := reflect.ValueOf(m)
	switch v.Type() {
	case jsonNumType:
		return attr.KindN
	case bigIntType, bigFloatType:
		if v.IsNil() {
			return attr.KindNULL
		}
		return attr.KindN
	}
	switch k := v.Kind(); {
	case k == reflect.String:
		return attr.KindS
	case common.IsNumberKind(k):
		return attr.KindN
	}
	return attr.KindInvalid
}

func sortedKeys(v reflect.Value) []any {
	keys := v.MapKeys()
	if len(keys) > 0 && keys[0].Kind() == reflect.String {
		sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	} else {
		sort.Slice(keys, func(i, j int) bool { return numberLess(keys[i], keys[j]) })
	}
	out := make([]any, len(keys))
	for i, k := range keys {
		out[i] = k.Interface()
	}
	return out
}

func numberLess(a, b reflect.Value) bool {
	switch a.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return a.Int() < b.Int()
	case reflect.Float32, reflect.Float64:
		return a.Float() < b.Float()
	default:
		return a.Uint() < b.Uint()
	}
}

// FormatDate renders t the way it appears after DatePrefix: ISO-8601 in UTC
// with millisecond precision.
func FormatDate(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}

// ParseDate recognizes a string produced by encoding a time.Time.
func ParseDate(s string) (time.Time, bool) {
	rest, ok := strings.CutPrefix(s, DatePrefix)
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, rest)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
