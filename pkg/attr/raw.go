package attr

import (
	"encoding/base64"
	"sort"
)

// toRaw lowers v into the generic single-key map shape shared by the JSON and
// CBOR forms. Binary payloads stay []byte so each encoder picks its own
// representation (base64 text for JSON, byte strings for CBOR).
func toRaw(v Value) (any, error) {
	switch x := v.(type) {
	case Number:
		return map[string]any{"N": string(x)}, nil
	case String:
		return map[string]any{"S": string(x)}, nil
	case Bool:
		return map[string]any{"BOOL": bool(x)}, nil
	case Null:
		return map[string]any{"NULL": true}, nil
	case List:
		out := make([]any, len(x))
		for i, e := range x {
			r, err := toRaw(e)
			if err != nil {
				return nil, err
			}
			out[i] = r
		}
		return map[string]any{"L": out}, nil
	case Map:
		m, err := rawMembers(x)
		if err != nil {
			return nil, err
		}
		return map[string]any{"M": m}, nil
	case StringSet:
		return map[string]any{"SS": append([]string{}, x...)}, nil
	case NumberSet:
		return map[string]any{"NS": append([]string{}, x...)}, nil
	case Binary:
		return map[string]any{"B": append([]byte{}, x...)}, nil
	case BinarySet:
		return map[string]any{"BS": append([][]byte{}, x...)}, nil
	case nil:
		return nil, malformed("nil value")
	default:
		return nil, malformed("unknown value type %T", v)
	}
}

func rawMembers(m map[string]Value) (map[string]any, error) {
	out := make(map[string]any, len(m))
	for k, e := range m {
		r, err := toRaw(e)
		if err != nil {
			return nil, err
		}
		out[k] = r
	}
	return out, nil
}

// fromRaw lifts a decoded JSON/CBOR document into a Value. Exactly one tag
// must be present.
func fromRaw(raw any) (Value, error) {
	doc, ok := raw.(map[string]any)
	if !ok {
		return nil, malformed("expected tag map, got %T", raw)
	}
	if len(doc) != 1 {
		tags := make([]string, 0, len(doc))
		for t := range doc {
			tags = append(tags, t)
		}
		sort.Strings(tags)
		return nil, malformed("expected exactly one tag, got %v", tags)
	}
	for tag, payload := range doc {
		kind, ok := KindOf(tag)
		if !ok {
			return nil, malformed("unknown tag %q", tag)
		}
		return fromPayload(kind, payload)
	}
	panic("unreachable")
}

func fromPayload(kind Kind, payload any) (Value, error) {
	switch kind {
	case KindN:
		s, ok := payload.(string)
		if !ok || !ValidNumber(s) {
			return nil, malformed("N payload %v is not a decimal string", payload)
		}
		return Number(s), nil
	case KindS:
		s, ok := payload.(string)
		if !ok {
			return nil, malformed("S payload is %T", payload)
		}
		return String(s), nil
	case KindBOOL:
		b, ok := payload.(bool)
		if !ok {
			return nil, malformed("BOOL payload is %T", payload)
		}
		return Bool(b), nil
	case KindNULL:
		if b, ok := payload.(bool); !ok || !b {
			return nil, malformed("NULL payload must be true")
		}
		return Null{}, nil
	case KindL:
		elems, ok := payload.([]any)
		if !ok {
			return nil, malformed("L payload is %T", payload)
		}
		out := make(List, len(elems))
		for i, e := range elems {
			v, err := fromRaw(e)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	case KindM:
		members, ok := payload.(map[string]any)
		if !ok {
			return nil, malformed("M payload is %T", payload)
		}
		return fromRawMembers(members)
	case KindSS:
		ss, err := stringList(payload)
		if err != nil {
			return nil, err
		}
		return StringSet(ss), nil
	case KindNS:
		ns, err := stringList(payload)
		if err != nil {
			return nil, err
		}
		for _, n := range ns {
			if !ValidNumber(n) {
				return nil, malformed("NS member %q is not a decimal string", n)
			}
		}
		return NumberSet(ns), nil
	case KindB:
		b, err := bytesOf(payload)
		if err != nil {
			return nil, err
		}
		return Binary(b), nil
	case KindBS:
		elems, ok := payload.([]any)
		if !ok {
			return nil, malformed("BS payload is %T", payload)
		}
		out := make(BinarySet, len(elems))
		for i, e := range elems {
			b, err := bytesOf(e)
			if err != nil {
				return nil, err
			}
			out[i] = b
		}
		return out, nil
	}
	return nil, malformed("unknown kind %s", kind)
}

func fromRawMembers(members map[string]any) (Map, error) {
	out := make(Map, len(members))
	for k, e := range members {
		v, err := fromRaw(e)
		if err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, nil
}

func stringList(payload any) ([]string, error) {
	elems, ok := payload.([]any)
	if !ok {
		return nil, malformed("set payload is %T", payload)
	}
	out := make([]string, len(elems))
	for i, e := range elems {
		s, ok := e.(string)
		if !ok {
			return nil, malformed("set member is %T", e)
		}
		out[i] = s
	}
	return out, nil
}

func bytesOf(payload any) ([]byte, error) {
	switch b := payload.(type) {
	case []byte:
		return b, nil
	case string:
		out, err := base64.StdEncoding.DecodeString(b)
		if err != nil {
			return nil, malformed("binary payload: %v", err)
		}
		return out, nil
	}
	return nil, malformed("binary payload is %T", payload)
}

// ValidNumber reports whether s is a decimal number string: an optional sign,
// digits with an optional fraction, and an optional exponent. NaN, Infinity
// and hex floats are not. Magnitude is not checked, so values outside the
// float64 range are still numbers on the wire.
func ValidNumber(s string) bool {
	i := 0
	if i < len(s) && (s[i] == '-' || s[i] == '+') {
		i++
	}
	intDigits := digits(s, i)
	i += intDigits
	fracDigits := 0
	if i < len(s) && s[i] == '.' {
		i++
		fracDigits = digits(s, i)
		i += fracDigits
	}
	if intDigits+fracDigits == 0 {
		return false
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		i++
		if i < len(s) && (s[i] == '-' || s[i] == '+') {
			i++
		}
		exp := digits(s, i)
		if exp == 0 {
			return false
		}
		i += exp
	}
	return i == len(s)
}

// digits counts the ASCII digits of s starting at i.
func digits(s string, i int) int {
	n := 0
	for i+n < len(s) && s[i+n] >= '0' && s[i+n] <= '9' {
		n++
	}
	return n
}
