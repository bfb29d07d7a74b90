package attrcodec

import "reflect"

// Set is an insertion-ordered collection of distinct members. Sets whose
// members are all strings encode to SS, all numbers to NS, anything else to L.
type Set []any

// NewSet builds a Set, dropping repeated comparable members.
func NewSet(members ...any) Set {
	s := make(Set, 0, len(members))
	for _, m := range members {
		if !s.Has(m) {
			s = append(s, m)
		}
	}
	return s
}

// Has reports whether m is a member of s.
func (s Set) Has(m any) bool {
	for _, e := range s {
		if sameMember(e, m) {
			return true
		}
	}
	return false
}

func sameMember(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}
	return a == b
}

type undefined struct{}

// Undefined is an explicitly absent value. It encodes to NULL, the same as
// nil, so it never survives a round trip.
var Undefined = undefined{}
