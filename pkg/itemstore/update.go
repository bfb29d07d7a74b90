package itemstore

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rawbytedev/attrcodec/pkg/attr"
)

// Update groups the changes of a single UpdateItem call.
type Update struct {
	Set    map[string]attr.Value // overwrite
	Inc    map[string]attr.Value // add to a number
	Append map[string]attr.Value // concatenate to a list
}

// Expression is an update rendered in the store's expression syntax.
type Expression struct {
	Update string
	Names  map[string]string
	Values map[string]attr.Value
}

func (u *Update) empty() bool {
	return u == nil || len(u.Set)+len(u.Inc)+len(u.Append) == 0
}

// Expression renders u as
//
//	SET #A = :setA, #B = #B + :incA, #C = list_append(#C, :appendA)
//
// Attribute names are processed in sorted order within each clause.
func (u *Update) Expression() (Expression, error) {
	if u.empty() {
		return Expression{}, ErrEmptyUpdate
	}
	if err := u.validate(); err != nil {
		return Expression{}, err
	}

	expr := Expression{
		Names:  make(map[string]string),
		Values: make(map[string]attr.Value),
	}
	aliases := make(map[string]string)
	alias := func(name string) string {
		if a, ok := aliases[name]; ok {
			return a
		}
		a := "#" + AlphabetNumber(len(aliases)+1)
		aliases[name] = a
		expr.Names[a] = name
		return a
	}

	var clauses []string
	for i, name := range sortedNames(u.Set) {
		a, p := alias(name), ":set"+AlphabetNumber(i+1)
		expr.Values[p] = u.Set[name]
		clauses = append(clauses, fmt.Sprintf("%s = %s", a, p))
	}
	for i, name := range sortedNames(u.Inc) {
		a, p := alias(name), ":inc"+AlphabetNumber(i+1)
		expr.Values[p] = u.Inc[name]
		clauses = append(clauses, fmt.Sprintf("%s = %s + %s", a, a, p))
	}
	for i, name := range sortedNames(u.Append) {
		a, p := alias(name), ":append"+AlphabetNumber(i+1)
		expr.Values[p] = u.Append[name]
		clauses = append(clauses, fmt.Sprintf("%s = list_append(%s, %s)", a, a, p))
	}
	expr.Update = "SET " + strings.Join(clauses, ", ")
	return expr, nil
}

func (u *Update) validate() error {
	seen := make(map[string]string)
	check := func(clause string, m map[string]attr.Value) error {
		for name, v := range m {
			if name == KeyAttribute {
				return fmt.Errorf("%w: %s cannot be updated", ErrInvalidUpdate, KeyAttribute)
			}
			if prev, ok := seen[name]; ok {
				return fmt.Errorf("%w: %q appears in both %s and %s", ErrInvalidUpdate, name, prev, clause)
			}
			seen[name] = clause
			if v == nil {
				return fmt.Errorf("%w: %q has no value", ErrInvalidUpdate, name)
			}
			switch clause {
			case "inc":
				if _, ok := v.(attr.Number); !ok {
					return fmt.Errorf("%w: increment of %q is %s, not N", ErrInvalidUpdate, name, v.Kind())
				}
			case "append":
				if _, ok := v.(attr.List); !ok {
					return fmt.Errorf("%w: append to %q is %s, not L", ErrInvalidUpdate, name, v.Kind())
				}
			}
		}
		return nil
	}
	if err := check("set", u.Set); err != nil {
		return err
	}
	if err := check("inc", u.Inc); err != nil {
		return err
	}
	return check("append", u.Append)
}

func sortedNames(m map[string]attr.Value) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// AlphabetNumber spells a positive integer in bijective base 26:
// 1 → A, 26 → Z, 27 → AA, 28 → AB. Non-positive input yields "".
func AlphabetNumber(n int) string {
	var out []byte
	for n > 0 {
		n--
		out = append(out, alphabet[n%26])
		n /= 26
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return string(out)
}
