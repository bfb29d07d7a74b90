package flatten

import (
	"errors"
	"reflect"
	"slices"
	"strconv"

	"github.com/rawbytedev/attrcodec/internal/common"
)

var (
	ErrNotContainer      = errors.New("flatten: root is not a map or slice")
	ErrEmptyPath         = errors.New("flatten: entry has an empty path")
	ErrDanglingReference = errors.New("flatten: circular reference to a missing ancestor")
)

// RootKey is the JSON spelling of a root reference.
const RootKey = "$root"

// Entry is one flattened leaf keyed by its path from the root.
type Entry struct {
	Path []string
	Leaf any
}

// Circular stands in for a container that was already on the descent path.
// IsRoot marks the object passed to Flatten; otherwise Parents holds the keys
// leading from the root to the referenced ancestor.
type Circular struct {
	IsRoot  bool
	Parents []string
}

// Root returns the marker for a reference to the top-level object.
func Root() Circular {
	return Circular{IsRoot: true}
}

type frame struct {
	id  common.Identity
	key string
}

type member struct {
	key string
	val reflect.Value
}

type flattener struct {
	root  common.Identity
	stack []frame
}

// Flatten turns a nested graph of map[string]any and []any containers into a
// sorted list of path/leaf entries. Slices are keyed by decimal index.
// Containers already on the current descent path, and the root itself, are
// emitted as Circular markers instead of being descended into again. Empty
// containers are terminal leaves. The input is not modified.
func Flatten(root any) ([]Entry, error) {
	rv := unwrap(reflect.ValueOf(root))
	id, ok := containerIdentity(rv)
	if !ok {
		return nil, ErrNotContainer
	}
	f := &flattener{root: id}
	entries := f.entries(members(rv))
	slices.SortStableFunc(entries, func(a, b Entry) int {
		return Compare(a.Path, b.Path)
	})
	return entries, nil
}

func (f *flattener) entries(ms []member) []Entry {
	var simple, nested, circular, roots []member

	for _, m := range ms {
		id, ok := containerIdentity(m.val)
		switch {
		case !ok || m.val.Len() == 0:
			simple = append(simple, m)
		case id == f.root:
			roots = append(roots, m)
		case f.onStack(id):
			circular = append(circular, m)
		default:
			nested = append(nested, m)
		}
	}

	out := []Entry{}
	for _, m := range nested {
		id, _ := containerIdentity(m.val)
		f.stack = append(f.stack, frame{id: id, key: m.key})
		sub := f.entries(members(m.val))
		f.stack = f.stack[:len(f.stack)-1]

		for _, e := range sub {
			out = append(out, Entry{Path: append([]string{m.key}, e.Path...), Leaf: e.Leaf})
		}
	}
	for _, m := range simple {
		out = append(out, Entry{Path: []string{m.key}, Leaf: leafOf(m.val)})
	}
	for _, m := range circular {
		id, _ := containerIdentity(m.val)
		out = append(out, Entry{Path: []string{m.key}, Leaf: Circular{Parents: f.parentsOf(id)}})
	}
	for _, m := range roots {
		out = append(out, Entry{Path: []string{m.key}, Leaf: Root()})
	}
	return out
}

func (f *flattener) onStack(id common.Identity) bool {
	for _, fr := range f.stack {
		if fr.id == id {
			return true
		}
	}
	return false
}

// parentsOf returns the stack keys from the bottom up to and including the
// first frame holding id.
func (f *flattener) parentsOf(id common.Identity) []string {
	var keys []string
	for _, fr := range f.stack {
		keys = append(keys, fr.key)
		if fr.id == id {
			break
		}
	}
	return keys
}

func unwrap(v reflect.Value) reflect.Value {
	for v.IsValid() && v.Kind() == reflect.Interface {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}

// containerIdentity reports whether v is a container that Flatten descends
// into, and its identity.
func containerIdentity(v reflect.Value) (common.Identity, bool) {
	switch {
	case !v.IsValid():
		return common.Identity{}, false
	case v.Kind() == reflect.Map && v.Type().Key().Kind() == reflect.String:
	case v.Kind() == reflect.Slice && v.Type().Elem().Kind() != reflect.Uint8:
	default:
		return common.Identity{}, false
	}
	return common.IdentityOf(v)
}

func members(v reflect.Value) []member {
	out := make([]member, 0, v.Len())
	switch v.Kind() {
	case reflect.Map:
		iter := v.MapRange()
		for iter.Next() {
			out = append(out, member{key: iter.Key().String(), val: unwrap(iter.Value())})
		}
	case reflect.Slice:
		for i := 0; i < v.Len(); i++ {
			out = append(out, member{key: strconv.Itoa(i), val: unwrap(v.Index(i))})
		}
	}
	return out
}

// leafOf returns the value stored for a simple entry. Empty containers are
// replaced by fresh ones so the output never aliases the input.
func leafOf(v reflect.Value) any {
	if !v.IsValid() {
		return nil
	}
	if _, ok := containerIdentity(v); ok {
		switch v.Kind() {
		case reflect.Map:
			return reflect.MakeMap(v.Type()).Interface()
		case reflect.Slice:
			return reflect.MakeSlice(v.Type(), 0, 0).Interface()
		}
	}
	return v.Interface()
}

// Compare orders paths key by key. At the first differing key the greater key
// sorts first; when one path is a prefix of the other the longer path sorts
// first. The result is a descending order over paths.
func Compare(a, b []string) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			if a[i] > b[i] {
				return -1
			}
			return 1
		}
	}
	return len(b) - len(a)
}
