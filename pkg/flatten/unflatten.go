package flatten

import "fmt"

type unflattener struct {
	root  map[string]any
	stack []node
}

type node struct {
	obj map[string]any
	key string
}

// Unflatten rebuilds a nested map from entries produced by Flatten. Entries
// sharing a first key are grouped into a fresh nested map. Circular markers
// resolve to the maps being built, so cycles in the input become real cycles
// in the result.
func Unflatten(entries []Entry) (map[string]any, error) {
	u := &unflattener{root: make(map[string]any)}
	if err := u.fill(u.root, entries); err != nil {
		return nil, err
	}
	return u.root, nil
}

func (u *unflattener) fill(obj map[string]any, entries []Entry) error {
	var simple, roots, circular []Entry
	var order []string
	groups := make(map[string][]Entry)

	for _, e := range entries {
		switch len(e.Path) {
		case 0:
			return ErrEmptyPath
		case 1:
			c, ok := asCircular(e.Leaf)
			switch {
			case !ok:
				simple = append(simple, e)
			case c.IsRoot:
				roots = append(roots, e)
			default:
				circular = append(circular, Entry{Path: e.Path, Leaf: c})
			}
		default:
			key := e.Path[0]
			if _, seen := groups[key]; !seen {
				order = append(order, key)
			}
			groups[key] = append(groups[key], Entry{Path: e.Path[1:], Leaf: e.Leaf})
		}
	}

	for _, e := range simple {
		obj[e.Path[0]] = e.Leaf
	}
	for _, e := range roots {
		obj[e.Path[0]] = u.root
	}
	for _, e := range circular {
		target, err := u.ancestor(e.Leaf.(Circular).Parents)
		if err != nil {
			return fmt.Errorf("%s: %w", e.Path[0], err)
		}
		obj[e.Path[0]] = target
	}
	for _, key := range order {
		child := make(map[string]any)
		obj[key] = child
		u.stack = append(u.stack, node{obj: child, key: key})
		err := u.fill(child, groups[key])
		u.stack = u.stack[:len(u.stack)-1]
		if err != nil {
			return err
		}
	}
	return nil
}

// ancestor resolves a parent path against the stack of maps under
// construction.
func (u *unflattener) ancestor(parents []string) (map[string]any, error) {
	depth := len(parents)
	if depth == 0 || depth > len(u.stack) {
		return nil, fmt.Errorf("%w: %v", ErrDanglingReference, parents)
	}
	for i, key := range parents {
		if u.stack[i].key != key {
			return nil, fmt.Errorf("%w: %v", ErrDanglingReference, parents)
		}
	}
	return u.stack[depth-1].obj, nil
}

func asCircular(leaf any) (Circular, bool) {
	switch c := leaf.(type) {
	case Circular:
		return c, true
	case *Circular:
		if c != nil {
			return *c, true
		}
	}
	return Circular{}, false
}
