// Package flatten converts nested maps and slices to and from an ordered list
// of path-keyed leaves.
//
// Given
//
//	a := map[string]any{"name": "root"}
//	a["child"] = map[string]any{"parent": a, "n": 1}
//
// Flatten(a) yields
//
//	[name]          "root"
//	[child parent]  Circular{IsRoot: true}
//	[child n]       1
//
// ordered by Compare. References to an ancestor other than the root carry the
// key path of that ancestor instead. Unflatten reverses the process and
// rebuilds the same shape, re-linking circular references to the maps it
// creates.
package flatten
