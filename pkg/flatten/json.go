package flatten

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type entryJSON struct {
	Path  []string        `json:"path"`
	Value any             `json:"value,omitempty"`
	Ref   json.RawMessage `json:"ref,omitempty"`
}

// MarshalJSON renders e as {"path":[...],"value":...}. Circular leaves use
// "ref" instead: RootKey for the root, or the ancestor key path.
func (e Entry) MarshalJSON() ([]byte, error) {
	out := entryJSON{Path: e.Path}
	c, ok := asCircular(e.Leaf)
	switch {
	case ok && c.IsRoot:
		out.Ref = json.RawMessage(`"` + RootKey + `"`)
	case ok:
		ref, err := json.Marshal(c.Parents)
		if err != nil {
			return nil, err
		}
		out.Ref = ref
	default:
		out.Value = e.Leaf
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var in entryJSON
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&in); err != nil {
		return err
	}
	*e = Entry{Path: in.Path, Leaf: in.Value}
	if len(in.Ref) == 0 {
		return nil
	}

	var root string
	if err := json.Unmarshal(in.Ref, &root); err == nil {
		if root != RootKey {
			return fmt.Errorf("flatten: unknown ref %q", root)
		}
		e.Leaf = Root()
		return nil
	}
	var parents []string
	if err := json.Unmarshal(in.Ref, &parents); err != nil {
		return fmt.Errorf("flatten: ref must be %q or a key path: %w", RootKey, err)
	}
	e.Leaf = Circular{Parents: parents}
	return nil
}
