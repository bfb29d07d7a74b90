package itemstore

import (
	"fmt"
	"io"

	"github.com/rawbytedev/attrcodec/pkg/compactwire"
)

// Snapshot writes every item as one compactwire data frame. The payload is
// the concatenation of the items' CBOR encodings in key order, indexed by
// the frame's offset table.
func (t *MemTable) Snapshot(w io.Writer, c compactwire.Compression) error {
	t.mu.RLock()
	ids := t.sortedIDs()
	var payload []byte
	offsets := make([]uint32, 0, len(ids))
	for _, id := range ids {
		offsets = append(offsets, uint32(len(payload)))
		payload = append(payload, t.items[id]...)
	}
	t.mu.RUnlock()

	var frame compactwire.DataFrame
	out, err := frame.EncodeDataFrame(payload, c, offsets)
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	if _, err := w.Write(out); err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	return nil
}

// Restore replaces the table contents with a snapshot read from r. The table
// is left untouched when the snapshot is invalid.
func (t *MemTable) Restore(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("restore: %w", err)
	}
	var frame compactwire.DataFrame
	payload, offsets, _, err := frame.DecodeDataFrame(data)
	if err != nil {
		return fmt.Errorf("restore: %w", err)
	}
	parts, err := compactwire.Split(payload, offsets)
	if err != nil {
		return fmt.Errorf("restore: %w", err)
	}

	items := make(map[string][]byte, len(parts))
	for i, part := range parts {
		item, err := decodeStored(part)
		if err != nil {
			return fmt.Errorf("restore item %d: %w", i, err)
		}
		id, err := IDOf(item)
		if err != nil {
			return fmt.Errorf("restore item %d: %w", i, err)
		}
		items[id] = append([]byte(nil), part...)
	}

	t.mu.Lock()
	t.items = items
	t.mu.Unlock()
	return nil
}
