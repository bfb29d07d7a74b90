package itemstore

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"sync"

	"github.com/rawbytedev/attrcodec/internal/common"
	"github.com/rawbytedev/attrcodec/pkg/attr"
)

// MemTable is an in-memory Table. Items are held as canonical CBOR so that
// callers never share state with the table.
type MemTable struct {
	mu    sync.RWMutex
	items map[string][]byte
}

func NewMemTable() *MemTable {
	return &MemTable{items: make(map[string][]byte)}
}

var _ Table = (*MemTable)(nil)

func (t *MemTable) GetItem(ctx context.Context, key attr.Item) (attr.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	id, err := IDOf(key)
	if err != nil {
		return nil, err
	}
	t.mu.RLock()
	raw, ok := t.items[id]
	t.mu.RUnlock()
	if !ok {
		return nil, notFound(id)
	}
	return decodeStored(raw)
}

func (t *MemTable) PutItem(ctx context.Context, item attr.Item) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	id, err := IDOf(item)
	if err != nil {
		return err
	}
	raw, err := item.MarshalCBOR()
	if err != nil {
		return fmt.Errorf("put %s: %w", id, err)
	}
	t.mu.Lock()
	t.items[id] = raw
	t.mu.Unlock()
	return nil
}

func (t *MemTable) UpdateItem(ctx context.Context, key attr.Item, u *Update) (attr.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	id, err := IDOf(key)
	if err != nil {
		return nil, err
	}
	if u.empty() {
		return nil, ErrEmptyUpdate
	}
	if err := u.validate(); err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	raw, ok := t.items[id]
	if !ok {
		return nil, notFound(id)
	}
	item, err := decodeStored(raw)
	if err != nil {
		return nil, err
	}
	if err := apply(item, u); err != nil {
		return nil, fmt.Errorf("update %s: %w", id, err)
	}
	raw, err = item.MarshalCBOR()
	if err != nil {
		return nil, fmt.Errorf("update %s: %w", id, err)
	}
	t.items[id] = raw
	return item, nil
}

func (t *MemTable) DeleteItem(ctx context.Context, key attr.Item) (attr.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	id, err := IDOf(key)
	if err != nil {
		return nil, err
	}
	t.mu.Lock()
	raw, ok := t.items[id]
	delete(t.items, id)
	t.mu.Unlock()
	if !ok {
		return nil, notFound(id)
	}
	return decodeStored(raw)
}

// Scan returns every item ordered by key.
func (t *MemTable) Scan(ctx context.Context) ([]attr.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t.mu.RLock()
	ids := t.sortedIDs()
	raws := make([][]byte, len(ids))
	for i, id := range ids {
		raws[i] = t.items[id]
	}
	t.mu.RUnlock()

	out := make([]attr.Item, 0, len(raws))
	for _, raw := range raws {
		item, err := decodeStored(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

// Len reports the number of stored items.
func (t *MemTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.items)
}

// sortedIDs must be called with t.mu held.
func (t *MemTable) sortedIDs() []string {
	ids := make([]string, 0, len(t.items))
	for id := range t.items {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func decodeStored(raw []byte) (attr.Item, error) {
	var item attr.Item
	if err := item.UnmarshalCBOR(raw); err != nil {
		return nil, fmt.Errorf("stored item: %w", err)
	}
	return item, nil
}

func apply(item attr.Item, u *Update) error {
	for name, v := range u.Set {
		item[name] = v
	}
	for name, v := range u.Inc {
		cur, ok := item[name].(attr.Number)
		if !ok {
			return fmt.Errorf("%w: %q is not a number", ErrInvalidUpdate, name)
		}
		sum, err := addNumbers(cur, v.(attr.Number))
		if err != nil {
			return err
		}
		item[name] = sum
	}
	for name, v := range u.Append {
		cur, ok := item[name].(attr.List)
		if !ok {
			return fmt.Errorf("%w: %q is not a list", ErrInvalidUpdate, name)
		}
		next := make(attr.List, 0, len(cur)+len(v.(attr.List)))
		next = append(next, cur...)
		item[name] = append(next, v.(attr.List)...)
	}
	return nil
}

func addNumbers(a, b attr.Number) (attr.Number, error) {
	x, err := strconv.ParseFloat(string(a), 64)
	if err != nil {
		return "", fmt.Errorf("%w: %q is not a number", ErrInvalidUpdate, a)
	}
	y, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return "", fmt.Errorf("%w: %q is not a number", ErrInvalidUpdate, b)
	}
	sum := x + y
	if math.IsInf(sum, 0) || math.IsNaN(sum) {
		return "", fmt.Errorf("%w: %s + %s overflows", ErrInvalidUpdate, a, b)
	}
	return attr.Number(common.FormatFloat(sum, 64)), nil
}
