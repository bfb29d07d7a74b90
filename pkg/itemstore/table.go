package itemstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/rawbytedev/attrcodec/pkg/attr"
)

// KeyAttribute is the partition key every record carries.
const KeyAttribute = "_id"

var (
	ErrNotFound      = errors.New("item not found")
	ErrMissingID     = errors.New("item has no string _id attribute")
	ErrInvalidUpdate = errors.New("invalid update")
	ErrEmptyUpdate   = errors.New("update has no attributes")
)

// Table is the key/value store a Repository talks to. Items are exchanged in
// wire form only; the store knows nothing about Go record types.
type Table interface {
	GetItem(ctx context.Context, key attr.Item) (attr.Item, error)
	PutItem(ctx context.Context, item attr.Item) error
	// UpdateItem applies u and returns the item as it is after the update.
	UpdateItem(ctx context.Context, key attr.Item, u *Update) (attr.Item, error)
	// DeleteItem removes the item and returns its last value.
	DeleteItem(ctx context.Context, key attr.Item) (attr.Item, error)
	Scan(ctx context.Context) ([]attr.Item, error)
}

// Key builds the key item for id.
func Key(id string) attr.Item {
	return attr.Item{KeyAttribute: attr.String(id)}
}

// IDOf extracts the key attribute of an item.
func IDOf(item attr.Item) (string, error) {
	id, ok := item[KeyAttribute].(attr.String)
	if !ok || id == "" {
		return "", ErrMissingID
	}
	return string(id), nil
}

func notFound(id string) error {
	return fmt.Errorf("cannot find %s: %w", id, ErrNotFound)
}
