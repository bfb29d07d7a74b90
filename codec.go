package attrcodec

import (
	"reflect"
	"sync"

	"github.com/rawbytedev/attrcodec/pkg/attr"
)

// DatePrefix marks a time.Time encoded as an S value. Decoding leaves the
// prefixed string untouched; see ParseDate.
const DatePrefix = "$$$date_"

const defaultTagName = "attr"

type Options struct {
	TagName          string // struct tag consulted for field names; "attr" when empty
	DecodeNumberSets bool   // decode NS into a Set instead of rejecting it
}

// Codec converts Go values to and from wire values. It is safe for
// concurrent use; struct field plans are computed once per type.
type Codec struct {
	Opts Options
	mu   sync.RWMutex
	plan map[reflect.Type]*structPlan
}

func NewCodec(opts Options) *Codec {
	return &Codec{
		Opts: opts,
		plan: make(map[reflect.Type]*structPlan),
	}
}

func (c *Codec) tagName() string {
	if c.Opts.TagName == "" {
		return defaultTagName
	}
	return c.Opts.TagName
}

var defaultCodec = NewCodec(Options{})

// Marshal encodes v with the default codec.
func Marshal(v any) (attr.Value, error) {
	return defaultCodec.Marshal(v)
}

// Unmarshal decodes v with the default codec.
func Unmarshal(v attr.Value) (any, error) {
	return defaultCodec.Unmarshal(v)
}

// MarshalItem encodes a record with the default codec.
func MarshalItem(v any) (attr.Item, error) {
	return defaultCodec.MarshalItem(v)
}

// UnmarshalItem decodes a record with the default codec.
func UnmarshalItem(item attr.Item) (map[string]any, error) {
	return defaultCodec.UnmarshalItem(item)
}
