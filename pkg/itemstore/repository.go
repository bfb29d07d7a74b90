package itemstore

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rawbytedev/attrcodec"
	"github.com/rawbytedev/attrcodec/pkg/attr"
)

const (
	CreatedAtAttribute = "createdAt"
	UpdatedAtAttribute = "updatedAt"
)

// GenerateID returns prefix+"+"+a random UUID.
func GenerateID(prefix string) string {
	return prefix + "+" + uuid.NewString()
}

// ParseID splits an ID produced by GenerateID.
func ParseID(id string) (string, uuid.UUID, error) {
	i := strings.LastIndexByte(id, '+')
	if i < 0 {
		return "", uuid.Nil, fmt.Errorf("id %q has no prefix separator", id)
	}
	u, err := uuid.Parse(id[i+1:])
	if err != nil {
		return "", uuid.Nil, fmt.Errorf("id %q: %w", id, err)
	}
	return id[:i], u, nil
}

// Repository maps Go records onto a Table through a Codec.
type Repository struct {
	table Table
	codec *attrcodec.Codec
	log   *slog.Logger
	now   func() time.Time
}

type Option func(*Repository)

func WithCodec(c *attrcodec.Codec) Option {
	return func(r *Repository) { r.codec = c }
}

func WithLogger(l *slog.Logger) Option {
	return func(r *Repository) { r.log = l }
}

// WithClock replaces time.Now for createdAt / updatedAt stamps.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) { r.now = now }
}

func NewRepository(table Table, opts ...Option) *Repository {
	r := &Repository{
		table: table,
		codec: attrcodec.NewCodec(attrcodec.Options{}),
		log:   slog.New(slog.DiscardHandler),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create stores a new record built from fields and returns it with its
// generated _id and timestamps.
func (r *Repository) Create(ctx context.Context, prefix string, fields map[string]any) (map[string]any, error) {
	now := r.now()
	record := make(map[string]any, len(fields)+3)
	for k, v := range fields {
		record[k] = v
	}
	record[KeyAttribute] = GenerateID(prefix)
	record[CreatedAtAttribute] = now
	record[UpdatedAtAttribute] = now

	if err := r.Put(ctx, record); err != nil {
		return nil, err
	}
	r.log.DebugContext(ctx, "created record", "id", record[KeyAttribute], "prefix", prefix)
	return record, nil
}

// Put writes a record, replacing any item with the same _id.
func (r *Repository) Put(ctx context.Context, record any) error {
	item, err := r.codec.MarshalItem(record)
	if err != nil {
		return fmt.Errorf("put: %w", err)
	}
	id, err := IDOf(item)
	if err != nil {
		return fmt.Errorf("put: %w", err)
	}
	if err := r.table.PutItem(ctx, item); err != nil {
		r.log.ErrorContext(ctx, "put failed", "id", id, "err", err)
		return err
	}
	return nil
}

// Get loads a record in its decoded form.
func (r *Repository) Get(ctx context.Context, id string) (map[string]any, error) {
	item, err := r.table.GetItem(ctx, Key(id))
	if err != nil {
		return nil, err
	}
	return r.codec.UnmarshalItem(item)
}

// GetInto loads a record into the struct or map pointed to by out.
func (r *Repository) GetInto(ctx context.Context, id string, out any) error {
	item, err := r.table.GetItem(ctx, Key(id))
	if err != nil {
		return err
	}
	return r.codec.UnmarshalItemInto(item, out)
}

// Update sets, increments and appends attributes of an existing record and
// returns the record as stored afterwards. updatedAt is always refreshed.
func (r *Repository) Update(ctx context.Context, id string, set, inc, appendTo map[string]any) (map[string]any, error) {
	u := &Update{}
	var err error
	stamped := make(map[string]any, len(set)+1)
	for k, v := range set {
		stamped[k] = v
	}
	stamped[UpdatedAtAttribute] = r.now()
	if u.Set, err = r.encodeGroup(stamped); err != nil {
		return nil, err
	}
	if u.Inc, err = r.encodeGroup(inc); err != nil {
		return nil, err
	}
	if u.Append, err = r.encodeGroup(appendTo); err != nil {
		return nil, err
	}

	if r.log.Enabled(ctx, slog.LevelDebug) {
		if expr, err := u.Expression(); err == nil {
			r.log.DebugContext(ctx, "updating record", "id", id, "expression", expr.Update)
		}
	}
	item, err := r.table.UpdateItem(ctx, Key(id), u)
	if err != nil {
		r.log.ErrorContext(ctx, "update failed", "id", id, "err", err)
		return nil, err
	}
	return r.codec.UnmarshalItem(item)
}

// Delete removes a record and returns its last stored form.
func (r *Repository) Delete(ctx context.Context, id string) (map[string]any, error) {
	item, err := r.table.DeleteItem(ctx, Key(id))
	if err != nil {
		return nil, err
	}
	r.log.DebugContext(ctx, "deleted record", "id", id)
	return r.codec.UnmarshalItem(item)
}

// List returns every record ordered by _id.
func (r *Repository) List(ctx context.Context) ([]map[string]any, error) {
	items, err := r.table.Scan(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		rec, err := r.codec.UnmarshalItem(item)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func (r *Repository) encodeGroup(fields map[string]any) (map[string]attr.Value, error) {
	if len(fields) == 0 {
		return nil, nil
	}
	out := make(map[string]attr.Value, len(fields))
	for k, v := range fields {
		av, err := r.codec.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("update %q: %w", k, err)
		}
		out[k] = av
	}
	return out, nil
}
