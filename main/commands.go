package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/tidwall/jsonc"

	"github.com/rawbytedev/attrcodec"
	"github.com/rawbytedev/attrcodec/pkg/attr"
	"github.com/rawbytedev/attrcodec/pkg/compactwire"
	"github.com/rawbytedev/attrcodec/pkg/flatten"
	"github.com/rawbytedev/attrcodec/pkg/itemstore"
)

// errCyclicOutput is returned by unflatten when the entries carry ref markers.
// The rebuilt graph would contain itself, which JSON cannot express.
var errCyclicOutput = errors.New("unflatten: entries contain circular references, the rebuilt document cannot be written as JSON")

type env struct {
	cfg    Config
	codec  *attrcodec.Codec
	logger *slog.Logger
	out    io.Writer
}

type command func(ctx context.Context, e *env, input []byte) error

var commands = map[string]command{
	"encode":    runEncode,
	"decode":    runDecode,
	"flatten":   runFlatten,
	"unflatten": runUnflatten,
	"pack":      runPack,
	"unpack":    runUnpack,
}

// readDocument parses JSONC input. Numbers stay json.Number so that their
// text reaches the N payload unchanged.
func readDocument(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("parsing input: %w", err)
	}
	return v, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runEncode(_ context.Context, e *env, input []byte) error {
	doc, err := readDocument(input)
	if err != nil {
		return err
	}
	v, err := e.codec.Marshal(doc)
	if err != nil {
		return err
	}
	if e.cfg.Format == "cbor" {
		data, err := attr.MarshalCBOR(v)
		if err != nil {
			return err
		}
		_, err = e.out.Write(data)
		return err
	}
	data, err := attr.MarshalJSON(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(e.out, "%s\n", data)
	return err
}

func runDecode(_ context.Context, e *env, input []byte) error {
	var (
		v   attr.Value
		err error
	)
	if e.cfg.Format == "cbor" {
		v, err = attr.UnmarshalCBOR(input)
	} else {
		v, err = attr.ParseJSON(jsonc.ToJSON(input))
	}
	if err != nil {
		return err
	}
	e.logger.Debug("decoding", "kind", v.Kind())
	out, err := e.codec.Unmarshal(v)
	if err != nil {
		return err
	}
	return writeJSON(e.out, out)
}

func runFlatten(_ context.Context, e *env, input []byte) error {
	doc, err := readDocument(input)
	if err != nil {
		return err
	}
	entries, err := flatten.Flatten(doc)
	if err != nil {
		return err
	}
	e.logger.Debug("flattened", "entries", len(entries))
	return writeJSON(e.out, entries)
}

func runUnflatten(_ context.Context, e *env, input []byte) error {
	var entries []flatten.Entry
	if err := json.Unmarshal(jsonc.ToJSON(input), &entries); err != nil {
		return fmt.Errorf("parsing entries: %w", err)
	}
	for _, entry := range entries {
		if _, ok := entry.Leaf.(flatten.Circular); ok {
			return fmt.Errorf("%w: ref at %v", errCyclicOutput, entry.Path)
		}
	}
	obj, err := flatten.Unflatten(entries)
	if err != nil {
		return err
	}
	return writeJSON(e.out, obj)
}

// runPack loads an array of records into a table and writes its snapshot.
// Records without an _id get one generated from the configured prefix.
func runPack(ctx context.Context, e *env, input []byte) error {
	doc, err := readDocument(input)
	if err != nil {
		return err
	}
	records, ok := doc.([]any)
	if !ok {
		return fmt.Errorf("pack expects an array of records, got %T", doc)
	}
	compression, err := compactwire.ParseCompression(e.cfg.Compression)
	if err != nil {
		return err
	}

	table := itemstore.NewMemTable()
	repo := itemstore.NewRepository(table, itemstore.WithCodec(e.codec), itemstore.WithLogger(e.logger))
	for i, r := range records {
		rec, ok := r.(map[string]any)
		if !ok {
			return fmt.Errorf("record %d is %T, not an object", i, r)
		}
		if _, ok := rec[itemstore.KeyAttribute].(string); !ok {
			rec[itemstore.KeyAttribute] = itemstore.GenerateID(e.cfg.IDPrefix)
		}
		if err := repo.Put(ctx, rec); err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
	}
	e.logger.Info("packed records", "count", table.Len(), "compression", compression)
	return table.Snapshot(e.out, compression)
}

func runUnpack(ctx context.Context, e *env, input []byte) error {
	table := itemstore.NewMemTable()
	if err := table.Restore(bytes.NewReader(input)); err != nil {
		return err
	}
	repo := itemstore.NewRepository(table, itemstore.WithCodec(e.codec), itemstore.WithLogger(e.logger))
	records, err := repo.List(ctx)
	if err != nil {
		return err
	}
	return writeJSON(e.out, records)
}
