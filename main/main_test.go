package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rawbytedev/attrcodec/pkg/attr"
)

func runCLI(t *testing.T, stdin []byte, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), args, bytes.NewReader(stdin), &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func TestEncodeJSON(t *testing.T) {
	in := []byte(`{
		// comment
		"title": "10% off",
		"discount": 10.50,
		"active": true,
		"tags": ["a", "b",],
	}`)
	out, _, err := runCLI(t, in, "encode")
	require.NoError(t, err)

	v, err := attr.ParseJSON([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, attr.Map{
		"title":    attr.String("10% off"),
		"discount": attr.Number("10.50"),
		"active":   attr.Bool(true),
		"tags":     attr.List{attr.String("a"), attr.String("b")},
	}, v)
}

func TestEncodeCBORThenDecode(t *testing.T) {
	encoded, _, err := runCLI(t, []byte(`{"n": 1, "s": "x", "z": null}`), "--format", "cbor", "encode")
	require.NoError(t, err)

	out, _, err := runCLI(t, []byte(encoded), "--format=cbor", "decode")
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, map[string]any{"n": float64(1), "s": "x", "z": nil}, got)
}

func TestDecodeNumberSetFlag(t *testing.T) {
	in := []byte(`{"M": {"ids": {"NS": ["1", "2"]}}}`)
	_, _, err := runCLI(t, in, "decode")
	require.ErrorIs(t, err, attr.ErrUnimplementedAttribute)

	out, _, err := runCLI(t, in, "--decode-number-sets", "decode")
	require.NoError(t, err)
	assert.JSONEq(t, `{"ids": [1, 2]}`, out)
}

func TestFlattenUnflatten(t *testing.T) {
	in := []byte(`{"name": "root", "child": {"n": 1, "list": [true]}}`)
	entries, _, err := runCLI(t, in, "flatten")
	require.NoError(t, err)
	assert.True(t, strings.Index(entries, `"name"`) < strings.Index(entries, `"child"`))

	out, _, err := runCLI(t, []byte(entries), "unflatten")
	require.NoError(t, err)
	assert.JSONEq(t, `{"name": "root", "child": {"n": 1, "list": {"0": true}}}`, out)
}

func TestUnflattenRootReference(t *testing.T) {
	in := []byte(`[{"path": ["self"], "ref": "$root"}]`)
	_, _, err := runCLI(t, in, "unflatten")
	require.ErrorIs(t, err, errCyclicOutput)
	assert.ErrorContains(t, err, "[self]")

	in = []byte(`[{"path": ["a", "b", "up"], "ref": ["a"]}, {"path": ["a", "n"], "value": 1}]`)
	_, _, err = runCLI(t, in, "unflatten")
	require.ErrorIs(t, err, errCyclicOutput)
}

func TestFlattenEmptyDocument(t *testing.T) {
	for _, in := range []string{`{}`, `[]`} {
		out, _, err := runCLI(t, []byte(in), "flatten")
		require.NoError(t, err)
		assert.JSONEq(t, `[]`, out, in)
	}

	out, _, err := runCLI(t, []byte(`[]`), "unflatten")
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, out)
}

func TestPackUnpack(t *testing.T) {
	in := []byte(`[
		{"_id": "coupon+0", "title": "a", "uses": 2},
		{"title": "b"},
	]`)
	snapshot, stderr, err := runCLI(t, in, "--compression", "lz4", "--prefix", "coupon", "--log-level", "info", "pack")
	require.NoError(t, err)
	assert.Contains(t, stderr, "packed records")

	out, _, err := runCLI(t, []byte(snapshot), "unpack")
	require.NoError(t, err)

	var records []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &records))
	require.Len(t, records, 2)
	assert.Equal(t, "coupon+0", records[0]["_id"])
	assert.Equal(t, float64(2), records[0]["uses"])
	assert.True(t, strings.HasPrefix(records[1]["_id"].(string), "coupon+"))
	assert.Equal(t, "b", records[1]["title"])
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "attrcodec.yaml")
	require.NoError(t, os.WriteFile(path, []byte("format: cbor\ncompression: none\nlogLevel: debug\n"), 0o600))

	out, stderr, err := runCLI(t, []byte(`{"a": "b"}`), "--config", path, "encode")
	require.NoError(t, err)
	assert.Contains(t, stderr, "level=DEBUG")

	v, err := attr.UnmarshalCBOR([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, attr.Map{"a": attr.String("b")}, v)

	// flags win over the file
	out, _, err = runCLI(t, []byte(`{"a": "b"}`), "--config", path, "--format", "json", "encode")
	require.NoError(t, err)
	assert.JSONEq(t, `{"M": {"a": {"S": "b"}}}`, out)
}

func TestInputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.jsonc")
	require.NoError(t, os.WriteFile(path, []byte(`{"x": [1]}`), 0o600))
	out, _, err := runCLI(t, nil, "flatten", path)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"path": ["x", "0"], "value": 1}]`, out)
}

func TestCLIErrors(t *testing.T) {
	_, _, err := runCLI(t, nil)
	require.Error(t, err)
	_, _, err = runCLI(t, nil, "compress")
	require.ErrorContains(t, err, "unknown command")
	_, _, err = runCLI(t, []byte(`{}`), "--format", "xml", "encode")
	require.ErrorContains(t, err, "unknown format")
	_, _, err = runCLI(t, []byte(`{}`), "--log-level", "loud", "encode")
	require.ErrorContains(t, err, "unknown log level")
	_, _, err = runCLI(t, []byte(`"x"`), "flatten")
	require.Error(t, err)
	_, _, err = runCLI(t, []byte(`{}`), "pack")
	require.ErrorContains(t, err, "array of records")

	_, stderr, err := runCLI(t, nil, "--help")
	require.NoError(t, err)
	assert.Contains(t, stderr, "unflatten")
}
