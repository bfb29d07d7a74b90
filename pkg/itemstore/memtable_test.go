package itemstore

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rawbytedev/attrcodec/pkg/attr"
	"github.com/rawbytedev/attrcodec/pkg/compactwire"
)

func coupon(id string) attr.Item {
	return attr.Item{
		KeyAttribute: attr.String(id),
		"title":      attr.String("10% off"),
		"uses":       attr.Number("2"),
		"history":    attr.List{attr.String("issued")},
		"tags":       attr.StringSet{"food", "summer"},
	}
}

func TestMemTableCRUD(t *testing.T) {
	ctx := context.Background()
	tbl := NewMemTable()

	require.NoError(t, tbl.PutItem(ctx, coupon("coupon+1")))
	got, err := tbl.GetItem(ctx, Key("coupon+1"))
	require.NoError(t, err)
	assert.Equal(t, coupon("coupon+1"), got)

	got["title"] = attr.String("mutated")
	again, err := tbl.GetItem(ctx, Key("coupon+1"))
	require.NoError(t, err)
	assert.Equal(t, attr.String("10% off"), again["title"])

	deleted, err := tbl.DeleteItem(ctx, Key("coupon+1"))
	require.NoError(t, err)
	assert.Equal(t, coupon("coupon+1"), deleted)
	assert.Zero(t, tbl.Len())

	_, err = tbl.GetItem(ctx, Key("coupon+1"))
	require.ErrorIs(t, err, ErrNotFound)
	_, err = tbl.DeleteItem(ctx, Key("coupon+1"))
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemTableMissingID(t *testing.T) {
	ctx := context.Background()
	tbl := NewMemTable()
	require.ErrorIs(t, tbl.PutItem(ctx, attr.Item{"title": attr.String("x")}), ErrMissingID)
	require.ErrorIs(t, tbl.PutItem(ctx, attr.Item{KeyAttribute: attr.Number("1")}), ErrMissingID)
	_, err := tbl.GetItem(ctx, attr.Item{})
	require.ErrorIs(t, err, ErrMissingID)
}

func TestMemTableUpdate(t *testing.T) {
	ctx := context.Background()
	tbl := NewMemTable()
	require.NoError(t, tbl.PutItem(ctx, coupon("coupon+1")))

	got, err := tbl.UpdateItem(ctx, Key("coupon+1"), &Update{
		Set:    map[string]attr.Value{"title": attr.String("20% off")},
		Inc:    map[string]attr.Value{"uses": attr.Number("1.5")},
		Append: map[string]attr.Value{"history": attr.List{attr.String("redeemed")}},
	})
	require.NoError(t, err)
	assert.Equal(t, attr.String("20% off"), got["title"])
	assert.Equal(t, attr.Number("3.5"), got["uses"])
	assert.Equal(t, attr.List{attr.String("issued"), attr.String("redeemed")}, got["history"])

	stored, err := tbl.GetItem(ctx, Key("coupon+1"))
	require.NoError(t, err)
	assert.Equal(t, got, stored)
}

func TestMemTableUpdateErrors(t *testing.T) {
	ctx := context.Background()
	tbl := NewMemTable()
	require.NoError(t, tbl.PutItem(ctx, coupon("coupon+1")))

	_, err := tbl.UpdateItem(ctx, Key("coupon+2"), &Update{Set: map[string]attr.Value{"a": attr.Null{}}})
	require.ErrorIs(t, err, ErrNotFound)

	_, err = tbl.UpdateItem(ctx, Key("coupon+1"), &Update{})
	require.ErrorIs(t, err, ErrEmptyUpdate)

	_, err = tbl.UpdateItem(ctx, Key("coupon+1"), &Update{Inc: map[string]attr.Value{"title": attr.Number("1")}})
	require.ErrorIs(t, err, ErrInvalidUpdate)

	_, err = tbl.UpdateItem(ctx, Key("coupon+1"), &Update{Append: map[string]attr.Value{"missing": attr.List{}}})
	require.ErrorIs(t, err, ErrInvalidUpdate)

	// failed updates leave the item untouched
	got, err := tbl.GetItem(ctx, Key("coupon+1"))
	require.NoError(t, err)
	assert.Equal(t, coupon("coupon+1"), got)
}

func TestMemTableIncrementOverflow(t *testing.T) {
	ctx := context.Background()
	tbl := NewMemTable()
	item := coupon("coupon+1")
	item["uses"] = attr.Number("1e308")
	require.NoError(t, tbl.PutItem(ctx, item))

	_, err := tbl.UpdateItem(ctx, Key("coupon+1"), &Update{Inc: map[string]attr.Value{"uses": attr.Number("1e308")}})
	require.ErrorIs(t, err, ErrInvalidUpdate)

	got, err := tbl.GetItem(ctx, Key("coupon+1"))
	require.NoError(t, err)
	assert.Equal(t, attr.Number("1e308"), got["uses"])
}

func TestMemTableCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	tbl := NewMemTable()
	require.ErrorIs(t, tbl.PutItem(ctx, coupon("coupon+1")), context.Canceled)
	_, err := tbl.Scan(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestMemTableScanOrder(t *testing.T) {
	ctx := context.Background()
	tbl := NewMemTable()
	for _, id := range []string{"c+3", "c+1", "c+2"} {
		require.NoError(t, tbl.PutItem(ctx, coupon(id)))
	}
	items, err := tbl.Scan(ctx)
	require.NoError(t, err)
	require.Len(t, items, 3)
	for i, item := range items {
		id, err := IDOf(item)
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("c+%d", i+1), id)
	}
}

func TestSnapshotRestore(t *testing.T) {
	ctx := context.Background()
	for _, c := range []compactwire.Compression{compactwire.CompressionNone, compactwire.CompressionZstd, compactwire.CompressionLZ4} {
		t.Run(c.String(), func(t *testing.T) {
			src := NewMemTable()
			for i := 0; i < 20; i++ {
				require.NoError(t, src.PutItem(ctx, coupon(fmt.Sprintf("coupon+%02d", i))))
			}
			var buf bytes.Buffer
			require.NoError(t, src.Snapshot(&buf, c))

			dst := NewMemTable()
			require.NoError(t, dst.PutItem(ctx, coupon("stale")))
			require.NoError(t, dst.Restore(&buf))

			want, err := src.Scan(ctx)
			require.NoError(t, err)
			got, err := dst.Scan(ctx)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestSnapshotEmptyTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewMemTable().Snapshot(&buf, compactwire.CompressionNone))

	dst := NewMemTable()
	require.NoError(t, dst.PutItem(context.Background(), coupon("stale")))
	require.NoError(t, dst.Restore(&buf))
	assert.Zero(t, dst.Len())
}

func TestRestoreCorruptSnapshot(t *testing.T) {
	ctx := context.Background()
	src := NewMemTable()
	require.NoError(t, src.PutItem(ctx, coupon("coupon+1")))
	var buf bytes.Buffer
	require.NoError(t, src.Snapshot(&buf, compactwire.CompressionNone))

	data := buf.Bytes()
	data[len(data)-5] ^= 0xFF

	dst := NewMemTable()
	require.NoError(t, dst.PutItem(ctx, coupon("keep")))
	err := dst.Restore(bytes.NewReader(data))
	require.ErrorIs(t, err, compactwire.ErrChecksum)
	assert.Equal(t, 1, dst.Len())
}

func TestMemTableConcurrentIncrements(t *testing.T) {
	ctx := context.Background()
	tbl := NewMemTable()
	require.NoError(t, tbl.PutItem(ctx, coupon("coupon+1")))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := tbl.UpdateItem(ctx, Key("coupon+1"), &Update{Inc: map[string]attr.Value{"uses": attr.Number("1")}})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := tbl.GetItem(ctx, Key("coupon+1"))
	require.NoError(t, err)
	assert.Equal(t, attr.Number("52"), got["uses"])
}
