package attrcodec

import (
	"encoding/json"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rawbytedev/attrcodec/pkg/attr"
)

type benchCoupon struct {
	ID       string              `attr:"_id" json:"_id" yaml:"_id"`
	Title    string              `attr:"title" json:"title" yaml:"title"`
	Discount float64             `attr:"discount" json:"discount" yaml:"discount"`
	Uses     int                 `attr:"uses" json:"uses" yaml:"uses"`
	Active   bool                `attr:"active" json:"active" yaml:"active"`
	History  []string            `attr:"history" json:"history" yaml:"history"`
	Tags     map[string]struct{} `attr:"tags" json:"tags" yaml:"tags"`
	Created  time.Time           `attr:"createdAt" json:"createdAt" yaml:"createdAt"`
}

func newBenchCoupon() benchCoupon {
	return benchCoupon{
		ID:       "coupon+7f6c1d3e-3c1a-4c55-9a4e-1f0f7a2b9d11",
		Title:    "10% off everything",
		Discount: 10.5,
		Uses:     3,
		Active:   true,
		History:  []string{"issued", "viewed", "redeemed"},
		Tags:     map[string]struct{}{"food": {}, "summer": {}},
		Created:  time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC),
	}
}

func BenchmarkMarshalItem(b *testing.B) {
	z := newBenchCoupon()
	c := NewCodec(Options{})
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, _ = c.MarshalItem(z)
	}
}

func BenchmarkMarshalItemJSON(b *testing.B) {
	z := newBenchCoupon()
	c := NewCodec(Options{})
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		item, _ := c.MarshalItem(z)
		_, _ = item.MarshalJSON()
	}
}

func BenchmarkMarshalItemCBOR(b *testing.B) {
	z := newBenchCoupon()
	c := NewCodec(Options{})
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		item, _ := c.MarshalItem(z)
		_, _ = item.MarshalCBOR()
	}
}

func BenchmarkUnmarshalItemInto(b *testing.B) {
	c := NewCodec(Options{})
	item, err := c.MarshalItem(newBenchCoupon())
	if err != nil {
		b.Fatal(err)
	}
	var out benchCoupon
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = c.UnmarshalItemInto(item, &out)
	}
}

func BenchmarkUnmarshalMap(b *testing.B) {
	c := NewCodec(Options{})
	item, err := c.MarshalItem(newBenchCoupon())
	if err != nil {
		b.Fatal(err)
	}
	v := attr.Map(item)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, _ = c.Unmarshal(v)
	}
}

func BenchmarkJSON(b *testing.B) {
	z := newBenchCoupon()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, _ = json.Marshal(z)
	}
}

func BenchmarkYaml(b *testing.B) {
	z := newBenchCoupon()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, _ = yaml.Marshal(z)
	}
}
