package catalog_test

import (
	"testing"

	"storefront/internal/domain/catalog"
	"storefront/internal/domain/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func variant(id int64, sku string, price string, orig string, stock int64) model.ProductVariant {
	v := model.ProductVariant{
		ID:            id,
		SKU:           sku,
		Price:         dec(price),
		StockQuantity: stock,
	}
	if orig != "" {
		v.OriginalPrice = decimal.NewNullDecimal(dec(orig))
	}
	return v
}

func TestSummarize_NoVariants(t *testing.T) {
	agg := catalog.Summarize(nil)

	assert.True(t, agg.Price.IsZero())
	assert.Nil(t, agg.OriginalPrice)
	assert.Nil(t, agg.MinPrice)
	assert.Nil(t, agg.MaxPrice)
	assert.Equal(t, int64(0), agg.TotalStock)
	assert.Nil(t, agg.SKU)
	assert.Equal(t, []string{}, agg.AllSKUs)
	assert.Nil(t, agg.DiscountPercentage)
	assert.Equal(t, catalog.StockOutOfStock, agg.StockStatus)
	assert.Equal(t, 0, agg.VariantsCount)
}

func TestSummarize_PriceRangeAndStock(t *testing.T) {
	agg := catalog.Summarize([]model.ProductVariant{
		variant(3, "S-BLUE-L", "120000", "", 4),
		variant(1, "S-RED-M", "100000", "150000", 5),
		variant(2, "S-RED-L", "110000", "130000", 2),
	})

	require.NotNil(t, agg.MinPrice)
	require.NotNil(t, agg.MaxPrice)
	assert.True(t, agg.MinPrice.Equal(dec("100000")))
	assert.True(t, agg.MaxPrice.Equal(dec("120000")))
	assert.True(t, agg.Price.Equal(dec("100000")))

	require.NotNil(t, agg.OriginalPrice)
	assert.True(t, agg.OriginalPrice.Equal(dec("130000")))
	assert.True(t, agg.MaxOriginalPrice.Equal(dec("150000")))

	assert.Equal(t, int64(11), agg.TotalStock)
	assert.Equal(t, catalog.StockIn, agg.StockStatus)

	// 入力順ではなくid順
	require.NotNil(t, agg.SKU)
	assert.Equal(t, "S-RED-M", *agg.SKU)
	assert.Equal(t, []string{"S-RED-M", "S-RED-L", "S-BLUE-L"}, agg.AllSKUs)

	// (130000-100000)/130000 = 23.07%
	require.NotNil(t, agg.DiscountPercentage)
	assert.Equal(t, int64(23), *agg.DiscountPercentage)
	assert.Equal(t, 3, agg.VariantsCount)
}

func TestSummarize_EqualPrices(t *testing.T) {
	agg := catalog.Summarize([]model.ProductVariant{
		variant(1, "A", "50", "", 1),
		variant(2, "B", "50", "", 1),
	})

	assert.True(t, agg.MinPrice.Equal(*agg.MaxPrice))
	assert.Nil(t, agg.OriginalPrice)
	assert.Nil(t, agg.DiscountPercentage)
	assert.Equal(t, catalog.StockLow, agg.StockStatus)
}

func TestSummarize_NegativeStockPassesThrough(t *testing.T) {
	agg := catalog.Summarize([]model.ProductVariant{
		variant(1, "A", "10", "", 3),
		variant(2, "B", "10", "", -5),
	})

	assert.Equal(t, int64(-2), agg.TotalStock)
	assert.Equal(t, catalog.StockOutOfStock, agg.StockStatus)
}

func TestSummarize_DoesNotMutateInput(t *testing.T) {
	in := []model.ProductVariant{
		variant(2, "B", "10", "", 1),
		variant(1, "A", "10", "", 1),
	}
	_ = catalog.Summarize(in)

	assert.Equal(t, int64(2), in[0].ID)
	assert.Equal(t, int64(1), in[1].ID)
}

func TestClassifyStock(t *testing.T) {
	cases := []struct {
		total int64
		want  catalog.StockStatus
	}{
		{-1, catalog.StockOutOfStock},
		{0, catalog.StockOutOfStock},
		{1, catalog.StockLow},
		{9, catalog.StockLow},
		{10, catalog.StockIn},
		{500, catalog.StockIn},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, catalog.ClassifyStock(tc.total), "total=%d", tc.total)
	}
}

func TestDiscountPercentage(t *testing.T) {
	cases := []struct {
		name  string
		price string
		orig  string
		want  *int64
	}{
		{name: "no original", price: "100", orig: "", want: nil},
		{name: "equal", price: "100", orig: "100", want: nil},
		{name: "below price", price: "100", orig: "90", want: nil},
		{name: "plain", price: "85", orig: "100", want: i64(15)},
		{name: "half rounds up", price: "7", orig: "8", want: i64(13)},
		{name: "half of one percent", price: "199", orig: "200", want: i64(1)},
		{name: "rounds down", price: "100000", orig: "150000", want: i64(33)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var orig *decimal.Decimal
			if tc.orig != "" {
				o := dec(tc.orig)
				orig = &o
			}
			got := catalog.DiscountPercentage(dec(tc.price), orig)
			if tc.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tc.want, *got)
		})
	}
}

func TestGroupAttributes(t *testing.T) {
	v1 := variant(1, "A", "1", "", 1)
	v1.Attributes = model.NewAttributes(map[string]string{"color": "red", "size": "M"})
	v2 := variant(2, "B", "1", "", 1)
	v2.Attributes = model.NewAttributes(map[string]string{"color": "blue", "size": "M"})
	v3 := variant(3, "C", "1", "", 1)
	v3.Attributes = model.NewAttributes(map[string]string{"color": "red", "size": "L"})

	got := catalog.GroupAttributes([]model.ProductVariant{v3, v1, v2})

	assert.Equal(t, map[string][]string{
		"color": {"red", "blue"},
		"size":  {"M", "L"},
	}, got)
}

func i64(v int64) *int64 {
	return &v
}
