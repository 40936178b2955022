// Package catalog は商品のvariant集合から表示用の値を計算する。
// すべて入力だけで決まる純粋な関数。
package catalog

import (
	"sort"

	"storefront/internal/domain/model"

	"github.com/shopspring/decimal"
)

type StockStatus string

const (
	StockOutOfStock StockStatus = "out_of_stock"
	StockLow        StockStatus = "low_stock"
	StockIn         StockStatus = "in_stock"
)

// low_stockの上限（この値は含まない）。
const LowStockThreshold int64 = 10

var hundred = decimal.NewFromInt(100)

// variantsから計算した値。
type Aggregate struct {
	Price            decimal.Decimal
	OriginalPrice    *decimal.Decimal
	MinPrice         *decimal.Decimal
	MaxPrice         *decimal.Decimal
	MinOriginalPrice *decimal.Decimal
	MaxOriginalPrice *decimal.Decimal

	// 切り上げない。負の合計もそのまま
	TotalStock  int64
	StockStatus StockStatus

	SKU     *string
	AllSKUs []string

	DiscountPercentage *int64
	VariantsCount      int
}

// variantsをid昇順に並べたコピーを返す。
func SortVariants(variants []model.ProductVariant) []model.ProductVariant {
	out := make([]model.ProductVariant, len(variants))
	copy(out, variants)
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// 商品1件分を集計する。skuとall_skusが読み込み順に依存しないよう
// variantsはid順に並べる。
func Summarize(variants []model.ProductVariant) Aggregate {
	agg := Aggregate{
		Price:         decimal.Zero,
		AllSKUs:       []string{},
		VariantsCount: len(variants),
	}
	if len(variants) == 0 {
		agg.StockStatus = ClassifyStock(0)
		return agg
	}

	sorted := SortVariants(variants)

	minPrice, maxPrice := sorted[0].Price, sorted[0].Price
	var minOrig, maxOrig *decimal.Decimal

	for _, v := range sorted {
		if v.Price.LessThan(minPrice) {
			minPrice = v.Price
		}
		if v.Price.GreaterThan(maxPrice) {
			maxPrice = v.Price
		}

		if v.OriginalPrice.Valid {
			op := v.OriginalPrice.Decimal
			if minOrig == nil || op.LessThan(*minOrig) {
				minOrig = ptr(op)
			}
			if maxOrig == nil || op.GreaterThan(*maxOrig) {
				maxOrig = ptr(op)
			}
		}

		agg.TotalStock += v.StockQuantity
		agg.AllSKUs = append(agg.AllSKUs, v.SKU)
	}

	agg.MinPrice = ptr(minPrice)
	agg.MaxPrice = ptr(maxPrice)
	agg.Price = minPrice

	agg.MinOriginalPrice = minOrig
	agg.MaxOriginalPrice = maxOrig
	agg.OriginalPrice = minOrig

	agg.SKU = ptr(sorted[0].SKU)
	agg.StockStatus = ClassifyStock(agg.TotalStock)
	agg.DiscountPercentage = DiscountPercentage(agg.Price, agg.OriginalPrice)

	return agg
}

// 在庫合計を out_of_stock(<=0) / low_stock(<10) / in_stock に分ける。
func ClassifyStock(total int64) StockStatus {
	switch {
	case total <= 0:
		return StockOutOfStock
	case total < LowStockThreshold:
		return StockLow
	default:
		return StockIn
	}
}

// round(100*(original-price)/original) を返す（0から遠い方へ四捨五入）。
// originalがない、またはprice以下ならnil。
func DiscountPercentage(price decimal.Decimal, original *decimal.Decimal) *int64 {
	if original == nil || !original.GreaterThan(price) {
		return nil
	}
	pct := original.Sub(price).Mul(hundred).DivRound(*original, 0).IntPart()
	return &pct
}

func ptr[T any](v T) *T {
	return &v
}
