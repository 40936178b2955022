package repository

import (
	"context"
	"errors"

	"storefront/internal/domain/model"
)

var (
	ErrNotFound = errors.New("not found")
	// 一意制約違反（sku, slug, カートのキー）
	ErrDuplicate = errors.New("duplicate key")
)

// 一覧のstatus絞り込み。
type ProductStatus string

const (
	StatusAny        ProductStatus = ""
	StatusNew        ProductStatus = "new"
	StatusFeatured   ProductStatus = "featured"
	StatusActive     ProductStatus = "active"
	StatusInactive   ProductStatus = "inactive"
	StatusOutOfStock ProductStatus = "out_of_stock"
	StatusLowStock   ProductStatus = "low_stock"
)

// 検証済みの一覧取得条件。
type ProductListQuery struct {
	Page          int
	PerPage       int
	Search        string
	CategoryID    *int64
	Status        ProductStatus
	SortField     string
	SortDirection string
}

// 一覧のsummary部分。
type ProductCounts struct {
	TotalProducts    int64 `json:"total_products"`
	OutOfStock       int64 `json:"out_of_stock"`
	LowStock         int64 `json:"low_stock"`
	FeaturedProducts int64 `json:"featured_products"`
	NewProducts      int64 `json:"new_products"`
}

type ProductRepository interface {
	// category, variants(id昇順), 一般画像(sort_order昇順)をpreloadする。
	List(ctx context.Context, q ProductListQuery) ([]model.Product, int64, error)
	Counts(ctx context.Context) (ProductCounts, error)

	// category, 一般画像, variantsとその画像をpreloadする。
	FindByID(ctx context.Context, id int64) (model.Product, error)
	SlugExists(ctx context.Context, slug string, excludeID int64) (bool, error)

	Create(ctx context.Context, p *model.Product) error
	Update(ctx context.Context, p model.Product) error
	Delete(ctx context.Context, id int64) error
}
