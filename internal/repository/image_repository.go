package repository

import (
	"context"

	"storefront/internal/domain/model"
)

type ImageRepository interface {
	FindByID(ctx context.Context, id int64) (model.ProductImage, error)
	ListByProductID(ctx context.Context, productID int64) ([]model.ProductImage, error)
	ListByVariantID(ctx context.Context, variantID int64) ([]model.ProductImage, error)
	// 一般画像の次のsort_order
	NextGeneralSortOrder(ctx context.Context, productID int64) (int, error)

	Create(ctx context.Context, img *model.ProductImage) error
	DeleteByID(ctx context.Context, id int64) error
	DeleteByProductID(ctx context.Context, productID int64) error
}
