package repository

import (
	"context"

	"storefront/internal/domain/model"
)

type CartRepository interface {
	// ProductとVariant（画像込み）をpreloadする。
	ListByUserID(ctx context.Context, userID int64) ([]model.CartLine, error)
	FindByID(ctx context.Context, id int64) (model.CartLine, error)
	// 該当行をFOR UPDATEでロックする。variantIDがnilならvariantなしの行に一致。
	FindByKey(ctx context.Context, userID int64, productID int64, variantID *int64) (model.CartLine, error)

	Create(ctx context.Context, line *model.CartLine) error
	UpdateQuantity(ctx context.Context, id int64, qty int64) error
	DeleteByID(ctx context.Context, id int64) error
	DeleteByUserID(ctx context.Context, userID int64) error
	DeleteByProductID(ctx context.Context, productID int64) error
	DeleteByVariantID(ctx context.Context, variantID int64) error
}
