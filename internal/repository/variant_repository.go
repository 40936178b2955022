package repository

import (
	"context"

	"storefront/internal/domain/model"
)

type VariantRepository interface {
	FindByID(ctx context.Context, id int64) (model.ProductVariant, error)
	// excludeIDは更新時に自分自身のskuを除外するため
	SKUExists(ctx context.Context, sku string, excludeID int64) (bool, error)

	Create(ctx context.Context, v *model.ProductVariant) error
	Update(ctx context.Context, v model.ProductVariant) error
	Delete(ctx context.Context, id int64) error
}
