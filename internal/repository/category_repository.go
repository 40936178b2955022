package repository

import (
	"context"

	"storefront/internal/domain/model"
)

type CategoryRepository interface {
	List(ctx context.Context) ([]model.Category, error)
	Exists(ctx context.Context, id int64) (bool, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	Create(ctx context.Context, c *model.Category) error
}
