package usecase

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"go.uber.org/zap"
)

type CategoryUsecase struct {
	categories repo.CategoryRepository
	cache      repo.ListingCache
	logger     *zap.Logger
}

func NewCategoryUsecase(categories repo.CategoryRepository, cache repo.ListingCache, logger *zap.Logger) *CategoryUsecase {
	return &CategoryUsecase{categories: categories, cache: cache, logger: logger}
}

func (u *CategoryUsecase) List(ctx context.Context) ([]model.Category, error) {
	cs, err := u.categories.List(ctx)
	if err != nil {
		return nil, InternalError(fmt.Errorf("list categories: %w", err))
	}
	return cs, nil
}

func (u *CategoryUsecase) Create(ctx context.Context, name string) (model.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Category{}, ValidationError("name: required")
	}
	if utf8.RuneCountInString(name) > 255 {
		return model.Category{}, ValidationError("name: at most 255 characters")
	}

	s, err := uniqueSlug(ctx, name, "category", u.categories.SlugExists)
	if err != nil {
		if _, ok := AsAppError(err); ok {
			return model.Category{}, err
		}
		return model.Category{}, InternalError(fmt.Errorf("category slug: %w", err))
	}

	c := model.Category{Name: name, Slug: s}
	if err := u.categories.Create(ctx, &c); err != nil {
		return model.Category{}, txError("could not create category", err)
	}

	if u.cache != nil {
		if err := u.cache.InvalidateListings(ctx); err != nil {
			u.logger.Warn("listing cache invalidation failed", zap.Error(err))
		}
	}
	return c, nil
}
