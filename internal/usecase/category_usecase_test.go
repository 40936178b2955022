package usecase_test

import (
	"context"
	"testing"

	"storefront/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCategoryUsecase_Create(t *testing.T) {
	store := newMemStore()
	cache := &fakeCache{}
	uc := usecase.NewCategoryUsecase(memCategories{store}, cache, zap.NewNop())
	ctx := context.Background()

	c, err := uc.Create(ctx, "  Summer Wear ")
	require.NoError(t, err)
	assert.Equal(t, "Summer Wear", c.Name)
	assert.Equal(t, "summer-wear", c.Slug)

	c2, err := uc.Create(ctx, "Summer wear")
	require.NoError(t, err)
	assert.Equal(t, "summer-wear-2", c2.Slug)
	assert.Equal(t, 2, cache.invalidations)

	_, err = uc.Create(ctx, " ")
	assertKind(t, err, usecase.KindValidation)

	list, err := uc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}
