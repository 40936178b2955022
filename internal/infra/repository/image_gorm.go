package repository

import (
	"context"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"gorm.io/gorm"
)

type ImageGormRepository struct {
	db *gorm.DB
}

func NewImageGormRepository(db *gorm.DB) *ImageGormRepository {
	return &ImageGormRepository{db: db}
}

func (r *ImageGormRepository) FindByID(ctx context.Context, id int64) (model.ProductImage, error) {
	var img model.ProductImage
	if err := r.db.WithContext(ctx).First(&img, id).Error; err != nil {
		return model.ProductImage{}, mapError(err)
	}
	return img, nil
}

// 商品の全画像（一般＋variant）
func (r *ImageGormRepository) ListByProductID(ctx context.Context, productID int64) ([]model.ProductImage, error) {
	var images []model.ProductImage
	if err := bySortOrder(r.db.WithContext(ctx).Where("product_id = ?", productID)).Find(&images).Error; err != nil {
		return []model.ProductImage{}, err
	}
	return images, nil
}

func (r *ImageGormRepository) ListByVariantID(ctx context.Context, variantID int64) ([]model.ProductImage, error) {
	var images []model.ProductImage
	if err := bySortOrder(r.db.WithContext(ctx).Where("product_variant_id = ?", variantID)).Find(&images).Error; err != nil {
		return []model.ProductImage{}, err
	}
	return images, nil
}

func (r *ImageGormRepository) NextGeneralSortOrder(ctx context.Context, productID int64) (int, error) {
	var next int
	err := r.db.WithContext(ctx).
		Model(&model.ProductImage{}).
		Where("product_id = ? AND product_variant_id IS NULL", productID).
		Select("COALESCE(MAX(sort_order) + 1, 0)").
		Scan(&next).Error
	if err != nil {
		return 0, err
	}
	return next, nil
}

func (r *ImageGormRepository) Create(ctx context.Context, img *model.ProductImage) error {
	return mapError(r.db.WithContext(ctx).Create(img).Error)
}

func (r *ImageGormRepository) DeleteByID(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&model.ProductImage{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *ImageGormRepository) DeleteByProductID(ctx context.Context, productID int64) error {
	return r.db.WithContext(ctx).Where("product_id = ?", productID).Delete(&model.ProductImage{}).Error
}
