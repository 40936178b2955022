package repository

import (
	"context"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CartGormRepository struct {
	db *gorm.DB
}

// DI
func NewCartGormRepository(db *gorm.DB) *CartGormRepository {
	return &CartGormRepository{db: db}
}

// ユーザーのカート行をproductとvariant込みで返す。
func (r *CartGormRepository) ListByUserID(ctx context.Context, userID int64) ([]model.CartLine, error) {
	var lines []model.CartLine

	if err := r.db.WithContext(ctx).
		Preload("Product").
		Preload("Product.Images", generalImages).
		Preload("Variant").
		Preload("Variant.Images", bySortOrder).
		Where("user_id = ?", userID).
		Order("id asc").
		Find(&lines).Error; err != nil {
		return []model.CartLine{}, err
	}

	return lines, nil
}

func (r *CartGormRepository) FindByID(ctx context.Context, id int64) (model.CartLine, error) {
	var line model.CartLine
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&line).Error; err != nil {
		return model.CartLine{}, mapError(err)
	}
	return line, nil
}

// (user, product, variant)の行をロックし、同時のマージを直列にする。
func (r *CartGormRepository) FindByKey(ctx context.Context, userID int64, productID int64, variantID *int64) (model.CartLine, error) {
	var line model.CartLine

	q := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND product_id = ?", userID, productID)
	if variantID == nil {
		q = q.Where("variant_id IS NULL")
	} else {
		q = q.Where("variant_id = ?", *variantID)
	}

	if err := q.First(&line).Error; err != nil {
		return model.CartLine{}, mapError(err)
	}
	return line, nil
}

func (r *CartGormRepository) Create(ctx context.Context, line *model.CartLine) error {
	return mapError(r.db.WithContext(ctx).Omit(clause.Associations).Create(line).Error)
}

func (r *CartGormRepository) UpdateQuantity(ctx context.Context, id int64, qty int64) error {
	res := r.db.WithContext(ctx).
		Model(&model.CartLine{}).
		Where("id = ?", id).
		Update("quantity", qty)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *CartGormRepository) DeleteByID(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&model.CartLine{}, id)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *CartGormRepository) DeleteByUserID(ctx context.Context, userID int64) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&model.CartLine{}).Error
}

func (r *CartGormRepository) DeleteByProductID(ctx context.Context, productID int64) error {
	return r.db.WithContext(ctx).Where("product_id = ?", productID).Delete(&model.CartLine{}).Error
}

func (r *CartGormRepository) DeleteByVariantID(ctx context.Context, variantID int64) error {
	return r.db.WithContext(ctx).Where("variant_id = ?", variantID).Delete(&model.CartLine{}).Error
}
