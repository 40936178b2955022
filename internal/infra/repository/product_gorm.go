package repository

import (
	"context"
	"strings"

	"storefront/internal/domain/catalog"
	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// 商品ごとのvariant在庫合計。variantなしは0
const variantStockExpr = "(SELECT COALESCE(SUM(pv.stock_quantity), 0) FROM product_variants pv WHERE pv.product_id = products.id)"

var sortableColumns = map[string]bool{
	"name":       true,
	"created_at": true,
	"updated_at": true,
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

type ProductGormRepository struct {
	db *gorm.DB
}

// DI
func NewProductGormRepository(db *gorm.DB) *ProductGormRepository {
	return &ProductGormRepository{db: db}
}

// 検索・カテゴリ・status・並び順・ページングを適用する。
func (r *ProductGormRepository) List(ctx context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	var products []model.Product
	var total int64

	base := applyListFilters(r.db.WithContext(ctx).Model(&model.Product{}), q)

	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return []model.Product{}, 0, err
	}

	offset := (q.Page - 1) * q.PerPage
	err := applyListOrder(base.Session(&gorm.Session{}), q).
		Preload("Category").
		Preload("Variants", orderByID).
		Preload("Images", generalImages).
		Offset(offset).
		Limit(q.PerPage).
		Find(&products).Error
	if err != nil {
		return []model.Product{}, 0, err
	}

	return products, total, nil
}

func applyListFilters(tx *gorm.DB, q repo.ProductListQuery) *gorm.DB {
	if s := strings.TrimSpace(q.Search); s != "" {
		like := "%" + likeEscaper.Replace(s) + "%"
		tx = tx.Where("(products.name ILIKE ? OR products.description ILIKE ? OR products.slug ILIKE ?)", like, like, like)
	}

	if q.CategoryID != nil {
		tx = tx.Where("products.category_id = ?", *q.CategoryID)
	}

	switch q.Status {
	case repo.StatusNew:
		tx = tx.Where("products.is_new = ?", true)
	case repo.StatusFeatured:
		tx = tx.Where("products.is_featured = ?", true)
	case repo.StatusInactive:
		tx = tx.Where("products.is_active = ?", false)
	case repo.StatusOutOfStock:
		tx = tx.Where(variantStockExpr + " <= 0")
	case repo.StatusLowStock:
		tx = tx.Where(variantStockExpr+" > 0 AND "+variantStockExpr+" < ?", catalog.LowStockThreshold)
	}

	// status=inactive以外は公開中のみ
	if q.Status != repo.StatusInactive {
		tx = tx.Where("products.is_active = ?", true)
	}
	return tx
}

func applyListOrder(tx *gorm.DB, q repo.ProductListQuery) *gorm.DB {
	field := q.SortField
	desc := !strings.EqualFold(q.SortDirection, "asc")
	if !sortableColumns[field] {
		field = "created_at"
		desc = true
	}

	return tx.
		Order(clause.OrderByColumn{Column: clause.Column{Table: "products", Name: field}, Desc: desc}).
		Order(clause.OrderByColumn{Column: clause.Column{Table: "products", Name: "id"}, Desc: desc})
}

func orderByID(db *gorm.DB) *gorm.DB {
	return db.Order("id asc")
}

func bySortOrder(db *gorm.DB) *gorm.DB {
	return db.Order("sort_order asc").Order("id asc")
}

func generalImages(db *gorm.DB) *gorm.DB {
	return bySortOrder(db.Where("product_variant_id IS NULL"))
}

// 公開中の商品についてsummaryを集計する。
func (r *ProductGormRepository) Counts(ctx context.Context) (repo.ProductCounts, error) {
	var c repo.ProductCounts

	active := func() *gorm.DB {
		return r.db.WithContext(ctx).Model(&model.Product{}).Where("products.is_active = ?", true)
	}

	if err := active().Count(&c.TotalProducts).Error; err != nil {
		return repo.ProductCounts{}, err
	}
	if err := active().Where(variantStockExpr + " <= 0").Count(&c.OutOfStock).Error; err != nil {
		return repo.ProductCounts{}, err
	}
	if err := active().
		Where(variantStockExpr+" > 0 AND "+variantStockExpr+" < ?", catalog.LowStockThreshold).
		Count(&c.LowStock).Error; err != nil {
		return repo.ProductCounts{}, err
	}
	if err := active().Where("products.is_featured = ?", true).Count(&c.FeaturedProducts).Error; err != nil {
		return repo.ProductCounts{}, err
	}
	if err := active().Where("products.is_new = ?", true).Count(&c.NewProducts).Error; err != nil {
		return repo.ProductCounts{}, err
	}

	return c, nil
}

// variantsと画像込みで商品を読む。
func (r *ProductGormRepository) FindByID(ctx context.Context, id int64) (model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).
		Preload("Category").
		Preload("Images", generalImages).
		Preload("Variants", orderByID).
		Preload("Variants.Images", bySortOrder).
		First(&p, id).Error
	if err != nil {
		return model.Product{}, mapError(err)
	}
	return p, nil
}

func (r *ProductGormRepository) SlugExists(ctx context.Context, slug string, excludeID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("slug = ? AND id <> ?", slug, excludeID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// 商品の行だけ作る。variantと画像は別に作る。
func (r *ProductGormRepository) Create(ctx context.Context, p *model.Product) error {
	return mapError(r.db.WithContext(ctx).Omit(clause.Associations).Create(p).Error)
}

// 編集可能なカラムを更新する。
func (r *ProductGormRepository) Update(ctx context.Context, p model.Product) error {
	res := r.db.WithContext(ctx).Model(&model.Product{}).Where("id = ?", p.ID).Updates(map[string]interface{}{
		"name":        p.Name,
		"description": p.Description,
		"slug":        p.Slug,
		"category_id": p.CategoryID,
		"is_new":      p.IsNew,
		"is_featured": p.IsFeatured,
		"is_active":   p.IsActive,
	})
	if res.Error != nil {
		return mapError(res.Error)
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 商品を削除する。variantと画像は外部キーでcascade。
func (r *ProductGormRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&model.Product{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
