package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// 商品をvariant・画像ごと作成・更新・削除する。
// 1回の呼び出しが1トランザクション。
type ProductWriteUsecase struct {
	tx         repo.TransactionManager
	categories repo.CategoryRepository
	storage    repo.FileStorage
	validator  ProductValidator
	cache      repo.ListingCache
	logger     *zap.Logger
}

func NewProductWriteUsecase(
	tx repo.TransactionManager,
	categories repo.CategoryRepository,
	storage repo.FileStorage,
	validator ProductValidator,
	cache repo.ListingCache,
	logger *zap.Logger,
) *ProductWriteUsecase {
	return &ProductWriteUsecase{
		tx:         tx,
		categories: categories,
		storage:    storage,
		validator:  validator,
		cache:      cache,
		logger:     logger,
	}
}

// トランザクション中のファイル操作を記録する。
type writeState struct {
	warnings []string
	// トランザクション中に保存したもの。ロールバック時に消す
	stored []string
	// commit後に消すもの
	removals []string
}

func (u *ProductWriteUsecase) Create(ctx context.Context, in ProductInput) (WriteResult, error) {
	if err := u.validator.ValidateCreate(in); err != nil {
		return WriteResult{}, ValidationError(err.Error())
	}
	if err := checkRequestSKUs(in.Variants); err != nil {
		return WriteResult{}, err
	}
	if err := u.requireCategory(ctx, in.CategoryID); err != nil {
		return WriteResult{}, err
	}

	st := &writeState{}
	var res WriteResult

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		s, err := uniqueSlug(ctx, in.Name, "product", func(ctx context.Context, s string) (bool, error) {
			return r.Products().SlugExists(ctx, s, 0)
		})
		if err != nil {
			return err
		}

		p := model.Product{
			Name:        strings.TrimSpace(in.Name),
			Description: in.Description,
			Slug:        s,
			CategoryID:  in.CategoryID,
			IsNew:       in.IsNew,
			IsFeatured:  in.IsFeatured,
			IsActive:    boolOr(in.IsActive, true),
		}
		if err := r.Products().Create(ctx, &p); err != nil {
			return err
		}

		for _, vin := range in.Variants {
			if _, err := u.createVariant(ctx, r, p.ID, vin, st); err != nil {
				return err
			}
		}
		for _, f := range in.Images {
			u.attachImage(ctx, r, p.ID, nil, f, p.Name, st)
		}

		res.ProductID = p.ID
		res.Slug = p.Slug
		return nil
	})
	if err != nil {
		u.removeFiles(ctx, st.stored)
		return WriteResult{}, txError("could not create product", err)
	}

	res.Warnings = st.warnings
	u.invalidateListings(ctx)
	return res, nil
}

func (u *ProductWriteUsecase) Update(ctx context.Context, id int64, in ProductInput) (WriteResult, error) {
	if id <= 0 {
		return WriteResult{}, ValidationError("invalid id")
	}
	if err := u.validator.ValidateUpdate(in); err != nil {
		return WriteResult{}, ValidationError(err.Error())
	}
	if err := checkRequestSKUs(in.Variants); err != nil {
		return WriteResult{}, err
	}
	if err := u.requireCategory(ctx, in.CategoryID); err != nil {
		return WriteResult{}, err
	}

	st := &writeState{}
	var res WriteResult

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		p, err := r.Products().FindByID(ctx, id)
		if errors.Is(err, repo.ErrNotFound) {
			return NotFoundError("product not found")
		}
		if err != nil {
			return err
		}

		name := strings.TrimSpace(in.Name)
		if name != p.Name {
			s, err := uniqueSlug(ctx, name, "product", func(ctx context.Context, s string) (bool, error) {
				return r.Products().SlugExists(ctx, s, p.ID)
			})
			if err != nil {
				return err
			}
			p.Slug = s
		}
		p.Name = name
		p.Description = in.Description
		p.CategoryID = in.CategoryID
		p.IsNew = in.IsNew
		p.IsFeatured = in.IsFeatured
		p.IsActive = boolOr(in.IsActive, p.IsActive)

		if err := r.Products().Update(ctx, p); err != nil {
			return err
		}

		owned := make(map[int64]model.ProductVariant, len(p.Variants))
		for _, v := range p.Variants {
			owned[v.ID] = v
		}

		for _, vin := range in.Variants {
			if vin.ID == nil {
				if _, err := u.createVariant(ctx, r, p.ID, vin, st); err != nil {
					return err
				}
				continue
			}

			cur, ok := owned[*vin.ID]
			if !ok {
				return u.foreignVariantError(ctx, r, *vin.ID, p.ID)
			}
			if vin.Delete {
				if err := u.deleteVariant(ctx, r, cur, st); err != nil {
					return err
				}
				delete(owned, cur.ID)
				continue
			}
			if err := u.updateVariant(ctx, r, cur, vin, st); err != nil {
				return err
			}
		}

		for _, imgID := range in.DeleteImageIDs {
			if err := u.deleteGeneralImage(ctx, r, p.ID, imgID, st); err != nil {
				return err
			}
		}
		for _, f := range in.Images {
			u.attachImage(ctx, r, p.ID, nil, f, p.Name, st)
		}

		res.ProductID = p.ID
		res.Slug = p.Slug
		return nil
	})
	if err != nil {
		u.removeFiles(ctx, st.stored)
		return WriteResult{}, txError("could not update product", err)
	}

	u.removeFiles(ctx, st.removals)
	res.Warnings = st.warnings
	u.invalidateListings(ctx)
	return res, nil
}

// 商品をvariant・画像・参照しているカート行ごと削除する。
// 保存済みファイルはcommit後に消す。
func (u *ProductWriteUsecase) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return ValidationError("invalid id")
	}

	st := &writeState{}
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		p, err := r.Products().FindByID(ctx, id)
		if errors.Is(err, repo.ErrNotFound) {
			return NotFoundError("product not found")
		}
		if err != nil {
			return err
		}

		images, err := r.Images().ListByProductID(ctx, p.ID)
		if err != nil {
			return err
		}
		for _, img := range images {
			st.removals = append(st.removals, img.Path)
		}

		if err := r.CartLines().DeleteByProductID(ctx, p.ID); err != nil {
			return err
		}
		if err := r.Images().DeleteByProductID(ctx, p.ID); err != nil {
			return err
		}
		for _, v := range p.Variants {
			if err := r.Variants().Delete(ctx, v.ID); err != nil {
				return err
			}
		}
		return r.Products().Delete(ctx, p.ID)
	})
	if err != nil {
		return txError("could not delete product", err)
	}

	u.removeFiles(ctx, st.removals)
	u.invalidateListings(ctx)
	return nil
}

func (u *ProductWriteUsecase) requireCategory(ctx context.Context, categoryID int64) error {
	ok, err := u.categories.Exists(ctx, categoryID)
	if err != nil {
		return InternalError(fmt.Errorf("category lookup: %w", err))
	}
	if !ok {
		return ValidationError("category not found")
	}
	return nil
}

func (u *ProductWriteUsecase) createVariant(ctx context.Context, r repo.TxRepos, productID int64, vin VariantInput, st *writeState) (model.ProductVariant, error) {
	sku := strings.TrimSpace(vin.SKU)
	if err := requireFreeSKU(ctx, r, sku, 0); err != nil {
		return model.ProductVariant{}, err
	}

	v := model.ProductVariant{
		ProductID:     productID,
		SKU:           sku,
		Price:         vin.Price,
		OriginalPrice: nullDecimal(vin.OriginalPrice),
		StockQuantity: vin.StockQuantity,
		Attributes:    model.NewAttributes(vin.Attributes),
		IsActive:      boolOr(vin.IsActive, true),
	}
	if err := r.Variants().Create(ctx, &v); err != nil {
		return model.ProductVariant{}, err
	}

	if vin.Image != nil {
		vid := v.ID
		u.attachImage(ctx, r, productID, &vid, *vin.Image, sku, st)
	}
	return v, nil
}

func (u *ProductWriteUsecase) updateVariant(ctx context.Context, r repo.TxRepos, cur model.ProductVariant, vin VariantInput, st *writeState) error {
	sku := strings.TrimSpace(vin.SKU)
	if sku != cur.SKU {
		if err := requireFreeSKU(ctx, r, sku, cur.ID); err != nil {
			return err
		}
	}

	cur.SKU = sku
	cur.Price = vin.Price
	cur.OriginalPrice = nullDecimal(vin.OriginalPrice)
	cur.StockQuantity = vin.StockQuantity
	cur.Attributes = model.NewAttributes(vin.Attributes)
	cur.IsActive = boolOr(vin.IsActive, cur.IsActive)

	if err := r.Variants().Update(ctx, cur); err != nil {
		return err
	}

	if vin.Image == nil {
		return nil
	}

	// 差し替え：古い画像の行を消す。ファイルはcommit後
	old, err := r.Images().ListByVariantID(ctx, cur.ID)
	if err != nil {
		return err
	}
	for _, img := range old {
		if err := r.Images().DeleteByID(ctx, img.ID); err != nil {
			return err
		}
		st.removals = append(st.removals, img.Path)
	}

	vid := cur.ID
	u.attachImage(ctx, r, cur.ProductID, &vid, *vin.Image, sku, st)
	return nil
}

// variantの画像を消してからvariantの行を消す。
// 参照しているカート行も消す。
func (u *ProductWriteUsecase) deleteVariant(ctx context.Context, r repo.TxRepos, v model.ProductVariant, st *writeState) error {
	images, err := r.Images().ListByVariantID(ctx, v.ID)
	if err != nil {
		return err
	}
	for _, img := range images {
		if err := r.Images().DeleteByID(ctx, img.ID); err != nil {
			return err
		}
		st.removals = append(st.removals, img.Path)
	}

	if err := r.CartLines().DeleteByVariantID(ctx, v.ID); err != nil {
		return err
	}
	return r.Variants().Delete(ctx, v.ID)
}

func (u *ProductWriteUsecase) deleteGeneralImage(ctx context.Context, r repo.TxRepos, productID, imageID int64, st *writeState) error {
	img, err := r.Images().FindByID(ctx, imageID)
	if errors.Is(err, repo.ErrNotFound) {
		return NotFoundError(fmt.Sprintf("image %d not found", imageID))
	}
	if err != nil {
		return err
	}
	if img.ProductID != productID || img.VariantID != nil {
		return OwnershipError(fmt.Sprintf("image %d does not belong to product %d", imageID, productID))
	}

	if err := r.Images().DeleteByID(ctx, img.ID); err != nil {
		return err
	}
	st.removals = append(st.removals, img.Path)
	return nil
}

func (u *ProductWriteUsecase) foreignVariantError(ctx context.Context, r repo.TxRepos, variantID, productID int64) error {
	_, err := r.Variants().FindByID(ctx, variantID)
	if errors.Is(err, repo.ErrNotFound) {
		return NotFoundError(fmt.Sprintf("variant %d not found", variantID))
	}
	if err != nil {
		return err
	}
	return OwnershipError(fmt.Sprintf("variant %d does not belong to product %d", variantID, productID))
}

// ファイルを保存し、savepoint内で画像の行を作る。どちらかが失敗したら
// ログに出してwarningとして返す。書き込み全体は続ける。
func (u *ProductWriteUsecase) attachImage(ctx context.Context, r repo.TxRepos, productID int64, variantID *int64, f repo.FileUpload, alt string, st *writeState) {
	dir := fmt.Sprintf("products/%d", productID)
	kind := model.ImageTypeGeneral
	if variantID != nil {
		dir = fmt.Sprintf("products/%d/variants/%d", productID, *variantID)
		kind = model.ImageTypeVariant
	}

	path, err := u.storage.Save(ctx, dir, f)
	if err != nil {
		u.logger.Warn("image store failed",
			zap.Int64("product_id", productID),
			zap.String("filename", f.Filename),
			zap.Error(err),
		)
		st.warnings = append(st.warnings, fmt.Sprintf("image %q could not be stored", f.Filename))
		return
	}

	img := model.ProductImage{
		ProductID: productID,
		VariantID: variantID,
		Type:      kind,
		Path:      path,
		AltText:   alt,
	}
	err = r.Savepoint(ctx, func(sp repo.TxRepos) error {
		if variantID == nil {
			next, err := sp.Images().NextGeneralSortOrder(ctx, productID)
			if err != nil {
				return err
			}
			img.SortOrder = next
		}
		return sp.Images().Create(ctx, &img)
	})
	if err != nil {
		u.logger.Warn("image row insert failed",
			zap.Int64("product_id", productID),
			zap.String("path", path),
			zap.Error(err),
		)
		st.warnings = append(st.warnings, fmt.Sprintf("image %q could not be saved", f.Filename))
		u.removeFiles(ctx, []string{path})
		return
	}

	st.stored = append(st.stored, path)
}

func (u *ProductWriteUsecase) removeFiles(ctx context.Context, paths []string) {
	for _, p := range paths {
		if err := u.storage.Delete(ctx, p); err != nil {
			u.logger.Error("stored file cleanup failed", zap.String("path", p), zap.Error(err))
		}
	}
}

func (u *ProductWriteUsecase) invalidateListings(ctx context.Context) {
	if u.cache == nil {
		return
	}
	if err := u.cache.InvalidateListings(ctx); err != nil {
		u.logger.Warn("listing cache invalidation failed", zap.Error(err))
	}
}

func requireFreeSKU(ctx context.Context, r repo.TxRepos, sku string, excludeID int64) error {
	taken, err := r.Variants().SKUExists(ctx, sku, excludeID)
	if err != nil {
		return err
	}
	if taken {
		return UniquenessError(fmt.Sprintf("sku %q already exists", sku), nil)
	}
	return nil
}

// 同じリクエスト内でskuが重複していたら弾く。
func checkRequestSKUs(variants []VariantInput) error {
	seen := make(map[string]bool, len(variants))
	for _, v := range variants {
		if v.Delete {
			continue
		}
		sku := strings.TrimSpace(v.SKU)
		if seen[sku] {
			return UniquenessError(fmt.Sprintf("sku %q is repeated in the request", sku), nil)
		}
		seen[sku] = true
	}
	return nil
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(*d)
}

func boolOr(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}
