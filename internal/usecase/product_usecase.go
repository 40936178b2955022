package usecase

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"storefront/internal/domain/catalog"
	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	defaultPerPage = 15
	maxPerPage     = 100
	maxSearchLen   = 100
)

var listStatuses = map[repo.ProductStatus]bool{
	repo.StatusAny:        true,
	repo.StatusNew:        true,
	repo.StatusFeatured:   true,
	repo.StatusActive:     true,
	repo.StatusInactive:   true,
	repo.StatusOutOfStock: true,
	repo.StatusLowStock:   true,
}

type ProductUsecase struct {
	products  repo.ProductRepository
	storage   repo.FileStorage
	formatter *catalog.PriceFormatter
	logger    *zap.Logger

	// nilならキャッシュなし
	cache    repo.ListingCache
	cacheTTL time.Duration
}

// DI
func NewProductUsecase(
	products repo.ProductRepository,
	storage repo.FileStorage,
	formatter *catalog.PriceFormatter,
	cache repo.ListingCache,
	cacheTTL time.Duration,
	logger *zap.Logger,
) *ProductUsecase {
	return &ProductUsecase{
		products:  products,
		storage:   storage,
		formatter: formatter,
		cache:     cache,
		cacheTTL:  cacheTTL,
		logger:    logger,
	}
}

// GET /products の入力DTO
type ListProductsInput struct {
	Page          int
	PerPage       int
	Search        string
	CategoryID    *int64
	Status        string
	SortField     string
	SortDirection string
}

// variant集合から読み込み時に計算する値。
type DerivedFields struct {
	Price                  decimal.Decimal     `json:"price"`
	OriginalPrice          *decimal.Decimal    `json:"original_price"`
	MinPrice               *decimal.Decimal    `json:"min_price"`
	MaxPrice               *decimal.Decimal    `json:"max_price"`
	MinOriginalPrice       *decimal.Decimal    `json:"min_original_price"`
	MaxOriginalPrice       *decimal.Decimal    `json:"max_original_price"`
	TotalStock             int64               `json:"total_stock"`
	StockStatus            catalog.StockStatus `json:"stock_status"`
	SKU                    *string             `json:"sku"`
	AllSKUs                []string            `json:"all_skus"`
	DiscountPercentage     *int64              `json:"discount_percentage"`
	VariantsCount          int                 `json:"variants_count"`
	FormattedPrice         string              `json:"formatted_price"`
	FormattedOriginalPrice *string             `json:"formatted_original_price,omitempty"`
}

type ProductSummary struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Slug        string          `json:"slug"`
	Description string          `json:"description"`
	CategoryID  int64           `json:"category_id"`
	Category    *model.Category `json:"category"`
	IsNew       bool            `json:"is_new"`
	IsFeatured  bool            `json:"is_featured"`
	IsActive    bool            `json:"is_active"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`

	DerivedFields

	ImagesCount int                 `json:"images_count"`
	MainImage   *model.ProductImage `json:"main_image"`
}

type PageMeta struct {
	CurrentPage int   `json:"current_page"`
	LastPage    int   `json:"last_page"`
	PerPage     int   `json:"per_page"`
	Total       int64 `json:"total"`
	From        *int  `json:"from"`
	To          *int  `json:"to"`
}

type ProductListOutput struct {
	Success bool               `json:"success"`
	Data    []ProductSummary   `json:"data"`
	Meta    PageMeta           `json:"meta"`
	Summary repo.ProductCounts `json:"summary"`
}

type ProductDetail struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Slug        string          `json:"slug"`
	Description string          `json:"description"`
	CategoryID  int64           `json:"category_id"`
	Category    *model.Category `json:"category"`
	IsNew       bool            `json:"is_new"`
	IsFeatured  bool            `json:"is_featured"`
	IsActive    bool            `json:"is_active"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`

	DerivedFields

	Images   []model.ProductImage   `json:"images"`
	Variants []model.ProductVariant `json:"variants"`
	// 属性名 -> variant間の重複なしの値
	Attributes map[string][]string `json:"attributes"`
}

// 1ページ分の商品（計算済みの値つき）とsummaryを返す。
func (u *ProductUsecase) ListProducts(ctx context.Context, in ListProductsInput) (ProductListOutput, error) {
	q, err := normalizeListInput(in)
	if err != nil {
		return ProductListOutput{}, err
	}

	key, cacheable := u.listKey(ctx, q)
	if cacheable {
		if out, ok := u.cachedList(ctx, key); ok {
			return out, nil
		}
	}

	products, total, err := u.products.List(ctx, q)
	if err != nil {
		return ProductListOutput{}, InternalError(fmt.Errorf("list products: %w", err))
	}
	counts, err := u.products.Counts(ctx)
	if err != nil {
		return ProductListOutput{}, InternalError(fmt.Errorf("count products: %w", err))
	}

	out := ProductListOutput{
		Success: true,
		Data:    make([]ProductSummary, 0, len(products)),
		Meta:    pageMeta(q.Page, q.PerPage, total, len(products)),
		Summary: counts,
	}
	for _, p := range products {
		out.Data = append(out.Data, u.summarize(p))
	}

	if cacheable {
		u.storeList(ctx, key, out)
	}
	return out, nil
}

// 詳細を返す。includeInactiveでなければ非公開の商品は見せない。
func (u *ProductUsecase) GetProduct(ctx context.Context, id int64, includeInactive bool) (ProductDetail, error) {
	if id <= 0 {
		return ProductDetail{}, ValidationError("invalid id")
	}

	p, err := u.products.FindByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return ProductDetail{}, NotFoundError("product not found")
	}
	if err != nil {
		return ProductDetail{}, InternalError(fmt.Errorf("find product %d: %w", id, err))
	}
	if !p.IsActive && !includeInactive {
		return ProductDetail{}, NotFoundError("product not found")
	}

	variants := catalog.SortVariants(p.Variants)
	for i := range variants {
		u.withURLs(variants[i].Images)
	}
	images := p.Images
	u.withURLs(images)

	return ProductDetail{
		ID:            p.ID,
		Name:          p.Name,
		Slug:          p.Slug,
		Description:   p.Description,
		CategoryID:    p.CategoryID,
		Category:      p.Category,
		IsNew:         p.IsNew,
		IsFeatured:    p.IsFeatured,
		IsActive:      p.IsActive,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
		DerivedFields: u.derive(variants),
		Images:        nonNilImages(images),
		Variants:      variants,
		Attributes:    catalog.GroupAttributes(variants),
	}, nil
}

func (u *ProductUsecase) summarize(p model.Product) ProductSummary {
	u.withURLs(p.Images)

	var main *model.ProductImage
	if len(p.Images) > 0 {
		img := p.Images[0]
		main = &img
	}

	return ProductSummary{
		ID:            p.ID,
		Name:          p.Name,
		Slug:          p.Slug,
		Description:   p.Description,
		CategoryID:    p.CategoryID,
		Category:      p.Category,
		IsNew:         p.IsNew,
		IsFeatured:    p.IsFeatured,
		IsActive:      p.IsActive,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
		DerivedFields: u.derive(p.Variants),
		ImagesCount:   len(p.Images),
		MainImage:     main,
	}
}

func (u *ProductUsecase) derive(variants []model.ProductVariant) DerivedFields {
	agg := catalog.Summarize(variants)
	return DerivedFields{
		Price:                  agg.Price,
		OriginalPrice:          agg.OriginalPrice,
		MinPrice:               agg.MinPrice,
		MaxPrice:               agg.MaxPrice,
		MinOriginalPrice:       agg.MinOriginalPrice,
		MaxOriginalPrice:       agg.MaxOriginalPrice,
		TotalStock:             agg.TotalStock,
		StockStatus:            agg.StockStatus,
		SKU:                    agg.SKU,
		AllSKUs:                agg.AllSKUs,
		DiscountPercentage:     agg.DiscountPercentage,
		VariantsCount:          agg.VariantsCount,
		FormattedPrice:         u.formatter.FormatAggregate(agg),
		FormattedOriginalPrice: u.formatter.FormatOriginal(agg),
	}
}

func (u *ProductUsecase) withURLs(images []model.ProductImage) {
	for i := range images {
		images[i].URL = u.storage.URL(images[i].Path)
	}
}

// DBを引く前に呼ぶこと。
func (u *ProductUsecase) listKey(ctx context.Context, q repo.ProductListQuery) (string, bool) {
	if u.cache == nil {
		return "", false
	}
	gen, err := u.cache.Generation(ctx)
	if err != nil {
		u.logger.Warn("listing cache generation failed", zap.Error(err))
		return "", false
	}
	return fmt.Sprintf("%d:%s", gen, listCacheKey(q)), true
}

func (u *ProductUsecase) cachedList(ctx context.Context, key string) (ProductListOutput, bool) {
	b, ok, err := u.cache.Get(ctx, key)
	if err != nil {
		u.logger.Warn("listing cache get failed", zap.String("key", key), zap.Error(err))
		return ProductListOutput{}, false
	}
	if !ok {
		return ProductListOutput{}, false
	}

	var out ProductListOutput
	if err := json.Unmarshal(b, &out); err != nil {
		u.logger.Warn("listing cache entry unreadable", zap.String("key", key), zap.Error(err))
		return ProductListOutput{}, false
	}
	return out, true
}

func (u *ProductUsecase) storeList(ctx context.Context, key string, out ProductListOutput) {
	b, err := json.Marshal(out)
	if err != nil {
		u.logger.Warn("listing cache encode failed", zap.Error(err))
		return
	}
	if err := u.cache.Set(ctx, key, b, u.cacheTTL); err != nil {
		u.logger.Warn("listing cache set failed", zap.String("key", key), zap.Error(err))
	}
}

func normalizeListInput(in ListProductsInput) (repo.ProductListQuery, error) {
	if in.Page < 0 {
		return repo.ProductListQuery{}, ValidationError("invalid page")
	}
	if in.Page == 0 {
		in.Page = 1
	}
	if in.PerPage < 0 || in.PerPage > maxPerPage {
		return repo.ProductListQuery{}, ValidationError("invalid per_page")
	}
	if in.PerPage == 0 {
		in.PerPage = defaultPerPage
	}

	search := strings.TrimSpace(in.Search)
	if utf8.RuneCountInString(search) > maxSearchLen {
		return repo.ProductListQuery{}, ValidationError("search is too long")
	}

	status := repo.ProductStatus(strings.ToLower(strings.TrimSpace(in.Status)))
	if !listStatuses[status] {
		return repo.ProductListQuery{}, ValidationError("invalid status")
	}

	if in.CategoryID != nil && *in.CategoryID <= 0 {
		return repo.ProductListQuery{}, ValidationError("invalid category_id")
	}

	dir := "desc"
	if strings.EqualFold(in.SortDirection, "asc") {
		dir = "asc"
	}

	return repo.ProductListQuery{
		Page:          in.Page,
		PerPage:       in.PerPage,
		Search:        search,
		CategoryID:    in.CategoryID,
		Status:        status,
		SortField:     strings.ToLower(strings.TrimSpace(in.SortField)),
		SortDirection: dir,
	}, nil
}

func pageMeta(page, perPage int, total int64, count int) PageMeta {
	last := int((total + int64(perPage) - 1) / int64(perPage))
	if last < 1 {
		last = 1
	}

	meta := PageMeta{
		CurrentPage: page,
		LastPage:    last,
		PerPage:     perPage,
		Total:       total,
	}
	if count > 0 {
		from := (page-1)*perPage + 1
		to := from + count - 1
		meta.From = &from
		meta.To = &to
	}
	return meta
}

func listCacheKey(q repo.ProductListQuery) string {
	var category int64
	if q.CategoryID != nil {
		category = *q.CategoryID
	}
	raw := fmt.Sprintf("%d|%d|%s|%d|%s|%s|%s",
		q.Page, q.PerPage, q.Search, category, q.Status, q.SortField, q.SortDirection)
	sum := md5.Sum([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func nonNilImages(images []model.ProductImage) []model.ProductImage {
	if images == nil {
		return []model.ProductImage{}
	}
	return images
}
