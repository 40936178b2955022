package usecase

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/domain/catalog"
	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"github.com/shopspring/decimal"
)

// 1行あたりの数量上限（マージ後も）
const maxCartQuantity int64 = 10000

// /cart のロジック。user idは必ずtransport層から明示的に渡す。
type CartUsecase struct {
	tx        repo.TransactionManager
	cartLines repo.CartRepository
	storage   repo.FileStorage
	formatter *catalog.PriceFormatter
}

func NewCartUsecase(
	tx repo.TransactionManager,
	cartLines repo.CartRepository,
	storage repo.FileStorage,
	formatter *catalog.PriceFormatter,
) *CartUsecase {
	return &CartUsecase{
		tx:        tx,
		cartLines: cartLines,
		storage:   storage,
		formatter: formatter,
	}
}

// priceは追加時点の価格のスナップショット
type CartLineOutput struct {
	ID          int64             `json:"id"`
	ProductID   int64             `json:"product_id"`
	VariantID   *int64            `json:"variant_id"`
	ProductName string            `json:"product_name"`
	ProductSlug string            `json:"product_slug"`
	SKU         *string           `json:"sku"`
	Attributes  map[string]string `json:"attributes"`
	Image       *string           `json:"image"`
	Price       decimal.Decimal   `json:"price"`
	Quantity    int64             `json:"quantity"`
	LineTotal   decimal.Decimal   `json:"line_total"`
	// 商品やvariantが無効化されたらfalse
	Available bool `json:"available"`
}

type CartOutput struct {
	Items          []CartLineOutput `json:"items"`
	TotalQuantity  int64            `json:"total_quantity"`
	Total          decimal.Decimal  `json:"total"`
	FormattedTotal string           `json:"formatted_total"`
}

type AddCartInput struct {
	ProductID int64
	VariantID *int64
	Quantity  int64
}

// クライアント側で持っていたカート1行。
type SyncItem struct {
	ProductID int64
	VariantID *int64
	Quantity  int64
	Price     decimal.Decimal
}

func (u *CartUsecase) GetCart(ctx context.Context, userID int64) (CartOutput, error) {
	if userID <= 0 {
		return CartOutput{}, UnauthorizedError()
	}

	lines, err := u.cartLines.ListByUserID(ctx, userID)
	if err != nil {
		return CartOutput{}, InternalError(fmt.Errorf("list cart: %w", err))
	}

	out := CartOutput{Items: make([]CartLineOutput, 0, len(lines)), Total: decimal.Zero}
	for _, l := range lines {
		item := u.lineOutput(l)
		out.Items = append(out.Items, item)
		out.TotalQuantity += l.Quantity
		out.Total = out.Total.Add(item.LineTotal)
	}
	out.FormattedTotal = u.formatter.Format(out.Total)
	return out, nil
}

// 1行をカートにマージする。価格はvariantの価格、
// variant指定がなければ商品の表示価格を保存する。
func (u *CartUsecase) AddToCart(ctx context.Context, userID int64, in AddCartInput) (CartOutput, error) {
	if userID <= 0 {
		return CartOutput{}, UnauthorizedError()
	}
	if in.ProductID <= 0 {
		return CartOutput{}, ValidationError("invalid product_id")
	}
	if in.VariantID != nil && *in.VariantID <= 0 {
		return CartOutput{}, ValidationError("invalid variant_id")
	}
	if in.Quantity < 1 || in.Quantity > maxCartQuantity {
		return CartOutput{}, ValidationError("invalid quantity")
	}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		p, err := r.Products().FindByID(ctx, in.ProductID)
		if errors.Is(err, repo.ErrNotFound) {
			return NotFoundError("product not found")
		}
		if err != nil {
			return err
		}
		if !p.IsActive {
			return ValidationError("product is not available")
		}

		price := catalog.Summarize(p.Variants).Price
		if in.VariantID != nil {
			v, ok := findVariant(p.Variants, *in.VariantID)
			if !ok {
				return ValidationError("variant does not belong to product")
			}
			if !v.IsActive {
				return ValidationError("variant is not available")
			}
			price = v.Price
		}

		return mergeLine(ctx, r, userID, in.ProductID, in.VariantID, in.Quantity, price)
	})
	if err != nil {
		return CartOutput{}, txError("could not add to cart", err)
	}

	return u.GetCart(ctx, userID)
}

func (u *CartUsecase) UpdateCartItem(ctx context.Context, userID, lineID, qty int64) (CartOutput, error) {
	if userID <= 0 {
		return CartOutput{}, UnauthorizedError()
	}
	if lineID <= 0 {
		return CartOutput{}, ValidationError("invalid id")
	}
	if qty < 1 || qty > maxCartQuantity {
		return CartOutput{}, ValidationError("invalid quantity")
	}

	if _, err := u.ownedLine(ctx, userID, lineID); err != nil {
		return CartOutput{}, err
	}
	if err := u.cartLines.UpdateQuantity(ctx, lineID, qty); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return CartOutput{}, NotFoundError("cart item not found")
		}
		return CartOutput{}, InternalError(fmt.Errorf("update cart line: %w", err))
	}

	return u.GetCart(ctx, userID)
}

func (u *CartUsecase) DeleteCartItem(ctx context.Context, userID, lineID int64) (CartOutput, error) {
	if userID <= 0 {
		return CartOutput{}, UnauthorizedError()
	}
	if lineID <= 0 {
		return CartOutput{}, ValidationError("invalid id")
	}

	if _, err := u.ownedLine(ctx, userID, lineID); err != nil {
		return CartOutput{}, err
	}
	if err := u.cartLines.DeleteByID(ctx, lineID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return CartOutput{}, NotFoundError("cart item not found")
		}
		return CartOutput{}, InternalError(fmt.Errorf("delete cart line: %w", err))
	}

	return u.GetCart(ctx, userID)
}

func (u *CartUsecase) ClearCart(ctx context.Context, userID int64) (CartOutput, error) {
	if userID <= 0 {
		return CartOutput{}, UnauthorizedError()
	}
	if err := u.cartLines.DeleteByUserID(ctx, userID); err != nil {
		return CartOutput{}, InternalError(fmt.Errorf("clear cart: %w", err))
	}
	return u.GetCart(ctx, userID)
}

// クライアント側のカートを1トランザクションでサーバー側にマージする。
// (product, variant)が同じ行は数量を加算し、新しい行はクライアントの価格を使う。
//
// 加算なので、同じbatchを2回送ると数量は2倍になる。
// ローカルの行はログイン直後などに1回だけ送ること。
func (u *CartUsecase) SyncCart(ctx context.Context, userID int64, items []SyncItem) (CartOutput, error) {
	if userID <= 0 {
		return CartOutput{}, UnauthorizedError()
	}
	for i, it := range items {
		switch {
		case it.ProductID <= 0:
			return CartOutput{}, ValidationError(fmt.Sprintf("items[%d]: invalid product_id", i))
		case it.VariantID != nil && *it.VariantID <= 0:
			return CartOutput{}, ValidationError(fmt.Sprintf("items[%d]: invalid variant_id", i))
		case it.Quantity < 1:
			return CartOutput{}, ValidationError(fmt.Sprintf("items[%d]: quantity must be at least 1", i))
		case it.Quantity > maxCartQuantity:
			return CartOutput{}, ValidationError(fmt.Sprintf("items[%d]: quantity must be at most %d", i, maxCartQuantity))
		case it.Price.IsNegative():
			return CartOutput{}, ValidationError(fmt.Sprintf("items[%d]: price must not be negative", i))
		}
	}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		for i, it := range items {
			if err := checkSyncTarget(ctx, r, i, it); err != nil {
				return err
			}
			if err := mergeLine(ctx, r, userID, it.ProductID, it.VariantID, it.Quantity, it.Price); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return CartOutput{}, txError("could not sync cart", err)
	}

	return u.GetCart(ctx, userID)
}

func (u *CartUsecase) ownedLine(ctx context.Context, userID, lineID int64) (model.CartLine, error) {
	line, err := u.cartLines.FindByID(ctx, lineID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.CartLine{}, NotFoundError("cart item not found")
	}
	if err != nil {
		return model.CartLine{}, InternalError(fmt.Errorf("find cart line: %w", err))
	}
	// 他人の行は存在しない扱い
	if line.UserID != userID {
		return model.CartLine{}, NotFoundError("cart item not found")
	}
	return line, nil
}

func (u *CartUsecase) lineOutput(l model.CartLine) CartLineOutput {
	out := CartLineOutput{
		ID:         l.ID,
		ProductID:  l.ProductID,
		VariantID:  l.VariantID,
		Attributes: map[string]string{},
		Price:      l.Price,
		Quantity:   l.Quantity,
		LineTotal:  l.Price.Mul(decimal.NewFromInt(l.Quantity)),
		Available:  l.Product != nil && l.Product.IsActive,
	}

	if l.Product != nil {
		out.ProductName = l.Product.Name
		out.ProductSlug = l.Product.Slug
		if len(l.Product.Images) > 0 {
			out.Image = u.url(l.Product.Images[0].Path)
		}
	}
	if l.Variant != nil {
		sku := l.Variant.SKU
		out.SKU = &sku
		out.Attributes = l.Variant.AttributeMap()
		out.Available = out.Available && l.Variant.IsActive
		// variantの画像があれば商品のメイン画像より優先
		if len(l.Variant.Images) > 0 {
			out.Image = u.url(l.Variant.Images[0].Path)
		}
	}
	return out
}

func (u *CartUsecase) url(path string) *string {
	s := u.storage.URL(path)
	return &s
}

// (user, product, variant)の行にqtyを足す。なければ作る。
func mergeLine(ctx context.Context, r repo.TxRepos, userID, productID int64, variantID *int64, qty int64, price decimal.Decimal) error {
	line, err := r.CartLines().FindByKey(ctx, userID, productID, variantID)
	if errors.Is(err, repo.ErrNotFound) {
		return r.CartLines().Create(ctx, &model.CartLine{
			UserID:    userID,
			ProductID: productID,
			VariantID: variantID,
			Quantity:  qty,
			Price:     price,
		})
	}
	if err != nil {
		return err
	}
	if line.Quantity > maxCartQuantity-qty {
		return ValidationError(fmt.Sprintf("quantity must be at most %d per item", maxCartQuantity))
	}
	return r.CartLines().UpdateQuantity(ctx, line.ID, line.Quantity+qty)
}

func checkSyncTarget(ctx context.Context, r repo.TxRepos, i int, it SyncItem) error {
	p, err := r.Products().FindByID(ctx, it.ProductID)
	if errors.Is(err, repo.ErrNotFound) {
		return ValidationError(fmt.Sprintf("items[%d]: product not found", i))
	}
	if err != nil {
		return err
	}
	if it.VariantID != nil {
		if _, ok := findVariant(p.Variants, *it.VariantID); !ok {
			return ValidationError(fmt.Sprintf("items[%d]: variant does not belong to product", i))
		}
	}
	return nil
}

func findVariant(variants []model.ProductVariant, id int64) (model.ProductVariant, bool) {
	for _, v := range variants {
		if v.ID == id {
			return v, true
		}
	}
	return model.ProductVariant{}, false
}
