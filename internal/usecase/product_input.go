package usecase

import (
	repo "storefront/internal/repository"

	"github.com/shopspring/decimal"
)

// 商品書き込みのvariant1件。updateではIDありならそのvariantを更新
// （Deleteなら削除）し、IDなしなら新規作成する。
type VariantInput struct {
	ID            *int64
	Delete        bool
	SKU           string
	Price         decimal.Decimal
	OriginalPrice *decimal.Decimal
	StockQuantity int64
	Attributes    map[string]string
	IsActive      *bool
	Image         *repo.FileUpload
}

// createとupdateの入力。
type ProductInput struct {
	Name        string
	Description string
	CategoryID  int64
	IsNew       bool
	IsFeatured  bool
	// nilならupdateでは現状維持、createではtrue
	IsActive *bool

	Variants []VariantInput

	// 一般画像。既存の後ろに追加する
	Images []repo.FileUpload
	// 削除する一般画像（updateのみ）
	DeleteImageIDs []int64
}

// 保存前に書き込みリクエストを検証する。
type ProductValidator interface {
	ValidateCreate(in ProductInput) error
	ValidateUpdate(in ProductInput) error
}

// createとupdateの結果。Warningsには保存できなかった画像が入る。
// それ以外の書き込みは反映済み。
type WriteResult struct {
	ProductID int64    `json:"product_id"`
	Slug      string   `json:"slug"`
	Warnings  []string `json:"warnings,omitempty"`
}
