package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// (user, product, variant)ごとに1行。重複は数量を加算してマージ。
type CartLine struct {
	ID        int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64           `gorm:"not null;index" json:"user_id"`
	ProductID int64           `gorm:"not null;index" json:"product_id"`
	VariantID *int64          `gorm:"index" json:"variant_id"`
	Quantity  int64           `gorm:"not null" json:"quantity"`
	Price     decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	CreatedAt time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"not null;autoUpdateTime" json:"updated_at"`

	// 商品やvariantを消すと参照している行も消える
	Product *Product        `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Variant *ProductVariant `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}
