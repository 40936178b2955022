package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type ProductVariant struct {
	ID        int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID int64  `gorm:"not null;index" json:"product_id"`
	SKU       string `gorm:"column:sku;type:varchar(100);not null;uniqueIndex" json:"sku"`

	Price decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	// Priceより大きいときだけ意味がある
	OriginalPrice decimal.NullDecimal `gorm:"type:numeric(12,2)" json:"original_price"`
	StockQuantity int64               `gorm:"not null;default:0" json:"stock_quantity"`

	// {"color":"red","size":"M"}
	Attributes datatypes.JSONMap `gorm:"type:jsonb;not null" json:"attributes"`
	IsActive   bool              `gorm:"not null" json:"is_active"`
	CreatedAt  time.Time         `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time         `gorm:"not null;autoUpdateTime" json:"updated_at"`

	Images []ProductImage `gorm:"foreignKey:VariantID;constraint:OnDelete:CASCADE" json:"images,omitempty"`
}

// 属性をstringのmapで返す。
func (v ProductVariant) AttributeMap() map[string]string {
	out := make(map[string]string, len(v.Attributes))
	for k, val := range v.Attributes {
		switch t := val.(type) {
		case string:
			out[k] = t
		case nil:
			out[k] = ""
		default:
			out[k] = fmt.Sprint(t)
		}
	}
	return out
}

// リクエストの属性をjsonbカラムの型に変換する。
func NewAttributes(attrs map[string]string) datatypes.JSONMap {
	m := datatypes.JSONMap{}
	for k, v := range attrs {
		m[k] = v
	}
	return m
}
