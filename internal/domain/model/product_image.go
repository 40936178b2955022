package model

import "time"

type ImageType string

const (
	ImageTypeGeneral ImageType = "general"
	ImageTypeVariant ImageType = "variant"
)

// VariantIDがnilなら商品の一般画像。
type ProductImage struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID int64     `gorm:"not null;index:idx_product_images_product_type,priority:1" json:"product_id"`
	VariantID *int64    `gorm:"column:product_variant_id;index" json:"product_variant_id"`
	Type      ImageType `gorm:"type:varchar(20);not null;default:'general';index:idx_product_images_product_type,priority:2" json:"type"`
	Path      string    `gorm:"column:image_path;type:varchar(512);not null" json:"image_path"`
	AltText   string    `gorm:"type:varchar(255)" json:"alt_text"`
	SortOrder int       `gorm:"not null;default:0" json:"sort_order"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`

	// storageが埋める。DBには保存しない
	URL string `gorm:"-" json:"url"`
}
