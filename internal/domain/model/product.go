package model

import "time"

// 表示用の価格・在庫・SKUは保存せずVariantsから計算する。
type Product struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"type:varchar(255);not null" json:"name"`
	Description string    `gorm:"type:text;not null" json:"description"`
	Slug        string    `gorm:"type:varchar(255);not null;uniqueIndex" json:"slug"`
	CategoryID  int64     `gorm:"not null;index:idx_products_category_active,priority:1" json:"category_id"`
	Category    *Category `gorm:"constraint:OnDelete:CASCADE" json:"category,omitempty"`
	IsNew       bool      `gorm:"not null;default:false" json:"is_new"`
	IsFeatured  bool      `gorm:"not null;default:false;index:idx_products_active_featured,priority:2" json:"is_featured"`
	// default:trueはwrite usecaseで入れる。gormのdefaultだと明示的なfalseが消える。
	IsActive  bool      `gorm:"not null;index:idx_products_active_featured,priority:1;index:idx_products_category_active,priority:2" json:"is_active"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`

	Variants []ProductVariant `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"variants,omitempty"`
	Images   []ProductImage   `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"images,omitempty"`
}
