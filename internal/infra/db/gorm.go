package db

import (
	"fmt"

	"storefront/internal/config"
	"storefront/internal/domain/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// (user, product, variant)ごとに1行。variantなしは0として比較
const cartKeyIndex = `CREATE UNIQUE INDEX IF NOT EXISTS ux_cart_lines_key
ON cart_lines (user_id, product_id, COALESCE(variant_id, 0))`

// DBへ接続して*gorm.DBを返す。
func Connect(cfg config.Config) (*gorm.DB, error) {
	level := logger.Warn
	if cfg.IsDev() {
		level = logger.Info
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return db, nil
}

// スキーマを作成・更新する。親テーブルから先に。
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Category{},
		&model.Product{},
		&model.ProductVariant{},
		&model.ProductImage{},
		&model.CartLine{},
	); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}

	if err := db.Exec(cartKeyIndex).Error; err != nil {
		return fmt.Errorf("cart key index: %w", err)
	}
	return nil
}
