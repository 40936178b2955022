package repository

import (
	"context"

	repo "storefront/internal/repository"

	"gorm.io/gorm"
)

type txReposGorm struct {
	db         *gorm.DB
	products   repo.ProductRepository
	variants   repo.VariantRepository
	images     repo.ImageRepository
	categories repo.CategoryRepository
	cartLines  repo.CartRepository
}

func newTxRepos(tx *gorm.DB) *txReposGorm {
	return &txReposGorm{
		db:         tx,
		products:   NewProductGormRepository(tx),
		variants:   NewVariantGormRepository(tx),
		images:     NewImageGormRepository(tx),
		categories: NewCategoryGormRepository(tx),
		cartLines:  NewCartGormRepository(tx),
	}
}

func (r *txReposGorm) Products() repo.ProductRepository    { return r.products }
func (r *txReposGorm) Variants() repo.VariantRepository    { return r.variants }
func (r *txReposGorm) Images() repo.ImageRepository        { return r.images }
func (r *txReposGorm) Categories() repo.CategoryRepository { return r.categories }
func (r *txReposGorm) CartLines() repo.CartRepository      { return r.cartLines }

// gormのネストしたTransactionは SAVEPOINT / ROLLBACK TO になる
func (r *txReposGorm) Savepoint(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(newTxRepos(tx))
	})
}

type TxManagerGorm struct {
	db *gorm.DB
}

func NewTxManagerGorm(db *gorm.DB) *TxManagerGorm {
	return &TxManagerGorm{db: db}
}

func (tm *TxManagerGorm) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return tm.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// tx上でrepositoryを作り直す
		return fn(newTxRepos(tx))
	})
}
