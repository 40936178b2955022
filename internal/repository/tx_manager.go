package repository

import "context"

// 1つのトランザクションに紐づいたrepository群。
type TxRepos interface {
	Products() ProductRepository
	Variants() VariantRepository
	Images() ImageRepository
	Categories() CategoryRepository
	CartLines() CartRepository

	// fnをsavepoint内で実行する。fnが失敗してもsavepointまで戻すだけで、
	// 外側のトランザクションはそのまま使える。
	Savepoint(ctx context.Context, fn func(r TxRepos) error) error
}

// begin/commit/rollbackをusecaseから隠す。
type TransactionManager interface {
	WithinTx(ctx context.Context, fn func(r TxRepos) error) error
}
