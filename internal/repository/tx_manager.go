package repository

import "context"

// トランザクション内で使う約束
type TxRepos interface {
	Products() ProductRepository
	Inventory() InventoryRepository
	Carts() CartRepository
	Orders() OrderRepository
	OrderLines() OrderLineRepository
}

// UsecaseからTxの開始/commit/rollbackを隠す。
// fnがエラーを返したら全ての書き込みを戻す
type TransactionManager interface {
	WithinTx(ctx context.Context, fn func(r TxRepos) error) error
}
