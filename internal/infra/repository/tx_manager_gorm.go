package repository

import (
	"context"

	repo "shopapi/internal/repository"

	"gorm.io/gorm"
)

type txReposGorm struct {
	products   repo.ProductRepository
	inventory  repo.InventoryRepository
	carts      repo.CartRepository
	orders     repo.OrderRepository
	orderLines repo.OrderLineRepository
}

func (r *txReposGorm) Products() repo.ProductRepository     { return r.products }
func (r *txReposGorm) Inventory() repo.InventoryRepository  { return r.inventory }
func (r *txReposGorm) Carts() repo.CartRepository           { return r.carts }
func (r *txReposGorm) Orders() repo.OrderRepository         { return r.orders }
func (r *txReposGorm) OrderLines() repo.OrderLineRepository { return r.orderLines }

type TxManagerGorm struct {
	db *gorm.DB
}

func NewTxManagerGorm(db *gorm.DB) *TxManagerGorm {
	return &TxManagerGorm{db: db}
}

func (tm *TxManagerGorm) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return tm.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		//repoはtxを持ったDBで作り直す
		return fn(newTxReposGorm(tx))
	})
}

func newTxReposGorm(db *gorm.DB) *txReposGorm {
	return &txReposGorm{
		products:   NewProductGormRepository(db),
		inventory:  NewInventoryGormRepository(db),
		carts:      NewCartGormRepository(db),
		orders:     NewOrderGormRepository(db),
		orderLines: NewOrderLineGormRepository(db),
	}
}
