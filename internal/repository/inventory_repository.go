package repository

import (
	"context"

	"shopapi/internal/domain/model"
)

type InventoryRepository interface {
	// 現在の商品を取得
	Get(ctx context.Context, productID int64) (model.Product, error)

	// 在庫が足りるときだけ減算して更新後の商品を返す
	// 足りない: ErrInsufficientStock / 無い: ErrNotFound
	DecrementStock(ctx context.Context, productID int64, amount int64) (model.Product, error)
}
