package repository

import (
	"context"

	"shopapi/internal/domain/model"
)

type CartRepository interface {
	// product_id昇順
	ListByUserID(ctx context.Context, userID int64) ([]model.CartLine, error)
	// 同一商品は数量を加算
	AddOrMerge(ctx context.Context, userID int64, productID int64, qty int64) (model.CartLine, error)
	SetQuantity(ctx context.Context, userID int64, productID int64, qty int64) (model.CartLine, error)
	// 行が存在したかを返す
	Remove(ctx context.Context, userID int64, productID int64) (bool, error)
	// 空でもエラーにしない
	Clear(ctx context.Context, userID int64) error
}
