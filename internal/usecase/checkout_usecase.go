package usecase

import (
	"context"
	"errors"
	"fmt"

	"shopapi/internal/domain/model"
	repo "shopapi/internal/repository"

	"github.com/shopspring/decimal"
)

// handlerと計測用デコレータが依存する約束
type Checkouter interface {
	Checkout(ctx context.Context, userID int64) (model.Order, error)
}

// カートから注文を作る。
// 検証・注文作成・在庫減算・カート削除を1つのTxで行う
type CheckoutUsecase struct {
	tx repo.TransactionManager
}

var _ Checkouter = (*CheckoutUsecase)(nil)

func NewCheckoutUsecase(tx repo.TransactionManager) *CheckoutUsecase {
	return &CheckoutUsecase{tx: tx}
}

func (u *CheckoutUsecase) Checkout(ctx context.Context, userID int64) (model.Order, error) {
	var out model.Order

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		//product_id順に並んでいるので行ロックの順序が揃う
		lines, err := r.Carts().ListByUserID(ctx, userID)
		if err != nil {
			return fmt.Errorf("list cart: %w", err)
		}
		if len(lines) == 0 {
			return ErrEmptyCart
		}

		//書き込み前に全商品を読む
		products := make([]model.Product, len(lines))
		for i, l := range lines {
			p, err := r.Inventory().Get(ctx, l.ProductID)
			if errors.Is(err, repo.ErrNotFound) {
				return &ProductMissingError{ProductID: l.ProductID}
			}
			if err != nil {
				return fmt.Errorf("load product %d: %w", l.ProductID, err)
			}
			products[i] = p
		}

		total := decimal.Zero
		for i, l := range lines {
			p := products[i]
			if !p.HasStock(l.Quantity) {
				return &InsufficientStockError{
					ProductID:   p.ID,
					ProductName: p.Name,
					Available:   p.Stock,
					Requested:   l.Quantity,
				}
			}
			total = total.Add(p.Price.Mul(decimal.NewFromInt(l.Quantity)))
		}

		order, err := r.Orders().Create(ctx, userID, total)
		if err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		for i, l := range lines {
			p := products[i]
			if _, err := r.OrderLines().Create(ctx, order.ID, l.ProductID, l.Quantity, p.Price); err != nil {
				return fmt.Errorf("add order line: %w", err)
			}

			//減算時にもう一度在庫を判定する（同時チェックアウト対策）
			current, err := r.Inventory().DecrementStock(ctx, l.ProductID, l.Quantity)
			switch {
			case errors.Is(err, repo.ErrInsufficientStock):
				return &InsufficientStockError{
					ProductID:   p.ID,
					ProductName: p.Name,
					Available:   current.Stock,
					Requested:   l.Quantity,
				}
			case errors.Is(err, repo.ErrNotFound):
				return &ProductMissingError{ProductID: l.ProductID}
			case err != nil:
				return fmt.Errorf("decrement stock %d: %w", l.ProductID, err)
			}
		}

		if err := r.Carts().Clear(ctx, userID); err != nil {
			return fmt.Errorf("clear cart: %w", err)
		}

		saved, err := r.OrderLines().ListByOrderID(ctx, order.ID)
		if err != nil {
			return fmt.Errorf("load order lines: %w", err)
		}
		order.Lines = saved
		out = order
		return nil
	})
	if err != nil {
		return model.Order{}, err
	}

	return out, nil
}
