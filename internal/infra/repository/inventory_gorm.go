package repository

import (
	"context"

	"shopapi/internal/domain/model"
	repo "shopapi/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type InventoryGormRepository struct {
	db *gorm.DB
}

func NewInventoryGormRepository(db *gorm.DB) *InventoryGormRepository {
	return &InventoryGormRepository{db: db}
}

func (r *InventoryGormRepository) Get(ctx context.Context, productID int64) (model.Product, error) {
	var p model.Product
	if err := r.db.WithContext(ctx).First(&p, productID).Error; err != nil {
		return model.Product{}, translateError(err)
	}
	return p, nil
}

// 在庫が足りるときだけ減らす
// 0件更新なら読み直してNotFoundか在庫不足かを判定する
// 在庫不足のときは読み直した商品も返す
func (r *InventoryGormRepository) DecrementStock(ctx context.Context, productID int64, amount int64) (model.Product, error) {
	if amount <= 0 {
		return model.Product{}, repo.ErrInvalidQuantity
	}

	var updated []model.Product
	res := r.db.WithContext(ctx).
		Model(&updated).
		Clauses(clause.Returning{}).
		Where("id = ? AND stock >= ?", productID, amount).
		Update("stock", gorm.Expr("stock - ?", amount))

	if res.Error != nil {
		return model.Product{}, res.Error
	}
	if res.RowsAffected == 0 || len(updated) == 0 {
		current, err := r.Get(ctx, productID)
		if err != nil {
			return model.Product{}, err
		}
		return current, repo.ErrInsufficientStock
	}
	return updated[0], nil
}
