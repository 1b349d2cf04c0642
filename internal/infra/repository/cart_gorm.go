package repository

import (
	"context"
	"time"

	"shopapi/internal/domain/model"
	repo "shopapi/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CartGormRepository struct {
	db *gorm.DB
}

// DI
func NewCartGormRepository(db *gorm.DB) *CartGormRepository {
	return &CartGormRepository{db: db}
}

// ユーザーのカート行を一覧取得
func (r *CartGormRepository) ListByUserID(ctx context.Context, userID int64) ([]model.CartLine, error) {
	var lines []model.CartLine

	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("product_id asc").
		Find(&lines).Error; err != nil {
		return []model.CartLine{}, err
	}

	return lines, nil
}

// 同一商品は数量加算
// ON CONFLICTで加算するので同時に追加しても取りこぼさない
func (r *CartGormRepository) AddOrMerge(ctx context.Context, userID int64, productID int64, qty int64) (model.CartLine, error) {
	if qty <= 0 {
		return model.CartLine{}, repo.ErrInvalidQuantity
	}

	now := time.Now()
	line := model.CartLine{
		UserID:    userID,
		ProductID: productID,
		Quantity:  qty,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"quantity":   gorm.Expr("cart.quantity + EXCLUDED.quantity"),
				"updated_at": now,
			}),
		}).
		Create(&line).Error
	if err != nil {
		return model.CartLine{}, translateError(err)
	}

	return r.find(ctx, userID, productID)
}

// 数量を置き換える
func (r *CartGormRepository) SetQuantity(ctx context.Context, userID int64, productID int64, qty int64) (model.CartLine, error) {
	if qty <= 0 {
		return model.CartLine{}, repo.ErrInvalidQuantity
	}

	res := r.db.WithContext(ctx).
		Model(&model.CartLine{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Update("quantity", qty)

	if res.Error != nil {
		return model.CartLine{}, res.Error
	}
	if res.RowsAffected == 0 {
		return model.CartLine{}, repo.ErrNotFound
	}
	return r.find(ctx, userID, productID)
}

// 行を削除。存在したらtrue
func (r *CartGormRepository) Remove(ctx context.Context, userID int64, productID int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&model.CartLine{})

	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ユーザーのカートを全削除
func (r *CartGormRepository) Clear(ctx context.Context, userID int64) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&model.CartLine{}).Error
}

func (r *CartGormRepository) find(ctx context.Context, userID int64, productID int64) (model.CartLine, error) {
	var line model.CartLine
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		First(&line).Error
	if err != nil {
		return model.CartLine{}, translateError(err)
	}
	return line, nil
}
