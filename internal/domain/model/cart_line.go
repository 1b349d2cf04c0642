package model

import "time"

// カートの1行。(user_id, product_id) で1行だけ
type CartLine struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64     `gorm:"not null;uniqueIndex:ux_cart_user_product" json:"user_id"`
	ProductID int64     `gorm:"not null;uniqueIndex:ux_cart_user_product;index" json:"product_id"`
	Quantity  int64     `gorm:"not null;check:quantity > 0" json:"quantity"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (CartLine) TableName() string { return "cart" }
