package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPaid, OrderStatusShipped, OrderStatusDelivered:
		return true
	}
	return false
}

type Order struct {
	ID         int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID     int64           `gorm:"not null;index" json:"user_id"`
	TotalPrice decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"total_price"`
	Status     OrderStatus     `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	CreatedAt  time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`

	// 明細はListByOrderIDで明示的に詰める
	Lines []OrderLine `gorm:"-" json:"items"`
}
