package model

import (
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/schema"
)

func columnType(t *testing.T, v any, field string) string {
	t.Helper()
	s, err := schema.Parse(v, &sync.Map{}, schema.NamingStrategy{})
	require.NoError(t, err)
	f := s.LookUpField(field)
	require.NotNil(t, f, field)
	return string(f.DataType)
}

// 価格上限×在庫上限の行が何本あっても合計が収まる桁
func TestOrderTotalColumnFitsLargeCarts(t *testing.T) {
	assert.Equal(t, "numeric(20,2)", columnType(t, &Order{}, "TotalPrice"))

	maxLine := decimal.NewFromInt(1_000_000).Mul(decimal.NewFromInt(1_000_000))
	total := maxLine.Mul(decimal.NewFromInt(1000))
	//numeric(20,2)の整数部は18桁
	assert.LessOrEqual(t, len(total.Truncate(0).String()), 18)
}

func TestOrderStatusValid(t *testing.T) {
	for _, s := range []OrderStatus{OrderStatusPending, OrderStatusPaid, OrderStatusShipped, OrderStatusDelivered} {
		assert.True(t, s.Valid(), s)
	}
	assert.False(t, OrderStatus("lost").Valid())
	assert.False(t, OrderStatus("").Valid())
}
