package repository

import "errors"

var (
	ErrNotFound = errors.New("not found")
	// 在庫が要求数に足りない
	ErrInsufficientStock = errors.New("insufficient stock")
	// 一意制約違反
	ErrConflict = errors.New("conflict")
	// 数量は1以上
	ErrInvalidQuantity = errors.New("invalid quantity")
)
