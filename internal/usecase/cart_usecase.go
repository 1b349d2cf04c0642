package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"shopapi/internal/domain/model"
	repo "shopapi/internal/repository"

	"github.com/shopspring/decimal"
)

// CartUsecase は /cart の業務ロジックです。
type CartUsecase struct {
	cartRepo    repo.CartRepository
	productRepo repo.ProductRepository
}

func NewCartUsecase(cartRepo repo.CartRepository, productRepo repo.ProductRepository) *CartUsecase {
	return &CartUsecase{
		cartRepo:    cartRepo,
		productRepo: productRepo,
	}
}

// priceは現在の商品価格。商品が消えていればUnavailable
type CartItemResponse struct {
	ProductID   int64           `json:"product_id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int64           `json:"quantity"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	Unavailable bool            `json:"unavailable,omitempty"`
}

type CartResponse struct {
	Items []CartItemResponse `json:"items"`
	Total decimal.Decimal    `json:"total"`
}

type AddCartInput struct {
	ProductID int64
	Quantity  int64
}

func (u *CartUsecase) GetCart(ctx context.Context, userID int64) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	lines, err := u.cartRepo.ListByUserID(ctx, userID)
	if err != nil {
		return CartResponse{}, fmt.Errorf("list cart: %w", err)
	}

	out := CartResponse{Items: make([]CartItemResponse, 0, len(lines)), Total: decimal.Zero}
	for _, l := range lines {
		item := CartItemResponse{ProductID: l.ProductID, Quantity: l.Quantity, Price: decimal.Zero, Subtotal: decimal.Zero}

		p, err := u.productRepo.FindByID(ctx, l.ProductID)
		switch {
		case errors.Is(err, repo.ErrNotFound):
			item.Unavailable = true
		case err != nil:
			return CartResponse{}, fmt.Errorf("find product %d: %w", l.ProductID, err)
		default:
			item.Name = p.Name
			item.Price = p.Price
			item.Subtotal = p.Price.Mul(decimal.NewFromInt(l.Quantity))
			out.Total = out.Total.Add(item.Subtotal)
		}
		out.Items = append(out.Items, item)
	}

	return out, nil
}

// カートに追加（同一商品は数量加算）。
func (u *CartUsecase) AddToCart(ctx context.Context, userID int64, in AddCartInput) (model.CartLine, error) {
	if userID <= 0 {
		return model.CartLine{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if in.ProductID <= 0 {
		return model.CartLine{}, NewHTTPError(http.StatusBadRequest, "invalid product_id")
	}
	if in.Quantity < 1 {
		return model.CartLine{}, NewHTTPError(http.StatusBadRequest, "invalid quantity")
	}

	p, err := u.findProduct(ctx, in.ProductID)
	if err != nil {
		return model.CartLine{}, err
	}

	//既にカートにある数量も含めて在庫と比べる
	lines, err := u.cartRepo.ListByUserID(ctx, userID)
	if err != nil {
		return model.CartLine{}, fmt.Errorf("list cart: %w", err)
	}
	var existingQty int64
	for _, l := range lines {
		if l.ProductID == in.ProductID {
			existingQty = l.Quantity
			break
		}
	}
	if !p.HasStock(existingQty + in.Quantity) {
		return model.CartLine{}, insufficientStock(p)
	}

	line, err := u.cartRepo.AddOrMerge(ctx, userID, in.ProductID, in.Quantity)
	if err != nil {
		return model.CartLine{}, fmt.Errorf("add to cart: %w", err)
	}
	return line, nil
}

// 数量を置き換える
func (u *CartUsecase) UpdateCartItem(ctx context.Context, userID int64, productID int64, qty int64) (model.CartLine, error) {
	if userID <= 0 {
		return model.CartLine{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if qty < 1 {
		return model.CartLine{}, NewHTTPError(http.StatusBadRequest, "invalid quantity")
	}

	p, err := u.findProduct(ctx, productID)
	if err != nil {
		return model.CartLine{}, err
	}
	if !p.HasStock(qty) {
		return model.CartLine{}, insufficientStock(p)
	}

	line, err := u.cartRepo.SetQuantity(ctx, userID, productID, qty)
	if errors.Is(err, repo.ErrNotFound) {
		return model.CartLine{}, NewHTTPError(http.StatusNotFound, "cart item not found")
	}
	if err != nil {
		return model.CartLine{}, fmt.Errorf("update cart: %w", err)
	}
	return line, nil
}

func (u *CartUsecase) RemoveFromCart(ctx context.Context, userID int64, productID int64) error {
	if userID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	removed, err := u.cartRepo.Remove(ctx, userID, productID)
	if err != nil {
		return fmt.Errorf("remove from cart: %w", err)
	}
	if !removed {
		return NewHTTPError(http.StatusNotFound, "cart item not found")
	}
	return nil
}

// 空のカートでも成功
func (u *CartUsecase) ClearCart(ctx context.Context, userID int64) error {
	if userID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if err := u.cartRepo.Clear(ctx, userID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

func (u *CartUsecase) findProduct(ctx context.Context, productID int64) (model.Product, error) {
	p, err := u.productRepo.FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Product{}, NewHTTPError(http.StatusNotFound, "product not found")
	}
	if err != nil {
		return model.Product{}, fmt.Errorf("find product: %w", err)
	}
	return p, nil
}

func insufficientStock(p model.Product) error {
	return NewHTTPError(http.StatusBadRequest, fmt.Sprintf("insufficient stock. available: %d", p.Stock))
}
