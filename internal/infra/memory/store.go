package memory

import (
	"context"
	"sync"
	"time"

	"shopapi/internal/domain/model"
	repo "shopapi/internal/repository"
)

type cartKey struct {
	userID    int64
	productID int64
}

type state struct {
	users      map[int64]model.User
	categories map[int64]model.Category
	products   map[int64]model.Product
	cart       map[cartKey]model.CartLine
	orders     map[int64]model.Order
	orderLines map[int64]model.OrderLine

	nextUserID      int64
	nextCategoryID  int64
	nextProductID   int64
	nextCartLineID  int64
	nextOrderID     int64
	nextOrderLineID int64
}

func newState() *state {
	return &state{
		users:      map[int64]model.User{},
		categories: map[int64]model.Category{},
		products:   map[int64]model.Product{},
		cart:       map[cartKey]model.CartLine{},
		orders:     map[int64]model.Order{},
		orderLines: map[int64]model.OrderLine{},
	}
}

// ロールバック用のコピー。値は全て値型なのでmapの複製で足りる
func (s *state) clone() *state {
	c := *s
	c.users = make(map[int64]model.User, len(s.users))
	for k, v := range s.users {
		c.users[k] = v
	}
	c.categories = make(map[int64]model.Category, len(s.categories))
	for k, v := range s.categories {
		c.categories[k] = v
	}
	c.products = make(map[int64]model.Product, len(s.products))
	for k, v := range s.products {
		c.products[k] = v
	}
	c.cart = make(map[cartKey]model.CartLine, len(s.cart))
	for k, v := range s.cart {
		c.cart[k] = v
	}
	c.orders = make(map[int64]model.Order, len(s.orders))
	for k, v := range s.orders {
		c.orders[k] = v
	}
	c.orderLines = make(map[int64]model.OrderLine, len(s.orderLines))
	for k, v := range s.orderLines {
		c.orderLines[k] = v
	}
	return &c
}

// Store はDATABASE_URLが無いときに使うインメモリ実装。
// 全てのrepositoryが1つのmutexを共有し、WithinTxはロックを握ったまま
// fnを実行してエラー時にスナップショットへ戻す。
type Store struct {
	mu  sync.RWMutex
	st  *state
	now func() time.Time
}

var _ repo.TransactionManager = (*Store)(nil)

func NewStore() *Store {
	return &Store{st: newState(), now: time.Now}
}

type base struct {
	s    *Store
	inTx bool
}

func (b base) read(fn func(st *state) error) error {
	if !b.inTx {
		b.s.mu.RLock()
		defer b.s.mu.RUnlock()
	}
	return fn(b.s.st)
}

func (b base) write(fn func(st *state) error) error {
	if !b.inTx {
		b.s.mu.Lock()
		defer b.s.mu.Unlock()
	}
	return fn(b.s.st)
}

type txRepos struct {
	b base
}

func (r txRepos) Products() repo.ProductRepository     { return &ProductRepository{r.b} }
func (r txRepos) Inventory() repo.InventoryRepository  { return &InventoryRepository{r.b} }
func (r txRepos) Carts() repo.CartRepository           { return &CartRepository{r.b} }
func (r txRepos) Orders() repo.OrderRepository         { return &OrderRepository{r.b} }
func (r txRepos) OrderLines() repo.OrderLineRepository { return &OrderLineRepository{r.b} }

func (s *Store) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	if err := fn(txRepos{b: base{s: s, inTx: true}}); err != nil {
		s.st = snapshot
		return err
	}
	return nil
}

func (s *Store) Products() *ProductRepository     { return &ProductRepository{base{s: s}} }
func (s *Store) Inventory() *InventoryRepository  { return &InventoryRepository{base{s: s}} }
func (s *Store) Categories() *CategoryRepository  { return &CategoryRepository{base{s: s}} }
func (s *Store) Carts() *CartRepository           { return &CartRepository{base{s: s}} }
func (s *Store) Orders() *OrderRepository         { return &OrderRepository{base{s: s}} }
func (s *Store) OrderLines() *OrderLineRepository { return &OrderLineRepository{base{s: s}} }
func (s *Store) Users() *UserRepository           { return &UserRepository{base{s: s}} }

func page[T any](items []T, skip int, limit int) []T {
	if skip < 0 {
		skip = 0
	}
	if skip >= len(items) {
		return []T{}
	}
	items = items[skip:]
	if limit >= 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
