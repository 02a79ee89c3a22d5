package market

import (
	"context"
	"errors"
	"sync"
)

// memStore meniru relational store: InTx serialisasi lewat mutex dan
// rollback dengan snapshot-restore, jadi atomicity bisa diobservasi dari test.
type memStore struct {
	mu       sync.Mutex
	products map[string]Product
	orders   map[string]Order
	items    map[string][]OrderItem // keyed by order id
	carts    map[string][]cartRef   // keyed by user id

	failInsertItems bool // injeksi kegagalan di tengah checkout
}

type cartRef struct {
	productID string
	qty       int
}

func newMemStore() *memStore {
	return &memStore{
		products: map[string]Product{},
		orders:   map[string]Order{},
		items:    map[string][]OrderItem{},
		carts:    map[string][]cartRef{},
	}
}

func (s *memStore) addProduct(p Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p
}

func (s *memStore) addOrder(o Order, items ...OrderItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[o.ID] = o
	s.items[o.ID] = append([]OrderItem(nil), items...)
}

func (s *memStore) setCart(userID string, refs ...cartRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.carts[userID] = append([]cartRef(nil), refs...)
}

func (s *memStore) setPrice(productID string, priceCents int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.products[productID]
	p.PriceCents = priceCents
	s.products[productID] = p
}

func (s *memStore) stock(productID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.products[productID].Stock
}

func (s *memStore) orderStatus(orderID string) (Status, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	return o.Status, ok
}

func (s *memStore) cartLen(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.carts[userID])
}

func (s *memStore) orderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

type memSnap struct {
	products map[string]Product
	orders   map[string]Order
	items    map[string][]OrderItem
	carts    map[string][]cartRef
}

func (s *memStore) snapshot() memSnap {
	snap := memSnap{
		products: map[string]Product{},
		orders:   map[string]Order{},
		items:    map[string][]OrderItem{},
		carts:    map[string][]cartRef{},
	}
	for k, v := range s.products {
		snap.products[k] = v
	}
	for k, v := range s.orders {
		snap.orders[k] = v
	}
	for k, v := range s.items {
		snap.items[k] = append([]OrderItem(nil), v...)
	}
	for k, v := range s.carts {
		snap.carts[k] = append([]cartRef(nil), v...)
	}
	return snap
}

func (s *memStore) restore(snap memSnap) {
	s.products = snap.products
	s.orders = snap.orders
	s.items = snap.items
	s.carts = snap.carts
}

func (s *memStore) InTx(ctx context.Context, fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.snapshot()
	if err := fn(&memTx{s: s}); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

func (s *memStore) GetOrder(ctx context.Context, orderID string) (Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getOrderLocked(orderID)
}

func (s *memStore) OrderItems(ctx context.Context, orderID string) ([]OrderItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]OrderItem(nil), s.items[orderID]...), nil
}

func (s *memStore) ArtisanOwnsAny(ctx context.Context, artisanID, orderID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.artisanOwnsAnyLocked(artisanID, orderID), nil
}

func (s *memStore) ListProducts(ctx context.Context) ([]Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p)
	}
	return out, nil
}

func (s *memStore) getOrderLocked(orderID string) (Order, error) {
	o, ok := s.orders[orderID]
	if !ok {
		return Order{}, ErrNotFound
	}
	return o, nil
}

func (s *memStore) artisanOwnsAnyLocked(artisanID, orderID string) bool {
	for _, it := range s.items[orderID] {
		if p, ok := s.products[it.ProductID]; ok && p.ArtisanID == artisanID {
			return true
		}
	}
	return false
}

// memTx jalan di bawah mutex yang sudah dipegang InTx.
type memTx struct{ s *memStore }

func (t *memTx) GetOrder(ctx context.Context, orderID string) (Order, error) {
	return t.s.getOrderLocked(orderID)
}

func (t *memTx) GetOrderForUpdate(ctx context.Context, orderID string) (Order, error) {
	return t.s.getOrderLocked(orderID)
}

func (t *memTx) OrderItems(ctx context.Context, orderID string) ([]OrderItem, error) {
	return append([]OrderItem(nil), t.s.items[orderID]...), nil
}

func (t *memTx) ArtisanOwnsAny(ctx context.Context, artisanID, orderID string) (bool, error) {
	return t.s.artisanOwnsAnyLocked(artisanID, orderID), nil
}

func (t *memTx) StockForUpdate(ctx context.Context, productID string) (int, error) {
	p, ok := t.s.products[productID]
	if !ok {
		return 0, ErrNotFound
	}
	return p.Stock, nil
}

func (t *memTx) AdjustStock(ctx context.Context, productID string, delta int) error {
	p, ok := t.s.products[productID]
	if !ok {
		return ErrNotFound
	}
	p.Stock += delta
	t.s.products[productID] = p
	return nil
}

func (t *memTx) SetOrderStatus(ctx context.Context, orderID string, st Status) error {
	o, ok := t.s.orders[orderID]
	if !ok {
		return ErrNotFound
	}
	o.Status = st
	t.s.orders[orderID] = o
	return nil
}

func (t *memTx) DeleteOrder(ctx context.Context, orderID string) error {
	if _, ok := t.s.orders[orderID]; !ok {
		return ErrNotFound
	}
	delete(t.s.orders, orderID)
	delete(t.s.items, orderID)
	return nil
}

func (t *memTx) CartLines(ctx context.Context, userID string) ([]CartLine, error) {
	var out []CartLine
	for _, ref := range t.s.carts[userID] {
		p, ok := t.s.products[ref.productID]
		if !ok {
			return nil, ErrNotFound
		}
		out = append(out, CartLine{
			ProductID:   ref.productID,
			Qty:         ref.qty,
			PriceCents:  p.PriceCents,
			DiscountPct: p.DiscountPct,
		})
	}
	return out, nil
}

func (t *memTx) InsertOrder(ctx context.Context, o Order) error {
	t.s.orders[o.ID] = o
	return nil
}

func (t *memTx) InsertOrderItems(ctx context.Context, items []OrderItem) error {
	if t.s.failInsertItems {
		return errors.New("insert order_items: connection reset")
	}
	for _, it := range items {
		t.s.items[it.OrderID] = append(t.s.items[it.OrderID], it)
	}
	return nil
}

func (t *memTx) ClearCart(ctx context.Context, userID string) error {
	delete(t.s.carts, userID)
	return nil
}
