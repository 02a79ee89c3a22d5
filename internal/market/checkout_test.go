package market

import (
	"context"
	"errors"
	"testing"
)

type fakeConfirmer struct {
	ok    bool
	err   error
	calls int
}

func (f *fakeConfirmer) Confirm(ctx context.Context, ref string) (bool, error) {
	f.calls++
	return f.ok, f.err
}

func seedCart(s *memStore, userID string) {
	s.addProduct(Product{ID: "p1", ArtisanID: "artisan-1", Name: "vase", PriceCents: 1000, Stock: 5})
	s.addProduct(Product{ID: "p2", ArtisanID: "artisan-2", Name: "bowl", PriceCents: 2000, DiscountPct: 50, Stock: 1})
	s.setCart(userID, cartRef{productID: "p1", qty: 2}, cartRef{productID: "p2", qty: 1})
}

func TestCheckout_TotalAndFrozenPrices(t *testing.T) {
	s := newMemStore()
	seedCart(s, "client-1")
	c := &Checkout{Store: s, Payments: &fakeConfirmer{ok: true}}

	orderID, total, err := c.Checkout(context.Background(), "client-1", "")
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	// 2*1000 + 1*(2000 dengan diskon 50%) = 3000
	if total != 3000 {
		t.Errorf("total = %d, want 3000", total)
	}
	if st, _ := s.orderStatus(orderID); st != StatusPending {
		t.Errorf("status = %s, want pending", st)
	}
	if got := s.cartLen("client-1"); got != 0 {
		t.Errorf("cart has %d items after checkout, want 0", got)
	}

	// harga produk berubah belakangan -> order items tetap beku
	s.setPrice("p1", 9999)
	items, _ := s.OrderItems(context.Background(), orderID)
	sum := 0
	for _, it := range items {
		sum += it.UnitPriceCents * it.Qty
	}
	if sum != 3000 {
		t.Errorf("frozen total = %d, want 3000", sum)
	}
}

func TestCheckout_EmptyCart(t *testing.T) {
	s := newMemStore()
	c := &Checkout{Store: s, Payments: &fakeConfirmer{ok: true}}

	_, _, err := c.Checkout(context.Background(), "client-1", "")
	if !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("expected ErrEmptyCart, got: %v", err)
	}
}

func TestCheckout_PaymentNotConfirmed(t *testing.T) {
	s := newMemStore()
	seedCart(s, "client-1")
	c := &Checkout{Store: s, Payments: &fakeConfirmer{ok: false}}

	_, _, err := c.Checkout(context.Background(), "client-1", "pay-123")
	if !errors.Is(err, ErrPaymentNotConfirmed) {
		t.Fatalf("expected ErrPaymentNotConfirmed, got: %v", err)
	}
	if s.orderCount() != 0 {
		t.Error("order created despite unconfirmed payment")
	}
	if s.cartLen("client-1") != 2 {
		t.Error("cart emptied despite unconfirmed payment")
	}
}

func TestCheckout_NoPaymentRefSkipsConfirm(t *testing.T) {
	s := newMemStore()
	seedCart(s, "client-1")
	fc := &fakeConfirmer{ok: false} // harus tidak pernah ditanya
	c := &Checkout{Store: s, Payments: fc}

	if _, _, err := c.Checkout(context.Background(), "client-1", ""); err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if fc.calls != 0 {
		t.Errorf("confirmer called %d times, want 0", fc.calls)
	}
}

func TestCheckout_PaymentConfirmed(t *testing.T) {
	s := newMemStore()
	seedCart(s, "client-1")
	fc := &fakeConfirmer{ok: true}
	c := &Checkout{Store: s, Payments: fc}

	if _, _, err := c.Checkout(context.Background(), "client-1", "pay-123"); err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if fc.calls != 1 {
		t.Errorf("confirmer called %d times, want 1", fc.calls)
	}
}

// Gagal insert items di tengah -> rollback total, cart tetap utuh.
func TestCheckout_MidFailureRollsBack(t *testing.T) {
	s := newMemStore()
	seedCart(s, "client-1")
	s.failInsertItems = true
	c := &Checkout{Store: s, Payments: &fakeConfirmer{ok: true}}

	_, _, err := c.Checkout(context.Background(), "client-1", "")
	if err == nil {
		t.Fatal("expected error")
	}
	if s.orderCount() != 0 {
		t.Error("order header survived rollback")
	}
	if s.cartLen("client-1") != 2 {
		t.Error("cart lost items on failed checkout")
	}
}

func TestEffectivePriceCents(t *testing.T) {
	cases := []struct {
		price, discount, want int
	}{
		{1000, 0, 1000},
		{2000, 50, 1000},
		{1000, 100, 1000}, // di luar range (0,100) -> harga dasar
		{999, 33, 669},    // 999 * 0.67 = 669.33 -> 669
		{999, 10, 899},    // 999 * 0.90 = 899.1 -> 899
		{101, 50, 51},     // 50.5 -> bulat ke atas
	}
	for _, c := range cases {
		if got := EffectivePriceCents(c.price, c.discount); got != c.want {
			t.Errorf("EffectivePriceCents(%d, %d) = %d, want %d", c.price, c.discount, got, c.want)
		}
	}
}
