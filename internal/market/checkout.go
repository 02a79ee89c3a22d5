package market

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Confirmer: kolaborator payment gateway, cuma ditanya sukses/tidak.
type Confirmer interface {
	Confirm(ctx context.Context, paymentRef string) (bool, error)
}

// Checkout mengubah cart jadi order pending dalam satu transaksi:
// baca harga saat ini, bekukan jadi OrderItem, kosongkan cart.
// Gagal di mana pun = rollback, cart tetap utuh dan bisa di-retry.
type Checkout struct {
	Store    Store
	Payments Confirmer
}

func (c *Checkout) Checkout(ctx context.Context, userID, paymentRef string) (orderID string, totalCents int, err error) {
	// konfirmasi payment dulu, di luar transaksi (network call)
	if paymentRef != "" {
		ok, err := c.Payments.Confirm(ctx, paymentRef)
		if err != nil {
			return "", 0, fmt.Errorf("confirm payment: %w", err)
		}
		if !ok {
			return "", 0, ErrPaymentNotConfirmed
		}
	}

	err = c.Store.InTx(ctx, func(tx Tx) error {
		lines, err := tx.CartLines(ctx, userID)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return ErrEmptyCart
		}

		orderID = uuid.NewString()
		items := make([]OrderItem, 0, len(lines))
		total := 0
		for _, l := range lines {
			unit := EffectivePriceCents(l.PriceCents, l.DiscountPct)
			total += unit * l.Qty
			items = append(items, OrderItem{
				ID:             uuid.NewString(),
				OrderID:        orderID,
				ProductID:      l.ProductID,
				Qty:            l.Qty,
				UnitPriceCents: unit,
			})
		}
		totalCents = total

		if err := tx.InsertOrder(ctx, Order{
			ID: orderID, BuyerID: userID, Status: StatusPending, TotalCents: total,
		}); err != nil {
			return err
		}
		if err := tx.InsertOrderItems(ctx, items); err != nil {
			return err
		}
		return tx.ClearCart(ctx, userID)
	})
	if err != nil {
		return "", 0, err
	}
	return orderID, totalCents, nil
}
