package market

import "context"

// Engine menjalankan state machine order. Semua mutasi status + stok
// terjadi dalam satu transaksi: gagal di tengah = tidak ada yang berubah.
type Engine struct {
	Store Store
}

// TransitionResult: order dengan status baru + status asalnya, buat event.
type TransitionResult struct {
	Order Order
	From  Status
}

// Transition memvalidasi edge (tabel di status.go), otorisasi actor, lalu
// persist status baru. Edge pending->accepted sekalian reserve stok untuk
// semua line item, all-or-nothing.
func (e *Engine) Transition(ctx context.Context, orderID string, to Status, actor Actor) (TransitionResult, error) {
	var out TransitionResult
	err := e.Store.InTx(ctx, func(tx Tx) error {
		o, err := tx.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		edge, ok := edgeFor(o.Status, to)
		if !ok {
			return &InvalidTransitionError{From: o.Status, To: to}
		}
		if err := authorize(ctx, tx, actor, o, edge); err != nil {
			return err
		}
		if edge.reservesStock {
			items, err := tx.OrderItems(ctx, orderID)
			if err != nil {
				return err
			}
			if err := reserveAll(ctx, tx, items); err != nil {
				return err
			}
		}
		if err := tx.SetOrderStatus(ctx, orderID, to); err != nil {
			return err
		}
		out.From = o.Status
		out.Order = o
		out.Order.Status = to
		return nil
	})
	return out, err
}

// authorize: satu titik untuk cek (actor, edge). Admin lolos cek actor,
// tapi tetap kena cek tabel & stok di Transition.
func authorize(ctx context.Context, tx Tx, actor Actor, o Order, edge Edge) error {
	if actor.Role == RoleAdmin {
		return nil
	}
	switch edge.allowed {
	case bySeller:
		if actor.Role != RoleArtisan {
			return ErrForbidden
		}
		owns, err := tx.ArtisanOwnsAny(ctx, actor.ID, o.ID)
		if err != nil {
			return err
		}
		if !owns {
			return ErrForbidden
		}
	case byBuyer:
		if actor.Role != RoleClient || o.BuyerID != actor.ID {
			return ErrForbidden
		}
	}
	return nil
}

// reserveAll: dua fase di dalam transaksi yang sama.
// Fase 1 lock semua row produk (FOR UPDATE) dan kumpulkan kekurangan;
// fase 2 baru kurangi. Jadi kalau item ke-3 kurang, item 1-2 belum
// tersentuh sama sekali, bukan cuma ke-rollback.
func reserveAll(ctx context.Context, tx Tx, items []OrderItem) error {
	var shortages []StockShortage
	for _, it := range items {
		stock, err := tx.StockForUpdate(ctx, it.ProductID)
		if err != nil {
			return err
		}
		if stock < it.Qty {
			shortages = append(shortages, StockShortage{
				ProductID: it.ProductID, Required: it.Qty, Available: stock,
			})
		}
	}
	if len(shortages) > 0 {
		return &InsufficientStockError{Details: shortages}
	}
	for _, it := range items {
		if err := tx.AdjustStock(ctx, it.ProductID, -it.Qty); err != nil {
			return err
		}
	}
	return nil
}

// Delete (admin): kembalikan stok hanya kalau order pernah accepted —
// order yang masih pending belum pernah motong stok, jadi tidak ada
// yang perlu dikembalikan. Lalu hapus order + items.
func (e *Engine) Delete(ctx context.Context, orderID string, actor Actor) error {
	if actor.Role != RoleAdmin {
		return ErrForbidden
	}
	return e.Store.InTx(ctx, func(tx Tx) error {
		o, err := tx.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if StockReserved(o.Status) {
			items, err := tx.OrderItems(ctx, orderID)
			if err != nil {
				return err
			}
			for _, it := range items {
				if err := tx.AdjustStock(ctx, it.ProductID, it.Qty); err != nil {
					return err
				}
			}
		}
		return tx.DeleteOrder(ctx, orderID)
	})
}

// Items mengembalikan line items sebuah order untuk pembeli, artisan yang
// punya produk di dalamnya, atau admin.
func (e *Engine) Items(ctx context.Context, orderID string, actor Actor) ([]OrderItem, error) {
	o, err := e.Store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	switch actor.Role {
	case RoleAdmin:
	case RoleClient:
		if o.BuyerID != actor.ID {
			return nil, ErrForbidden
		}
	case RoleArtisan:
		owns, err := e.Store.ArtisanOwnsAny(ctx, actor.ID, orderID)
		if err != nil {
			return nil, err
		}
		if !owns {
			return nil, ErrForbidden
		}
	default:
		return nil, ErrForbidden
	}
	return e.Store.OrderItems(ctx, orderID)
}
