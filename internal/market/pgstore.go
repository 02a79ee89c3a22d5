package market

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// querier dipenuhi oleh *pgxpool.Pool maupun pgx.Tx, jadi query helper
// di bawah bisa dipakai dua arah.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PGStore struct{ DB *pgxpool.Pool }

var _ Store = (*PGStore)(nil)

func (s *PGStore) InTx(ctx context.Context, fn func(tx Tx) error) error {
	txn, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = txn.Rollback(ctx) }()

	if err := fn(&pgTx{q: txn}); err != nil {
		return err
	}
	return txn.Commit(ctx)
}

func (s *PGStore) GetOrder(ctx context.Context, orderID string) (Order, error) {
	return getOrder(ctx, s.DB, orderID, false)
}

func (s *PGStore) OrderItems(ctx context.Context, orderID string) ([]OrderItem, error) {
	return orderItems(ctx, s.DB, orderID)
}

func (s *PGStore) ArtisanOwnsAny(ctx context.Context, artisanID, orderID string) (bool, error) {
	return artisanOwnsAny(ctx, s.DB, artisanID, orderID)
}

func (s *PGStore) ListProducts(ctx context.Context) ([]Product, error) {
	rows, err := s.DB.Query(ctx, `SELECT id, artisan_id, name, price_cents, discount_pct, stock, created_at, updated_at
                                FROM products ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.ArtisanID, &p.Name, &p.PriceCents, &p.DiscountPct, &p.Stock, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

type pgTx struct{ q querier }

var _ Tx = (*pgTx)(nil)

func (t *pgTx) GetOrder(ctx context.Context, orderID string) (Order, error) {
	return getOrder(ctx, t.q, orderID, false)
}

func (t *pgTx) GetOrderForUpdate(ctx context.Context, orderID string) (Order, error) {
	return getOrder(ctx, t.q, orderID, true)
}

func (t *pgTx) OrderItems(ctx context.Context, orderID string) ([]OrderItem, error) {
	return orderItems(ctx, t.q, orderID)
}

func (t *pgTx) ArtisanOwnsAny(ctx context.Context, artisanID, orderID string) (bool, error) {
	return artisanOwnsAny(ctx, t.q, artisanID, orderID)
}

func (t *pgTx) StockForUpdate(ctx context.Context, productID string) (int, error) {
	var stock int
	err := t.q.QueryRow(ctx, `SELECT stock FROM products WHERE id=$1 FOR UPDATE`, productID).Scan(&stock)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNotFound
	}
	return stock, err
}

func (t *pgTx) AdjustStock(ctx context.Context, productID string, delta int) error {
	ct, err := t.q.Exec(ctx, `UPDATE products SET stock = stock + $2, updated_at = now() WHERE id=$1`, productID, delta)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return ErrNotFound
	}
	return nil
}

func (t *pgTx) SetOrderStatus(ctx context.Context, orderID string, st Status) error {
	ct, err := t.q.Exec(ctx, `UPDATE orders SET status=$2, updated_at=now() WHERE id=$1`, orderID, string(st))
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return ErrNotFound
	}
	return nil
}

func (t *pgTx) DeleteOrder(ctx context.Context, orderID string) error {
	// order_items ikut kehapus via FK ON DELETE CASCADE
	ct, err := t.q.Exec(ctx, `DELETE FROM orders WHERE id=$1`, orderID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return ErrNotFound
	}
	return nil
}

func (t *pgTx) CartLines(ctx context.Context, userID string) ([]CartLine, error) {
	rows, err := t.q.Query(ctx, `
		SELECT ci.product_id, ci.qty, p.price_cents, p.discount_pct
		FROM cart_items ci
		JOIN carts c ON c.id = ci.cart_id
		JOIN products p ON p.id = ci.product_id
		WHERE c.user_id = $1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CartLine
	for rows.Next() {
		var l CartLine
		if err := rows.Scan(&l.ProductID, &l.Qty, &l.PriceCents, &l.DiscountPct); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (t *pgTx) InsertOrder(ctx context.Context, o Order) error {
	_, err := t.q.Exec(ctx, `
		INSERT INTO orders(id, buyer_id, status, total_cents)
		VALUES ($1, $2, $3, $4)`,
		o.ID, o.BuyerID, string(o.Status), o.TotalCents)
	return err
}

func (t *pgTx) InsertOrderItems(ctx context.Context, items []OrderItem) error {
	for _, it := range items {
		_, err := t.q.Exec(ctx, `
			INSERT INTO order_items(id, order_id, product_id, qty, unit_price_cents)
			VALUES ($1, $2, $3, $4, $5)`,
			it.ID, it.OrderID, it.ProductID, it.Qty, it.UnitPriceCents)
		if err != nil {
			return err
		}
	}
	return nil
}

func (t *pgTx) ClearCart(ctx context.Context, userID string) error {
	// cart row dibiarkan, cuma isinya yang dihapus
	_, err := t.q.Exec(ctx, `
		DELETE FROM cart_items ci USING carts c
		WHERE ci.cart_id = c.id AND c.user_id = $1`, userID)
	return err
}

func getOrder(ctx context.Context, q querier, orderID string, forUpdate bool) (Order, error) {
	sql := `SELECT id, buyer_id, status, total_cents, created_at, updated_at FROM orders WHERE id=$1`
	if forUpdate {
		sql += ` FOR UPDATE`
	}
	var o Order
	var st string
	err := q.QueryRow(ctx, sql, orderID).Scan(&o.ID, &o.BuyerID, &st, &o.TotalCents, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrNotFound
	}
	if err != nil {
		return Order{}, err
	}
	o.Status = Status(st)
	return o, nil
}

func orderItems(ctx context.Context, q querier, orderID string) ([]OrderItem, error) {
	rows, err := q.Query(ctx, `SELECT id, order_id, product_id, qty, unit_price_cents
	                           FROM order_items WHERE order_id=$1`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OrderItem
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Qty, &it.UnitPriceCents); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func artisanOwnsAny(ctx context.Context, q querier, artisanID, orderID string) (bool, error) {
	var n int
	err := q.QueryRow(ctx, `
		SELECT COUNT(*) FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = $1 AND p.artisan_id = $2`, orderID, artisanID).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
