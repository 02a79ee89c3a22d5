package market

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrCartItemNotFound = errors.New("cart item not found")

// Carts: CRUD cart per user. Cart dibuat lazy saat add pertama;
// satu row per (cart, product), add berulang nambah qty.
type Carts struct{ DB *pgxpool.Pool }

func (c *Carts) Get(ctx context.Context, userID string) ([]CartItem, error) {
	rows, err := c.DB.Query(ctx, `
		SELECT ci.id, ci.cart_id, ci.product_id, ci.qty
		FROM cart_items ci JOIN carts ca ON ca.id = ci.cart_id
		WHERE ca.user_id = $1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CartItem
	for rows.Next() {
		var it CartItem
		if err := rows.Scan(&it.ID, &it.CartID, &it.ProductID, &it.Qty); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (c *Carts) AddItem(ctx context.Context, userID, productID string, qty int) error {
	tx, err := c.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// pastikan cart-nya ada (unique user_id)
	var cartID string
	err = tx.QueryRow(ctx, `SELECT id FROM carts WHERE user_id=$1`, userID).Scan(&cartID)
	if errors.Is(err, pgx.ErrNoRows) {
		cartID = uuid.NewString()
		if _, err := tx.Exec(ctx, `INSERT INTO carts(id, user_id) VALUES ($1,$2)`, cartID, userID); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	// upsert: add berulang = qty bertambah, bukan row baru
	if _, err := tx.Exec(ctx, `
		INSERT INTO cart_items(id, cart_id, product_id, qty)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (cart_id, product_id)
		DO UPDATE SET qty = cart_items.qty + EXCLUDED.qty`,
		uuid.NewString(), cartID, productID, qty); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (c *Carts) UpdateItem(ctx context.Context, userID, productID string, qty int) error {
	ct, err := c.DB.Exec(ctx, `
		UPDATE cart_items ci SET qty=$3
		FROM carts ca
		WHERE ci.cart_id = ca.id AND ca.user_id=$1 AND ci.product_id=$2`,
		userID, productID, qty)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return ErrCartItemNotFound
	}
	return nil
}

func (c *Carts) RemoveItem(ctx context.Context, userID, productID string) error {
	ct, err := c.DB.Exec(ctx, `
		DELETE FROM cart_items ci USING carts ca
		WHERE ci.cart_id = ca.id AND ca.user_id=$1 AND ci.product_id=$2`,
		userID, productID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return ErrCartItemNotFound
	}
	return nil
}

func (c *Carts) Clear(ctx context.Context, userID string) error {
	_, err := c.DB.Exec(ctx, `
		DELETE FROM cart_items ci USING carts ca
		WHERE ci.cart_id = ca.id AND ca.user_id=$1`, userID)
	return err
}
