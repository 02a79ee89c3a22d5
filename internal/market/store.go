package market

import "context"

// CartLine: isi cart yang sudah di-join dengan harga produk saat ini.
// Harga dibaca di dalam transaksi checkout, lalu dibekukan jadi OrderItem.
type CartLine struct {
	ProductID   string
	Qty         int
	PriceCents  int
	DiscountPct int
}

// Querier: baca-baca yang dipakai baik di dalam maupun di luar transaksi.
type Querier interface {
	GetOrder(ctx context.Context, orderID string) (Order, error)
	OrderItems(ctx context.Context, orderID string) ([]OrderItem, error)
	// ArtisanOwnsAny: apakah artisan punya minimal satu produk di order.
	ArtisanOwnsAny(ctx context.Context, artisanID, orderID string) (bool, error)
}

// Store adalah pegangan eksplisit ke relational store; di-inject ke Engine
// dan Checkout saat konstruksi supaya bisa dipalsukan di test.
type Store interface {
	Querier
	ListProducts(ctx context.Context) ([]Product, error)
	// InTx: begin -> fn -> commit; rollback di semua jalur error.
	InTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx: operasi di dalam satu transaksi. Implementasi wajib kasih semantik
// SELECT ... FOR UPDATE untuk *ForUpdate supaya reserve paralel pada produk
// yang sama terserialisasi.
type Tx interface {
	Querier
	GetOrderForUpdate(ctx context.Context, orderID string) (Order, error)
	StockForUpdate(ctx context.Context, productID string) (int, error)
	AdjustStock(ctx context.Context, productID string, delta int) error
	SetOrderStatus(ctx context.Context, orderID string, st Status) error
	// DeleteOrder hapus order + order_items (cascade).
	DeleteOrder(ctx context.Context, orderID string) error

	CartLines(ctx context.Context, userID string) ([]CartLine, error)
	InsertOrder(ctx context.Context, o Order) error
	InsertOrderItems(ctx context.Context, items []OrderItem) error
	ClearCart(ctx context.Context, userID string) error
}
