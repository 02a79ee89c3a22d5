package market

import "time"

type Product struct {
	ID          string
	ArtisanID   string
	Name        string
	PriceCents  int
	DiscountPct int // 0..100, 0 = tanpa diskon
	Stock       int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Cart struct {
	ID        string
	UserID    string // satu cart terbuka per user
	CreatedAt time.Time
}

type CartItem struct {
	ID        string
	CartID    string
	ProductID string
	Qty       int
}

type Order struct {
	ID         string
	BuyerID    string
	Status     Status // lihat status.go
	TotalCents int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// OrderItem immutable setelah dibuat; UnitPriceCents = harga efektif
// (sudah termasuk diskon) saat checkout, tidak ikut berubah kalau harga
// produk berubah belakangan.
type OrderItem struct {
	ID             string
	OrderID        string
	ProductID      string
	Qty            int
	UnitPriceCents int
}

// EffectivePriceCents menghitung harga satuan setelah diskon persen,
// dibulatkan ke sen terdekat. Diskon di luar range (0,100) diabaikan.
func EffectivePriceCents(priceCents, discountPct int) int {
	if discountPct > 0 && discountPct < 100 {
		return (priceCents*(100-discountPct) + 50) / 100
	}
	return priceCents
}
