package market

type Status string

const (
	StatusPending   Status = "pending"
	StatusAccepted  Status = "accepted"
	StatusRefused   Status = "refused"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
)

type Role string

const (
	RoleClient  Role = "client"
	RoleArtisan Role = "artisan"
	RoleAdmin   Role = "admin"
)

// Actor adalah identitas caller hasil verifikasi gateway (lihat internal/auth).
type Actor struct {
	ID   string
	Role Role
}

// actorClass: siapa yang boleh jalanin sebuah edge (admin selalu boleh).
type actorClass int

const (
	bySeller actorClass = iota // artisan pemilik >=1 produk di order
	byBuyer                    // pembeli order itu sendiri
)

type Edge struct {
	allowed       actorClass
	reservesStock bool
}

// Tabel transisi. Edge yang tidak ada di sini = InvalidTransition,
// termasuk untuk admin (admin cuma relaksasi cek actor, bukan cek tabel).
var validNext = map[Status]map[Status]Edge{
	StatusPending: {
		StatusAccepted: {allowed: bySeller, reservesStock: true},
		StatusRefused:  {allowed: bySeller},
	},
	StatusAccepted: {
		StatusShipped: {allowed: bySeller},
	},
	StatusShipped: {
		StatusDelivered: {allowed: byBuyer},
	},
	StatusDelivered: {},
	StatusRefused:   {},
}

func CanTransition(from, to Status) bool {
	_, ok := validNext[from][to]
	return ok
}

func edgeFor(from, to Status) (Edge, bool) {
	e, ok := validNext[from][to]
	return e, ok
}

func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusPending, StatusAccepted, StatusRefused, StatusShipped, StatusDelivered:
		return Status(s), true
	}
	return "", false
}

// StockReserved: status yang berarti stok sudah dipotong untuk order ini.
func StockReserved(st Status) bool {
	switch st {
	case StatusAccepted, StatusShipped, StatusDelivered:
		return true
	}
	return false
}
