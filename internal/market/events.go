package market

import (
	"encoding/json"
	"time"
)

const (
	EventOrderPlaced        = "OrderPlaced"
	EventOrderStatusChanged = "OrderStatusChanged"
	EventOrderDeleted       = "OrderDeleted"
	EventStockRejected      = "StockRejected"
)

type Envelope struct {
	EventID       string          `json:"event_id"`      // uuid
	EventType     string          `json:"event_type"`    // salah satu const di atas
	EventVersion  int             `json:"event_version"` // 1
	OccurredAt    time.Time       `json:"occurred_at"`   // RFC3339
	Producer      string          `json:"producer"`      // e.g., "market-api"
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // biasanya order_id
	Payload       json.RawMessage `json:"payload"`
}

// ---- Payload tipe per event ----

type ItemLine struct {
	ProductID      string `json:"product_id"`
	Qty            int    `json:"qty"`
	UnitPriceCents int    `json:"unit_price_cents"`
}

type OrderPlacedPayload struct {
	OrderID    string     `json:"order_id"`
	BuyerID    string     `json:"buyer_id"`
	Items      []ItemLine `json:"items"`
	TotalCents int        `json:"total_cents"`
}

type OrderStatusChangedPayload struct {
	OrderID   string `json:"order_id"`
	BuyerID   string `json:"buyer_id"`
	From      Status `json:"from"`
	To        Status `json:"to"`
	ActorRole Role   `json:"actor_role"`
}

type OrderDeletedPayload struct {
	OrderID string `json:"order_id"`
}

type StockRejectedPayload struct {
	OrderID string          `json:"order_id"`
	Reason  string          `json:"reason"` // e.g., OUT_OF_STOCK
	Details []StockShortage `json:"details,omitempty"`
}
