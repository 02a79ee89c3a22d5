package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/ariefcatur/go-artisan-market.git/internal/auth"
	kafkax "github.com/ariefcatur/go-artisan-market.git/internal/kafka"
	"github.com/ariefcatur/go-artisan-market.git/internal/market"
	"github.com/ariefcatur/go-artisan-market.git/internal/redisx"
)

type OrdersHandler struct {
	Engine   *market.Engine
	Checkout *market.Checkout
	Store    market.Store
	Placed   *kafkax.Producer // market.order.placed
	Status   *kafkax.Producer // market.order.status
	Rejected *kafkax.Producer // market.order.stock.rejected
	Redis    *redis.Client    // nil-safe: cache & idempotency dilewati kalau nil
	Service  string
}

type CheckoutReq struct {
	PaymentRef string `json:"payment_ref,omitempty"`
}

type CheckoutResp struct {
	OrderID    string `json:"order_id"`
	TotalCents int    `json:"total_cents"`
	Idempotent bool   `json:"idempotent,omitempty"`
}

type TransitionReq struct {
	Status string `json:"status"`
}

type OrderItemResp struct {
	ID             string `json:"id"`
	ProductID      string `json:"product_id"`
	Qty            int    `json:"qty"`
	UnitPriceCents int    `json:"unit_price_cents"`
}

func (h *OrdersHandler) Register(r chi.Router) {
	r.Post("/orders/checkout", h.checkout)
	r.Put("/orders/{id}", h.updateStatus)
	r.Delete("/orders/{id}", h.deleteOrder)
	r.Get("/orders/{id}/items", h.listItems)
	r.Get("/orders/{id}", h.getOrder)
	r.Get("/products", h.listProducts)
}

func (h *OrdersHandler) checkout(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.FromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthenticated"})
		return
	}

	var req CheckoutReq
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	// Fast-path idempotency: payment_ref yang sama tidak boleh bikin order kedua.
	if req.PaymentRef != "" && h.Redis != nil {
		idemKey := fmt.Sprintf(redisx.KeyIdemCheckout, req.PaymentRef)
		if s, err := h.Redis.Get(ctx, idemKey).Result(); err == nil && s != "" {
			var prev CheckoutResp
			if json.Unmarshal([]byte(s), &prev) == nil {
				prev.Idempotent = true
				writeJSON(w, http.StatusOK, prev)
				return
			}
		}
	}

	orderID, total, err := h.Checkout.Checkout(ctx, actor.ID, req.PaymentRef)
	if err != nil {
		writeDomainErr(w, err)
		return
	}

	resp := CheckoutResp{OrderID: orderID, TotalCents: total}
	if h.Redis != nil {
		if req.PaymentRef != "" {
			idemKey := fmt.Sprintf(redisx.KeyIdemCheckout, req.PaymentRef)
			_ = h.Redis.Set(ctx, idemKey, string(kafkax.MustMarshal(resp)), redisx.TTLIdempotency).Err()
		}
		statusKey := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
		_ = h.Redis.Set(ctx, statusKey, `{"status":"pending"}`, redisx.TTLStatusCache).Err()
	}

	items, _ := h.Store.OrderItems(ctx, orderID)
	lines := make([]market.ItemLine, 0, len(items))
	for _, it := range items {
		lines = append(lines, market.ItemLine{ProductID: it.ProductID, Qty: it.Qty, UnitPriceCents: it.UnitPriceCents})
	}
	h.publish(h.Placed, market.EventOrderPlaced, orderID, r.Header.Get("X-Request-Id"), market.OrderPlacedPayload{
		OrderID: orderID, BuyerID: actor.ID, Items: lines, TotalCents: total,
	})

	writeJSON(w, http.StatusCreated, resp)
}

func (h *OrdersHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.FromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthenticated"})
		return
	}
	orderID := chi.URLParam(r, "id")

	var req TransitionReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	to, ok := market.ParseStatus(req.Status)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_status"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	res, err := h.Engine.Transition(ctx, orderID, to, actor)
	if err != nil {
		var is *market.InsufficientStockError
		if errors.As(err, &is) {
			h.publish(h.Rejected, market.EventStockRejected, orderID, r.Header.Get("X-Request-Id"), market.StockRejectedPayload{
				OrderID: orderID, Reason: "OUT_OF_STOCK", Details: is.Details,
			})
		}
		writeDomainErr(w, err)
		return
	}

	if h.Redis != nil {
		statusKey := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
		_ = h.Redis.Set(ctx, statusKey, fmt.Sprintf(`{"status":%q}`, to), redisx.TTLStatusCache).Err()
	}
	h.publish(h.Status, market.EventOrderStatusChanged, orderID, r.Header.Get("X-Request-Id"), market.OrderStatusChangedPayload{
		OrderID: orderID, BuyerID: res.Order.BuyerID, From: res.From, To: to, ActorRole: actor.Role,
	})

	writeJSON(w, http.StatusOK, map[string]any{"order_id": orderID, "status": to})
}

func (h *OrdersHandler) deleteOrder(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.FromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthenticated"})
		return
	}
	orderID := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Engine.Delete(ctx, orderID, actor); err != nil {
		writeDomainErr(w, err)
		return
	}
	if h.Redis != nil {
		_ = h.Redis.Del(ctx, fmt.Sprintf(redisx.KeyOrderStatus, orderID)).Err()
	}
	h.publish(h.Status, market.EventOrderDeleted, orderID, r.Header.Get("X-Request-Id"), market.OrderDeletedPayload{OrderID: orderID})

	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

func (h *OrdersHandler) listItems(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.FromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthenticated"})
		return
	}
	orderID := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	items, err := h.Engine.Items(ctx, orderID, actor)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	out := make([]OrderItemResp, 0, len(items))
	for _, it := range items {
		out = append(out, OrderItemResp{ID: it.ID, ProductID: it.ProductID, Qty: it.Qty, UnitPriceCents: it.UnitPriceCents})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	// 1) coba cache
	if h.Redis != nil {
		key := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
		if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
			writeJSON(w, http.StatusOK, json.RawMessage(s))
			return
		}
	}

	// 2) fallback store
	o, err := h.Store.GetOrder(ctx, orderID)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	b := kafkax.MustMarshal(map[string]any{"status": o.Status})
	if h.Redis != nil {
		key := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
		_ = h.Redis.Set(ctx, key, b, redisx.TTLStatusCache).Err()
	}
	writeJSON(w, http.StatusOK, json.RawMessage(b))
}

type ProductResp struct {
	ID          string `json:"id"`
	ArtisanID   string `json:"artisan_id"`
	Name        string `json:"name"`
	PriceCents  int    `json:"price_cents"`
	DiscountPct int    `json:"discount_pct"`
	Stock       int    `json:"stock"`
}

func (h *OrdersHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	ps, err := h.Store.ListProducts(ctx)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	out := make([]ProductResp, 0, len(ps))
	for _, p := range ps {
		out = append(out, ProductResp{
			ID: p.ID, ArtisanID: p.ArtisanID, Name: p.Name,
			PriceCents: p.PriceCents, DiscountPct: p.DiscountPct, Stock: p.Stock,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *OrdersHandler) publish(p *kafkax.Producer, eventType, orderID, trace string, payload any) {
	if p == nil {
		return
	}
	ev := market.Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      h.Service,
		TraceID:       trace,
		CorrelationID: orderID,
		Payload:       kafkax.MustMarshal(payload),
	}
	p.Publish(market.PartitionKey(orderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
