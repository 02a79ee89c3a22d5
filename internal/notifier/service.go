package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/ariefcatur/go-artisan-market.git/internal/kafka"
	"github.com/ariefcatur/go-artisan-market.git/internal/market"
	"github.com/ariefcatur/go-artisan-market.git/internal/redisx"
)

// Service mendengarkan event lifecycle order: refresh cache status di Redis
// dan emit baris notifikasi terstruktur (hook untuk email/push nantinya).
type Service struct {
	Redis       *redis.Client
	Log         *slog.Logger
	ServiceName string
}

// HandleOrderEvent dipasang sebagai handler consumer untuk semua topic order.
func (s *Service) HandleOrderEvent(ctx context.Context, m kafkago.Message) error {
	var env market.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}

	// dedup via Redis (pakai event_id)
	dkey := fmt.Sprintf(redisx.KeyDedup, "notifier", env.EventID)
	exists, _ := redisx.Exists(ctx, s.Redis, dkey)
	if exists {
		return nil
	}
	_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()

	switch env.EventType {
	case market.EventOrderPlaced:
		p, err := kafkax.UnwrapPayload[market.OrderPlacedPayload](env.Payload)
		if err != nil {
			return err
		}
		s.cacheStatus(ctx, p.OrderID, market.StatusPending)
		s.Log.InfoContext(ctx, "order placed",
			"order_id", p.OrderID, "buyer_id", p.BuyerID,
			"items", len(p.Items), "total_cents", p.TotalCents)

	case market.EventOrderStatusChanged:
		p, err := kafkax.UnwrapPayload[market.OrderStatusChangedPayload](env.Payload)
		if err != nil {
			return err
		}
		s.cacheStatus(ctx, p.OrderID, p.To)
		s.Log.InfoContext(ctx, "order status changed",
			"order_id", p.OrderID, "buyer_id", p.BuyerID,
			"from", p.From, "to", p.To, "actor_role", p.ActorRole)

	case market.EventOrderDeleted:
		p, err := kafkax.UnwrapPayload[market.OrderDeletedPayload](env.Payload)
		if err != nil {
			return err
		}
		_ = s.Redis.Del(ctx, fmt.Sprintf(redisx.KeyOrderStatus, p.OrderID)).Err()
		s.Log.InfoContext(ctx, "order deleted", "order_id", p.OrderID)

	case market.EventStockRejected:
		p, err := kafkax.UnwrapPayload[market.StockRejectedPayload](env.Payload)
		if err != nil {
			return err
		}
		s.Log.WarnContext(ctx, "stock rejected",
			"order_id", p.OrderID, "reason", p.Reason, "shortages", len(p.Details))
	}
	return nil
}

func (s *Service) cacheStatus(ctx context.Context, orderID string, st market.Status) {
	key := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
	_ = s.Redis.Set(ctx, key, fmt.Sprintf(`{"status":%q}`, st), redisx.TTLStatusCache).Err()
}
