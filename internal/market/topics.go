package market

const (
	TopicOrderPlaced   = "market.order.placed"
	TopicOrderStatus   = "market.order.status"
	TopicStockRejected = "market.order.stock.rejected"
)

// Partition key = order_id, supaya semua event 1 order maintain urutan.
func PartitionKey(orderID string) []byte { return []byte(orderID) }
