package notify

const (
	TopicOrderCreated  = "orders.created"
	TopicStatusChanged = "orders.status.changed"
)

// Partition key = order id, so every event for one order stays ordered.
func PartitionKey(orderID string) []byte { return []byte(orderID) }
