package event

import "time"

const (
	OrdersSubmittedTopic = "orders.submitted"
	EventOrderSubmitted  = "order.submitted"
)

// OrderSubmittedEvent is published once the order collaborator accepted a
// constructor build. Ingredients keep the wire order, bun id at both ends.
type OrderSubmittedEvent struct {
	EventType   string    `json:"event_type"`
	OccurredAt  time.Time `json:"occurred_at"`
	OrderNumber int       `json:"order_number"`
	OrderName   string    `json:"order_name,omitempty"`
	Ingredients []string  `json:"ingredients"`
	TotalPrice  int       `json:"total_price"`
}
