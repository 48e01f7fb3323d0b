package feed

import "github.com/appetiteclub/burger/services/burger/internal/burger"

type Status string

const (
	StatusIdle      Status = "idle"
	StatusLoading   Status = "loading"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Slice is the synchronized state of one feed.
type Slice struct {
	Orders     []burger.RawOrder `json:"orders"`
	Total      int               `json:"total"`
	TotalToday int               `json:"total_today"`
	Status     Status            `json:"status"`
	Error      string            `json:"error,omitempty"`
}

func NewSlice() Slice {
	return Slice{Orders: []burger.RawOrder{}, Status: StatusIdle}
}

type EventKind int

const (
	EventConnect EventKind = iota
	EventOpened
	EventOrders
	EventFailed
	EventClosed
	EventDisconnect
)

func (k EventKind) String() string {
	switch k {
	case EventConnect:
		return "connect"
	case EventOpened:
		return "opened"
	case EventOrders:
		return "orders"
	case EventFailed:
		return "failed"
	case EventClosed:
		return "closed"
	case EventDisconnect:
		return "disconnect"
	default:
		return "unknown"
	}
}

// Event is one input of the feed state machine.
type Event struct {
	Kind       EventKind
	Orders     []burger.RawOrder
	Total      int
	TotalToday int
	Message    string
}

func ConnectEvent() Event    { return Event{Kind: EventConnect} }
func OpenedEvent() Event     { return Event{Kind: EventOpened} }
func ClosedEvent() Event     { return Event{Kind: EventClosed} }
func DisconnectEvent() Event { return Event{Kind: EventDisconnect} }

func FailedEvent(message string) Event {
	return Event{Kind: EventFailed, Message: message}
}

func OrdersEvent(orders []burger.RawOrder, total, totalToday int) Event {
	return Event{Kind: EventOrders, Orders: orders, Total: total, TotalToday: totalToday}
}

// Reduce applies e to s. Orders are only ever replaced wholesale by an
// orders event; failures and closes keep the last list.
func Reduce(s Slice, e Event) Slice {
	switch e.Kind {
	case EventConnect:
		s.Status = StatusLoading
		s.Error = ""
	case EventOpened:
		s.Status = StatusSucceeded
		s.Error = ""
	case EventOrders:
		orders := e.Orders
		if orders == nil {
			orders = []burger.RawOrder{}
		}
		s.Orders = orders
		s.Total = e.Total
		s.TotalToday = e.TotalToday
		s.Status = StatusSucceeded
		s.Error = ""
	case EventFailed:
		s.Status = StatusFailed
		s.Error = e.Message
	case EventClosed, EventDisconnect:
		s.Status = StatusIdle
	}
	return s
}
