package event

import "time"

const (
	FeedSnapshotTopic = "orders.feed.snapshot"
	EventFeedSnapshot = "feed.snapshot"
)

// FeedOrderRef is the compact form of a feed order carried on the bus.
type FeedOrderRef struct {
	ID     string `json:"id"`
	Number int    `json:"number"`
	Status string `json:"status"`
	Name   string `json:"name,omitempty"`
}

// FeedSnapshotEvent mirrors one wholesale replacement of a feed's order list.
type FeedSnapshotEvent struct {
	EventType  string         `json:"event_type"`
	OccurredAt time.Time      `json:"occurred_at"`
	Feed       string         `json:"feed"`
	Total      int            `json:"total"`
	TotalToday int            `json:"total_today"`
	Orders     []FeedOrderRef `json:"orders"`
}
