package kafka

import "time"

const (
	TopicCartUpdated = `cart-service.cart-updated`
)

// CartUpdatedEvent is the wire representation of a line-count change,
// published for any consumer outside this process (e.g. a navigation badge
// service or analytics).
type CartUpdatedEvent struct {
	OwnerID string    `json:"owner_id"`
	Lines   int       `json:"lines"`
	At      time.Time `json:"at"`
}
