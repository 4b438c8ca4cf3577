package domain

import "time"

// RestaurantEventType names a change to the restaurant catalog.
type RestaurantEventType string

const (
	RestaurantCreated  RestaurantEventType = "created"
	RestaurantUpdated  RestaurantEventType = "updated"
	RestaurantDeleted  RestaurantEventType = "deleted"
	RestaurantImported RestaurantEventType = "imported"
)

// RestaurantEvent is published after every catalog write.
type RestaurantEvent struct {
	Type       RestaurantEventType `json:"type"`
	Restaurant *Restaurant         `json:"restaurant,omitempty"`
	Names      []string            `json:"names,omitempty"` // bulk imports only
	At         time.Time           `json:"at"`
}
