package model

import (
	"time"

	"github.com/google/uuid"
)

// EventType is the canonical set of e-commerce event kinds.
// Matching is case-sensitive; anything else is a validation defect.
type EventType string

const (
	EventTypeView           EventType = "view"
	EventTypeAddToCart      EventType = "add_to_cart"
	EventTypeRemoveFromCart EventType = "remove_from_cart"
	EventTypeCheckout       EventType = "checkout"
	EventTypePurchase       EventType = "purchase"
	EventTypeSearch         EventType = "search"
)

// ParseEventType returns the typed event type for s, or false when s is not
// a member of the canonical set.
func ParseEventType(s string) (EventType, bool) {
	switch EventType(s) {
	case EventTypeView, EventTypeAddToCart, EventTypeRemoveFromCart,
		EventTypeCheckout, EventTypePurchase, EventTypeSearch:
		return EventType(s), true
	}
	return "", false
}

// Device is the normalized device classification.
type Device string

const (
	DeviceMobile  Device = "mobile"
	DeviceDesktop Device = "desktop"
	DeviceTablet  Device = "tablet"
)

// ParseDevice returns the typed device for s, or false on non-membership.
func ParseDevice(s string) (Device, bool) {
	switch Device(s) {
	case DeviceMobile, DeviceDesktop, DeviceTablet:
		return Device(s), true
	}
	return "", false
}

// Event is the closed, validated shape of one e-commerce event.
// Unrecognized keys in the inbound payload never make it into this struct;
// they survive only in the raw payload side-channel.
type Event struct {
	EventID   uuid.UUID `json:"event_id"`
	UserID    string    `json:"user_id"`
	EventType EventType `json:"event_type"`
	ProductID string    `json:"product_id"`
	Category  string    `json:"category"`
	Price     float64   `json:"price"`
	Device    Device    `json:"device"`
	City      string    `json:"city"`
	EventTime time.Time `json:"event_time"`
}

// DeliveryMetadata carries transport-level fields supplied by the push
// broker. Every field may be absent; PublishTime is the broker's raw string
// and may be malformed.
type DeliveryMetadata struct {
	MessageID   string
	PublishTime string
	Attributes  map[string]string
}
