package models

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	EventOrderPlaced    = "ORDER_PLACED"
	EventOrderConfirmed = "ORDER_CONFIRMED"
	EventOrderReady     = "ORDER_READY"
	EventOrderDelivered = "ORDER_DELIVERED"
	EventOrderCancelled = "ORDER_CANCELLED"
)

// EventKindForStatus maps an order status to the event kind emitted when the
// order enters it. Pass-through statuses emit nothing.
func EventKindForStatus(status string) string {
	switch status {
	case StatusPlaced:
		return EventOrderPlaced
	case StatusAccepted:
		return EventOrderConfirmed
	case StatusReady:
		return EventOrderReady
	case StatusDelivered:
		return EventOrderDelivered
	case StatusCancelled:
		return EventOrderCancelled
	}
	return ""
}

// NotificationEvent is the ephemeral record handed to the dispatcher after a
// successful order transition. It is never persisted.
type NotificationEvent struct {
	Kind           string             `json:"type"`
	OrderID        primitive.ObjectID `json:"orderId"`
	RestaurantID   primitive.ObjectID `json:"restaurantId"`
	RestaurantName string             `json:"restaurantName"`
	CustomerID     primitive.ObjectID `json:"customerId"`
	TotalAmount    float64            `json:"totalAmount"`
	Status         string             `json:"status"`
	Platform       string             `json:"platform"`
	MessageID      string             `json:"messageId"`
	Timestamp      time.Time          `json:"timestamp"`
	Order          *Order             `json:"order,omitempty"`
}

// NewNotificationEvent builds the event for an order that just entered the
// given status.
func NewNotificationEvent(order *Order, kind string, now time.Time) NotificationEvent {
	return NotificationEvent{
		Kind:           kind,
		OrderID:        order.ID,
		RestaurantID:   order.RestaurantID,
		RestaurantName: order.RestaurantName,
		CustomerID:     order.CustomerID,
		TotalAmount:    order.TotalAmount,
		Status:         order.Status,
		Platform:       order.Platform,
		MessageID:      MessageID(order.ID, kind, now),
		Timestamp:      now,
		Order:          order,
	}
}

// MessageID derives a deterministic id from the order, event kind and a
// one-minute timestamp bucket so receivers can suppress duplicates.
func MessageID(orderID primitive.ObjectID, kind string, at time.Time) string {
	bucket := at.UTC().Truncate(time.Minute).Unix()
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s-%s-%d", orderID.Hex(), kind, bucket)))
	return hex.EncodeToString(sum[:])
}
