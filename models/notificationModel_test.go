package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestMessageIDStableWithinMinuteBucket(t *testing.T) {
	id := primitive.NewObjectID()
	at := time.Date(2025, 3, 14, 12, 30, 5, 0, time.UTC)

	first := MessageID(id, EventOrderPlaced, at)
	second := MessageID(id, EventOrderPlaced, at.Add(40*time.Second))
	assert.Equal(t, first, second, "same minute bucket must yield the same id")

	nextMinute := MessageID(id, EventOrderPlaced, at.Add(time.Minute))
	assert.NotEqual(t, first, nextMinute)
}

func TestMessageIDVariesByOrderAndKind(t *testing.T) {
	at := time.Now()
	id := primitive.NewObjectID()

	assert.NotEqual(t,
		MessageID(id, EventOrderPlaced, at),
		MessageID(id, EventOrderConfirmed, at))
	assert.NotEqual(t,
		MessageID(id, EventOrderPlaced, at),
		MessageID(primitive.NewObjectID(), EventOrderPlaced, at))
}

func TestEventKindForStatus(t *testing.T) {
	assert.Equal(t, EventOrderPlaced, EventKindForStatus(StatusPlaced))
	assert.Equal(t, EventOrderConfirmed, EventKindForStatus(StatusAccepted))
	assert.Equal(t, EventOrderReady, EventKindForStatus(StatusReady))
	assert.Equal(t, EventOrderDelivered, EventKindForStatus(StatusDelivered))
	assert.Equal(t, EventOrderCancelled, EventKindForStatus(StatusCancelled))
	assert.Equal(t, "", EventKindForStatus(StatusPreparing), "pass-through status emits nothing")
}

func TestNewNotificationEventSnapshotsOrder(t *testing.T) {
	now := time.Now()
	order := &Order{
		ID:             primitive.NewObjectID(),
		RestaurantID:   primitive.NewObjectID(),
		RestaurantName: "Tasty Corner",
		CustomerID:     primitive.NewObjectID(),
		TotalAmount:    249.50,
		Status:         StatusPlaced,
		Platform:       PlatformWeb,
	}

	event := NewNotificationEvent(order, EventOrderPlaced, now)
	require.NotNil(t, event.Order)
	assert.Equal(t, order.ID, event.OrderID)
	assert.Equal(t, order.RestaurantID, event.RestaurantID)
	assert.Equal(t, "Tasty Corner", event.RestaurantName)
	assert.Equal(t, order.CustomerID, event.CustomerID)
	assert.Equal(t, 249.50, event.TotalAmount)
	assert.Equal(t, PlatformWeb, event.Platform)
	assert.Equal(t, MessageID(order.ID, EventOrderPlaced, now), event.MessageID)
}
