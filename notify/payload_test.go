package notify

import (
	"encoding/json"
	"testing"
	"time"

	"food-ordering-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func sampleEvent(kind, platform string) models.NotificationEvent {
	orderID, _ := primitive.ObjectIDFromHex("65f1c2d3e4a5b6c7d8e9fa0b")
	order := &models.Order{
		ID:             orderID,
		RestaurantID:   primitive.NewObjectID(),
		RestaurantName: "Tasty Corner",
		CustomerID:     primitive.NewObjectID(),
		TotalAmount:    249.5,
		Status:         models.StatusPlaced,
		Platform:       platform,
	}
	return models.NewNotificationEvent(order, kind, time.Date(2025, 3, 14, 12, 30, 0, 0, time.UTC))
}

func TestTitle(t *testing.T) {
	assert.Equal(t, "New Order Received", Title(models.EventOrderPlaced, RecipientRestaurant))
	assert.Equal(t, "Order Placed Successfully", Title(models.EventOrderPlaced, RecipientCustomer))
	assert.Equal(t, "Order Confirmed", Title(models.EventOrderConfirmed, RecipientCustomer))
	assert.Equal(t, "Order Ready for Pickup", Title(models.EventOrderReady, RecipientRestaurant))
	assert.Equal(t, "Order Cancelled", Title(models.EventOrderCancelled, RecipientCustomer))
	assert.Equal(t, "Order Update", Title("SOMETHING_ELSE", RecipientCustomer))
}

func TestBodyForRestaurant(t *testing.T) {
	event := sampleEvent(models.EventOrderPlaced, models.PlatformApp)
	assert.Equal(t, "#e9fa0b — ₹249.50", Body(event, RecipientRestaurant))

	event.Kind = models.EventOrderConfirmed
	assert.Equal(t, "Order #e9fa0b has been confirmed", Body(event, RecipientRestaurant))
}

func TestBodyForCustomerNamesRestaurant(t *testing.T) {
	event := sampleEvent(models.EventOrderConfirmed, models.PlatformApp)
	assert.Equal(t, "Tasty Corner has confirmed your order", Body(event, RecipientCustomer))

	event.Kind = models.EventOrderCancelled
	assert.Equal(t, "Your order at Tasty Corner has been cancelled", Body(event, RecipientCustomer))
}

func TestClickURL(t *testing.T) {
	event := sampleEvent(models.EventOrderPlaced, models.PlatformWeb)
	id := event.OrderID.Hex()

	assert.Equal(t, "/restaurant/orders/"+id, ClickURL(event, RecipientRestaurant))
	assert.Equal(t, "/orders/"+id, ClickURL(event, RecipientCustomer))

	event.Kind = models.EventOrderDelivered
	assert.Equal(t, "/orders/"+id+"/review", ClickURL(event, RecipientCustomer))
}

func TestDataBagAppOmitsWebExtras(t *testing.T) {
	event := sampleEvent(models.EventOrderPlaced, models.PlatformApp)
	data := DataBag(event, RecipientRestaurant)

	assert.Equal(t, models.EventOrderPlaced, data["type"])
	assert.Equal(t, event.OrderID.Hex(), data["orderId"])
	assert.Equal(t, "249.50", data["totalAmount"])
	assert.Equal(t, event.MessageID, data["messageId"])
	assert.NotContains(t, data, "url")
	assert.NotContains(t, data, "actions")
}

func TestDataBagWebCarriesURLAndActions(t *testing.T) {
	event := sampleEvent(models.EventOrderPlaced, models.PlatformWeb)
	data := DataBag(event, RecipientRestaurant)

	assert.Equal(t, "/restaurant/orders/"+event.OrderID.Hex(), data["url"])

	var actions []Action
	require.NoError(t, json.Unmarshal([]byte(data["actions"]), &actions))
	assert.Equal(t, []Action{{"accept", "Accept Order"}, {"view", "View Details"}}, actions)
}

func TestActionsPerRecipient(t *testing.T) {
	assert.Equal(t,
		[]Action{{"review", "Rate Order"}, {"reorder", "Order Again"}},
		Actions(models.EventOrderDelivered, RecipientCustomer))
	assert.Nil(t, Actions(models.EventOrderDelivered, RecipientRestaurant))
	assert.Nil(t, Actions(models.EventOrderCancelled, RecipientCustomer))
}
