package notify

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"food-ordering-backend/models"
)

// Recipient is the side of the order a notification is rendered for.
type Recipient string

const (
	RecipientRestaurant Recipient = "restaurant"
	RecipientCustomer   Recipient = "customer"
)

// Action is one tap target attached to a web notification.
type Action struct {
	Action string `json:"action"`
	Title  string `json:"title"`
}

// Title returns the display title for an event kind and recipient.
func Title(kind string, recipient Recipient) string {
	if recipient == RecipientRestaurant && kind == models.EventOrderPlaced {
		return "New Order Received"
	}
	switch kind {
	case models.EventOrderPlaced:
		return "Order Placed Successfully"
	case models.EventOrderConfirmed:
		return "Order Confirmed"
	case models.EventOrderReady:
		return "Order Ready for Pickup"
	case models.EventOrderDelivered:
		return "Order Delivered"
	case models.EventOrderCancelled:
		return "Order Cancelled"
	}
	return "Order Update"
}

// Body returns the display body for an event and recipient.
func Body(event models.NotificationEvent, recipient Recipient) string {
	shortID := models.ShortOrderID(event.OrderID)
	name := event.RestaurantName

	if recipient == RecipientCustomer {
		switch event.Kind {
		case models.EventOrderPlaced:
			return fmt.Sprintf("Your order at %s has been placed", name)
		case models.EventOrderConfirmed:
			return fmt.Sprintf("%s has confirmed your order", name)
		case models.EventOrderReady:
			return fmt.Sprintf("Your order at %s is ready for pickup", name)
		case models.EventOrderDelivered:
			return fmt.Sprintf("Your order from %s has been delivered", name)
		case models.EventOrderCancelled:
			return fmt.Sprintf("Your order at %s has been cancelled", name)
		}
		return fmt.Sprintf("Update for your order at %s", name)
	}

	switch event.Kind {
	case models.EventOrderPlaced:
		return fmt.Sprintf("#%s — ₹%s", shortID, formatAmount(event.TotalAmount))
	case models.EventOrderConfirmed:
		return fmt.Sprintf("Order #%s has been confirmed", shortID)
	case models.EventOrderReady:
		return fmt.Sprintf("Order #%s is ready for pickup", shortID)
	case models.EventOrderDelivered:
		return fmt.Sprintf("Order #%s has been delivered", shortID)
	case models.EventOrderCancelled:
		return fmt.Sprintf("Order #%s has been cancelled", shortID)
	}
	return fmt.Sprintf("Update for order #%s", shortID)
}

// Actions returns the fixed tap targets for a kind and recipient. Only web
// notifications carry these.
func Actions(kind string, recipient Recipient) []Action {
	if recipient == RecipientCustomer {
		switch kind {
		case models.EventOrderPlaced:
			return []Action{{"view", "View Order"}, {"track", "Track Order"}}
		case models.EventOrderConfirmed:
			return []Action{{"track", "Track Order"}, {"contact", "Contact Restaurant"}}
		case models.EventOrderReady:
			return []Action{{"track", "Track Order"}, {"directions", "Get Directions"}}
		case models.EventOrderDelivered:
			return []Action{{"review", "Rate Order"}, {"reorder", "Order Again"}}
		}
		return nil
	}
	switch kind {
	case models.EventOrderPlaced:
		return []Action{{"accept", "Accept Order"}, {"view", "View Details"}}
	case models.EventOrderConfirmed, models.EventOrderReady:
		return []Action{{"view", "View Order"}, {"contact", "Contact Customer"}}
	}
	return nil
}

// ClickURL returns the in-app destination for a web notification.
func ClickURL(event models.NotificationEvent, recipient Recipient) string {
	id := event.OrderID.Hex()
	if recipient == RecipientRestaurant {
		return fmt.Sprintf("/restaurant/orders/%s", id)
	}
	if event.Kind == models.EventOrderDelivered {
		return fmt.Sprintf("/orders/%s/review", id)
	}
	return fmt.Sprintf("/orders/%s", id)
}

// DataBag builds the flat string map attached to every push message. Web
// targets additionally receive the click url and action list.
func DataBag(event models.NotificationEvent, recipient Recipient) map[string]string {
	data := map[string]string{
		"type":           event.Kind,
		"orderId":        event.OrderID.Hex(),
		"restaurantId":   event.RestaurantID.Hex(),
		"restaurantName": event.RestaurantName,
		"totalAmount":    formatAmount(event.TotalAmount),
		"status":         event.Status,
		"platform":       event.Platform,
		"timestamp":      event.Timestamp.UTC().Format(time.RFC3339),
		"messageId":      event.MessageID,
	}
	if event.Platform == models.PlatformWeb {
		data["url"] = ClickURL(event, recipient)
		if actions := Actions(event.Kind, recipient); len(actions) > 0 {
			encoded, _ := json.Marshal(actions)
			data["actions"] = string(encoded)
		}
	}
	return data
}

func formatAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', 2, 64)
}
