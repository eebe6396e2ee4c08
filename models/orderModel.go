package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	StatusPlaced    = "Placed"
	StatusAccepted  = "Accepted"
	StatusPreparing = "Preparing"
	StatusReady     = "Ready"
	StatusDelivered = "Delivered"
	StatusCancelled = "Cancelled"
)

const (
	PlatformApp = "app"
	PlatformWeb = "web"
)

// AutoCancelAfter is the deadline for a Placed order to be accepted before
// it is cancelled automatically.
const AutoCancelAfter = 8 * time.Minute

// AutoCancelReason is sent to the customer when the deadline passes.
const AutoCancelReason = "Your chosen restaurant couldn't take your order this time, but don't worry — we have plenty of other amazing restaurants waiting to serve you. Explore your next favorite meal now!"

// orderSizes is the closed set of size labels accepted at placement,
// matching the labels menu items price against.
var orderSizes = map[string]struct{}{
	"Small":   {},
	"Medium":  {},
	"Large":   {},
	"Regular": {},
}

// ValidSize reports whether a size label is one of the accepted set.
func ValidSize(size string) bool {
	_, ok := orderSizes[size]
	return ok
}

type OrderItem struct {
	MenuItemID primitive.ObjectID `bson:"menu_item_id" json:"menuItem" validate:"required"`
	ItemName   string             `bson:"item_name" json:"itemName" validate:"required"`
	Quantity   int                `bson:"quantity" json:"quantity" validate:"required,min=1"`
	Size       string             `bson:"size" json:"size" validate:"required"`
}

type Order struct {
	ID                 primitive.ObjectID `bson:"_id" json:"_id"`
	RestaurantID       primitive.ObjectID `bson:"restaurant_id" json:"restaurant"`
	RestaurantName     string             `bson:"restaurant_name" json:"restaurantName"`
	CustomerID         primitive.ObjectID `bson:"customer_id" json:"customer"`
	Items              []OrderItem        `bson:"items" json:"items"`
	TotalAmount        float64            `bson:"total_amount" json:"totalAmount"`
	Address            string             `bson:"address" json:"address"`
	Status             string             `bson:"status" json:"orderStatus"`
	Platform           string             `bson:"platform" json:"platform"`
	CancellationReason string             `bson:"cancellation_reason" json:"cancellationReason"`
	CreatedAt          time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt          time.Time          `bson:"updated_at" json:"updatedAt"`
}

// ShortID is the human-readable order number used in notification bodies.
func (o Order) ShortID() string {
	return ShortOrderID(o.ID)
}

func ShortOrderID(id primitive.ObjectID) string {
	hex := id.Hex()
	return hex[len(hex)-6:]
}

// transitions is the legal status DAG. Preparing is reserved but accepted as
// a pass-through between Accepted and Ready.
var transitions = map[string][]string{
	StatusPlaced:    {StatusAccepted, StatusCancelled},
	StatusAccepted:  {StatusPreparing, StatusReady, StatusCancelled},
	StatusPreparing: {StatusReady},
	StatusReady:     {StatusDelivered},
}

// CanTransition reports whether moving from one status to another is legal.
func CanTransition(from, to string) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether a status admits no further mutation.
func IsTerminal(status string) bool {
	return status == StatusDelivered || status == StatusCancelled
}

// StatusesLeadingTo returns every status from which the given status is
// directly reachable. Used to build conditional update filters.
func StatusesLeadingTo(to string) []string {
	var from []string
	for status, nexts := range transitions {
		for _, next := range nexts {
			if next == to {
				from = append(from, status)
			}
		}
	}
	return from
}
