package controllers

import (
	"context"
	"errors"
	"math"
	"time"

	"food-ordering-backend/database"
	"food-ordering-backend/helpers"
	"food-ordering-backend/models"
	"food-ordering-backend/orderstate"
	"food-ordering-backend/restaurants"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var orderCollection *mongo.Collection = database.OpenCollection(database.Client, "order")

// orderMachine is wired in main once the dispatcher exists.
var orderMachine *orderstate.Machine

// UseOrderMachine installs the state machine the order handlers drive.
func UseOrderMachine(m *orderstate.Machine) {
	orderMachine = m
}

// OrderCollection exposes the order collection so main can build the
// durable store behind the state machine.
func OrderCollection() *mongo.Collection {
	return orderCollection
}

type placeOrderRequest struct {
	Restaurant  string             `json:"restaurant" validate:"required"`
	Items       []models.OrderItem `json:"items" validate:"required,min=1"`
	TotalAmount float64            `json:"totalAmount" validate:"required,gt=0"`
	Address     string             `json:"address" validate:"required"`
	Platform    string             `json:"platform"`
}

// PlaceOrder creates an order against an active restaurant and kicks off
// the notification fan-out.
func PlaceOrder() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		customerID, appErr := callerID(c)
		if appErr != nil {
			helpers.RespondError(c, appErr)
			return
		}
		var req placeOrderRequest
		if err := c.BindJSON(&req); err != nil {
			helpers.RespondError(c, helpers.ErrInvalidInput("invalid request body"))
			return
		}
		if err := validate.Struct(&req); err != nil {
			helpers.RespondError(c, helpers.NewAppError(400, helpers.CodeValidationError, err.Error()))
			return
		}
		restaurantID, err := primitive.ObjectIDFromHex(req.Restaurant)
		if err != nil {
			helpers.RespondError(c, helpers.ErrInvalidInput("invalid restaurant id"))
			return
		}

		restaurant, storeErr := restaurantStore.Get(ctx, restaurantID)
		if storeErr == restaurants.ErrNotFound {
			helpers.RespondError(c, helpers.ErrNotFound("restaurant not found"))
			return
		}
		if storeErr != nil {
			helpers.RespondError(c, helpers.ErrInternal("error loading restaurant"))
			return
		}
		if restaurant.OwnerID != nil && *restaurant.OwnerID == customerID {
			helpers.RespondError(c, helpers.ErrForbidden("you cannot order from your own restaurant"))
			return
		}

		items := make([]models.OrderItem, len(req.Items))
		copy(items, req.Items)
		for i := range items {
			if items[i].Size == "" {
				items[i].Size = "Regular"
			}
		}

		order := models.Order{
			RestaurantID:   restaurantID,
			RestaurantName: restaurant.Name,
			CustomerID:     customerID,
			Items:          items,
			TotalAmount:    math.Round(req.TotalAmount*100) / 100,
			Address:        req.Address,
			Platform:       req.Platform,
		}
		if err := orderMachine.Place(ctx, &order); err != nil {
			helpers.RespondError(c, mapOrderErr(err))
			return
		}
		helpers.RespondSuccess(c, 201, "Order placed", gin.H{"order": order})
	}
}

// GetMyOrders lists the caller's orders, newest first.
func GetMyOrders() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		customerID, appErr := callerID(c)
		if appErr != nil {
			helpers.RespondError(c, appErr)
			return
		}
		cursor, err := orderCollection.Find(ctx,
			bson.M{"customer_id": customerID},
			options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}),
		)
		if err != nil {
			helpers.RespondError(c, helpers.ErrInternal("error listing orders"))
			return
		}
		defer cursor.Close(ctx)

		orderList := []models.Order{}
		if err := cursor.All(ctx, &orderList); err != nil {
			helpers.RespondError(c, helpers.ErrInternal("error decoding orders"))
			return
		}
		helpers.RespondSuccess(c, 200, "", gin.H{"orders": orderList})
	}
}

// GetRestaurantOrders lists today's orders for an owned restaurant,
// optionally filtered by status.
func GetRestaurantOrders() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		restaurantID, appErr := ownedRestaurantID(ctx, c)
		if appErr != nil {
			helpers.RespondError(c, appErr)
			return
		}

		now := time.Now()
		startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		filter := bson.M{
			"restaurant_id": restaurantID,
			"created_at":    bson.M{"$gte": startOfDay},
		}
		if status := c.Query("status"); status != "" {
			filter["status"] = status
		}

		cursor, err := orderCollection.Find(ctx, filter,
			options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}),
		)
		if err != nil {
			helpers.RespondError(c, helpers.ErrInternal("error listing orders"))
			return
		}
		defer cursor.Close(ctx)

		orderList := []models.Order{}
		if err := cursor.All(ctx, &orderList); err != nil {
			helpers.RespondError(c, helpers.ErrInternal("error decoding orders"))
			return
		}
		helpers.RespondSuccess(c, 200, "", gin.H{"orders": orderList})
	}
}

// ConfirmOrder moves a Placed order to Accepted. Restaurant owner only.
func ConfirmOrder() gin.HandlerFunc {
	return transitionHandler(func(ctx context.Context, id primitive.ObjectID, _ string) (*models.Order, error) {
		return orderMachine.Confirm(ctx, id)
	}, true, "Order confirmed")
}

// ReadyOrder moves an Accepted order to Ready. Restaurant owner only.
func ReadyOrder() gin.HandlerFunc {
	return transitionHandler(func(ctx context.Context, id primitive.ObjectID, _ string) (*models.Order, error) {
		return orderMachine.MarkReady(ctx, id)
	}, true, "Order ready")
}

// DeliverOrder moves a Ready order to Delivered. Restaurant owner only.
func DeliverOrder() gin.HandlerFunc {
	return transitionHandler(func(ctx context.Context, id primitive.ObjectID, _ string) (*models.Order, error) {
		return orderMachine.Deliver(ctx, id)
	}, true, "Order delivered")
}

// CancelOrder cancels a Placed or Accepted order. Allowed for the order's
// customer and for the restaurant owner.
func CancelOrder() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		id, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			helpers.RespondError(c, helpers.ErrInvalidInput("invalid order id"))
			return
		}
		callerUserID, appErr := callerID(c)
		if appErr != nil {
			helpers.RespondError(c, appErr)
			return
		}
		order, loadErr := loadOrder(ctx, id)
		if loadErr != nil {
			helpers.RespondError(c, loadErr)
			return
		}
		allowed := order.CustomerID == callerUserID
		if !allowed {
			owns, ownErr := restaurantStore.IsOwner(ctx, order.RestaurantID, callerUserID)
			if ownErr != nil && ownErr != restaurants.ErrNotFound {
				helpers.RespondError(c, helpers.ErrInternal("ownership check failed"))
				return
			}
			allowed = owns
		}
		if !allowed {
			helpers.RespondError(c, helpers.ErrForbidden("you cannot cancel this order"))
			return
		}

		var req struct {
			Reason string `json:"reason"`
		}
		_ = c.BindJSON(&req)
		if req.Reason == "" {
			req.Reason = "Cancelled by user"
		}

		updated, txErr := orderMachine.Cancel(ctx, id, req.Reason)
		if txErr != nil {
			helpers.RespondError(c, mapOrderErr(txErr))
			return
		}
		helpers.RespondSuccess(c, 200, "Order cancelled", gin.H{"order": updated})
	}
}

// transitionHandler factors the shape shared by the owner-driven status
// endpoints: parse id, check ownership, run the transition, map errors.
func transitionHandler(run func(ctx context.Context, id primitive.ObjectID, reason string) (*models.Order, error), ownerOnly bool, message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		id, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			helpers.RespondError(c, helpers.ErrInvalidInput("invalid order id"))
			return
		}
		if ownerOnly {
			order, loadErr := loadOrder(ctx, id)
			if loadErr != nil {
				helpers.RespondError(c, loadErr)
				return
			}
			callerUserID, appErr := callerID(c)
			if appErr != nil {
				helpers.RespondError(c, appErr)
				return
			}
			owns, ownErr := restaurantStore.IsOwner(ctx, order.RestaurantID, callerUserID)
			if ownErr != nil && ownErr != restaurants.ErrNotFound {
				helpers.RespondError(c, helpers.ErrInternal("ownership check failed"))
				return
			}
			if !owns {
				helpers.RespondError(c, helpers.ErrForbidden("you do not own this order's restaurant"))
				return
			}
		}

		order, txErr := run(ctx, id, "")
		if txErr != nil {
			helpers.RespondError(c, mapOrderErr(txErr))
			return
		}
		helpers.RespondSuccess(c, 200, message, gin.H{"order": order})
	}
}

func loadOrder(ctx context.Context, id primitive.ObjectID) (*models.Order, *helpers.AppError) {
	var order models.Order
	err := orderCollection.FindOne(ctx, bson.M{"_id": id}).Decode(&order)
	if err == mongo.ErrNoDocuments {
		return nil, helpers.ErrNotFound("order not found")
	}
	if err != nil {
		return nil, helpers.ErrInternal("error loading order")
	}
	return &order, nil
}

func mapOrderErr(err error) *helpers.AppError {
	switch {
	case errors.Is(err, orderstate.ErrOrderNotFound):
		return helpers.ErrNotFound("order not found")
	case errors.Is(err, orderstate.ErrConflict):
		return helpers.ErrConflict("order status does not allow this transition")
	case errors.Is(err, orderstate.ErrInvalidInput):
		return helpers.ErrInvalidInput(err.Error())
	default:
		return helpers.ErrInternal("order operation failed")
	}
}
