package controllers

import (
	"context"
	"net/http"
	"time"

	"food-ordering-backend/helpers"
	"food-ordering-backend/logger"
	"food-ordering-backend/registry"
	"food-ordering-backend/restaurants"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var upgrader = websocket.Upgrader{
	HandshakeTimeout: 30 * time.Second,
	CheckOrigin:      func(r *http.Request) bool { return true },
}

var connectionRegistry *registry.Registry

// UseRegistry installs the shared connection registry for the dashboard
// endpoint. Called from main during wiring.
func UseRegistry(r *registry.Registry) {
	connectionRegistry = r
}

// DashboardSocket upgrades the request and attaches the channel to the
// registry. Auth happens after the upgrade so failures can be reported with
// a websocket close code instead of an HTTP status.
func DashboardSocket() gin.HandlerFunc {
	log := logger.With("dashboard")
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			// Upgrade already wrote the HTTP error.
			return
		}

		closeWith := func(code int, reason string) {
			deadline := time.Now().Add(10 * time.Second)
			conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline)
			conn.Close()
		}

		token := c.Query("token")
		restaurantIDHex := c.Query("restaurantId")
		userIDHex := c.Query("userId")
		if token == "" || restaurantIDHex == "" || userIDHex == "" {
			closeWith(registry.CloseAuthFailure, "token, restaurantId and userId are required")
			return
		}
		claims, err := helpers.ValidateChannelToken(token, userIDHex)
		if err == helpers.ErrChannelForbidden {
			closeWith(registry.CloseForbidden, "restaurant role required")
			return
		}
		if err != nil {
			closeWith(registry.CloseAuthFailure, "invalid or expired token")
			return
		}
		restaurantID, err := primitive.ObjectIDFromHex(restaurantIDHex)
		if err != nil {
			closeWith(registry.CloseAuthFailure, "invalid restaurantId")
			return
		}
		userID, err := primitive.ObjectIDFromHex(claims.UserID)
		if err != nil {
			closeWith(registry.CloseAuthFailure, "invalid token subject")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		owns, ownErr := restaurantStore.IsOwner(ctx, restaurantID, userID)
		cancel()
		if ownErr == restaurants.ErrNotFound {
			closeWith(registry.CloseForbidden, "restaurant not found")
			return
		}
		if ownErr != nil {
			closeWith(registry.CloseAuthFailure, "ownership check failed")
			return
		}
		if !owns {
			closeWith(registry.CloseForbidden, "you do not own this restaurant")
			return
		}

		connectionRegistry.Attach(conn, restaurantIDHex, claims.UserID)
		log.Info().Str("restaurant_id", restaurantIDHex).Msg("dashboard channel attached")
	}
}
