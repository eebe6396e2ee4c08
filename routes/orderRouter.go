package routes

import (
	controller "food-ordering-backend/controllers"
	"food-ordering-backend/middleware"
	"food-ordering-backend/models"

	"github.com/gin-gonic/gin"
)

func OrderRoutes(incomingRoutes *gin.Engine) {
	authed := incomingRoutes.Group("/api/orders", middleware.Authentication())
	authed.POST("", middleware.RequireRole(models.RoleUser), controller.PlaceOrder())
	authed.GET("", controller.GetMyOrders())
	authed.PATCH("/:id/confirm", middleware.RequireRole(models.RoleRestaurant, models.RoleAdmin), controller.ConfirmOrder())
	authed.PATCH("/:id/ready", middleware.RequireRole(models.RoleRestaurant, models.RoleAdmin), controller.ReadyOrder())
	authed.PATCH("/:id/deliver", middleware.RequireRole(models.RoleRestaurant, models.RoleAdmin), controller.DeliverOrder())
	authed.PATCH("/:id/cancel", controller.CancelOrder())

	// Dashboard channel. Auth happens inside the handler so failures can be
	// reported with websocket close codes.
	incomingRoutes.GET("/ws", controller.DashboardSocket())
}
