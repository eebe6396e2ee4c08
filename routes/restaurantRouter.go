package routes

import (
	controller "food-ordering-backend/controllers"
	"food-ordering-backend/middleware"
	"food-ordering-backend/models"

	"github.com/gin-gonic/gin"
)

func RestaurantRoutes(incomingRoutes *gin.Engine) {
	incomingRoutes.GET("/api/restaurants", controller.GetAllRestaurants())
	incomingRoutes.GET("/api/restaurants/:id", controller.GetRestaurant())
	incomingRoutes.GET("/api/restaurants/:id/menu", controller.GetMenu())
	incomingRoutes.GET("/api/owners/:userId/restaurant", controller.GetRestaurantByOwner())

	owner := incomingRoutes.Group("/api/restaurants",
		middleware.Authentication(),
		middleware.RequireRole(models.RoleRestaurant, models.RoleAdmin))
	owner.POST("", controller.CreateRestaurant())
	owner.GET("/:id/orders", controller.GetRestaurantOrders())
	owner.PUT("/:id/menu", controller.ReplaceMenu())
	owner.POST("/:id/menu", controller.AddMenuItem())
	owner.PUT("/:id/menu/:itemId", controller.UpdateMenuItem())
	owner.DELETE("/:id/menu/:itemId", controller.DeleteMenuItem())
	owner.PATCH("/:id/toggle-status", controller.ToggleStatus())
}
