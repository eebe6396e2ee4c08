package routes

import (
	controller "food-ordering-backend/controllers"
	"food-ordering-backend/middleware"
	"food-ordering-backend/models"

	"github.com/gin-gonic/gin"
)

func UserRoutes(incomingRoutes *gin.Engine) {
	incomingRoutes.POST("/api/users/register", controller.Register())
	incomingRoutes.POST("/api/users/login", controller.Login())

	authed := incomingRoutes.Group("/api/users", middleware.Authentication())
	authed.GET("/verify-token", controller.VerifyToken())
	authed.POST("/logout", controller.Logout())
	authed.GET("/profile", controller.GetProfile())
	authed.PATCH("/profile", controller.UpdateProfile())
	authed.PATCH("/address", controller.UpdateAddress())
	authed.POST("/device-token", controller.RegisterDeviceToken())
	authed.DELETE("/device-token", controller.RemoveDeviceToken())

	admin := incomingRoutes.Group("/api/admin/users",
		middleware.Authentication(),
		middleware.RequireRole(models.RoleAdmin))
	admin.PATCH("/:userId/role", controller.AssignRole())
}
