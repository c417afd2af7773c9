package admin

import (
	"github.com/gin-gonic/gin"

	"github.com/xyz-asif/oipet/internal/middleware"
)

func RegisterRoutes(router *gin.RouterGroup, handler *Handler, authRequired gin.HandlerFunc) {
	admin := router.Group("/admin")
	admin.Use(authRequired, middleware.RequireAdmin())
	{
		admin.GET("/dashboard", handler.Dashboard)
		admin.GET("/reports/:period", handler.Report)
		admin.GET("/users", handler.ListUsers)
		admin.GET("/users/:id", handler.GetUser)
		admin.PUT("/users/:id", handler.UpdateUser)
		admin.DELETE("/users/:id", handler.DeleteUser)
	}
}
