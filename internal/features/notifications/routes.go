package notifications

import (
	"github.com/gin-gonic/gin"

	"github.com/xyz-asif/oipet/internal/middleware"
)

func RegisterRoutes(router *gin.RouterGroup, handler *Handler, authRequired gin.HandlerFunc) {
	notifications := router.Group("/notifications")
	notifications.Use(authRequired)
	{
		notifications.GET("", handler.ListNotifications)
		notifications.GET("/unread", handler.GetUnreadCount)
		notifications.GET("/stats", handler.GetStats)
		notifications.PUT("/read-all", handler.MarkAllAsRead)

		admin := notifications.Group("/admin")
		admin.Use(middleware.RequireAdmin())
		{
			admin.POST("/send", handler.Send)
			admin.POST("/broadcast", handler.Broadcast)
			admin.DELETE("/cleanup", handler.Cleanup)
		}

		notifications.PUT("/:id/read", handler.MarkAsRead)
		notifications.DELETE("/:id", handler.DeleteNotification)
	}
}
