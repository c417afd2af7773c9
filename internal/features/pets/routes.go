package pets

import (
	"github.com/gin-gonic/gin"

	"github.com/xyz-asif/oipet/internal/middleware"
)

// RegisterRoutes mounts /pets. Static segments are registered before /:id.
func RegisterRoutes(router *gin.RouterGroup, handler *Handler, authRequired gin.HandlerFunc) {
	pets := router.Group("/pets")
	pets.Use(authRequired)
	{
		pets.GET("", handler.List)
		pets.POST("", handler.Create)
		pets.GET("/stats", handler.Stats)

		admin := pets.Group("/admin")
		admin.Use(middleware.RequireAdmin())
		{
			admin.GET("/all", handler.AdminList)
			admin.GET("/stats", handler.AdminStats)
		}

		pets.GET("/:id", handler.Get)
		pets.PUT("/:id", handler.Update)
		pets.DELETE("/:id", handler.Delete)
		pets.POST("/:id/avatar", handler.UploadAvatar)
	}
}
