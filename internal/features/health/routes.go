package health

import "github.com/gin-gonic/gin"

func RegisterRoutes(router *gin.RouterGroup, handler *Handler, authRequired gin.HandlerFunc) {
	pet := router.Group("/health/pets/:petId")
	pet.Use(authRequired)
	{
		pet.GET("/records", handler.List)
		pet.POST("/records", handler.Create)
		pet.GET("/records/:id", handler.Get)
		pet.PUT("/records/:id", handler.Update)
		pet.DELETE("/records/:id", handler.Delete)

		pet.GET("/stats", handler.Stats)
		pet.GET("/weight-history", handler.WeightHistory)
		pet.GET("/activity-summary", handler.ActivitySummary)
		pet.GET("/alerts", handler.Alerts)
		pet.GET("/medications/upcoming", handler.UpcomingMedications)
	}
}
