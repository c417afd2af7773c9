package users

import "github.com/gin-gonic/gin"

func RegisterRoutes(router *gin.RouterGroup, handler *Handler, authRequired gin.HandlerFunc) {
	users := router.Group("/users")
	users.Use(authRequired)
	{
		users.GET("/profile", handler.GetProfile)
		users.PUT("/profile", handler.UpdateProfile)
		users.PUT("/change-password", handler.ChangePassword)
		users.DELETE("/account", handler.DeleteAccount)
		users.POST("/avatar", handler.UploadAvatar)
	}
}
