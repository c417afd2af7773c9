package auth

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts /auth. authRequired guards the signed in routes and
// rateLimit, when not nil, guards every credential endpoint.
func RegisterRoutes(router *gin.RouterGroup, handler *Handler, authRequired, rateLimit gin.HandlerFunc) {
	auth := router.Group("/auth")

	public := auth.Group("")
	if rateLimit != nil {
		public.Use(rateLimit)
	}
	{
		public.POST("/register", handler.Register)
		public.POST("/login", handler.Login)
		public.POST("/refresh", handler.RefreshToken)
		public.POST("/forgot-password", handler.ForgotPassword)
		public.POST("/reset-password", handler.ResetPassword)
		public.POST("/verify-email", handler.VerifyEmail)
	}

	private := auth.Group("")
	private.Use(authRequired)
	{
		private.POST("/logout", handler.Logout)
		private.PUT("/fcm-token", handler.UpdateFCMToken)
		private.GET("/me", handler.GetMe)
	}
}
