package auth

// Swagger API metadata is defined globally in cmd/api/main.go

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/xyz-asif/oipet/internal/middleware"
	"github.com/xyz-asif/oipet/internal/pkg/logger"
	"github.com/xyz-asif/oipet/internal/pkg/response"
	apperrors "github.com/xyz-asif/oipet/pkg/errors"
)

type Handler struct {
	svc *Service
	// exposeTokens echoes reset and verification tokens in responses so
	// they can be exercised without a mail provider. Development only.
	exposeTokens bool
}

func NewHandler(svc *Service, exposeTokens bool) *Handler {
	return &Handler{svc: svc, exposeTokens: exposeTokens}
}

// Register godoc
// @Summary Register a new user
// @Description Register a new user with name, email, password and optional phone
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "User registration data"
// @Success 201 {object} response.APIResponse{data=AuthResponse}
// @Failure 400 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse
// @Router /auth/register [post]
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	result, err := h.svc.Register(c.Request.Context(), req)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	if !h.exposeTokens {
		result.VerificationToken = ""
	}

	response.Created(c, "User registered successfully", result)
}

// Login godoc
// @Summary Login
// @Description Authenticate with email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Credentials"
// @Success 200 {object} response.APIResponse{data=AuthResponse}
// @Failure 401 {object} response.ErrorResponse
// @Router /auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	result, err := h.svc.Login(c.Request.Context(), req)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, "Login successful", result)
}

// RefreshToken godoc
// @Summary Refresh access token
// @Description Exchange a refresh token for a new access token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RefreshRequest true "Refresh token"
// @Success 200 {object} response.APIResponse{data=RefreshResponse}
// @Failure 401 {object} response.ErrorResponse
// @Router /auth/refresh [post]
func (h *Handler) RefreshToken(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.HandleError(c, apperrors.ErrInvalidRefreshToken)
		return
	}

	result, err := h.svc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, "Token refreshed", result)
}

// Logout godoc
// @Summary Logout
// @Description Logs the user out. When a refresh token is supplied it is revoked.
// @Tags auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body LogoutRequest false "Refresh token to revoke"
// @Success 200 {object} response.APIResponse
// @Failure 401 {object} response.ErrorResponse
// @Router /auth/logout [post]
func (h *Handler) Logout(c *gin.Context) {
	p := middleware.MustPrincipal(c)

	// The body is optional.
	var req LogoutRequest
	_ = c.ShouldBindJSON(&req)

	if err := h.svc.Logout(c.Request.Context(), p.ID, req.RefreshToken); err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, "Logout successful", nil)
}

// ForgotPassword godoc
// @Summary Request password reset
// @Description Always answers 200 so registered emails cannot be discovered
// @Tags auth
// @Accept json
// @Produce json
// @Param request body ForgotPasswordRequest true "Email"
// @Success 200 {object} response.APIResponse{data=ForgotPasswordResponse}
// @Router /auth/forgot-password [post]
func (h *Handler) ForgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	const message = "If the email is registered, reset instructions were sent"

	token, err := h.svc.GeneratePasswordResetToken(c.Request.Context(), req.Email)
	if err != nil {
		if !errors.Is(err, apperrors.ErrUserNotFound) {
			logger.FromContext(c.Request.Context()).Warn("password reset token not generated", zap.Error(err))
		}
		response.Success(c, message, nil)
		return
	}

	var data *ForgotPasswordResponse
	if h.exposeTokens {
		data = &ForgotPasswordResponse{ResetToken: token}
	}
	response.Success(c, message, data)
}

// ResetPassword godoc
// @Summary Reset password
// @Description Set a new password using a reset token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body ResetPasswordRequest true "Token and new password"
// @Success 200 {object} response.APIResponse
// @Failure 400 {object} response.ErrorResponse
// @Router /auth/reset-password [post]
func (h *Handler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	if err := h.svc.ResetPassword(c.Request.Context(), req.Token, req.Password); err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, "Password reset successfully", nil)
}

// VerifyEmail godoc
// @Summary Verify email
// @Tags auth
// @Accept json
// @Produce json
// @Param request body VerifyEmailRequest true "Verification token"
// @Success 200 {object} response.APIResponse{data=User}
// @Failure 400 {object} response.ErrorResponse
// @Router /auth/verify-email [post]
func (h *Handler) VerifyEmail(c *gin.Context) {
	var req VerifyEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	user, err := h.svc.VerifyEmail(c.Request.Context(), req.Token)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, "Email verified", user)
}

// UpdateFCMToken godoc
// @Summary Register device token
// @Description Stores the Firebase Cloud Messaging token of the current device
// @Tags auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body FCMTokenRequest true "FCM token"
// @Success 200 {object} response.APIResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse
// @Router /auth/fcm-token [put]
func (h *Handler) UpdateFCMToken(c *gin.Context) {
	p := middleware.MustPrincipal(c)

	var req FCMTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	if err := h.svc.UpdateFCMToken(c.Request.Context(), p.ID, req.FCMToken); err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, "FCM token updated", nil)
}

// GetMe godoc
// @Summary Get current user
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.APIResponse{data=User}
// @Failure 401 {object} response.ErrorResponse
// @Router /auth/me [get]
func (h *Handler) GetMe(c *gin.Context) {
	p := middleware.MustPrincipal(c)

	user, err := h.svc.GetUser(c.Request.Context(), p.ID)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, "User retrieved", user)
}
