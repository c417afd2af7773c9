package users

import (
	"github.com/gin-gonic/gin"

	"github.com/xyz-asif/oipet/internal/middleware"
	"github.com/xyz-asif/oipet/internal/pkg/cloudinary"
	"github.com/xyz-asif/oipet/internal/pkg/response"
	apperrors "github.com/xyz-asif/oipet/pkg/errors"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// GetProfile godoc
// @Summary Get my profile
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.APIResponse{data=auth.User}
// @Failure 401 {object} response.ErrorResponse
// @Router /users/profile [get]
func (h *Handler) GetProfile(c *gin.Context) {
	p := middleware.MustPrincipal(c)

	user, err := h.svc.Profile(c.Request.Context(), p.ID)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, "Profile retrieved", user)
}

// UpdateProfile godoc
// @Summary Update my profile
// @Description Only name and phone can be changed here
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body UpdateProfileRequest true "Profile fields"
// @Success 200 {object} response.APIResponse{data=auth.User}
// @Failure 400 {object} response.ErrorResponse
// @Router /users/profile [put]
func (h *Handler) UpdateProfile(c *gin.Context) {
	p := middleware.MustPrincipal(c)

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	user, err := h.svc.UpdateProfile(c.Request.Context(), p.ID, req)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, "Profile updated", user)
}

// ChangePassword godoc
// @Summary Change my password
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ChangePasswordRequest true "Current and new password"
// @Success 200 {object} response.APIResponse
// @Failure 400 {object} response.ErrorResponse
// @Router /users/change-password [put]
func (h *Handler) ChangePassword(c *gin.Context) {
	p := middleware.MustPrincipal(c)

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	if err := h.svc.ChangePassword(c.Request.Context(), p.ID, req); err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, "Password changed", nil)
}

// DeleteAccount godoc
// @Summary Deactivate my account
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.APIResponse
// @Router /users/account [delete]
func (h *Handler) DeleteAccount(c *gin.Context) {
	p := middleware.MustPrincipal(c)

	if err := h.svc.Deactivate(c.Request.Context(), p.ID); err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, "Account deactivated", nil)
}

// UploadAvatar godoc
// @Summary Upload profile picture
// @Tags users
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param image formData file true "Image file (jpg, png, gif, webp; max 5MB)"
// @Success 200 {object} response.APIResponse{data=auth.User}
// @Failure 400 {object} response.ErrorResponse
// @Failure 503 {object} response.ErrorResponse
// @Router /users/avatar [post]
func (h *Handler) UploadAvatar(c *gin.Context) {
	p := middleware.MustPrincipal(c)

	header, err := c.FormFile("image")
	if err != nil {
		response.HandleError(c, apperrors.Validation("image file is required"))
		return
	}
	if err := cloudinary.ValidateImageFile(header); err != nil {
		response.HandleError(c, apperrors.Validation(err.Error()))
		return
	}
	file, err := header.Open()
	if err != nil {
		response.HandleError(c, apperrors.Internal(err))
		return
	}
	defer file.Close()

	user, err := h.svc.SetAvatar(c.Request.Context(), p.ID, file)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, "Profile picture updated", user)
}
