package admin

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/xyz-asif/oipet/internal/middleware"
	"github.com/xyz-asif/oipet/internal/pkg/response"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Dashboard godoc
// @Summary Platform overview
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.APIResponse{data=Dashboard}
// @Failure 403 {object} response.ErrorResponse
// @Router /admin/dashboard [get]
func (h *Handler) Dashboard(c *gin.Context) {
	d, err := h.svc.Dashboard(c.Request.Context())
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, "Dashboard retrieved", d)
}

// Report godoc
// @Summary Activity report
// @Description Registrations, engagement and most active users over the last day, week or month
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param period path string true "daily, weekly or monthly"
// @Success 200 {object} response.APIResponse{data=Report}
// @Failure 400 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Router /admin/reports/{period} [get]
func (h *Handler) Report(c *gin.Context) {
	period := ReportPeriod(strings.ToLower(c.Param("period")))
	rep, err := h.svc.Report(c.Request.Context(), period)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, "Report generated", rep)
}

// ListUsers godoc
// @Summary List users
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param limit query int false "Items per page (max 100)"
// @Param search query string false "Name or email contains"
// @Success 200 {object} response.APIResponse{data=response.Page{items=[]auth.User}}
// @Failure 403 {object} response.ErrorResponse
// @Router /admin/users [get]
func (h *Handler) ListUsers(c *gin.Context) {
	var q ListUsersQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BindError(c, err)
		return
	}
	items, page, err := h.svc.ListUsers(c.Request.Context(), q)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Paginated(c, "Users retrieved", items, page)
}

// GetUser godoc
// @Summary Get a user
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} response.APIResponse{data=auth.User}
// @Failure 404 {object} response.ErrorResponse
// @Router /admin/users/{id} [get]
func (h *Handler) GetUser(c *gin.Context) {
	id, ok := response.ParamID(c, "id", "user")
	if !ok {
		return
	}
	user, err := h.svc.GetUser(c.Request.Context(), id)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, "User retrieved", user)
}

// UpdateUser godoc
// @Summary Update a user
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param request body UpdateUserRequest true "Fields to change"
// @Success 200 {object} response.APIResponse{data=auth.User}
// @Failure 400 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /admin/users/{id} [put]
func (h *Handler) UpdateUser(c *gin.Context) {
	p := middleware.MustPrincipal(c)
	id, ok := response.ParamID(c, "id", "user")
	if !ok {
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	user, err := h.svc.UpdateUser(c.Request.Context(), p.ID, id, req)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, "User updated", user)
}

// DeleteUser godoc
// @Summary Delete a user
// @Description Admin accounts and the caller's own account cannot be deleted
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} response.APIResponse
// @Failure 403 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /admin/users/{id} [delete]
func (h *Handler) DeleteUser(c *gin.Context) {
	p := middleware.MustPrincipal(c)
	id, ok := response.ParamID(c, "id", "user")
	if !ok {
		return
	}
	if err := h.svc.DeleteUser(c.Request.Context(), p.ID, id); err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, "User deleted", nil)
}
