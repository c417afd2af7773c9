package notifications

import (
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

// ListNotifications godoc
// @Summary List notifications
// @Description Unread first, newest first. Expired notifications are hidden.
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number (default 1)"
// @Param limit query int false "Items per page (default 10, max 100)"
// @Param unreadOnly query bool false "Only show unread"
// @Param type query string false "Notification type"
// @Success 200 {object} response.APIResponse{data=ListResponse}
// @Failure 401 {object} response.ErrorResponse
// @Router /notifications [get]
func (h *Handler) ListNotifications(c *gin.Context) {
	p := middleware.MustPrincipal(c)

	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BindError(c, err)
		return
	}

	list, err := h.svc.List(c.Request.Context(), p.ID, q)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, "Notifications retrieved", list)
}

// GetUnreadCount godoc
// @Summary Get unread count
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.APIResponse{data=UnreadCountResponse}
// @Router /notifications/unread [get]
func (h *Handler) GetUnreadCount(c *gin.Context) {
	p := middleware.MustPrincipal(c)

	count, err := h.svc.UnreadCount(c.Request.Context(), p.ID)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, "Unread count retrieved", UnreadCountResponse{UnreadCount: count})
}

// GetStats godoc
// @Summary Notification statistics
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.APIResponse{data=Stats}
// @Router /notifications/stats [get]
func (h *Handler) GetStats(c *gin.Context) {
	p := middleware.MustPrincipal(c)

	stats, err := h.svc.Stats(c.Request.Context(), p.ID)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, "Notification statistics", stats)
}

// MarkAsRead godoc
// @Summary Mark notification as read
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Param id path string true "Notification ID"
// @Success 200 {object} response.APIResponse{data=Notification}
// @Failure 404 {object} response.ErrorResponse
// @Router /notifications/{id}/read [put]
func (h *Handler) MarkAsRead(c *gin.Context) {
	p := middleware.MustPrincipal(c)
	id, ok := response.ParamID(c, "id", "notification")
	if !ok {
		return
	}

	n, err := h.svc.MarkRead(c.Request.Context(), p.ID, id)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, "Notification marked as read", n)
}

// MarkAllAsRead godoc
// @Summary Mark all notifications as read
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.APIResponse{data=MarkAllReadResponse}
// @Router /notifications/read-all [put]
func (h *Handler) MarkAllAsRead(c *gin.Context) {
	p := middleware.MustPrincipal(c)

	count, err := h.svc.MarkAllRead(c.Request.Context(), p.ID)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, "All notifications marked as read", MarkAllReadResponse{MarkedCount: count})
}

// DeleteNotification godoc
// @Summary Delete a notification
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Param id path string true "Notification ID"
// @Success 200 {object} response.APIResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /notifications/{id} [delete]
func (h *Handler) DeleteNotification(c *gin.Context) {
	p := middleware.MustPrincipal(c)
	id, ok := response.ParamID(c, "id", "notification")
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), p.ID, id); err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, "Notification deleted", nil)
}

// Send godoc
// @Summary Send a notification to one user (admin)
// @Tags notifications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body SendRequest true "Notification"
// @Success 201 {object} response.APIResponse{data=Notification}
// @Failure 400 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /notifications/admin/send [post]
func (h *Handler) Send(c *gin.Context) {
	var req SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	n, err := h.svc.Send(c.Request.Context(), req)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Created(c, "Notification sent", n)
}

// Broadcast godoc
// @Summary Send a notification to every active user (admin)
// @Tags notifications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body BroadcastRequest true "Notification"
// @Success 201 {object} response.APIResponse{data=BroadcastResult}
// @Failure 400 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Router /notifications/admin/broadcast [post]
func (h *Handler) Broadcast(c *gin.Context) {
	var req BroadcastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	result, err := h.svc.Broadcast(c.Request.Context(), req)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Created(c, "Notification broadcast", result)
}

// Cleanup godoc
// @Summary Delete expired notifications (admin)
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.APIResponse{data=CleanupResult}
// @Failure 403 {object} response.ErrorResponse
// @Router /notifications/admin/cleanup [delete]
func (h *Handler) Cleanup(c *gin.Context) {
	deleted, err := h.svc.Cleanup(c.Request.Context())
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, "Expired notifications removed", CleanupResult{Deleted: deleted})
}
