package response

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/xyz-asif/oipet/internal/database"
	"github.com/xyz-asif/oipet/internal/pkg/logger"
	"github.com/xyz-asif/oipet/internal/pkg/pagination"
	apperrors "github.com/xyz-asif/oipet/pkg/errors"
)

// APIResponse is the success envelope.
type APIResponse struct {
	Success bool        `json:"success" example:"true"`
	Message string      `json:"message" example:"OK"`
	Data    interface{} `json:"data"`
}

// ErrorResponse represents a standard error payload returned by the API
type ErrorResponse struct {
	Success bool     `json:"success" example:"false"`
	Error   string   `json:"error" example:"invalid or expired token"`
	Code    string   `json:"code,omitempty" example:"INVALID_TOKEN"`
	Details []string `json:"details,omitempty"`
}

// Page wraps a list with its pagination block.
type Page struct {
	Items      interface{}            `json:"items"`
	Pagination *pagination.Pagination `json:"pagination"`
}

var exposeInternal atomic.Bool

// ExposeInternalErrors toggles cause text on 500 responses. Only enabled
// in development.
func ExposeInternalErrors(on bool) { exposeInternal.Store(on) }

// Success sends a 200 OK response with data
func Success(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Message: message, Data: data})
}

// Created sends a 201 Created response
func Created(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusCreated, APIResponse{Success: true, Message: message, Data: data})
}

// Paginated sends a 200 with items and pagination metadata
func Paginated(c *gin.Context, message string, items interface{}, p *pagination.Pagination) {
	Success(c, message, Page{Items: items, Pagination: p})
}

// Error sends an error response with custom status code and message
func Error(c *gin.Context, statusCode int, message string, code string, details ...string) {
	c.JSON(statusCode, ErrorResponse{
		Error:   message,
		Code:    code,
		Details: details,
	})
}

// Abort writes the error envelope for err and stops the handler chain.
func Abort(c *gin.Context, err error) {
	HandleError(c, err)
	c.Abort()
}

// HandleError is the single mapping from errors to HTTP responses.
func HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	lg := logger.FromContext(c.Request.Context())

	if appErr, ok := apperrors.As(err); ok {
		if appErr.Status >= http.StatusInternalServerError {
			lg.Error("request failed", zap.String("code", appErr.Code()), zap.Error(err))
		}
		message := appErr.Message
		if appErr.Kind == apperrors.KindInternal && exposeInternal.Load() && appErr.Err != nil {
			message = message + ": " + appErr.Err.Error()
		}
		Error(c, appErr.Status, message, appErr.Code(), appErr.Details...)
		return
	}

	if database.IsUnavailable(err) || errors.Is(err, context.DeadlineExceeded) {
		lg.Error("store unavailable", zap.Error(err))
		unavailable := apperrors.ErrUnavailable
		Error(c, unavailable.Status, unavailable.Message, unavailable.Code())
		return
	}

	lg.Error("unhandled error", zap.Error(err), zap.Stack("stack"))
	message := apperrors.ErrInternal.Message
	if exposeInternal.Load() {
		message = message + ": " + err.Error()
	}
	Error(c, http.StatusInternalServerError, message, apperrors.ErrInternal.Code())
}

// BindError reports a request body or query that failed to bind.
func BindError(c *gin.Context, err error) {
	HandleError(c, apperrors.Validation("invalid request format", err.Error()))
}

// ParamID parses an ObjectID path parameter. A malformed id is answered
// exactly like a missing resource.
func ParamID(c *gin.Context, name, resource string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		HandleError(c, apperrors.NotFound(resource))
		return primitive.NilObjectID, false
	}
	return id, true
}
