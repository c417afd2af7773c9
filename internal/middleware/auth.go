package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/xyz-asif/oipet/internal/pkg/response"
	apperrors "github.com/xyz-asif/oipet/pkg/errors"
)

// Principal is the authenticated caller attached to each request.
type Principal struct {
	ID              primitive.ObjectID
	Email           string
	IsAdmin         bool
	IsEmailVerified bool
}

// Authenticator turns an access token into a Principal. Implementations
// must re-check the stored user so deactivated accounts are refused.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*Principal, error)
}

const principalKey = "principal"

type principalCtxKey struct{}

// Authenticate requires a valid bearer access token.
func Authenticate(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			response.Abort(c, apperrors.ErrMissingToken)
			return
		}

		principal, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			response.Abort(c, err)
			return
		}

		c.Set(principalKey, principal)
		c.Set("userID", principal.ID.Hex())
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), principalCtxKey{}, principal))
		c.Next()
	}
}

// RequireAdmin must run after Authenticate.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := CurrentPrincipal(c)
		if !ok {
			response.Abort(c, apperrors.ErrMissingToken)
			return
		}
		if !p.IsAdmin {
			response.Abort(c, apperrors.Forbidden("admin privileges required"))
			return
		}
		c.Next()
	}
}

// CurrentPrincipal returns the caller set by Authenticate.
func CurrentPrincipal(c *gin.Context) (*Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return nil, false
	}
	p, ok := v.(*Principal)
	return p, ok && p != nil
}

// MustPrincipal is CurrentPrincipal for routes mounted behind
// Authenticate. It panics when the middleware is missing.
func MustPrincipal(c *gin.Context) *Principal {
	p, ok := CurrentPrincipal(c)
	if !ok {
		panic("middleware: no principal on context; route is missing Authenticate")
	}
	return p
}

// PrincipalFromContext reads the caller from a request context.
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalCtxKey{}).(*Principal)
	return p, ok && p != nil
}

// bearerToken accepts "Bearer <token>" with any casing of the scheme.
func bearerToken(header string) (string, bool) {
	fields := strings.Fields(header)
	if len(fields) != 2 || !strings.EqualFold(fields[0], "Bearer") {
		return "", false
	}
	return fields[1], true
}
