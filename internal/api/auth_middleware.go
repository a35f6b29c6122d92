package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"eshop/internal/auth"
	"eshop/internal/entity"
	"eshop/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const currentUserContextKey = "current-user"

// RequestUser is the resolved caller identity for one request.
type RequestUser struct {
	ID          uint
	Email       string
	DisplayName string
	// Role is the single claim the token was issued with; Roles is the
	// account's current set, used for per-route guards.
	Role  string
	Roles entity.RoleList
}

// HasRole reports whether the caller currently holds the role.
func (u *RequestUser) HasRole(role string) bool {
	if u == nil {
		return false
	}
	return u.Roles.Contains(role)
}

// IsAdmin reports whether the caller holds the ADMIN role.
func (u *RequestUser) IsAdmin() bool {
	return u.HasRole(entity.RoleAdmin)
}

// IdentityMiddleware establishes the caller identity before any handler runs.
// A missing Authorization header is not an error: the request continues
// anonymously and the policy table decides whether that suffices. A header
// carrying an invalid or expired token, or a token whose subject no longer
// resolves to an eligible account, short-circuits with 401.
func (h *HTTPHandler) IdentityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearerToken(c)
		if token == "" {
			c.Next()
			return
		}

		claims, err := h.tokens.Validate(token)
		if err != nil {
			code := ErrCodeTokenMalformed
			if errors.Is(err, auth.ErrTokenExpired) {
				code = ErrCodeTokenExpired
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, APIError{
				Code:    code,
				Message: "token is invalid or expired",
			})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		identity, err := h.users.ResolveIdentity(ctx, claims)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrAccountNotFound), errors.Is(err, service.ErrAccountNotActivated):
				logrus.WithError(err).WithField("subject", claims.Email()).Warn("token subject no longer eligible")
				c.AbortWithStatusJSON(http.StatusUnauthorized, APIError{
					Code:    ErrCodeUnauthorized,
					Message: "token subject is no longer valid",
				})
			default:
				logrus.WithError(err).WithField("subject", claims.Email()).Error("failed to resolve identity")
				c.AbortWithStatusJSON(http.StatusInternalServerError, APIError{
					Code:    ErrCodeInternalError,
					Message: "failed to resolve identity",
				})
			}
			return
		}

		c.Set(currentUserContextKey, &RequestUser{
			ID:          identity.ID,
			Email:       identity.Email,
			DisplayName: identity.DisplayName,
			Role:        identity.Role,
			Roles:       identity.Roles,
		})
		c.Next()
	}
}

// RequireRole guards a route with a per-operation role check.
func (h *HTTPHandler) RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil || !user.HasRole(role) {
			c.AbortWithStatusJSON(http.StatusForbidden, APIError{
				Code:    ErrCodeForbidden,
				Message: "insufficient privileges",
			})
			return
		}
		c.Next()
	}
}

// CurrentUser returns the identity attached to the request, or nil for an
// anonymous caller.
func CurrentUser(c *gin.Context) *RequestUser {
	value, exists := c.Get(currentUserContextKey)
	if !exists {
		return nil
	}
	user, ok := value.(*RequestUser)
	if !ok {
		return nil
	}
	return user
}

func extractBearerToken(c *gin.Context) string {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
