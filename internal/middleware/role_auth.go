package middleware

import (
	"github.com/gin-gonic/gin"
	apierrors "github.com/taskflow/task-tracker-api/internal/errors"
	"github.com/taskflow/task-tracker-api/internal/models"
)

// RequireRole lets the request through only when the caller holds one of roles.
// It must run after RequireAuth.
func RequireRole(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := GetCaller(c)
		if !ok {
			apierrors.Unauthorized(c, "")
			return
		}

		for _, role := range roles {
			if caller.Role == role {
				c.Next()
				return
			}
		}
		apierrors.Forbidden(c, "Insufficient role for this action")
	}
}
