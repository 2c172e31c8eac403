package middleware

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/taskflow/task-tracker-api/internal/auth"
	"github.com/taskflow/task-tracker-api/internal/constants"
	apierrors "github.com/taskflow/task-tracker-api/internal/errors"
	"github.com/taskflow/task-tracker-api/internal/models"
	"github.com/taskflow/task-tracker-api/internal/policy"
	"github.com/taskflow/task-tracker-api/internal/services"
)

// Authenticator resolves a bearer token to its user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, *auth.Claims, error)
}

// RequireAuth checks the bearer token and stores the caller in the context
func RequireAuth(authenticator Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			apierrors.Unauthorized(c, "Missing bearer token")
			return
		}

		user, claims, err := authenticator.Authenticate(c.Request.Context(), token)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrInvalidToken):
				apierrors.Unauthorized(c, "Invalid or expired token")
			case errors.Is(err, services.ErrTokenRevoked):
				apierrors.Unauthorized(c, "Token has been revoked")
			case errors.Is(err, services.ErrUnauthenticated):
				apierrors.Unauthorized(c, "")
			default:
				log.Printf("authentication failed: %v", err)
				apierrors.InternalError(c, "")
			}
			return
		}

		caller := &services.Caller{
			Actor: policy.Actor{
				ID:             user.ID,
				Role:           user.Role,
				OrganizationID: user.OrganizationID,
			},
			IPAddress: c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
		}

		c.Set(constants.ContextKeyUserID, user.ID)
		c.Set(constants.ContextKeyActor, caller)
		c.Set(constants.ContextKeyClaims, claims)
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	if len(header) < len(constants.BearerPrefix) ||
		!strings.EqualFold(header[:len(constants.BearerPrefix)], constants.BearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(constants.BearerPrefix):])
	return token, token != ""
}

// GetUserID retrieves the current user ID from context
func GetUserID(c *gin.Context) (uint64, bool) {
	userID, exists := c.Get(constants.ContextKeyUserID)
	if !exists {
		return 0, false
	}
	id, ok := userID.(uint64)
	return id, ok
}

// GetCaller retrieves the authenticated caller set by RequireAuth
func GetCaller(c *gin.Context) (*services.Caller, bool) {
	value, exists := c.Get(constants.ContextKeyActor)
	if !exists {
		return nil, false
	}
	caller, ok := value.(*services.Caller)
	return caller, ok && caller != nil
}

// GetClaims retrieves the validated token claims
func GetClaims(c *gin.Context) (*auth.Claims, bool) {
	value, exists := c.Get(constants.ContextKeyClaims)
	if !exists {
		return nil, false
	}
	claims, ok := value.(*auth.Claims)
	return claims, ok && claims != nil
}
