package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/taskflow/task-tracker-api/internal/dto"
	apierrors "github.com/taskflow/task-tracker-api/internal/errors"
	"github.com/taskflow/task-tracker-api/internal/middleware"
	"github.com/taskflow/task-tracker-api/internal/models"
	"github.com/taskflow/task-tracker-api/internal/services"
)

// AuthHandler coordinates authentication-related HTTP handlers.
type AuthHandler struct {
	authService *services.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// Register creates a new user. Registration is open; the caller, if any, is
// only used for audit metadata.
func (h *AuthHandler) Register(c *gin.Context) {
	type RegisterRequest struct {
		Email          string           `json:"email" binding:"required,email,max=255"`
		Password       string           `json:"password" binding:"required"`
		FirstName      string           `json:"first_name" binding:"max=100"`
		LastName       string           `json:"last_name" binding:"max=100"`
		Role           *models.UserRole `json:"role" binding:"omitempty,userrole"`
		OrganizationID *uint64          `json:"organization_id"`
	}

	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.ValidationFailed(c, err)
		return
	}

	user, err := h.authService.Register(c.Request.Context(), &services.Caller{
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}, services.RegisterInput{
		Email:          req.Email,
		Password:       req.Password,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Role:           req.Role,
		OrganizationID: req.OrganizationID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToUserDTO(*user))
}

// Login verifies credentials and returns a bearer token.
func (h *AuthHandler) Login(c *gin.Context) {
	type LoginRequest struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.ValidationFailed(c, err)
		return
	}

	result, err := h.authService.Login(c.Request.Context(), services.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.LoginResponse{
		AccessToken: result.AccessToken,
		TokenType:   "Bearer",
		ExpiresIn:   h.authService.TokenTTL(),
		User:        dto.ToUserDTO(*result.User),
	})
}

// Status echoes the authenticated identity.
func (h *AuthHandler) Status(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	user, err := h.authService.GetUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.AuthStatusResponse{
		User:    dto.ToUserDTO(*user),
		Message: "Authenticated",
	})
}

// Logout revokes the presented token.
func (h *AuthHandler) Logout(c *gin.Context) {
	claims, exists := middleware.GetClaims(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	if err := h.authService.Logout(c.Request.Context(), claims); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Logged out successfully"})
}
