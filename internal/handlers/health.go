package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apierrors "github.com/taskflow/task-tracker-api/internal/errors"
	"gorm.io/gorm"
)

type HealthHandler struct {
	db *gorm.DB
}

func NewHealthHandler(db *gorm.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// Health reports whether the database answers
func (h *HealthHandler) Health(c *gin.Context) {
	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		apierrors.ServiceUnavailable(c, "Database unavailable")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
