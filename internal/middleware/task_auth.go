package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/taskflow/task-tracker-api/internal/constants"
	apierrors "github.com/taskflow/task-tracker-api/internal/errors"
)

// RequireTaskID parses the :id path parameter of task routes. Whether the
// caller may see or act on the task is decided by the task service.
func RequireTaskID() gin.HandlerFunc {
	return func(c *gin.Context) {
		taskID, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil || taskID == 0 {
			apierrors.BadRequest(c, "Invalid task ID")
			return
		}

		c.Set(constants.ContextKeyTask, taskID)
		c.Next()
	}
}

// GetTaskID retrieves the task ID parsed by RequireTaskID
func GetTaskID(c *gin.Context) (uint64, bool) {
	value, exists := c.Get(constants.ContextKeyTask)
	if !exists {
		return 0, false
	}
	id, ok := value.(uint64)
	return id, ok
}
