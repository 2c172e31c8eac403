package handlers

import (
	"errors"
	"fmt"
	"log"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/taskflow/task-tracker-api/internal/constants"
	apierrors "github.com/taskflow/task-tracker-api/internal/errors"
	"github.com/taskflow/task-tracker-api/internal/middleware"
	"github.com/taskflow/task-tracker-api/internal/services"
	"github.com/taskflow/task-tracker-api/internal/workflow"
)

// respondError translates service errors into API errors
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrUnauthenticated):
		apierrors.Unauthorized(c, "")
	case errors.Is(err, services.ErrInvalidCredentials):
		apierrors.InvalidCredentials(c)
	case errors.Is(err, services.ErrPermissionDenied):
		apierrors.Forbidden(c, "You do not have permission to perform this action")

	case errors.Is(err, services.ErrTaskNotFound),
		errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrOrganizationNotFound):
		apierrors.NotFound(c, err.Error())

	case errors.Is(err, services.ErrPasswordTooShort):
		apierrors.BadRequest(c, fmt.Sprintf("Password must be at least %d characters", constants.MinPasswordLength))
	case errors.Is(err, workflow.ErrInvalidStatus),
		errors.Is(err, workflow.ErrStatusConflict),
		errors.Is(err, services.ErrTitleRequired),
		errors.Is(err, services.ErrInvalidCategory),
		errors.Is(err, services.ErrInvalidAssignee),
		errors.Is(err, services.ErrNoChanges),
		errors.Is(err, services.ErrOrganizationRequired),
		errors.Is(err, services.ErrOrganizationMismatch),
		errors.Is(err, services.ErrEmailRequired),
		errors.Is(err, services.ErrInvalidRole),
		errors.Is(err, services.ErrInvalidOrganizationName),
		errors.Is(err, services.ErrInvalidResource),
		errors.Is(err, services.ErrAINoTasksGenerated),
		errors.Is(err, services.ErrAINoValidTasks):
		apierrors.BadRequest(c, err.Error())

	case errors.Is(err, services.ErrEmailTaken),
		errors.Is(err, services.ErrOrganizationNameTaken):
		apierrors.Conflict(c, err.Error())

	case errors.Is(err, services.ErrAIServiceNotConfigured):
		apierrors.ServiceUnavailable(c, "Task suggestions are not available: OPENAI_API_KEY is not set")

	default:
		log.Printf("%s %s: %v", c.Request.Method, c.FullPath(), err)
		apierrors.InternalError(c, "")
	}
}

// currentCaller returns the authenticated caller or writes a 401
func currentCaller(c *gin.Context) (*services.Caller, bool) {
	caller, ok := middleware.GetCaller(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return nil, false
	}
	return caller, true
}

// parseIDParam reads a positive numeric path parameter or writes a 400
func parseIDParam(c *gin.Context, name, label string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		apierrors.BadRequest(c, fmt.Sprintf("Invalid %s ID", label))
		return 0, false
	}
	return id, true
}
