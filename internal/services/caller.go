package services

import (
	"errors"

	"github.com/taskflow/task-tracker-api/internal/policy"
)

var (
	ErrUnauthenticated  = errors.New("authentication required")
	ErrPermissionDenied = errors.New("permission denied")
)

// Caller is the authenticated actor of a request plus the client metadata
// stored on audit rows.
type Caller struct {
	policy.Actor
	IPAddress string
	UserAgent string
}

// actor returns nil for a nil caller so policy checks fail closed.
func (c *Caller) actor() *policy.Actor {
	if c == nil || c.ID == 0 {
		return nil
	}
	return &c.Actor
}
