package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/taskflow/task-tracker-api/internal/constants"
	"github.com/taskflow/task-tracker-api/internal/models"
	"github.com/taskflow/task-tracker-api/internal/repository"
	"github.com/taskflow/task-tracker-api/internal/utils"
	"gorm.io/datatypes"
)

var (
	ErrInvalidAuditEntry = errors.New("audit entry is missing a required field")
	ErrInvalidResource   = errors.New("resource must be one of task, user, organization")
)

// AuditEntry describes one event. Description, Changes and the network
// metadata are optional.
type AuditEntry struct {
	Action         models.AuditAction
	Resource       models.AuditResource
	ResourceID     uint64
	UserID         uint64
	OrganizationID uint64
	Description    string
	Changes        interface{}
	IPAddress      string
	UserAgent      string
}

// Recorder appends audit records.
type Recorder interface {
	Record(ctx context.Context, entry AuditEntry) (*models.AuditLog, error)
}

// AuditPage is one result of an audit query. Total counts every matching row.
type AuditPage struct {
	Logs  []models.AuditLog
	Total int64
	Page  int
	Limit int
}

// AuditService records audit events and serves the audit queries.
type AuditService struct {
	auditRepo repository.AuditLogRepository
	now       func() time.Time
}

var _ Recorder = (*AuditService)(nil)

// NewAuditService creates a new AuditService
func NewAuditService(auditRepo repository.AuditLogRepository) *AuditService {
	return &AuditService{auditRepo: auditRepo, now: time.Now}
}

// Record validates and stores one entry.
func (s *AuditService) Record(ctx context.Context, entry AuditEntry) (*models.AuditLog, error) {
	if !entry.Action.Valid() || !entry.Resource.Valid() ||
		entry.ResourceID == 0 || entry.UserID == 0 || entry.OrganizationID == 0 {
		return nil, ErrInvalidAuditEntry
	}

	row := &models.AuditLog{
		Action:         entry.Action,
		Resource:       entry.Resource,
		ResourceID:     entry.ResourceID,
		Description:    entry.Description,
		UserID:         entry.UserID,
		OrganizationID: entry.OrganizationID,
		IPAddress:      entry.IPAddress,
		UserAgent:      entry.UserAgent,
	}
	if entry.Changes != nil {
		payload, err := json.Marshal(entry.Changes)
		if err != nil {
			return nil, fmt.Errorf("failed to encode audit changes: %w", err)
		}
		row.Changes = datatypes.JSON(payload)
	}

	if err := s.auditRepo.Create(ctx, row); err != nil {
		return nil, fmt.Errorf("failed to write audit log: %w", err)
	}
	return row, nil
}

// OrganizationLogs pages through the caller's organization
func (s *AuditService) OrganizationLogs(ctx context.Context, caller *Caller, params utils.PaginationParams) (*AuditPage, error) {
	actor := caller.actor()
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	logs, total, err := s.auditRepo.FindByOrganization(ctx, actor.Organization(), params)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}
	return &AuditPage{Logs: logs, Total: total, Page: params.Page, Limit: params.Limit}, nil
}

// UserLogs pages through one user's actions inside the caller's organization
func (s *AuditService) UserLogs(ctx context.Context, caller *Caller, userID uint64, params utils.PaginationParams) (*AuditPage, error) {
	actor := caller.actor()
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	logs, total, err := s.auditRepo.FindByUser(ctx, userID, actor.Organization(), params)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}
	return &AuditPage{Logs: logs, Total: total, Page: params.Page, Limit: params.Limit}, nil
}

// MyActivity pages through the caller's own actions
func (s *AuditService) MyActivity(ctx context.Context, caller *Caller, params utils.PaginationParams) (*AuditPage, error) {
	if caller.actor() == nil {
		return nil, ErrUnauthenticated
	}
	return s.UserLogs(ctx, caller, caller.ID, params)
}

// ResourceLogs returns the whole history of one resource
func (s *AuditService) ResourceLogs(ctx context.Context, caller *Caller, resource models.AuditResource, resourceID uint64) (*AuditPage, error) {
	actor := caller.actor()
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	if !resource.Valid() {
		return nil, ErrInvalidResource
	}
	logs, err := s.auditRepo.FindByResource(ctx, resource, resourceID, actor.Organization())
	if err != nil {
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}
	return &AuditPage{Logs: logs, Total: int64(len(logs))}, nil
}

// RecentActivity returns everything from the last days days. Out of range
// values fall back to the default window.
func (s *AuditService) RecentActivity(ctx context.Context, caller *Caller, days int) (*AuditPage, error) {
	actor := caller.actor()
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	if days < 1 || days > constants.MaxRecentActivityDays {
		days = constants.DefaultRecentActivityDays
	}
	since := s.now().AddDate(0, 0, -days)
	logs, err := s.auditRepo.FindSince(ctx, actor.Organization(), since)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}
	return &AuditPage{Logs: logs, Total: int64(len(logs))}, nil
}

// auditTrail writes audit entries on behalf of other services. Failures are
// logged and never returned.
type auditTrail struct {
	recorder Recorder
	logger   *slog.Logger
}

func newAuditTrail(recorder Recorder, logger *slog.Logger) auditTrail {
	if logger == nil {
		logger = slog.Default()
	}
	return auditTrail{recorder: recorder, logger: logger}
}

func (t auditTrail) record(ctx context.Context, caller *Caller, entry AuditEntry) {
	if t.recorder == nil {
		return
	}
	if caller != nil {
		entry.IPAddress = caller.IPAddress
		entry.UserAgent = caller.UserAgent
	}

	defer func() {
		if r := recover(); r != nil {
			t.logger.ErrorContext(ctx, "audit recorder panicked",
				"action", entry.Action, "resource", entry.Resource, "resource_id", entry.ResourceID, "panic", r)
		}
	}()

	if _, err := t.recorder.Record(ctx, entry); err != nil {
		t.logger.ErrorContext(ctx, "failed to write audit log",
			"action", entry.Action, "resource", entry.Resource, "resource_id", entry.ResourceID,
			"user_id", entry.UserID, "organization_id", entry.OrganizationID, "error", err)
	}
}
