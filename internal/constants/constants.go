package constants

import "time"

// Context keys set by the auth middleware
const (
	ContextKeyUserID = "user_id"
	ContextKeyActor  = "actor"
	ContextKeyClaims = "claims"
	ContextKeyTask   = "task_id"
)

// Pagination
const (
	DefaultPage     = 1
	MinPageSize     = 1
	DefaultPageSize = 50
	MaxPageSize     = 100
)

// Credentials
const (
	MinPasswordLength = 6
	BcryptCost        = 10
)

// DefaultOrganizationID is the tenant assumed for users and tasks that carry no organization.
const DefaultOrganizationID uint64 = 1

// Audit queries
const (
	DefaultRecentActivityDays = 7
	MaxRecentActivityDays     = 365
)

// Tokens
const (
	DefaultTokenTTL  = time.Hour
	BearerPrefix     = "Bearer "
	KeepAliveDefault = 5 * time.Minute
)

// Task suggestions
const MaxSuggestedTasks = 20

// Seed data
const (
	SeedOrganizationName        = "Test Organization"
	SeedOrganizationDescription = "A test organization for development purposes"
	SeedPassword                = "123456"
)
