package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/taskflow/task-tracker-api/internal/auth"
	"github.com/taskflow/task-tracker-api/internal/constants"
	"github.com/taskflow/task-tracker-api/internal/models"
	"github.com/taskflow/task-tracker-api/internal/policy"
	"github.com/taskflow/task-tracker-api/internal/repository"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrEmailTaken           = errors.New("email already registered")
	ErrEmailRequired        = errors.New("email is required")
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrPasswordTooShort     = errors.New("password too short")
	ErrInvalidRole          = errors.New("role must be one of owner, admin, viewer, member")
	ErrUserNotFound         = errors.New("user not found")
	ErrOrganizationNotFound = errors.New("organization not found")
	ErrTokenRevoked         = errors.New("token has been revoked")
	ErrFailedToHashPassword = errors.New("failed to hash password")
)

// AuthService handles authentication related business logic.
type AuthService struct {
	userRepo      repository.UserRepository
	orgRepo       repository.OrganizationRepository
	jwt           *auth.JWTService
	tokens        auth.TokenStoreInterface
	audit         auditTrail
	strictTenancy bool
}

// AuthServiceConfig holds the optional settings of AuthService.
type AuthServiceConfig struct {
	Logger *slog.Logger
	// StrictTenancy makes organization_id mandatory at registration.
	StrictTenancy bool
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repository.UserRepository, orgRepo repository.OrganizationRepository, jwt *auth.JWTService, tokens auth.TokenStoreInterface, recorder Recorder, cfg AuthServiceConfig) *AuthService {
	return &AuthService{
		userRepo:      userRepo,
		orgRepo:       orgRepo,
		jwt:           jwt,
		tokens:        tokens,
		audit:         newAuditTrail(recorder, cfg.Logger),
		strictTenancy: cfg.StrictTenancy,
	}
}

// RegisterInput represents the required information to create a new user.
type RegisterInput struct {
	Email          string
	Password       string
	FirstName      string
	LastName       string
	Role           *models.UserRole
	OrganizationID *uint64
}

// Register creates a new user. The role defaults to viewer.
func (s *AuthService) Register(ctx context.Context, caller *Caller, input RegisterInput) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, ErrEmailRequired
	}
	if len(input.Password) < constants.MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	role := models.RoleViewer
	if input.Role != nil {
		if !input.Role.Valid() {
			return nil, ErrInvalidRole
		}
		role = *input.Role
	}

	orgID := input.OrganizationID
	if orgID != nil && *orgID == 0 {
		orgID = nil
	}
	if orgID == nil && s.strictTenancy {
		return nil, ErrOrganizationRequired
	}
	if orgID != nil {
		if _, err := s.orgRepo.FindByID(ctx, *orgID, false); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrOrganizationNotFound
			}
			return nil, fmt.Errorf("failed to check organization: %w", err)
		}
	}

	if _, err := s.userRepo.FindByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), constants.BcryptCost)
	if err != nil {
		return nil, ErrFailedToHashPassword
	}

	user := &models.User{
		Email:          email,
		PasswordHash:   string(hashedPassword),
		FirstName:      strings.TrimSpace(input.FirstName),
		LastName:       strings.TrimSpace(input.LastName),
		Role:           role,
		OrganizationID: orgID,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.audit.record(ctx, caller, AuditEntry{
		Action:         models.AuditActionCreate,
		Resource:       models.AuditResourceUser,
		ResourceID:     user.ID,
		UserID:         user.ID,
		OrganizationID: policy.OrgOrDefault(user.OrganizationID),
		Description:    fmt.Sprintf("User %s registered with role %s", user.Email, user.Role),
		Changes:        map[string]interface{}{"email": user.Email, "role": user.Role, "organization_id": user.OrganizationID},
	})

	return user, nil
}

// LoginInput holds the credentials for authentication.
type LoginInput struct {
	Email    string
	Password string
}

// LoginResult is a signed access token and the user it was issued to.
type LoginResult struct {
	AccessToken string
	Claims      *auth.Claims
	User        *models.User
}

// Login verifies credentials and issues an access token.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	user, err := s.userRepo.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, claims, err := s.jwt.GenerateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &LoginResult{AccessToken: token, Claims: claims, User: user}, nil
}

// Authenticate validates a bearer token and loads its user. Role and
// organization come from the stored user, so changes apply before the token expires.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.User, *auth.Claims, error) {
	claims, err := s.jwt.ValidateToken(token)
	if err != nil {
		return nil, nil, err
	}

	if s.tokens != nil {
		revoked, err := s.tokens.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to check revocation: %w", err)
		}
		if revoked {
			return nil, nil, ErrTokenRevoked
		}
	}

	user, err := s.GetUser(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, nil, ErrUnauthenticated
		}
		return nil, nil, err
	}
	return user, claims, nil
}

// Logout revokes the token described by claims until it would expire.
func (s *AuthService) Logout(ctx context.Context, claims *auth.Claims) error {
	if claims == nil {
		return ErrUnauthenticated
	}
	if s.tokens == nil {
		return nil
	}
	if err := s.tokens.Revoke(ctx, claims.ID, s.jwt.Remaining(claims)); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// TokenTTL is the lifetime of issued tokens.
func (s *AuthService) TokenTTL() int64 {
	return int64(s.jwt.TTL().Seconds())
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(ctx context.Context, id uint64) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return user, nil
}
