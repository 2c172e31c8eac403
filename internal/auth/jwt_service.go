package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/taskflow/task-tracker-api/internal/constants"
	"github.com/taskflow/task-tracker-api/internal/models"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims carries the identity the API needs to authorize a request without a
// database round trip. Role and organization are refreshed from the user row
// by the auth middleware.
type Claims struct {
	UserID         uint64          `json:"user_id"`
	Email          string          `json:"email"`
	Role           models.UserRole `json:"role"`
	OrganizationID *uint64         `json:"organization_id,omitempty"`
	jwt.RegisteredClaims
}

// JWTService handles JWT token generation and validation.
type JWTService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewJWTService creates a new JWT service. A non-positive ttl falls back to one hour.
func NewJWTService(secret string, ttl time.Duration) *JWTService {
	if ttl <= 0 {
		ttl = constants.DefaultTokenTTL
	}
	return &JWTService{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// TTL returns the lifetime of issued tokens.
func (s *JWTService) TTL() time.Duration {
	return s.ttl
}

// GenerateAccessToken signs a new access token for the user. Each token gets
// a unique id so it can be revoked on logout.
func (s *JWTService) GenerateAccessToken(user *models.User) (string, *Claims, error) {
	now := s.now()
	claims := &Claims{
		UserID:         user.ID,
		Email:          user.Email,
		Role:           user.Role,
		OrganizationID: user.OrganizationID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", nil, err
	}
	return signed, claims, nil
}

// ValidateToken validates a JWT token and returns the claims.
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == 0 {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Remaining reports how long the token described by claims stays valid.
func (s *JWTService) Remaining(claims *Claims) time.Duration {
	if claims == nil || claims.ExpiresAt == nil {
		return 0
	}
	return claims.ExpiresAt.Sub(s.now())
}
