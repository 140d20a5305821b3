package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/william165-bot/net-hunter/internal/models"
)

// TokenManager handles JWT token generation and validation
type TokenManager struct {
	secret           []byte
	userTokenExpiry  time.Duration
	adminTokenExpiry time.Duration
	now              func() time.Time
}

// NewTokenManager creates a new TokenManager
func NewTokenManager(secret string, userExpiry, adminExpiry time.Duration) *TokenManager {
	return &TokenManager{
		secret:           []byte(secret),
		userTokenExpiry:  userExpiry,
		adminTokenExpiry: adminExpiry,
		now:              time.Now,
	}
}

// IssueUserToken signs a token whose subject is the account email
func (tm *TokenManager) IssueUserToken(email string) (string, error) {
	return tm.issue(email, models.RoleUser, tm.userTokenExpiry)
}

// IssueAdminToken signs a token for the console administrator
func (tm *TokenManager) IssueAdminToken(name string) (string, error) {
	return tm.issue(name, models.RoleAdmin, tm.adminTokenExpiry)
}

func (tm *TokenManager) issue(subject, role string, ttl time.Duration) (string, error) {
	now := tm.now()

	claims := &models.TokenClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", role, err)
	}

	return tokenString, nil
}

// ValidateToken verifies a token and returns its claims
func (tm *TokenManager) ValidateToken(tokenString string) (*models.TokenClaims, error) {
	claims := &models.TokenClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return tm.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(tm.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrUnauthorized, err)
	}

	if !token.Valid {
		return nil, models.ErrUnauthorized
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", models.ErrUnauthorized)
	}

	switch claims.Role {
	case models.RoleUser, models.RoleAdmin:
	default:
		return nil, fmt.Errorf("%w: unknown role %q", models.ErrUnauthorized, claims.Role)
	}

	return claims, nil
}
