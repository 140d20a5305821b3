package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// Token roles
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// TokenClaims carries the subject (account email, or "admin") and its role.
type TokenClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}
