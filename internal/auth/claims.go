package auth

import (
	ierr "github.com/wayfarer-travel/wayfarer/internal/errors"
	"github.com/wayfarer-travel/wayfarer/internal/types"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims is the claim set embedded in access tokens issued by the
// auth backend. The role claim is authoritative only immediately after
// a forced refresh; anywhere else it is a display hint.
type TokenClaims struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// ParseToken verifies the token signature and returns its claims
func ParseToken(secret string, tokenString string) (*TokenClaims, error) {
	claims := &TokenClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ierr.NewError("unexpected token signing method").
				WithHint("Invalid token").
				Mark(ierr.ErrPermissionDenied)
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Invalid or expired token").
			Mark(ierr.ErrPermissionDenied)
	}

	if !token.Valid || claims.UserID == "" {
		return nil, ierr.NewError("invalid token claims").
			WithHint("Invalid or expired token").
			Mark(ierr.ErrPermissionDenied)
	}

	return claims, nil
}

// RoleFromClaims maps the raw role claim to a known role, defaulting
// to the unprivileged role for unknown values
func RoleFromClaims(claims *TokenClaims) types.UserRole {
	role := types.UserRole(claims.Role)
	if err := role.Validate(); err != nil {
		return types.UserRoleUser
	}
	return role
}
