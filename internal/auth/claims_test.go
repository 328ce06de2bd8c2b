package auth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wayfarer-travel/wayfarer/internal/auth"
	"github.com/wayfarer-travel/wayfarer/internal/testutil"
	"github.com/wayfarer-travel/wayfarer/internal/types"
)

func TestParseToken(t *testing.T) {
	token := testutil.SignTestToken("user_42", types.UserRolePremium)

	claims, err := auth.ParseToken(testutil.TestSigningSecret, token)
	require.NoError(t, err)
	assert.Equal(t, "user_42", claims.UserID)
	assert.Equal(t, types.UserRolePremium, auth.RoleFromClaims(claims))
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	token := testutil.SignTestToken("user_42", types.UserRolePremium)

	_, err := auth.ParseToken("another-secret", token)
	assert.Error(t, err)
}

func TestParseTokenRejectsExpired(t *testing.T) {
	claims := auth.TokenClaims{
		UserID: "user_42",
		Role:   string(types.UserRoleUser),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().UTC().Add(-time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
		SignedString([]byte(testutil.TestSigningSecret))
	require.NoError(t, err)

	_, err = auth.ParseToken(testutil.TestSigningSecret, signed)
	assert.Error(t, err)
}

func TestParseTokenRejectsMissingUser(t *testing.T) {
	claims := auth.TokenClaims{
		Role: string(types.UserRoleUser),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().UTC().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
		SignedString([]byte(testutil.TestSigningSecret))
	require.NoError(t, err)

	_, err = auth.ParseToken(testutil.TestSigningSecret, signed)
	assert.Error(t, err)
}

func TestRoleFromClaimsDefaultsUnknownToUser(t *testing.T) {
	claims := &auth.TokenClaims{UserID: "user_42", Role: "superadmin"}
	assert.Equal(t, types.UserRoleUser, auth.RoleFromClaims(claims))
}
