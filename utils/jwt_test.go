package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateToken(t *testing.T) {
	secret := []byte("s3cret")

	token, exp, err := GenerateToken(secret, "ops", time.Hour)
	require.NoError(t, err)
	assert.Greater(t, exp, time.Now().Unix())

	claims, err := ValidateToken(secret, token)
	require.NoError(t, err)
	assert.Equal(t, "ops", claims.Subject)
	assert.Equal(t, ResetScope, claims.Scope)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	token, _, err := GenerateToken([]byte("one"), "ops", time.Hour)
	require.NoError(t, err)

	_, err = ValidateToken([]byte("two"), token)
	assert.Error(t, err)
}

func TestValidateTokenRejectsOtherScope(t *testing.T) {
	secret := []byte("s3cret")
	claims := &Claims{
		Subject: "ops",
		Scope:   "devices:read",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	require.NoError(t, err)

	_, err = ValidateToken(secret, token)
	assert.Error(t, err)
}

func TestGenerateTokenNeedsSecret(t *testing.T) {
	_, _, err := GenerateToken(nil, "ops", time.Hour)
	assert.Error(t, err)
}
