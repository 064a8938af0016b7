package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	svc := NewJWTService("secret", "lexcora-checkout", time.Minute)

	token, expiresAt, err := svc.GenerateToken("chk-1")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Minute), expiresAt, 5*time.Second)

	id, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "chk-1", id)
}

func TestValidateRejects(t *testing.T) {
	svc := NewJWTService("secret", "lexcora-checkout", time.Minute)
	token, _, err := svc.GenerateToken("chk-1")
	require.NoError(t, err)

	other := NewJWTService("other-secret", "lexcora-checkout", time.Minute)
	_, err = other.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	wrongIssuer := NewJWTService("secret", "someone-else", time.Minute)
	_, err = wrongIssuer.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.ValidateToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateExpired(t *testing.T) {
	svc := NewJWTService("secret", "lexcora-checkout", time.Minute)
	past := time.Now().Add(-time.Hour)
	claims := Claims{
		CheckoutID: "chk-1",
		TokenType:  CheckoutTokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "lexcora-checkout",
			IssuedAt:  jwt.NewNumericDate(past),
			ExpiresAt: jwt.NewNumericDate(past.Add(time.Minute)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestValidateWrongType(t *testing.T) {
	claims := Claims{
		CheckoutID: "chk-1",
		TokenType:  "access",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "lexcora-checkout",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = NewJWTService("secret", "lexcora-checkout", time.Minute).ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestEphemeralSecret(t *testing.T) {
	a := NewJWTService("", "lexcora-checkout", 0)
	b := NewJWTService("", "lexcora-checkout", 0)

	token, _, err := a.GenerateToken("chk-1")
	require.NoError(t, err)
	_, err = b.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Equal(t, DefaultTokenDuration, a.duration)
}
