package auth

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"lexcora-checkout-api/utils"
)

const (
	CheckoutTokenType     = "checkout"
	DefaultTokenDuration  = 30 * time.Minute
	ephemeralSecretLength = 48
)

var (
	ErrTokenExpired = errors.New("token expired")
	ErrInvalidToken = errors.New("invalid token")
)

// JWTService issues bearer tokens that bind a browser to one checkout
// session, for clients that cannot keep the session cookie.
type JWTService struct {
	secretKey []byte
	issuer    string
	duration  time.Duration
}

type Claims struct {
	CheckoutID string `json:"checkout_id"`
	TokenType  string `json:"token_type"`
	jwt.RegisteredClaims
}

func NewJWTService(secretKey, issuer string, duration time.Duration) *JWTService {
	if secretKey == "" {
		log.Printf("Warning: no JWT secret configured, generating an ephemeral one")
		secretKey = utils.GenerateRandomString(ephemeralSecretLength)
	}
	if duration <= 0 {
		duration = DefaultTokenDuration
	}
	return &JWTService{
		secretKey: []byte(secretKey),
		issuer:    issuer,
		duration:  duration,
	}
}

// GenerateToken signs a token for checkoutID and returns its expiry.
func (j *JWTService) GenerateToken(checkoutID string) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(j.duration)
	claims := Claims{
		CheckoutID: checkoutID,
		TokenType:  CheckoutTokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   checkoutID,
			Issuer:    j.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(j.secretKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("error signing checkout token: %v", err)
	}
	return signed, expiresAt, nil
}

// ValidateToken returns the checkout id carried by a valid token.
func (j *JWTService) ValidateToken(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.secretKey, nil
	}, jwt.WithIssuer(j.issuer))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return "", ErrInvalidToken
	}

	if claims.TokenType != CheckoutTokenType || claims.CheckoutID == "" {
		return "", ErrInvalidToken
	}

	return claims.CheckoutID, nil
}
