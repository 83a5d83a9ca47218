package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type ctxKey int

// ClaimsKey is used to store the session claims in the request context.
const ClaimsKey ctxKey = 1

const (
	RoleGuest = "guest"
	RoleUser  = "user"
)

// Claims carries the signed identity of a cart session. Subject is the
// owner id of the cart record.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// NewGuestClaims builds the claims for a freshly issued anonymous session.
func NewGuestClaims(ownerID string) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: ownerID},
		Role:             RoleGuest,
	}
}

// Keys signs and verifies session tokens with a shared HMAC secret.
type Keys struct {
	secret []byte
}

func NewKeys(secret string) (*Keys, error) {
	if secret == "" {
		return nil, fmt.Errorf("jwt secret is empty")
	}
	return &Keys{secret: []byte(secret)}, nil
}

// GenerateSessionToken mints a signed token identifying the cart owner.
// Carts are anonymous, so the default role is guest.
func (k *Keys) GenerateSessionToken(ownerID string, role string) (string, error) {
	if ownerID == "" {
		return "", fmt.Errorf("ownerID is empty")
	}
	if role == "" {
		role = RoleGuest
	}

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "cart-service",
			Subject:   ownerID,
			IssuedAt:  jwt.NewNumericDate(time.Now().UTC()),
			ExpiresAt: jwt.NewNumericDate(time.Now().UTC().Add(30 * 24 * time.Hour)),
		},
		Role: role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(k.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and verifies a session token and returns its claims.
func (k *Keys) ValidateToken(tokenStr string) (Claims, error) {
	var claims Claims

	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return k.secret, nil
	})
	if err != nil {
		return Claims{}, fmt.Errorf("failed to parse session token: %w", err)
	}
	if !token.Valid {
		return Claims{}, fmt.Errorf("invalid session token")
	}

	return claims, nil
}
