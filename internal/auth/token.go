package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token verification failure kinds. All of them collapse to a single
// "invalid token" message at the HTTP boundary.
var (
	ErrNoSigningSecret   = errors.New("no token signing secret configured")
	ErrTokenMalformed    = errors.New("token is malformed")
	ErrTokenBadSignature = errors.New("token signature is invalid")
	ErrTokenExpired      = errors.New("token is expired")
)

// Claims are the statements carried by an issued token: the standard
// registered set plus the subject's role list.
type Claims struct {
	jwt.RegisteredClaims
	Roles []string `json:"roles"`
}

// TokenIssuer signs and verifies bearer tokens with a symmetric secret.
type TokenIssuer struct {
	secret []byte
}

// NewTokenIssuer constructs a TokenIssuer. An empty secret is allowed at
// construction; Issue and Verify then fail with ErrNoSigningSecret.
func NewTokenIssuer(secret string) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret)}
}

// Issue signs a token for the subject with the given roles and lifetime.
func (i *TokenIssuer) Issue(subject string, roles []string, ttl time.Duration) (string, error) {
	if len(i.secret) == 0 {
		return "", ErrNoSigningSecret
	}

	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Roles: roles,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

// Verify parses and validates a token and returns its claims. It fails
// closed: any parse, signature, or expiry problem yields an error and no
// claims. Signature comparison is constant-time inside the HMAC check.
func (i *TokenIssuer) Verify(tokenString string) (*Claims, error) {
	if len(i.secret) == 0 {
		return nil, ErrNoSigningSecret
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenBadSignature
		}
		return i.secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrTokenBadSignature
		default:
			return nil, ErrTokenMalformed
		}
	}
	if !token.Valid || claims.ExpiresAt == nil || strings.TrimSpace(claims.Subject) == "" {
		return nil, ErrTokenMalformed
	}
	return claims, nil
}
