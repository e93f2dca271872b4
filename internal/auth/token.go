// Package auth resolves who is on the other end of a request. Accounts and
// passwords live elsewhere; a caller proves who it is with a signed token,
// which Login can trade for a cookie session.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dkeye/Parley/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

const issuer = "parley"

var ErrInvalidToken = errors.New("invalid token")

// Claims carries the username in the standard subject claim.
type Claims struct {
	jwt.RegisteredClaims
}

// IssueToken signs an HS256 token for username valid for ttl.
func IssueToken(secret string, username domain.Identity, ttl time.Duration) (string, error) {
	if err := domain.ValidateUsername(string(username)); err != nil {
		return "", err
	}
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   string(username),
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseToken checks signature, algorithm, issuer and expiry and returns the
// subject.
func ParseToken(secret, token string) (domain.Identity, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return domain.Identity(claims.Subject), nil
}
