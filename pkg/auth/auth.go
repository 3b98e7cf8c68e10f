// Package auth implements the credential primitives for the service:
// bcrypt password hashing and HS256 JWT issue/verify. It is a leaf
// package with no domain dependencies, used by internal/domain/auth
// and internal/api/middleware.
package auth

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// TokenIssuer is stamped into every issued token and required back on parse.
const TokenIssuer = "zof"

// hashCost is the bcrypt work factor. 12 keeps a login round well under a
// second while staying expensive for offline cracking.
const hashCost = 12

const (
	envJWTSecret = "JWT_SECRET"
	envJWTExpiry = "JWT_EXPIRY"

	defaultTokenTTL = 24 * time.Hour
)

// Claims are the token claims for an authenticated user. UserID doubles as
// the registered subject; Email rides along for display and audit entries.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// secretKey reads JWT_SECRET. Panics when unset so the daemon fails at
// startup instead of issuing tokens nobody can verify later.
func secretKey() []byte {
	s := os.Getenv(envJWTSecret)
	if s == "" {
		panic(envJWTSecret + " environment variable not set — cannot initialize auth")
	}
	return []byte(s)
}

// tokenTTL resolves the token lifetime from a JWT_EXPIRY value in hours.
// Empty, unparseable or non-positive values fall back to the default
// instead of failing a login.
func tokenTTL(raw string) time.Duration {
	if raw == "" {
		return defaultTokenTTL
	}
	hours, err := strconv.Atoi(raw)
	if err != nil || hours <= 0 {
		return defaultTokenTTL
	}
	return time.Duration(hours) * time.Hour
}

// HashPassword returns the bcrypt hash of a plaintext password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), hashCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword reports whether password matches the stored bcrypt hash.
// A malformed hash counts as a mismatch, never an error the caller could
// leak back to the client.
func VerifyPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// GenerateJWT issues a signed HS256 token for the user. The lifetime comes
// from JWT_EXPIRY in hours (default 24). Panics if JWT_SECRET is not set.
func GenerateJWT(userID, email string) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    TokenIssuer,
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL(os.Getenv(envJWTExpiry)))),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secretKey())
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ParseJWT verifies a token and returns its claims. Only HS256 tokens
// carrying our issuer and an expiry pass; anything else, including an
// alg-substitution attempt, is rejected. Expired tokens fail with
// jwt.ErrTokenExpired in the error chain, so callers can tell expiry
// apart from forgery.
func ParseJWT(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, errors.New("token is empty")
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) { return secretKey(), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(TokenIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
