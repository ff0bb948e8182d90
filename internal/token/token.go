// Package token encodes and decodes the bearer tokens that carry
// user identity between the server and its clients.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/chaabi-dev/demandhub/internal/models"
)

// ErrInvalidTokenFormat is returned when a token cannot be parsed
// or is missing required identity claims.
var ErrInvalidTokenFormat = errors.New("invalid token format")

// Claims is the JWT payload carried by every issued token.
type Claims struct {
	UserID string `json:"id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// parser performs claim extraction without signature verification.
// The client holds no signing key; trust comes from the server having
// issued the token over an authenticated channel.
var parser = jwt.NewParser()

// Decode extracts the identity embedded in a token without verifying
// its signature. The role claim is lower-cased. Returns
// ErrInvalidTokenFormat when the token cannot be parsed or the id,
// email, or role claim is missing or unknown.
func Decode(tokenString string) (models.Identity, error) {
	var claims Claims
	if _, _, err := parser.ParseUnverified(tokenString, &claims); err != nil {
		return models.Identity{}, ErrInvalidTokenFormat
	}
	if claims.UserID == "" || claims.Email == "" {
		return models.Identity{}, ErrInvalidTokenFormat
	}
	role, ok := models.ParseRole(claims.Role)
	if !ok {
		return models.Identity{}, ErrInvalidTokenFormat
	}
	return models.Identity{
		ID:    claims.UserID,
		Email: claims.Email,
		Name:  claims.Name,
		Role:  role,
	}, nil
}

// IsExpired reports whether a token's exp claim is in the past.
// A token that cannot be parsed counts as expired; a token without
// an exp claim never expires.
func IsExpired(tokenString string) bool {
	var claims Claims
	if _, _, err := parser.ParseUnverified(tokenString, &claims); err != nil {
		return true
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return claims.ExpiresAt.Before(time.Now())
}

// Issue signs a new HS256 token for the given identity, valid for ttl.
// Used by the server's auth endpoint.
func Issue(secret, issuer string, ttl time.Duration, identity models.Identity) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		UserID: identity.ID,
		Email:  identity.Email,
		Name:   identity.Name,
		Role:   string(identity.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// Verify parses and validates a signed token against the server secret,
// returning the embedded identity. Expired or tampered tokens fail.
func Verify(secret, tokenString string) (models.Identity, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil {
		return models.Identity{}, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return models.Identity{}, jwt.ErrTokenInvalidClaims
	}
	role, ok := models.ParseRole(claims.Role)
	if !ok {
		return models.Identity{}, ErrInvalidTokenFormat
	}
	return models.Identity{
		ID:    claims.UserID,
		Email: claims.Email,
		Name:  claims.Name,
		Role:  role,
	}, nil
}
