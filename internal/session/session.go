// Package session reads what the client can know about a stored bearer
// token without the server's signing key.
package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the unverified registered claims of a token. The server
// remains the authority; these only let the client skip a token that has
// clearly expired.
type Claims struct {
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
	// Opaque is set when the token is not a JWT. Nothing is known about it.
	Opaque bool
}

// Inspect decodes token without verifying its signature.
func Inspect(token string) Claims {
	var rc jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &rc); err != nil {
		return Claims{Opaque: true}
	}
	c := Claims{Subject: rc.Subject}
	if rc.IssuedAt != nil {
		c.IssuedAt = rc.IssuedAt.Time
	}
	if rc.ExpiresAt != nil {
		c.ExpiresAt = rc.ExpiresAt.Time
	}
	return c
}

// Expired reports whether the token carries an expiry at or before now.
// Opaque tokens and tokens without exp never expire client-side.
func (c Claims) Expired(now time.Time) bool {
	if c.Opaque || c.ExpiresAt.IsZero() {
		return false
	}
	return !now.Before(c.ExpiresAt)
}
